// Package version contains version information and the release update check.
package version

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGetFullVersion(t *testing.T) {
	// Save original values
	originalVersion := Version
	originalBuildDate := BuildDate
	originalGitCommit := GitCommit
	defer func() {
		Version = originalVersion
		BuildDate = originalBuildDate
		GitCommit = originalGitCommit
	}()

	Version = "v2.1.1"
	BuildDate = "2024-01-15T10:30:00Z"
	GitCommit = "abc123def"

	got := GetFullVersion()
	if !strings.HasPrefix(got, "v2.1.1 ") {
		t.Errorf("GetFullVersion() = %q, should start with version", got)
	}
	if !strings.Contains(got, "build: 2024-01-15T10:30:00Z") {
		t.Errorf("GetFullVersion() = %q, should contain build date", got)
	}
	if !strings.Contains(got, "commit: abc123def") {
		t.Errorf("GetFullVersion() = %q, should contain commit", got)
	}
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		name    string
		version string
		want    string
	}{
		{
			name:    "already prefixed",
			version: "v2.1.1",
			want:    "v2.1.1",
		},
		{
			name:    "bare version gets prefix",
			version: "2.1.1",
			want:    "v2.1.1",
		},
		{
			name:    "empty stays empty",
			version: "",
			want:    "",
		},
		{
			name:    "pre-release",
			version: "1.0.0-rc.1",
			want:    "v1.0.0-rc.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := canonical(tt.version); got != tt.want {
				t.Errorf("canonical(%q) = %q, want %q", tt.version, got, tt.want)
			}
		})
	}
}

func TestCheckForUpdate(t *testing.T) {
	// Save original values
	originalVersion := Version
	defer func() { Version = originalVersion }()

	tests := []struct {
		name      string
		current   string
		published string
		wantNewer bool
	}{
		{
			name:      "newer release available",
			current:   "v2.0.0",
			published: "v2.1.1",
			wantNewer: true,
		},
		{
			name:      "already current",
			current:   "v2.1.1",
			published: "v2.1.1",
			wantNewer: false,
		},
		{
			name:      "published older than local build",
			current:   "v3.0.0",
			published: "v2.1.1",
			wantNewer: false,
		},
		{
			name:      "dev build never reports newer",
			current:   "dev",
			published: "v9.9.9",
			wantNewer: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprintln(w, tt.published)
			}))
			defer srv.Close()

			Version = tt.current
			latest, newer, err := checkAgainst(t, srv.URL)
			if err != nil {
				t.Fatalf("CheckForUpdate() error = %v", err)
			}
			if latest != tt.published {
				t.Errorf("latest = %q, want %q", latest, tt.published)
			}
			if newer != tt.wantNewer {
				t.Errorf("newer = %t, want %t", newer, tt.wantNewer)
			}
		})
	}
}

func TestCheckForUpdate_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, _, err := checkAgainst(t, srv.URL)
	if err == nil {
		t.Error("CheckForUpdate() should fail on non-200 status")
	}
}

func TestCheckForUpdate_InvalidVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, "not-a-version")
	}))
	defer srv.Close()

	_, _, err := checkAgainst(t, srv.URL)
	if err == nil {
		t.Error("CheckForUpdate() should reject an unparseable published version")
	}
}

// checkAgainst points the update check at a test server for one call.
func checkAgainst(t *testing.T, url string) (string, bool, error) {
	t.Helper()
	// ReleaseURL is a package constant; replicate the check against the
	// provided URL by temporarily routing through checkURL.
	return checkURL(context.Background(), url)
}
