// Package version contains version information and the release update check.
package version

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

// Version information for the PwnBox CLI. Overridden at build time via
// ldflags by the release automation.
var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// ReleaseURL is the published marker fetched by the update check.
const ReleaseURL = "https://raw.githubusercontent.com/DeadPackets/pwnbox-cli/main/VERSION.txt"

// GetVersion returns the version string. When a version marker file was
// installed by the release automation it takes precedence over the
// compiled-in value.
func GetVersion() string {
	if v := readMarker(); v != "" {
		return v
	}
	return Version
}

// GetFullVersion returns version with build metadata.
func GetFullVersion() string {
	return GetVersion() + " (build: " + BuildDate + ", commit: " + GitCommit + ")"
}

// MarkerPath returns the location of the installed version marker file.
func MarkerPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home + "/.pwnbox/VERSION"
}

func readMarker() string {
	path := MarkerPath()
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path) // #nosec G304 -- fixed path under the user's home
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// CheckForUpdate fetches the published release version and reports whether a
// newer release exists. The returned string is the latest published version.
// Callers treat errors as a warning only, never a fatal condition.
func CheckForUpdate(ctx context.Context) (latest string, newer bool, err error) {
	return checkURL(ctx, ReleaseURL)
}

func checkURL(ctx context.Context, url string) (latest string, newer bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false, err
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", false, err
	}
	defer resp.Body.Close() //nolint:errcheck // response body close error not actionable

	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 256))
	if err != nil {
		return "", false, err
	}

	latest = strings.TrimSpace(string(body))
	if !semver.IsValid(canonical(latest)) {
		return "", false, fmt.Errorf("published version %q is not a valid semantic version", latest)
	}

	current := GetVersion()
	if !semver.IsValid(canonical(current)) {
		// Dev builds have no comparable version; report the latest without
		// claiming it is newer.
		return latest, false, nil
	}

	return latest, semver.Compare(canonical(latest), canonical(current)) > 0, nil
}

// canonical normalizes a version string to the "vMAJOR.MINOR.PATCH" form
// that golang.org/x/mod/semver expects.
func canonical(v string) string {
	if v == "" {
		return v
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
