package image

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deadpackets/pwnbox-cli/internal/docker"
	apperrors "github.com/deadpackets/pwnbox-cli/internal/errors"
	"github.com/deadpackets/pwnbox-cli/internal/profile"
)

// fakeEngine is a canned-response Engine for resolver tests.
type fakeEngine struct {
	exists       bool
	existsErr    error
	localDigest  string
	localErr     error
	remoteDigest string
	remoteErr    error
	pullStream   string
	pullErr      error
}

func (f *fakeEngine) Ping(context.Context) error { return nil }
func (f *fakeEngine) Close() error               { return nil }

func (f *fakeEngine) ImageExists(context.Context, string) (bool, error) {
	return f.exists, f.existsErr
}

func (f *fakeEngine) LocalDigest(context.Context, string) (string, error) {
	return f.localDigest, f.localErr
}

func (f *fakeEngine) RemoteDigest(context.Context, string) (string, error) {
	return f.remoteDigest, f.remoteErr
}

func (f *fakeEngine) PullImage(context.Context, string) (io.ReadCloser, error) {
	if f.pullErr != nil {
		return nil, f.pullErr
	}
	return io.NopCloser(strings.NewReader(f.pullStream)), nil
}

func (f *fakeEngine) ContainerByName(context.Context, string) (*docker.Container, error) {
	return nil, nil
}

func (f *fakeEngine) CreateContainer(context.Context, *profile.ContainerSpec) (*docker.Container, error) {
	return nil, nil
}

func (f *fakeEngine) StartContainer(context.Context, string) error  { return nil }
func (f *fakeEngine) StopContainer(context.Context, string) error   { return nil }
func (f *fakeEngine) RemoveContainer(context.Context, string) error { return nil }

const testRef = "docker.io/deadpackets/pwnbox:latest"

func TestEnsureFresh(t *testing.T) {
	tests := []struct {
		name   string
		engine *fakeEngine
		want   Action
	}{
		{
			name:   "image absent locally",
			engine: &fakeEngine{exists: false},
			want:   ActionPull,
		},
		{
			name: "digests match",
			engine: &fakeEngine{
				exists:       true,
				localDigest:  "sha256:aaa",
				remoteDigest: "sha256:aaa",
			},
			want: ActionNone,
		},
		{
			name: "digests differ",
			engine: &fakeEngine{
				exists:       true,
				localDigest:  "sha256:aaa",
				remoteDigest: "sha256:bbb",
			},
			want: ActionPull,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.engine, io.Discard)
			action, err := r.EnsureFresh(context.Background(), testRef)
			require.NoError(t, err)
			assert.Equal(t, tt.want, action)
		})
	}
}

func TestEnsureFresh_OfflineDegradesToNone(t *testing.T) {
	engine := &fakeEngine{
		exists:      true,
		localDigest: "sha256:aaa",
		remoteErr:   &apperrors.NetworkError{Operation: "RemoteDigest", Ref: testRef},
	}

	var out bytes.Buffer
	r := NewResolver(engine, &out)

	action, err := r.EnsureFresh(context.Background(), testRef)
	require.NoError(t, err)
	assert.Equal(t, ActionNone, action)
	assert.Contains(t, out.String(), "Warning")
}

func TestEnsureFresh_NoLocalDigest(t *testing.T) {
	engine := &fakeEngine{
		exists:   true,
		localErr: &apperrors.NotFoundError{Kind: "image digest for", Name: testRef},
	}

	var out bytes.Buffer
	r := NewResolver(engine, &out)

	action, err := r.EnsureFresh(context.Background(), testRef)
	require.NoError(t, err)
	assert.Equal(t, ActionNone, action)
	assert.Contains(t, out.String(), "no repository digest")
}

func TestPull_ForwardsLayerProgress(t *testing.T) {
	engine := &fakeEngine{
		pullStream: `{"status":"Pulling from deadpackets/pwnbox"}
{"status":"Downloading","id":"layer1","progressDetail":{"current":100,"total":200}}
{"status":"Pull complete","id":"layer1","progressDetail":{"current":200,"total":200}}
{"status":"Pull complete","id":"layer2"}
`,
	}

	var events []PullProgress
	r := NewResolver(engine, io.Discard).WithObserver(func(p PullProgress) {
		events = append(events, p)
	})

	err := r.Pull(context.Background(), testRef)
	require.NoError(t, err)

	require.Len(t, events, 3) // untagged status line is skipped
	assert.Equal(t, "layer1", events[0].LayerID)
	assert.Equal(t, int64(100), events[0].Current)
	assert.Equal(t, int64(200), events[0].Total)
	assert.Equal(t, "Pull complete", events[1].Status)
	assert.Equal(t, "layer2", events[2].LayerID)
}

func TestPull_MidStreamErrorAborts(t *testing.T) {
	engine := &fakeEngine{
		pullStream: `{"status":"Downloading","id":"layer1","progressDetail":{"current":50,"total":200}}
{"errorDetail":{"message":"unexpected EOF from registry"},"error":"unexpected EOF from registry"}
`,
	}

	r := NewResolver(engine, io.Discard).WithObserver(func(PullProgress) {})

	err := r.Pull(context.Background(), testRef)
	require.Error(t, err)

	var perr *apperrors.PullError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Error(), "unexpected EOF")
}

func TestPull_EngineRefusal(t *testing.T) {
	engine := &fakeEngine{
		pullErr: &apperrors.PullError{Ref: testRef},
	}

	r := NewResolver(engine, io.Discard)
	err := r.Pull(context.Background(), testRef)

	var perr *apperrors.PullError
	require.ErrorAs(t, err, &perr)
}

func TestPull_GarbageStream(t *testing.T) {
	engine := &fakeEngine{pullStream: "not json at all"}

	r := NewResolver(engine, io.Discard).WithObserver(func(PullProgress) {})
	err := r.Pull(context.Background(), testRef)

	var perr *apperrors.PullError
	require.ErrorAs(t, err, &perr)
}

func TestPull_Cancelled(t *testing.T) {
	engine := &fakeEngine{pullStream: `{"status":"Downloading","id":"layer1"}` + "\n"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewResolver(engine, io.Discard).WithObserver(func(PullProgress) {})
	err := r.Pull(ctx, testRef)

	var perr *apperrors.PullError
	require.ErrorAs(t, err, &perr)
}
