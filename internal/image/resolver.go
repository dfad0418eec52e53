// Package image decides whether the configured image needs to be pulled and
// drives the pull with per-layer progress observation.
package image

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/docker/docker/pkg/jsonmessage"
	units "github.com/docker/go-units"
	"github.com/fatih/color"

	"github.com/deadpackets/pwnbox-cli/internal/docker"
	apperrors "github.com/deadpackets/pwnbox-cli/internal/errors"
)

// Action is the freshness decision for an image reference.
type Action int

const (
	// ActionNone means the local image is usable as-is.
	ActionNone Action = iota
	// ActionPull means the image is absent or stale and must be pulled.
	ActionPull
)

// PullProgress is one per-layer download event from an in-flight pull.
// Consumed only for display and discarded once the pull completes.
type PullProgress struct {
	LayerID string
	Status  string
	Current int64
	Total   int64
}

// ProgressFunc observes pull progress events.
type ProgressFunc func(PullProgress)

// Resolver implements the freshness decision over the engine adapter.
type Resolver struct {
	engine  docker.Engine
	out     io.Writer
	observe ProgressFunc
}

// NewResolver creates a Resolver that renders progress to out.
func NewResolver(engine docker.Engine, out io.Writer) *Resolver {
	if out == nil {
		out = os.Stdout
	}
	r := &Resolver{engine: engine, out: out}
	r.observe = r.renderProgress
	return r
}

// WithObserver replaces the progress renderer, for tests and quiet modes.
func (r *Resolver) WithObserver(fn ProgressFunc) *Resolver {
	r.observe = fn
	return r
}

// EnsureFresh decides whether ref must be pulled. Digest comparison is the
// sole basis for the decision; tag equality is never sufficient because a
// mutable tag can point at a new digest. A failed remote query degrades to
// ActionNone with a warning so transient network failures never block the
// user from a cached image.
func (r *Resolver) EnsureFresh(ctx context.Context, ref string) (Action, error) {
	exists, err := r.engine.ImageExists(ctx, ref)
	if err != nil {
		return ActionNone, err
	}
	if !exists {
		return ActionPull, nil
	}

	local, err := r.engine.LocalDigest(ctx, ref)
	if err != nil {
		var notFound *apperrors.NotFoundError
		if errors.As(err, &notFound) {
			// Locally built image with no repository digest: nothing to
			// compare against, keep what the user has.
			r.warn("image %s has no repository digest, skipping freshness check", ref)
			return ActionNone, nil
		}
		return ActionNone, err
	}

	remote, err := r.engine.RemoteDigest(ctx, ref)
	if err != nil {
		r.warn("could not reach the registry for %s, using the cached image", ref)
		return ActionNone, nil
	}

	if local != remote {
		return ActionPull, nil
	}
	return ActionNone, nil
}

// Pull downloads ref, forwarding layer progress to the observer. The pull is
// all-or-nothing: an engine-reported failure mid-stream aborts with a
// PullError and leaves any previously present image untouched.
func (r *Resolver) Pull(ctx context.Context, ref string) error {
	stream, err := r.engine.PullImage(ctx, ref)
	if err != nil {
		return err
	}
	defer stream.Close() //nolint:errcheck // stream already consumed

	decoder := json.NewDecoder(stream)
	for {
		if err := ctx.Err(); err != nil {
			return &apperrors.PullError{Ref: ref, Err: err}
		}

		var msg jsonmessage.JSONMessage
		if err := decoder.Decode(&msg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return &apperrors.PullError{Ref: ref, Err: err}
		}

		if msg.Error != nil {
			return &apperrors.PullError{Ref: ref, Err: msg.Error}
		}

		if msg.ID == "" {
			continue
		}
		event := PullProgress{LayerID: msg.ID, Status: msg.Status}
		if msg.Progress != nil {
			event.Current = msg.Progress.Current
			event.Total = msg.Progress.Total
		}
		r.observe(event)
	}
}

// renderProgress prints one line per completed layer rather than live bars;
// intermediate download events are kept quiet.
func (r *Resolver) renderProgress(p PullProgress) {
	switch p.Status {
	case "Pull complete", "Already exists":
		size := ""
		if p.Total > 0 {
			size = fmt.Sprintf(" [%s]", units.HumanSize(float64(p.Total)))
		}
		fmt.Fprintf(r.out, "%s layer %s%s\n", color.GreenString("=> %s", p.Status), p.LayerID, size)
	}
}

func (r *Resolver) warn(format string, args ...any) {
	fmt.Fprintf(r.out, "%s\n", color.YellowString("=> Warning: "+format, args...))
}
