// Package lifecycle sequences the up and down state machines for one
// managed PwnBox deployment. The engine is the sole source of truth for
// container state; the orchestrator re-queries rather than caching handles
// across steps.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/deadpackets/pwnbox-cli/internal/display"
	"github.com/deadpackets/pwnbox-cli/internal/docker"
	apperrors "github.com/deadpackets/pwnbox-cli/internal/errors"
	"github.com/deadpackets/pwnbox-cli/internal/image"
	"github.com/deadpackets/pwnbox-cli/internal/profile"
	"github.com/deadpackets/pwnbox-cli/internal/sshwait"
)

// State is one step of the up state machine.
type State int

// Up states, in transition order. StateFailed is reachable from any
// transition.
const (
	StateInit State = iota
	StateImageCheck
	StatePulling
	StateContainerCheck
	StateCreating
	StateStarting
	StatePostStartHooks
	StateWaitingSSH
	StateAttached
	StateFailed
)

var stateNames = map[State]string{
	StateInit:           "INIT",
	StateImageCheck:     "IMAGE_CHECK",
	StatePulling:        "PULLING",
	StateContainerCheck: "CONTAINER_CHECK",
	StateCreating:       "CREATING",
	StateStarting:       "STARTING",
	StatePostStartHooks: "POST_START_HOOKS",
	StateWaitingSSH:     "WAITING_SSH",
	StateAttached:       "ATTACHED",
	StateFailed:         "FAILED",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Orchestrator drives one profile through provisioning and teardown.
type Orchestrator struct {
	engine     docker.Engine
	profile    profile.ContainerProfile
	resolver   *image.Resolver
	waiter     *sshwait.Waiter
	authorizer *display.Authorizer

	out           io.Writer
	verbose       bool
	skipFreshness bool

	state   State
	created *docker.Container // set only when this invocation created the container
}

// New constructs an orchestrator for the profile. Status output goes to out.
func New(engine docker.Engine, p profile.ContainerProfile, out io.Writer) *Orchestrator {
	if out == nil {
		out = os.Stdout
	}
	return &Orchestrator{
		engine:     engine,
		profile:    p,
		resolver:   image.NewResolver(engine, out),
		waiter:     sshwait.New(),
		authorizer: display.New(),
		out:        out,
		state:      StateInit,
	}
}

// WithResolver replaces the freshness resolver, for tests.
func (o *Orchestrator) WithResolver(r *image.Resolver) *Orchestrator {
	o.resolver = r
	return o
}

// WithWaiter replaces the readiness poller, for tests.
func (o *Orchestrator) WithWaiter(w *sshwait.Waiter) *Orchestrator {
	o.waiter = w
	return o
}

// WithAuthorizer replaces the display authorization hook, for tests.
func (o *Orchestrator) WithAuthorizer(a *display.Authorizer) *Orchestrator {
	o.authorizer = a
	return o
}

// WithVerbose enables verbose transition logging.
func (o *Orchestrator) WithVerbose(verbose bool) *Orchestrator {
	o.verbose = verbose
	return o
}

// WithSkipFreshness disables the remote freshness check (--no-update).
func (o *Orchestrator) WithSkipFreshness(skip bool) *Orchestrator {
	o.skipFreshness = skip
	return o
}

// State returns the machine's current state.
func (o *Orchestrator) State() State {
	return o.state
}

// Up runs the provisioning state machine to StateAttached. It returns the
// terminal state alongside any error; on failure, cleanup removes the
// container only if this invocation created it — a pre-existing container
// the user was already running is never touched.
func (o *Orchestrator) Up(ctx context.Context) (State, error) {
	// Validation happens before any engine call.
	spec, err := profile.Translate(o.profile)
	if err != nil {
		return o.fail(ctx, err)
	}

	ref := o.profile.ImageRef()

	existing, err := o.engine.ContainerByName(ctx, o.profile.Name)
	if err != nil {
		return o.fail(ctx, err)
	}

	if existing == nil {
		o.transition(StateImageCheck)
		if err := o.ensureImage(ctx, ref); err != nil {
			return o.fail(ctx, err)
		}
	} else if !o.skipFreshness {
		// An existing container is pinned to its image; just hint at
		// updates instead of pulling underneath it.
		if action, ferr := o.resolver.EnsureFresh(ctx, ref); ferr == nil && action == image.ActionPull {
			o.status(color.YellowString, "A newer PwnBox image is available! Run \"pwnbox pull\" to update.")
		}
	}

	o.transition(StateContainerCheck)
	switch {
	case existing.IsRunning():
		o.status(color.BlueString, "PwnBox container already running! Logging in...")
	case existing != nil:
		o.status(color.BlueString, "Found stopped PwnBox container, starting it...")
		if err := o.start(ctx, existing.ID); err != nil {
			return o.fail(ctx, err)
		}
	default:
		o.transition(StateCreating)
		created, cerr := o.engine.CreateContainer(ctx, spec)
		if cerr != nil {
			return o.fail(ctx, cerr)
		}
		o.created = created
		o.verbosef("Container created with ID: %s", created.ShortID())

		if err := o.start(ctx, created.ID); err != nil {
			return o.fail(ctx, err)
		}
		o.status(color.GreenString, "PwnBox launched successfully!")
	}

	if !existing.IsRunning() {
		o.transition(StatePostStartHooks)
		o.runPostStartHooks(ctx)
	}

	o.transition(StateWaitingSSH)
	o.status(color.BlueString, "Waiting for SSH to be available...")
	if err := o.waiter.Wait(ctx, o.profile.SSHHost, o.profile.SSHPort, o.profile.SSHTimeout); err != nil {
		// The container keeps running; the user can retry the attach
		// without re-provisioning.
		o.state = StateFailed
		return o.state, err
	}

	o.transition(StateAttached)
	return o.state, nil
}

// Down runs the teardown state machine. Stopping a non-existent or
// already-stopped container is a no-op success. The container is removed
// when auto_remove is set (implicitly, by the engine) or when remove is
// requested explicitly.
func (o *Orchestrator) Down(ctx context.Context, remove bool) error {
	existing, err := o.engine.ContainerByName(ctx, o.profile.Name)
	if err != nil {
		return err
	}
	if existing == nil {
		o.status(color.BlueString, "PwnBox container not running, nothing to do.")
		return nil
	}

	if o.profile.X11Forwarding {
		if err := o.authorizer.Revoke(ctx); err != nil {
			o.verbosef("Could not revoke X11 access: %v", err)
		} else {
			o.status(color.GreenString, "Disabled X11 remote access.")
		}
	}

	o.verbosef("Bringing down container with ID: %s", existing.ShortID())
	o.status(color.BlueString, "Stopping PwnBox container...")
	if err := o.engine.StopContainer(ctx, existing.ID); err != nil {
		return err
	}

	if remove && !o.profile.AutoRemove {
		if err := o.engine.RemoveContainer(ctx, existing.ID); err != nil {
			return err
		}
		o.status(color.GreenString, "PwnBox container removed.")
	}

	o.status(color.GreenString, "PwnBox container successfully stopped!")
	return nil
}

func (o *Orchestrator) ensureImage(ctx context.Context, ref string) error {
	if o.skipFreshness {
		exists, err := o.engine.ImageExists(ctx, ref)
		if err != nil {
			return err
		}
		if exists {
			o.status(color.BlueString, "Image already downloaded, continuing...")
			return nil
		}
		return o.pull(ctx, ref)
	}

	action, err := o.resolver.EnsureFresh(ctx, ref)
	if err != nil {
		return err
	}
	if action == image.ActionNone {
		o.status(color.BlueString, "Image already downloaded, continuing...")
		return nil
	}
	return o.pull(ctx, ref)
}

func (o *Orchestrator) pull(ctx context.Context, ref string) error {
	o.transition(StatePulling)
	o.status(color.YellowString, "Pulling image %s...", ref)
	if err := o.resolver.Pull(ctx, ref); err != nil {
		return err
	}
	o.status(color.GreenString, "PwnBox image downloaded successfully!")
	return nil
}

func (o *Orchestrator) start(ctx context.Context, id string) error {
	o.transition(StateStarting)
	return o.engine.StartContainer(ctx, id)
}

func (o *Orchestrator) runPostStartHooks(ctx context.Context) {
	if !o.profile.X11Forwarding {
		return
	}
	if err := o.authorizer.Authorize(ctx); err != nil {
		// Non-fatal: SSH access does not depend on the display server.
		o.status(color.YellowString, "Warning: could not enable X11 remote access: %v", err)
		return
	}
	o.status(color.BlueString, "X11 remote access enabled.")
}

// fail transitions to StateFailed and performs best-effort cleanup of a
// container this invocation created.
func (o *Orchestrator) fail(ctx context.Context, cause error) (State, error) {
	o.state = StateFailed

	if o.created != nil {
		// Cleanup must proceed even when the cause was a cancellation.
		cleanupCtx := ctx
		if ctx.Err() != nil {
			cleanupCtx = context.WithoutCancel(ctx)
		}
		if err := o.engine.StopContainer(cleanupCtx, o.created.ID); err != nil {
			o.verbosef("Cleanup stop failed: %v", err)
		}
		if err := o.engine.RemoveContainer(cleanupCtx, o.created.ID); err != nil {
			o.verbosef("Cleanup remove failed: %v", err)
		}
		o.created = nil
	}

	var conflict *apperrors.ConflictError
	if errors.As(cause, &conflict) {
		o.status(color.RedString, "A container named %q already exists. Inspect or remove it before running up.", conflict.Name)
	}

	return o.state, cause
}

func (o *Orchestrator) transition(next State) {
	o.verbosef("%s -> %s", o.state, next)
	o.state = next
}

func (o *Orchestrator) status(paint func(string, ...interface{}) string, format string, args ...any) {
	fmt.Fprintf(o.out, "%s\n", paint("=> "+format, args...))
}

func (o *Orchestrator) verbosef(format string, args ...any) {
	if o.verbose {
		fmt.Fprintf(o.out, "%s\n", color.CyanString("=> "+format, args...))
	}
}
