// Package display manages host display-server authorization for X11
// forwarding into the container. Failures here are never fatal: SSH access
// does not depend on the display server.
package display

import (
	"context"
	"os/exec"
	"runtime"
)

// runFunc executes the xhost binary. Injectable for tests.
type runFunc func(ctx context.Context, args ...string) error

// Authorizer grants and revokes local display-server access.
type Authorizer struct {
	run runFunc
}

// New returns an Authorizer that shells out to xhost.
func New() *Authorizer {
	return &Authorizer{run: runXhost}
}

// WithRunner replaces the xhost invocation, for tests.
func (a *Authorizer) WithRunner(run func(ctx context.Context, args ...string) error) *Authorizer {
	a.run = run
	return a
}

// Authorize permits inbound display connections from the container's
// network namespace.
func (a *Authorizer) Authorize(ctx context.Context) error {
	return a.run(ctx, grantArgs()...)
}

// Revoke withdraws the authorization granted by Authorize.
func (a *Authorizer) Revoke(ctx context.Context) error {
	return a.run(ctx, revokeArgs()...)
}

func grantArgs() []string {
	if runtime.GOOS == "linux" {
		return []string{"+local:root", "+localhost"}
	}
	return []string{"+localhost"}
}

func revokeArgs() []string {
	if runtime.GOOS == "linux" {
		return []string{"-local:root", "-localhost"}
	}
	return []string{"-localhost"}
}

func runXhost(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "xhost", args...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd.Run()
}
