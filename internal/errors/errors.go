// Package apperrors provides domain-specific error types for the PwnBox CLI.
// Each type carries the context a user needs to act on the failure without
// digging through engine diagnostics.
package apperrors

import (
	"fmt"
	"time"
)

// ValidationError represents a configuration value the translator rejected.
// It is always raised before any engine call is made.
type ValidationError struct {
	Field  string // Configuration field that failed validation
	Value  string // Offending value as written by the user
	Reason string // Human-readable reason for the rejection
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NetworkError represents a registry or engine communication failure.
type NetworkError struct {
	Operation string // Operation that failed (e.g., "RemoteDigest")
	Ref       string // Image reference involved, if any
	Err       error  // Underlying error
}

// Error implements the error interface for NetworkError.
func (e *NetworkError) Error() string {
	if e.Ref != "" {
		return fmt.Sprintf("network error during %s for %s: %v", e.Operation, e.Ref, e.Err)
	}
	return fmt.Sprintf("network error during %s: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying error for error wrapping chains.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// PullError represents an engine-reported image pull failure. A pull is
// all-or-nothing: any previously present image is left untouched.
type PullError struct {
	Ref string // Image reference being pulled
	Err error  // Underlying error
}

// Error implements the error interface for PullError.
func (e *PullError) Error() string {
	return fmt.Sprintf("failed to pull image %s: %v", e.Ref, e.Err)
}

// Unwrap returns the underlying error for error wrapping chains.
func (e *PullError) Unwrap() error {
	return e.Err
}

// NotFoundError represents a lookup for an image or container that does not
// exist in the engine.
type NotFoundError struct {
	Kind string // "image" or "container"
	Name string // Reference or name that was looked up
}

// Error implements the error interface for NotFoundError.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Name)
}

// ConflictError represents a container name collision: the engine already
// holds a container with the requested name that this invocation did not
// create. Never retried; the user should inspect the existing container.
type ConflictError struct {
	Name string // Container name in conflict
	Err  error  // Underlying engine error
}

// Error implements the error interface for ConflictError.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("container name %q is already in use: %v", e.Name, e.Err)
}

// Unwrap returns the underlying error for error wrapping chains.
func (e *ConflictError) Unwrap() error {
	return e.Err
}

// CreateError represents an engine rejection of a container create request
// other than a name conflict.
type CreateError struct {
	Name string // Container name being created
	Err  error  // Underlying engine error
}

// Error implements the error interface for CreateError.
func (e *CreateError) Error() string {
	return fmt.Sprintf("failed to create container %s: %v", e.Name, e.Err)
}

// Unwrap returns the underlying error for error wrapping chains.
func (e *CreateError) Unwrap() error {
	return e.Err
}

// StartError represents an engine rejection of a container start request.
type StartError struct {
	Name string // Container name being started
	Err  error  // Underlying engine error
}

// Error implements the error interface for StartError.
func (e *StartError) Error() string {
	return fmt.Sprintf("failed to start container %s: %v", e.Name, e.Err)
}

// Unwrap returns the underlying error for error wrapping chains.
func (e *StartError) Unwrap() error {
	return e.Err
}

// TimeoutError represents the readiness poller giving up before the SSH
// service inside the container accepted a connection. The container is left
// running so the user can retry the attach without re-provisioning.
type TimeoutError struct {
	Host    string        // Probed host
	Port    int           // Probed port
	Elapsed time.Duration // Time spent polling before giving up
}

// Error implements the error interface for TimeoutError.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for SSH on %s:%d", e.Elapsed.Round(time.Millisecond), e.Host, e.Port)
}
