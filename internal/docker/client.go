// Package docker provides the engine adapter for the PwnBox CLI. It wraps
// the Docker API behind a narrow capability interface so the orchestrator
// stays engine-agnostic and a test double can substitute it entirely.
package docker

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"

	apperrors "github.com/deadpackets/pwnbox-cli/internal/errors"
	"github.com/deadpackets/pwnbox-cli/internal/profile"
)

// Engine is the capability interface over the container engine control
// plane. Operations are synchronous from the caller's perspective; PullImage
// streams internally. The adapter never retries — retry policy belongs to
// the orchestrator.
type Engine interface {
	// Ping verifies the engine daemon is accessible.
	Ping(ctx context.Context) error
	// Close releases the client connection.
	Close() error

	// ImageExists reports whether the image reference exists locally.
	ImageExists(ctx context.Context, ref string) (bool, error)
	// LocalDigest returns the content digest of the local image, or a
	// NotFoundError when the image (or its repository digest) is absent.
	LocalDigest(ctx context.Context, ref string) (string, error)
	// RemoteDigest resolves the reference against the registry. Fails with
	// a NetworkError when the registry is unreachable.
	RemoteDigest(ctx context.Context, ref string) (string, error)
	// PullImage starts a pull and returns the raw progress stream. The
	// caller owns the stream and must close it.
	PullImage(ctx context.Context, ref string) (io.ReadCloser, error)

	// ContainerByName looks up a container by name. Returns (nil, nil) when
	// no container with that name exists.
	ContainerByName(ctx context.Context, name string) (*Container, error)
	// CreateContainer creates a container from the spec. Fails with a
	// ConflictError when the name is already in use.
	CreateContainer(ctx context.Context, spec *profile.ContainerSpec) (*Container, error)
	// StartContainer starts a created or stopped container.
	StartContainer(ctx context.Context, id string) error
	// StopContainer stops a running container. Stopping an already-stopped
	// or absent container is a no-op success.
	StopContainer(ctx context.Context, id string) error
	// RemoveContainer removes a stopped container.
	RemoveContainer(ctx context.Context, id string) error
}

// dockerEngine implements Engine using the Docker SDK.
type dockerEngine struct {
	cli        *client.Client
	socketPath string
}

// Compile-time verification that dockerEngine implements Engine
var _ Engine = (*dockerEngine)(nil)

// NewEngine connects to the engine daemon at socketPath (or the environment
// default if empty) with API version negotiation.
func NewEngine(socketPath string) (Engine, error) {
	opts := []client.Opt{
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	}
	if socketPath != "" {
		opts = append(opts, client.WithHost(socketPath))
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine client for %s: %w", socketPath, err)
	}

	return &dockerEngine{cli: cli, socketPath: socketPath}, nil
}

func (e *dockerEngine) Ping(ctx context.Context) error {
	if _, err := e.cli.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping engine daemon at %s: %w", e.socketPath, err)
	}
	return nil
}

func (e *dockerEngine) Close() error {
	return e.cli.Close()
}

func (e *dockerEngine) ImageExists(ctx context.Context, ref string) (bool, error) {
	_, _, err := e.cli.ImageInspectWithRaw(ctx, ref)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to inspect image %s: %w", ref, err)
	}
	return true, nil
}

func (e *dockerEngine) LocalDigest(ctx context.Context, ref string) (string, error) {
	inspect, _, err := e.cli.ImageInspectWithRaw(ctx, ref)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return "", &apperrors.NotFoundError{Kind: "image", Name: ref}
		}
		return "", fmt.Errorf("failed to inspect image %s: %w", ref, err)
	}

	// RepoDigests carries "repo@sha256:..."; the digest is the part after
	// the @. A locally built image has none.
	for _, repoDigest := range inspect.RepoDigests {
		if _, digest, found := strings.Cut(repoDigest, "@"); found {
			return digest, nil
		}
	}
	return "", &apperrors.NotFoundError{Kind: "image digest for", Name: ref}
}

func (e *dockerEngine) RemoteDigest(ctx context.Context, ref string) (string, error) {
	dist, err := e.cli.DistributionInspect(ctx, ref, "")
	if err != nil {
		return "", &apperrors.NetworkError{Operation: "RemoteDigest", Ref: ref, Err: err}
	}
	return dist.Descriptor.Digest.String(), nil
}

func (e *dockerEngine) PullImage(ctx context.Context, ref string) (io.ReadCloser, error) {
	stream, err := e.cli.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return nil, &apperrors.PullError{Ref: ref, Err: err}
	}
	return stream, nil
}

func (e *dockerEngine) ContainerByName(ctx context.Context, name string) (*Container, error) {
	inspect, err := e.cli.ContainerInspect(ctx, name)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to inspect container %s: %w", name, err)
	}

	created, _ := time.Parse(time.RFC3339Nano, inspect.Created)
	state := ""
	if inspect.State != nil {
		state = inspect.State.Status
	}
	imageRef := ""
	if inspect.Config != nil {
		imageRef = inspect.Config.Image
	}

	return &Container{
		ID:      inspect.ID,
		Name:    strings.TrimPrefix(inspect.Name, "/"),
		State:   state,
		Image:   imageRef,
		Created: created,
	}, nil
}

func (e *dockerEngine) CreateContainer(ctx context.Context, spec *profile.ContainerSpec) (*Container, error) {
	config := &container.Config{
		Image:        spec.Image,
		Hostname:     spec.Hostname,
		Env:          spec.Env,
		ExposedPorts: spec.ExposedPorts,
	}

	hostConfig := &container.HostConfig{
		Privileged:   spec.Privileged,
		AutoRemove:   spec.AutoRemove,
		NetworkMode:  container.NetworkMode(spec.NetworkMode),
		DNS:          spec.DNS,
		PortBindings: spec.PortBindings,
		Binds:        spec.Binds,
		ExtraHosts:   spec.ExtraHosts,
	}

	resp, err := e.cli.ContainerCreate(ctx, config, hostConfig, nil, nil, spec.Name)
	if err != nil {
		if errdefs.IsConflict(err) {
			return nil, &apperrors.ConflictError{Name: spec.Name, Err: err}
		}
		return nil, &apperrors.CreateError{Name: spec.Name, Err: err}
	}

	return &Container{ID: resp.ID, Name: spec.Name, State: "created", Image: spec.Image}, nil
}

func (e *dockerEngine) StartContainer(ctx context.Context, id string) error {
	if err := e.cli.ContainerStart(ctx, id, container.StartOptions{}); err != nil {
		return &apperrors.StartError{Name: id, Err: err}
	}
	return nil
}

func (e *dockerEngine) StopContainer(ctx context.Context, id string) error {
	err := e.cli.ContainerStop(ctx, id, container.StopOptions{})
	if err == nil || errdefs.IsNotFound(err) || errdefs.IsNotModified(err) {
		// Idempotent teardown: already stopped or already gone is success.
		return nil
	}
	return fmt.Errorf("failed to stop container %s: %w", id, err)
}

func (e *dockerEngine) RemoveContainer(ctx context.Context, id string) error {
	err := e.cli.ContainerRemove(ctx, id, container.RemoveOptions{})
	if err == nil || errdefs.IsNotFound(err) {
		return nil
	}
	return fmt.Errorf("failed to remove container %s: %w", id, err)
}
