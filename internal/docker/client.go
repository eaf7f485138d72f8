// Package docker wraps the Docker Engine API for the inspection and cleanup
// paths of the harness. Stage commands go through the external docker CLI;
// this client covers what the CLI is clumsy at: listing test artifacts by
// reference filter and reading structured container state.
package docker

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
)

// API is the subset of Docker Engine operations the harness uses. Stages
// and cleanup depend on this interface; tests substitute a stub.
type API interface {
	Close() error
	ListImagesByReference(ctx context.Context, pattern string) ([]string, error)
	RemoveImage(ctx context.Context, ref string) error
	ListContainersByName(ctx context.Context, namePrefix string) ([]types.Container, error)
	RemoveContainer(ctx context.Context, id string) error
	HealthStatus(ctx context.Context, name string) (string, error)
	ExitCode(ctx context.Context, name string) (int, error)
	IsRunning(ctx context.Context, name string) (bool, error)
}

// Client wraps the Docker API client.
type Client struct {
	api *client.Client
}

var _ API = (*Client)(nil)

// NewClient connects to the Docker daemon and verifies the connection.
func NewClient(ctx context.Context) (*Client, error) {
	api, err := client.NewClientWithOpts(
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	if _, err := api.Ping(ctx); err != nil {
		api.Close()
		return nil, fmt.Errorf("docker daemon not reachable: %w", err)
	}

	return &Client{api: api}, nil
}

// Close releases the underlying Docker connection.
func (c *Client) Close() error {
	return c.api.Close()
}

// ListImagesByReference lists image IDs whose tags match the reference
// pattern (e.g. "lekiwi-base:*test*").
func (c *Client) ListImagesByReference(ctx context.Context, pattern string) ([]string, error) {
	f := filters.NewArgs(filters.Arg("reference", pattern))
	summaries, err := c.api.ImageList(ctx, image.ListOptions{Filters: f})
	if err != nil {
		return nil, fmt.Errorf("failed to list images for %q: %w", pattern, err)
	}

	ids := make([]string, 0, len(summaries))
	for _, s := range summaries {
		ids = append(ids, s.ID)
	}
	return ids, nil
}

// RemoveImage force-removes an image by ID or tag.
func (c *Client) RemoveImage(ctx context.Context, ref string) error {
	_, err := c.api.ImageRemove(ctx, ref, image.RemoveOptions{
		Force:         true,
		PruneChildren: true,
	})
	if err != nil {
		return fmt.Errorf("failed to remove image %s: %w", ref, err)
	}
	return nil
}

// ListContainersByName lists all containers (running or not) whose name
// matches the given prefix.
func (c *Client) ListContainersByName(ctx context.Context, namePrefix string) ([]types.Container, error) {
	f := filters.NewArgs(filters.Arg("name", namePrefix))
	containers, err := c.api.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: f,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers for %q: %w", namePrefix, err)
	}
	return containers, nil
}

// RemoveContainer force-removes a container by ID or name.
func (c *Client) RemoveContainer(ctx context.Context, id string) error {
	if err := c.api.ContainerRemove(ctx, id, container.RemoveOptions{Force: true}); err != nil {
		return fmt.Errorf("failed to remove container %s: %w", id, err)
	}
	return nil
}

// HealthStatus returns the health state of a container ("starting",
// "healthy", "unhealthy"), or "" when the container has no health check.
func (c *Client) HealthStatus(ctx context.Context, name string) (string, error) {
	info, err := c.api.ContainerInspect(ctx, name)
	if err != nil {
		return "", fmt.Errorf("failed to inspect container %s: %w", name, err)
	}
	if info.State == nil || info.State.Health == nil {
		return "", nil
	}
	return info.State.Health.Status, nil
}

// ExitCode returns the recorded exit code of a stopped container.
func (c *Client) ExitCode(ctx context.Context, name string) (int, error) {
	info, err := c.api.ContainerInspect(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect container %s: %w", name, err)
	}
	if info.State == nil {
		return 0, fmt.Errorf("container %s has no state", name)
	}
	if info.State.Running {
		return 0, fmt.Errorf("container %s is still running", name)
	}
	return info.State.ExitCode, nil
}

// IsRunning reports whether the named container is in the running state.
func (c *Client) IsRunning(ctx context.Context, name string) (bool, error) {
	info, err := c.api.ContainerInspect(ctx, name)
	if err != nil {
		if client.IsErrNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to inspect container %s: %w", name, err)
	}
	return info.State != nil && info.State.Running, nil
}
