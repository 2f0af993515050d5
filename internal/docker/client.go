// Package docker provides the thin Docker API surface the build driver needs:
// a daemon reachability check before a build run, and image existence/tagging
// after local-mode builds. Image building itself goes through buildx.
package docker

import (
	"context"
	"fmt"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
)

// APIClient is the subset of the Docker client the build driver uses.
// Tests substitute a fake.
type APIClient interface {
	Ping(ctx context.Context) (types.Ping, error)
	ImageInspect(ctx context.Context, imageRef string, opts ...client.ImageInspectOption) (image.InspectResponse, error)
	ImageTag(ctx context.Context, source, target string) error
	Close() error
}

// Client wraps the Docker API client.
type Client struct {
	api APIClient
}

// NewClient connects to the Docker daemon using the standard environment
// (DOCKER_HOST etc.) and verifies it is reachable.
func NewClient(ctx context.Context) (*Client, error) {
	api, err := client.NewClientWithOpts(
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating docker client: %w", err)
	}

	c := &Client{api: api}
	if err := c.PingDaemon(ctx); err != nil {
		api.Close()
		return nil, err
	}
	return c, nil
}

// NewClientWithAPI creates a Client from an existing API client.
// Intended for tests.
func NewClientWithAPI(api APIClient) *Client {
	return &Client{api: api}
}

// PingDaemon verifies the daemon is reachable.
func (c *Client) PingDaemon(ctx context.Context) error {
	if _, err := c.api.Ping(ctx); err != nil {
		return fmt.Errorf("docker daemon is not reachable: %w", err)
	}
	return nil
}

// ImageExists checks if an image exists locally.
func (c *Client) ImageExists(ctx context.Context, imageRef string) (bool, error) {
	_, err := c.api.ImageInspect(ctx, imageRef)
	if err != nil {
		if cerrdefs.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("inspecting image %s: %w", imageRef, err)
	}
	return true, nil
}

// TagImage adds an additional tag to an existing local image.
func (c *Client) TagImage(ctx context.Context, source, target string) error {
	if err := c.api.ImageTag(ctx, source, target); err != nil {
		return fmt.Errorf("tagging %s as %s: %w", source, target, err)
	}
	return nil
}

// Close closes the underlying Docker connection.
func (c *Client) Close() error {
	return c.api.Close()
}
