package docker

import (
	"context"
	"errors"
	"fmt"
	"testing"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/stretchr/testify/require"
)

// fakeAPI implements APIClient for tests.
type fakeAPI struct {
	pingErr    error
	images     map[string]bool
	inspectErr error
	tagged     map[string]string
	closed     bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		images: map[string]bool{},
		tagged: map[string]string{},
	}
}

func (f *fakeAPI) Ping(context.Context) (types.Ping, error) {
	return types.Ping{}, f.pingErr
}

func (f *fakeAPI) ImageInspect(_ context.Context, ref string, _ ...client.ImageInspectOption) (image.InspectResponse, error) {
	if f.inspectErr != nil {
		return image.InspectResponse{}, f.inspectErr
	}
	if !f.images[ref] {
		return image.InspectResponse{}, fmt.Errorf("no such image %s: %w", ref, cerrdefs.ErrNotFound)
	}
	return image.InspectResponse{}, nil
}

func (f *fakeAPI) ImageTag(_ context.Context, source, target string) error {
	if !f.images[source] {
		return fmt.Errorf("no such image %s: %w", source, cerrdefs.ErrNotFound)
	}
	f.tagged[target] = source
	return nil
}

func (f *fakeAPI) Close() error {
	f.closed = true
	return nil
}

func TestPingDaemon(t *testing.T) {
	api := newFakeAPI()
	c := NewClientWithAPI(api)
	require.NoError(t, c.PingDaemon(context.Background()))

	api.pingErr = errors.New("connection refused")
	err := c.PingDaemon(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "docker daemon is not reachable")
}

func TestImageExists(t *testing.T) {
	api := newFakeAPI()
	api.images["ghcr.io/acme/widgets:go1.23.2-py3.12.7"] = true
	c := NewClientWithAPI(api)

	exists, err := c.ImageExists(context.Background(), "ghcr.io/acme/widgets:go1.23.2-py3.12.7")
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = c.ImageExists(context.Background(), "ghcr.io/acme/widgets:missing")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestImageExists_InspectError(t *testing.T) {
	api := newFakeAPI()
	api.inspectErr = errors.New("daemon on fire")
	c := NewClientWithAPI(api)

	_, err := c.ImageExists(context.Background(), "ref")
	require.Error(t, err)
}

func TestTagImage(t *testing.T) {
	api := newFakeAPI()
	api.images["src:hash"] = true
	c := NewClientWithAPI(api)

	require.NoError(t, c.TagImage(context.Background(), "src:hash", "src:latest"))
	require.Equal(t, "src:hash", api.tagged["src:latest"])

	err := c.TagImage(context.Background(), "missing:hash", "missing:latest")
	require.Error(t, err)
}

func TestClose(t *testing.T) {
	api := newFakeAPI()
	c := NewClientWithAPI(api)
	require.NoError(t, c.Close())
	require.True(t, api.closed)
}
