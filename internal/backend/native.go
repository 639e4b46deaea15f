// native.go implements the native engine API backend. It creates and
// starts the service container programmatically through the Docker SDK,
// with port and volume mappings equivalent to the compose descriptor.
//
// This backend is the fallback: it is only selected when the compose CLI
// backend fails its probe (no compose binary, or no descriptor file).
package backend

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/go-connections/nat"

	"github.com/agent0ai/a0ctl/internal/config"
	"github.com/agent0ai/a0ctl/internal/docker"
	"github.com/agent0ai/a0ctl/internal/model"
)

// Container-side service ports. The web UI listens on 80 and SSH on 22
// inside the container; the host ports come from the resolved config.
const (
	containerHTTPPort = nat.Port("80/tcp")
	containerSSHPort  = nat.Port("22/tcp")
)

// nativeStartTimeout bounds the whole start sequence including an image
// pull. Matches the compose backend's start window.
const nativeStartTimeout = 120 * time.Second

// nativeStopGraceSeconds is how long the engine waits for the container's
// main process to exit on SIGTERM before killing it.
const nativeStopGraceSeconds = 30

// NativeBackend launches the service directly against the Docker Engine API.
type NativeBackend struct {
	// newClient is a seam for tests; production uses docker.NewClient.
	newClient func() (*docker.Client, error)
}

// NewNativeBackend returns a native backend connected via socket
// autodetection.
func NewNativeBackend() *NativeBackend {
	return &NativeBackend{newClient: docker.NewClient}
}

// Kind implements Backend.
func (b *NativeBackend) Kind() model.BackendKind {
	return model.BackendNativeAPI
}

// Probe implements Backend. The native backend is usable when an SDK
// client can be constructed and the daemon answers a ping.
func (b *NativeBackend) Probe(ctx context.Context, _ config.ServiceConfig) error {
	cli, err := b.newClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	return cli.Ping(ctx)
}

// Find implements Backend. It looks for a running container carrying the
// a0ctl management label and the configured name, and adopts it.
func (b *NativeBackend) Find(ctx context.Context, cfg config.ServiceConfig) (*Handle, error) {
	cli, err := b.newClient()
	if err != nil {
		return nil, err
	}
	defer func() { _ = cli.Close() }()

	existing, err := b.findManaged(ctx, cli, cfg.ContainerName)
	if err != nil {
		return nil, err
	}
	if existing == nil || existing.State != "running" {
		return nil, nil
	}

	return &Handle{
		Kind:          model.BackendNativeAPI,
		ContainerID:   existing.ID,
		ContainerName: cfg.ContainerName,
		Adopted:       true,
	}, nil
}

// Start implements Backend. The sequence is:
//
//  1. Adopt a running managed container if one exists.
//  2. Restart a stopped managed container if one exists.
//  3. Otherwise pull the image when missing, create the container with
//     the config's port and volume mappings, and start it.
//
// The whole sequence is bounded by nativeStartTimeout.
func (b *NativeBackend) Start(ctx context.Context, cfg config.ServiceConfig) (*Handle, error) {
	startCtx, cancel := context.WithTimeout(ctx, nativeStartTimeout)
	defer cancel()

	cli, err := b.newClient()
	if err != nil {
		return nil, err
	}
	defer func() { _ = cli.Close() }()

	existing, err := b.findManaged(startCtx, cli, cfg.ContainerName)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.State == "running" {
			return &Handle{
				Kind:          model.BackendNativeAPI,
				ContainerID:   existing.ID,
				ContainerName: cfg.ContainerName,
				Adopted:       true,
			}, nil
		}

		// A previously created container exists but is stopped; restart
		// it instead of recreating, preserving its writable layer.
		if err := cli.Inner().ContainerStart(startCtx, existing.ID, container.StartOptions{}); err != nil {
			return nil, fmt.Errorf("failed to restart container %q: %w", cfg.ContainerName, err)
		}
		return &Handle{
			Kind:          model.BackendNativeAPI,
			ContainerID:   existing.ID,
			ContainerName: cfg.ContainerName,
		}, nil
	}

	if err := b.ensureImage(startCtx, cli, cfg.Image); err != nil {
		return nil, err
	}

	exposed, bindings := buildPortBindings(cfg)
	containerCfg := &container.Config{
		Image:        cfg.Image,
		Labels:       BuildLabels(cfg, time.Now()),
		ExposedPorts: exposed,
	}
	hostCfg := &container.HostConfig{
		PortBindings: bindings,
		Binds:        buildBinds(cfg),
		// The service should survive daemon restarts but stay down once
		// the operator (or our teardown) stops it.
		RestartPolicy: container.RestartPolicy{Name: container.RestartPolicyUnlessStopped},
	}

	created, err := cli.Inner().ContainerCreate(startCtx, containerCfg, hostCfg, nil, nil, cfg.ContainerName)
	if err != nil {
		return nil, fmt.Errorf("failed to create container %q: %w", cfg.ContainerName, err)
	}
	if err := cli.Inner().ContainerStart(startCtx, created.ID, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("failed to start container %q: %w", cfg.ContainerName, err)
	}

	return &Handle{
		Kind:          model.BackendNativeAPI,
		ContainerID:   created.ID,
		ContainerName: cfg.ContainerName,
	}, nil
}

// Stop implements Backend. The container gets a SIGTERM and a grace period
// before the engine kills it. A vanished container counts as success —
// the goal state (not running) is already reached.
func (b *NativeBackend) Stop(ctx context.Context, h *Handle) error {
	if h == nil || !h.BeginStop() {
		return nil
	}

	cli, err := b.newClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	grace := nativeStopGraceSeconds
	err = cli.Inner().ContainerStop(ctx, h.ContainerID, container.StopOptions{Timeout: &grace})
	if err != nil && !cerrdefs.IsNotFound(err) {
		return fmt.Errorf("failed to stop container %q: %w", h.ContainerName, err)
	}
	return nil
}

// Describe returns the recorded metadata and state of the managed service
// container, running or not, or (nil, "", nil) when none exists. Used by
// diagnostics output; it never mutates container state.
func (b *NativeBackend) Describe(ctx context.Context, cfg config.ServiceConfig) (*ServiceInfo, string, error) {
	cli, err := b.newClient()
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = cli.Close() }()

	existing, err := b.findManaged(ctx, cli, cfg.ContainerName)
	if err != nil || existing == nil {
		return nil, "", err
	}

	info, err := ParseLabels(existing.Labels)
	if err != nil {
		return nil, "", fmt.Errorf("container %s has malformed labels: %w", cfg.ContainerName, err)
	}
	return info, existing.State, nil
}

// findManaged returns the managed service container with the given name,
// running or not, or nil when none exists.
func (b *NativeBackend) findManaged(ctx context.Context, cli *docker.Client, name string) (*types.Container, error) {
	// Filtering server-side on the management label keeps unrelated
	// containers out of the result entirely.
	filterArgs := filters.NewArgs(
		filters.Arg("label", LabelManagedBy+"="+ManagedByValue),
		filters.Arg("name", name),
	)
	containers, err := cli.Inner().ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filterArgs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	if match := selectByName(containers, name); match != nil {
		return match, nil
	}
	return nil, nil
}

// selectByName picks the container whose name matches exactly. The Docker
// name filter is a substring match, so "A0-dev-55022-55080" would also
// match "A0-dev-55022-55080-old"; this narrows it to the exact name.
func selectByName(containers []types.Container, name string) *types.Container {
	for i := range containers {
		for _, n := range containers[i].Names {
			// The API reports names with a leading "/".
			if strings.TrimPrefix(n, "/") == name {
				return &containers[i]
			}
		}
	}
	return nil
}

// ensureImage checks for the image locally and pulls it when missing.
// First-time pulls of the service image are large; the pull stream is
// drained to completion before returning.
func (b *NativeBackend) ensureImage(ctx context.Context, cli *docker.Client, ref string) error {
	if _, err := cli.Inner().ImageInspect(ctx, ref); err == nil {
		return nil
	}

	reader, err := cli.Inner().ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image %q: %w", ref, err)
	}
	defer func() { _ = reader.Close() }()

	if _, err := io.Copy(io.Discard, reader); err != nil {
		return fmt.Errorf("image pull of %q interrupted: %w", ref, err)
	}
	return nil
}

// buildPortBindings maps the container-side service ports to the
// configured host ports. An empty host IP lets the engine bind all
// interfaces, same as the compose descriptor's short port syntax.
func buildPortBindings(cfg config.ServiceConfig) (nat.PortSet, nat.PortMap) {
	exposed := nat.PortSet{
		containerHTTPPort: struct{}{},
		containerSSHPort:  struct{}{},
	}
	bindings := nat.PortMap{
		containerHTTPPort: []nat.PortBinding{{HostPort: strconv.Itoa(cfg.HTTPPort)}},
		containerSSHPort:  []nat.PortBinding{{HostPort: strconv.Itoa(cfg.SSHPort)}},
	}
	return exposed, bindings
}

// buildBinds renders the config's volume mounts in the engine's
// "host:container:mode" bind syntax, preserving declaration order.
func buildBinds(cfg config.ServiceConfig) []string {
	binds := make([]string, 0, len(cfg.Volumes))
	for _, v := range cfg.Volumes {
		binds = append(binds, v.String())
	}
	return binds
}
