// backend.go defines the Backend interface, the running-service Handle,
// and the ordered backend detection.
//
// Two real backends exist: the compose CLI backend (runs the service from
// the declarative descriptor via "docker compose" or the legacy
// "docker-compose" binary) and the native backend (creates the container
// directly against the Docker Engine API). Each exposes the same small
// capability set — probe, find, start, stop — so the supervisor can iterate
// an ordered candidate list once and commit to the first backend that
// probes successfully.
package backend

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/agent0ai/a0ctl/internal/config"
	"github.com/agent0ai/a0ctl/internal/model"
)

// Backend is the uniform capability set implemented by every container
// backend. Backends are stateless: all launch parameters travel in the
// ServiceConfig and all teardown parameters travel in the Handle.
type Backend interface {
	// Kind identifies the backend.
	Kind() model.BackendKind

	// Probe reports whether this backend can be used at all. It has no
	// side effects beyond running version/ping checks and may fail
	// silently — a probe error just means "try the next candidate".
	Probe(ctx context.Context, cfg config.ServiceConfig) error

	// Find looks for an already-running instance of the service and
	// returns an adopted handle for it, or (nil, nil) when none exists.
	Find(ctx context.Context, cfg config.ServiceConfig) (*Handle, error)

	// Start launches the service and returns a handle usable for later
	// teardown. If the service is already running, Start adopts it
	// without mutating any container state.
	Start(ctx context.Context, cfg config.ServiceConfig) (*Handle, error)

	// Stop tears the service down. Stopping an already-stopped handle is
	// a no-op success, never an error.
	Stop(ctx context.Context, h *Handle) error
}

// Handle is the opaque running-service handle returned by Start. It is
// owned exclusively by the supervisor and destroyed (service stopped) when
// the supervisor's scope exits.
//
// The stopped flag makes Stop idempotent even when a signal-triggered
// teardown races a normal shutdown.
type Handle struct {
	// Kind records which backend produced the handle.
	Kind model.BackendKind

	// ContainerID is the engine container ID. Set by the native backend.
	ContainerID string

	// ContainerName is the container name. Set by the native backend.
	ContainerName string

	// ProjectDir is the compose working directory. Set by the compose backend.
	ProjectDir string

	// ComposeFile is the descriptor path. Set by the compose backend.
	ComposeFile string

	// EnvFile is the compose env file path, or "". Set by the compose backend.
	EnvFile string

	// Adopted reports that the service was already running when Start was
	// called, so no container state was mutated to produce this handle.
	Adopted bool

	mu      sync.Mutex
	stopped bool
}

// BeginStop atomically transitions the handle to stopped. It returns false
// when the handle was already stopped, in which case the backend must treat
// the stop as a no-op success. Every Backend.Stop implementation calls this
// first; that is what makes Stop idempotent across racing shutdown paths.
func (h *Handle) BeginStop() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return false
	}
	h.stopped = true
	return true
}

// Stopped reports whether the handle has been stopped.
func (h *Handle) Stopped() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stopped
}

// String returns a short description of the handle for logging.
func (h *Handle) String() string {
	switch h.Kind {
	case model.BackendComposeCLI:
		return fmt.Sprintf("compose project at %s", h.ProjectDir)
	case model.BackendNativeAPI:
		id := h.ContainerID
		if len(id) > 12 {
			id = id[:12]
		}
		return fmt.Sprintf("container %s (%s)", h.ContainerName, id)
	default:
		return string(h.Kind)
	}
}

// DefaultCandidates returns the fixed, ordered backend list: compose CLI
// first, native engine API as fallback. The order is part of the contract
// and is never reconsidered mid-run.
func DefaultCandidates() []Backend {
	return []Backend{
		NewComposeBackend(),
		NewNativeBackend(),
	}
}

// Detect iterates the candidate list once and returns the first backend
// whose probe succeeds. When every probe fails, it returns
// model.ErrNoBackendAvailable with the individual probe errors joined in,
// and no container state has been mutated.
func Detect(ctx context.Context, cfg config.ServiceConfig, candidates []Backend) (Backend, error) {
	var probeErrs []error
	for _, b := range candidates {
		if err := b.Probe(ctx, cfg); err != nil {
			probeErrs = append(probeErrs, fmt.Errorf("%s: %w", b.Kind(), err))
			continue
		}
		return b, nil
	}
	return nil, errors.Join(model.ErrNoBackendAvailable, errors.Join(probeErrs...))
}
