// Package supervisor drives the auto-start lifecycle of the service
// container: decide whether to start at all, commit to a backend, launch
// the service, and guarantee teardown on every exit path.
//
// The lifecycle is a linear state machine:
//
//	Idle → BackendSelected → Starting → Running → Stopping → Stopped
//
// Stopped is terminal and reachable from any non-Idle state (shutdown
// signal or fatal error). Control flow is single-threaded and blocking;
// the only concurrency concern is a signal-triggered Stop racing a normal
// one, which the stop-once guard resolves.
package supervisor

import (
	"context"
	"sync"

	"github.com/agent0ai/a0ctl/internal/backend"
	"github.com/agent0ai/a0ctl/internal/config"
	"github.com/agent0ai/a0ctl/internal/model"
	"github.com/agent0ai/a0ctl/internal/runtime"
)

// Logf is the logging hook the CLI layer injects for verbose output.
type Logf func(format string, args ...interface{})

// Supervisor owns the supervised service's lifecycle. At most one service
// handle exists per Supervisor (and the CLI creates one Supervisor per
// process), so at most one RunningService handle exists per process.
type Supervisor struct {
	cfg        config.ServiceConfig
	detector   *runtime.Detector
	candidates []backend.Backend
	health     *HealthChecker
	logf       Logf

	mu       sync.Mutex
	state    model.SupervisorState
	selected backend.Backend
	handle   *backend.Handle
	ready    bool

	stopOnce sync.Once
}

// Option customizes a Supervisor. Tests use these to inject fakes.
type Option func(*Supervisor)

// WithCandidates replaces the ordered backend candidate list.
func WithCandidates(candidates []backend.Backend) Option {
	return func(s *Supervisor) { s.candidates = candidates }
}

// WithDetector replaces the in-container detector.
func WithDetector(d *runtime.Detector) Option {
	return func(s *Supervisor) { s.detector = d }
}

// WithHealthChecker replaces the advisory health checker.
func WithHealthChecker(h *HealthChecker) Option {
	return func(s *Supervisor) { s.health = h }
}

// WithLogf sets the verbose logging hook.
func WithLogf(logf Logf) Option {
	return func(s *Supervisor) { s.logf = logf }
}

// New creates a Supervisor for the given resolved configuration.
// The auto-start toggle is carried in the config, not read from ambient
// state, so a Supervisor's behavior is fully determined at construction.
func New(cfg config.ServiceConfig, opts ...Option) *Supervisor {
	s := &Supervisor{
		cfg:        cfg,
		detector:   runtime.NewDetector(),
		candidates: backend.DefaultCandidates(),
		logf:       func(string, ...interface{}) {},
		state:      model.StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.health == nil {
		s.health = NewHealthChecker(cfg)
	}
	return s
}

// ShouldAutoStart reports whether Start would attempt a launch: the
// auto-start toggle must be enabled and the process must not itself be
// running inside a container. Pure — no side effects.
func (s *Supervisor) ShouldAutoStart() bool {
	return s.cfg.AutoStart && !s.detector.InContainer()
}

// State returns the current lifecycle state.
func (s *Supervisor) State() model.SupervisorState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// BackendKind returns the committed backend kind, or BackendNone before
// selection happened.
func (s *Supervisor) BackendKind() model.BackendKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return model.BackendNone
	}
	return s.selected.Kind()
}

// Handle returns the running-service handle, or nil.
func (s *Supervisor) Handle() *backend.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle
}

// Ready reports whether the advisory health probe has succeeded.
// A running-but-unready service is still a successful start.
func (s *Supervisor) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// setState transitions the lifecycle state. Callers hold s.mu.
func (s *Supervisor) setState(next model.SupervisorState) {
	s.logf("supervisor: %s → %s", s.state, next)
	s.state = next
}

// Start launches the service through the first backend that probes
// successfully.
//
// Short circuits, in order:
//   - auto-start disabled → model.ErrAutoStartDisabled (no-op outcome)
//   - running inside a container → model.ErrAlreadyInContainer (no-op
//     outcome; no backend is ever invoked)
//   - a live handle exists → model.ErrAlreadyStarted
//
// When every backend probe fails, Start returns an error wrapping
// model.ErrNoBackendAvailable and the supervisor stays Idle — no container
// state has been mutated. A backend start failure is fatal to the state
// machine (terminal Stopped) and is returned as a *model.StartError for
// the caller to surface as a warning.
func (s *Supervisor) Start(ctx context.Context) error {
	if !s.cfg.AutoStart {
		return model.ErrAutoStartDisabled
	}
	if s.detector.InContainer() {
		return model.ErrAlreadyInContainer
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle != nil {
		return model.ErrAlreadyStarted
	}
	if s.state.IsTerminal() {
		return model.ErrAlreadyStarted
	}

	if s.selected == nil {
		b, err := backend.Detect(ctx, s.cfg, s.candidates)
		if err != nil {
			return err
		}
		s.selected = b
		s.setState(model.StateBackendSelected)
		s.logf("supervisor: committed to %s backend", b.Kind())
	}

	s.setState(model.StateStarting)
	h, err := s.selected.Start(ctx, s.cfg)
	if err != nil {
		s.setState(model.StateStopped)
		return &model.StartError{Backend: s.selected.Kind(), Err: err}
	}

	s.handle = h
	s.setState(model.StateRunning)
	if h.Adopted {
		s.logf("supervisor: adopted already-running %s", h)
	} else {
		s.logf("supervisor: started %s", h)
	}
	return nil
}

// WaitReady runs the advisory health probe until the service answers, the
// probe budget is exhausted, or ctx is cancelled. Probe failure never
// affects the lifecycle state — the service stays Running, just not ready.
func (s *Supervisor) WaitReady(ctx context.Context) error {
	if err := s.health.WaitReady(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	s.ready = true
	s.mu.Unlock()
	return nil
}

// Stop tears the service down. It runs the backend stop exactly once per
// Supervisor regardless of how many callers race into it (deferred
// teardown vs. signal handler); every subsequent call is a no-op success.
// A backend stop failure is returned as a *model.StopError exactly once,
// for logging only — the state machine still reaches Stopped.
func (s *Supervisor) Stop(ctx context.Context) error {
	var stopErr error
	s.stopOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		// Stopping an Idle supervisor acquires nothing to release.
		if s.state == model.StateIdle {
			s.setState(model.StateStopped)
			return
		}

		s.setState(model.StateStopping)
		if s.handle != nil && s.selected != nil {
			if err := s.selected.Stop(ctx, s.handle); err != nil {
				stopErr = &model.StopError{Backend: s.selected.Kind(), Err: err}
			}
		}
		s.setState(model.StateStopped)
	})
	return stopErr
}
