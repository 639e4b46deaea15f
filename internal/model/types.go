// types.go defines the lifecycle states, backend kinds, exit codes, and
// the error types shared between the supervisor, the backends, and the
// CLI layer. All entities here are plain data.
package model

import (
	"errors"
	"fmt"
	"strings"
)

// SupervisorState represents the lifecycle state of the container supervisor.
// The state transitions are:
//
//	Idle → BackendSelected → Starting → Running → Stopping → Stopped
//
// Stopped is terminal and reachable from any non-Idle state on a shutdown
// signal or a fatal error.
type SupervisorState string

const (
	// StateIdle is the initial state before any backend probing has happened.
	StateIdle SupervisorState = "idle"

	// StateBackendSelected indicates a backend probe succeeded and the
	// supervisor has committed to that backend for the process lifetime.
	StateBackendSelected SupervisorState = "backend-selected"

	// StateStarting indicates the backend's start operation is in flight.
	StateStarting SupervisorState = "starting"

	// StateRunning indicates the managed service has been started (or an
	// already-running service was adopted). Running does not imply healthy —
	// readiness is determined separately by the advisory health probe.
	StateRunning SupervisorState = "running"

	// StateStopping indicates teardown is in flight.
	StateStopping SupervisorState = "stopping"

	// StateStopped is the terminal state. The supervisor never leaves it.
	StateStopped SupervisorState = "stopped"
)

// String returns the string representation of SupervisorState.
// This satisfies fmt.Stringer for CLI output and logging.
func (s SupervisorState) String() string {
	return string(s)
}

// IsValid checks whether the SupervisorState value is one of the
// predefined lifecycle states.
func (s SupervisorState) IsValid() bool {
	switch s {
	case StateIdle, StateBackendSelected, StateStarting, StateRunning, StateStopping, StateStopped:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the state is the terminal Stopped state.
func (s SupervisorState) IsTerminal() bool {
	return s == StateStopped
}

// ParseSupervisorState converts a string to a SupervisorState.
// Returns an error if the string does not match any valid state.
func ParseSupervisorState(s string) (SupervisorState, error) {
	state := SupervisorState(strings.ToLower(s))
	if !state.IsValid() {
		return "", fmt.Errorf("invalid supervisor state: %q (valid: idle, backend-selected, starting, running, stopping, stopped)", s)
	}
	return state, nil
}

// BackendKind identifies which container-management backend the supervisor
// committed to at startup. Selection happens exactly once per process; the
// choice is never re-evaluated mid-run.
type BackendKind string

const (
	// BackendComposeCLI launches the service through the docker compose CLI
	// (plugin form preferred, legacy docker-compose binary as fallback).
	// This is always the preferred backend when available.
	BackendComposeCLI BackendKind = "compose-cli"

	// BackendNativeAPI launches the service programmatically against the
	// Docker Engine API via the SDK, without a descriptor file.
	BackendNativeAPI BackendKind = "native-api"

	// BackendNone means no usable backend was found during probing.
	BackendNone BackendKind = "none"
)

// String returns the string representation of BackendKind.
func (k BackendKind) String() string {
	return string(k)
}

// IsValid checks whether the BackendKind value is one of the
// predefined backend kinds.
func (k BackendKind) IsValid() bool {
	switch k {
	case BackendComposeCLI, BackendNativeAPI, BackendNone:
		return true
	default:
		return false
	}
}

// Sentinel errors used for control flow around supervisor startup.
var (
	// ErrNoBackendAvailable is returned when neither the compose CLI nor
	// the native engine API could be probed successfully. No container
	// state has been mutated when this error is returned.
	ErrNoBackendAvailable = errors.New("no container backend available")

	// ErrAlreadyInContainer signals that the process is itself running
	// inside a container, so auto-start must not launch a nested service.
	// This is a short-circuit signal, not a failure: the CLI reports it
	// as a successful no-op.
	ErrAlreadyInContainer = errors.New("already running inside a container")

	// ErrAlreadyStarted is returned by a re-entrant Start while a live
	// service handle exists. At most one handle exists per process.
	ErrAlreadyStarted = errors.New("service already started by this process")

	// ErrAutoStartDisabled signals that the operator turned the auto-start
	// toggle off. Like ErrAlreadyInContainer, this is a no-op outcome,
	// not a failure.
	ErrAutoStartDisabled = errors.New("auto-start is disabled by configuration")
)

// StartError wraps a backend start failure with the backend that reported it.
// Start failures are surfaced to the operator as warnings; the parent process
// continues in degraded mode rather than aborting.
type StartError struct {
	// Backend is the backend kind whose start operation failed.
	Backend BackendKind

	// Err is the underlying backend error.
	Err error
}

// Error satisfies the error interface.
func (e *StartError) Error() string {
	return fmt.Sprintf("backend %s failed to start service: %v", e.Backend, e.Err)
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *StartError) Unwrap() error {
	return e.Err
}

// StopError wraps a backend stop failure. Stop failures are logged and never
// escalated, since shutdown must complete regardless.
type StopError struct {
	// Backend is the backend kind whose stop operation failed.
	Backend BackendKind

	// Err is the underlying backend error.
	Err error
}

// Error satisfies the error interface.
func (e *StopError) Error() string {
	return fmt.Sprintf("backend %s failed to stop service: %v", e.Backend, e.Err)
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *StopError) Unwrap() error {
	return e.Err
}

// ExitCode defines standard CLI exit codes. These codes allow scripts and CI
// systems to programmatically determine the outcome of a command.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitInvalidConfig indicates the resolved service configuration
	// failed validation (bad port, empty image, unreadable settings file).
	ExitInvalidConfig ExitCode = 2

	// ExitDockerNotRunning indicates the Docker daemon is not accessible.
	ExitDockerNotRunning ExitCode = 3

	// ExitNoBackend indicates neither container backend could be probed.
	ExitNoBackend ExitCode = 4

	// ExitStartFailed indicates the selected backend failed to launch
	// the service and the command could not continue in degraded mode.
	ExitStartFailed ExitCode = 5
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
