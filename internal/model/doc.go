// Package model defines the domain types and value objects for the a0ctl
// supervisor.
//
// This package contains pure data structures with no external dependencies:
// the supervisor lifecycle state machine (SupervisorState), the backend
// selection enum (BackendKind), the start/stop error wrappers, and the
// sentinel errors used for control flow (ErrNoBackendAvailable,
// ErrAlreadyInContainer).
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
