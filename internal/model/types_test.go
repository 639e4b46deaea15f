package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSupervisorState_IsValid verifies that all defined lifecycle states
// are valid and that arbitrary strings are rejected.
func TestSupervisorState_IsValid(t *testing.T) {
	valid := []SupervisorState{
		StateIdle, StateBackendSelected, StateStarting,
		StateRunning, StateStopping, StateStopped,
	}
	for _, s := range valid {
		assert.True(t, s.IsValid(), "state %q should be valid", s)
	}

	invalid := []SupervisorState{"", "paused", "RUNNING ", "crashed"}
	for _, s := range invalid {
		assert.False(t, s.IsValid(), "state %q should be invalid", s)
	}
}

// TestSupervisorState_IsTerminal verifies that only Stopped is terminal.
func TestSupervisorState_IsTerminal(t *testing.T) {
	assert.True(t, StateStopped.IsTerminal())

	for _, s := range []SupervisorState{StateIdle, StateBackendSelected, StateStarting, StateRunning, StateStopping} {
		assert.False(t, s.IsTerminal(), "state %q should not be terminal", s)
	}
}

// TestParseSupervisorState verifies case-insensitive parsing and
// rejection of unknown state names.
func TestParseSupervisorState(t *testing.T) {
	state, err := ParseSupervisorState("Running")
	require.NoError(t, err)
	assert.Equal(t, StateRunning, state)

	state, err = ParseSupervisorState("backend-selected")
	require.NoError(t, err)
	assert.Equal(t, StateBackendSelected, state)

	_, err = ParseSupervisorState("halted")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid supervisor state")
}

// TestBackendKind_IsValid verifies the defined backend kinds and rejects
// everything else.
func TestBackendKind_IsValid(t *testing.T) {
	for _, k := range []BackendKind{BackendComposeCLI, BackendNativeAPI, BackendNone} {
		assert.True(t, k.IsValid(), "kind %q should be valid", k)
	}
	assert.False(t, BackendKind("podman").IsValid())
	assert.False(t, BackendKind("").IsValid())
}

// TestStartError_Unwrap verifies that StartError participates in Go error
// wrapping so callers can match the underlying cause with errors.Is.
func TestStartError_Unwrap(t *testing.T) {
	cause := errors.New("image pull failed")
	err := &StartError{Backend: BackendNativeAPI, Err: cause}

	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "native-api")
	assert.Contains(t, err.Error(), "image pull failed")
}

// TestStopError_Unwrap verifies the same wrapping behavior for StopError.
func TestStopError_Unwrap(t *testing.T) {
	cause := errors.New("daemon gone")
	err := &StopError{Backend: BackendComposeCLI, Err: cause}

	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "compose-cli")
}

// TestCLIError verifies exit-code carrying, message formatting, and
// unwrapping of the underlying error.
func TestCLIError(t *testing.T) {
	// Without an underlying error, Error() is just the message.
	plain := NewCLIError(ExitNoBackend, "no backend found")
	assert.Equal(t, "no backend found", plain.Error())
	assert.Equal(t, ExitNoBackend, plain.Code)

	// With an underlying error, Error() includes both parts and
	// errors.Is can reach the cause.
	cause := fmt.Errorf("connection refused")
	wrapped := WrapCLIError(ExitDockerNotRunning, "Docker daemon unreachable", cause)
	assert.Equal(t, "Docker daemon unreachable: connection refused", wrapped.Error())
	assert.True(t, errors.Is(wrapped, cause))
}

// TestCLIError_As verifies that a CLIError buried under fmt.Errorf wrapping
// is still recoverable with errors.As, which the CLI exit path relies on.
func TestCLIError_As(t *testing.T) {
	inner := NewCLIError(ExitInvalidConfig, "bad port")
	outer := fmt.Errorf("loading config: %w", inner)

	var cliErr *CLIError
	require.True(t, errors.As(outer, &cliErr))
	assert.Equal(t, ExitInvalidConfig, cliErr.Code)
}
