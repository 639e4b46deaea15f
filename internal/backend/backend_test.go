package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agent0ai/a0ctl/internal/config"
	"github.com/agent0ai/a0ctl/internal/model"
)

// fakeBackend is a scriptable Backend for exercising detection and
// supervisor logic without containers. It counts calls so tests can make
// zero-call assertions.
type fakeBackend struct {
	kind       model.BackendKind
	probeErr   error
	startErr   error
	stopErr    error
	probeCalls int
	startCalls int
	stopCalls  int
}

func (f *fakeBackend) Kind() model.BackendKind { return f.kind }

func (f *fakeBackend) Probe(_ context.Context, _ config.ServiceConfig) error {
	f.probeCalls++
	return f.probeErr
}

func (f *fakeBackend) Find(_ context.Context, _ config.ServiceConfig) (*Handle, error) {
	return nil, nil
}

func (f *fakeBackend) Start(_ context.Context, _ config.ServiceConfig) (*Handle, error) {
	f.startCalls++
	if f.startErr != nil {
		return nil, f.startErr
	}
	return &Handle{Kind: f.kind}, nil
}

func (f *fakeBackend) Stop(_ context.Context, h *Handle) error {
	if h == nil || !h.BeginStop() {
		return nil
	}
	f.stopCalls++
	return f.stopErr
}

// TestDetect_PrefersFirstCandidate verifies that detection commits to the
// first candidate whose probe succeeds — compose is always listed before
// native, so compose wins whenever both are available.
func TestDetect_PrefersFirstCandidate(t *testing.T) {
	compose := &fakeBackend{kind: model.BackendComposeCLI}
	native := &fakeBackend{kind: model.BackendNativeAPI}

	selected, err := Detect(context.Background(), config.ServiceConfig{}, []Backend{compose, native})
	require.NoError(t, err)

	assert.Equal(t, model.BackendComposeCLI, selected.Kind())
	assert.Equal(t, 1, compose.probeCalls)
	assert.Equal(t, 0, native.probeCalls, "later candidates must not be probed once one succeeds")
}

// TestDetect_FallsBack verifies that a failing preferred probe falls
// through to the next candidate.
func TestDetect_FallsBack(t *testing.T) {
	compose := &fakeBackend{kind: model.BackendComposeCLI, probeErr: errors.New("no compose binary")}
	native := &fakeBackend{kind: model.BackendNativeAPI}

	selected, err := Detect(context.Background(), config.ServiceConfig{}, []Backend{compose, native})
	require.NoError(t, err)
	assert.Equal(t, model.BackendNativeAPI, selected.Kind())
}

// TestDetect_NoBackendAvailable verifies the all-probes-failed outcome:
// ErrNoBackendAvailable, with no start calls made anywhere.
func TestDetect_NoBackendAvailable(t *testing.T) {
	compose := &fakeBackend{kind: model.BackendComposeCLI, probeErr: errors.New("no compose binary")}
	native := &fakeBackend{kind: model.BackendNativeAPI, probeErr: errors.New("no socket")}

	_, err := Detect(context.Background(), config.ServiceConfig{}, []Backend{compose, native})
	require.Error(t, err)

	assert.True(t, errors.Is(err, model.ErrNoBackendAvailable))
	assert.Contains(t, err.Error(), "no compose binary")
	assert.Contains(t, err.Error(), "no socket")
	assert.Equal(t, 0, compose.startCalls)
	assert.Equal(t, 0, native.startCalls)
}

// TestHandle_StopIdempotent verifies that stopping the same handle twice
// only reaches the backend once, and the second call is a no-op success.
func TestHandle_StopIdempotent(t *testing.T) {
	b := &fakeBackend{kind: model.BackendNativeAPI}
	h := &Handle{Kind: model.BackendNativeAPI, ContainerID: "abc"}

	require.NoError(t, b.Stop(context.Background(), h))
	require.NoError(t, b.Stop(context.Background(), h))

	assert.Equal(t, 1, b.stopCalls, "backend stop must run exactly once")
	assert.True(t, h.Stopped())
}

// TestHandle_StopNil verifies that a nil handle is a no-op success, which
// keeps teardown paths unconditional.
func TestHandle_StopNil(t *testing.T) {
	b := &fakeBackend{kind: model.BackendComposeCLI}
	assert.NoError(t, b.Stop(context.Background(), nil))
	assert.Equal(t, 0, b.stopCalls)
}

// TestHandle_String verifies the log-friendly descriptions, including the
// container ID truncation.
func TestHandle_String(t *testing.T) {
	compose := &Handle{Kind: model.BackendComposeCLI, ProjectDir: "/srv/a0"}
	assert.Equal(t, "compose project at /srv/a0", compose.String())

	native := &Handle{
		Kind:          model.BackendNativeAPI,
		ContainerID:   "0123456789abcdef0123456789abcdef",
		ContainerName: "A0-dev-55022-55080",
	}
	assert.Equal(t, "container A0-dev-55022-55080 (0123456789ab)", native.String())
}
