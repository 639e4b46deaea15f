package backend

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agent0ai/a0ctl/internal/config"
	"github.com/agent0ai/a0ctl/internal/model"
)

// call records a single subprocess invocation made through the fake runner.
type call struct {
	dir  string
	env  map[string]string
	name string
	args []string
}

// line renders the invocation as a single command line for easy matching.
func (c call) line() string {
	return strings.Join(append([]string{c.name}, c.args...), " ")
}

// fakeRunner scripts subprocess results by command-line prefix and records
// every invocation. Unscripted commands succeed with empty output.
type fakeRunner struct {
	calls   []call
	outputs map[string]string // command-line prefix → stdout
	errs    map[string]error  // command-line prefix → error
}

func (f *fakeRunner) run(_ context.Context, dir string, env map[string]string, name string, args ...string) ([]byte, error) {
	c := call{dir: dir, env: env, name: name, args: args}
	f.calls = append(f.calls, c)

	for prefix, err := range f.errs {
		if strings.HasPrefix(c.line(), prefix) {
			return nil, err
		}
	}
	for prefix, out := range f.outputs {
		if strings.HasPrefix(c.line(), prefix) {
			return []byte(out), nil
		}
	}
	return nil, nil
}

// testComposeConfig returns a config whose descriptor file actually exists,
// so the probe's file check passes.
func testComposeConfig(t *testing.T) config.ServiceConfig {
	t.Helper()
	dir := t.TempDir()
	composeFile := filepath.Join(dir, "docker-compose.yml")
	require.NoError(t, os.WriteFile(composeFile, []byte("services: {}\n"), 0o644))

	return config.ServiceConfig{
		Image:       "frdel/agent-zero-run:development",
		Branch:      "development",
		HTTPPort:    55080,
		SSHPort:     55022,
		ProjectDir:  dir,
		ComposeFile: composeFile,
	}
}

// TestComposeBackend_ProbeMissingDescriptor verifies that the probe fails
// without touching any subprocess when the descriptor file is absent.
func TestComposeBackend_ProbeMissingDescriptor(t *testing.T) {
	runner := &fakeRunner{}
	b := &ComposeBackend{run: runner.run}

	cfg := testComposeConfig(t)
	cfg.ComposeFile = filepath.Join(cfg.ProjectDir, "missing.yml")

	err := b.Probe(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.Empty(t, runner.calls, "no subprocess should run when the descriptor is missing")
}

// TestComposeBackend_PrefersPlugin verifies the CLI probe order: the
// compose plugin is tried first and used when it responds.
func TestComposeBackend_PrefersPlugin(t *testing.T) {
	runner := &fakeRunner{}
	b := &ComposeBackend{run: runner.run}

	command, err := b.composeCommand(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"docker", "compose"}, command)
	require.Len(t, runner.calls, 1)
	assert.Equal(t, "docker compose version", runner.calls[0].line())
}

// TestComposeBackend_FallsBackToLegacyBinary verifies the legacy
// docker-compose fallback when the plugin probe fails.
func TestComposeBackend_FallsBackToLegacyBinary(t *testing.T) {
	runner := &fakeRunner{
		errs: map[string]error{"docker compose version": errors.New("unknown command")},
	}
	b := &ComposeBackend{run: runner.run}

	command, err := b.composeCommand(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"docker-compose"}, command)
}

// TestComposeBackend_NoCLI verifies that the probe fails when neither
// compose form is installed.
func TestComposeBackend_NoCLI(t *testing.T) {
	runner := &fakeRunner{
		errs: map[string]error{
			"docker compose version": errors.New("unknown command"),
			"docker-compose version": errors.New("executable not found"),
		},
	}
	b := &ComposeBackend{run: runner.run}

	err := b.Probe(context.Background(), testComposeConfig(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "neither")
}

// TestComposeBackend_StartRunsUp verifies the full start invocation:
// liveness check first, then "up -d" in the project directory with the
// descriptor flag and the resolved AGENT_ZERO_* environment injected.
func TestComposeBackend_StartRunsUp(t *testing.T) {
	runner := &fakeRunner{}
	b := &ComposeBackend{run: runner.run}
	cfg := testComposeConfig(t)

	h, err := b.Start(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, h)

	assert.Equal(t, model.BackendComposeCLI, h.Kind)
	assert.False(t, h.Adopted)
	assert.Equal(t, cfg.ProjectDir, h.ProjectDir)

	// Last call must be the up; everything before is probing and liveness.
	up := runner.calls[len(runner.calls)-1]
	assert.Equal(t, "docker compose -f "+cfg.ComposeFile+" up -d", up.line())
	assert.Equal(t, cfg.ProjectDir, up.dir)
	assert.Equal(t, "55080", up.env[config.EnvHTTPPort],
		"resolved http port must be visible to descriptor substitution")
	assert.Equal(t, "frdel/agent-zero-run:development", up.env[config.EnvImage])
}

// TestComposeBackend_StartAdoptsRunning verifies that a live project
// ("ps -q" reports container IDs) is adopted without running "up".
func TestComposeBackend_StartAdoptsRunning(t *testing.T) {
	runner := &fakeRunner{}
	b := &ComposeBackend{run: runner.run}
	cfg := testComposeConfig(t)

	runner.outputs = map[string]string{
		"docker compose -f " + cfg.ComposeFile + " ps -q": "4f5a6b7c8d9e\n",
	}

	h, err := b.Start(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.True(t, h.Adopted)

	for _, c := range runner.calls {
		assert.NotContains(t, c.line(), " up ", "up must not run when the project is already live")
	}
}

// TestComposeBackend_EnvFilePassThrough verifies that an existing
// .env.docker reaches the compose CLI via --env-file.
func TestComposeBackend_EnvFilePassThrough(t *testing.T) {
	runner := &fakeRunner{}
	b := &ComposeBackend{run: runner.run}
	cfg := testComposeConfig(t)
	cfg.ComposeEnvFile = filepath.Join(cfg.ProjectDir, ".env.docker")

	_, err := b.Start(context.Background(), cfg)
	require.NoError(t, err)

	up := runner.calls[len(runner.calls)-1]
	assert.Contains(t, up.line(), "--env-file "+cfg.ComposeEnvFile)
}

// TestComposeBackend_StopRunsDown verifies teardown and its idempotency:
// the first Stop runs "down", the second is a no-op success.
func TestComposeBackend_StopRunsDown(t *testing.T) {
	runner := &fakeRunner{}
	b := &ComposeBackend{run: runner.run}
	cfg := testComposeConfig(t)

	h, err := b.Start(context.Background(), cfg)
	require.NoError(t, err)

	require.NoError(t, b.Stop(context.Background(), h))
	down := runner.calls[len(runner.calls)-1]
	assert.Equal(t, "docker compose -f "+cfg.ComposeFile+" down", down.line())
	assert.Equal(t, cfg.ProjectDir, down.dir)

	callsAfterFirstStop := len(runner.calls)
	require.NoError(t, b.Stop(context.Background(), h))
	assert.Equal(t, callsAfterFirstStop, len(runner.calls),
		"second stop must not run any subprocess")
}

// TestComposeFileArgs verifies the shared argument builder with and
// without an env file.
func TestComposeFileArgs(t *testing.T) {
	assert.Equal(t, []string{"-f", "/p/docker-compose.yml"},
		composeFileArgs("/p/docker-compose.yml", ""))

	assert.Equal(t, []string{"-f", "/p/docker-compose.yml", "--env-file", "/p/.env.docker"},
		composeFileArgs("/p/docker-compose.yml", "/p/.env.docker"))
}
