// compose.go implements the compose CLI backend. It shells out to the
// docker compose plugin (or the legacy docker-compose binary) and drives
// the service through the declarative descriptor file.
//
// This is always the preferred backend: when the descriptor and a
// compose-capable CLI are both present, the probe succeeds and the native
// backend is never consulted.
package backend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/agent0ai/a0ctl/internal/config"
	"github.com/agent0ai/a0ctl/internal/model"
)

// Subprocess timeouts. First-time starts may pull a multi-GB image layer
// set, so the start window is deliberately wide.
const (
	composeProbeTimeout = 10 * time.Second
	composePsTimeout    = 30 * time.Second
	composeStartTimeout = 120 * time.Second
	composeStopTimeout  = 60 * time.Second
)

// commandRunner executes a subprocess and returns its combined output.
// It is a seam for tests; production code uses runCommand.
type commandRunner func(ctx context.Context, dir string, extraEnv map[string]string, name string, args ...string) ([]byte, error)

// runCommand is the production commandRunner. It inherits the process
// environment and overlays extraEnv, so descriptor variable substitution
// sees the resolved AGENT_ZERO_* values.
func runCommand(ctx context.Context, dir string, extraEnv map[string]string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = os.Environ()
	for k, v := range extraEnv {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("%s %s: %s: %w",
			name, strings.Join(args, " "), strings.TrimSpace(string(output)), err)
	}
	return output, nil
}

// ComposeBackend launches the service via the compose CLI.
type ComposeBackend struct {
	run commandRunner
}

// NewComposeBackend returns a compose backend using real subprocesses.
func NewComposeBackend() *ComposeBackend {
	return &ComposeBackend{run: runCommand}
}

// Kind implements Backend.
func (b *ComposeBackend) Kind() model.BackendKind {
	return model.BackendComposeCLI
}

// Probe implements Backend. The compose backend is usable when the
// descriptor file exists and a compose-capable CLI responds to "version".
func (b *ComposeBackend) Probe(ctx context.Context, cfg config.ServiceConfig) error {
	if _, err := os.Stat(cfg.ComposeFile); err != nil {
		return fmt.Errorf("compose descriptor %s not found: %w", cfg.ComposeFile, err)
	}
	if _, err := b.composeCommand(ctx); err != nil {
		return err
	}
	return nil
}

// composeCommand determines the compose invocation, preferring the plugin
// form ("docker compose") and falling back to the standalone binary.
// Modern Docker ships compose as a plugin; the standalone docker-compose
// only survives on older installations.
func (b *ComposeBackend) composeCommand(ctx context.Context) ([]string, error) {
	probeCtx, cancel := context.WithTimeout(ctx, composeProbeTimeout)
	defer cancel()

	if _, err := b.run(probeCtx, "", nil, "docker", "compose", "version"); err == nil {
		return []string{"docker", "compose"}, nil
	}
	if _, err := b.run(probeCtx, "", nil, "docker-compose", "version"); err == nil {
		return []string{"docker-compose"}, nil
	}
	return nil, errors.New("neither the docker compose plugin nor docker-compose is installed")
}

// composeFileArgs builds the common file arguments for every compose
// invocation: the descriptor via -f and the optional env file.
func composeFileArgs(composeFile, envFile string) []string {
	args := []string{"-f", composeFile}
	if envFile != "" {
		args = append(args, "--env-file", envFile)
	}
	return args
}

// Find implements Backend. It runs "ps -q"; any output means the project's
// containers are up, in which case an adopted handle is returned.
func (b *ComposeBackend) Find(ctx context.Context, cfg config.ServiceConfig) (*Handle, error) {
	command, err := b.composeCommand(ctx)
	if err != nil {
		return nil, err
	}

	psCtx, cancel := context.WithTimeout(ctx, composePsTimeout)
	defer cancel()

	args := append(command[1:], composeFileArgs(cfg.ComposeFile, cfg.ComposeEnvFile)...)
	args = append(args, "ps", "-q")
	output, err := b.run(psCtx, cfg.ProjectDir, nil, command[0], args...)
	if err != nil {
		return nil, fmt.Errorf("compose ps failed: %w", err)
	}
	if strings.TrimSpace(string(output)) == "" {
		return nil, nil
	}

	return &Handle{
		Kind:        model.BackendComposeCLI,
		ProjectDir:  cfg.ProjectDir,
		ComposeFile: cfg.ComposeFile,
		EnvFile:     cfg.ComposeEnvFile,
		Adopted:     true,
	}, nil
}

// Start implements Backend. An already-running project is adopted without
// touching it; otherwise "up -d" launches the service in detached mode with
// the resolved configuration injected into the compose environment.
func (b *ComposeBackend) Start(ctx context.Context, cfg config.ServiceConfig) (*Handle, error) {
	if existing, err := b.Find(ctx, cfg); err == nil && existing != nil {
		return existing, nil
	}
	// A failed liveness check is not fatal here: "up -d" is idempotent,
	// so we fall through and let it sort out the actual state.

	command, err := b.composeCommand(ctx)
	if err != nil {
		return nil, err
	}

	startCtx, cancel := context.WithTimeout(ctx, composeStartTimeout)
	defer cancel()

	args := append(command[1:], composeFileArgs(cfg.ComposeFile, cfg.ComposeEnvFile)...)
	args = append(args, "up", "-d")
	if _, err := b.run(startCtx, cfg.ProjectDir, cfg.BackendEnv(), command[0], args...); err != nil {
		return nil, fmt.Errorf("compose up failed: %w", err)
	}

	return &Handle{
		Kind:        model.BackendComposeCLI,
		ProjectDir:  cfg.ProjectDir,
		ComposeFile: cfg.ComposeFile,
		EnvFile:     cfg.ComposeEnvFile,
	}, nil
}

// Stop implements Backend. It runs "down", which stops and removes the
// project's containers and networks. A handle that was already stopped is
// a no-op success.
func (b *ComposeBackend) Stop(ctx context.Context, h *Handle) error {
	if h == nil || !h.BeginStop() {
		return nil
	}

	command, err := b.composeCommand(ctx)
	if err != nil {
		return fmt.Errorf("compose CLI no longer available: %w", err)
	}

	stopCtx, cancel := context.WithTimeout(ctx, composeStopTimeout)
	defer cancel()

	args := append(command[1:], composeFileArgs(h.ComposeFile, h.EnvFile)...)
	args = append(args, "down")
	if _, err := b.run(stopCtx, h.ProjectDir, nil, command[0], args...); err != nil {
		return fmt.Errorf("compose down failed: %w", err)
	}
	return nil
}
