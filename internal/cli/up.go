// Package cli — up.go implements the "a0ctl up" command.
//
// The up command is the supervisor's main entry point: it resolves the
// configuration, detects the best available backend, starts (or adopts)
// the service container, and then blocks until a shutdown signal arrives,
// at which point the container is torn down. Teardown is guaranteed on
// every exit path, including a failed health probe and an interrupt that
// races the startup itself.
//
// A start failure is not fatal to the process: the command prints a
// warning and keeps running in degraded mode, so the surrounding workflow
// (an agent session that merely prefers the container) can continue.
// --strict turns the failure into a non-zero exit instead.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/agent0ai/a0ctl/internal/config"
	"github.com/agent0ai/a0ctl/internal/model"
	"github.com/agent0ai/a0ctl/internal/port"
	"github.com/agent0ai/a0ctl/internal/supervisor"
)

// NewUpCommand creates the "up" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewUpCommand() *cobra.Command {
	var (
		detach bool
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Start and supervise the service container",
		Long: `Start the Agent Zero runtime container and supervise it until interrupted.

The command picks the best available backend: the Compose CLI when a
descriptor and a working compose binary exist, otherwise the Docker API
directly. An already-running managed container is adopted rather than
restarted.

On SIGINT or SIGTERM the container is stopped before the process exits.
With --detach the command returns immediately after the start and leaves
the container running.

Examples:
  a0ctl up
  a0ctl up --detach
  AGENT_ZERO_HTTP_PORT=56080 a0ctl up --strict`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUp(cmd.Context(), detach, strict)
		},
	}

	cmd.Flags().BoolVarP(&detach, "detach", "d", false,
		"Start the container and return without supervising it")
	cmd.Flags().BoolVar(&strict, "strict", false,
		"Exit non-zero when the container fails to start instead of continuing degraded")

	return cmd
}

// runUp is the main logic function for the up command.
func runUp(ctx context.Context, detach, strict bool) error {
	// Step 1: Resolve configuration from env, settings, and .env files.
	cfg, err := config.Load(projectDir)
	if err != nil {
		return err
	}
	VerboseLog("Resolved config: image=%s http=%d ssh=%d", cfg.Image, cfg.HTTPPort, cfg.SSHPort)

	sup := supervisor.New(cfg, supervisor.WithLogf(VerboseLog))

	// Step 2: Honor the auto-start gate before touching any backend.
	// Both outcomes are no-ops, not failures.
	if !sup.ShouldAutoStart() {
		err := sup.Start(ctx)
		switch {
		case errors.Is(err, model.ErrAutoStartDisabled):
			fmt.Fprintln(os.Stderr, "Auto-start is disabled; not starting the container.")
			return nil
		case errors.Is(err, model.ErrAlreadyInContainer):
			fmt.Fprintln(os.Stderr, "Already running inside a container; not starting a nested one.")
			return nil
		}
	}

	// A bound published port is not fatal: it is usually the service
	// itself, already running, which the backend will adopt. Surface it
	// so a genuine conflict is diagnosable.
	if used := port.NewScanner().InUse([]int{cfg.HTTPPort, cfg.SSHPort}); len(used) > 0 {
		VerboseLog("Ports %v already bound; a running service will be adopted if it is ours", used)
	}

	// Step 3: Arm signal-driven teardown before starting, so an interrupt
	// during a slow start (image pull) still reaches the deferred stop.
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Step 4: Start the service via the detected backend.
	if err := sup.Start(sigCtx); err != nil {
		if errors.Is(err, model.ErrNoBackendAvailable) {
			return model.WrapCLIError(model.ExitNoBackend,
				"no container backend available (need docker compose or a reachable Docker daemon)", err)
		}

		// Degraded mode: the session continues without the container.
		var startErr *model.StartError
		if errors.As(err, &startErr) && !strict {
			fmt.Fprintf(os.Stderr,
				"Warning: could not start the service container (%s backend): %v\n",
				startErr.Backend, startErr.Err)
			fmt.Fprintln(os.Stderr, "Continuing without the container.")
			return nil
		}
		return err
	}

	handle := sup.Handle()
	printUpResult(cfg, sup)

	if detach {
		VerboseLog("Detach requested; leaving %s running", handle)
		return nil
	}

	// Step 5: Teardown runs on every exit path from here on. The fresh
	// background context matters: sigCtx is already cancelled when a
	// signal is what got us here, and the stop must still complete.
	defer func() {
		stopCtx := context.Background()
		if err := sup.Stop(stopCtx); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: container teardown failed: %v\n", err)
		} else {
			fmt.Fprintln(os.Stderr, "Service container stopped.")
		}
	}()

	// Step 6: Advisory readiness probe. Failure is reported but never
	// stops the supervision; the container may simply be booting slowly.
	if err := sup.WaitReady(sigCtx); err != nil {
		if sigCtx.Err() != nil {
			return nil
		}
		fmt.Fprintf(os.Stderr, "Warning: service did not become ready: %v\n", err)
	} else {
		fmt.Fprintf(os.Stderr, "Service is ready at http://localhost:%d\n", cfg.HTTPPort)
	}

	// Step 7: Block until a shutdown signal arrives.
	<-sigCtx.Done()
	fmt.Fprintln(os.Stderr, "\nShutting down...")
	return nil
}

// printUpResult outputs the up command result in text or JSON format.
func printUpResult(cfg config.ServiceConfig, sup *supervisor.Supervisor) {
	handle := sup.Handle()
	if IsJSONOutput() {
		result := map[string]interface{}{
			"backend":   sup.BackendKind().String(),
			"container": handle.ContainerName,
			"adopted":   handle.Adopted,
			"image":     cfg.Image,
			"httpPort":  cfg.HTTPPort,
			"sshPort":   cfg.SSHPort,
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	action := "Started"
	if handle.Adopted {
		action = "Adopted running"
	}
	fmt.Printf("%s service container via %s backend\n", action, sup.BackendKind())
	fmt.Printf("  Web UI: http://localhost:%d\n", cfg.HTTPPort)
	fmt.Printf("  SSH:    localhost:%d\n", cfg.SSHPort)
}
