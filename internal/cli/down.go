// Package cli — down.go implements the "a0ctl down" command.
//
// The down command stops a service container left running by a previous
// "up --detach" (or by a supervisor that died without cleanup). It detects
// the backend the same way up does, adopts the running instance via Find,
// and stops it. Nothing running is a successful no-op.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agent0ai/a0ctl/internal/backend"
	"github.com/agent0ai/a0ctl/internal/config"
	"github.com/agent0ai/a0ctl/internal/model"
)

// NewDownCommand creates the "down" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewDownCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Stop the service container",
		Long: `Stop the Agent Zero runtime container if it is running.

The command detects the backend exactly like "up" does, adopts the running
container, and stops it. When nothing is running the command succeeds
without doing anything.

Examples:
  a0ctl down
  a0ctl down --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDown(cmd.Context())
		},
	}

	return cmd
}

// runDown is the main logic function for the down command.
func runDown(ctx context.Context) error {
	cfg, err := config.Load(projectDir)
	if err != nil {
		return err
	}

	b, err := backend.Detect(ctx, cfg, backend.DefaultCandidates())
	if err != nil {
		if errors.Is(err, model.ErrNoBackendAvailable) {
			return model.WrapCLIError(model.ExitNoBackend,
				"no container backend available", err)
		}
		return err
	}
	VerboseLog("Using %s backend", b.Kind())

	h, err := b.Find(ctx, cfg)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError,
			"cannot look up the running service", err)
	}
	if h == nil {
		printDownResult(false, b.Kind())
		return nil
	}

	VerboseLog("Stopping %s...", h)
	if err := b.Stop(ctx, h); err != nil {
		return model.WrapCLIError(model.ExitGeneralError,
			"failed to stop the service container", err)
	}

	printDownResult(true, b.Kind())
	return nil
}

// printDownResult outputs the down command result in text or JSON format.
func printDownResult(stopped bool, kind model.BackendKind) {
	if IsJSONOutput() {
		result := map[string]interface{}{
			"stopped": stopped,
			"backend": kind.String(),
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	if stopped {
		fmt.Printf("Service container stopped (%s backend)\n", kind)
	} else {
		fmt.Println("No running service container found; nothing to do.")
	}
}
