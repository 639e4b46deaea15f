// Package cli — init.go implements the "a0ctl init" command.
//
// The init command writes the declarative service descriptor
// (docker-compose.yml) into the project directory. The generated file is
// self-contained: it works with "a0ctl up" and with a bare
// "docker compose up" alike, because every tunable is expressed as a
// variable substitution with the resolved value as its default.
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agent0ai/a0ctl/internal/composefile"
	"github.com/agent0ai/a0ctl/internal/config"
)

// NewInitCommand creates the "init" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the service descriptor to the project directory",
		Long: `Generate docker-compose.yml for the Agent Zero runtime container.

The descriptor reflects the currently resolved configuration (ports,
image, volumes) but keeps every value overridable through AGENT_ZERO_*
environment variables. An existing descriptor is never overwritten
unless --force is given.

Examples:
  a0ctl init
  AGENT_ZERO_HTTP_PORT=56080 a0ctl init --force`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing descriptor")

	return cmd
}

// runInit is the main logic function for the init command.
func runInit(force bool) error {
	cfg, err := config.Load(projectDir)
	if err != nil {
		return err
	}

	if err := composefile.WriteFile(cfg, force); err != nil {
		return err
	}

	if IsJSONOutput() {
		result := map[string]interface{}{
			"descriptor": cfg.ComposeFile,
			"service":    composefile.ServiceName,
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Wrote %s\n", cfg.ComposeFile)
	fmt.Printf("Start the service with \"a0ctl up\" or \"docker compose up -d\".\n")
	return nil
}
