// Package cli — status.go implements the "a0ctl status" command.
//
// The status command is the diagnostic entry point: it reports everything
// that feeds the start decision without mutating any container state. It
// answers, in order: would auto-start run at all, which backends are
// usable, is a descriptor present, and is a managed container already
// running (and with which labels).
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/agent0ai/a0ctl/internal/backend"
	"github.com/agent0ai/a0ctl/internal/composefile"
	"github.com/agent0ai/a0ctl/internal/config"
	"github.com/agent0ai/a0ctl/internal/port"
	"github.com/agent0ai/a0ctl/internal/runtime"
	"github.com/agent0ai/a0ctl/internal/supervisor"
)

// statusReport is the full diagnostic snapshot, shared by the text and
// JSON renderers.
type statusReport struct {
	AutoStart   bool              `json:"autoStart"`
	InContainer bool              `json:"inContainer"`
	WouldStart  bool              `json:"wouldStart"`
	Image       string            `json:"image"`
	HTTPPort    int               `json:"httpPort"`
	SSHPort     int               `json:"sshPort"`
	Descriptor  string          `json:"descriptor,omitempty"`
	PortsInUse  []int           `json:"portsInUse,omitempty"`
	Backends    []backendStatus `json:"backends"`
	Running     *runningStatus  `json:"running,omitempty"`
}

// backendStatus is one candidate backend's probe outcome.
type backendStatus struct {
	Kind      string `json:"kind"`
	Available bool   `json:"available"`
	Detail    string `json:"detail,omitempty"`
}

// runningStatus describes an adopted running service, if any.
type runningStatus struct {
	Backend   string `json:"backend"`
	Container string `json:"container,omitempty"`
	Branch    string `json:"branch,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	Healthy   bool   `json:"healthy"`
}

// NewStatusCommand creates the "status" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report the supervisor's view of the world",
		Long: `Report everything that feeds the start decision, without side effects.

The command probes both backends, checks for the descriptor, looks for an
already-running managed container, and runs one advisory health probe
against it. No container state is created, started, or stopped.

Examples:
  a0ctl status
  a0ctl status --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd.Context())
		},
	}

	return cmd
}

// runStatus is the main logic function for the status command.
func runStatus(ctx context.Context) error {
	cfg, err := config.Load(projectDir)
	if err != nil {
		return err
	}

	report := statusReport{
		AutoStart:   cfg.AutoStart,
		InContainer: runtime.InContainer(),
		Image:       cfg.Image,
		HTTPPort:    cfg.HTTPPort,
		SSHPort:     cfg.SSHPort,
	}
	report.WouldStart = report.AutoStart && !report.InContainer
	report.PortsInUse = port.NewScanner().InUse([]int{cfg.HTTPPort, cfg.SSHPort})

	// Descriptor presence. A parse failure still counts as present, just
	// flagged — the compose backend would refuse it the same way.
	if _, err := composefile.Load(cfg.ComposeFile); err == nil {
		report.Descriptor = cfg.ComposeFile
	} else if _, statErr := os.Stat(cfg.ComposeFile); statErr == nil {
		report.Descriptor = cfg.ComposeFile + " (unparseable)"
	}

	// Probe every candidate, not just the first working one: the whole
	// point of a diagnostic is to show the fallback picture too.
	var adopted *backend.Handle
	var adoptedKind string
	for _, b := range backend.DefaultCandidates() {
		st := backendStatus{Kind: b.Kind().String()}
		if err := b.Probe(ctx, cfg); err != nil {
			st.Detail = err.Error()
		} else {
			st.Available = true
			if adopted == nil {
				if h, err := b.Find(ctx, cfg); err == nil && h != nil {
					adopted = h
					adoptedKind = b.Kind().String()
				}
			}
		}
		report.Backends = append(report.Backends, st)
	}

	if adopted != nil {
		running := &runningStatus{
			Backend:   adoptedKind,
			Container: adopted.ContainerName,
		}
		// The native backend records metadata in container labels;
		// surface it when it is readable.
		if info, state, err := backend.NewNativeBackend().Describe(ctx, cfg); err == nil && info != nil {
			running.Container = info.Name
			running.Branch = info.Branch
			running.CreatedAt = info.CreatedAt.Format(time.RFC3339)
			VerboseLog("Managed container %s is %s", info.Name, state)
		}
		// Single advisory probe; no retries for a point-in-time report.
		checker := supervisor.NewHealthChecker(cfg)
		running.Healthy = checker.Check(ctx) == nil
		report.Running = running
	}

	printStatusReport(report)
	return nil
}

// printStatusReport outputs the status report in text or JSON format.
func printStatusReport(report statusReport) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Auto-start:   %s\n", enabledWord(report.AutoStart))
	fmt.Printf("In container: %v\n", report.InContainer)
	fmt.Printf("Would start:  %v\n", report.WouldStart)
	fmt.Printf("Image:        %s\n", report.Image)
	fmt.Printf("Ports:        web %d, ssh %d\n", report.HTTPPort, report.SSHPort)
	if len(report.PortsInUse) > 0 {
		fmt.Printf("              in use on host: %v (the running service, or a conflict)\n",
			report.PortsInUse)
	}
	if report.Descriptor != "" {
		fmt.Printf("Descriptor:   %s\n", report.Descriptor)
	} else {
		fmt.Println("Descriptor:   none (run \"a0ctl init\" to create one)")
	}

	fmt.Println("Backends:")
	for _, b := range report.Backends {
		if b.Available {
			fmt.Printf("  %-12s available\n", b.Kind)
		} else {
			fmt.Printf("  %-12s unavailable (%s)\n", b.Kind, b.Detail)
		}
	}

	if report.Running != nil {
		health := "not answering"
		if report.Running.Healthy {
			health = "healthy"
		}
		name := report.Running.Container
		if name == "" {
			name = "compose project"
		}
		fmt.Printf("Running:      %s via %s backend, %s\n", name, report.Running.Backend, health)
		if report.Running.Branch != "" {
			fmt.Printf("              branch %s, created %s\n",
				report.Running.Branch, report.Running.CreatedAt)
		}
	} else {
		fmt.Println("Running:      no managed container found")
	}
}

func enabledWord(on bool) string {
	if on {
		return "enabled"
	}
	return "disabled"
}
