// Package composefile generates and parses the declarative service
// descriptor (docker-compose.yml) for the supervised service.
//
// The generated descriptor is the canonical description of the service:
// one named service with published web UI and SSH ports, bind-mounted
// project and work directories, an always-restart-unless-stopped policy,
// and an HTTP health check. Ports and image use compose variable
// substitution with the resolved defaults, so operators can still override
// them through the environment without editing the file.
package composefile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/agent0ai/a0ctl/internal/config"
	"github.com/agent0ai/a0ctl/internal/model"
)

// ServiceName is the single service defined in the generated descriptor.
const ServiceName = "agent-zero"

// Health check schedule published in the descriptor. The probe is
// advisory: it gates the container's "healthy" status, not its startup.
const (
	healthInterval    = "30s"
	healthTimeout     = "10s"
	healthRetries     = 3
	healthStartPeriod = "40s"
)

// File models the subset of the compose schema the descriptor uses.
// Unknown fields in a hand-edited descriptor are ignored on load.
type File struct {
	Services map[string]Service `yaml:"services"`
}

// Service is a single compose service definition.
type Service struct {
	ContainerName string       `yaml:"container_name,omitempty"`
	Image         string       `yaml:"image"`
	Volumes       []string     `yaml:"volumes,omitempty"`
	Ports         []string     `yaml:"ports,omitempty"`
	Restart       string       `yaml:"restart,omitempty"`
	Healthcheck   *Healthcheck `yaml:"healthcheck,omitempty"`
}

// Healthcheck is the compose health check block.
type Healthcheck struct {
	Test        []string `yaml:"test,flow"`
	Interval    string   `yaml:"interval,omitempty"`
	Timeout     string   `yaml:"timeout,omitempty"`
	Retries     int      `yaml:"retries,omitempty"`
	StartPeriod string   `yaml:"start_period,omitempty"`
}

// Generate renders the descriptor for the given configuration as YAML
// with a header comment. The ports and image lines use compose variable
// substitution seeded with the resolved values as defaults, so the file
// stays valid standalone ("docker compose up" without a0ctl) while still
// honoring AGENT_ZERO_* overrides.
func Generate(cfg config.ServiceConfig) ([]byte, error) {
	f := File{
		Services: map[string]Service{
			ServiceName: {
				ContainerName: cfg.ContainerName,
				Image:         fmt.Sprintf("${%s:-%s}", config.EnvImage, cfg.Image),
				Volumes:       relativeVolumes(cfg),
				Ports: []string{
					fmt.Sprintf("${%s:-%d}:80", config.EnvHTTPPort, cfg.HTTPPort),
					fmt.Sprintf("${%s:-%d}:22", config.EnvSSHPort, cfg.SSHPort),
				},
				Restart: "unless-stopped",
				Healthcheck: &Healthcheck{
					Test:        []string{"CMD", "curl", "-f", "http://localhost:80/health"},
					Interval:    healthInterval,
					Timeout:     healthTimeout,
					Retries:     healthRetries,
					StartPeriod: healthStartPeriod,
				},
			},
		},
	}

	body, err := yaml.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to render descriptor: %w", err)
	}

	header := "# Service descriptor for the Agent Zero runtime container.\n" +
		"# Managed by a0ctl; also usable directly with docker compose.\n"
	return append([]byte(header), body...), nil
}

// WriteFile generates the descriptor and writes it to cfg.ComposeFile.
// An existing file is only replaced when force is set, protecting
// operator edits.
func WriteFile(cfg config.ServiceConfig, force bool) error {
	if !force {
		if _, err := os.Stat(cfg.ComposeFile); err == nil {
			return model.NewCLIError(model.ExitGeneralError,
				fmt.Sprintf("descriptor %s already exists (use --force to overwrite)", cfg.ComposeFile))
		}
	}

	data, err := Generate(cfg)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "cannot generate descriptor", err)
	}
	if err := os.WriteFile(cfg.ComposeFile, data, 0o644); err != nil {
		return model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("cannot write descriptor %s", cfg.ComposeFile), err)
	}
	return nil
}

// Load reads and parses a descriptor. Used by diagnostics to describe what
// the compose backend would launch.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read descriptor %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("cannot parse descriptor %s: %w", path, err)
	}
	if len(f.Services) == 0 {
		return nil, fmt.Errorf("descriptor %s defines no services", path)
	}
	return &f, nil
}

// ServiceNames returns the defined service names in sorted order.
func (f *File) ServiceNames() []string {
	names := make([]string, 0, len(f.Services))
	for name := range f.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// relativeVolumes renders the config's bind mounts with host paths
// relative to the project directory where possible, which is how compose
// descriptors conventionally express project-local mounts.
func relativeVolumes(cfg config.ServiceConfig) []string {
	volumes := make([]string, 0, len(cfg.Volumes))
	for _, v := range cfg.Volumes {
		host := v.HostPath
		if rel, err := filepath.Rel(cfg.ProjectDir, v.HostPath); err == nil && !strings.HasPrefix(rel, "..") {
			if rel == "." {
				host = "./"
			} else {
				host = "./" + filepath.ToSlash(rel)
			}
		}
		mode := v.Mode
		if mode == "" {
			mode = "rw"
		}
		volumes = append(volumes, fmt.Sprintf("%s:%s:%s", host, v.ContainerPath, mode))
	}
	return volumes
}
