// config.go resolves the service configuration for the supervised
// container from defaults, an optional settings file, optional env files,
// and the process environment.
//
// Resolution order (later sources win):
//
//	built-in defaults → settings file (JSONC) → .env files → environment
//
// The resolved ServiceConfig is immutable once loaded: it is created at
// process start and passed by value into the supervisor.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/agent0ai/a0ctl/internal/model"
)

// Environment variable names recognized during config resolution.
const (
	// EnvHTTPPort overrides the published web UI port. Default 55080.
	EnvHTTPPort = "AGENT_ZERO_HTTP_PORT"

	// EnvSSHPort overrides the published SSH port. Default 55022.
	EnvSSHPort = "AGENT_ZERO_SSH_PORT"

	// EnvImage overrides the container image reference. When unset, the
	// image is derived from the branch: "frdel/agent-zero-run:<branch>".
	EnvImage = "AGENT_ZERO_IMAGE"

	// EnvBranch selects the release branch, which doubles as the default
	// image tag. Default "development".
	EnvBranch = "AGENT_ZERO_BRANCH"

	// EnvAutoStart toggles the auto-start behavior. Accepts the usual
	// boolean spellings (1/0, true/false). Default enabled.
	EnvAutoStart = "AGENT_ZERO_AUTO_START"
)

// Default values applied before any file or environment override.
const (
	// DefaultHTTPPort is the published port for the service's web UI.
	DefaultHTTPPort = 55080

	// DefaultSSHPort is the published port for the service's SSH access.
	DefaultSSHPort = 55022

	// DefaultBranch is the release branch used as the image tag when no
	// explicit image is configured.
	DefaultBranch = "development"

	// DefaultImageRepo is the image repository; the branch supplies the tag.
	DefaultImageRepo = "frdel/agent-zero-run"

	// DefaultComposeFile is the declarative service descriptor looked up
	// relative to the project directory.
	DefaultComposeFile = "docker-compose.yml"

	// DefaultSettingsFile is the JSONC settings file looked up relative
	// to the project directory.
	DefaultSettingsFile = "tmp/settings.json"

	// DefaultEnvFile is loaded into the process environment when present.
	DefaultEnvFile = ".env"

	// DefaultComposeEnvFile is passed to the compose CLI via --env-file
	// when present. It is not loaded into this process.
	DefaultComposeEnvFile = ".env.docker"
)

// Container-side paths for the default bind mounts.
const (
	// containerProjectPath is where the project directory is mounted
	// inside the service container.
	containerProjectPath = "/a0"

	// containerWorkPath is where the work directory is mounted inside
	// the service container.
	containerWorkPath = "/root"

	// workDirName is the host-side work directory, relative to the project.
	workDirName = "work_dir"
)

// VolumeMount describes a single host→container bind mount.
type VolumeMount struct {
	// HostPath is the absolute path on the host.
	HostPath string

	// ContainerPath is the mount point inside the container.
	ContainerPath string

	// Mode is the mount mode, "rw" or "ro". Defaults to "rw".
	Mode string
}

// String returns the mount in Docker's "host:container:mode" bind syntax.
func (v VolumeMount) String() string {
	mode := v.Mode
	if mode == "" {
		mode = "rw"
	}
	return fmt.Sprintf("%s:%s:%s", v.HostPath, v.ContainerPath, mode)
}

// ServiceConfig is the fully resolved configuration for the supervised
// service. It is immutable once returned by Load.
type ServiceConfig struct {
	// Image is the container image reference to run.
	Image string

	// Branch is the release branch; it supplies the default image tag.
	Branch string

	// HTTPPort is the host port published for the web UI (container port 80).
	HTTPPort int

	// SSHPort is the host port published for SSH (container port 22).
	SSHPort int

	// ContainerName is the name given to the service container when the
	// native backend creates it. Default: "A0-dev-<sshPort>-<httpPort>".
	ContainerName string

	// ProjectDir is the absolute project directory. The compose descriptor,
	// settings file, and env files are resolved relative to it, and it is
	// the source of the default bind mounts.
	ProjectDir string

	// Volumes are the bind mounts applied to the service container,
	// in declaration order.
	Volumes []VolumeMount

	// AutoStart reports whether the supervisor should launch the service
	// at all. When false, the supervisor is a no-op.
	AutoStart bool

	// ComposeFile is the absolute path to the declarative service
	// descriptor. The file may or may not exist; the compose backend's
	// probe checks for it.
	ComposeFile string

	// ComposeEnvFile is the absolute path to the compose env file, or ""
	// when the file does not exist.
	ComposeEnvFile string

	// SettingsFile is the absolute path of the settings file that was
	// consulted (whether or not it existed), kept for diagnostics output.
	SettingsFile string
}

// Load resolves the service configuration for the given project directory.
// An empty projectDir means the current working directory.
//
// Load never fails on a missing settings or env file — absence simply means
// that layer contributes nothing. It does fail on a present-but-malformed
// settings file or on out-of-range values, returning a CLIError with
// ExitInvalidConfig.
func Load(projectDir string) (ServiceConfig, error) {
	var err error
	if projectDir == "" {
		projectDir, err = os.Getwd()
		if err != nil {
			return ServiceConfig{}, model.WrapCLIError(model.ExitInvalidConfig,
				"cannot determine working directory", err)
		}
	}
	projectDir, err = filepath.Abs(projectDir)
	if err != nil {
		return ServiceConfig{}, model.WrapCLIError(model.ExitInvalidConfig,
			fmt.Sprintf("cannot resolve project directory %q", projectDir), err)
	}

	cfg := ServiceConfig{
		Branch:       DefaultBranch,
		HTTPPort:     DefaultHTTPPort,
		SSHPort:      DefaultSSHPort,
		ProjectDir:   projectDir,
		AutoStart:    true,
		ComposeFile:  filepath.Join(projectDir, DefaultComposeFile),
		SettingsFile: filepath.Join(projectDir, DefaultSettingsFile),
	}

	// Layer 2: settings file. Missing file is fine; a malformed one is not.
	settings, err := LoadSettings(cfg.SettingsFile)
	if err != nil {
		return ServiceConfig{}, err
	}
	settings.applyTo(&cfg)

	// Layer 3: .env file. godotenv.Load populates the process environment
	// without overriding variables that are already set, so explicit
	// environment always beats the file.
	envFile := filepath.Join(projectDir, DefaultEnvFile)
	if _, statErr := os.Stat(envFile); statErr == nil {
		// Env files are best-effort; a broken one must not abort startup.
		_ = godotenv.Load(envFile)
	}

	// The compose env file is only recorded here; the compose backend
	// passes it through to the CLI with --env-file.
	composeEnv := filepath.Join(projectDir, DefaultComposeEnvFile)
	if _, statErr := os.Stat(composeEnv); statErr == nil {
		cfg.ComposeEnvFile = composeEnv
	}

	// Layer 4: process environment.
	if err := applyEnv(&cfg); err != nil {
		return ServiceConfig{}, err
	}

	// Derived defaults that depend on the resolved values above.
	if cfg.Image == "" {
		cfg.Image = DefaultImageRepo + ":" + cfg.Branch
	}
	if cfg.ContainerName == "" {
		cfg.ContainerName = fmt.Sprintf("A0-dev-%d-%d", cfg.SSHPort, cfg.HTTPPort)
	}
	if len(cfg.Volumes) == 0 {
		cfg.Volumes = []VolumeMount{
			{HostPath: projectDir, ContainerPath: containerProjectPath, Mode: "rw"},
			{HostPath: filepath.Join(projectDir, workDirName), ContainerPath: containerWorkPath, Mode: "rw"},
		}
	}

	if err := cfg.Validate(); err != nil {
		return ServiceConfig{}, err
	}
	return cfg, nil
}

// applyEnv overlays AGENT_ZERO_* environment variables onto the config.
func applyEnv(cfg *ServiceConfig) error {
	if v := os.Getenv(EnvHTTPPort); v != "" {
		port, err := parsePort(EnvHTTPPort, v)
		if err != nil {
			return err
		}
		cfg.HTTPPort = port
	}
	if v := os.Getenv(EnvSSHPort); v != "" {
		port, err := parsePort(EnvSSHPort, v)
		if err != nil {
			return err
		}
		cfg.SSHPort = port
	}
	if v := os.Getenv(EnvBranch); v != "" {
		cfg.Branch = v
	}
	if v := os.Getenv(EnvImage); v != "" {
		cfg.Image = v
	}
	if v := os.Getenv(EnvAutoStart); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return model.WrapCLIError(model.ExitInvalidConfig,
				fmt.Sprintf("invalid boolean in %s=%q", EnvAutoStart, v), err)
		}
		cfg.AutoStart = enabled
	}
	return nil
}

// parsePort parses and range-checks a port value from the environment.
func parsePort(name, value string) (int, error) {
	port, err := strconv.Atoi(value)
	if err != nil {
		return 0, model.WrapCLIError(model.ExitInvalidConfig,
			fmt.Sprintf("invalid port in %s=%q", name, value), err)
	}
	if port < 1 || port > 65535 {
		return 0, model.NewCLIError(model.ExitInvalidConfig,
			fmt.Sprintf("port in %s=%q out of range (1-65535)", name, value))
	}
	return port, nil
}

// Validate checks the resolved configuration for internal consistency.
// Load calls this before returning; it is exported so callers constructing
// a ServiceConfig by hand (tests, the init command) can reuse the checks.
func (c ServiceConfig) Validate() error {
	if c.Image == "" {
		return model.NewCLIError(model.ExitInvalidConfig, "image must not be empty")
	}
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return model.NewCLIError(model.ExitInvalidConfig,
			fmt.Sprintf("http port %d out of range (1-65535)", c.HTTPPort))
	}
	if c.SSHPort < 1 || c.SSHPort > 65535 {
		return model.NewCLIError(model.ExitInvalidConfig,
			fmt.Sprintf("ssh port %d out of range (1-65535)", c.SSHPort))
	}
	if c.HTTPPort == c.SSHPort {
		return model.NewCLIError(model.ExitInvalidConfig,
			fmt.Sprintf("http and ssh ports must differ (both %d)", c.HTTPPort))
	}
	for _, v := range c.Volumes {
		if v.HostPath == "" || v.ContainerPath == "" {
			return model.NewCLIError(model.ExitInvalidConfig,
				fmt.Sprintf("volume %q has empty host or container path", v))
		}
		if v.Mode != "" && v.Mode != "rw" && v.Mode != "ro" {
			return model.NewCLIError(model.ExitInvalidConfig,
				fmt.Sprintf("volume %q has invalid mode %q (valid: rw, ro)", v, v.Mode))
		}
	}
	return nil
}

// BackendEnv returns the AGENT_ZERO_* variables the backends inject into
// the launch so the descriptor's variable substitution sees the resolved
// ports and image regardless of how they were configured.
func (c ServiceConfig) BackendEnv() map[string]string {
	return map[string]string{
		EnvHTTPPort: strconv.Itoa(c.HTTPPort),
		EnvSSHPort:  strconv.Itoa(c.SSHPort),
		EnvImage:    c.Image,
		EnvBranch:   c.Branch,
	}
}
