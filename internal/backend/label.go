package backend

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/agent0ai/a0ctl/internal/config"
)

// Label key constants define the Docker labels stamped on the service
// container by the native backend. The labels are the only persistence
// mechanism: discovery and adoption reconstruct everything from them, so
// there is no state file on disk.
//
// All keys share the "a0." prefix to avoid collisions with labels set by
// other tools (Docker Compose, VS Code, etc.).
const (
	// LabelPrefix is the common prefix for all a0ctl labels.
	LabelPrefix = "a0."

	// LabelManagedBy identifies containers managed by a0ctl. This is the
	// primary label used for filtering and discovery.
	LabelManagedBy = LabelPrefix + "managed-by"

	// LabelName stores the service container name.
	LabelName = LabelPrefix + "name"

	// LabelBranch stores the release branch the image tag was derived from.
	LabelBranch = LabelPrefix + "branch"

	// LabelHTTPPort stores the published web UI host port.
	LabelHTTPPort = LabelPrefix + "http-port"

	// LabelSSHPort stores the published SSH host port.
	LabelSSHPort = LabelPrefix + "ssh-port"

	// LabelCreatedAt stores the RFC3339 timestamp of container creation.
	LabelCreatedAt = LabelPrefix + "created-at"
)

// ManagedByValue is the constant value for the LabelManagedBy label.
const ManagedByValue = "a0ctl"

// ServiceInfo is the metadata reconstructed from a managed container's
// labels, used by diagnostics output and adoption.
type ServiceInfo struct {
	// Name is the container name recorded at creation.
	Name string

	// Branch is the release branch recorded at creation.
	Branch string

	// HTTPPort is the published web UI host port.
	HTTPPort int

	// SSHPort is the published SSH host port.
	SSHPort int

	// CreatedAt is when the container was created by a0ctl.
	CreatedAt time.Time
}

// BuildLabels constructs the label map applied to the service container.
// ParseLabels is its inverse.
func BuildLabels(cfg config.ServiceConfig, createdAt time.Time) map[string]string {
	return map[string]string{
		LabelManagedBy: ManagedByValue,
		LabelName:      cfg.ContainerName,
		LabelBranch:    cfg.Branch,
		LabelHTTPPort:  strconv.Itoa(cfg.HTTPPort),
		LabelSSHPort:   strconv.Itoa(cfg.SSHPort),
		// UTC keeps the recorded timestamp independent of the host timezone.
		LabelCreatedAt: createdAt.UTC().Format(time.RFC3339),
	}
}

// ParseLabels reconstructs ServiceInfo from a managed container's labels.
// All keys are required; missing ones are reported together so a single
// inspect round-trip reveals every problem.
func ParseLabels(labels map[string]string) (*ServiceInfo, error) {
	requiredKeys := []string{
		LabelManagedBy, LabelName, LabelBranch,
		LabelHTTPPort, LabelSSHPort, LabelCreatedAt,
	}

	var missing []string
	for _, key := range requiredKeys {
		if _, ok := labels[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required labels: %s", strings.Join(missing, ", "))
	}

	if labels[LabelManagedBy] != ManagedByValue {
		return nil, fmt.Errorf("label %s has unexpected value %q (expected %q)",
			LabelManagedBy, labels[LabelManagedBy], ManagedByValue)
	}

	httpPort, err := strconv.Atoi(labels[LabelHTTPPort])
	if err != nil {
		return nil, fmt.Errorf("invalid label %s=%q: %w", LabelHTTPPort, labels[LabelHTTPPort], err)
	}
	sshPort, err := strconv.Atoi(labels[LabelSSHPort])
	if err != nil {
		return nil, fmt.Errorf("invalid label %s=%q: %w", LabelSSHPort, labels[LabelSSHPort], err)
	}
	createdAt, err := time.Parse(time.RFC3339, labels[LabelCreatedAt])
	if err != nil {
		return nil, fmt.Errorf("invalid label %s=%q: %w", LabelCreatedAt, labels[LabelCreatedAt], err)
	}

	return &ServiceInfo{
		Name:      labels[LabelName],
		Branch:    labels[LabelBranch],
		HTTPPort:  httpPort,
		SSHPort:   sshPort,
		CreatedAt: createdAt,
	}, nil
}
