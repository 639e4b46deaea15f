// settings.go loads the optional settings file that carries the auto-start
// toggle and port overrides.
//
// The settings file is JSONC (JSON with comments), the same relaxed format
// the upstream application writes. Comments are stripped with
// github.com/tidwall/jsonc before parsing with the standard encoding/json
// library.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/agent0ai/a0ctl/internal/model"
)

// Settings mirrors the subset of the application settings file that the
// supervisor cares about. All fields are pointers so that an absent key
// contributes nothing to the resolved configuration.
type Settings struct {
	// RFCAutoDocker is the auto-start toggle. The key name is inherited
	// from the upstream settings schema.
	RFCAutoDocker *bool `json:"rfc_auto_docker"`

	// CodeExecHTTPPort overrides the published web UI port.
	CodeExecHTTPPort *int `json:"code_exec_http_port"`

	// CodeExecSSHPort overrides the published SSH port.
	CodeExecSSHPort *int `json:"code_exec_ssh_port"`
}

// LoadSettings reads and parses the settings file at the given path.
// A missing file returns zero-value Settings and no error — settings are
// optional. A present but unparseable file is a configuration error.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Settings{}, nil
		}
		return Settings{}, model.WrapCLIError(model.ExitInvalidConfig,
			fmt.Sprintf("cannot read settings file %q", path), err)
	}

	// jsonc.ToJSON strips comments and trailing commas, producing strict
	// JSON that encoding/json accepts.
	var s Settings
	if err := json.Unmarshal(jsonc.ToJSON(data), &s); err != nil {
		return Settings{}, model.WrapCLIError(model.ExitInvalidConfig,
			fmt.Sprintf("cannot parse settings file %q", path), err)
	}
	return s, nil
}

// applyTo overlays the present settings values onto the config.
// Range validation happens later in ServiceConfig.Validate, so out-of-range
// file values are reported with the same error as any other bad port.
func (s Settings) applyTo(cfg *ServiceConfig) {
	if s.RFCAutoDocker != nil {
		cfg.AutoStart = *s.RFCAutoDocker
	}
	if s.CodeExecHTTPPort != nil {
		cfg.HTTPPort = *s.CodeExecHTTPPort
	}
	if s.CodeExecSSHPort != nil {
		cfg.SSHPort = *s.CodeExecSSHPort
	}
}
