package config

import "fmt"

// AgentConfig selects how exploration goals are executed. The plugin kind
// launches an external explorer binary; simulated keeps everything in
// process and is mainly useful for demos and tests.
type AgentConfig struct {
	Kind       string `hcl:"kind,optional"` // "plugin" or "simulated"
	PluginPath string `hcl:"plugin_path,optional"`

	// Alternative to plugin_path: fetch a released explorer binary from
	// GitHub, e.g. source = "github.com/acme/uxscope-appium" version = "v1.2.0".
	PluginSource  string `hcl:"plugin_source,optional"`
	PluginVersion string `hcl:"plugin_version,optional"`
}

func (a *AgentConfig) Defaults() {
	if a.Kind == "" {
		a.Kind = "simulated"
	}
}

func (a *AgentConfig) Validate() error {
	switch a.Kind {
	case "simulated":
		return nil
	case "plugin":
		if a.PluginPath == "" && a.PluginSource == "" {
			return fmt.Errorf("plugin agent requires plugin_path or plugin_source")
		}
		if a.PluginSource != "" && a.PluginVersion == "" {
			return fmt.Errorf("plugin_source requires plugin_version")
		}
		return nil
	default:
		return fmt.Errorf("unknown agent kind '%s' (expected 'plugin' or 'simulated')", a.Kind)
	}
}

// BridgeConfig configures the optional websocket bridge that streams run
// events to a listening UI.
type BridgeConfig struct {
	URL   string `hcl:"url,optional"`
	Token string `hcl:"token,optional"`
}

// Enabled reports whether a bridge endpoint is configured.
func (b *BridgeConfig) Enabled() bool {
	return b != nil && b.URL != ""
}
