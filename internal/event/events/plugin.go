package events

// Plugin event names.
const (
	NamePluginActivated        = "plugin.activated"
	NamePluginDeactivated      = "plugin.deactivated"
	NamePluginActivationFailed = "plugin.activation.failed"
)

// PluginActivated is published after a plugin has been activated.
type PluginActivated struct {
	PluginID string `json:"plugin_id"`
}

// EventName implements event.Event.
func (PluginActivated) EventName() string { return NamePluginActivated }

// PluginDeactivated is published after a plugin has been deactivated.
type PluginDeactivated struct {
	PluginID string `json:"plugin_id"`
}

// EventName implements event.Event.
func (PluginDeactivated) EventName() string { return NamePluginDeactivated }

// PluginActivationFailed is published when a plugin fails to activate.
type PluginActivationFailed struct {
	PluginID string `json:"plugin_id"`
	Error    string `json:"error"`
}

// EventName implements event.Event.
func (PluginActivationFailed) EventName() string { return NamePluginActivationFailed }
