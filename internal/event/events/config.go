package events

// NameConfigChanged is the name of ConfigChanged.
const NameConfigChanged = "config.changed"

// ConfigChanged is published after the settings file has been reloaded.
// Keys lists the dotted keys whose values changed.
type ConfigChanged struct {
	Path string   `json:"path"`
	Keys []string `json:"keys"`
}

// EventName implements event.Event.
func (ConfigChanged) EventName() string { return NameConfigChanged }
