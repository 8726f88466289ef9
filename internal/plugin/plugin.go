package plugin

import "strings"

// Plugin is implemented by every extension hosted by the Manager.
//
// Activate is called at most once per activation cycle and receives the
// context through which the plugin registers commands and subscribes to
// events. Deactivate undoes whatever Activate set up; subscriptions and
// commands registered through the context are released by the Manager.
type Plugin interface {
	Manifest() *Manifest
	Activate(ctx *Context) error
	Deactivate() error
}

// Manifest describes a plugin and the contribution points it declares.
type Manifest struct {
	ID            string        `json:"id" yaml:"id"`
	Name          string        `json:"name" yaml:"name"`
	Version       string        `json:"version" yaml:"version"`
	Description   string        `json:"description" yaml:"description"`
	Author        string        `json:"author" yaml:"author"`
	Contributions Contributions `json:"contributes" yaml:"contributes"`
}

// String returns a string representation of the manifest.
func (m *Manifest) String() string {
	name := m.Name
	if name == "" {
		name = m.ID
	}
	return name + " v" + m.Version
}

// Contributions lists everything a plugin contributes to the host.
type Contributions struct {
	Commands    []CommandContribution    `json:"commands" yaml:"commands"`
	Keybindings []KeybindingContribution `json:"keybindings" yaml:"keybindings"`
	Snippets    []SnippetContribution    `json:"snippets" yaml:"snippets"`
	Menus       []MenuContribution       `json:"menus" yaml:"menus"`
	Settings    []SettingContribution    `json:"settings" yaml:"settings"`
	Themes      []ThemeContribution      `json:"themes" yaml:"themes"`
	Views       []ViewContribution       `json:"views" yaml:"views"`
}

// CommandContribution declares a command shown in the command palette.
type CommandContribution struct {
	ID          string `json:"id" yaml:"id"`                   // Command ID (e.g., "markdown-extras.insertToc")
	Title       string `json:"title" yaml:"title"`             // Display title
	Category    string `json:"category" yaml:"category"`       // Palette category
	Description string `json:"description" yaml:"description"` // Long description
}

// KeybindingContribution declares a default keybinding for a command.
type KeybindingContribution struct {
	Command string `json:"command" yaml:"command"` // Command to invoke
	Key     string `json:"key" yaml:"key"`         // Key chord (e.g., "ctrl+shift+t")
	Mac     string `json:"mac" yaml:"mac"`         // macOS override
	When    string `json:"when" yaml:"when"`       // Context: "global", "editor", "sidebar"
}

// SnippetContribution declares a text snippet.
type SnippetContribution struct {
	Name     string `json:"name" yaml:"name"`
	Trigger  string `json:"trigger" yaml:"trigger"`
	Body     string `json:"body" yaml:"body"`
	Language string `json:"language" yaml:"language"`
	Path     string `json:"path" yaml:"path"` // Snippet file relative to the extension
}

// MenuContribution places a command in a menu.
type MenuContribution struct {
	Command string `json:"command" yaml:"command"`
	Group   string `json:"group" yaml:"group"` // "file", "edit", "view", "tools"
	Order   int    `json:"order" yaml:"order"`
	When    string `json:"when" yaml:"when"`
}

// SettingType is the value type of a contributed setting.
type SettingType string

// Setting types.
const (
	SettingBoolean SettingType = "boolean"
	SettingInteger SettingType = "integer"
	SettingNumber  SettingType = "number"
	SettingString  SettingType = "string"
	SettingChoice  SettingType = "choice"
)

// SettingContribution declares a setting and its default value.
type SettingContribution struct {
	ID          string      `json:"id" yaml:"id"` // Dotted key (e.g., "markdown-extras.autoToc")
	Label       string      `json:"label" yaml:"label"`
	Description string      `json:"description" yaml:"description"`
	Category    string      `json:"category" yaml:"category"`
	Type        SettingType `json:"type" yaml:"type"`
	Default     string      `json:"default" yaml:"default"` // Serialized default
	Choices     []string    `json:"choices" yaml:"choices"` // Only for SettingChoice
}

// ThemeContribution declares a theme file.
type ThemeContribution struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
	Path  string `json:"path" yaml:"path"` // Relative to the extension directory
}

// ViewContribution declares a view hosted in a container.
type ViewContribution struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Container string `json:"container" yaml:"container"`
	When      string `json:"when" yaml:"when"`
}

// FormatShortcut renders a key chord such as "ctrl+shift+t" for display,
// e.g. "Ctrl+Shift+T".
func FormatShortcut(key string) string {
	if key == "" {
		return ""
	}
	parts := strings.Split(key, "+")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		switch strings.ToLower(p) {
		case "ctrl", "control":
			parts[i] = "Ctrl"
		case "cmd", "command", "meta":
			parts[i] = "Cmd"
		case "alt", "option":
			parts[i] = "Alt"
		case "shift":
			parts[i] = "Shift"
		default:
			if len(p) == 1 {
				parts[i] = strings.ToUpper(p)
			} else if p != "" {
				parts[i] = strings.ToUpper(p[:1]) + p[1:]
			}
		}
	}
	return strings.Join(parts, "+")
}
