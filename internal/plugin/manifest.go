package plugin

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest file names recognized in an extension directory.
const (
	PackageJSON = "package.json"
	PluginYAML  = "plugin.yaml"
)

// ActivationKind classifies an activation event.
type ActivationKind int

// Activation event kinds.
const (
	ActivationUnknown ActivationKind = iota
	ActivationStar
	ActivationOnStartupFinished
	ActivationOnURI
	ActivationOnLanguage
	ActivationOnCommand
	ActivationOnView
	ActivationOnFileSystem
	ActivationOnCustomEditor
	ActivationWorkspaceContains
)

// String returns the event prefix for the kind.
func (k ActivationKind) String() string {
	switch k {
	case ActivationStar:
		return "*"
	case ActivationOnStartupFinished:
		return "onStartupFinished"
	case ActivationOnURI:
		return "onUri"
	case ActivationOnLanguage:
		return "onLanguage"
	case ActivationOnCommand:
		return "onCommand"
	case ActivationOnView:
		return "onView"
	case ActivationOnFileSystem:
		return "onFileSystem"
	case ActivationOnCustomEditor:
		return "onCustomEditor"
	case ActivationWorkspaceContains:
		return "workspaceContains"
	default:
		return "unknown"
	}
}

var activationPrefixes = map[string]ActivationKind{
	"onLanguage":        ActivationOnLanguage,
	"onCommand":         ActivationOnCommand,
	"onView":            ActivationOnView,
	"onFileSystem":      ActivationOnFileSystem,
	"onCustomEditor":    ActivationOnCustomEditor,
	"workspaceContains": ActivationWorkspaceContains,
}

// ActivationEvent is a parsed activation event such as "onLanguage:markdown".
// Raw is the original string and is the key used for lazy activation.
type ActivationEvent struct {
	Kind     ActivationKind
	Argument string
	Raw      string
}

// ParseActivationEvent parses a raw activation event string. Unrecognized
// strings yield ActivationUnknown with Raw preserved.
func ParseActivationEvent(raw string) ActivationEvent {
	ev := ActivationEvent{Raw: raw}

	switch raw {
	case "*":
		ev.Kind = ActivationStar
		return ev
	case "onStartupFinished":
		ev.Kind = ActivationOnStartupFinished
		return ev
	case "onUri":
		ev.Kind = ActivationOnURI
		return ev
	}

	prefix, arg, ok := strings.Cut(raw, ":")
	if !ok {
		return ev
	}
	ev.Argument = arg
	ev.Kind = activationPrefixes[prefix]
	return ev
}

// String returns the raw event string.
func (e ActivationEvent) String() string {
	return e.Raw
}

// MarshalJSON encodes the event as its raw string.
func (e ActivationEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Raw)
}

// UnmarshalJSON decodes the event from its raw string.
func (e *ActivationEvent) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = ParseActivationEvent(raw)
	return nil
}

// MarshalYAML encodes the event as its raw string.
func (e ActivationEvent) MarshalYAML() (any, error) {
	return e.Raw, nil
}

// UnmarshalYAML decodes the event from its raw string.
func (e *ActivationEvent) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*e = ParseActivationEvent(raw)
	return nil
}

// ExtensionManifest is a package.json style extension description.
type ExtensionManifest struct {
	Name        string `json:"name" yaml:"name"`
	Publisher   string `json:"publisher" yaml:"publisher"`
	Version     string `json:"version" yaml:"version"`
	DisplayName string `json:"displayName" yaml:"displayName"`
	Description string `json:"description" yaml:"description"`
	Author      string `json:"author" yaml:"author"`
	License     string `json:"license" yaml:"license"`

	// Entry point, relative to the extension directory
	Main string `json:"main" yaml:"main"`

	ActivationEvents      []ActivationEvent `json:"activationEvents" yaml:"activationEvents"`
	ExtensionDependencies []string          `json:"extensionDependencies" yaml:"extensionDependencies"`
	ExtensionPack         []string          `json:"extensionPack" yaml:"extensionPack"`
	Categories            []string          `json:"categories" yaml:"categories"`
	Keywords              []string          `json:"keywords" yaml:"keywords"`

	Contributes ExtensionContributions `json:"contributes" yaml:"contributes"`

	// Internal: path to the extension directory
	dir string
}

// ExtensionContributions are the contribution points of an extension manifest.
type ExtensionContributions struct {
	Commands      []ExtensionCommand             `json:"commands" yaml:"commands"`
	Keybindings   []ExtensionKeybinding          `json:"keybindings" yaml:"keybindings"`
	Configuration ExtensionConfigurations        `json:"configuration" yaml:"configuration"`
	Themes        []ExtensionTheme               `json:"themes" yaml:"themes"`
	Snippets      []ExtensionSnippet             `json:"snippets" yaml:"snippets"`
	Views         map[string][]ExtensionView     `json:"views" yaml:"views"`
	Menus         map[string][]ExtensionMenuItem `json:"menus" yaml:"menus"`
	Languages     []ExtensionLanguage            `json:"languages" yaml:"languages"`
}

// ExtensionCommand is a command entry in contributes.commands.
type ExtensionCommand struct {
	Command  string `json:"command" yaml:"command"`
	Title    string `json:"title" yaml:"title"`
	Category string `json:"category" yaml:"category"`
	Icon     string `json:"icon" yaml:"icon"`
}

// ExtensionKeybinding is an entry in contributes.keybindings.
type ExtensionKeybinding struct {
	Command string `json:"command" yaml:"command"`
	Key     string `json:"key" yaml:"key"`
	Mac     string `json:"mac" yaml:"mac"`
	When    string `json:"when" yaml:"when"`
}

// ExtensionConfiguration is one block of contributes.configuration.
type ExtensionConfiguration struct {
	Title      string                             `json:"title" yaml:"title"`
	Properties map[string]ExtensionConfigProperty `json:"properties" yaml:"properties"`
}

// ExtensionConfigProperty describes a single setting.
type ExtensionConfigProperty struct {
	Type        string   `json:"type" yaml:"type"` // boolean, integer, number, string, array, object
	Description string   `json:"description" yaml:"description"`
	Default     any      `json:"default" yaml:"default"`
	Enum        []string `json:"enum" yaml:"enum"`
}

// ExtensionConfigurations accepts either a single configuration object or an
// array of them.
type ExtensionConfigurations []ExtensionConfiguration

// UnmarshalJSON implements json.Unmarshaler.
func (c *ExtensionConfigurations) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []ExtensionConfiguration
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return err
		}
		*c = list
		return nil
	}
	if bytes.Equal(trimmed, []byte("null")) {
		*c = nil
		return nil
	}
	var single ExtensionConfiguration
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return err
	}
	*c = ExtensionConfigurations{single}
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *ExtensionConfigurations) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		var list []ExtensionConfiguration
		if err := node.Decode(&list); err != nil {
			return err
		}
		*c = list
		return nil
	}
	var single ExtensionConfiguration
	if err := node.Decode(&single); err != nil {
		return err
	}
	*c = ExtensionConfigurations{single}
	return nil
}

// ExtensionTheme is an entry in contributes.themes.
type ExtensionTheme struct {
	ID      string `json:"id" yaml:"id"`
	Label   string `json:"label" yaml:"label"`
	UITheme string `json:"uiTheme" yaml:"uiTheme"`
	Path    string `json:"path" yaml:"path"`
}

// ExtensionSnippet is an entry in contributes.snippets.
type ExtensionSnippet struct {
	Language string `json:"language" yaml:"language"`
	Path     string `json:"path" yaml:"path"`
}

// ExtensionView is an entry in contributes.views.
type ExtensionView struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	When string `json:"when" yaml:"when"`
}

// ExtensionMenuItem is an entry in contributes.menus.
type ExtensionMenuItem struct {
	Command string `json:"command" yaml:"command"`
	When    string `json:"when" yaml:"when"`
	Group   string `json:"group" yaml:"group"`
}

// ExtensionLanguage is an entry in contributes.languages.
type ExtensionLanguage struct {
	ID         string   `json:"id" yaml:"id"`
	Extensions []string `json:"extensions" yaml:"extensions"`
	Aliases    []string `json:"aliases" yaml:"aliases"`
}

// Validation errors.
var (
	ErrMissingName      = errors.New("manifest: name is required")
	ErrMissingVersion   = errors.New("manifest: version is required")
	ErrInvalidVersion   = errors.New("manifest: version must be valid semver")
	ErrMissingPublisher = errors.New("manifest: publisher is required")
	ErrMissingCommandID = errors.New("manifest: command id is required")
)

// semverPattern validates version strings (simplified semver).
var semverPattern = regexp.MustCompile(`^\d+\.\d+\.\d+(-[a-zA-Z0-9.-]+)?(\+[a-zA-Z0-9.-]+)?$`)

// ParseExtensionManifest parses and validates a package.json document.
func ParseExtensionManifest(data []byte) (*ExtensionManifest, error) {
	var m ExtensionManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// ParseExtensionManifestYAML parses and validates a plugin.yaml document.
func ParseExtensionManifestYAML(data []byte) (*ExtensionManifest, error) {
	var m ExtensionManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadExtensionManifest loads a manifest file, choosing the decoder by file
// extension, and records the containing directory.
func LoadExtensionManifest(path string) (*ExtensionManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m *ExtensionManifest
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		m, err = ParseExtensionManifestYAML(data)
	default:
		m, err = ParseExtensionManifest(data)
	}
	if err != nil {
		return nil, err
	}

	m.dir = filepath.Dir(path)
	return m, nil
}

// Validate checks that the manifest is valid.
func (m *ExtensionManifest) Validate() error {
	if m.Name == "" {
		return ErrMissingName
	}
	if m.Version == "" {
		return ErrMissingVersion
	}
	if !semverPattern.MatchString(m.Version) {
		return fmt.Errorf("%w: %s", ErrInvalidVersion, m.Version)
	}
	if m.Publisher == "" {
		return ErrMissingPublisher
	}

	for i, cmd := range m.Contributes.Commands {
		if cmd.Command == "" {
			return fmt.Errorf("%w at index %d", ErrMissingCommandID, i)
		}
	}

	return nil
}

// Identifier returns the "publisher.name" identifier with its original case.
func (m *ExtensionManifest) Identifier() string {
	return m.Publisher + "." + m.Name
}

// Key returns the canonical lowercased identifier.
func (m *ExtensionManifest) Key() string {
	return CanonicalID(m.Identifier())
}

// Dir returns the extension directory, if the manifest was loaded from disk.
func (m *ExtensionManifest) Dir() string {
	return m.dir
}

// SetDir sets the extension directory.
func (m *ExtensionManifest) SetDir(dir string) {
	m.dir = dir
}

// MainPath returns the full path to the entry point.
func (m *ExtensionManifest) MainPath() string {
	return filepath.Join(m.dir, m.Main)
}

// ActivatesEagerly returns true if the extension activates at startup: it
// declares no activation events or declares "*".
func (m *ExtensionManifest) ActivatesEagerly() bool {
	if len(m.ActivationEvents) == 0 {
		return true
	}
	for _, ev := range m.ActivationEvents {
		if ev.Kind == ActivationStar {
			return true
		}
	}
	return false
}

// Clone creates a deep copy of the manifest.
func (m *ExtensionManifest) Clone() *ExtensionManifest {
	clone := *m

	clone.ActivationEvents = append([]ActivationEvent(nil), m.ActivationEvents...)
	clone.ExtensionDependencies = append([]string(nil), m.ExtensionDependencies...)
	clone.ExtensionPack = append([]string(nil), m.ExtensionPack...)
	clone.Categories = append([]string(nil), m.Categories...)
	clone.Keywords = append([]string(nil), m.Keywords...)

	c := &clone.Contributes
	c.Commands = append([]ExtensionCommand(nil), m.Contributes.Commands...)
	c.Keybindings = append([]ExtensionKeybinding(nil), m.Contributes.Keybindings...)
	c.Configuration = append(ExtensionConfigurations(nil), m.Contributes.Configuration...)
	c.Themes = append([]ExtensionTheme(nil), m.Contributes.Themes...)
	c.Snippets = append([]ExtensionSnippet(nil), m.Contributes.Snippets...)
	c.Languages = append([]ExtensionLanguage(nil), m.Contributes.Languages...)

	if m.Contributes.Views != nil {
		c.Views = make(map[string][]ExtensionView, len(m.Contributes.Views))
		for k, v := range m.Contributes.Views {
			c.Views[k] = append([]ExtensionView(nil), v...)
		}
	}
	if m.Contributes.Menus != nil {
		c.Menus = make(map[string][]ExtensionMenuItem, len(m.Contributes.Menus))
		for k, v := range m.Contributes.Menus {
			c.Menus[k] = append([]ExtensionMenuItem(nil), v...)
		}
	}

	return &clone
}

// ToManifest converts the extension manifest into a plugin Manifest whose
// ID is the extension identifier. Map-valued sections are emitted in key
// order.
func (m *ExtensionManifest) ToManifest() *Manifest {
	name := m.DisplayName
	if name == "" {
		name = m.Name
	}

	pm := &Manifest{
		ID:          m.Identifier(),
		Name:        name,
		Version:     m.Version,
		Description: m.Description,
		Author:      m.Author,
	}
	if pm.Author == "" {
		pm.Author = m.Publisher
	}

	c := &pm.Contributions
	for _, cmd := range m.Contributes.Commands {
		c.Commands = append(c.Commands, CommandContribution{
			ID:       cmd.Command,
			Title:    cmd.Title,
			Category: cmd.Category,
		})
	}
	for _, kb := range m.Contributes.Keybindings {
		c.Keybindings = append(c.Keybindings, KeybindingContribution(kb))
	}
	for _, block := range m.Contributes.Configuration {
		for _, key := range sortedKeys(block.Properties) {
			prop := block.Properties[key]
			c.Settings = append(c.Settings, SettingContribution{
				ID:          key,
				Label:       key,
				Description: prop.Description,
				Category:    block.Title,
				Type:        settingType(prop),
				Default:     serializeDefault(prop.Default),
				Choices:     append([]string(nil), prop.Enum...),
			})
		}
	}
	for _, th := range m.Contributes.Themes {
		c.Themes = append(c.Themes, ThemeContribution{ID: th.ID, Label: th.Label, Path: th.Path})
	}
	for _, sn := range m.Contributes.Snippets {
		c.Snippets = append(c.Snippets, SnippetContribution{
			Name:     sn.Language,
			Language: sn.Language,
			Path:     sn.Path,
		})
	}
	for _, container := range sortedKeys(m.Contributes.Views) {
		for _, v := range m.Contributes.Views[container] {
			c.Views = append(c.Views, ViewContribution{ID: v.ID, Name: v.Name, Container: container, When: v.When})
		}
	}
	for _, location := range sortedKeys(m.Contributes.Menus) {
		for i, item := range m.Contributes.Menus[location] {
			c.Menus = append(c.Menus, MenuContribution{
				Command: item.Command,
				Group:   location,
				Order:   i,
				When:    item.When,
			})
		}
	}

	return pm
}

func settingType(p ExtensionConfigProperty) SettingType {
	if len(p.Enum) > 0 {
		return SettingChoice
	}
	switch p.Type {
	case "boolean":
		return SettingBoolean
	case "integer":
		return SettingInteger
	case "number":
		return SettingNumber
	default:
		return SettingString
	}
}

// serializeDefault renders a decoded JSON or YAML default value as a string.
func serializeDefault(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CanonicalID returns the case-insensitive form of a plugin or extension id.
func CanonicalID(id string) string {
	return strings.ToLower(id)
}
