package plugin

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sampleManifestJSON = `{
	"name": "markdown-extras",
	"publisher": "MarkAmp",
	"version": "1.2.0",
	"displayName": "Markdown Extras",
	"description": "Extra markdown tools",
	"main": "main.lua",
	"activationEvents": ["onLanguage:markdown", "onCommand:extras.toc"],
	"extensionDependencies": ["markamp.core"],
	"contributes": {
		"commands": [
			{"command": "extras.toc", "title": "Insert TOC", "category": "Markdown"}
		],
		"keybindings": [
			{"command": "extras.toc", "key": "ctrl+shift+t", "when": "editor"}
		],
		"configuration": {
			"title": "Extras",
			"properties": {
				"extras.autoToc": {"type": "boolean", "default": true, "description": "Auto TOC"},
				"extras.depth": {"type": "integer", "default": 3},
				"extras.style": {"type": "string", "default": "dash", "enum": ["dash", "star"]}
			}
		},
		"themes": [{"id": "sepia", "label": "Sepia", "path": "themes/sepia.json"}],
		"views": {
			"sidebar": [{"id": "extras.outline", "name": "Outline"}],
			"panel": [{"id": "extras.links", "name": "Links", "when": "editor"}]
		},
		"menus": {
			"tools": [{"command": "extras.toc"}]
		}
	}
}`

const sampleManifestYAML = `
name: word-count
publisher: markamp
version: 0.3.1
main: init.lua
activationEvents:
  - onStartupFinished
contributes:
  commands:
    - command: wordcount.show
      title: Show Word Count
  configuration:
    - title: Word Count
      properties:
        wordcount.includeCode:
          type: boolean
          default: false
    - title: Status
      properties:
        wordcount.position:
          type: string
          default: right
`

func TestParseExtensionManifest_JSON(t *testing.T) {
	m, err := ParseExtensionManifest([]byte(sampleManifestJSON))
	if err != nil {
		t.Fatalf("ParseExtensionManifest failed: %v", err)
	}

	if m.Identifier() != "MarkAmp.markdown-extras" {
		t.Errorf("Identifier() = %q", m.Identifier())
	}
	if m.Key() != "markamp.markdown-extras" {
		t.Errorf("Key() = %q", m.Key())
	}
	if len(m.ActivationEvents) != 2 {
		t.Fatalf("activation events = %d, want 2", len(m.ActivationEvents))
	}
	want := ActivationEvent{Kind: ActivationOnLanguage, Argument: "markdown", Raw: "onLanguage:markdown"}
	if diff := cmp.Diff(want, m.ActivationEvents[0]); diff != "" {
		t.Errorf("activation event mismatch (-want +got):\n%s", diff)
	}
	if m.ActivatesEagerly() {
		t.Error("manifest with lazy events should not activate eagerly")
	}
	if len(m.Contributes.Configuration) != 1 {
		t.Fatalf("configuration blocks = %d, want 1", len(m.Contributes.Configuration))
	}
	if len(m.Contributes.Configuration[0].Properties) != 3 {
		t.Errorf("properties = %d, want 3", len(m.Contributes.Configuration[0].Properties))
	}
	if len(m.Contributes.Views["sidebar"]) != 1 {
		t.Errorf("sidebar views = %v", m.Contributes.Views["sidebar"])
	}
}

func TestParseExtensionManifest_YAML(t *testing.T) {
	m, err := ParseExtensionManifestYAML([]byte(sampleManifestYAML))
	if err != nil {
		t.Fatalf("ParseExtensionManifestYAML failed: %v", err)
	}

	if m.Identifier() != "markamp.word-count" {
		t.Errorf("Identifier() = %q", m.Identifier())
	}
	if m.ActivationEvents[0].Kind != ActivationOnStartupFinished {
		t.Errorf("Kind = %v, want onStartupFinished", m.ActivationEvents[0].Kind)
	}
	if len(m.Contributes.Configuration) != 2 {
		t.Errorf("configuration blocks = %d, want 2", len(m.Contributes.Configuration))
	}
}

func TestParseExtensionManifest_ConfigurationArray(t *testing.T) {
	data := `{
		"name": "x", "publisher": "p", "version": "1.0.0",
		"contributes": {"configuration": [
			{"title": "A", "properties": {"a.one": {"type": "string"}}},
			{"title": "B", "properties": {"b.one": {"type": "number", "default": 1.5}}}
		]}
	}`

	m, err := ParseExtensionManifest([]byte(data))
	if err != nil {
		t.Fatalf("ParseExtensionManifest failed: %v", err)
	}
	if len(m.Contributes.Configuration) != 2 {
		t.Fatalf("configuration blocks = %d, want 2", len(m.Contributes.Configuration))
	}
	if m.Contributes.Configuration[1].Title != "B" {
		t.Errorf("second block title = %q", m.Contributes.Configuration[1].Title)
	}
}

func TestParseExtensionManifest_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"missing name", `{"publisher": "p", "version": "1.0.0"}`, ErrMissingName},
		{"missing version", `{"name": "x", "publisher": "p"}`, ErrMissingVersion},
		{"bad version", `{"name": "x", "publisher": "p", "version": "one"}`, ErrInvalidVersion},
		{"missing publisher", `{"name": "x", "version": "1.0.0"}`, ErrMissingPublisher},
		{"missing command id", `{"name": "x", "publisher": "p", "version": "1.0.0",
			"contributes": {"commands": [{"title": "T"}]}}`, ErrMissingCommandID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseExtensionManifest([]byte(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if _, err := ParseExtensionManifest([]byte("{not json")); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestParseActivationEvent(t *testing.T) {
	tests := []struct {
		raw      string
		kind     ActivationKind
		argument string
	}{
		{"*", ActivationStar, ""},
		{"onStartupFinished", ActivationOnStartupFinished, ""},
		{"onUri", ActivationOnURI, ""},
		{"onLanguage:markdown", ActivationOnLanguage, "markdown"},
		{"onCommand:extras.toc", ActivationOnCommand, "extras.toc"},
		{"onView:outline", ActivationOnView, "outline"},
		{"onFileSystem:sftp", ActivationOnFileSystem, "sftp"},
		{"onCustomEditor:markamp.preview", ActivationOnCustomEditor, "markamp.preview"},
		{"workspaceContains:**/*.md", ActivationWorkspaceContains, "**/*.md"},
		{"onSomethingElse:x", ActivationUnknown, "x"},
		{"gibberish", ActivationUnknown, ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			ev := ParseActivationEvent(tt.raw)
			if ev.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", ev.Kind, tt.kind)
			}
			if ev.Argument != tt.argument {
				t.Errorf("Argument = %q, want %q", ev.Argument, tt.argument)
			}
			if ev.Raw != tt.raw || ev.String() != tt.raw {
				t.Errorf("Raw = %q, want %q", ev.Raw, tt.raw)
			}
		})
	}
}

func TestExtensionManifest_ActivatesEagerly(t *testing.T) {
	tests := []struct {
		name   string
		events []string
		want   bool
	}{
		{"no events", nil, true},
		{"star", []string{"*"}, true},
		{"star among others", []string{"onLanguage:markdown", "*"}, true},
		{"lazy only", []string{"onLanguage:markdown"}, false},
		{"startup finished", []string{"onStartupFinished"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext := makeExt("x", "p", tt.events, nil, nil)
			if got := ext.ActivatesEagerly(); got != tt.want {
				t.Errorf("ActivatesEagerly() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtensionManifest_ToManifest(t *testing.T) {
	m, err := ParseExtensionManifest([]byte(sampleManifestJSON))
	if err != nil {
		t.Fatalf("ParseExtensionManifest failed: %v", err)
	}

	pm := m.ToManifest()

	if pm.ID != "MarkAmp.markdown-extras" || pm.Name != "Markdown Extras" || pm.Version != "1.2.0" {
		t.Errorf("unexpected header %q %q %q", pm.ID, pm.Name, pm.Version)
	}
	if pm.Author != "MarkAmp" {
		t.Errorf("Author = %q, want publisher fallback", pm.Author)
	}

	wantSettings := []SettingContribution{
		{ID: "extras.autoToc", Label: "extras.autoToc", Description: "Auto TOC", Category: "Extras", Type: SettingBoolean, Default: "true"},
		{ID: "extras.depth", Label: "extras.depth", Category: "Extras", Type: SettingInteger, Default: "3"},
		{ID: "extras.style", Label: "extras.style", Category: "Extras", Type: SettingChoice, Default: "dash", Choices: []string{"dash", "star"}},
	}
	if diff := cmp.Diff(wantSettings, pm.Contributions.Settings); diff != "" {
		t.Errorf("settings mismatch (-want +got):\n%s", diff)
	}

	wantViews := []ViewContribution{
		{ID: "extras.links", Name: "Links", Container: "panel", When: "editor"},
		{ID: "extras.outline", Name: "Outline", Container: "sidebar"},
	}
	if diff := cmp.Diff(wantViews, pm.Contributions.Views); diff != "" {
		t.Errorf("views mismatch (-want +got):\n%s", diff)
	}

	wantKeys := []KeybindingContribution{{Command: "extras.toc", Key: "ctrl+shift+t", When: "editor"}}
	if diff := cmp.Diff(wantKeys, pm.Contributions.Keybindings); diff != "" {
		t.Errorf("keybindings mismatch (-want +got):\n%s", diff)
	}

	if len(pm.Contributions.Commands) != 1 || pm.Contributions.Commands[0].ID != "extras.toc" {
		t.Errorf("commands = %+v", pm.Contributions.Commands)
	}
	if len(pm.Contributions.Menus) != 1 || pm.Contributions.Menus[0].Group != "tools" {
		t.Errorf("menus = %+v", pm.Contributions.Menus)
	}
	if len(pm.Contributions.Themes) != 1 || pm.Contributions.Themes[0].Path != "themes/sepia.json" {
		t.Errorf("themes = %+v", pm.Contributions.Themes)
	}
}

func TestExtensionManifest_Clone(t *testing.T) {
	m, err := ParseExtensionManifest([]byte(sampleManifestJSON))
	if err != nil {
		t.Fatalf("ParseExtensionManifest failed: %v", err)
	}
	m.SetDir("/ext/extras")

	clone := m.Clone()
	clone.ExtensionDependencies[0] = "changed"
	clone.Contributes.Views["sidebar"][0].Name = "changed"
	clone.Contributes.Commands[0].Title = "changed"

	if m.ExtensionDependencies[0] != "markamp.core" {
		t.Error("dependencies shared with clone")
	}
	if m.Contributes.Views["sidebar"][0].Name != "Outline" {
		t.Error("views shared with clone")
	}
	if m.Contributes.Commands[0].Title != "Insert TOC" {
		t.Error("commands shared with clone")
	}
	if clone.Dir() != "/ext/extras" {
		t.Errorf("clone Dir() = %q", clone.Dir())
	}
}

func TestLoadExtensionManifest(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, PackageJSON)
	if err := os.WriteFile(jsonPath, []byte(sampleManifestJSON), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := LoadExtensionManifest(jsonPath)
	if err != nil {
		t.Fatalf("LoadExtensionManifest failed: %v", err)
	}
	if m.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", m.Dir(), dir)
	}
	if m.MainPath() != filepath.Join(dir, "main.lua") {
		t.Errorf("MainPath() = %q", m.MainPath())
	}

	yamlPath := filepath.Join(dir, PluginYAML)
	if err := os.WriteFile(yamlPath, []byte(sampleManifestYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err = LoadExtensionManifest(yamlPath)
	if err != nil {
		t.Fatalf("LoadExtensionManifest(yaml) failed: %v", err)
	}
	if m.Name != "word-count" {
		t.Errorf("Name = %q", m.Name)
	}

	if _, err := LoadExtensionManifest(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFormatShortcut(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"ctrl+shift+t", "Ctrl+Shift+T"},
		{"cmd+k", "Cmd+K"},
		{"alt+enter", "Alt+Enter"},
		{"f5", "F5"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := FormatShortcut(tt.key); got != tt.want {
			t.Errorf("FormatShortcut(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestCanonicalID(t *testing.T) {
	if CanonicalID("MarkAmp.Extras") != "markamp.extras" {
		t.Errorf("CanonicalID = %q", CanonicalID("MarkAmp.Extras"))
	}
}
