package plugin

import (
	"fmt"
	"sync"
)

// testPlugin is a minimal plugin for unit tests.
type testPlugin struct {
	manifest *Manifest

	activateErr   error
	deactivateErr error
	panicOn       string
	onActivate    func(ctx *Context) error
	log           *[]string

	activations   int
	deactivations int
	ctx           *Context
}

func newTestPlugin(id string) *testPlugin {
	return &testPlugin{manifest: &Manifest{ID: id, Name: "Test", Version: "1.0.0"}}
}

func (p *testPlugin) Manifest() *Manifest { return p.manifest }

func (p *testPlugin) Activate(ctx *Context) error {
	if p.panicOn == "activate" {
		panic("activate exploded")
	}
	p.ctx = ctx
	if p.log != nil {
		*p.log = append(*p.log, "activate "+p.manifest.ID)
	}
	if p.onActivate != nil {
		if err := p.onActivate(ctx); err != nil {
			return err
		}
	}
	if p.activateErr != nil {
		return p.activateErr
	}
	p.activations++
	return nil
}

func (p *testPlugin) Deactivate() error {
	if p.panicOn == "deactivate" {
		panic("deactivate exploded")
	}
	if p.log != nil {
		*p.log = append(*p.log, "deactivate "+p.manifest.ID)
	}
	p.deactivations++
	return p.deactivateErr
}

func makeExt(name, publisher string, activationEvents, deps, pack []string) *ExtensionManifest {
	ext := &ExtensionManifest{
		Name:                  name,
		Publisher:             publisher,
		Version:               "1.0.0",
		ExtensionDependencies: deps,
		ExtensionPack:         pack,
	}
	for _, raw := range activationEvents {
		ext.ActivationEvents = append(ext.ActivationEvents, ParseActivationEvent(raw))
	}
	return ext
}

// fakeSettings is an in-memory SettingsStore.
type fakeSettings struct {
	mu       sync.Mutex
	values   map[string]any
	defaults map[string]any
}

func newFakeSettings() *fakeSettings {
	return &fakeSettings{values: make(map[string]any), defaults: make(map[string]any)}
}

func (s *fakeSettings) GetString(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.values[key]; ok {
		return fmt.Sprint(v)
	}
	if v, ok := s.defaults[key]; ok {
		return fmt.Sprint(v)
	}
	return ""
}

func (s *fakeSettings) SetDefault(key string, value any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.defaults[key]; ok {
		return false
	}
	s.defaults[key] = value
	return true
}

func (s *fakeSettings) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

type paletteEntry struct {
	cmd      CommandContribution
	shortcut string
	run      func() error
}

type fakePalette struct {
	entries []paletteEntry
}

func (p *fakePalette) RegisterCommand(cmd CommandContribution, shortcut string, run func() error) {
	p.entries = append(p.entries, paletteEntry{cmd: cmd, shortcut: shortcut, run: run})
}

type fakeShortcuts struct {
	shortcuts []Shortcut
}

func (s *fakeShortcuts) RegisterShortcut(sc Shortcut) {
	s.shortcuts = append(s.shortcuts, sc)
}

type fakeThemes struct {
	themes []ThemeContribution
	dirs   []string
}

func (t *fakeThemes) RegisterTheme(theme ThemeContribution, dir string) {
	t.themes = append(t.themes, theme)
	t.dirs = append(t.dirs, dir)
}

type fakeViews struct {
	views []ViewContribution
}

func (v *fakeViews) RegisterView(view ViewContribution) {
	v.views = append(v.views, view)
}

type fakeMenus struct {
	items  []MenuContribution
	titles []string
}

func (m *fakeMenus) RegisterMenuItem(item MenuContribution, title string) {
	m.items = append(m.items, item)
	m.titles = append(m.titles, title)
}

type fakeSnippets struct {
	snippets []SnippetContribution
}

func (s *fakeSnippets) RegisterSnippet(sn SnippetContribution) {
	s.snippets = append(s.snippets, sn)
}
