package app

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/markamp/markamp/internal/plugin"
)

// PaletteEntry is a command shown in the command palette.
type PaletteEntry struct {
	ID       string
	Title    string
	Category string
	Shortcut string
	run      func() error
}

// Label returns the palette label, "Category: Title" when a category is set.
func (e PaletteEntry) Label() string {
	title := e.Title
	if title == "" {
		title = e.ID
	}
	if e.Category == "" {
		return title
	}
	return e.Category + ": " + title
}

// ThemeEntry is a contributed theme with its path resolved.
type ThemeEntry struct {
	ID    string
	Label string
	Path  string
}

// MenuEntry is a contributed menu item.
type MenuEntry struct {
	Command string
	Title   string
	Group   string
	Order   int
	When    string
}

// Registry receives plugin contributions: palette commands, shortcuts,
// themes, views, menu items and snippets. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	palette   map[string]PaletteEntry
	shortcuts map[string]plugin.Shortcut
	themes    map[string]ThemeEntry
	views     map[string][]plugin.ViewContribution
	menus     map[string][]MenuEntry
	snippets  []plugin.SnippetContribution
}

// Compile-time interface checks.
var (
	_ plugin.CommandRegistrar  = (*Registry)(nil)
	_ plugin.ShortcutRegistrar = (*Registry)(nil)
	_ plugin.ThemeRegistrar    = (*Registry)(nil)
	_ plugin.ViewRegistrar     = (*Registry)(nil)
	_ plugin.MenuRegistrar     = (*Registry)(nil)
	_ plugin.SnippetRegistrar  = (*Registry)(nil)
)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		palette:   make(map[string]PaletteEntry),
		shortcuts: make(map[string]plugin.Shortcut),
		themes:    make(map[string]ThemeEntry),
		views:     make(map[string][]plugin.ViewContribution),
		menus:     make(map[string][]MenuEntry),
	}
}

// RegisterCommand implements plugin.CommandRegistrar.
func (r *Registry) RegisterCommand(cmd plugin.CommandContribution, shortcut string, run func() error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.palette[cmd.ID] = PaletteEntry{
		ID:       cmd.ID,
		Title:    cmd.Title,
		Category: cmd.Category,
		Shortcut: shortcut,
		run:      run,
	}
}

// RegisterShortcut implements plugin.ShortcutRegistrar. A later binding for
// the same key and context replaces the earlier one.
func (r *Registry) RegisterShortcut(s plugin.Shortcut) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shortcuts[shortcutKey(s.Key, s.When)] = s
}

// RegisterTheme implements plugin.ThemeRegistrar.
func (r *Registry) RegisterTheme(theme plugin.ThemeContribution, dir string) {
	path := theme.Path
	if path != "" && !filepath.IsAbs(path) && dir != "" {
		path = filepath.Join(dir, path)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.themes[theme.ID] = ThemeEntry{ID: theme.ID, Label: theme.Label, Path: path}
}

// RegisterView implements plugin.ViewRegistrar.
func (r *Registry) RegisterView(view plugin.ViewContribution) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views[view.Container] = append(r.views[view.Container], view)
}

// RegisterMenuItem implements plugin.MenuRegistrar.
func (r *Registry) RegisterMenuItem(item plugin.MenuContribution, title string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.menus[item.Group] = append(r.menus[item.Group], MenuEntry{
		Command: item.Command,
		Title:   title,
		Group:   item.Group,
		Order:   item.Order,
		When:    item.When,
	})
}

// RegisterSnippet implements plugin.SnippetRegistrar.
func (r *Registry) RegisterSnippet(snippet plugin.SnippetContribution) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snippets = append(r.snippets, snippet)
}

// Palette returns the palette entries sorted by label.
func (r *Registry) Palette() []PaletteEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]PaletteEntry, 0, len(r.palette))
	for _, e := range r.palette {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label() < out[j].Label() })
	return out
}

// Run executes the palette entry for id.
func (r *Registry) Run(id string) error {
	r.mu.RLock()
	e, ok := r.palette[id]
	r.mu.RUnlock()
	if !ok || e.run == nil {
		return fmt.Errorf("%s: %w", id, ErrCommandNotFound)
	}
	return e.run()
}

// Shortcut returns the binding for key in context when. An empty when
// matches global bindings.
func (r *Registry) Shortcut(key, when string) (plugin.Shortcut, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.shortcuts[shortcutKey(key, when)]
	return s, ok
}

// Shortcuts returns every binding sorted by display text.
func (r *Registry) Shortcuts() []plugin.Shortcut {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]plugin.Shortcut, 0, len(r.shortcuts))
	for _, s := range r.shortcuts {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Display != out[j].Display {
			return out[i].Display < out[j].Display
		}
		return out[i].When < out[j].When
	})
	return out
}

// Themes returns the contributed themes sorted by id.
func (r *Registry) Themes() []ThemeEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ThemeEntry, 0, len(r.themes))
	for _, t := range r.themes {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Views returns the views of a container in registration order.
func (r *Registry) Views(container string) []plugin.ViewContribution {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]plugin.ViewContribution(nil), r.views[container]...)
}

// Menu returns the items of a menu group sorted by order.
func (r *Registry) Menu(group string) []MenuEntry {
	r.mu.RLock()
	items := append([]MenuEntry(nil), r.menus[group]...)
	r.mu.RUnlock()
	sort.SliceStable(items, func(i, j int) bool { return items[i].Order < items[j].Order })
	return items
}

// Snippets returns the snippets for language, plus those without a language.
func (r *Registry) Snippets(language string) []plugin.SnippetContribution {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []plugin.SnippetContribution
	for _, s := range r.snippets {
		if s.Language == "" || strings.EqualFold(s.Language, language) {
			out = append(out, s)
		}
	}
	return out
}

func shortcutKey(key, when string) string {
	if when == "" {
		when = "global"
	}
	return strings.ToLower(key) + "@" + when
}
