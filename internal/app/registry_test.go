package app

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/markamp/markamp/internal/plugin"
)

func TestRegistry_Palette(t *testing.T) {
	r := NewRegistry()
	var ran []string
	run := func(id string) func() error {
		return func() error {
			ran = append(ran, id)
			return nil
		}
	}

	r.RegisterCommand(plugin.CommandContribution{ID: "toc.insert", Title: "Insert TOC", Category: "Markdown"}, "Ctrl+Shift+T", run("toc.insert"))
	r.RegisterCommand(plugin.CommandContribution{ID: "wc.count", Title: "Count Words"}, "", run("wc.count"))
	r.RegisterCommand(plugin.CommandContribution{ID: "bare"}, "", run("bare"))

	var labels []string
	for _, e := range r.Palette() {
		labels = append(labels, e.Label())
	}
	want := []string{"Count Words", "Markdown: Insert TOC", "bare"}
	if diff := cmp.Diff(want, labels); diff != "" {
		t.Errorf("palette labels mismatch (-want +got):\n%s", diff)
	}

	if err := r.Run("toc.insert"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if diff := cmp.Diff([]string{"toc.insert"}, ran); diff != "" {
		t.Errorf("ran mismatch (-want +got):\n%s", diff)
	}
	if err := r.Run("nope"); !errors.Is(err, ErrCommandNotFound) {
		t.Errorf("Run(nope) error = %v, want ErrCommandNotFound", err)
	}
}

func TestRegistry_Shortcuts(t *testing.T) {
	r := NewRegistry()
	r.RegisterShortcut(plugin.Shortcut{Command: "a", Key: "ctrl+k", Display: "Ctrl+K"})
	r.RegisterShortcut(plugin.Shortcut{Command: "b", Key: "ctrl+k", Display: "Ctrl+K", When: "editor"})
	r.RegisterShortcut(plugin.Shortcut{Command: "c", Key: "Ctrl+K", Display: "Ctrl+K"})

	s, ok := r.Shortcut("CTRL+K", "")
	if !ok || s.Command != "c" {
		t.Errorf("global Ctrl+K = %+v, %v; want command c", s, ok)
	}
	s, ok = r.Shortcut("ctrl+k", "editor")
	if !ok || s.Command != "b" {
		t.Errorf("editor Ctrl+K = %+v, %v; want command b", s, ok)
	}
	if got := len(r.Shortcuts()); got != 2 {
		t.Errorf("len(Shortcuts) = %d, want 2", got)
	}
}

func TestRegistry_Themes(t *testing.T) {
	r := NewRegistry()
	dir := filepath.Join("ext", "themes-pack")
	abs, _ := filepath.Abs("dark.json")

	r.RegisterTheme(plugin.ThemeContribution{ID: "paper", Label: "Paper", Path: "themes/paper.json"}, dir)
	r.RegisterTheme(plugin.ThemeContribution{ID: "dark", Label: "Dark", Path: abs}, dir)

	want := []ThemeEntry{
		{ID: "dark", Label: "Dark", Path: abs},
		{ID: "paper", Label: "Paper", Path: filepath.Join(dir, "themes/paper.json")},
	}
	if diff := cmp.Diff(want, r.Themes()); diff != "" {
		t.Errorf("themes mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_ViewsMenusSnippets(t *testing.T) {
	r := NewRegistry()
	r.RegisterView(plugin.ViewContribution{ID: "outline", Name: "Outline", Container: "sidebar"})
	r.RegisterView(plugin.ViewContribution{ID: "stats", Name: "Stats", Container: "sidebar"})
	r.RegisterView(plugin.ViewContribution{ID: "log", Name: "Log", Container: "panel"})

	if got := len(r.Views("sidebar")); got != 2 {
		t.Errorf("sidebar views = %d, want 2", got)
	}
	if got := r.Views("missing"); len(got) != 0 {
		t.Errorf("missing container views = %v", got)
	}

	r.RegisterMenuItem(plugin.MenuContribution{Command: "b", Group: "tools", Order: 2}, "B")
	r.RegisterMenuItem(plugin.MenuContribution{Command: "a", Group: "tools", Order: 1}, "A")
	var titles []string
	for _, item := range r.Menu("tools") {
		titles = append(titles, item.Title)
	}
	if diff := cmp.Diff([]string{"A", "B"}, titles); diff != "" {
		t.Errorf("menu order mismatch (-want +got):\n%s", diff)
	}

	r.RegisterSnippet(plugin.SnippetContribution{Name: "table", Language: "markdown"})
	r.RegisterSnippet(plugin.SnippetContribution{Name: "date"})
	r.RegisterSnippet(plugin.SnippetContribution{Name: "graph", Language: "mermaid"})

	var names []string
	for _, s := range r.Snippets("Markdown") {
		names = append(names, s.Name)
	}
	if diff := cmp.Diff([]string{"table", "date"}, names); diff != "" {
		t.Errorf("markdown snippets mismatch (-want +got):\n%s", diff)
	}
}
