package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestEnvLoader_Load(t *testing.T) {
	t.Setenv("MAENV_LOG_LEVEL", "debug")
	t.Setenv("MAENV_EDITOR_TAB_SIZE", "2")
	t.Setenv("MAENV_EDITOR_WORD_WRAP", "off")
	t.Setenv("MAENV_APP_TICK", "8ms")
	t.Setenv("MAENV_PLUGINS_DIR", "/a"+string(os.PathListSeparator)+"/b")
	t.Setenv("MAENV_METRICS_ADDR", "127.0.0.1:9090")

	got := NewEnvLoader("MAENV_").Load()
	want := map[string]any{
		"logging.level":    "debug",
		"editor.tab_size":  int64(2),
		"editor.word_wrap": false,
		"app.tick":         8 * time.Millisecond,
		"plugins.paths":    []any{"/a", "/b"},
		"metrics.addr":     "127.0.0.1:9090",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("env settings mismatch (-want +got):\n%s", diff)
	}
}

func TestEnvLoader_AddMapping(t *testing.T) {
	t.Setenv("MAMAP_THEME", "dark")

	l := NewEnvLoader("MAMAP_")
	l.AddMapping("MAMAP_THEME", "theme.id")

	if got := l.Load()["theme.id"]; got != "dark" {
		t.Errorf("theme.id = %v, want dark", got)
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"", ""},
		{"true", true},
		{"Yes", true},
		{"no", false},
		{"42", int64(42)},
		{"1.5", 1.5},
		{"250ms", 250 * time.Millisecond},
		{`["a","b"]`, []any{"a", "b"}},
		{`{"k":1}`, map[string]any{"k": float64(1)}},
		{"[broken", "[broken"},
		{"hello", "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, parseValue(tt.in)); diff != "" {
				t.Errorf("parseValue(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestEnvToKey(t *testing.T) {
	l := NewEnvLoader("MARKAMP_")
	tests := map[string]string{
		"MARKAMP_EDITOR_TAB_SIZE": "editor.tab_size",
		"MARKAMP_THEME":           "theme",
		"MARKAMP_UI_SCALE":        "ui.scale",
	}
	for in, want := range tests {
		if got := l.envToKey(in); got != want {
			t.Errorf("envToKey(%q) = %q, want %q", in, got, want)
		}
	}
}
