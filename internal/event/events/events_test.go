package events

import (
	"encoding/json"
	"testing"

	"github.com/markamp/markamp/internal/event"
)

var allEvents = []event.Event{
	AppReady{},
	AppShutdown{},
	ThemeChanged{},
	UIScaleChanged{},
	InputModeChanged{},
	FileOpened{},
	FileContentChanged{},
	FileSaved{},
	ActiveFileChanged{},
	FileEncodingDetected{},
	ViewModeChanged{},
	SidebarToggle{},
	CursorPositionChanged{},
	EditorContentChanged{},
	EditorScrollChanged{},
	MermaidRenderStatus{},
	PluginActivated{},
	PluginDeactivated{},
	PluginActivationFailed{},
	ConfigChanged{},
}

func TestCatalog_CoversEveryEvent(t *testing.T) {
	if len(Names()) != len(allEvents) {
		t.Fatalf("catalog has %d names, %d event types defined", len(Names()), len(allEvents))
	}

	seen := make(map[string]bool)
	for _, e := range allEvents {
		name := e.EventName()
		if name == "" {
			t.Errorf("%T has empty name", e)
		}
		if seen[name] {
			t.Errorf("duplicate event name %q", name)
		}
		seen[name] = true

		if _, ok := Lookup(name); !ok {
			t.Errorf("Lookup(%q) failed", name)
		}
	}
}

func TestLookup_Unknown(t *testing.T) {
	if _, ok := Lookup("no.such.event"); ok {
		t.Error("expected unknown name to fail")
	}
}

func TestLookup_SubscribesByType(t *testing.T) {
	bus := event.NewBus()

	subscribe, ok := Lookup(NameFileOpened)
	if !ok {
		t.Fatal("file.opened not found")
	}

	var got []event.Event
	sub := subscribe(bus, func(e event.Event) { got = append(got, e) })
	defer sub.Cancel()

	bus.Publish(FileOpened{FilePath: "a.md"})
	bus.Publish(FileSaved{FilePath: "a.md"})

	if len(got) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(got))
	}
	if fo, ok := got[0].(FileOpened); !ok || fo.FilePath != "a.md" {
		t.Errorf("unexpected event %#v", got[0])
	}
}

func TestLookup_NilHandler(t *testing.T) {
	bus := event.NewBus()
	subscribe, _ := Lookup(NameAppReady)

	sub := subscribe(bus, nil)
	if sub.IsActive() {
		t.Error("expected nil handler to yield an empty subscription")
	}
	if bus.HandlerCount(AppReady{}) != 0 {
		t.Error("expected no handler to be registered")
	}
}

func TestViewMode_String(t *testing.T) {
	tests := []struct {
		mode     ViewMode
		expected string
	}{
		{ViewModeEditor, "editor"},
		{ViewModePreview, "preview"},
		{ViewModeSplit, "split"},
		{ViewMode(9), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.expected {
			t.Errorf("ViewMode(%d).String() = %q, want %q", tt.mode, got, tt.expected)
		}
	}
}

func TestViewModeChanged_JSON(t *testing.T) {
	data, err := json.Marshal(ViewModeChanged{Mode: ViewModeSplit})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `{"mode":"split"}` {
		t.Errorf("got %s", data)
	}
}
