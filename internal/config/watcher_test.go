package config

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/markamp/markamp/internal/event"
	"github.com/markamp/markamp/internal/event/events"
)

func TestWatcher_ReloadQueuesConfigChanged(t *testing.T) {
	path := writeConfig(t, "[theme]\nid = \"paper\"\n")
	s, err := Load(path, WithEnvPrefix(""))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	bus := event.NewBus()
	var got []events.ConfigChanged
	event.Subscribe(bus, func(e events.ConfigChanged) {
		got = append(got, e)
	})

	reloaded := make(chan []string, 8)
	w := NewWatcher(s, bus,
		WithDebounce(10*time.Millisecond),
		WithReloadHook(func(keys []string) { reloaded <- keys }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run: %v", err)
		}
	}()

	// The watch is installed asynchronously; keep writing until a reload lands.
	deadline := time.After(5 * time.Second)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
wait:
	for i := 0; ; i++ {
		content := fmt.Sprintf("[theme]\nid = \"ink-%d\"\n", i)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("rewrite: %v", err)
		}
		select {
		case <-reloaded:
			break wait
		case <-ticker.C:
		case <-deadline:
			t.Fatal("timed out waiting for reload")
		}
	}

	if n := bus.ProcessQueued(); n == 0 {
		t.Fatal("ProcessQueued delivered nothing")
	}
	if len(got) == 0 {
		t.Fatal("no ConfigChanged delivered")
	}
	if got[0].Path == "" {
		t.Error("ConfigChanged.Path is empty")
	}
	if len(got[0].Keys) != 1 || got[0].Keys[0] != "theme.id" {
		t.Errorf("ConfigChanged.Keys = %v, want [theme.id]", got[0].Keys)
	}
	if v := s.GetString("theme.id"); v == "paper" {
		t.Errorf("theme.id = %q, want reloaded value", v)
	}
}

func TestWatcher_NoPathWaitsForContext(t *testing.T) {
	w := NewWatcher(New("", WithEnvPrefix("")), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := w.Run(ctx); err != nil {
		t.Errorf("Run: %v", err)
	}
}
