// Package events defines the concrete event types published on the MarkAmp
// event bus.
//
// Each event is a small immutable struct with a stable dotted name returned
// by EventName. Events are grouped by their source:
//
//   - Application events: startup, shutdown, theme, UI scale, input mode
//   - File events: open, save, content changes, encoding detection
//   - Editor events: view mode, sidebar, cursor, scroll, diagram rendering
//   - Plugin events: activation lifecycle
//   - Config events: settings file reloads
//
// # Usage
//
//	sub := event.Subscribe(bus, func(e events.FileOpened) {
//	    log.Printf("opened %s", e.FilePath)
//	})
//	defer sub.Cancel()
//
//	bus.Publish(events.FileOpened{FilePath: "README.md"})
//
// Names lists every event name; Lookup maps a name back to a subscriber
// factory so that scripted plugins can subscribe by name.
package events
