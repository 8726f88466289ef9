package events

import (
	"sort"

	"github.com/markamp/markamp/internal/event"
)

// SubscribeFunc subscribes a type-erased handler to one event type.
type SubscribeFunc func(b *event.Bus, handler func(event.Event)) *event.Subscription

func subscriber[T event.Event]() SubscribeFunc {
	return func(b *event.Bus, handler func(event.Event)) *event.Subscription {
		if handler == nil {
			return event.Subscribe[T](b, nil)
		}
		return event.Subscribe(b, func(e T) { handler(e) })
	}
}

var catalog = map[string]SubscribeFunc{
	NameAppReady:               subscriber[AppReady](),
	NameAppShutdown:            subscriber[AppShutdown](),
	NameThemeChanged:           subscriber[ThemeChanged](),
	NameUIScaleChanged:         subscriber[UIScaleChanged](),
	NameInputModeChanged:       subscriber[InputModeChanged](),
	NameFileOpened:             subscriber[FileOpened](),
	NameFileContentChanged:     subscriber[FileContentChanged](),
	NameFileSaved:              subscriber[FileSaved](),
	NameActiveFileChanged:      subscriber[ActiveFileChanged](),
	NameFileEncodingDetected:   subscriber[FileEncodingDetected](),
	NameViewModeChanged:        subscriber[ViewModeChanged](),
	NameSidebarToggle:          subscriber[SidebarToggle](),
	NameCursorPositionChanged:  subscriber[CursorPositionChanged](),
	NameEditorContentChanged:   subscriber[EditorContentChanged](),
	NameEditorScrollChanged:    subscriber[EditorScrollChanged](),
	NameMermaidRenderStatus:    subscriber[MermaidRenderStatus](),
	NamePluginActivated:        subscriber[PluginActivated](),
	NamePluginDeactivated:      subscriber[PluginDeactivated](),
	NamePluginActivationFailed: subscriber[PluginActivationFailed](),
	NameConfigChanged:          subscriber[ConfigChanged](),
}

// Lookup returns the subscriber for the named event type.
func Lookup(name string) (SubscribeFunc, bool) {
	fn, ok := catalog[name]
	return fn, ok
}

// Names returns every known event name in sorted order.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
