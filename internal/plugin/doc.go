// Package plugin provides the MarkAmp plugin host.
//
// Plugins extend the application with commands, keybindings, snippets,
// menus, settings, themes and views, and react to application events
// through the shared event bus.
//
// # Lifecycle
//
// Every registered plugin moves through the states
//
//	Registered -> Activating -> Active -> Deactivating -> Registered
//
// A failed activation returns the plugin to Registered. Activating an
// active plugin is a no-op.
//
// # Lazy Activation
//
// Plugins registered with an ExtensionManifest declare activation events in
// the VS Code style:
//
//	"*"                       activate at startup
//	"onStartupFinished"       activate after the application is ready
//	"onLanguage:markdown"     activate when a markdown file is opened
//	"onCommand:ext.doThing"   activate when the command is first executed
//	"onView:outline"          activate when the view is shown
//
// ActivateAll activates plugins without a manifest, without activation
// events, or with "*". All others wait until TriggerActivationEvent is
// called with one of their raw event strings:
//
//	mgr.TriggerActivationEvent("onLanguage:markdown")
//
// ExecuteCommand triggers "onCommand:<id>" by itself when no handler is
// registered for the command yet.
//
// # Dependencies
//
// extensionDependencies are activated depth-first before the dependent
// plugin. ResolveDependencies returns the same order without activating
// anything and reports cycles as *CycleError.
//
// # Contribution Points
//
// Before a plugin's Activate runs, its manifest contributions are handed to
// the collaborators configured on the Manager (command palette, shortcuts,
// settings store, themes, views, menus, snippets). Setting defaults are only
// written for keys that have no value yet.
//
// # Activation Context
//
// Activate receives a *Context carrying the bus, the settings store, a
// plugin-scoped logger and a unique activation id. Commands registered and
// subscriptions tracked through the context are released on deactivation:
//
//	func (p *wordCount) Activate(ctx *plugin.Context) error {
//	    plugin.Subscribe(ctx, func(e events.EditorContentChanged) {
//	        p.count = len(strings.Fields(e.Content))
//	    })
//	    return ctx.RegisterCommand("wordcount.show", p.show)
//	}
//
// # Discovery
//
// Loader scans extension directories for package.json or plugin.yaml
// manifests and registers a plugin for each valid one using a Factory,
// typically the Lua factory from the lua subpackage.
package plugin
