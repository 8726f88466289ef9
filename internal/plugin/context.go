package plugin

import (
	"sort"

	"github.com/markamp/markamp/internal/event"
	"github.com/markamp/markamp/internal/logging"
)

// Context is handed to Plugin.Activate. It is valid until the plugin is
// deactivated; subscriptions tracked by the context and commands registered
// through it are released on deactivation.
type Context struct {
	// ExtensionID is the plugin id.
	ExtensionID string

	// ExtensionPath is the extension directory, empty for built-in plugins.
	ExtensionPath string

	// ActivationID uniquely identifies this activation.
	ActivationID string

	// Bus is the application event bus.
	Bus *event.Bus

	// Config is the settings store, nil if the host has none.
	Config SettingsStore

	// Logger is scoped to the plugin.
	Logger logging.Logger

	manager  *Manager
	key      string
	subs     event.SubscriptionSet
	services map[string]any
}

// RegisterCommand registers the handler that runs when commandID is executed.
// A later registration for the same command replaces the earlier one.
func (c *Context) RegisterCommand(commandID string, handler func() error) error {
	return c.manager.registerCommand(c.key, commandID, handler)
}

// ExecuteCommand runs a command registered by any active plugin.
func (c *Context) ExecuteCommand(commandID string) error {
	return c.manager.ExecuteCommand(commandID)
}

// Commands returns the ids of commands registered by this plugin.
func (c *Context) Commands() []string {
	return c.manager.pluginCommands(c.key)
}

// Track takes ownership of sub; it is cancelled when the plugin deactivates.
func (c *Context) Track(sub *event.Subscription) {
	c.subs.Add(sub)
}

// Subscriptions returns the number of tracked subscriptions.
func (c *Context) Subscriptions() int {
	return c.subs.Len()
}

// Service returns a host service registered with WithService.
func (c *Context) Service(name string) (any, bool) {
	svc, ok := c.services[name]
	return svc, ok
}

// Services returns the names of the available host services.
func (c *Context) Services() []string {
	names := make([]string, 0, len(c.services))
	for name := range c.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Subscribe registers handler on the context's bus and tracks the
// subscription so it is cancelled when the plugin deactivates.
func Subscribe[T event.Event](c *Context, handler func(T)) {
	c.Track(event.Subscribe(c.Bus, handler))
}
