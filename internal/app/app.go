// Package app wires the MarkAmp core together: settings, the event bus, the
// plugin manager, Lua extension discovery and metrics. It runs the main loop
// that delivers queued events on a fixed tick.
package app

import (
	"io"
	"sync/atomic"
	"time"

	"github.com/markamp/markamp/internal/config"
	"github.com/markamp/markamp/internal/event"
	"github.com/markamp/markamp/internal/logging"
	"github.com/markamp/markamp/internal/plugin"
)

// DefaultTick is the main loop interval.
const DefaultTick = 16 * time.Millisecond

// Application owns the core components and their lifecycles.
type Application struct {
	opts Options

	logger   *logging.StdLogger
	closeLog func() error

	config  *config.Store
	watcher *config.Watcher

	bus       *event.Bus
	registry  *Registry
	plugins   *plugin.Manager
	loader    *plugin.Loader
	languages *Languages
	metrics   *Metrics

	subs event.SubscriptionSet
	tick time.Duration

	running atomic.Bool
}

// Options configures the application. Zero values fall back to settings.
type Options struct {
	// ConfigPath is the settings file. Empty uses config.DefaultPath.
	ConfigPath string

	// NoConfigFile skips the settings file entirely.
	NoConfigFile bool

	// WatchConfig reloads settings when the file changes.
	WatchConfig bool

	// PluginPaths overrides plugins.paths.
	PluginPaths []string

	// LogLevel overrides logging.level.
	LogLevel string

	// LogOutput receives logs when logging.file is unset. Defaults to stderr.
	LogOutput io.Writer

	// MetricsAddr overrides metrics.addr. Empty disables the metrics server.
	MetricsAddr string

	// Tick overrides app.tick.
	Tick time.Duration

	// Factory builds plugins for discovered extensions. Defaults to the Lua
	// extension factory.
	Factory plugin.Factory

	// Plugins are built-in plugins registered before discovery.
	Plugins []plugin.Plugin

	// Services are exposed to plugins through their activation context.
	Services map[string]any
}

// New creates an application. Extensions are discovered and registered but
// not activated until Run.
func New(opts Options) (*Application, error) {
	app := &Application{opts: opts}
	if err := app.bootstrap(); err != nil {
		app.closeLogger()
		return nil, err
	}
	return app, nil
}

// IsRunning reports whether Run is in progress.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// Logger returns the root logger.
func (app *Application) Logger() *logging.StdLogger {
	return app.logger
}

// Config returns the settings store.
func (app *Application) Config() *config.Store {
	return app.config
}

// Bus returns the event bus.
func (app *Application) Bus() *event.Bus {
	return app.bus
}

// Plugins returns the plugin manager.
func (app *Application) Plugins() *plugin.Manager {
	return app.plugins
}

// Loader returns the extension loader.
func (app *Application) Loader() *plugin.Loader {
	return app.loader
}

// Registry returns the contribution registry.
func (app *Application) Registry() *Registry {
	return app.registry
}

// Languages returns the language map.
func (app *Application) Languages() *Languages {
	return app.languages
}

// Metrics returns the metrics registry.
func (app *Application) Metrics() *Metrics {
	return app.metrics
}

// Tick returns the main loop interval.
func (app *Application) Tick() time.Duration {
	return app.tick
}

// ExecuteCommand runs a plugin command. It must be called from the main loop
// goroutine or before Run.
func (app *Application) ExecuteCommand(commandID string) error {
	return app.plugins.ExecuteCommand(commandID)
}

func (app *Application) closeLogger() {
	if app.closeLog != nil {
		_ = app.closeLog()
		app.closeLog = nil
	}
}
