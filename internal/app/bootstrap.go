package app

import (
	"strings"

	"github.com/markamp/markamp/internal/config"
	"github.com/markamp/markamp/internal/event"
	"github.com/markamp/markamp/internal/plugin"
	"github.com/markamp/markamp/internal/plugin/lua"
)

// bootstrap initializes components in dependency order.
func (app *Application) bootstrap() error {
	opts := app.opts

	// 1. Settings
	path := opts.ConfigPath
	if opts.NoConfigFile {
		path = ""
	} else if path == "" {
		path = config.DefaultPath()
	}
	store, err := config.Load(path)
	if err != nil {
		return &InitError{Component: "config", Err: err}
	}
	app.config = store
	app.applyOverrides()

	// 2. Logging
	logger, closeLog, err := NewLogger(LoggerConfig{
		Level:  store.GetString("logging.level"),
		File:   store.GetString("logging.file"),
		Output: opts.LogOutput,
	})
	if err != nil {
		return &InitError{Component: "logging", Err: err}
	}
	app.logger = logger
	app.closeLog = closeLog
	log := logger.WithComponent("app")
	log.Debug("settings loaded from %q", path)

	// 3. Event bus
	app.bus = event.NewBus(event.WithLogger(logger))
	app.tick = store.GetDuration("app.tick", DefaultTick)
	if app.tick <= 0 {
		app.tick = DefaultTick
	}

	// 4. Plugin manager and its collaborators
	app.registry = NewRegistry()
	app.languages = NewLanguages()
	managerOpts := []plugin.ManagerOption{
		plugin.WithLogger(logger),
		plugin.WithSettingsStore(store),
		plugin.WithCommandRegistrar(app.registry),
		plugin.WithShortcutRegistrar(app.registry),
		plugin.WithThemeRegistrar(app.registry),
		plugin.WithViewRegistrar(app.registry),
		plugin.WithMenuRegistrar(app.registry),
		plugin.WithSnippetRegistrar(app.registry),
		plugin.WithService("languages", app.languages),
		plugin.WithService("registry", app.registry),
	}
	for name, svc := range opts.Services {
		managerOpts = append(managerOpts, plugin.WithService(name, svc))
	}
	app.plugins = plugin.NewManager(app.bus, managerOpts...)

	// 5. Metrics
	app.metrics = NewMetrics(app.bus, app.plugins)

	// 6. Built-in plugins, then discovered extensions
	for _, p := range opts.Plugins {
		if err := app.plugins.Register(p, nil); err != nil {
			return &InitError{Component: "plugins", Err: err}
		}
	}
	if err := app.loadExtensions(); err != nil {
		log.Warn("some extensions failed to load: %v", err)
	}

	// 7. Config watcher
	if opts.WatchConfig && path != "" {
		app.watcher = config.NewWatcher(store, app.bus,
			config.WithDebounce(store.GetDuration("config.debounce", config.DefaultDebounce)),
			config.WithWatcherLogger(logger),
		)
	}

	app.subscribe()
	return nil
}

// applyOverrides writes command line options over the loaded settings.
func (app *Application) applyOverrides() {
	opts := app.opts
	if opts.LogLevel != "" {
		app.config.Set("logging.level", opts.LogLevel)
	}
	if len(opts.PluginPaths) > 0 {
		paths := make([]any, len(opts.PluginPaths))
		for i, p := range opts.PluginPaths {
			paths[i] = p
		}
		app.config.Set("plugins.paths", paths)
	}
	if opts.MetricsAddr != "" {
		app.config.Set("metrics.addr", opts.MetricsAddr)
	}
	if opts.Tick > 0 {
		app.config.Set("app.tick", opts.Tick)
	}
}

// loadExtensions discovers extensions and registers them with the manager.
// Per-extension failures are returned joined and do not stop startup.
func (app *Application) loadExtensions() error {
	paths := app.config.GetStringSlice("plugins.paths")
	if len(paths) == 0 {
		paths = plugin.DefaultPluginPaths()
	}
	app.loader = plugin.NewLoader(
		plugin.WithPaths(paths...),
		plugin.WithLoaderLogger(app.logger),
	)

	factory := app.opts.Factory
	if factory == nil {
		factory = lua.NewFactory(app.luaOptions()...)
	}

	ids, err := app.loader.LoadInto(app.plugins, factory)
	for _, id := range ids {
		if ext := app.plugins.ExtensionManifest(id); ext != nil {
			app.languages.AddContributed(ext.Contributes.Languages)
		}
	}
	app.logger.Info("registered %d extensions from %d paths", len(ids), len(paths))
	return err
}

// luaOptions builds Lua plugin options from settings.
func (app *Application) luaOptions() []lua.Option {
	opts := []lua.Option{
		lua.WithTimeout(app.config.GetDuration("plugins.lua_timeout", lua.DefaultExecutionTimeout)),
	}

	var caps []lua.Capability
	var unknown []string
	for _, name := range app.config.GetStringSlice("plugins.lua_capabilities") {
		c, ok := lua.ParseCapability(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		caps = append(caps, c)
	}
	if len(unknown) > 0 {
		app.logger.Warn("ignoring unknown Lua capabilities: %s", strings.Join(unknown, ", "))
	}
	if len(caps) > 0 {
		opts = append(opts, lua.WithCapabilities(caps...))
	}
	return opts
}
