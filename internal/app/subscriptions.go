package app

import (
	"slices"

	"github.com/markamp/markamp/internal/event"
	"github.com/markamp/markamp/internal/event/events"
	"github.com/markamp/markamp/internal/logging"
)

// subscribe installs the application's own bus handlers.
func (app *Application) subscribe() {
	app.subs.Add(event.Subscribe(app.bus, app.onFileOpened))
	app.subs.Add(event.Subscribe(app.bus, app.onConfigChanged))
	app.subs.Add(event.Subscribe(app.bus, func(e events.PluginActivationFailed) {
		app.logger.Warn("plugin %s failed to activate: %s", e.PluginID, e.Error)
	}))
}

// onFileOpened activates plugins waiting on the language of the file.
func (app *Application) onFileOpened(e events.FileOpened) {
	lang := app.languages.Detect(e.FilePath)
	app.metrics.FileOpened(lang)
	if lang == "" {
		return
	}
	if ids := app.plugins.TriggerActivationEvent("onLanguage:" + lang); len(ids) > 0 {
		app.logger.Info("opening %s activated %v", e.FilePath, ids)
	}
}

// onConfigChanged applies settings that take effect without a restart.
func (app *Application) onConfigChanged(e events.ConfigChanged) {
	if slices.Contains(e.Keys, "logging.level") {
		level := logging.ParseLevel(app.config.GetString("logging.level"))
		app.logger.SetLevel(level)
		app.logger.Info("log level set to %s", level)
	}
	if slices.Contains(e.Keys, "app.tick") {
		app.logger.Info("app.tick changed; restart to apply")
	}
}
