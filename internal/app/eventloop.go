package app

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/markamp/markamp/internal/event/events"
)

// Run activates plugins, publishes AppReady and runs the main loop until ctx
// is done. The config watcher and metrics server run alongside the loop; if
// either fails, the loop stops. Plugins are deactivated before Run returns.
func (app *Application) Run(ctx context.Context) error {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	g, gctx := errgroup.WithContext(ctx)

	if app.watcher != nil {
		g.Go(func() error {
			return app.watcher.Run(gctx)
		})
	}

	if addr := app.config.GetString("metrics.addr"); addr != "" {
		app.logger.Info("serving metrics on %s", addr)
		g.Go(func() error {
			return app.metrics.Serve(gctx, addr)
		})
	}

	g.Go(func() error {
		app.startup()
		app.eventLoop(gctx)
		app.shutdown()
		return nil
	})

	return g.Wait()
}

// startup activates eager plugins and announces readiness.
func (app *Application) startup() {
	if err := app.plugins.ActivateAll(); err != nil {
		app.logger.Warn("plugin activation: %v", err)
	}
	app.bus.Publish(events.AppReady{})
	if ids := app.plugins.TriggerActivationEvent("onStartupFinished"); len(ids) > 0 {
		app.logger.Debug("activated after startup: %v", ids)
	}
	app.logger.Info("ready: %d plugins active", app.plugins.Stats().Active)
}

// eventLoop delivers queued events and fast-path closures every tick.
func (app *Application) eventLoop(ctx context.Context) {
	ticker := time.NewTicker(app.tick)
	defer ticker.Stop()

	app.processTick()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.processTick()
		}
	}
}

// processTick runs one iteration of the main loop and returns the number of
// events and closures delivered.
func (app *Application) processTick() int {
	start := time.Now()
	n := app.bus.ProcessQueued()
	n += app.bus.DrainFastQueue()
	app.metrics.ObserveTick(time.Since(start), n)
	return n
}

// shutdown announces shutdown, delivers what is still queued and
// deactivates every plugin.
func (app *Application) shutdown() {
	app.bus.Publish(events.AppShutdown{})
	app.processTick()

	if err := app.plugins.DeactivateAll(); err != nil {
		app.logger.Warn("plugin deactivation: %v", err)
	}
	app.subs.CancelAll()
	app.logger.Info("shut down")
}

// Close releases the log file. Call it after Run has returned.
func (app *Application) Close() error {
	if app.running.Load() {
		return ErrAlreadyRunning
	}
	app.closeLogger()
	return nil
}
