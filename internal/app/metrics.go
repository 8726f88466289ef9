package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/markamp/markamp/internal/event"
	"github.com/markamp/markamp/internal/plugin"
)

const metricsNamespace = "markamp"

// Metrics exposes bus, plugin and main loop metrics on a private
// Prometheus registry.
type Metrics struct {
	registry *prometheus.Registry

	tickDuration prometheus.Histogram
	tickEvents   prometheus.Counter
	openedFiles  *prometheus.CounterVec
}

// NewMetrics creates the registry and registers collectors reading bus and
// plugins. Either may be nil.
func NewMetrics(bus *event.Bus, plugins *plugin.Manager) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "tick_duration_seconds",
			Help:      "Time spent delivering queued events per main loop tick.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.016, 0.05, 0.1},
		}),
		tickEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "tick_events_total",
			Help:      "Queued events and fast-path closures run by the main loop.",
		}),
		openedFiles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "files_opened_total",
			Help:      "Files opened, by detected language.",
		}, []string{"language"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.tickDuration,
		m.tickEvents,
		m.openedFiles,
	)
	if bus != nil {
		m.registry.MustRegister(newBusCollector(bus))
	}
	if plugins != nil {
		m.registry.MustRegister(newPluginCollector(plugins))
	}
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveTick records one main loop tick.
func (m *Metrics) ObserveTick(d time.Duration, delivered int) {
	m.tickDuration.Observe(d.Seconds())
	if delivered > 0 {
		m.tickEvents.Add(float64(delivered))
	}
}

// FileOpened counts an opened file.
func (m *Metrics) FileOpened(language string) {
	if language == "" {
		language = "unknown"
	}
	m.openedFiles.WithLabelValues(language).Inc()
}

// Handler returns the /metrics HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve serves /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return &InitError{Component: "metrics server", Err: err}
	}
	return m.serve(ctx, ln)
}

func (m *Metrics) serve(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// busCollector reads event.Bus statistics at scrape time.
type busCollector struct {
	bus *event.Bus

	published   *prometheus.Desc
	delivered   *prometheus.Desc
	panics      *prometheus.Desc
	queued      *prometheus.Desc
	processed   *prometheus.Desc
	fastPosted  *prometheus.Desc
	fastDrained *prometheus.Desc
	fastDropped *prometheus.Desc
	subscribers *prometheus.Desc
	pending     *prometheus.Desc
	fastDepth   *prometheus.Desc
}

func newBusCollector(bus *event.Bus) *busCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(metricsNamespace, "bus", name), help, nil, nil)
	}
	return &busCollector{
		bus:         bus,
		published:   desc("events_published_total", "Events published synchronously."),
		delivered:   desc("events_delivered_total", "Handler invocations that returned normally."),
		panics:      desc("handler_panics_total", "Handler invocations that panicked."),
		queued:      desc("events_queued_total", "Events added to the deferred queue."),
		processed:   desc("events_processed_total", "Deferred events delivered."),
		fastPosted:  desc("fast_posted_total", "Closures accepted by the fast-path ring."),
		fastDrained: desc("fast_drained_total", "Closures run from the fast-path ring."),
		fastDropped: desc("fast_dropped_total", "Closures rejected because the ring was full."),
		subscribers: desc("subscribers", "Registered handlers."),
		pending:     desc("pending_queued", "Deferred events awaiting delivery."),
		fastDepth:   desc("fast_queue_depth", "Closures waiting in the fast-path ring."),
	}
}

func (c *busCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.published, c.delivered, c.panics, c.queued, c.processed,
		c.fastPosted, c.fastDrained, c.fastDropped,
		c.subscribers, c.pending, c.fastDepth,
	} {
		ch <- d
	}
}

func (c *busCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.bus.Stats()
	counter := func(d *prometheus.Desc, v uint64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v))
	}
	gauge := func(d *prometheus.Desc, v int) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, float64(v))
	}
	counter(c.published, s.EventsPublished)
	counter(c.delivered, s.EventsDelivered)
	counter(c.panics, s.HandlerPanics)
	counter(c.queued, s.EventsQueued)
	counter(c.processed, s.EventsProcessed)
	counter(c.fastPosted, s.FastPosted)
	counter(c.fastDrained, s.FastDrained)
	counter(c.fastDropped, s.FastDropped)
	gauge(c.subscribers, s.ActiveSubscribers)
	gauge(c.pending, s.PendingQueued)
	gauge(c.fastDepth, s.FastQueueDepth)
}

// pluginCollector reads plugin.Manager statistics at scrape time.
type pluginCollector struct {
	plugins *plugin.Manager

	registered  *prometheus.Desc
	active      *prometheus.Desc
	pending     *prometheus.Desc
	commands    *prometheus.Desc
	activations *prometheus.Desc
	failures    *prometheus.Desc
	deactivated *prometheus.Desc
	executed    *prometheus.Desc
}

func newPluginCollector(plugins *plugin.Manager) *pluginCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(metricsNamespace, "plugins", name), help, nil, nil)
	}
	return &pluginCollector{
		plugins:     plugins,
		registered:  desc("registered", "Registered plugins."),
		active:      desc("active", "Active plugins."),
		pending:     desc("pending", "Plugins waiting on an activation event."),
		commands:    desc("commands", "Registered command handlers."),
		activations: desc("activations_total", "Successful plugin activations."),
		failures:    desc("activation_failures_total", "Failed plugin activations."),
		deactivated: desc("deactivations_total", "Plugin deactivations."),
		executed:    desc("commands_executed_total", "Commands executed."),
	}
}

func (c *pluginCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.registered, c.active, c.pending, c.commands,
		c.activations, c.failures, c.deactivated, c.executed,
	} {
		ch <- d
	}
}

func (c *pluginCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.plugins.Stats()
	gauge := func(d *prometheus.Desc, v int) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, float64(v))
	}
	counter := func(d *prometheus.Desc, v uint64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v))
	}
	gauge(c.registered, s.Registered)
	gauge(c.active, s.Active)
	gauge(c.pending, s.Pending)
	gauge(c.commands, s.Commands)
	counter(c.activations, s.Activations)
	counter(c.failures, s.ActivationFailures)
	counter(c.deactivated, s.Deactivations)
	counter(c.executed, s.CommandsExecuted)
}
