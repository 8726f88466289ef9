package app

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"

	"github.com/markamp/markamp/internal/event"
	"github.com/markamp/markamp/internal/event/events"
	"github.com/markamp/markamp/internal/plugin"
)

func gatherValue(t *testing.T, m *Metrics, name string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		var total float64
		for _, metric := range mf.GetMetric() {
			total += metricValue(metric)
		}
		return total
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func metricValue(m *dto.Metric) float64 {
	switch {
	case m.GetCounter() != nil:
		return m.GetCounter().GetValue()
	case m.GetGauge() != nil:
		return m.GetGauge().GetValue()
	case m.GetHistogram() != nil:
		return float64(m.GetHistogram().GetSampleCount())
	}
	return 0
}

func TestMetrics_BusCollector(t *testing.T) {
	bus := event.NewBus()
	m := NewMetrics(bus, nil)

	sub := event.Subscribe(bus, func(events.FileSaved) {})
	defer sub.Cancel()

	bus.Publish(events.FileSaved{FilePath: "a.md"})
	bus.Publish(events.FileSaved{FilePath: "b.md"})
	bus.Queue(events.FileSaved{FilePath: "c.md"})

	if got := gatherValue(t, m, "markamp_bus_events_published_total"); got != 2 {
		t.Errorf("events_published_total = %v, want 2", got)
	}
	if got := gatherValue(t, m, "markamp_bus_events_queued_total"); got != 1 {
		t.Errorf("events_queued_total = %v, want 1", got)
	}
	if got := gatherValue(t, m, "markamp_bus_pending_queued"); got != 1 {
		t.Errorf("pending_queued = %v, want 1", got)
	}
	if got := gatherValue(t, m, "markamp_bus_subscribers"); got != 1 {
		t.Errorf("subscribers = %v, want 1", got)
	}
}

func TestMetrics_PluginCollector(t *testing.T) {
	bus := event.NewBus()
	mgr := plugin.NewManager(bus)
	m := NewMetrics(bus, mgr)

	if err := mgr.Register(&stubPlugin{id: "stub"}, nil); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := mgr.Activate("stub"); err != nil {
		t.Fatalf("Activate: %v", err)
	}

	if got := gatherValue(t, m, "markamp_plugins_registered"); got != 1 {
		t.Errorf("plugins_registered = %v, want 1", got)
	}
	if got := gatherValue(t, m, "markamp_plugins_active"); got != 1 {
		t.Errorf("plugins_active = %v, want 1", got)
	}
	if got := gatherValue(t, m, "markamp_plugins_activations_total"); got != 1 {
		t.Errorf("activations_total = %v, want 1", got)
	}
}

func TestMetrics_TicksAndFiles(t *testing.T) {
	m := NewMetrics(nil, nil)
	m.ObserveTick(time.Millisecond, 3)
	m.ObserveTick(time.Millisecond, 0)
	m.FileOpened("markdown")
	m.FileOpened("")

	if got := gatherValue(t, m, "markamp_tick_duration_seconds"); got != 2 {
		t.Errorf("tick samples = %v, want 2", got)
	}
	if got := gatherValue(t, m, "markamp_tick_events_total"); got != 3 {
		t.Errorf("tick_events_total = %v, want 3", got)
	}
	if got := gatherValue(t, m, "markamp_files_opened_total"); got != 2 {
		t.Errorf("files_opened_total = %v, want 2", got)
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics(event.NewBus(), nil)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(string(body), "markamp_bus_events_published_total") {
		t.Errorf("body missing bus metrics:\n%s", body)
	}
}
