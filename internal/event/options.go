package event

import (
	"github.com/markamp/markamp/internal/event/dispatch"
	"github.com/markamp/markamp/internal/logging"
)

// BusOption configures an event Bus.
type BusOption func(*busConfig)

// busConfig contains configuration for the event bus.
type busConfig struct {
	// logger receives handler panic warnings.
	logger logging.Logger

	// fastQueueCapacity is the requested size of the fast-path ring.
	fastQueueCapacity int

	// panicHandler is called after a handler panic has been logged.
	panicHandler dispatch.PanicHandler
}

// defaultBusConfig returns sensible default configuration.
func defaultBusConfig() busConfig {
	return busConfig{
		logger:            logging.Nop(),
		fastQueueCapacity: dispatch.DefaultRingCapacity,
	}
}

// WithLogger sets the logger used for handler panic warnings.
func WithLogger(l logging.Logger) BusOption {
	return func(c *busConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithFastQueueCapacity sets the fast-path ring size. The value is rounded up
// to a power of two; one slot is always kept free.
func WithFastQueueCapacity(n int) BusOption {
	return func(c *busConfig) {
		if n > 1 {
			c.fastQueueCapacity = n
		}
	}
}

// WithPanicHandler registers a callback invoked with the event name, the
// recovered value and the stack for every handler panic.
func WithPanicHandler(h func(name string, recovered any, stack []byte)) BusOption {
	return func(c *busConfig) {
		c.panicHandler = h
	}
}
