package event

import (
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/markamp/markamp/internal/event/dispatch"
	"github.com/markamp/markamp/internal/logging"
)

// Labels for panics raised outside a handler, by closures run from the
// deferred queue or the fast-path ring.
const (
	queuedName    = "queued"
	fastQueueName = "fast-queue"
)

// Bus is the central event bus. Create one with NewBus and pass it to the
// components that need it.
type Bus struct {
	registry *registry
	executor *dispatch.Executor
	logger   logging.Logger

	queueMu sync.Mutex
	queue   []func()

	ring *dispatch.Ring

	// Stats
	eventsPublished atomic.Uint64
	eventsDelivered atomic.Uint64
	handlerPanics   atomic.Uint64
	eventsQueued    atomic.Uint64
	eventsProcessed atomic.Uint64
	fastPosted      atomic.Uint64
	fastDrained     atomic.Uint64
	fastDropped     atomic.Uint64
}

// NewBus creates a new event bus with the given options.
func NewBus(opts ...BusOption) *Bus {
	config := defaultBusConfig()
	for _, opt := range opts {
		opt(&config)
	}

	b := &Bus{
		registry: newRegistry(),
		logger:   config.logger.WithComponent("event"),
		ring:     dispatch.NewRing(config.fastQueueCapacity),
	}

	userHandler := config.panicHandler
	b.executor = dispatch.NewExecutor(
		dispatch.WithPanicHandler(func(name string, recovered any, stack []byte) {
			b.logger.Warn("handler panicked while handling %s: %v", name, recovered)
			if userHandler != nil {
				userHandler(name, recovered, stack)
			}
		}),
	)

	return b
}

// Subscribe registers handler for events of type T and returns the
// subscription that owns the registration.
//
// T must be a concrete event type; handlers are matched against the dynamic
// type of published events. A nil handler is ignored and yields an empty
// subscription.
func Subscribe[T Event](b *Bus, handler func(T)) *Subscription {
	if handler == nil {
		b.logger.Warn("ignoring nil handler for %s", reflect.TypeOf((*T)(nil)).Elem())
		return &Subscription{}
	}

	t := reflect.TypeOf((*T)(nil)).Elem()
	id := b.registry.add(t, func(e Event) {
		if v, ok := e.(T); ok {
			handler(v)
		}
	})

	return newSubscription(func() {
		b.registry.remove(t, id)
	})
}

// Publish delivers e synchronously to every handler subscribed to its type,
// in subscription order. The handler list is captured under the registry
// lock and iterated without it.
func (b *Bus) Publish(e Event) {
	if e == nil {
		return
	}
	b.deliver(e, b.registry.snapshot(reflect.TypeOf(e)))
}

// PublishFast delivers e like Publish but reads the handler list without
// taking the registry lock.
func (b *Bus) PublishFast(e Event) {
	if e == nil {
		return
	}
	b.deliver(e, b.registry.snapshotFast(reflect.TypeOf(e)))
}

func (b *Bus) deliver(e Event, entries []handlerEntry) {
	b.eventsPublished.Add(1)
	if len(entries) == 0 {
		return
	}

	name := e.EventName()
	for _, entry := range entries {
		fn := entry.fn
		if b.executor.Run(name, func() { fn(e) }).IsSuccess() {
			b.eventsDelivered.Add(1)
		} else {
			b.handlerPanics.Add(1)
		}
	}
}

// Queue defers a Publish of e until the next ProcessQueued call.
func (b *Bus) Queue(e Event) {
	if e == nil {
		return
	}
	b.queueMu.Lock()
	b.queue = append(b.queue, func() { b.Publish(e) })
	b.queueMu.Unlock()
	b.eventsQueued.Add(1)
}

// ProcessQueued delivers every event queued before the call, in FIFO order,
// and returns how many were delivered. Events queued by handlers during
// processing are left for the next call.
func (b *Bus) ProcessQueued() int {
	b.queueMu.Lock()
	pending := b.queue
	b.queue = nil
	b.queueMu.Unlock()

	if panics := b.executor.RunAll(queuedName, pending); panics > 0 {
		b.handlerPanics.Add(uint64(panics))
	}

	b.eventsProcessed.Add(uint64(len(pending)))
	return len(pending)
}

// PostFast pushes fn onto the fast-path ring. It returns false, counting a
// drop, when the ring is full. Only one goroutine may post.
func (b *Bus) PostFast(fn func()) bool {
	if fn == nil {
		return false
	}
	if !b.ring.TryPush(fn) {
		b.fastDropped.Add(1)
		return false
	}
	b.fastPosted.Add(1)
	return true
}

// QueueFast posts a deferred PublishFast of e onto the fast-path ring.
func (b *Bus) QueueFast(e Event) bool {
	if e == nil {
		return false
	}
	return b.PostFast(func() { b.PublishFast(e) })
}

// DrainFastQueue runs every closure currently in the fast-path ring and
// returns how many ran. Only one goroutine may drain.
func (b *Bus) DrainFastQueue() int {
	n := 0
	for !b.ring.Empty() {
		fn, ok := b.ring.TryPop()
		if !ok {
			break
		}
		if b.executor.Run(fastQueueName, fn).Panicked {
			b.handlerPanics.Add(1)
		}
		n++
	}
	b.fastDrained.Add(uint64(n))
	return n
}

// HandlerCount returns the number of handlers registered for the type of e.
func (b *Bus) HandlerCount(e Event) int {
	if e == nil {
		return 0
	}
	return len(b.registry.snapshot(reflect.TypeOf(e)))
}

// Stats returns a snapshot of bus statistics.
func (b *Bus) Stats() Stats {
	b.queueMu.Lock()
	pending := len(b.queue)
	b.queueMu.Unlock()

	return Stats{
		EventsPublished:   b.eventsPublished.Load(),
		EventsDelivered:   b.eventsDelivered.Load(),
		HandlerPanics:     b.handlerPanics.Load(),
		EventsQueued:      b.eventsQueued.Load(),
		EventsProcessed:   b.eventsProcessed.Load(),
		FastPosted:        b.fastPosted.Load(),
		FastDrained:       b.fastDrained.Load(),
		FastDropped:       b.fastDropped.Load(),
		ActiveSubscribers: b.registry.len(),
		PendingQueued:     pending,
		FastQueueDepth:    b.ring.Len(),
		FastQueueCapacity: b.ring.Cap(),
	}
}
