// Package event provides the MarkAmp event bus.
//
// The bus is the application's communication backbone. Components publish
// immutable event values and other components subscribe to them by Go type,
// without knowing about each other. The bus instance is created once by the
// application and injected into every component that needs it.
//
// # Subscribing
//
// Handlers are keyed by the concrete type of the event:
//
//	sub := event.Subscribe(bus, func(e events.FileOpened) {
//	    fmt.Println("opened", e.FilePath)
//	})
//	defer sub.Cancel()
//
// The returned Subscription owns the registration. Cancel is idempotent and
// Move transfers ownership to a new handle. Components holding many
// subscriptions collect them in a SubscriptionSet and call CancelAll on
// shutdown. Dropping a handle without cancelling it leaves the handler
// registered.
//
// # Delivery Modes
//
//   - Publish: synchronous delivery in the caller's goroutine, in
//     subscription order.
//   - PublishFast: identical delivery, but the handler snapshot is read
//     without taking the registry lock.
//   - Queue / ProcessQueued: deferred delivery. Queued events are delivered
//     in FIFO order when the owner of the main loop calls ProcessQueued.
//   - PostFast / QueueFast / DrainFastQueue: a bounded lock-free ring for a
//     single producer goroutine and a single consumer goroutine. Posting to
//     a full ring fails and is counted as dropped.
//
// # Panic Isolation
//
// Every handler invocation is isolated. A panicking handler is logged at
// WARN with the event name, counted in Stats, and the remaining handlers
// still run. Panics never reach the publisher.
//
// # Thread Safety
//
// Subscribe, Cancel, Publish, PublishFast and Queue are safe for concurrent
// use, including from inside handlers. The handler list for each event type
// is copy-on-write: a publish iterates a snapshot, so subscribing or
// cancelling during delivery does not affect the delivery in progress.
//
// # Subpackages
//
//   - events: concrete application event types
//   - dispatch: panic-isolating executor and the SPSC ring buffer
package event
