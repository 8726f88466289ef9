package event

// Stats contains event bus statistics.
type Stats struct {
	// EventsPublished is the number of Publish and PublishFast calls.
	EventsPublished uint64

	// EventsDelivered is the number of handler invocations that returned normally.
	EventsDelivered uint64

	// HandlerPanics is the number of handler invocations that panicked.
	HandlerPanics uint64

	// EventsQueued is the number of events added with Queue.
	EventsQueued uint64

	// EventsProcessed is the number of queued events delivered by ProcessQueued.
	EventsProcessed uint64

	// FastPosted is the number of closures accepted by the fast-path ring.
	FastPosted uint64

	// FastDrained is the number of closures run by DrainFastQueue.
	FastDrained uint64

	// FastDropped is the number of closures rejected because the ring was full.
	FastDropped uint64

	// ActiveSubscribers is the current number of registered handlers.
	ActiveSubscribers int

	// PendingQueued is the number of queued events awaiting ProcessQueued.
	PendingQueued int

	// FastQueueDepth is the number of closures waiting in the ring.
	FastQueueDepth int

	// FastQueueCapacity is the usable capacity of the ring.
	FastQueueCapacity int
}
