// Package dispatch provides the delivery primitives used by the event bus.
//
// # Executor
//
// Executor runs a single handler closure and recovers any panic it raises,
// so that one misbehaving subscriber cannot take down the publisher or the
// handlers registered after it. Panics are reported through a configurable
// PanicHandler callback together with a name identifying the delivery
// (usually the event name) and the captured stack.
//
//	exec := dispatch.NewExecutor(
//	    dispatch.WithPanicHandler(func(name string, v any, stack []byte) {
//	        log.Printf("panic delivering %s: %v", name, v)
//	    }),
//	)
//	res := exec.Run("FileOpened", func() { handler(ev) })
//	if res.Panicked {
//	    // counted by the caller
//	}
//
// # Ring
//
// Ring is a bounded single-producer single-consumer queue of closures with
// power-of-two capacity. One slot is kept empty to distinguish full from
// empty, so a ring of capacity N holds at most N-1 items. TryPush fails
// rather than blocking when the ring is full.
package dispatch
