package dispatch

import (
	"sync/atomic"
)

// DefaultRingCapacity is the ring size used when none is configured.
const DefaultRingCapacity = 1024

// Ring is a bounded lock-free single-producer single-consumer queue of closures.
//
// Exactly one goroutine may call TryPush and exactly one goroutine may call
// TryPop. Len and Cap are safe from any goroutine.
type Ring struct {
	// head is advanced by the consumer, tail by the producer.
	head atomic.Uint64
	_    [56]byte
	tail atomic.Uint64
	_    [56]byte

	mask  uint64
	slots []func()
}

// NewRing creates a ring whose capacity is capacity rounded up to a power of
// two. Capacities below 2 use DefaultRingCapacity.
func NewRing(capacity int) *Ring {
	if capacity < 2 {
		capacity = DefaultRingCapacity
	}
	n := nextPowerOfTwo(uint64(capacity))
	return &Ring{
		mask:  n - 1,
		slots: make([]func(), n),
	}
}

// TryPush appends fn. It returns false when the ring is full.
func (r *Ring) TryPush(fn func()) bool {
	tail := r.tail.Load()
	next := (tail + 1) & r.mask
	if next == r.head.Load() {
		return false
	}
	r.slots[tail] = fn
	r.tail.Store(next)
	return true
}

// TryPop removes and returns the oldest closure. It returns false when the
// ring is empty.
func (r *Ring) TryPop() (func(), bool) {
	head := r.head.Load()
	if head == r.tail.Load() {
		return nil, false
	}
	fn := r.slots[head]
	r.slots[head] = nil
	r.head.Store((head + 1) & r.mask)
	return fn, true
}

// Len returns the number of queued closures.
func (r *Ring) Len() int {
	head := r.head.Load()
	tail := r.tail.Load()
	return int((tail - head) & r.mask)
}

// Cap returns the number of closures the ring can hold at once.
func (r *Ring) Cap() int {
	return int(r.mask)
}

// Empty reports whether the ring holds no closures.
func (r *Ring) Empty() bool {
	return r.head.Load() == r.tail.Load()
}

func nextPowerOfTwo(v uint64) uint64 {
	if v&(v-1) == 0 {
		return v
	}
	n := uint64(1)
	for n < v {
		n <<= 1
	}
	return n
}
