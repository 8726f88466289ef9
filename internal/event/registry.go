package event

import (
	"reflect"
	"sync"
	"sync/atomic"
)

// handlerEntry pairs a registration id with its type-erased handler.
type handlerEntry struct {
	id uint64
	fn func(Event)
}

// handlerTable maps an event type to its handlers in subscription order.
// A published table and the slices it holds are never mutated.
type handlerTable map[reflect.Type][]handlerEntry

// registry stores handlers keyed by event type.
//
// Writers serialize on mu and publish a fresh table through the atomic
// pointer. Readers either take mu (snapshot) or load the pointer directly
// (snapshotFast); both observe an immutable table.
type registry struct {
	mu     sync.Mutex
	table  atomic.Pointer[handlerTable]
	nextID uint64
	count  atomic.Int64
}

func newRegistry() *registry {
	r := &registry{}
	empty := handlerTable{}
	r.table.Store(&empty)
	return r
}

// add appends fn to the handlers of t and returns its id.
func (r *registry) add(t reflect.Type, fn func(Event)) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	id := r.nextID

	old := *r.table.Load()
	next := make(handlerTable, len(old)+1)
	for k, v := range old {
		next[k] = v
	}

	prev := old[t]
	entries := make([]handlerEntry, len(prev), len(prev)+1)
	copy(entries, prev)
	next[t] = append(entries, handlerEntry{id: id, fn: fn})

	r.table.Store(&next)
	r.count.Add(1)
	return id
}

// remove deletes the handler with the given id. It returns false if no such
// handler is registered.
func (r *registry) remove(t reflect.Type, id uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := *r.table.Load()
	prev := old[t]

	idx := -1
	for i, e := range prev {
		if e.id == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	next := make(handlerTable, len(old))
	for k, v := range old {
		next[k] = v
	}

	if len(prev) == 1 {
		delete(next, t)
	} else {
		entries := make([]handlerEntry, 0, len(prev)-1)
		entries = append(entries, prev[:idx]...)
		entries = append(entries, prev[idx+1:]...)
		next[t] = entries
	}

	r.table.Store(&next)
	r.count.Add(-1)
	return true
}

// snapshot returns the handlers for t, read under the registry lock.
func (r *registry) snapshot(t reflect.Type) []handlerEntry {
	r.mu.Lock()
	entries := (*r.table.Load())[t]
	r.mu.Unlock()
	return entries
}

// snapshotFast returns the handlers for t without taking the lock.
func (r *registry) snapshotFast(t reflect.Type) []handlerEntry {
	return (*r.table.Load())[t]
}

// len returns the total number of registered handlers.
func (r *registry) len() int {
	return int(r.count.Load())
}
