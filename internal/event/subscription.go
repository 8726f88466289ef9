package event

import (
	"sync"
	"sync/atomic"
)

// SubscriptionState represents the state of a subscription.
type SubscriptionState int32

const (
	// SubscriptionStateActive means the handle owns a registered handler.
	SubscriptionStateActive SubscriptionState = iota

	// SubscriptionStateCancelled means the handle owns nothing, either because
	// it was cancelled, moved from, or never held a registration.
	SubscriptionStateCancelled
)

// String returns a human-readable state name.
func (s SubscriptionState) String() string {
	switch s {
	case SubscriptionStateActive:
		return "active"
	case SubscriptionStateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Subscription owns one handler registration.
//
// The zero value and a nil pointer are valid empty subscriptions. A
// Subscription must not be copied after first use; use Move to transfer
// ownership.
type Subscription struct {
	unsubscribe atomic.Pointer[func()]
}

func newSubscription(unsubscribe func()) *Subscription {
	s := &Subscription{}
	s.unsubscribe.Store(&unsubscribe)
	return s
}

// Cancel removes the handler. Only the first call has an effect.
func (s *Subscription) Cancel() {
	if s == nil {
		return
	}
	if fn := s.unsubscribe.Swap(nil); fn != nil {
		(*fn)()
	}
}

// Move returns a new handle owning the registration and leaves s empty.
// Cancelling s afterwards is a no-op.
func (s *Subscription) Move() *Subscription {
	moved := &Subscription{}
	if s == nil {
		return moved
	}
	if fn := s.unsubscribe.Swap(nil); fn != nil {
		moved.unsubscribe.Store(fn)
	}
	return moved
}

// State returns the current subscription state.
func (s *Subscription) State() SubscriptionState {
	if s.IsActive() {
		return SubscriptionStateActive
	}
	return SubscriptionStateCancelled
}

// IsActive returns true if the handle still owns a registration.
func (s *Subscription) IsActive() bool {
	return s != nil && s.unsubscribe.Load() != nil
}

// SubscriptionSet owns a group of subscriptions that share a lifetime.
// The zero value is ready to use.
type SubscriptionSet struct {
	mu   sync.Mutex
	subs []*Subscription
}

// Add takes ownership of sub. Nil and empty subscriptions are ignored.
func (s *SubscriptionSet) Add(sub *Subscription) {
	if !sub.IsActive() {
		return
	}
	s.mu.Lock()
	s.subs = append(s.subs, sub.Move())
	s.mu.Unlock()
}

// Len returns the number of owned subscriptions.
func (s *SubscriptionSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// CancelAll cancels every owned subscription once and empties the set.
func (s *SubscriptionSet) CancelAll() {
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()

	for _, sub := range subs {
		sub.Cancel()
	}
}
