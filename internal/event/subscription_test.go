package event

import "testing"

func TestSubscriptionState_String(t *testing.T) {
	tests := []struct {
		state    SubscriptionState
		expected string
	}{
		{SubscriptionStateActive, "active"},
		{SubscriptionStateCancelled, "cancelled"},
		{SubscriptionState(9), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.expected {
			t.Errorf("SubscriptionState(%d).String() = %q, want %q", tt.state, got, tt.expected)
		}
	}
}

func TestSubscription_ZeroAndNil(t *testing.T) {
	var zero Subscription
	zero.Cancel()
	if zero.IsActive() {
		t.Error("zero subscription should be inactive")
	}

	var nilSub *Subscription
	nilSub.Cancel()
	if nilSub.IsActive() {
		t.Error("nil subscription should be inactive")
	}
	if nilSub.State() != SubscriptionStateCancelled {
		t.Errorf("nil State() = %v", nilSub.State())
	}
	if nilSub.Move().IsActive() {
		t.Error("moving a nil subscription should yield an empty one")
	}
}

func TestSubscription_State(t *testing.T) {
	bus := NewBus()
	sub := Subscribe(bus, func(testEvent) {})

	if sub.State() != SubscriptionStateActive {
		t.Errorf("State() = %v, want active", sub.State())
	}
	sub.Cancel()
	if sub.State() != SubscriptionStateCancelled {
		t.Errorf("State() = %v, want cancelled", sub.State())
	}
}

func TestSubscription_Move(t *testing.T) {
	bus := NewBus()

	var count int
	src := Subscribe(bus, func(testEvent) { count++ })
	dst := src.Move()

	if src.IsActive() {
		t.Error("source should be empty after Move")
	}
	if !dst.IsActive() {
		t.Error("destination should own the registration")
	}

	src.Cancel()
	bus.Publish(testEvent{})
	if count != 1 {
		t.Errorf("cancelling moved-from handle removed the handler; count = %d", count)
	}

	dst.Cancel()
	bus.Publish(testEvent{})
	if count != 1 {
		t.Errorf("count = %d after cancelling destination, want 1", count)
	}
}

func TestSubscriptionSet_CancelAll(t *testing.T) {
	bus := NewBus()

	var count int
	var set SubscriptionSet
	set.Add(Subscribe(bus, func(testEvent) { count++ }))
	set.Add(Subscribe(bus, func(testEvent) { count++ }))
	set.Add(Subscribe(bus, func(otherEvent) { count++ }))
	set.Add(nil)
	set.Add(&Subscription{})

	if set.Len() != 3 {
		t.Errorf("Len() = %d, want 3", set.Len())
	}

	bus.Publish(testEvent{})
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}

	set.CancelAll()
	set.CancelAll()

	bus.Publish(testEvent{})
	bus.Publish(otherEvent{})
	if count != 2 {
		t.Errorf("count = %d after CancelAll, want 2", count)
	}
	if set.Len() != 0 {
		t.Errorf("Len() = %d after CancelAll, want 0", set.Len())
	}
	if bus.Stats().ActiveSubscribers != 0 {
		t.Errorf("ActiveSubscribers = %d, want 0", bus.Stats().ActiveSubscribers)
	}
}

func TestSubscriptionSet_AddTakesOwnership(t *testing.T) {
	bus := NewBus()

	var set SubscriptionSet
	sub := Subscribe(bus, func(testEvent) {})
	set.Add(sub)

	if sub.IsActive() {
		t.Error("handle passed to Add should be emptied")
	}
	sub.Cancel()
	if bus.HandlerCount(testEvent{}) != 1 {
		t.Error("cancelling the emptied handle removed the handler")
	}
	set.CancelAll()
	if bus.HandlerCount(testEvent{}) != 0 {
		t.Error("CancelAll did not remove the handler")
	}
}
