package event

// Event is implemented by every value published on the bus.
//
// EventName returns a stable, human-readable name used in diagnostics.
// Events are treated as immutable values; handlers must not modify them.
type Event interface {
	EventName() string
}

// NameOf returns the event name, or "<nil>" for a nil event.
func NameOf(e Event) string {
	if e == nil {
		return "<nil>"
	}
	return e.EventName()
}
