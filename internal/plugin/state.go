package plugin

// State represents the lifecycle state of a registered plugin.
type State int

// Plugin states.
const (
	// StateRegistered - Plugin is registered but not active.
	StateRegistered State = iota

	// StateActivating - Plugin is being activated.
	StateActivating

	// StateActive - Plugin is active and running.
	StateActive

	// StateDeactivating - Plugin is being deactivated.
	StateDeactivating
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateRegistered:
		return "registered"
	case StateActivating:
		return "activating"
	case StateActive:
		return "active"
	case StateDeactivating:
		return "deactivating"
	default:
		return "unknown"
	}
}

// IsTransitioning returns true while activation or deactivation is in progress.
func (s State) IsTransitioning() bool {
	return s == StateActivating || s == StateDeactivating
}
