package plugin

import (
	"errors"
	"fmt"
	"strings"
)

// Plugin system errors.
var (
	// ErrPluginNotFound is returned when a plugin id is not registered.
	ErrPluginNotFound = errors.New("plugin not found")

	// ErrInvalidPlugin is returned when a nil plugin or a plugin without an id is registered.
	ErrInvalidPlugin = errors.New("invalid plugin")

	// ErrAlreadyRegistered is returned when a plugin id is registered twice.
	ErrAlreadyRegistered = errors.New("plugin is already registered")

	// ErrNotActive is returned when deactivating a plugin that is not active.
	ErrNotActive = errors.New("plugin is not active")

	// ErrDependencyNotFound is returned when a required dependency is missing.
	ErrDependencyNotFound = errors.New("plugin dependency not found")

	// ErrCyclicDependency is returned when plugins have circular dependencies.
	ErrCyclicDependency = errors.New("cyclic plugin dependency detected")

	// ErrActivationFailed is matched by every activation failure.
	ErrActivationFailed = errors.New("plugin activation failed")

	// ErrCommandNotFound is returned when no handler is registered for a command.
	ErrCommandNotFound = errors.New("command not found")

	// ErrNoEntryPoint is returned when an extension has no usable entry point.
	ErrNoEntryPoint = errors.New("extension has no entry point")
)

// CycleError reports a dependency cycle. Path lists the plugin ids along the
// cycle, starting and ending with Plugin.
type CycleError struct {
	Plugin string
	Path   []string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	if len(e.Path) == 0 {
		return fmt.Sprintf("plugin %q: %v", e.Plugin, ErrCyclicDependency)
	}
	return fmt.Sprintf("plugin %q: %v: %s", e.Plugin, ErrCyclicDependency, strings.Join(e.Path, " -> "))
}

// Is reports whether target is ErrCyclicDependency.
func (e *CycleError) Is(target error) bool {
	return target == ErrCyclicDependency
}

// ActivationError wraps the reason a plugin failed to activate.
// It matches both ErrActivationFailed and the underlying cause.
type ActivationError struct {
	Plugin string
	Err    error
}

// Error implements the error interface.
func (e *ActivationError) Error() string {
	return fmt.Sprintf("activate plugin %q: %v", e.Plugin, e.Err)
}

// Unwrap returns ErrActivationFailed and the cause.
func (e *ActivationError) Unwrap() []error {
	return []error{ErrActivationFailed, e.Err}
}
