package lua

import "errors"

// Errors for Lua state operations.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrExecutionTimeout is returned when a call runs past the execution timeout.
	ErrExecutionTimeout = errors.New("lua execution timeout")

	// ErrFunctionNotFound is returned when calling an undefined global function.
	ErrFunctionNotFound = errors.New("lua function not found")

	// ErrUnsupportedEntryPoint is returned for extension entry points that are
	// not Lua scripts.
	ErrUnsupportedEntryPoint = errors.New("unsupported extension entry point")
)
