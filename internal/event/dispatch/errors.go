package dispatch

import (
	"errors"
	"fmt"
)

// ErrHandlerPanic is matched by every PanicError.
var ErrHandlerPanic = errors.New("handler panicked")

// PanicError describes a recovered panic.
type PanicError struct {
	// Name identifies the delivery or call that panicked.
	Name string

	// Value is the value passed to panic().
	Value any

	// Stack is the stack trace captured at recovery.
	Stack []byte
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("%s: panic: %v", e.Name, e.Value)
}

// Is reports whether target is ErrHandlerPanic.
func (e *PanicError) Is(target error) bool {
	return target == ErrHandlerPanic
}

// Unwrap returns the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
