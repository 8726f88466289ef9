package dispatch

import (
	"runtime/debug"
	"time"
)

// Result represents the outcome of a handler execution.
type Result struct {
	// Panicked is true if the handler panicked.
	Panicked bool

	// PanicValue is the value passed to panic(), if Panicked is true.
	PanicValue any

	// PanicStack is the stack trace at the point of panic.
	PanicStack []byte

	// Duration is how long the handler took to execute.
	Duration time.Duration
}

// IsSuccess returns true if the handler returned normally.
func (r Result) IsSuccess() bool {
	return !r.Panicked
}

// Err returns a *PanicError when the handler panicked, nil otherwise.
func (r Result) Err(name string) error {
	if !r.Panicked {
		return nil
	}
	return &PanicError{Name: name, Value: r.PanicValue, Stack: r.PanicStack}
}

// PanicHandler is called when a handler panics during execution.
// It receives the delivery name, the panic value, and the stack trace.
type PanicHandler func(name string, panicValue any, stack []byte)

// Executor handles the actual execution of handlers with
// panic recovery and timing.
type Executor struct {
	panicHandler PanicHandler
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithPanicHandler sets the panic handler for the executor.
func WithPanicHandler(h PanicHandler) ExecutorOption {
	return func(e *Executor) {
		e.panicHandler = h
	}
}

// NewExecutor creates a new executor with the given options.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run invokes fn and returns the result. A panic raised by fn is recovered,
// reported to the panic handler, and recorded in the result.
func (e *Executor) Run(name string, fn func()) (result Result) {
	start := time.Now()

	defer func() {
		result.Duration = time.Since(start)

		if r := recover(); r != nil {
			stack := debug.Stack()

			result.Panicked = true
			result.PanicValue = r
			result.PanicStack = stack

			// A panicking panic handler must not escape either.
			if e.panicHandler != nil {
				func() {
					defer func() {
						_ = recover()
					}()
					e.panicHandler(name, r, stack)
				}()
			}
		}
	}()

	if fn != nil {
		fn()
	}
	return result
}

// RunAll invokes each fn in order, isolating every call. It returns the
// number of calls that panicked.
func (e *Executor) RunAll(name string, fns []func()) int {
	panics := 0
	for _, fn := range fns {
		if e.Run(name, fn).Panicked {
			panics++
		}
	}
	return panics
}
