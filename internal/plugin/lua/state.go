package lua

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// DefaultExecutionTimeout bounds every top-level call into Lua.
const DefaultExecutionTimeout = 5 * time.Second

// State wraps gopher-lua with sandboxing and execution timeouts.
//
// gopher-lua's LState is not goroutine-safe and neither is State. Calls may
// nest: a Go function invoked from Lua can call back into the same State, in
// which case the outermost call's deadline applies.
type State struct {
	L *lua.LState

	executionTimeout time.Duration
	sandbox          *Sandbox

	depth  int
	closed atomic.Bool
}

// StateOption configures a State.
type StateOption func(*State)

// WithExecutionTimeout sets the timeout for top-level Lua calls. Zero
// disables the timeout.
func WithExecutionTimeout(d time.Duration) StateOption {
	return func(s *State) {
		s.executionTimeout = d
	}
}

// NewState creates a new sandboxed Lua state.
func NewState(opts ...StateOption) (*State, error) {
	state := &State{
		executionTimeout: DefaultExecutionTimeout,
	}

	for _, opt := range opts {
		opt(state)
	}

	L := lua.NewState(lua.Options{
		SkipOpenLibs: true,
	})
	state.L = L

	if err := openSafeLibraries(L); err != nil {
		L.Close()
		return nil, err
	}

	state.sandbox = NewSandbox(L)
	state.sandbox.Install()

	return state, nil
}

// openSafeLibraries opens only safe Lua standard libraries. io, os and debug
// are left closed; package is opened so that require can serve preloaded
// modules, and the sandbox clears its search paths.
func openSafeLibraries(L *lua.LState) error {
	libs := []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.LoadLibName, lua.OpenPackage},
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	}

	for _, lib := range libs {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.fn),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			return fmt.Errorf("open lua library %s: %w", lib.name, err)
		}
	}
	return nil
}

// run executes fn with panic recovery. The outermost call installs the
// execution deadline.
func (s *State) run(fn func() error) (err error) {
	if s.closed.Load() {
		return ErrStateClosed
	}

	if s.depth == 0 && s.executionTimeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), s.executionTimeout)
		s.L.SetContext(ctx)
		defer func() {
			s.L.RemoveContext()
			if err != nil && ctx.Err() != nil {
				err = fmt.Errorf("%w: %v", ErrExecutionTimeout, err)
			}
			cancel()
		}()
	}

	s.depth++
	defer func() { s.depth-- }()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()

	return fn()
}

// DoFile executes a Lua file.
func (s *State) DoFile(path string) error {
	return s.run(func() error {
		return s.L.DoFile(path)
	})
}

// DoString executes a Lua string.
func (s *State) DoString(code string) error {
	return s.run(func() error {
		return s.L.DoString(code)
	})
}

// HasFunction reports whether the global name holds a function.
func (s *State) HasFunction(name string) bool {
	if s.closed.Load() {
		return false
	}
	return s.L.GetGlobal(name).Type() == lua.LTFunction
}

// Call calls a global Lua function with the given arguments.
// Returns an empty slice (not nil) if the function returns no values.
func (s *State) Call(name string, args ...lua.LValue) ([]lua.LValue, error) {
	if s.closed.Load() {
		return nil, ErrStateClosed
	}

	fnVal := s.L.GetGlobal(name)
	if fnVal == lua.LNil {
		return nil, fmt.Errorf("%q: %w", name, ErrFunctionNotFound)
	}
	fn, ok := fnVal.(*lua.LFunction)
	if !ok {
		return nil, fmt.Errorf("%q is not a function (got %s)", name, fnVal.Type())
	}
	return s.CallFunction(fn, args...)
}

// CallFunction calls a Lua function value with the given arguments.
func (s *State) CallFunction(fn *lua.LFunction, args ...lua.LValue) ([]lua.LValue, error) {
	var results []lua.LValue

	err := s.run(func() error {
		// Only the values added by the call are results.
		stackTop := s.L.GetTop()

		if err := s.L.CallByParam(lua.P{
			Fn:      fn,
			NRet:    lua.MultRet,
			Protect: true,
		}, args...); err != nil {
			return err
		}

		nRet := s.L.GetTop() - stackTop
		results = make([]lua.LValue, 0, max(nRet, 0))
		for i := 1; i <= nRet; i++ {
			results = append(results, s.L.Get(stackTop+i))
		}
		if nRet > 0 {
			s.L.Pop(nRet)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// GetGlobal returns a global variable value.
func (s *State) GetGlobal(name string) lua.LValue {
	if s.closed.Load() {
		return lua.LNil
	}
	return s.L.GetGlobal(name)
}

// SetGlobal sets a global variable.
func (s *State) SetGlobal(name string, value lua.LValue) {
	if s.closed.Load() {
		return
	}
	s.L.SetGlobal(name, value)
}

// RegisterModule makes a module table available both as a global and through
// require(name).
func (s *State) RegisterModule(name string, funcs map[string]lua.LGFunction) *lua.LTable {
	mod := s.L.SetFuncs(s.L.NewTable(), funcs)
	s.L.PreloadModule(name, func(L *lua.LState) int {
		L.Push(mod)
		return 1
	})
	s.sandbox.AllowModule(name)
	s.L.SetGlobal(name, mod)
	return mod
}

// LuaState returns the underlying gopher-lua state.
func (s *State) LuaState() *lua.LState {
	return s.L
}

// Sandbox returns the sandbox for capability management.
func (s *State) Sandbox() *Sandbox {
	return s.sandbox
}

// IsClosed returns true if the state has been closed.
func (s *State) IsClosed() bool {
	return s.closed.Load()
}

// Close releases all resources associated with the Lua state.
func (s *State) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.L.Close()
	return nil
}
