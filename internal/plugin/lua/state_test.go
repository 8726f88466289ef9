package lua

import (
	"errors"
	"testing"
	"time"

	glua "github.com/yuin/gopher-lua"
)

func newTestState(t *testing.T, opts ...StateOption) *State {
	t.Helper()
	state, err := NewState(opts...)
	if err != nil {
		t.Fatalf("NewState() error = %v", err)
	}
	t.Cleanup(func() { state.Close() })
	return state
}

func TestNewState(t *testing.T) {
	state := newTestState(t)

	if state.IsClosed() {
		t.Error("NewState() returned closed state")
	}
	if state.LuaState() == nil {
		t.Error("NewState() LuaState() is nil")
	}
	if state.Sandbox() == nil {
		t.Error("NewState() Sandbox() is nil")
	}
}

func TestStateDoString(t *testing.T) {
	state := newTestState(t)

	if err := state.DoString(`x = 1 + 1`); err != nil {
		t.Fatalf("DoString() error = %v", err)
	}
	if v := state.GetGlobal("x"); v != glua.LNumber(2) {
		t.Errorf("x = %v, want 2", v)
	}

	if err := state.DoString(`this is not lua`); err == nil {
		t.Error("DoString() expected syntax error")
	}
	if err := state.DoString(`error("boom")`); err == nil {
		t.Error("DoString() expected runtime error")
	}
}

func TestStateCall(t *testing.T) {
	state := newTestState(t)

	err := state.DoString(`
		function add(a, b) return a + b end
		function pair() return "a", "b" end
		function nothing() end
		notfn = 5
	`)
	if err != nil {
		t.Fatalf("DoString() error = %v", err)
	}

	results, err := state.Call("add", glua.LNumber(2), glua.LNumber(3))
	if err != nil {
		t.Fatalf("Call(add) error = %v", err)
	}
	if len(results) != 1 || results[0] != glua.LNumber(5) {
		t.Errorf("Call(add) = %v, want [5]", results)
	}

	results, err = state.Call("pair")
	if err != nil {
		t.Fatalf("Call(pair) error = %v", err)
	}
	if len(results) != 2 || results[0] != glua.LString("a") || results[1] != glua.LString("b") {
		t.Errorf("Call(pair) = %v", results)
	}

	results, err = state.Call("nothing")
	if err != nil || results == nil || len(results) != 0 {
		t.Errorf("Call(nothing) = %v, %v; want empty slice", results, err)
	}

	if _, err := state.Call("missing"); !errors.Is(err, ErrFunctionNotFound) {
		t.Errorf("Call(missing) expected ErrFunctionNotFound, got %v", err)
	}
	if _, err := state.Call("notfn"); err == nil {
		t.Error("Call(notfn) expected error")
	}
	if state.L.GetTop() != 0 {
		t.Errorf("stack not balanced, top = %d", state.L.GetTop())
	}
}

func TestStateHasFunction(t *testing.T) {
	state := newTestState(t)
	state.DoString(`function f() end; v = 1`)

	if !state.HasFunction("f") {
		t.Error("HasFunction(f) = false")
	}
	if state.HasFunction("v") || state.HasFunction("missing") {
		t.Error("HasFunction reported a non-function")
	}
}

func TestStateNestedCalls(t *testing.T) {
	state := newTestState(t)
	state.DoString(`function inner() return 7 end`)

	state.SetGlobal("call_inner", state.L.NewFunction(func(L *glua.LState) int {
		results, err := state.Call("inner")
		if err != nil {
			L.RaiseError("%s", err.Error())
		}
		L.Push(results[0])
		return 1
	}))

	if err := state.DoString(`result = call_inner() + 1`); err != nil {
		t.Fatalf("DoString() error = %v", err)
	}
	if v := state.GetGlobal("result"); v != glua.LNumber(8) {
		t.Errorf("result = %v, want 8", v)
	}
}

func TestStateExecutionTimeout(t *testing.T) {
	state := newTestState(t, WithExecutionTimeout(50*time.Millisecond))

	start := time.Now()
	err := state.DoString(`while true do end`)
	if !errors.Is(err, ErrExecutionTimeout) {
		t.Fatalf("expected ErrExecutionTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("timeout took %v", elapsed)
	}
}

func TestStateClose(t *testing.T) {
	state, err := NewState()
	if err != nil {
		t.Fatalf("NewState() error = %v", err)
	}

	if err := state.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if !state.IsClosed() {
		t.Error("IsClosed() = false after Close")
	}
	if err := state.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	if err := state.DoString(`x = 1`); !errors.Is(err, ErrStateClosed) {
		t.Errorf("DoString() after Close: expected ErrStateClosed, got %v", err)
	}
	if _, err := state.Call("f"); !errors.Is(err, ErrStateClosed) {
		t.Errorf("Call() after Close: expected ErrStateClosed, got %v", err)
	}
	if state.GetGlobal("x") != glua.LNil {
		t.Error("GetGlobal() after Close should return nil")
	}
}

func TestStateRegisterModule(t *testing.T) {
	state := newTestState(t)

	state.RegisterModule("greeter", map[string]glua.LGFunction{
		"hello": func(L *glua.LState) int {
			L.Push(glua.LString("hello " + L.CheckString(1)))
			return 1
		},
	})

	err := state.DoString(`
		local g = require("greeter")
		a = g.hello("lua")
		b = greeter.hello("global")
	`)
	if err != nil {
		t.Fatalf("DoString() error = %v", err)
	}
	if v := state.GetGlobal("a"); v != glua.LString("hello lua") {
		t.Errorf("a = %v", v)
	}
	if v := state.GetGlobal("b"); v != glua.LString("hello global") {
		t.Errorf("b = %v", v)
	}
}
