package lua

import (
	"os"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// Sandbox restricts Lua execution to safe operations.
type Sandbox struct {
	L *lua.LState

	// Modules require may load
	modules map[string]bool

	// Capabilities
	capabilities map[Capability]bool
}

// Capability represents a permission that can be granted to plugins.
type Capability string

// Available capabilities.
const (
	CapabilityFileRead Capability = "filesystem.read"
	CapabilityEnv      Capability = "env"
	CapabilityUnsafe   Capability = "unsafe" // Full Lua stdlib access
)

// ParseCapability parses a capability name.
func ParseCapability(name string) (Capability, bool) {
	switch c := Capability(strings.TrimSpace(name)); c {
	case CapabilityFileRead, CapabilityEnv, CapabilityUnsafe:
		return c, true
	}
	return "", false
}

// NewSandbox creates a new sandbox for the Lua state.
func NewSandbox(L *lua.LState) *Sandbox {
	return &Sandbox{
		L: L,
		modules: map[string]bool{
			"string": true,
			"table":  true,
			"math":   true,
		},
		capabilities: make(map[Capability]bool),
	}
}

// Install removes functions that load code from disk or strings and replaces
// require with a whitelist-based version.
func (s *Sandbox) Install() {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		s.L.SetGlobal(name, lua.LNil)
	}
	s.installSafeRequire()
}

// RedirectPrint replaces print so that its output goes to fn. Arguments are
// converted with tostring semantics and joined by tabs.
func (s *Sandbox) RedirectPrint(fn func(line string)) {
	s.L.SetGlobal("print", s.L.NewFunction(func(L *lua.LState) int {
		parts := make([]string, 0, L.GetTop())
		for i := 1; i <= L.GetTop(); i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		fn(strings.Join(parts, "\t"))
		return 0
	}))
}

// AllowModule lets require load a preloaded module.
func (s *Sandbox) AllowModule(name string) {
	s.modules[name] = true
}

// installSafeRequire clears package.path and package.cpath so nothing is
// loaded from disk, and only lets require resolve whitelisted modules.
func (s *Sandbox) installSafeRequire() {
	if pkg, ok := s.L.GetGlobal("package").(*lua.LTable); ok {
		s.L.SetField(pkg, "path", lua.LString(""))
		s.L.SetField(pkg, "cpath", lua.LString(""))
	}

	originalRequire := s.L.GetGlobal("require")
	if originalRequire == lua.LNil {
		return
	}

	s.L.SetGlobal("require", s.L.NewFunction(func(L *lua.LState) int {
		modName := L.CheckString(1)

		if !s.modules[modName] {
			switch modName {
			case "io":
				if !s.capabilities[CapabilityFileRead] {
					L.RaiseError("module 'io' requires %s capability", CapabilityFileRead)
				}
				L.Push(L.GetGlobal("io"))
				return 1
			case "os":
				if !s.capabilities[CapabilityEnv] {
					L.RaiseError("module 'os' requires %s capability", CapabilityEnv)
				}
				L.Push(L.GetGlobal("os"))
				return 1
			}
			// L.RaiseError does not return.
			L.RaiseError("module %q is not available", modName)
			return 0
		}

		L.Push(originalRequire)
		L.Push(lua.LString(modName))
		L.Call(1, 1)
		return 1
	}))
}

// Grant enables a capability and injects the corresponding API.
func (s *Sandbox) Grant(c Capability) {
	if s.capabilities[c] {
		return
	}
	s.capabilities[c] = true

	switch c {
	case CapabilityFileRead:
		s.injectFileReadAPI()
	case CapabilityEnv:
		s.injectEnvAPI()
	case CapabilityUnsafe:
		s.injectUnsafeLibraries()
	}
}

// HasCapability returns true if the capability is granted.
func (s *Sandbox) HasCapability(c Capability) bool {
	return s.capabilities[c]
}

// Capabilities returns all granted capabilities, sorted.
func (s *Sandbox) Capabilities() []Capability {
	caps := make([]Capability, 0, len(s.capabilities))
	for c := range s.capabilities {
		caps = append(caps, c)
	}
	sort.Slice(caps, func(i, j int) bool { return caps[i] < caps[j] })
	return caps
}

// CheckCapability returns an error if the capability is not granted.
func (s *Sandbox) CheckCapability(c Capability) error {
	if !s.capabilities[c] {
		return &CapabilityError{Capability: c}
	}
	return nil
}

// injectFileReadAPI adds a read-only io module with read and lines.
func (s *Sandbox) injectFileReadAPI() {
	ioMod := s.L.NewTable()

	// io.read(path) returns the whole file, or nil and an error message
	s.L.SetField(ioMod, "read", s.L.NewFunction(func(L *lua.LState) int {
		content, err := os.ReadFile(L.CheckString(1))
		if err != nil {
			L.Push(lua.LNil)
			L.Push(lua.LString(err.Error()))
			return 2
		}
		L.Push(lua.LString(content))
		return 1
	}))

	// io.lines(path) iterates over the lines of a file
	s.L.SetField(ioMod, "lines", s.L.NewFunction(func(L *lua.LState) int {
		content, err := os.ReadFile(L.CheckString(1))
		if err != nil {
			L.RaiseError("cannot open file: %s", err.Error())
			return 0
		}

		lines := splitLines(string(content))
		idx := 0

		L.Push(L.NewFunction(func(L *lua.LState) int {
			if idx >= len(lines) {
				return 0
			}
			L.Push(lua.LString(lines[idx]))
			idx++
			return 1
		}))
		return 1
	}))

	s.L.SetGlobal("io", ioMod)
}

// splitLines splits a string into lines, dropping carriage returns.
func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, strings.TrimSuffix(s[start:i], "\r"))
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

// injectEnvAPI adds an os module limited to getenv.
func (s *Sandbox) injectEnvAPI() {
	osMod := s.L.NewTable()

	s.L.SetField(osMod, "getenv", s.L.NewFunction(func(L *lua.LState) int {
		value, ok := os.LookupEnv(L.CheckString(1))
		if !ok {
			L.Push(lua.LNil)
		} else {
			L.Push(lua.LString(value))
		}
		return 1
	}))

	s.L.SetGlobal("os", osMod)
}

// injectUnsafeLibraries opens the io, os and debug libraries.
// Only for trusted plugins.
func (s *Sandbox) injectUnsafeLibraries() {
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.IoLibName, lua.OpenIo},
		{lua.OsLibName, lua.OpenOs},
		{lua.DebugLibName, lua.OpenDebug},
	} {
		s.L.Push(s.L.NewFunction(lib.fn))
		s.L.Push(lua.LString(lib.name))
		s.L.Call(1, 0)
		s.modules[lib.name] = true
	}
}

// CapabilityError is returned when a capability is not granted.
type CapabilityError struct {
	Capability Capability
}

func (e *CapabilityError) Error() string {
	return "capability not granted: " + string(e.Capability)
}
