package lua

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/markamp/markamp/internal/event"
	"github.com/markamp/markamp/internal/event/events"
	"github.com/markamp/markamp/internal/logging"
)

// ModuleName is the name of the host API module, available as a global and
// through require.
const ModuleName = "markamp"

func (p *Plugin) installModule() {
	mod := p.state.RegisterModule(ModuleName, map[string]lua.LGFunction{
		"register_command": p.luaRegisterCommand,
		"execute_command":  p.luaExecuteCommand,
		"commands":         p.luaCommands,
		"on":               p.luaOn,
		"events":           p.luaEvents,
		"config_get":       p.luaConfigGet,
		"log":              p.luaLog,
	})
	p.state.L.SetField(mod, "extension_id", lua.LString(p.ctx.ExtensionID))
}

// markamp.register_command(id, fn)
func (p *Plugin) luaRegisterCommand(L *lua.LState) int {
	id := L.CheckString(1)
	fn := L.CheckFunction(2)

	state := p.state
	err := p.ctx.RegisterCommand(id, func() error {
		_, err := state.CallFunction(fn)
		return err
	})
	if err != nil {
		L.RaiseError("register_command: %s", err.Error())
	}
	return 0
}

// markamp.execute_command(id) returns true, or false and an error message.
func (p *Plugin) luaExecuteCommand(L *lua.LState) int {
	id := L.CheckString(1)
	if err := p.ctx.ExecuteCommand(id); err != nil {
		L.Push(lua.LFalse)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LTrue)
	return 1
}

// markamp.commands() returns the commands registered by this plugin.
func (p *Plugin) luaCommands(L *lua.LState) int {
	L.Push(p.bridge.ToLuaValue(p.ctx.Commands()))
	return 1
}

// markamp.on(event_name, fn) calls fn with a table of the event fields each
// time the event is published. The subscription ends on deactivation.
func (p *Plugin) luaOn(L *lua.LState) int {
	name := L.CheckString(1)
	fn := L.CheckFunction(2)

	subscribe, ok := events.Lookup(name)
	if !ok {
		L.ArgError(1, "unknown event "+name)
		return 0
	}

	state, bridge, logger := p.state, p.bridge, p.logger
	sub := subscribe(p.ctx.Bus, func(e event.Event) {
		if state.IsClosed() {
			return
		}
		tbl, err := bridge.EventTable(e)
		if err != nil {
			logger.Warn("cannot convert %s for lua: %v", name, err)
			return
		}
		if _, err := state.CallFunction(fn, tbl); err != nil {
			logger.Warn("lua handler for %s failed: %v", name, err)
		}
	})
	p.ctx.Track(sub)
	return 0
}

// markamp.events() lists the event names accepted by markamp.on.
func (p *Plugin) luaEvents(L *lua.LState) int {
	L.Push(p.bridge.ToLuaValue(events.Names()))
	return 1
}

// markamp.config_get(key [, default])
func (p *Plugin) luaConfigGet(L *lua.LState) int {
	key := L.CheckString(1)
	if p.ctx.Config != nil {
		if v := p.ctx.Config.GetString(key); v != "" {
			L.Push(lua.LString(v))
			return 1
		}
	}
	L.Push(L.Get(2))
	return 1
}

// markamp.log(level, message)
func (p *Plugin) luaLog(L *lua.LState) int {
	level := logging.ParseLevel(L.CheckString(1))
	msg := L.CheckString(2)

	switch level {
	case logging.LevelDebug:
		p.logger.Debug("%s", msg)
	case logging.LevelWarn:
		p.logger.Warn("%s", msg)
	case logging.LevelError:
		p.logger.Error("%s", msg)
	default:
		p.logger.Info("%s", msg)
	}
	return 0
}
