package lua

import (
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/markamp/markamp/internal/logging"
	"github.com/markamp/markamp/internal/plugin"
)

// Plugin runs an extension whose entry point is a Lua script.
//
// On activation the script is loaded into a fresh sandboxed State with the
// markamp module installed, then its global activate(ctx) function is called
// if defined. Deactivation calls deactivate() if defined and closes the State.
type Plugin struct {
	ext      *plugin.ExtensionManifest
	manifest *plugin.Manifest

	timeout      time.Duration
	capabilities []Capability

	state  *State
	bridge *Bridge
	ctx    *plugin.Context
	logger logging.Logger
}

// Option configures a Lua plugin.
type Option func(*Plugin)

// WithTimeout sets the execution timeout for calls into the script.
func WithTimeout(d time.Duration) Option {
	return func(p *Plugin) {
		p.timeout = d
	}
}

// WithCapabilities grants sandbox capabilities to the script.
func WithCapabilities(caps ...Capability) Option {
	return func(p *Plugin) {
		p.capabilities = append(p.capabilities, caps...)
	}
}

// NewPlugin creates a Lua plugin for an extension manifest.
func NewPlugin(ext *plugin.ExtensionManifest, opts ...Option) *Plugin {
	p := &Plugin{
		ext:      ext,
		manifest: ext.ToManifest(),
		timeout:  DefaultExecutionTimeout,
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Manifest implements plugin.Plugin.
func (p *Plugin) Manifest() *plugin.Manifest {
	return p.manifest
}

// Activate implements plugin.Plugin.
func (p *Plugin) Activate(ctx *plugin.Context) error {
	state, err := NewState(WithExecutionTimeout(p.timeout))
	if err != nil {
		return err
	}
	for _, c := range p.capabilities {
		state.Sandbox().Grant(c)
	}

	p.state = state
	p.bridge = NewBridge(state.L)
	p.ctx = ctx
	if ctx.Logger != nil {
		p.logger = ctx.Logger
	}

	state.Sandbox().RedirectPrint(func(line string) {
		p.logger.Info("%s", line)
	})
	p.installModule()

	if err := state.DoFile(p.ext.MainPath()); err != nil {
		p.release()
		return fmt.Errorf("load %s: %w", p.ext.Main, err)
	}

	if state.HasFunction("activate") {
		if _, err := state.Call("activate", p.contextTable()); err != nil {
			p.release()
			return fmt.Errorf("activate(): %w", err)
		}
	}
	return nil
}

// Deactivate implements plugin.Plugin.
func (p *Plugin) Deactivate() error {
	if p.state == nil {
		return nil
	}
	defer p.release()

	if p.state.HasFunction("deactivate") {
		if _, err := p.state.Call("deactivate"); err != nil {
			return fmt.Errorf("deactivate(): %w", err)
		}
	}
	return nil
}

// State returns the Lua state of the active plugin, nil when inactive.
func (p *Plugin) State() *State {
	return p.state
}

func (p *Plugin) release() {
	if p.state != nil {
		p.state.Close()
	}
	p.state = nil
	p.bridge = nil
	p.ctx = nil
}

// contextTable builds the table passed to activate(ctx).
func (p *Plugin) contextTable() *lua.LTable {
	t := p.state.L.NewTable()
	t.RawSetString("extension_id", lua.LString(p.ctx.ExtensionID))
	t.RawSetString("extension_path", lua.LString(p.ctx.ExtensionPath))
	t.RawSetString("activation_id", lua.LString(p.ctx.ActivationID))
	t.RawSetString("services", p.bridge.ToLuaValue(p.ctx.Services()))
	return t
}
