// Package lua runs MarkAmp extensions written in Lua.
//
// # State
//
// State wraps a gopher-lua LState with a sandbox and a per-call execution
// timeout:
//
//	state, err := lua.NewState(lua.WithExecutionTimeout(time.Second))
//	if err != nil {
//	    return err
//	}
//	defer state.Close()
//
//	if err := state.DoFile("main.lua"); err != nil {
//	    return err
//	}
//
// # Sandbox
//
// Only the base, package, table, string and math libraries are opened.
// dofile, loadfile and load are removed, and require resolves only
// whitelisted modules. Capabilities unlock more:
//   - CapabilityFileRead: a read-only io module (io.read, io.lines)
//   - CapabilityEnv: os.getenv
//   - CapabilityUnsafe: the full io, os and debug libraries
//
// # Plugins
//
// Plugin adapts a Lua extension to plugin.Plugin. Scripts use the markamp
// module:
//
//	local markamp = require("markamp")
//
//	function activate(ctx)
//	    markamp.register_command("wordcount.show", function()
//	        markamp.log("info", "words: " .. count)
//	    end)
//	    markamp.on("file.saved", function(e)
//	        print("saved " .. e.file_path)
//	    end)
//	end
//
// NewFactory builds plugins for a plugin.Loader.
package lua
