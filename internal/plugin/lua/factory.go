package lua

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/markamp/markamp/internal/plugin"
)

// NewFactory returns a plugin.Factory for discovered extensions. Extensions
// without an entry point become declarative plugins; Lua entry points become
// Lua plugins built with opts.
func NewFactory(opts ...Option) plugin.Factory {
	return func(ext *plugin.ExtensionManifest) (plugin.Plugin, error) {
		if ext.Main == "" {
			return plugin.NewDeclarative(ext), nil
		}
		if !strings.EqualFold(filepath.Ext(ext.Main), ".lua") {
			return nil, fmt.Errorf("%s: %w", ext.Main, ErrUnsupportedEntryPoint)
		}
		if _, err := os.Stat(ext.MainPath()); err != nil {
			return nil, fmt.Errorf("entry point: %w", err)
		}
		return NewPlugin(ext, opts...), nil
	}
}
