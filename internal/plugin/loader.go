package plugin

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/markamp/markamp/internal/logging"
)

// Extension is a discovered extension directory.
type Extension struct {
	// ID is the extension identifier, or the directory name when the
	// manifest could not be read.
	ID       string
	Path     string
	Manifest *ExtensionManifest
	Error    error
}

// Factory builds a plugin from a discovered extension manifest.
type Factory func(ext *ExtensionManifest) (Plugin, error)

// Loader discovers extensions on the filesystem and registers them.
type Loader struct {
	// Search paths for extensions (checked in order)
	paths []string

	// Discovered extensions by canonical id
	discovered map[string]*Extension

	logger logging.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithPaths sets the extension search paths.
func WithPaths(paths ...string) LoaderOption {
	return func(l *Loader) {
		l.paths = paths
	}
}

// WithLoaderLogger sets the loader logger.
func WithLoaderLogger(logger logging.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader creates a new extension loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		paths:      DefaultPluginPaths(),
		discovered: make(map[string]*Extension),
		logger:     logging.Nop(),
	}

	for _, opt := range opts {
		opt(l)
	}

	l.logger = l.logger.WithComponent("loader")
	return l
}

// DefaultPluginPaths returns the default extension search paths.
func DefaultPluginPaths() []string {
	paths := make([]string, 0, 3)

	// User extensions: ~/.config/markamp/extensions/
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "markamp", "extensions"))
		paths = append(paths, filepath.Join(home, ".local", "share", "markamp", "extensions"))
	}

	// Project extensions: .markamp/extensions/
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".markamp", "extensions"))
	}

	return paths
}

// Paths returns the configured search paths.
func (l *Loader) Paths() []string {
	return l.paths
}

// Discover finds all extensions in the search paths, sorted by id. When the
// same id appears in several paths the first path wins. Directories without
// a valid manifest are reported with Error set.
func (l *Loader) Discover() ([]*Extension, error) {
	l.discovered = make(map[string]*Extension)

	var errs []error
	for _, basePath := range l.paths {
		if err := l.discoverInPath(basePath); err != nil {
			errs = append(errs, err)
		}
	}

	found := make([]*Extension, 0, len(l.discovered))
	for _, ext := range l.discovered {
		found = append(found, ext)
	}
	sort.Slice(found, func(i, j int) bool {
		return found[i].ID < found[j].ID
	})

	return found, errors.Join(errs...)
}

// discoverInPath finds extensions in a single directory.
func (l *Loader) discoverInPath(basePath string) error {
	entries, err := os.ReadDir(basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		ext := l.inspect(entry.Name(), filepath.Join(basePath, entry.Name()))
		key := CanonicalID(ext.ID)
		if _, exists := l.discovered[key]; !exists {
			l.discovered[key] = ext
		}
	}

	return nil
}

// inspect examines an extension directory.
func (l *Loader) inspect(name, path string) *Extension {
	ext := &Extension{ID: name, Path: path}

	for _, file := range []string{PackageJSON, PluginYAML} {
		manifestPath := filepath.Join(path, file)
		if _, err := os.Stat(manifestPath); err != nil {
			continue
		}

		manifest, err := LoadExtensionManifest(manifestPath)
		if err != nil {
			ext.Error = fmt.Errorf("invalid manifest %s: %w", manifestPath, err)
			return ext
		}
		ext.Manifest = manifest
		ext.ID = manifest.Identifier()
		return ext
	}

	ext.Error = fmt.Errorf("%s: %w", path, ErrNoEntryPoint)
	return ext
}

// Get returns a discovered extension by id.
func (l *Loader) Get(id string) (*Extension, bool) {
	ext, ok := l.discovered[CanonicalID(id)]
	return ext, ok
}

// Errors returns the discovered extensions that could not be used.
func (l *Loader) Errors() []*Extension {
	var errored []*Extension
	for _, ext := range l.discovered {
		if ext.Error != nil {
			errored = append(errored, ext)
		}
	}
	sort.Slice(errored, func(i, j int) bool {
		return errored[i].ID < errored[j].ID
	})
	return errored
}

// LoadInto discovers extensions, builds a plugin for each valid one with
// factory and registers it with m. It returns the ids that were registered.
// Per-extension failures are logged, recorded on the Extension, and joined
// into the returned error; they do not stop the remaining extensions.
func (l *Loader) LoadInto(m *Manager, factory Factory) ([]string, error) {
	found, err := l.Discover()
	var errs []error
	if err != nil {
		errs = append(errs, err)
	}

	var registered []string
	for _, ext := range found {
		if ext.Error != nil {
			l.logger.Warn("skipping extension %s: %v", ext.Path, ext.Error)
			errs = append(errs, ext.Error)
			continue
		}

		p, err := factory(ext.Manifest)
		if err != nil {
			ext.Error = fmt.Errorf("build extension %s: %w", ext.ID, err)
			l.logger.Warn("%v", ext.Error)
			errs = append(errs, ext.Error)
			continue
		}

		if err := m.Register(p, ext.Manifest); err != nil {
			ext.Error = err
			errs = append(errs, err)
			continue
		}
		registered = append(registered, p.Manifest().ID)
	}

	return registered, errors.Join(errs...)
}
