package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/markamp/markamp/internal/logging"
)

// Store holds MarkAmp settings under dotted keys. It is safe for concurrent
// use and implements plugin.SettingsStore.
type Store struct {
	mu sync.RWMutex

	path string
	env  *EnvLoader

	// Layers, lowest precedence first
	defaults map[string]any
	file     map[string]any
	environ  map[string]any
	set      map[string]any

	logger logging.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithDefaults replaces the built-in defaults.
func WithDefaults(defaults map[string]any) Option {
	return func(s *Store) {
		s.defaults = cloneMap(defaults)
	}
}

// WithEnvPrefix sets the environment variable prefix. An empty prefix
// disables the environment layer.
func WithEnvPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix == "" {
			s.env = nil
			return
		}
		s.env = NewEnvLoader(prefix)
	}
}

// WithLogger sets the store logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// DefaultSettings returns the built-in defaults.
func DefaultSettings() map[string]any {
	return map[string]any{
		"logging.level":            "info",
		"logging.file":             "",
		"app.tick":                 "16ms",
		"metrics.addr":             "",
		"plugins.paths":            []any{},
		"plugins.lua_timeout":      "5s",
		"plugins.lua_capabilities": []any{},
		"config.debounce":          "100ms",
	}
}

// DefaultPath returns the default settings file path,
// ~/.config/markamp/config.toml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".markamp", "config.toml")
	}
	return filepath.Join(dir, "markamp", "config.toml")
}

// New creates a store backed by the TOML file at path. Nothing is read until
// Reload is called; an empty path gives a store without a file layer.
func New(path string, opts ...Option) *Store {
	s := &Store{
		path:     path,
		env:      NewEnvLoader(DefaultEnvPrefix),
		defaults: DefaultSettings(),
		file:     make(map[string]any),
		environ:  make(map[string]any),
		set:      make(map[string]any),
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent("config")
	return s
}

// Load creates a store and reads the file and environment layers.
func Load(path string, opts ...Option) (*Store, error) {
	s := New(path, opts...)
	if _, err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the settings file path.
func (s *Store) Path() string {
	return s.path
}

// Reload re-reads the file and environment layers and returns the sorted
// keys whose effective values changed. On a parse error the previous values
// are kept.
func (s *Store) Reload() ([]string, error) {
	file := map[string]any{}
	if s.path != "" {
		var err error
		file, err = loadTOML(s.path)
		if err != nil {
			return nil, err
		}
	}

	environ := map[string]any{}
	if s.env != nil {
		environ = s.env.Load()
	}

	s.mu.Lock()
	before := s.effectiveLocked()
	s.file = file
	s.environ = environ
	after := s.effectiveLocked()
	s.mu.Unlock()

	changed := diffKeys(before, after)
	if len(changed) > 0 {
		s.logger.Debug("reloaded %s, changed: %s", s.path, strings.Join(changed, ", "))
	}
	return changed, nil
}

// Get returns the effective value of key.
func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getLocked(key)
}

func (s *Store) getLocked(key string) (any, bool) {
	for _, layer := range []map[string]any{s.set, s.environ, s.file, s.defaults} {
		if v, ok := layer[key]; ok {
			return v, true
		}
	}
	return nil, false
}

// Has reports whether key has a value in any layer.
func (s *Store) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// GetString returns the value of key formatted as a string, or "" if unset.
func (s *Store) GetString(key string) string {
	v, ok := s.Get(key)
	if !ok || v == nil {
		return ""
	}
	return formatValue(v)
}

// GetStringOr returns the value of key as a string, or def if unset or empty.
func (s *Store) GetStringOr(key, def string) string {
	if v := s.GetString(key); v != "" {
		return v
	}
	return def
}

// Int returns the value of key as an int.
func (s *Store) Int(key string) (int, error) {
	v, ok := s.Get(key)
	if !ok {
		return 0, fmt.Errorf("%s: %w", key, ErrSettingNotFound)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n == math.Trunc(n) {
			return int(n), nil
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i, nil
		}
	}
	return 0, &TypeError{Key: key, Expected: "int", Actual: typeName(v)}
}

// GetInt returns the value of key as an int, or def if unset or not an int.
func (s *Store) GetInt(key string, def int) int {
	n, err := s.Int(key)
	if err != nil {
		return def
	}
	return n
}

// Bool returns the value of key as a bool.
func (s *Store) Bool(key string) (bool, error) {
	v, ok := s.Get(key)
	if !ok {
		return false, fmt.Errorf("%s: %w", key, ErrSettingNotFound)
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		if parsed, err := strconv.ParseBool(strings.TrimSpace(b)); err == nil {
			return parsed, nil
		}
	}
	return false, &TypeError{Key: key, Expected: "bool", Actual: typeName(v)}
}

// GetBool returns the value of key as a bool, or def if unset or not a bool.
func (s *Store) GetBool(key string, def bool) bool {
	b, err := s.Bool(key)
	if err != nil {
		return def
	}
	return b
}

// Float returns the value of key as a float64.
func (s *Store) Float(key string) (float64, error) {
	v, ok := s.Get(key)
	if !ok {
		return 0, fmt.Errorf("%s: %w", key, ErrSettingNotFound)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f, nil
		}
	}
	return 0, &TypeError{Key: key, Expected: "float", Actual: typeName(v)}
}

// GetFloat returns the value of key as a float64, or def if unset or not a
// number.
func (s *Store) GetFloat(key string, def float64) float64 {
	f, err := s.Float(key)
	if err != nil {
		return def
	}
	return f
}

// Duration returns the value of key as a time.Duration. Strings use
// time.ParseDuration syntax; integers are milliseconds.
func (s *Store) Duration(key string) (time.Duration, error) {
	v, ok := s.Get(key)
	if !ok {
		return 0, fmt.Errorf("%s: %w", key, ErrSettingNotFound)
	}
	switch d := v.(type) {
	case time.Duration:
		return d, nil
	case string:
		if parsed, err := time.ParseDuration(strings.TrimSpace(d)); err == nil {
			return parsed, nil
		}
	case int64:
		return time.Duration(d) * time.Millisecond, nil
	case int:
		return time.Duration(d) * time.Millisecond, nil
	}
	return 0, &TypeError{Key: key, Expected: "duration", Actual: typeName(v)}
}

// GetDuration returns the value of key as a time.Duration, or def if unset
// or not a duration.
func (s *Store) GetDuration(key string, def time.Duration) time.Duration {
	d, err := s.Duration(key)
	if err != nil {
		return def
	}
	return d
}

// GetStringSlice returns the value of key as a list of strings. A string
// value is split on commas.
func (s *Store) GetStringSlice(key string) []string {
	v, ok := s.Get(key)
	if !ok {
		return nil
	}
	switch list := v.(type) {
	case []string:
		return append([]string(nil), list...)
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			out = append(out, formatValue(item))
		}
		return out
	case string:
		var out []string
		for _, part := range strings.Split(list, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return []string{formatValue(v)}
}

// Set sets a runtime value for key. Runtime values take precedence over all
// other layers and are written by Save.
func (s *Store) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set[key] = value
}

// SetDefault adds value to the defaults layer unless key already has a
// default. It reports whether the default was added. Defaults have the lowest
// precedence and are never written by Save.
func (s *Store) SetDefault(key string, value any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.defaults[key]; ok {
		return false
	}
	s.defaults[key] = value
	return true
}

// Unset removes the runtime value for key.
func (s *Store) Unset(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.set, key)
}

// Keys returns every key with a value, sorted.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.effectiveLocked())
}

// Snapshot returns a copy of every effective value.
func (s *Store) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.effectiveLocked()
}

// Save writes the file layer merged with runtime values to the settings
// file. Environment values and defaults are not written.
func (s *Store) Save() error {
	if s.path == "" {
		return ErrNoPath
	}

	s.mu.Lock()
	merged := cloneMap(s.file)
	for k, v := range s.set {
		merged[k] = v
	}
	s.mu.Unlock()

	data, err := encodeTOML(merged)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	// Write to a temporary file and rename so watchers never see a partial file.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing config: %w", err)
	}

	s.mu.Lock()
	s.file = merged
	s.mu.Unlock()

	s.logger.Info("saved settings to %s", s.path)
	return nil
}

func (s *Store) effectiveLocked() map[string]any {
	out := cloneMap(s.defaults)
	for _, layer := range []map[string]any{s.file, s.environ, s.set} {
		for k, v := range layer {
			out[k] = v
		}
	}
	return out
}

func diffKeys(before, after map[string]any) []string {
	var changed []string
	for k, v := range after {
		if old, ok := before[k]; !ok || !reflect.DeepEqual(old, v) {
			changed = append(changed, k)
		}
	}
	for k := range before {
		if _, ok := after[k]; !ok {
			changed = append(changed, k)
		}
	}
	sort.Strings(changed)
	return changed
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case time.Duration:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}

func cloneMap(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
