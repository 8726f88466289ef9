package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultEnvPrefix is the prefix of environment variables read by the store.
const DefaultEnvPrefix = "MARKAMP_"

// EnvLoader loads settings from environment variables.
type EnvLoader struct {
	prefix  string            // Environment variable prefix (e.g., "MARKAMP_")
	mapping map[string]string // Env var -> setting key
}

// NewEnvLoader creates a new environment variable loader.
// The prefix should include the trailing underscore (e.g., "MARKAMP_").
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		mapping: defaultEnvMapping(prefix),
	}
}

// defaultEnvMapping returns the variables whose keys don't follow the
// section_key rule.
func defaultEnvMapping(prefix string) map[string]string {
	return map[string]string{
		prefix + "LOG_LEVEL":    "logging.level",
		prefix + "LOG_FILE":     "logging.file",
		prefix + "PLUGINS_DIR":  "plugins.paths",
		prefix + "METRICS_ADDR": "metrics.addr",
	}
}

// AddMapping adds a custom environment variable mapping.
func (l *EnvLoader) AddMapping(envVar, key string) {
	l.mapping[envVar] = key
}

// Load reads the prefixed environment variables and returns flattened
// settings.
// Note: Empty string values are treated as valid values, not as unset.
func (l *EnvLoader) Load() map[string]any {
	settings := make(map[string]any)

	for _, env := range os.Environ() {
		name, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(name, l.prefix) {
			continue
		}

		key, mapped := l.mapping[name]
		if !mapped {
			key = l.envToKey(name)
		}
		if key == "" {
			continue
		}

		if key == "plugins.paths" {
			settings[key] = splitList(value)
			continue
		}
		settings[key] = parseValue(value)
	}

	return settings
}

// envToKey converts MARKAMP_EDITOR_TAB_SIZE to editor.tab_size.
func (l *EnvLoader) envToKey(env string) string {
	name := strings.ToLower(strings.TrimPrefix(env, l.prefix))
	section, rest, ok := strings.Cut(name, "_")
	if !ok || section == "" || rest == "" {
		return name
	}
	return section + "." + rest
}

// splitList splits a path list on the OS list separator.
func splitList(s string) []any {
	var out []any
	for _, p := range strings.Split(s, string(os.PathListSeparator)) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseValue converts a command line or environment string to a bool,
// integer, float, duration, JSON value or string.
func ParseValue(s string) any {
	return parseValue(s)
}

// parseValue attempts to parse the string value into an appropriate type.
func parseValue(s string) any {
	if s == "" {
		return s
	}

	switch strings.ToLower(s) {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}

	// Only if it contains a decimal point to avoid misinterpreting ints
	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}

	if d, err := time.ParseDuration(s); err == nil {
		return d
	}

	if strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{") {
		var v any
		if err := json.Unmarshal([]byte(s), &v); err == nil {
			return v
		}
	}

	return s
}
