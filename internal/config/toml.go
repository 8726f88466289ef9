package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// loadTOML reads a TOML file and flattens it to dotted keys. A missing file
// yields an empty map.
func loadTOML(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	return parseTOML(path, data)
}

// parseTOML parses TOML data and flattens it to dotted keys.
func parseTOML(source string, data []byte) (map[string]any, error) {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		perr := &ParseError{Path: source, Message: err.Error(), Err: err}
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			perr.Line, perr.Column = decodeErr.Position()
		}
		return nil, perr
	}

	flat := make(map[string]any)
	flatten("", doc, flat)
	return flat, nil
}

// flatten copies nested tables into dst under dotted keys. Arrays are kept
// as values.
func flatten(prefix string, src map[string]any, dst map[string]any) {
	for key, val := range src {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if nested, ok := val.(map[string]any); ok {
			flatten(path, nested, dst)
			continue
		}
		dst[path] = val
	}
}

// unflatten rebuilds nested tables from dotted keys.
func unflatten(flat map[string]any) map[string]any {
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	doc := make(map[string]any)
	for _, k := range keys {
		setByPath(doc, k, flat[k])
	}
	return doc
}

// setByPath sets a value in a nested map using a dot-separated path.
func setByPath(data map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	current := data

	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}

	current[parts[len(parts)-1]] = value
}

// encodeTOML renders flattened settings as a TOML document.
func encodeTOML(flat map[string]any) ([]byte, error) {
	data, err := toml.Marshal(unflatten(flat))
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return data, nil
}
