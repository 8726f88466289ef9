// Package config provides the MarkAmp settings store.
//
// Settings are addressed by dotted keys such as "logging.level". Values are
// resolved from, in order of precedence:
//
//  1. Values set at runtime with Set
//  2. Environment variables with the MARKAMP_ prefix
//  3. The TOML settings file
//  4. Built-in defaults
//
// # Usage
//
//	store, err := config.Load(config.DefaultPath())
//	if err != nil {
//	    return err
//	}
//	level := store.GetString("logging.level")
//	tick := store.GetDuration("app.tick", 16*time.Millisecond)
//
// # Environment
//
// MARKAMP_LOG_LEVEL maps to logging.level. Other MARKAMP_ variables map
// their first segment to a section and the rest to a snake_case key, so
// MARKAMP_EDITOR_TAB_SIZE becomes editor.tab_size.
//
// # Live reload
//
// Watcher reloads the store when the settings file changes and queues an
// events.ConfigChanged on the bus listing the keys whose values changed.
package config
