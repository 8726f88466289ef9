package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/markamp/markamp/internal/logging"
)

// LoggerConfig configures the application logger.
type LoggerConfig struct {
	// Level is the minimum level name: debug, info, warn or error.
	Level string
	// File is a log file path. Empty logs to Output.
	File string
	// Output is used when File is empty. Defaults to os.Stderr.
	Output io.Writer
}

// NewLogger builds the root logger. The returned close function releases
// the log file, if one was opened.
func NewLogger(cfg LoggerConfig) (*logging.StdLogger, func() error, error) {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	closer := func() error { return nil }

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		out = f
		closer = f.Close
	}

	if cfg.Level != "" && !logging.ValidLevel(cfg.Level) {
		fmt.Fprintf(out, "unknown log level %q, using info\n", cfg.Level)
	}

	logger := logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.Level),
		Output: out,
		Prefix: "markamp",
	})
	return logger, closer, nil
}
