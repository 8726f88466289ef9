package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrAlreadyRunning indicates Run was called while the application is running.
	ErrAlreadyRunning = errors.New("application already running")

	// ErrCommandNotFound indicates a palette entry does not exist.
	ErrCommandNotFound = errors.New("command not found")

	// ErrNoFilePath indicates OpenFile was called with an empty path.
	ErrNoFilePath = errors.New("no file path")
)

// InitError reports a component that failed to start.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("init %s: %v", e.Component, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// FileError reports a failed file operation.
type FileError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
