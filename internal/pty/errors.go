package pty

import (
	"errors"
	"fmt"
)

// Sentinel errors for the pty package.
var (
	// ErrInvalidSize is returned when a terminal size is outside 1..65535.
	ErrInvalidSize = errors.New("invalid terminal size")

	// ErrInvalidMode is returned when a mode name cannot be parsed.
	ErrInvalidMode = errors.New("invalid pty mode")

	// ErrEmptyCommand is returned when a command has no program path.
	ErrEmptyCommand = errors.New("empty command")

	// ErrChannelClosed is returned by operations on a closed channel.
	ErrChannelClosed = errors.New("channel is closed")
)

// SpawnError reports that a command could not be started. No OS resources
// remain allocated when it is returned.
type SpawnError struct {
	Command Command
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("unable to start %s: %v", e.Command, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}
