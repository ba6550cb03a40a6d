package process

import "errors"

// Sentinel errors for the process package.
var (
	// ErrRecordingActive is returned by RecordInput while a recording is open.
	ErrRecordingActive = errors.New("recording already active")

	// ErrNotRecording is returned by RecordStop without an open recording.
	ErrNotRecording = errors.New("recording not active")

	// ErrRecordingLocked is returned when another process holds the
	// recording file.
	ErrRecordingLocked = errors.New("recording file is locked")
)
