package bridge

import "errors"

// Sentinel errors for the bridge package.
var (
	// ErrBridgeActive is returned by Run when another bridge is active in
	// this process.
	ErrBridgeActive = errors.New("another bridge is active")

	// ErrNoActiveBridge is returned by NotifyResize when no bridge is running.
	ErrNoActiveBridge = errors.New("no active bridge")

	// ErrNoSizeSource is returned by HandleResize when the bridge has no
	// way to query the outer terminal size.
	ErrNoSizeSource = errors.New("no terminal size source")
)
