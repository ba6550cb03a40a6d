package bridge

import "sync/atomic"

// active holds the running bridge. It is a reference for signal delivery
// only; the bridge's owner controls its lifetime.
var active atomic.Pointer[Bridge]

// Active returns the running bridge, or nil.
func Active() *Bridge {
	return active.Load()
}

func activate(b *Bridge) bool {
	return active.CompareAndSwap(nil, b)
}

func deactivate(b *Bridge) {
	active.CompareAndSwap(b, nil)
}

// NotifyResize applies the current outer terminal size to the active bridge.
func NotifyResize() error {
	b := Active()
	if b == nil {
		return ErrNoActiveBridge
	}
	return b.HandleResize()
}
