package process

import (
	"context"
	"sync"
)

// ExitStatus is a settle-once exit code. The first Settle wins; every
// reader observes that value after Done is closed.
type ExitStatus struct {
	once sync.Once
	done chan struct{}
	code int
}

// NewExitStatus returns an unsettled ExitStatus.
func NewExitStatus() *ExitStatus {
	return &ExitStatus{done: make(chan struct{})}
}

// Settle records code and releases all waiters. It reports whether this
// call settled the status; later calls change nothing.
func (e *ExitStatus) Settle(code int) bool {
	settled := false
	e.once.Do(func() {
		e.code = code
		close(e.done)
		settled = true
	})
	return settled
}

// Done returns a channel closed once the status is settled.
func (e *ExitStatus) Done() <-chan struct{} {
	return e.done
}

// Wait blocks until the status is settled and returns the code.
func (e *ExitStatus) Wait() int {
	<-e.done
	return e.code
}

// WaitContext is Wait bounded by ctx.
func (e *ExitStatus) WaitContext(ctx context.Context) (int, error) {
	select {
	case <-e.done:
		return e.code, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Peek returns the code and true if the status is settled.
func (e *ExitStatus) Peek() (int, bool) {
	select {
	case <-e.done:
		return e.code, true
	default:
		return 0, false
	}
}
