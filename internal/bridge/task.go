package bridge

// task is a handle on a pump goroutine. The bridge may wait for it or
// abandon it; an abandoned task keeps running until its blocking read
// returns, which at worst is process exit.
type task struct {
	done chan struct{}
	err  error
}

func startTask(fn func() error) *task {
	t := &task{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		t.err = fn()
	}()
	return t
}

// Done returns a channel closed when the task has returned.
func (t *task) Done() <-chan struct{} {
	return t.done
}

// Err returns the task's error, or nil while it is still running.
func (t *task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}
