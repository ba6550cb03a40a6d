package bridge

import (
	"context"
	"os"

	"golang.org/x/term"
)

// TerminalSize returns a SizeFunc reading the size of the terminal behind f.
func TerminalSize(f *os.File) SizeFunc {
	return func() (int, int, error) {
		return term.GetSize(int(f.Fd()))
	}
}

// WatchResize forwards host resize notifications to the active bridge until
// ctx is done. A failed size query cannot be recovered from: it is reported
// through the active bridge's error handler and the child is terminated.
func WatchResize(ctx context.Context) {
	watchResize(ctx, func() {
		b := Active()
		if b == nil {
			return
		}
		if err := b.HandleResize(); err != nil {
			b.fail(err)
			_ = b.proc.Terminate()
		}
	})
}
