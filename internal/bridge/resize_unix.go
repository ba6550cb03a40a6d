//go:build !windows

package bridge

import (
	"context"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

func watchResize(ctx context.Context, handle func()) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, unix.SIGWINCH)
	defer signal.Stop(sigs)

	for {
		select {
		case <-ctx.Done():
			return
		case <-sigs:
			handle()
		}
	}
}
