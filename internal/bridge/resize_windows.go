//go:build windows

package bridge

import (
	"context"
	"time"
)

// resizePollInterval is how often the console size is sampled; Windows
// has no resize signal.
const resizePollInterval = 250 * time.Millisecond

func watchResize(ctx context.Context, handle func()) {
	ticker := time.NewTicker(resizePollInterval)
	defer ticker.Stop()

	var lastCols, lastRows int
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b := Active()
			if b == nil || b.size == nil {
				continue
			}
			cols, rows, err := b.size()
			if err == nil && cols == lastCols && rows == lastRows {
				continue
			}
			lastCols, lastRows = cols, rows
			handle()
		}
	}
}
