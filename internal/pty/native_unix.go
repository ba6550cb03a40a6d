//go:build !windows

package pty

import (
	"os"
	"sync"

	creack "github.com/creack/pty"
)

// nativeChannel is a child attached to a Unix pseudoterminal. The master
// side carries both directions.
type nativeChannel struct {
	proc   *execProcess
	master *os.File

	closeOnce sync.Once
}

func spawnNative(c Command, size Size) (Channel, error) {
	cmd := c.execCmd()

	// StartWithSize makes the child a session leader with the slave as its
	// controlling terminal, and closes the slave in this process.
	master, err := creack.StartWithSize(cmd, winsize(size))
	if err != nil {
		return nil, &SpawnError{Command: c, Err: err}
	}

	return &nativeChannel{
		proc:   newExecProcess(cmd),
		master: master,
	}, nil
}

func winsize(s Size) *creack.Winsize {
	return &creack.Winsize{Cols: uint16(s.Cols), Rows: uint16(s.Rows)}
}

func (n *nativeChannel) Send(p []byte) (int, error) {
	return n.master.Write(p)
}

func (n *nativeChannel) Receive(p []byte) (int, error) {
	// Linux reports EIO once the slave side is gone; the caller treats any
	// error as end of stream.
	return n.master.Read(p)
}

func (n *nativeChannel) Resize(cols, rows int) error {
	size := Size{Cols: cols, Rows: rows}
	if err := size.Validate(); err != nil {
		return err
	}
	return creack.Setsize(n.master, winsize(size))
}

func (n *nativeChannel) Terminate() error {
	return n.proc.terminate()
}

func (n *nativeChannel) Wait() (int, error) {
	return n.proc.wait()
}

func (n *nativeChannel) Close() error {
	var err error
	n.closeOnce.Do(func() {
		err = n.proc.terminate()
		n.master.Close()
	})
	return err
}
