//go:build windows

package pty

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"syscall"

	"github.com/UserExistsError/conpty"
)

// nativeChannel is a child attached to a Windows pseudo console.
type nativeChannel struct {
	cpty    *conpty.ConPty
	process *os.Process

	waitOnce    sync.Once
	exitCode    int
	exitErr     error
	consoleOnce sync.Once
	consoleErr  error
	closeOnce   sync.Once
}

func spawnNative(c Command, size Size) (Channel, error) {
	opts := []conpty.ConPtyOption{
		conpty.ConPtyDimensions(size.Cols, size.Rows),
	}
	if c.Dir != "" {
		opts = append(opts, conpty.ConPtyWorkDir(c.Dir))
	}
	if c.Env != nil {
		opts = append(opts, conpty.ConPtyEnv(c.Env))
	}

	cpty, err := conpty.Start(commandLine(c), opts...)
	if err != nil {
		return nil, &SpawnError{Command: c, Err: err}
	}

	proc, err := os.FindProcess(int(cpty.Pid()))
	if err != nil {
		_ = cpty.Close()
		return nil, &SpawnError{Command: c, Err: fmt.Errorf("find process %d: %w", cpty.Pid(), err)}
	}

	n := &nativeChannel{cpty: cpty, process: proc}
	// The output pipe of a pseudo console does not report end of stream
	// when the child exits; closing the console does.
	go func() {
		_, _ = n.Wait()
		_ = n.closeConsole()
	}()
	return n, nil
}

func commandLine(c Command) string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, syscall.EscapeArg(c.Path))
	for _, a := range c.Args {
		parts = append(parts, syscall.EscapeArg(a))
	}
	return strings.Join(parts, " ")
}

func (n *nativeChannel) Send(p []byte) (int, error) {
	return n.cpty.Write(p)
}

func (n *nativeChannel) Receive(p []byte) (int, error) {
	return n.cpty.Read(p)
}

func (n *nativeChannel) Resize(cols, rows int) error {
	if err := (Size{Cols: cols, Rows: rows}).Validate(); err != nil {
		return err
	}
	return n.cpty.Resize(cols, rows)
}

func (n *nativeChannel) Terminate() error {
	err := n.process.Kill()
	if err != nil && errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

func (n *nativeChannel) Wait() (int, error) {
	n.waitOnce.Do(func() {
		code, err := n.cpty.Wait(context.Background())
		n.exitCode, n.exitErr = int(code), err
	})
	return n.exitCode, n.exitErr
}

func (n *nativeChannel) Close() error {
	var err error
	n.closeOnce.Do(func() {
		err = n.Terminate()
		if cerr := n.closeConsole(); err == nil {
			err = cerr
		}
		_ = n.process.Release()
	})
	return err
}

func (n *nativeChannel) closeConsole() error {
	n.consoleOnce.Do(func() {
		n.consoleErr = n.cpty.Close()
	})
	return n.consoleErr
}
