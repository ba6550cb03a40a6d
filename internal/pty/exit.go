package pty

import (
	"errors"
	"os"
	"os/exec"
	"sync"
	"syscall"
)

// execProcess tracks an exec.Cmd that has been started. Wait on the command
// is performed exactly once; later callers share the result.
type execProcess struct {
	cmd *exec.Cmd

	waitOnce sync.Once
	exitCode int
	exitErr  error
}

func newExecProcess(cmd *exec.Cmd) *execProcess {
	return &execProcess{cmd: cmd}
}

func (p *execProcess) wait() (int, error) {
	p.waitOnce.Do(func() {
		p.exitCode, p.exitErr = exitCodeOf(p.cmd.Wait())
	})
	return p.exitCode, p.exitErr
}

func (p *execProcess) terminate() error {
	if p.cmd.Process == nil {
		return nil
	}
	err := p.cmd.Process.Kill()
	if err != nil && errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

// exitCodeOf converts the result of exec.Cmd.Wait into an exit code.
// Death by signal is reported the way shells do, as 128 + signal number.
func exitCodeOf(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			return 128 + int(status.Signal()), nil
		}
		return exitErr.ExitCode(), nil
	}
	return -1, err
}
