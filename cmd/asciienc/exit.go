package main

import (
	"errors"
	"fmt"
)

// exitCode carries the child's exit status out of cobra's RunE. It is not
// a failure and is never printed.
type exitCode int

func (e exitCode) Error() string {
	return fmt.Sprintf("exit status %d", int(e))
}

// isExitCode reports whether err is a child exit status.
func isExitCode(err error) (int, bool) {
	var code exitCode
	if errors.As(err, &code) {
		return int(code), true
	}
	return 0, false
}
