package pty

import (
	"fmt"
	"os/exec"
	"strings"
)

// MaxDimension is the largest column or row count a terminal can carry.
const MaxDimension = 65535

// Size is a terminal size in character cells.
type Size struct {
	Cols int
	Rows int
}

// DefaultSize is used when no better size is known.
var DefaultSize = Size{Cols: 80, Rows: 25}

// Validate reports whether both dimensions fit a terminal.
func (s Size) Validate() error {
	if s.Cols < 1 || s.Cols > MaxDimension || s.Rows < 1 || s.Rows > MaxDimension {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, s.Cols, s.Rows)
	}
	return nil
}

// Command is a program to launch with its ordered arguments.
type Command struct {
	// Path is the program to execute. It is resolved through PATH when it
	// contains no separator.
	Path string

	// Args are the arguments, not including the program itself.
	Args []string

	// Env replaces the environment of the child when non-nil.
	Env []string

	// Dir is the working directory of the child; empty means inherit.
	Dir string
}

// String renders the command line for diagnostics.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, quoteArg(c.Path))
	for _, a := range c.Args {
		parts = append(parts, quoteArg(a))
	}
	return strings.Join(parts, " ")
}

func quoteArg(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\"'") {
		return fmt.Sprintf("%q", s)
	}
	return s
}

// execCmd builds the exec.Cmd for c. Standard streams are left unset so the
// caller binds them explicitly and the child never inherits ours.
func (c Command) execCmd() *exec.Cmd {
	cmd := exec.Command(c.Path, c.Args...)
	if c.Env != nil {
		cmd.Env = c.Env
	}
	cmd.Dir = c.Dir
	return cmd
}

// Mode selects how the child is attached.
type Mode int

const (
	// ModeNative attaches the child to an OS pseudoterminal.
	ModeNative Mode = iota
	// ModeBypass attaches the child to plain pipes and emulates terminal
	// behavior through the printable-ASCII protocol.
	ModeBypass
	// ModePipe attaches the child to plain pipes with no emulation.
	ModePipe
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeNative:
		return "native"
	case ModeBypass:
		return "bypass"
	case ModePipe:
		return "pipe"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// ParseMode parses a mode name as produced by Mode.String.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "native", "":
		return ModeNative, nil
	case "bypass":
		return ModeBypass, nil
	case "pipe":
		return ModePipe, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// Channel is a spawned child process together with its two byte pipes.
type Channel interface {
	// Send writes p to the child's input and returns how many bytes of p
	// were delivered. A short count comes with a non-nil error.
	Send(p []byte) (int, error)

	// Receive blocks until the child produces output. It returns 0 and a
	// non-nil error once the output pipe is closed or the child is gone.
	Receive(p []byte) (int, error)

	// Resize notifies the child of new terminal dimensions.
	Resize(cols, rows int) error

	// Terminate requests immediate death of the child. It does not wait
	// and returns nil if the child has already exited.
	Terminate() error

	// Wait blocks until the child exits and returns its exit code.
	// It may be called more than once; every call returns the same code.
	Wait() (int, error)

	// Close terminates the child if still alive and releases the pipes
	// and process handle. Safe to call multiple times.
	Close() error
}

// Spawn starts cmd attached in the given mode. Native pseudoterminals start
// at size; the pipe modes ignore it. Spawn either returns a usable channel
// or a *SpawnError with every partial allocation released.
func Spawn(cmd Command, mode Mode, size Size) (Channel, error) {
	if cmd.Path == "" {
		return nil, &SpawnError{Command: cmd, Err: ErrEmptyCommand}
	}
	switch mode {
	case ModeNative:
		if err := size.Validate(); err != nil {
			return nil, &SpawnError{Command: cmd, Err: err}
		}
		return spawnNative(cmd, size)
	case ModeBypass:
		return spawnPipes(cmd, true)
	case ModePipe:
		return spawnPipes(cmd, false)
	default:
		return nil, &SpawnError{Command: cmd, Err: fmt.Errorf("%w: %s", ErrInvalidMode, mode)}
	}
}
