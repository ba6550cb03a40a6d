package process

import "fmt"

// State represents the lifecycle state of a supervised child.
type State int

const (
	// StateSpawning is only seen while the channel is being created.
	StateSpawning State = iota
	// StateRunning indicates the child has not been observed to exit.
	StateRunning
	// StateTerminated indicates the monitor observed the child's death.
	StateTerminated
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateSpawning:
		return "spawning"
	case StateRunning:
		return "running"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}
