package execer

import (
	"context"
	"fmt"
	"strings"
)

// Execer runs one Unix command to completion. It does not know about
// queue hosts or jobs, it's just a way to run a process (or fake it).
// It's at the level of os/exec, not exec-as-a-service.

type Command struct {
	Argv []string
	Dir  string
	// Env is added on top of the parent environment.
	Env map[string]string
}

func (c Command) String() string {
	return strings.Join(c.Argv, " ")
}

type State int

const (
	UNKNOWN State = iota
	// COMPLETE means the process ran to its own exit, successful or not.
	COMPLETE
	// FAILED means we couldn't run it or couldn't recover its exit code.
	FAILED
	// TIMEDOUT means the context expired and the process group was killed.
	TIMEDOUT
)

func (s State) String() string {
	switch s {
	case COMPLETE:
		return "complete"
	case FAILED:
		return "failed"
	case TIMEDOUT:
		return "timedout"
	}
	return "unknown"
}

// Result is how one run ended. Stdout and Stderr hold whatever the
// process wrote before exiting (or before the group was killed).
type Result struct {
	State    State
	ExitCode int
	Stdout   string
	Stderr   string
	Error    string
}

func (r Result) String() string {
	return fmt.Sprintf("%s exit=%d", r.State, r.ExitCode)
}

type Execer interface {
	// Run blocks until the command finishes or ctx expires. The error
	// covers failures to start at all; everything after a successful
	// start is reported through the Result.
	Run(ctx context.Context, command Command) (Result, error)
}
