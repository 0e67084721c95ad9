package execers

import (
	"context"
	"sync"

	"github.com/clusterops/placehook/execer"
)

// Creates a new scriptedExecer with nothing queued; bare Runs complete
// with exit code 0.
func NewScriptedExecer() *ScriptedExecer {
	return &ScriptedExecer{}
}

// ScriptedExecer replays queued results in order and records every
// command it was asked to run, so tests can fake q* binaries without
// touching the OS.
type ScriptedExecer struct {
	mu    sync.Mutex
	steps []step
	cmds  []execer.Command
}

type step struct {
	result execer.Result
	err    error
}

// WillReturn queues result for the next otherwise-unscripted Run.
func (e *ScriptedExecer) WillReturn(result execer.Result) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.steps = append(e.steps, step{result: result})
}

// WillError makes the next otherwise-unscripted Run fail to start.
func (e *ScriptedExecer) WillError(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.steps = append(e.steps, step{err: err})
}

func (e *ScriptedExecer) Run(ctx context.Context, command execer.Command) (execer.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cmds = append(e.cmds, command)
	if len(e.steps) == 0 {
		return execer.Result{State: execer.COMPLETE}, nil
	}
	next := e.steps[0]
	e.steps = e.steps[1:]
	return next.result, next.err
}

// Commands returns a copy of everything run so far, in order.
func (e *ScriptedExecer) Commands() []execer.Command {
	e.mu.Lock()
	defer e.mu.Unlock()
	cmds := make([]execer.Command, len(e.cmds))
	copy(cmds, e.cmds)
	return cmds
}
