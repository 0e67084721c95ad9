package os

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/clusterops/placehook/common/stats"
	"github.com/clusterops/placehook/execer"
)

// Implements execer.Execer on top of os/exec.
type osExecer struct {
	stat stats.StatsReceiver
}

func NewExecer(stat stats.StatsReceiver) execer.Execer {
	if stat == nil {
		stat = stats.NilStatsReceiver()
	}
	return &osExecer{stat: stat}
}

// Run starts the command in its own process group, copies its output,
// and waits for it or for ctx, whichever finishes first. On ctx expiry
// the whole group is killed so q* children can't outlive the hook.
func (e *osExecer) Run(ctx context.Context, command execer.Command) (execer.Result, error) {
	if len(command.Argv) == 0 {
		return execer.Result{}, fmt.Errorf("no command specified")
	}
	defer e.stat.Latency(stats.CmdRunLatency_ms).Time().Stop()
	e.stat.Counter(stats.CmdRunsCounter).Inc(1)

	cmd := exec.Command(command.Argv[0], command.Argv[1:]...)
	cmd.Dir = command.Dir

	// Use the parent environment plus whatever additional env vars are provided.
	cmd.Env = os.Environ()
	for k, v := range command.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	// Sets pgid of all child processes to cmd's pid
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	// Use pipes due to possible hang in process.Wait().
	// See: https://github.com/noxiouz/stout/commit/42cc533a0bece540f2424faff2a960876b21ffd2
	stdErrPipe, err := cmd.StderrPipe()
	if err != nil {
		return execer.Result{}, err
	}
	stdOutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return execer.Result{}, err
	}
	var stdout, stderr bytes.Buffer
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		io.Copy(&stderr, stdErrPipe)
	}()
	go func() {
		defer wg.Done()
		io.Copy(&stdout, stdOutPipe)
	}()

	if err := cmd.Start(); err != nil {
		return execer.Result{}, err
	}
	pid := cmd.Process.Pid
	pgid, pgidErr := syscall.Getpgid(pid)
	if pgidErr != nil {
		log.WithFields(log.Fields{"pid": pid, "error": pgidErr}).Error("Error finding pgid")
	}

	done := make(chan error, 1)
	go func() {
		// Wait for the output goroutines to finish, then reap the process.
		wg.Wait()
		done <- cmd.Wait()
	}()

	select {
	case <-ctx.Done():
		if pgidErr == nil {
			cleanupProcs(pgid)
		} else {
			cmd.Process.Kill()
		}
		<-done
		e.stat.Counter(stats.CmdTimeoutsCounter).Inc(1)
		return execer.Result{
			State:    execer.TIMEDOUT,
			ExitCode: -1,
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			Error:    ctx.Err().Error(),
		}, nil
	case err := <-done:
		return e.resolve(err, stdout.String(), stderr.String()), nil
	}
}

// If the command finished without error, return COMPLETE and exit code 0.
// If it failed and the exit code is recoverable, return COMPLETE with that code.
// If the exit code can't be recovered, return FAILED with the blocking error.
func (e *osExecer) resolve(err error, stdout, stderr string) execer.Result {
	result := execer.Result{Stdout: stdout, Stderr: stderr}
	if err == nil {
		result.State = execer.COMPLETE
		return result
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			result.State = execer.COMPLETE
			result.ExitCode = status.ExitStatus()
			return result
		}
		e.stat.Counter(stats.CmdFailuresCounter).Inc(1)
		result.State = execer.FAILED
		result.Error = "could not find WaitStatus from exiterr.Sys()"
		return result
	}
	e.stat.Counter(stats.CmdFailuresCounter).Inc(1)
	result.State = execer.FAILED
	result.Error = err.Error()
	return result
}

// Kill process along with all child processes, assuming no child processes called setpgid
func cleanupProcs(pgid int) (err error) {
	log.WithFields(log.Fields{"pgid": pgid}).Info("Cleaning up pgid")
	if err = syscall.Kill(-pgid, syscall.SIGKILL); err != nil {
		log.WithFields(log.Fields{"pgid": pgid, "error": err}).Error("Error cleaning up pgid")
	}
	return err
}
