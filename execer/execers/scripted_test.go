package execers

import (
	"context"
	"errors"
	"testing"

	"github.com/clusterops/placehook/execer"
)

func TestScriptedReplay(t *testing.T) {
	ex := NewScriptedExecer()
	ex.WillReturn(execer.Result{State: execer.COMPLETE, ExitCode: 2, Stderr: "boom"})
	ex.WillError(errors.New("not today"))

	result, err := ex.Run(context.Background(), execer.Command{Argv: []string{"qstat"}})
	if err != nil {
		t.Fatalf("first run errored: %v", err)
	}
	if result.ExitCode != 2 || result.Stderr != "boom" {
		t.Errorf("first run got %v stderr %q", result, result.Stderr)
	}

	if _, err := ex.Run(context.Background(), execer.Command{Argv: []string{"qrls"}}); err == nil {
		t.Fatalf("second run should have failed to start")
	}

	// With the script drained, runs complete cleanly.
	result, err = ex.Run(context.Background(), execer.Command{Argv: []string{"qselect"}})
	if err != nil || result.State != execer.COMPLETE || result.ExitCode != 0 {
		t.Fatalf("drained run got (%v, %v)", result, err)
	}

	cmds := ex.Commands()
	if len(cmds) != 3 {
		t.Fatalf("recorded %d commands; expected 3", len(cmds))
	}
	if cmds[0].Argv[0] != "qstat" || cmds[1].Argv[0] != "qrls" || cmds[2].Argv[0] != "qselect" {
		t.Errorf("recorded commands out of order: %v", cmds)
	}
}
