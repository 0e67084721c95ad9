package cli

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/clusterops/placehook/common/stats"
	"github.com/clusterops/placehook/hook"
)

type submitCmd struct {
	input string
}

func (c *submitCmd) registerFlags() *cobra.Command {
	r := &cobra.Command{
		Use:   "submit",
		Short: "handle one queuejob event read from stdin, reply on stdout",
	}
	r.Flags().StringVar(&c.input, "input", "", "read the event from this file instead of stdin")
	return r
}

func (c *submitCmd) run(cl *hookCLI, cmd *cobra.Command, args []string) error {
	in := io.Reader(os.Stdin)
	if c.input != "" {
		f, err := os.Open(c.input)
		if err != nil {
			return errors.Wrap(err, "opening event input")
		}
		defer f.Close()
		in = f
	}
	return handleSubmit(in, os.Stdout)
}

// handleSubmit decides one event end to end. A reply is always written
// when the event decodes; only an undecodable event errors out, which
// the shim reports through the host's hook failure protocol.
func handleSubmit(in io.Reader, out io.Writer) error {
	req, err := hook.DecodeQueueJobRequest(in)
	if err != nil {
		return err
	}
	submitter := hook.NewSubmitter(stats.NilStatsReceiver())
	result := submitter.HandleQueueJob(req.Job)
	return hook.WriteQueueJobResponse(out, hook.BuildQueueJobResponse(result, req.Job))
}
