package cli

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/clusterops/placehook/common/endpoints"
	"github.com/clusterops/placehook/common/stats"
	osexec "github.com/clusterops/placehook/execer/os"
	"github.com/clusterops/placehook/hook"
	"github.com/clusterops/placehook/pbs"
)

type reconcileCmd struct {
	loop     bool
	interval time.Duration
	httpAddr string
}

func (c *reconcileCmd) registerFlags() *cobra.Command {
	r := &cobra.Command{
		Use:   "reconcile",
		Short: "sweep held jobs and release the ones that now normalize",
	}
	r.Flags().BoolVar(&c.loop, "loop", false, "keep sweeping every interval instead of running one cycle")
	r.Flags().DurationVar(&c.interval, "interval", 60*time.Second, "time between sweeps when looping")
	r.Flags().StringVar(&c.httpAddr, "http_addr", "localhost:9091", "address serving health and stats when looping")
	return r
}

func (c *reconcileCmd) run(cl *hookCLI, cmd *cobra.Command, args []string) error {
	stat := stats.DefaultStatsReceiver()
	if c.loop {
		stat = endpoints.MakeStatsReceiver("reconciler")
		server := endpoints.NewAdminServer(c.httpAddr, stat)
		go func() {
			log.Fatal(server.Serve())
		}()
		go stats.StartUptimeReporting(stat, stats.ReconcileUptime_ms,
			stats.ReconcileServerStartedGauge, stats.DefaultStartupGaugeSpikeLen)
	}

	client := pbs.NewCLIClient(cl.cfg.CLIConfig(), osexec.NewExecer(stat), stat)
	reconciler := hook.NewReconciler(client, cl.cfg.HeldJobsPerCycle, stat)
	ctx := context.Background()

	if !c.loop {
		_, err := reconciler.RunCycle(ctx)
		return err
	}

	// Sweep immediately, then on every tick. A failed cycle is logged
	// and retried on the next tick; the daemon itself stays up.
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		if _, err := reconciler.RunCycle(ctx); err != nil {
			log.WithFields(log.Fields{"error": err}).Error("Reconcile cycle failed")
		}
		<-ticker.C
	}
}
