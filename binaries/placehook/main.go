package main

import (
	log "github.com/sirupsen/logrus"

	"github.com/clusterops/placehook/cli"
	"github.com/clusterops/placehook/common/log/hooks"
)

// CLI binary backing the cluster's queue hook.
//	Supported commands: (see "-h" for all options)
//		submit [reads one queuejob event from stdin]
//		reconcile [--loop --interval --http_addr]
//	Global flags:
//		--config [path to the hook config JSON]
//		--log_level [<error|info|debug> level and above should be logged]

func main() {
	log.AddHook(hooks.NewContextHook())

	cl := cli.NewHookCLI()
	if err := cl.Exec(); err != nil {
		log.Fatal("Error running placehook ", err)
	}
}
