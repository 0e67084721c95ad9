package cli

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/clusterops/placehook/hook"
)

// CLI bundles the hook's entry points into the one binary the host's
// hook shim and its periodic timer both call.
type CLI interface {
	Exec() error
}

type hookCLI struct {
	rootCmd *cobra.Command

	configPath string
	logLevel   string
	cfg        hook.Config
}

func NewHookCLI() CLI {
	c := &hookCLI{}
	c.rootCmd = &cobra.Command{
		Use:               "placehook",
		Short:             "placehook keeps job placement grouping consistent for the autoscaled cluster",
		Run:               func(*cobra.Command, []string) {},
		PersistentPreRunE: c.setup,
	}
	c.rootCmd.PersistentFlags().StringVar(&c.configPath, "config", "", "path to the hook config JSON")
	c.rootCmd.PersistentFlags().StringVar(&c.logLevel, "log_level", "", "log level overriding the config (error|info|debug)")

	c.addCmd(&submitCmd{})
	c.addCmd(&reconcileCmd{})

	return c
}

func (c *hookCLI) Exec() error {
	return c.rootCmd.Execute()
}

// setup loads the once-per-process config and applies the log level
// before any subcommand runs.
func (c *hookCLI) setup(cmd *cobra.Command, args []string) error {
	cfg, err := hook.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg

	level := cfg.LogLevel
	if c.logLevel != "" {
		level = c.logLevel
	}
	parsed, err := log.ParseLevel(level)
	if err != nil {
		return errors.Wrapf(err, "invalid log level %q", level)
	}
	log.SetLevel(parsed)
	return nil
}

func (c *hookCLI) addCmd(cmd command) {
	cobraCmd := cmd.registerFlags()
	cobraCmd.RunE = func(innerCmd *cobra.Command, args []string) error {
		return cmd.run(c, innerCmd, args)
	}
	c.rootCmd.AddCommand(cobraCmd)
}

type command interface {
	registerFlags() *cobra.Command
	run(cl *hookCLI, cmd *cobra.Command, args []string) error
}
