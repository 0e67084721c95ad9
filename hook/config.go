// Package hook implements the two halves of placement normalization on a
// PBS Professional host: the submission handler that annotates or holds
// jobs as they enter a queue, and the reconciler that sweeps held jobs
// back into circulation once their requests are complete.
package hook

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/clusterops/placehook/pbs"
)

// Config is the hook's tuning knobs, read once from a JSON file the way
// the host hands hooks their config. Absent keys keep their defaults.
type Config struct {
	// Held jobs examined per reconcile cycle; the rest wait for the next
	// sweep so one cycle can't monopolize the host daemon.
	HeldJobsPerCycle int `json:"held_jobs_per_cycle"`

	// Per-attempt budget for one host command.
	CommandTimeoutMs int `json:"command_timeout_ms"`

	// Retries after the first failed attempt of a host command.
	CommandRetries int `json:"command_retries"`

	// Host commands per second across all verbs.
	CommandRatePerSec int `json:"command_rate_per_sec"`

	QselectPath string `json:"qselect_path"`
	QstatPath   string `json:"qstat_path"`
	QalterPath  string `json:"qalter_path"`
	QrlsPath    string `json:"qrls_path"`

	LogLevel string `json:"log_level"`
}

func DefaultConfig() Config {
	return Config{
		HeldJobsPerCycle:  25,
		CommandTimeoutMs:  30000,
		CommandRetries:    2,
		CommandRatePerSec: 8,
		LogLevel:          "info",
	}
}

// ReadConfig overlays the JSON at path onto the defaults. A missing file
// is not an error: hosts without a config installed run on defaults,
// matching how the host treats an unconfigured hook.
func ReadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := ioutil.ReadFile(path)
	if os.IsNotExist(err) {
		log.WithFields(log.Fields{"path": path}).Info("No hook config present, using defaults")
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrap(err, "reading hook config")
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "couldn't parse hook config %s", path)
	}
	if cfg.HeldJobsPerCycle < 1 {
		log.WithFields(log.Fields{"held_jobs_per_cycle": cfg.HeldJobsPerCycle}).
			Warn("Invalid held_jobs_per_cycle, using default")
		cfg.HeldJobsPerCycle = DefaultConfig().HeldJobsPerCycle
	}
	return cfg, nil
}

var (
	loadOnce  sync.Once
	loadedCfg Config
	loadedErr error
)

// Load reads the config exactly once per process; later calls return the
// first result regardless of path, mirroring the host's load-once hook
// config contract.
func Load(path string) (Config, error) {
	loadOnce.Do(func() {
		loadedCfg, loadedErr = ReadConfig(path)
		log.WithFields(log.Fields{"path": path, "config": fmt.Sprintf("%+v", loadedCfg)}).Debug("Loaded hook config")
	})
	return loadedCfg, loadedErr
}

// CLIConfig translates the hook knobs into host client configuration.
func (c Config) CLIConfig() pbs.CLIConfig {
	return pbs.CLIConfig{
		QselectPath:   c.QselectPath,
		QstatPath:     c.QstatPath,
		QalterPath:    c.QalterPath,
		QrlsPath:      c.QrlsPath,
		CmdTimeout:    time.Duration(c.CommandTimeoutMs) * time.Millisecond,
		CmdRetries:    c.CommandRetries,
		CmdRatePerSec: c.CommandRatePerSec,
	}
}
