package pbs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/clusterops/placehook/common/stats"
	"github.com/clusterops/placehook/execer"
	"github.com/clusterops/placehook/placement"
)

//go:generate mockgen -source client.go -destination client_mock.go -package pbs

// Client reads and writes job placement state on the host.
type Client interface {
	// ListHeld returns the IDs of jobs currently under the placement hold.
	ListHeld(ctx context.Context) ([]string, error)

	// StatJobs bulk-fetches details for the given job IDs. Jobs that
	// disappeared between listing and stating are simply absent from
	// the result.
	StatJobs(ctx context.Context, ids []string) (map[string]JobDetail, error)

	// Alter rewrites the job's placement attributes. An empty text means
	// that attribute is left alone; both empty is a no-op.
	Alter(ctx context.Context, id string, place, sel string) error

	// Release drops the placement hold from the job.
	Release(ctx context.Context, id string) error
}

// JobDetail is the placement-relevant slice of one stated job.
type JobDetail struct {
	ID        string
	Place     string
	Select    string
	SlotType  string
	HoldTypes string
}

func (d JobDetail) Snapshot() placement.Snapshot {
	return placement.Snapshot{Place: d.Place, Select: d.Select, SlotType: d.SlotType}
}

// CmdError is a host command that ran and failed, or couldn't run.
type CmdError struct {
	Argv     []string
	ExitCode int
	Stderr   string
}

func (e *CmdError) Error() string {
	return fmt.Sprintf("%s failed: exit %d: %s", strings.Join(e.Argv, " "), e.ExitCode, e.Stderr)
}

// IsCmdError returns true if err came from running a host command,
// unwrapping any context added by callers along the way.
func IsCmdError(err error) bool {
	_, ok := errors.Cause(err).(*CmdError)
	return ok
}

// CLIConfig locates the host binaries and bounds how hard we lean on them.
type CLIConfig struct {
	QselectPath string
	QstatPath   string
	QalterPath  string
	QrlsPath    string

	// Per-attempt time budget for one command.
	CmdTimeout time.Duration
	// Retries after the first failed attempt.
	CmdRetries int
	// Commands per second across all verbs, to keep a misbehaving sweep
	// from hammering the host daemon.
	CmdRatePerSec int
}

func (c CLIConfig) withDefaults() CLIConfig {
	if c.QselectPath == "" {
		c.QselectPath = "qselect"
	}
	if c.QstatPath == "" {
		c.QstatPath = "qstat"
	}
	if c.QalterPath == "" {
		c.QalterPath = "qalter"
	}
	if c.QrlsPath == "" {
		c.QrlsPath = "qrls"
	}
	if c.CmdTimeout <= 0 {
		c.CmdTimeout = 30 * time.Second
	}
	if c.CmdRetries < 0 {
		c.CmdRetries = 0
	}
	if c.CmdRatePerSec <= 0 {
		c.CmdRatePerSec = 8
	}
	return c
}

// NewCLIClient returns a Client that shells out to the q* binaries via the
// given execer. A nil stat receiver disables stats.
func NewCLIClient(cfg CLIConfig, ex execer.Execer, stat stats.StatsReceiver) Client {
	if stat == nil {
		stat = stats.NilStatsReceiver()
	}
	cfg = cfg.withDefaults()
	c := &cliClient{
		cfg:     cfg,
		ex:      ex,
		limiter: rate.NewLimiter(rate.Limit(cfg.CmdRatePerSec), cfg.CmdRatePerSec),
		stat:    stat,
	}
	c.makeBackoff = func() backoff.BackOff {
		// WithMaxRetries treats 0 as unlimited, not as "no retries".
		if cfg.CmdRetries == 0 {
			return &backoff.StopBackOff{}
		}
		return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(cfg.CmdRetries))
	}
	return c
}

type cliClient struct {
	cfg         CLIConfig
	ex          execer.Execer
	limiter     *rate.Limiter
	stat        stats.StatsReceiver
	makeBackoff func() backoff.BackOff
}

func (c *cliClient) ListHeld(ctx context.Context) ([]string, error) {
	argv := []string{c.cfg.QselectPath, "-h", HoldPlacement}
	out, err := c.run(ctx, stats.QselectLatency_ms, argv)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, line := range strings.Split(out, "\n") {
		if id := strings.TrimSpace(line); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (c *cliClient) StatJobs(ctx context.Context, ids []string) (map[string]JobDetail, error) {
	details := map[string]JobDetail{}
	if len(ids) == 0 {
		return details, nil
	}
	argv := append([]string{c.cfg.QstatPath, "-f", "-F", "json"}, ids...)
	out, err := c.run(ctx, stats.QstatLatency_ms, argv)
	if err != nil {
		return nil, err
	}
	parsed, err := parseStatJSON(out)
	if err != nil {
		return nil, errors.Wrap(err, "parsing qstat output")
	}
	return parsed, nil
}

func (c *cliClient) Alter(ctx context.Context, id string, place, sel string) error {
	if place == "" && sel == "" {
		return nil
	}
	argv := []string{c.cfg.QalterPath}
	if sel != "" {
		argv = append(argv, "-l", AttrSelect+"="+sel)
	}
	if place != "" {
		argv = append(argv, "-l", AttrPlace+"="+place)
	}
	argv = append(argv, id)
	_, err := c.run(ctx, stats.QalterLatency_ms, argv)
	return err
}

func (c *cliClient) Release(ctx context.Context, id string) error {
	argv := []string{c.cfg.QrlsPath, "-h", HoldPlacement, id}
	_, err := c.run(ctx, stats.QrlsLatency_ms, argv)
	return err
}

// run executes one host command under the rate limiter, retrying failed
// attempts with exponential backoff. Each attempt gets its own timeout;
// cancellation of ctx stops the retry loop.
func (c *cliClient) run(ctx context.Context, statName string, argv []string) (string, error) {
	defer c.stat.Latency(statName).Time().Stop()
	var out string
	try := 1
	op := func() error {
		if try > 1 {
			c.stat.Counter(stats.QcmdRetriesCounter).Inc(1)
		}
		log.WithFields(log.Fields{"argv": argv, "try": try}).Debug("Running host command")
		try++

		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(&CmdError{Argv: argv, ExitCode: -1, Stderr: err.Error()})
		}
		cmdCtx, cancel := context.WithTimeout(ctx, c.cfg.CmdTimeout)
		defer cancel()

		result, err := c.ex.Run(cmdCtx, execer.Command{Argv: argv})
		if err != nil {
			return c.permanentIfCanceled(ctx, &CmdError{Argv: argv, ExitCode: -1, Stderr: err.Error()})
		}
		if result.State == execer.COMPLETE && result.ExitCode == 0 {
			out = result.Stdout
			return nil
		}
		cmdErr := &CmdError{Argv: argv, ExitCode: result.ExitCode, Stderr: strings.TrimSpace(result.Stderr)}
		if cmdErr.Stderr == "" {
			cmdErr.Stderr = result.Error
		}
		return c.permanentIfCanceled(ctx, cmdErr)
	}
	if err := backoff.Retry(op, c.makeBackoff()); err != nil {
		log.WithFields(log.Fields{"argv": argv, "error": err}).Error("Host command failed")
		return "", err
	}
	return out, nil
}

// A failure after the caller's context is gone is not worth retrying.
func (c *cliClient) permanentIfCanceled(ctx context.Context, err *CmdError) error {
	if ctx.Err() != nil {
		return backoff.Permanent(err)
	}
	return err
}

// The host's stat output nests jobs by ID with Resource_List holding the
// typed resource values.
type statOutput struct {
	Jobs map[string]statJob `json:"Jobs"`
}

type statJob struct {
	ResourceList map[string]interface{} `json:"Resource_List"`
	HoldTypes    string                 `json:"Hold_Types"`
}

func parseStatJSON(out string) (map[string]JobDetail, error) {
	var parsed statOutput
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		return nil, err
	}
	details := make(map[string]JobDetail, len(parsed.Jobs))
	for id, job := range parsed.Jobs {
		d := JobDetail{ID: id, HoldTypes: job.HoldTypes}
		if v, ok := job.ResourceList[AttrPlace]; ok {
			d.Place = CoerceString(v)
		}
		if v, ok := job.ResourceList[AttrSelect]; ok {
			d.Select = CoerceString(v)
		}
		if v, ok := job.ResourceList[AttrSlotType]; ok {
			d.SlotType = CoerceString(v)
		}
		details[id] = d
	}
	return details, nil
}
