package hook

import (
	"context"

	uuid "github.com/nu7hatch/gouuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/clusterops/placehook/common/stats"
	"github.com/clusterops/placehook/pbs"
	"github.com/clusterops/placehook/placement"
)

// Reconciler sweeps jobs parked under the placement hold and releases
// the ones that have grown a usable select directive since submission.
type Reconciler struct {
	client pbs.Client
	cap    int
	stat   stats.StatsReceiver
}

// NewReconciler makes a sweeper over the given client. capPerCycle
// bounds how many held jobs one cycle will examine; zero or negative
// means no bound.
func NewReconciler(client pbs.Client, capPerCycle int, stat stats.StatsReceiver) *Reconciler {
	if stat == nil {
		stat = stats.NilStatsReceiver()
	}
	return &Reconciler{client: client, cap: capPerCycle, stat: stat}
}

// CycleResult tallies what one sweep did.
type CycleResult struct {
	CycleID   string
	Listed    int
	Examined  int
	Altered   int
	Released  int
	StillHeld int
	Failed    int
}

// RunCycle lists held jobs, stats them in bulk, and walks each one.
// Per-job failures are counted and logged but do not stop the sweep;
// only list/stat failures or a dead context abort the cycle.
func (r *Reconciler) RunCycle(ctx context.Context) (CycleResult, error) {
	defer r.stat.Latency(stats.ReconcileCycleLatency_ms).Time().Stop()
	r.stat.Counter(stats.ReconcileCyclesCounter).Inc(1)

	id, err := uuid.NewV4()
	for err != nil {
		id, err = uuid.NewV4()
	}
	result := CycleResult{CycleID: id.String()}
	cycleLog := log.WithFields(log.Fields{"cycleID": result.CycleID})

	ids, err := r.client.ListHeld(ctx)
	if err != nil {
		return result, errors.Wrap(err, "listing held jobs")
	}
	result.Listed = len(ids)
	r.stat.Gauge(stats.ReconcileListedGauge).Update(int64(len(ids)))
	if r.cap > 0 && len(ids) > r.cap {
		cycleLog.WithFields(log.Fields{"held": len(ids), "cap": r.cap}).Info(
			"More held jobs than the per cycle cap, truncating. The rest wait for the next cycle")
		ids = ids[:r.cap]
	}
	if len(ids) == 0 {
		cycleLog.Debug("No held jobs to reconcile")
		return result, nil
	}

	details, err := r.client.StatJobs(ctx, ids)
	if err != nil {
		return result, errors.Wrap(err, "statting held jobs")
	}

	for _, jobID := range ids {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		detail, ok := details[jobID]
		if !ok {
			// Finished or deleted between the list and the stat.
			cycleLog.WithFields(log.Fields{"jobID": jobID}).Debug("Held job vanished before stat")
			continue
		}
		result.Examined++
		r.stat.Counter(stats.ReconcileExaminedCounter).Inc(1)
		r.reconcileJob(ctx, cycleLog, jobID, detail, &result)
	}

	cycleLog.WithFields(log.Fields{
		"listed":    result.Listed,
		"examined":  result.Examined,
		"altered":   result.Altered,
		"released":  result.Released,
		"stillHeld": result.StillHeld,
		"failed":    result.Failed,
	}).Info("Reconcile cycle finished")
	return result, nil
}

func (r *Reconciler) reconcileJob(ctx context.Context, cycleLog *log.Entry, jobID string, detail pbs.JobDetail, result *CycleResult) {
	jobLog := cycleLog.WithFields(log.Fields{"jobID": jobID})

	snap := detail.Snapshot()
	decision, err := placement.Normalize(snap)
	if err != nil {
		// A held job with a busted select stays held. Releasing it
		// would just bounce it off the scheduler.
		result.Failed++
		r.stat.Counter(stats.ReconcileFailedCounter).Inc(1)
		jobLog.WithFields(log.Fields{"error": err}).Error("Held job has a malformed select, leaving it held")
		return
	}

	switch decision.Outcome {
	case placement.Hold:
		result.StillHeld++
		r.stat.Counter(stats.ReconcileStillHeldCounter).Inc(1)
		jobLog.Debug("Held job still has no select directive")
		return

	case placement.Apply:
		if decision.PlaceChanged || decision.SelectChanged {
			// One alter carries both texts so the host sees a single
			// consistent write, even when only one of them moved.
			place, sel := snap.Place, snap.Select
			if decision.PlaceChanged {
				place = decision.NewPlace
			}
			if decision.SelectChanged {
				sel = decision.NewSelect
			}
			if err := r.client.Alter(ctx, jobID, place, sel); err != nil {
				result.Failed++
				r.stat.Counter(stats.ReconcileFailedCounter).Inc(1)
				jobLog.WithFields(log.Fields{"error": err}).Error("Could not alter held job, leaving it held")
				return
			}
			result.Altered++
			r.stat.Counter(stats.ReconcileAlteredCounter).Inc(1)
			jobLog.WithFields(log.Fields{"place": place, "select": sel}).Info("Altered held job placement")
		}
	}

	// Skip and already normalized Apply both land here: the job is in
	// the shape the policy wants, so the hold has done its work.
	if err := r.client.Release(ctx, jobID); err != nil {
		result.Failed++
		r.stat.Counter(stats.ReconcileFailedCounter).Inc(1)
		jobLog.WithFields(log.Fields{"error": err}).Error("Could not release held job")
		return
	}
	result.Released++
	r.stat.Counter(stats.ReconcileReleasedCounter).Inc(1)
	jobLog.Info("Released job from placement hold")
}
