package hook

import (
	log "github.com/sirupsen/logrus"

	"github.com/clusterops/placehook/common/stats"
	"github.com/clusterops/placehook/pbs"
	"github.com/clusterops/placehook/placement"
)

// Disposition is what the submission handler decided to do with an event.
type Disposition int

const (
	// Accepted lets the job through, possibly with rewritten attributes.
	Accepted Disposition = iota
	// Held parks the job under the placement hold until it has a select.
	Held
	// Rejected bounces the event back to the submitter.
	Rejected
)

func (d Disposition) String() string {
	switch d {
	case Accepted:
		return "accepted"
	case Held:
		return "held"
	case Rejected:
		return "rejected"
	}
	return "unknown"
}

// SubmitResult is the handler's verdict for one queuejob event.
type SubmitResult struct {
	Disposition Disposition
	Reason      string
}

// Submitter normalizes the placement attributes of jobs as they are
// queued. It mutates only the job it is given; all host I/O stays on
// the shim side.
type Submitter struct {
	stat stats.StatsReceiver
}

func NewSubmitter(stat stats.StatsReceiver) *Submitter {
	if stat == nil {
		stat = stats.NilStatsReceiver()
	}
	return &Submitter{stat: stat}
}

// HandleQueueJob decides one event. Jobs without a select directive are
// held rather than rejected: the submitter's tooling often fills the
// select in right after queueing, and the reconciler picks up the rest.
func (s *Submitter) HandleQueueJob(job pbs.Job) SubmitResult {
	defer s.stat.Latency(stats.SubmitLatency_ms).Time().Stop()
	s.stat.Counter(stats.SubmitEventsCounter).Inc(1)

	snap := pbs.SnapshotOf(job)
	decision, err := placement.Normalize(snap)
	if err != nil {
		s.stat.Counter(stats.SubmitRejectedCounter).Inc(1)
		log.WithFields(log.Fields{
			"jobID":  job.ID(),
			"select": snap.Select,
			"error":  err,
		}).Warn("Rejecting job with malformed select")
		return SubmitResult{Disposition: Rejected, Reason: err.Error()}
	}

	switch decision.Outcome {
	case placement.Hold:
		job.SetHoldTypes(pbs.MergeHolds(job.HoldTypes(), pbs.HoldPlacement))
		s.stat.Counter(stats.SubmitHeldCounter).Inc(1)
		log.WithFields(log.Fields{"jobID": job.ID()}).Info("Holding job until it has a select directive")
		return SubmitResult{Disposition: Held, Reason: "no select directive yet; holding for reconciliation"}

	case placement.Skip:
		s.stat.Counter(stats.SubmitSkippedCounter).Inc(1)
		log.WithFields(log.Fields{
			"jobID": job.ID(),
			"place": snap.Place,
		}).Debug("Leaving user placement grouping alone")
		return SubmitResult{Disposition: Accepted}

	default:
		if decision.PlaceChanged {
			job.SetResource(pbs.AttrPlace, decision.NewPlace)
		}
		if decision.SelectChanged {
			job.SetResource(pbs.AttrSelect, decision.NewSelect)
		}
		if decision.PlaceChanged || decision.SelectChanged {
			s.stat.Counter(stats.SubmitAppliedCounter).Inc(1)
		}
		log.WithFields(log.Fields{
			"jobID":         job.ID(),
			"placeChanged":  decision.PlaceChanged,
			"selectChanged": decision.SelectChanged,
			"place":         decision.NewPlace,
			"select":        decision.NewSelect,
		}).Debug("Normalized job placement")
		return SubmitResult{Disposition: Accepted}
	}
}
