package stats

/*
This file defines all the metrics being collected.  As new metrics are added please follow this pattern.
*/

const (
	/************************* submission hook metrics **************************/
	/*
		the number of queuejob events the submission hook has seen
	*/
	SubmitEventsCounter = "submitEvents"

	/*
		the number of jobs held at submission pending a select directive
	*/
	SubmitHeldCounter = "submitHeldJobs"

	/*
		the number of jobs skipped at submission because the user picked their own grouping
	*/
	SubmitSkippedCounter = "submitSkippedJobs"

	/*
		the number of jobs whose placement attributes were rewritten at submission
	*/
	SubmitAppliedCounter = "submitAppliedJobs"

	/*
		the number of submission events rejected (malformed select or internal failure)
	*/
	SubmitRejectedCounter = "submitRejectedJobs"

	/*
		time to decide and annotate one submission event
	*/
	SubmitLatency_ms = "submitLatency_ms"

	/************************* reconciler metrics **************************/
	/*
		the number of sweep cycles run
	*/
	ReconcileCyclesCounter = "reconcileCycles"

	/*
		the number of held jobs the last cycle saw before capping
	*/
	ReconcileListedGauge = "reconcileListedJobs"

	/*
		the number of held jobs examined across cycles
	*/
	ReconcileExaminedCounter = "reconcileExaminedJobs"

	/*
		the number of jobs whose attributes were rewritten by the reconciler
	*/
	ReconcileAlteredCounter = "reconcileAlteredJobs"

	/*
		the number of placement holds released by the reconciler
	*/
	ReconcileReleasedCounter = "reconcileReleasedJobs"

	/*
		the number of jobs left held for the next cycle (still no select)
	*/
	ReconcileStillHeldCounter = "reconcileStillHeldJobs"

	/*
		the number of jobs that could not be reconciled this cycle
	*/
	ReconcileFailedCounter = "reconcileFailedJobs"

	/*
		end to end time of one sweep cycle, including host command time
	*/
	ReconcileCycleLatency_ms = "reconcileCycleLatency_ms"

	/*
		uptime of the reconcile daemon
	*/
	ReconcileUptime_ms = "reconcileUptime_ms"

	/*
		spikes to 1 when the reconcile daemon (re)starts
	*/
	ReconcileServerStartedGauge = "reconcileStartedGauge"

	/************************* host command metrics **************************/
	/*
		the number of commands run against the host
	*/
	CmdRunsCounter = "cmdRuns"

	/*
		the number of commands killed because their context expired
	*/
	CmdTimeoutsCounter = "cmdTimeouts"

	/*
		the number of commands that failed without a recoverable exit code
	*/
	CmdFailuresCounter = "cmdFailures"

	/*
		wall time of one command run, including output collection
	*/
	CmdRunLatency_ms = "cmdRunLatency_ms"

	/*
		the number of host command retries after retryable failures
	*/
	QcmdRetriesCounter = "qcmdRetries"

	/*
		time per qselect invocation
	*/
	QselectLatency_ms = "qselectLatency_ms"

	/*
		time per qstat invocation
	*/
	QstatLatency_ms = "qstatLatency_ms"

	/*
		time per qalter invocation
	*/
	QalterLatency_ms = "qalterLatency_ms"

	/*
		time per qrls invocation
	*/
	QrlsLatency_ms = "qrlsLatency_ms"
)
