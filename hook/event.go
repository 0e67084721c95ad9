package hook

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"github.com/clusterops/placehook/pbs"
)

// The host-side hook shim can't run us in-process, so it pipes one
// queuejob event as JSON on stdin and applies whatever mutations come
// back on stdout.

// EventQueueJob is the only event type the submission handler accepts.
const EventQueueJob = "queuejob"

// Actions the shim applies to the event.
const (
	ActionAccept = "accept"
	ActionHold   = "hold"
	ActionReject = "reject"
)

// EventJob is the job carried by a queuejob event. It records which
// attributes the handler touched so the response only carries mutations.
type EventJob struct {
	JobID     string                 `json:"id"`
	Resources map[string]interface{} `json:"resources"`
	Holds     string                 `json:"hold_types"`

	changed      map[string]interface{}
	holdsChanged bool
}

func (j *EventJob) ID() string { return j.JobID }

func (j *EventJob) Resource(name string) (interface{}, bool) {
	v, ok := j.Resources[name]
	return v, ok
}

func (j *EventJob) SetResource(name string, value interface{}) {
	if j.Resources == nil {
		j.Resources = map[string]interface{}{}
	}
	if j.changed == nil {
		j.changed = map[string]interface{}{}
	}
	j.Resources[name] = value
	j.changed[name] = value
}

func (j *EventJob) HoldTypes() string { return j.Holds }

func (j *EventJob) SetHoldTypes(holds string) {
	if holds == j.Holds {
		return
	}
	j.Holds = holds
	j.holdsChanged = true
}

// ChangedResources returns only the resources set since decoding.
func (j *EventJob) ChangedResources() map[string]interface{} { return j.changed }

func (j *EventJob) HoldsChanged() bool { return j.holdsChanged }

// QueueJobRequest is one event as the shim pipes it in.
type QueueJobRequest struct {
	Event string    `json:"event"`
	Job   *EventJob `json:"job"`
}

// QueueJobResponse tells the shim what to do with the event. Resources
// and HoldTypes are present only when the handler changed them.
type QueueJobResponse struct {
	Action    string                 `json:"action"`
	Reason    string                 `json:"reason,omitempty"`
	Resources map[string]interface{} `json:"resources,omitempty"`
	HoldTypes string                 `json:"hold_types,omitempty"`
}

// DecodeQueueJobRequest reads one event off r.
func DecodeQueueJobRequest(r io.Reader) (*QueueJobRequest, error) {
	var req QueueJobRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, errors.Wrap(err, "decoding queuejob event")
	}
	if req.Event != EventQueueJob {
		return nil, errors.Errorf("unsupported event type %q", req.Event)
	}
	if req.Job == nil {
		return nil, errors.New("queuejob event carries no job")
	}
	if req.Job.Resources == nil {
		req.Job.Resources = map[string]interface{}{}
	}
	return &req, nil
}

// BuildQueueJobResponse maps the handler's result and the job's recorded
// mutations into the reply the shim applies.
func BuildQueueJobResponse(result SubmitResult, job *EventJob) QueueJobResponse {
	resp := QueueJobResponse{Reason: result.Reason}
	switch result.Disposition {
	case Held:
		resp.Action = ActionHold
	case Rejected:
		resp.Action = ActionReject
	default:
		resp.Action = ActionAccept
	}
	if result.Disposition != Rejected {
		if len(job.ChangedResources()) > 0 {
			resp.Resources = job.ChangedResources()
		}
		if job.HoldsChanged() {
			resp.HoldTypes = job.HoldTypes()
		}
	}
	return resp
}

// WriteQueueJobResponse emits the reply for the shim on w.
func WriteQueueJobResponse(w io.Writer, resp QueueJobResponse) error {
	return errors.Wrap(json.NewEncoder(w).Encode(resp), "encoding queuejob response")
}

var _ pbs.Job = (*EventJob)(nil)
