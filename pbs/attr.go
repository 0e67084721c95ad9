// Package pbs talks to a PBS Professional host: attribute naming shared by
// the submission and reconcile paths, and a Client that shells out to the
// standard q* binaries.
package pbs

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/clusterops/placehook/placement"
)

// Job attribute and resource names as the host spells them.
const (
	AttrPlace    = "place"
	AttrSelect   = "select"
	AttrSlotType = "slot_type"
)

// HoldPlacement is the hold applied to jobs parked while they await
// placement attributes: system and other, so users can't release it
// with a plain qrls.
const HoldPlacement = "so"

// MergeHolds unions hold codes onto an existing Hold_Types value,
// dropping the host's "n" (none) marker.
func MergeHolds(existing, add string) string {
	merged := strings.Replace(existing, "n", "", -1)
	for _, c := range add {
		if !strings.ContainsRune(merged, c) {
			merged += string(c)
		}
	}
	return merged
}

// Job is one job as seen by a hook event. Resource values arrive as
// whatever the host's JSON layer produced, so they are interface{} until
// coerced.
type Job interface {
	ID() string
	Resource(name string) (interface{}, bool)
	SetResource(name string, value interface{})
	HoldTypes() string
	SetHoldTypes(holds string)
}

// SnapshotOf extracts the placement-relevant attributes of a job into
// plain strings for the normalizer.
func SnapshotOf(job Job) placement.Snapshot {
	snap := placement.Snapshot{}
	if v, ok := job.Resource(AttrPlace); ok {
		snap.Place = CoerceString(v)
	}
	if v, ok := job.Resource(AttrSelect); ok {
		snap.Select = CoerceString(v)
	}
	if v, ok := job.Resource(AttrSlotType); ok {
		snap.SlotType = CoerceString(v)
	}
	return snap
}

// CoerceString renders a decoded JSON attribute value the way the host
// prints it. The host's JSON layer emits strings for most resources but
// numbers and booleans for typed ones.
func CoerceString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return fmt.Sprintf("%v", v)
}
