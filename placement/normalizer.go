package placement

// Select chunk keys the normalizer manages. ungrouped marks a job the
// autoscaler may satisfy outside a placement group; slot_type names the
// machine class a chunk should land on.
const (
	KeyUngrouped = "ungrouped"
	KeySlotType  = "slot_type"
)

// Snapshot is the narrow, fully-coerced view of one job the normalizer
// consumes. Adapters at the host boundary (the pbs package) perform all
// type coercion, so these fields are plain strings by the time they
// arrive here.
type Snapshot struct {
	Place    string
	Select   string
	SlotType string
}

// Outcome is the kind of decision Normalize reached for one job. The
// outcomes are mutually exclusive.
type Outcome int

const (
	// Hold: the job declares no resource selection, so there is nothing
	// to attach the grouping flags to. The caller should hold the job
	// until a reconcile cycle can resolve it.
	Hold Outcome = iota

	// Skip: the submitter explicitly requested a placement group other
	// than group_id. Deliberate choice; nothing is touched.
	Skip

	// Apply: the job normalizes. The decision carries the rewritten
	// expression texts for the fields that changed.
	Apply
)

func (o Outcome) String() string {
	switch o {
	case Hold:
		return "hold"
	case Skip:
		return "skip"
	case Apply:
		return "apply"
	}
	return "unknown"
}

// Decision is the result of normalizing one job snapshot. NewPlace and
// NewSelect are only meaningful when the matching Changed flag is set;
// an unset flag means the caller must not write that attribute back.
type Decision struct {
	Outcome Outcome

	NewPlace     string
	PlaceChanged bool

	NewSelect     string
	SelectChanged bool
}

// Normalize applies the placement rules to one job snapshot and reports
// what, if anything, the caller should write back to the host. It performs
// no I/O and never mutates the snapshot; the only possible error is a
// *MalformedSelectError.
func Normalize(snap Snapshot) (Decision, error) {
	if snap.Select == "" {
		return Decision{Outcome: Hold}, nil
	}

	place := ParsePlace(snap.Place)
	placeChanged, custom := place.EnsureGroupID()
	if custom {
		return Decision{Outcome: Skip}, nil
	}

	sel, err := ParseSelect(snap.Select)
	if err != nil {
		return Decision{}, err
	}

	selectChanged := false
	if _, ok := sel.Get(KeyUngrouped); !ok {
		sel.Set(KeyUngrouped, "false")
		selectChanged = true
	}
	if v, ok := sel.Get(KeySlotType); ok {
		// Re-setting slot_type to itself leaves the text as-is but still
		// counts as a rewrite: writing the attribute back is what makes
		// the host register slot_type as a scheduling resource instead of
		// a plain label.
		sel.Set(KeySlotType, v)
		selectChanged = true
	}

	d := Decision{Outcome: Apply}
	if placeChanged {
		d.NewPlace = place.String()
		d.PlaceChanged = true
	}
	if selectChanged {
		d.NewSelect = sel.String()
		d.SelectChanged = true
	}
	return d, nil
}
