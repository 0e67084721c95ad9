package placement

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
)

func TestNormalizeDecisions(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
		want Decision
	}{
		{
			name: "no place or grouping hints at all",
			snap: Snapshot{Place: "", Select: "2:ncpus=4"},
			want: Decision{
				Outcome:       Apply,
				NewPlace:      "group=group_id",
				PlaceChanged:  true,
				NewSelect:     "2:ncpus=4:ungrouped=false",
				SelectChanged: true,
			},
		},
		{
			name: "grouped job asking for a slot type",
			snap: Snapshot{Place: "group=group_id", Select: "1:slot_type=gpuA"},
			want: Decision{
				Outcome:       Apply,
				NewSelect:     "1:slot_type=gpuA:ungrouped=false",
				SelectChanged: true,
			},
		},
		{
			name: "user picked their own grouping resource",
			snap: Snapshot{Place: "group=rack1", Select: "1:ncpus=2"},
			want: Decision{Outcome: Skip},
		},
		{
			name: "no select directive yet",
			snap: Snapshot{Place: "scatter", Select: ""},
			want: Decision{Outcome: Hold},
		},
		{
			name: "place needs group appended to existing arrangement",
			snap: Snapshot{Place: "scatter:excl", Select: "2:ncpus=4:ungrouped=true"},
			want: Decision{
				Outcome:      Apply,
				NewPlace:     "scatter:excl:group=group_id",
				PlaceChanged: true,
			},
		},
		{
			name: "already normalized, nothing to write",
			snap: Snapshot{Place: "group=group_id", Select: "2:ncpus=4:ungrouped=false"},
			want: Decision{Outcome: Apply},
		},
		{
			name: "slot_type rewrite flags select even when text is identical",
			snap: Snapshot{Place: "group=group_id", Select: "1:slot_type=gpuA:ungrouped=true"},
			want: Decision{
				Outcome:       Apply,
				NewSelect:     "1:slot_type=gpuA:ungrouped=true",
				SelectChanged: true,
			},
		},
		{
			name: "custom grouping wins before select is even parsed",
			snap: Snapshot{Place: "group=rack1", Select: "not-a-select"},
			want: Decision{Outcome: Skip},
		},
	}
	for _, test := range tests {
		got, err := Normalize(test.snap)
		if err != nil {
			t.Fatalf("%s: Normalize returned error: %v", test.name, err)
		}
		if got != test.want {
			t.Errorf("%s:\ngot  %swant %s", test.name, spew.Sdump(got), spew.Sdump(test.want))
		}
	}
}

func TestNormalizeMalformedSelect(t *testing.T) {
	_, err := Normalize(Snapshot{Place: "", Select: "ncpus=4"})
	if err == nil {
		t.Fatalf("expected an error for a select with no chunk count")
	}
	if !IsMalformedSelect(err) {
		t.Errorf("error is %T; expected *MalformedSelectError", err)
	}
}

func TestNormalizeHoldBeatsEverything(t *testing.T) {
	// An empty select holds the job no matter how the place text looks.
	for _, place := range []string{"", "group=group_id", "group=rack1", "garbage"} {
		d, err := Normalize(Snapshot{Place: place, Select: ""})
		if err != nil {
			t.Fatalf("place %q: %v", place, err)
		}
		if d.Outcome != Hold {
			t.Errorf("place %q: outcome %v; expected %v", place, d.Outcome, Hold)
		}
	}
}

func TestOutcomeString(t *testing.T) {
	for outcome, expected := range map[Outcome]string{
		Hold:        "hold",
		Skip:        "skip",
		Apply:       "apply",
		Outcome(42): "unknown",
	} {
		if got := outcome.String(); got != expected {
			t.Errorf("Outcome(%d).String() = %q; expected %q", int(outcome), got, expected)
		}
	}
}
