package placement

import (
	"testing"

	"github.com/luci/go-render/render"
)

func TestParsePlaceRoundTrip(t *testing.T) {
	// Parsing never fails and unmodified expressions serialize back to the
	// exact input, including segments that don't parse as key=value.
	texts := []string{
		"",
		"scatter",
		"scatter:excl",
		"group=group_id",
		"scatter:group=group_id",
		"free:shared:group=rack",
		"scatter::excl", // empty segment stays verbatim
		"=",
		"scatter:GROUP = Weird :excl",
	}
	for _, text := range texts {
		if got := ParsePlace(text).String(); got != text {
			t.Errorf("ParsePlace(%q).String() = %q; expected the input back", text, got)
		}
	}
}

func TestPlaceGroupKey(t *testing.T) {
	tests := []struct {
		text  string
		value string
		ok    bool
	}{
		{"", "", false},
		{"scatter", "", false},
		{"scatter:excl", "", false},
		{"group=group_id", "group_id", true},
		{"scatter:group=rack1", "rack1", true},
		{"GROUP=RACK1", "rack1", true},
		{" group = rack1 ", "rack1", true},
		// last occurrence wins, mirroring the host's duplicate-key rule
		{"group=a:group=b", "b", true},
		{"grouper=a", "", false},
	}
	for _, test := range tests {
		value, ok := ParsePlace(test.text).GroupKey()
		if value != test.value || ok != test.ok {
			t.Errorf("GroupKey(%q) = (%q, %v); expected (%q, %v)",
				test.text, value, ok, test.value, test.ok)
		}
	}
}

func TestEnsureGroupID(t *testing.T) {
	tests := []struct {
		text    string
		changed bool
		custom  bool
		out     string
	}{
		// no group clause: append, prefixing ":" only when non-empty
		{"", true, false, "group=group_id"},
		{"scatter", true, false, "scatter:group=group_id"},
		{"scatter:excl", true, false, "scatter:excl:group=group_id"},
		// already the default: leave alone
		{"group=group_id", false, false, "group=group_id"},
		{"scatter:group=group_id", false, false, "scatter:group=group_id"},
		{"GROUP=GROUP_ID", false, false, "GROUP=GROUP_ID"},
		// explicit non-default grouping: untouched, signal custom
		{"group=rack1", false, true, "group=rack1"},
		{"scatter:group=rack1:excl", false, true, "scatter:group=rack1:excl"},
	}
	for _, test := range tests {
		p := ParsePlace(test.text)
		changed, custom := p.EnsureGroupID()
		if changed != test.changed || custom != test.custom {
			t.Errorf("EnsureGroupID(%q) = (%v, %v); expected (%v, %v)",
				test.text, changed, custom, test.changed, test.custom)
		}
		if got := p.String(); got != test.out {
			t.Errorf("after EnsureGroupID(%q): %s; expected %s",
				test.text, render.Render(got), render.Render(test.out))
		}
	}
}

func TestEnsureGroupIDIdempotent(t *testing.T) {
	p := ParsePlace("scatter")
	p.EnsureGroupID()
	changed, custom := p.EnsureGroupID()
	if changed || custom {
		t.Errorf("second EnsureGroupID = (%v, %v); expected a no-op", changed, custom)
	}
	if got := p.String(); got != "scatter:group=group_id" {
		t.Errorf("got %q after double EnsureGroupID", got)
	}
}

func TestPlaceEmpty(t *testing.T) {
	if !ParsePlace("").Empty() {
		t.Errorf("expected empty expression for empty text")
	}
	if ParsePlace("free").Empty() {
		t.Errorf("expected non-empty expression for %q", "free")
	}
}
