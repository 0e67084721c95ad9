// Package placement implements the expression core of the hook: parsing and
// rewriting of PBS place and select directives, and the pure normalization
// decision applied to each job. Nothing in this package performs I/O; the
// pbs and hook packages own every host interaction.
package placement

import "strings"

// GroupID is the canonical placement grouping value. Normalization ensures
// every rewritten job is placed with group=group_id so the scheduler packs
// its chunks onto hosts sharing one group_id value.
const GroupID = "group_id"

const groupKey = "group"

// clause is one colon-separated segment of a place directive. raw always
// holds the segment exactly as the host supplied it (or as this package
// appended it); key/value are the lower-cased, trimmed forms used for
// matching and are only meaningful when kv is set.
type clause struct {
	raw   string
	key   string
	value string
	kv    bool
}

// PlaceExpr is an ordered view of a PBS place directive, e.g.
// "scatter:excl:group=group_id". Parsing never fails: segments that do not
// look like key=value are carried as opaque tokens, and serialization
// reproduces the original text for every clause this package did not add.
// The host is the source of truth for place syntax.
type PlaceExpr struct {
	clauses []clause
}

// ParsePlace splits text on ":" and extracts key=value pairs where present.
// Empty text yields an empty expression.
func ParsePlace(text string) *PlaceExpr {
	p := &PlaceExpr{}
	if text == "" {
		return p
	}
	for _, seg := range strings.Split(text, ":") {
		c := clause{raw: seg}
		if i := strings.Index(seg, "="); i >= 0 {
			c.kv = true
			c.key = strings.ToLower(strings.TrimSpace(seg[:i]))
			c.value = strings.ToLower(strings.TrimSpace(seg[i+1:]))
		}
		p.clauses = append(p.clauses, c)
	}
	return p
}

// GroupKey returns the value of the expression's group clause. Duplicate
// keys follow the host's own precedence: the last occurrence wins.
func (p *PlaceExpr) GroupKey() (string, bool) {
	value, ok := "", false
	for _, c := range p.clauses {
		if c.kv && c.key == groupKey {
			value, ok = c.value, true
		}
	}
	return value, ok
}

// EnsureGroupID makes the expression group by group_id when the submitter
// did not choose a grouping themselves. It appends group=group_id when no
// group clause exists (changed=true). When a group clause names anything
// other than group_id the submitter picked it deliberately: the expression
// is left untouched and custom=true tells the caller to skip the rest of
// the normalization.
func (p *PlaceExpr) EnsureGroupID() (changed, custom bool) {
	v, ok := p.GroupKey()
	if !ok {
		p.clauses = append(p.clauses, clause{
			raw:   groupKey + "=" + GroupID,
			key:   groupKey,
			value: GroupID,
			kv:    true,
		})
		return true, false
	}
	if v == GroupID {
		return false, false
	}
	return false, true
}

// Empty reports whether the expression has no clauses at all.
func (p *PlaceExpr) Empty() bool {
	return len(p.clauses) == 0
}

// String colon-joins the clauses in their original order. Appended clauses
// render as key=value; everything else is the verbatim input segment.
func (p *PlaceExpr) String() string {
	segs := make([]string, len(p.clauses))
	for i, c := range p.clauses {
		segs[i] = c.raw
	}
	return strings.Join(segs, ":")
}
