package placement

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// MalformedSelectError means select text violated the grammar
// count(":"key"="value)*. Unlike place text this is never recovered
// silently: the host only ever hands back its own select syntax, so a
// parse failure is a host/behavior mismatch an operator must see.
type MalformedSelectError struct {
	Text   string
	Reason string
}

func (e *MalformedSelectError) Error() string {
	return fmt.Sprintf("malformed select %q: %s", e.Text, e.Reason)
}

// IsMalformedSelect returns true if err is a *MalformedSelectError,
// unwrapping any context added by callers along the way.
func IsMalformedSelect(err error) bool {
	_, ok := errors.Cause(err).(*MalformedSelectError)
	return ok
}

// chunk is one key=value resource request within a select directive.
// Keys and values are stored verbatim so the expression round-trips
// byte for byte.
type chunk struct {
	key   string
	value string
}

// SelectExpr is an ordered view of a PBS select directive: a leading chunk
// count followed by key=value resource chunks, e.g. "2:ncpus=4:mem=8gb".
// Chunk order is insertion order and each key appears once; re-setting an
// existing key updates it in place.
type SelectExpr struct {
	count  int
	chunks []chunk
}

// ParseSelect validates and splits select text. The first token must be a
// positive integer; every remaining token must contain exactly one "=".
// Duplicate keys collapse to one chunk at the first key's position holding
// the last value, matching the host's ordered-mapping semantics.
func ParseSelect(text string) (*SelectExpr, error) {
	tokens := strings.Split(text, ":")
	count, err := strconv.Atoi(tokens[0])
	if err != nil {
		return nil, &MalformedSelectError{Text: text, Reason: "leading chunk count is missing or not an integer"}
	}
	if count < 1 {
		return nil, &MalformedSelectError{Text: text, Reason: "chunk count must be positive"}
	}
	s := &SelectExpr{count: count}
	for _, tok := range tokens[1:] {
		i := strings.Index(tok, "=")
		if i < 0 {
			return nil, &MalformedSelectError{Text: text, Reason: fmt.Sprintf("chunk %q is not of the form key=value", tok)}
		}
		if strings.Contains(tok[i+1:], "=") {
			return nil, &MalformedSelectError{Text: text, Reason: fmt.Sprintf("chunk %q contains more than one =", tok)}
		}
		s.Set(tok[:i], tok[i+1:])
	}
	return s, nil
}

// Get returns the value stored for key.
func (s *SelectExpr) Get(key string) (string, bool) {
	for _, c := range s.chunks {
		if c.key == key {
			return c.value, true
		}
	}
	return "", false
}

// Set replaces key's value in place, preserving chunk order; a new key
// appends one chunk at the end.
func (s *SelectExpr) Set(key, value string) {
	for i := range s.chunks {
		if s.chunks[i].key == key {
			s.chunks[i].value = value
			return
		}
	}
	s.chunks = append(s.chunks, chunk{key: key, value: value})
}

// Count returns the leading chunk-count token's value. The normalizer
// never alters it.
func (s *SelectExpr) Count() int {
	return s.count
}

// Len returns the number of key=value chunks.
func (s *SelectExpr) Len() int {
	return len(s.chunks)
}

// String re-serializes the expression: the count token first, then chunks
// in mapping order.
func (s *SelectExpr) String() string {
	parts := make([]string, 0, len(s.chunks)+1)
	parts = append(parts, strconv.Itoa(s.count))
	for _, c := range s.chunks {
		parts = append(parts, c.key+"="+c.value)
	}
	return strings.Join(parts, ":")
}
