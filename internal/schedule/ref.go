// Package schedule holds the month → weekday → topic-reference schedule and
// the free-text monthly plans.
package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// RefKind discriminates the two namespaces a schedule slot can point into.
type RefKind uint8

const (
	RefCurriculum RefKind = iota + 1
	RefHot
)

const (
	hotPrefix       = "hot:"
	legacyHotPrefix = "hot_"
)

var ErrInvalidRef = errors.New("invalid topic reference")

// Ref is a reference usable in a schedule slot: either a curriculum topic or a
// hot topic, both by stable ID.
type Ref struct {
	Kind RefKind
	ID   string
}

// Curriculum returns a reference to a curriculum topic.
func Curriculum(topicID string) Ref { return Ref{Kind: RefCurriculum, ID: topicID} }

// Hot returns a reference to a hot topic.
func Hot(hotID string) Ref { return Ref{Kind: RefHot, ID: hotID} }

// IsHot reports whether r points into the hot-topic register.
func (r Ref) IsHot() bool { return r.Kind == RefHot }

// IsZero reports whether r is the zero Ref.
func (r Ref) IsZero() bool { return r.Kind == 0 && r.ID == "" }

// String renders the canonical text form: the bare topic ID for curriculum
// refs and "hot:<id>" for hot refs.
func (r Ref) String() string {
	if r.Kind == RefHot {
		return hotPrefix + r.ID
	}
	return r.ID
}

// MarshalText implements encoding.TextMarshaler.
func (r Ref) MarshalText() ([]byte, error) {
	if r.ID == "" {
		return nil, ErrInvalidRef
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. It accepts the canonical
// form only; legacy positional refs go through ParseLegacyRef.
func (r *Ref) UnmarshalText(b []byte) error {
	ref, err := ParseRef(string(b))
	if err != nil {
		return err
	}
	*r = ref
	return nil
}

// ParseRef parses the canonical text form produced by String.
func ParseRef(s string) (Ref, error) {
	s = strings.TrimSpace(s)
	if id, ok := strings.CutPrefix(s, hotPrefix); ok {
		if id == "" {
			return Ref{}, fmt.Errorf("%w: %q", ErrInvalidRef, s)
		}
		return Hot(id), nil
	}
	if s == "" {
		return Ref{}, fmt.Errorf("%w: empty", ErrInvalidRef)
	}
	return Curriculum(s), nil
}

// ParseLegacyRef parses a reference from an older snapshot. Positional hot
// refs ("hot_<n>") return the position as hotIndex and a zero Ref; the caller
// maps the position onto the hot-topic register. For every other input
// hotIndex is -1.
func ParseLegacyRef(s string) (ref Ref, hotIndex int, err error) {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, legacyHotPrefix); ok {
		if n, convErr := strconv.Atoi(rest); convErr == nil && n >= 0 {
			return Ref{}, n, nil
		}
	}
	ref, err = ParseRef(s)
	return ref, -1, err
}
