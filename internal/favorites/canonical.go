// Package favorites keeps the persisted set of favorited artworks consistent
// across independently mounted surfaces.
//
// Persistence is the single source of truth. Surfaces read on mount and on
// every change notification; no surface treats its in-memory copy as
// authoritative.
package favorites

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Prefix is the canonical artwork id prefix.
const Prefix = "WRK"

// ErrUnparseableID is returned for identifiers that do not name an artwork.
var ErrUnparseableID = errors.New("unparseable artwork identifier")

// CanonicalID is the normalized artwork identifier, e.g. "WRK-007".
type CanonicalID string

// Canonicalize normalizes numeric and string identifiers to one form, so 7,
// "7", "WRK-7", "wrk_007" and "WRK-007" are the same artwork.
func Canonicalize(v any) (CanonicalID, error) {
	var n int64
	switch id := v.(type) {
	case CanonicalID:
		return Canonicalize(string(id))
	case int:
		n = int64(id)
	case int32:
		n = int64(id)
	case int64:
		n = id
	case uint:
		if uint64(id) > math.MaxInt64 {
			return "", fmt.Errorf("%w: %v", ErrUnparseableID, v)
		}
		n = int64(id)
	case uint32:
		n = int64(id)
	case float64:
		if id != math.Trunc(id) || math.IsInf(id, 0) || math.IsNaN(id) || id > math.MaxInt64 {
			return "", fmt.Errorf("%w: %v", ErrUnparseableID, v)
		}
		n = int64(id)
	case string:
		parsed, err := parseString(id)
		if err != nil {
			return "", err
		}
		n = parsed
	case fmt.Stringer:
		return Canonicalize(id.String())
	default:
		return "", fmt.Errorf("%w: unsupported type %T", ErrUnparseableID, v)
	}

	if n <= 0 {
		return "", fmt.Errorf("%w: %v", ErrUnparseableID, v)
	}
	return CanonicalID(fmt.Sprintf("%s-%03d", Prefix, n)), nil
}

func parseString(raw string) (int64, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.TrimPrefix(s, Prefix)
	s = strings.TrimLeft(s, "-_ #")
	if s == "" {
		return 0, fmt.Errorf("%w: %q", ErrUnparseableID, raw)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%w: %q", ErrUnparseableID, raw)
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnparseableID, raw)
	}
	return n, nil
}

// Set is an immutable snapshot of the favorited ids.
type Set struct {
	ids      map[CanonicalID]struct{}
	Revision int64
}

// NewSet builds a snapshot from persisted ids. Unparseable entries are dropped.
func NewSet(ids []string, revision int64) Set {
	s := Set{ids: make(map[CanonicalID]struct{}, len(ids)), Revision: revision}
	for _, raw := range ids {
		id, err := Canonicalize(raw)
		if err != nil {
			continue
		}
		s.ids[id] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s Set) Has(id CanonicalID) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of favorites.
func (s Set) Len() int {
	return len(s.ids)
}

// IDs returns the ids in sorted order.
func (s Set) IDs() []CanonicalID {
	out := make([]CanonicalID, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Strings returns the sorted ids as strings, the persisted form.
func (s Set) Strings() []string {
	ids := s.IDs()
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

// toggled returns a copy of s with id's membership flipped.
func (s Set) toggled(id CanonicalID) (Set, bool) {
	next := Set{ids: make(map[CanonicalID]struct{}, len(s.ids)+1), Revision: s.Revision}
	for k := range s.ids {
		next.ids[k] = struct{}{}
	}
	if _, ok := next.ids[id]; ok {
		delete(next.ids, id)
		return next, false
	}
	next.ids[id] = struct{}{}
	return next, true
}
