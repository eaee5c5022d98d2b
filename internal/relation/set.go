package relation

import (
	"sort"

	"github.com/kingrea/stackplan/internal/world"
)

// Set is an insertion-ordered collection of distinct facts.
type Set struct {
	items []Relation
}

// NewSet builds a set from the given facts, dropping duplicates.
func NewSet(items ...Relation) *Set {
	s := &Set{}
	for _, r := range items {
		s.Add(r)
	}
	return s
}

// Len returns the number of facts.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Items returns a copy of the facts in insertion order.
func (s *Set) Items() []Relation {
	if s == nil || len(s.items) == 0 {
		return nil
	}
	out := make([]Relation, len(s.items))
	copy(out, s.items)
	return out
}

// Add appends r unless an identical fact is already present.
func (s *Set) Add(r Relation) bool {
	if s.Contains(r) {
		return false
	}
	s.items = append(s.items, r)
	return true
}

// Contains reports whether an identical fact is present.
func (s *Set) Contains(r Relation) bool {
	if s == nil {
		return false
	}
	for _, existing := range s.items {
		if existing == r {
			return true
		}
	}
	return false
}

// Holds reports whether any fact matches goal under the placement rule.
func (s *Set) Holds(goal Relation, pinned bool) bool {
	if s == nil {
		return false
	}
	for _, existing := range s.items {
		if existing.Matches(goal, pinned) {
			return true
		}
	}
	return false
}

// RemoveFunc deletes every fact for which match returns true and reports how
// many were removed.
func (s *Set) RemoveFunc(match func(Relation) bool) int {
	kept := s.items[:0]
	removed := 0
	for _, r := range s.items {
		if match(r) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	for i := len(kept); i < len(s.items); i++ {
		s.items[i] = Relation{}
	}
	s.items = kept
	return removed
}

// Remove deletes r if present.
func (s *Set) Remove(r Relation) bool {
	return s.RemoveFunc(func(existing Relation) bool { return existing == r }) > 0
}

// Filter returns the facts of the given kind, in insertion order.
func (s *Set) Filter(kind Kind) []Relation {
	if s == nil {
		return nil
	}
	var out []Relation
	for _, r := range s.items {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

// Above returns the held-block fact, if the arm is loaded.
func (s *Set) Above() (Relation, bool) {
	for _, r := range s.Filter(KindAbove) {
		return r, true
	}
	return Relation{}, false
}

// Clone returns an independent copy of the set.
func (s *Set) Clone() *Set {
	return &Set{items: s.Items()}
}

// Equal reports whether both sets hold the same facts, ignoring order.
func (s *Set) Equal(other *Set) bool {
	if s.Len() != other.Len() {
		return false
	}
	for _, r := range s.Items() {
		if !other.Contains(r) {
			return false
		}
	}
	return true
}

// Sorted returns the facts in a stable canonical order.
func (s *Set) Sorted() []Relation {
	out := s.Items()
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.At != b.At {
			return a.At < b.At
		}
		if kindRank[a.Kind] != kindRank[b.Kind] {
			return kindRank[a.Kind] < kindRank[b.Kind]
		}
		if a.Upper != b.Upper {
			return a.Upper < b.Upper
		}
		return a.Lower < b.Lower
	})
	return out
}

var kindRank = map[Kind]int{KindOnTable: 0, KindOn: 1, KindClear: 2, KindAbove: 3}

// Extract derives the full fact set of a state: per non-empty location one
// OnTable for the bottom, an On for every adjacent pair and a Clear for the
// top, then an Above fact when the arm is loaded.
func Extract(state *world.State) *Set {
	return extract(state.Layout(), state.Arm())
}

// ExtractLayout derives the facts of a bare layout with an empty arm. Goal
// fact sets are built this way.
func ExtractLayout(layout world.Layout) *Set {
	return extract(layout, world.Arm{})
}

func extract(layout world.Layout, arm world.Arm) *Set {
	out := &Set{}
	for _, loc := range world.Locations {
		stack := layout.Stack(loc)
		if len(stack) == 0 {
			continue
		}
		out.items = append(out.items, OnTable(stack[0], loc))
		for i := 1; i < len(stack); i++ {
			out.items = append(out.items, On(stack[i], stack[i-1], loc))
		}
		out.items = append(out.items, Clear(stack[len(stack)-1], loc))
	}
	if !arm.Empty() {
		exposed := None
		if stack := layout.Stack(arm.At); len(stack) > 0 {
			exposed = stack[len(stack)-1]
		}
		out.items = append(out.items, Above(arm.Holding, exposed, arm.At))
	}
	return out
}
