package relation

import (
	"fmt"

	"github.com/kingrea/stackplan/internal/world"
)

// Kind tags a Relation.
type Kind string

const (
	KindOnTable Kind = "on-table"
	KindOn      Kind = "on"
	KindClear   Kind = "clear"
	KindAbove   Kind = "above"
)

// None is the exposed-block sentinel of an Above fact over an empty stack.
const None world.Block = ""

// Relation is a single fact about a world. Upper is the subject block; Lower
// is the supporting block for On and the exposed block (or None) for Above.
// At records the location the fact was observed at. Only OnTable facts compare
// it when matching under a pinned placement.
type Relation struct {
	Kind  Kind           `json:"kind" yaml:"kind"`
	Upper world.Block    `json:"upper" yaml:"upper"`
	Lower world.Block    `json:"lower,omitempty" yaml:"lower,omitempty"`
	At    world.Location `json:"at" yaml:"at"`
}

// OnTable builds the fact that b is the bottom block at loc.
func OnTable(b world.Block, loc world.Location) Relation {
	return Relation{Kind: KindOnTable, Upper: b, At: loc}
}

// On builds the fact that top rests directly on bottom.
func On(top, bottom world.Block, loc world.Location) Relation {
	return Relation{Kind: KindOn, Upper: top, Lower: bottom, At: loc}
}

// Clear builds the fact that nothing rests on b.
func Clear(b world.Block, loc world.Location) Relation {
	return Relation{Kind: KindClear, Upper: b, At: loc}
}

// Above builds the fact that the arm holds held over a stack whose top is
// exposed (None when empty).
func Above(held, exposed world.Block, loc world.Location) Relation {
	return Relation{Kind: KindAbove, Upper: held, Lower: exposed, At: loc}
}

// Mentions reports whether b takes part in the fact.
func (r Relation) Mentions(b world.Block) bool {
	return r.Upper == b || (r.Lower != None && r.Lower == b)
}

// Matches reports whether r states the same fact as other. When pinned is set,
// OnTable facts must also agree on location.
func (r Relation) Matches(other Relation, pinned bool) bool {
	if r.Kind != other.Kind || r.Upper != other.Upper || r.Lower != other.Lower {
		return false
	}
	if pinned && r.Kind == KindOnTable {
		return r.At == other.At
	}
	return true
}

func (r Relation) String() string {
	switch r.Kind {
	case KindOnTable:
		return fmt.Sprintf("OnTable(%s)@%s", r.Upper, r.At)
	case KindOn:
		return fmt.Sprintf("On(%s, %s)", r.Upper, r.Lower)
	case KindClear:
		return fmt.Sprintf("Clear(%s)", r.Upper)
	case KindAbove:
		exposed := string(r.Lower)
		if r.Lower == None {
			exposed = "none"
		}
		return fmt.Sprintf("Above(%s, %s)@%s", r.Upper, exposed, r.At)
	default:
		return fmt.Sprintf("%s(%s, %s)", r.Kind, r.Upper, r.Lower)
	}
}
