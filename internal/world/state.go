package world

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyStack is returned when popping from a location without blocks.
	ErrEmptyStack = errors.New("stack is empty")
	// ErrArmOccupied is returned when loading an arm that already holds a block.
	ErrArmOccupied = errors.New("arm already holds a block")
	// ErrArmEmpty is returned when unloading an arm that holds nothing.
	ErrArmEmpty = errors.New("arm is empty")
	// ErrUnknownLocation is returned for location values outside A/B/C.
	ErrUnknownLocation = errors.New("unknown location")
)

// IllegalActionError names the primitive whose precondition failed.
type IllegalActionError struct {
	Op       string
	Location Location
	Block    Block
	Err      error
}

func (e *IllegalActionError) Error() string {
	if e.Block != "" {
		return fmt.Sprintf("world: %s %s at %s: %v", e.Op, e.Block, e.Location, e.Err)
	}
	return fmt.Sprintf("world: %s at %s: %v", e.Op, e.Location, e.Err)
}

func (e *IllegalActionError) Unwrap() error {
	return e.Err
}

// Arm is the single-capacity manipulator. An empty Holding means the arm is
// empty.
type Arm struct {
	At      Location `json:"at" yaml:"at"`
	Holding Block    `json:"holding,omitempty" yaml:"holding,omitempty"`
}

// Empty reports whether the arm holds nothing.
func (a Arm) Empty() bool {
	return a.Holding == ""
}

// State is the mutable world: three stacks, the arm and a step counter used
// to label trace output.
type State struct {
	stacks Layout
	arm    Arm
	step   int
}

// NewState builds a world from a layout. The arm starts empty at A.
func NewState(layout Layout) *State {
	return &State{stacks: layout.Clone(), arm: Arm{At: LocationA}}
}

// Clone returns an independent copy of the state.
func (s *State) Clone() *State {
	return &State{stacks: s.stacks.Clone(), arm: s.arm, step: s.step}
}

// Layout returns a copy of the stacks.
func (s *State) Layout() Layout {
	return s.stacks.Clone()
}

// Stack returns a copy of the stack at loc, bottom-first.
func (s *State) Stack(loc Location) []Block {
	if !loc.Valid() {
		return nil
	}
	return append([]Block(nil), s.stacks[loc]...)
}

// Height returns the number of blocks stacked at loc.
func (s *State) Height(loc Location) int {
	if !loc.Valid() {
		return 0
	}
	return len(s.stacks[loc])
}

// Top returns the uppermost block at loc.
func (s *State) Top(loc Location) (Block, bool) {
	if !loc.Valid() || len(s.stacks[loc]) == 0 {
		return "", false
	}
	stack := s.stacks[loc]
	return stack[len(stack)-1], true
}

// Bottom returns the block resting on the table at loc.
func (s *State) Bottom(loc Location) (Block, bool) {
	if !loc.Valid() || len(s.stacks[loc]) == 0 {
		return "", false
	}
	return s.stacks[loc][0], true
}

// Locate finds the stack and height index (0 = bottom) of b. Blocks held by
// the arm are not on any stack and report false.
func (s *State) Locate(b Block) (Location, int, bool) {
	for _, loc := range Locations {
		for i, candidate := range s.stacks[loc] {
			if candidate == b {
				return loc, i, true
			}
		}
	}
	return 0, 0, false
}

// Arm returns the arm status.
func (s *State) Arm() Arm {
	return s.arm
}

// Step returns the trace step counter.
func (s *State) Step() int {
	return s.step
}

// Advance increments the step counter and returns the new value.
func (s *State) Advance() int {
	s.step++
	return s.step
}

// Inventory counts every block on the stacks and in the arm.
func (s *State) Inventory() map[Block]int {
	out := make(map[Block]int, s.stacks.Count()+1)
	for _, stack := range s.stacks {
		for _, b := range stack {
			out[b]++
		}
	}
	if !s.arm.Empty() {
		out[s.arm.Holding]++
	}
	return out
}

// PopTop removes and returns the top block at loc.
func (s *State) PopTop(loc Location) (Block, error) {
	if !loc.Valid() {
		return "", &IllegalActionError{Op: "pop", Location: loc, Err: ErrUnknownLocation}
	}
	stack := s.stacks[loc]
	if len(stack) == 0 {
		return "", &IllegalActionError{Op: "pop", Location: loc, Err: ErrEmptyStack}
	}
	top := stack[len(stack)-1]
	s.stacks[loc] = stack[:len(stack)-1]
	return top, nil
}

// PushTop places b on top of the stack at loc.
func (s *State) PushTop(loc Location, b Block) error {
	if !loc.Valid() {
		return &IllegalActionError{Op: "push", Location: loc, Block: b, Err: ErrUnknownLocation}
	}
	s.stacks[loc] = append(s.stacks[loc], b)
	return nil
}

// MoveArm positions the arm over loc. Legal whether or not the arm is loaded.
func (s *State) MoveArm(loc Location) error {
	if !loc.Valid() {
		return &IllegalActionError{Op: "move", Location: loc, Err: ErrUnknownLocation}
	}
	s.arm.At = loc
	return nil
}

// LoadArm puts b into the arm.
func (s *State) LoadArm(b Block) error {
	if !s.arm.Empty() {
		return &IllegalActionError{Op: "load", Location: s.arm.At, Block: b, Err: ErrArmOccupied}
	}
	s.arm.Holding = b
	return nil
}

// UnloadArm empties the arm and returns the block it held.
func (s *State) UnloadArm() (Block, error) {
	if s.arm.Empty() {
		return "", &IllegalActionError{Op: "unload", Location: s.arm.At, Err: ErrArmEmpty}
	}
	held := s.arm.Holding
	s.arm.Holding = ""
	return held, nil
}

// PickUp moves the top block under the arm into the arm. Both preconditions
// are checked before anything changes.
func (s *State) PickUp() (Block, error) {
	at := s.arm.At
	if !s.arm.Empty() {
		return "", &IllegalActionError{Op: "pick-up", Location: at, Block: s.arm.Holding, Err: ErrArmOccupied}
	}
	if s.Height(at) == 0 {
		return "", &IllegalActionError{Op: "pick-up", Location: at, Err: ErrEmptyStack}
	}
	top, err := s.PopTop(at)
	if err != nil {
		return "", err
	}
	if err := s.LoadArm(top); err != nil {
		return "", err
	}
	return top, nil
}

// PutDown places the held block on the stack under the arm.
func (s *State) PutDown() (Block, error) {
	at := s.arm.At
	if s.arm.Empty() {
		return "", &IllegalActionError{Op: "put-down", Location: at, Err: ErrArmEmpty}
	}
	held, err := s.UnloadArm()
	if err != nil {
		return "", err
	}
	if err := s.PushTop(at, held); err != nil {
		return "", err
	}
	return held, nil
}
