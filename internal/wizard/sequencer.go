package wizard

import (
	"fmt"

	"github.com/matthewbaird/gigwizard/internal/types"
)

// Sequencer is the step state machine: an ordered step list, the current step and
// the set of completed steps. It is not safe for concurrent use; the Controller
// serialises access.
type Sequencer struct {
	order     []Step
	index     map[Step]int
	current   Step
	completed map[Step]struct{}
}

// validateOrder checks that order is a non-empty list of distinct known steps.
func validateOrder(order []Step) error {
	if len(order) == 0 {
		return fmt.Errorf("step order is empty")
	}
	seen := make(map[Step]bool, len(order))
	for _, s := range order {
		if !s.Valid() {
			return fmt.Errorf("unknown step: %q", s)
		}
		if seen[s] {
			return fmt.Errorf("duplicate step: %q", s)
		}
		seen[s] = true
	}
	return nil
}

// NewSequencer creates a sequencer positioned on the first step of order.
func NewSequencer(order []Step) (*Sequencer, error) {
	if err := validateOrder(order); err != nil {
		return nil, err
	}
	s := &Sequencer{
		order: append([]Step(nil), order...),
		index: make(map[Step]int, len(order)),
	}
	for i, step := range s.order {
		s.index[step] = i
	}
	s.Reset()
	return s, nil
}

// Order returns a copy of the step order.
func (s *Sequencer) Order() []Step {
	return append([]Step(nil), s.order...)
}

// Current returns the current step.
func (s *Sequencer) Current() Step {
	return s.current
}

// Index returns the position of step in the order, or -1 if it is not part of it.
func (s *Sequencer) Index(step Step) int {
	i, ok := s.index[step]
	if !ok {
		return -1
	}
	return i
}

// Contains reports whether step is part of this sequence.
func (s *Sequencer) Contains(step Step) bool {
	_, ok := s.index[step]
	return ok
}

// IsCompleted reports whether step has been completed.
func (s *Sequencer) IsCompleted(step Step) bool {
	_, ok := s.completed[step]
	return ok
}

// Completed returns the completed steps in flow order.
func (s *Sequencer) Completed() []Step {
	out := make([]Step, 0, len(s.completed))
	for _, step := range s.order {
		if s.IsCompleted(step) {
			out = append(out, step)
		}
	}
	return out
}

// IsLast reports whether the current step is the final one.
func (s *Sequencer) IsLast() bool {
	return s.index[s.current] == len(s.order)-1
}

// Next validates the current step against f. When valid, the step is marked
// completed and the sequencer advances; at the last step it stays put. When
// invalid nothing changes and the result carries the errors.
func (s *Sequencer) Next(f types.GigFields) Result {
	res := Validate(s.current, f)
	if !res.Valid {
		return res
	}
	if s.IsLast() {
		return res
	}
	s.completed[s.current] = struct{}{}
	s.current = s.order[s.index[s.current]+1]
	return res
}

// Back retreats one step. It reports whether the step changed.
func (s *Sequencer) Back() bool {
	i := s.index[s.current]
	if i == 0 {
		return false
	}
	s.current = s.order[i-1]
	return true
}

// CanJumpTo reports whether step is reachable: completed, or not after the current step.
func (s *Sequencer) CanJumpTo(step Step) bool {
	i, ok := s.index[step]
	if !ok {
		return false
	}
	return s.IsCompleted(step) || i <= s.index[s.current]
}

// JumpTo moves to step if it is reachable and reports whether it moved.
// Unreachable targets are ignored.
func (s *Sequencer) JumpTo(step Step) bool {
	if !s.CanJumpTo(step) || step == s.current {
		return false
	}
	s.current = step
	return true
}

// Reachable lists the steps JumpTo would accept, in flow order.
func (s *Sequencer) Reachable() []Step {
	var out []Step
	for _, step := range s.order {
		if s.CanJumpTo(step) {
			out = append(out, step)
		}
	}
	return out
}

// Reset returns to the first step and forgets completed steps.
func (s *Sequencer) Reset() {
	s.current = s.order[0]
	s.completed = make(map[Step]struct{})
}

// Restore reapplies persisted step state. Completed steps outside this flow are
// dropped; current is only applied when it is part of this flow.
func (s *Sequencer) Restore(current Step, completed []Step) {
	for _, step := range completed {
		if s.Contains(step) {
			s.completed[step] = struct{}{}
		}
	}
	if s.Contains(current) {
		s.current = current
	}
}
