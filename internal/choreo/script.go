package choreo

import "fmt"

// Step pairs an action with the number of seconds after performance start
// at which it becomes due.
type Step struct {
	Offset float64
	Action Action
}

// Script is an ordered, immutable choreography.
//
// Offsets are non-decreasing; ties are allowed and all tied actions fire
// on the same Advance call, in authoring order. A Script is owned by the
// Sequencer that plays it and is never mutated after construction.
type Script struct {
	steps []Step
}

// NewScript validates and builds a Script from authoring steps.
//
// Validation rules:
//   - every offset must be >= 0
//   - offsets must be non-decreasing
//
// Parameters:
//   - steps: the authoring steps, in playback order
//
// Returns:
//   - *Script: the immutable script
//   - error: wrapping ErrInvalidScript on any rule violation
func NewScript(steps []Step) (*Script, error) {
	prev := 0.0
	for i, step := range steps {
		if step.Offset < 0 {
			return nil, fmt.Errorf("%w: step %d has negative offset %g", ErrInvalidScript, i, step.Offset)
		}
		if step.Offset < prev {
			return nil, fmt.Errorf("%w: step %d offset %g precedes step %d offset %g",
				ErrInvalidScript, i, step.Offset, i-1, prev)
		}
		if step.Action == nil {
			return nil, fmt.Errorf("%w: step %d has no action", ErrInvalidScript, i)
		}
		prev = step.Offset
	}

	// Copy so later mutation of the caller's slice cannot reach us.
	owned := make([]Step, len(steps))
	copy(owned, steps)

	return &Script{steps: owned}, nil
}

// Len returns the number of steps in the script.
func (s *Script) Len() int {
	return len(s.steps)
}

// Duration returns the offset of the last step, i.e. the scripted length
// of the performance in seconds. An empty script has duration 0.
func (s *Script) Duration() float64 {
	if len(s.steps) == 0 {
		return 0
	}
	return s.steps[len(s.steps)-1].Offset
}

// DefaultScript returns the built-in choreography used when no script
// file is configured: a short drive-and-spin routine with colour changes,
// ending with a Finished step that parks the robot and releases the ring.
func DefaultScript() *Script {
	steps := []Step{
		{Offset: 0, Action: SolidLights(White)},
		{Offset: 0, Action: NewMove(0.15, 0)},
		{Offset: 2, Action: SolidLights(Cyan)},
		{Offset: 2, Action: NewMove(0, 45)},
		{Offset: 4, Action: SolidLights(Purple)},
		{Offset: 4, Action: NewMove(0.15, -45)},
		{Offset: 8, Action: SolidLights(Pink)},
		{Offset: 8, Action: NewMove(-0.15, 45)},
		{Offset: 12, Action: SolidLights(Yellow)},
		{Offset: 12, Action: NewMove(0, 60)},
		{Offset: 16, Action: SolidLights(Green)},
		{Offset: 16, Action: NewMove(0.2, 0)},
		{Offset: 18, Action: Finished{}},
	}

	script, err := NewScript(steps)
	if err != nil {
		// The built-in script is a compile-time constant in all but
		// syntax; a validation failure here is a bug.
		panic(err)
	}
	return script
}
