package choreo

import "time"

// Sequencer walks a Script against a clock, returning every action whose
// offset has elapsed since the previous query. Each action is returned
// exactly once per performance.
//
// Thread Safety:
//   - NOT safe for concurrent use. The tick loop owns the sequencer and
//     is the only caller; see the performer package.
type Sequencer struct {
	script *Script

	started   bool
	startTime time.Time

	// lastNow is the latest time observed by Start or Advance, used to
	// detect clock regression.
	lastNow time.Time

	// cursor indexes the first step not yet emitted. It only moves
	// forward; Start resets it for a new performance.
	cursor int
}

// NewSequencer creates a Sequencer for the given script.
func NewSequencer(script *Script) *Sequencer {
	return &Sequencer{script: script}
}

// Start begins a performance at the given time.
//
// It may be called again at any point to restart the same script from
// the top; the script itself is never modified.
func (s *Sequencer) Start(now time.Time) {
	s.started = true
	s.startTime = now
	s.lastNow = now
	s.cursor = 0
}

// Advance returns, in script order, every action whose offset has elapsed
// by now and that has not been returned before in this performance.
//
// It is safe to call at any rate; calls between scripted offsets return
// an empty slice. An offset of exactly 0 fires on the first call even
// when now equals the start time.
//
// Returns:
//   - []Action: newly due actions, possibly empty
//   - error: ErrNotStarted if Start was never called, or
//     ErrClockRegression if now precedes a previously observed time
//     (the cursor is left untouched)
func (s *Sequencer) Advance(now time.Time) ([]Action, error) {
	if !s.started {
		return nil, ErrNotStarted
	}
	if now.Before(s.lastNow) {
		return nil, ErrClockRegression
	}
	s.lastNow = now

	elapsed := now.Sub(s.startTime).Seconds()

	var actions []Action
	for s.cursor < len(s.script.steps) && s.script.steps[s.cursor].Offset <= elapsed {
		actions = append(actions, s.script.steps[s.cursor].Action)
		s.cursor++
	}
	return actions, nil
}

// Done reports whether every step of the script has been emitted in the
// current performance. A sequencer that was never started is not done.
func (s *Sequencer) Done() bool {
	return s.started && s.cursor == len(s.script.steps)
}
