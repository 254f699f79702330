package choreo

import "errors"

// Domain-specific errors for choreography operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrInvalidScript indicates malformed script construction input
	// (negative offsets, decreasing offsets, wrong colour count).
	// Scripts fail fast at construction and never mid-performance.
	ErrInvalidScript = errors.New("choreo: invalid script")

	// ErrNotStarted is returned by Advance when Start has not been
	// called. This is a programming error in the caller.
	ErrNotStarted = errors.New("choreo: sequencer not started")

	// ErrClockRegression is returned by Advance when the supplied time
	// is earlier than a previously observed time within the same
	// performance. The cursor is left untouched so no action is skipped
	// or re-emitted.
	ErrClockRegression = errors.New("choreo: clock moved backwards")
)
