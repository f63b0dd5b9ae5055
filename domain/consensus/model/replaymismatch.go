package model

import "fmt"

// ReplayMismatchCategory enumerates the standardized ways a replay outcome
// can differ from a block's claims.
type ReplayMismatchCategory byte

const (
	// ReplayStateHashMismatch means the replayed post-state hash differs
	// from the claimed one. Deterministic; never retried.
	ReplayStateHashMismatch ReplayMismatchCategory = iota

	// ReplayCostMismatch means a deploy's replayed cost differs from the
	// claimed one. May be transient under concurrent execution.
	ReplayCostMismatch

	// ReplayStatusMismatch means a deploy's replayed success/failure status
	// differs from the claimed one. Deterministic; never retried.
	ReplayStatusMismatch

	// ReplayUnusedEventsMismatch means replay left unused events behind.
	// May be transient under concurrent execution.
	ReplayUnusedEventsMismatch
)

var replayMismatchStrings = map[ReplayMismatchCategory]string{
	ReplayStateHashMismatch:    "StateHashMismatch",
	ReplayCostMismatch:         "CostMismatch",
	ReplayStatusMismatch:       "StatusMismatch",
	ReplayUnusedEventsMismatch: "UnusedEventsMismatch",
}

func (c ReplayMismatchCategory) String() string {
	return replayMismatchStrings[c]
}

// IsTransient returns whether validation may retry a replay that failed with
// this category.
func (c ReplayMismatchCategory) IsTransient() bool {
	return c == ReplayCostMismatch || c == ReplayUnusedEventsMismatch
}

// ReplayMismatchError is returned by ExecutionEngine.Replay when the replayed
// outcome differs from the block's claims.
type ReplayMismatchError struct {
	Category ReplayMismatchCategory
	Details  string
}

func (e *ReplayMismatchError) Error() string {
	return fmt.Sprintf("replay mismatch (%s): %s", e.Category, e.Details)
}

// NewReplayMismatchError returns a new ReplayMismatchError.
func NewReplayMismatchError(category ReplayMismatchCategory, format string, args ...interface{}) error {
	return &ReplayMismatchError{
		Category: category,
		Details:  fmt.Sprintf(format, args...),
	}
}
