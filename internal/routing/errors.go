package routing

import "errors"

// Sentinel errors returned by the orchestrator. All expected failures are
// typed results; only invariant violations are treated as defects.
var (
	// ErrContinuationNotFound means the id is unknown or expired;
	// user-visible as "nothing to expand".
	ErrContinuationNotFound = errors.New("continuation not found")

	// ErrTaskNotFound means no task matches the given id.
	ErrTaskNotFound = errors.New("task not found")

	// ErrInvalidTransition means a task was asked to move backward or out
	// of a terminal state. This is a programming defect, never corrected
	// silently.
	ErrInvalidTransition = errors.New("invalid task state transition")

	// ErrEmptySender means the inbound message carried no sender
	// identifier.
	ErrEmptySender = errors.New("empty sender identifier")
)

// Error-kind identifiers written to error log rows.
const (
	// KindQuotaExceeded marks admission denials.
	KindQuotaExceeded = "quota_exceeded"
)
