// Package lifecycle implements the proposal state machine: which status
// transitions are legal, who may request them, what each one requires,
// and the append-only revision history that rides along with them.
package lifecycle

import "errors"

// Every failure the core surfaces wraps exactly one of these sentinels.
// None are retried internally; callers match with errors.Is and decide
// what to do (on ErrStaleState, re-fetch and reissue).
var (
	ErrValidation        = errors.New("validation failed")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrStaleState        = errors.New("stale state")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrWrongState        = errors.New("wrong state")
)
