package model

import "github.com/rotisserie/eris"

// Sentinel errors shared across the engine. Callers match with eris.Is.
var (
	// ErrNotFound means a referenced supplier or task does not exist.
	// The unit of work is aborted; a batch run records and continues.
	ErrNotFound = eris.New("not found")

	// ErrInvalidRule means a verification rule references an unknown
	// dimension or carries a malformed trigger. The rule is skipped.
	ErrInvalidRule = eris.New("invalid rule")

	// ErrExternalCheck means the automated verification dependency failed
	// or timed out. The task is failed with a diagnostic, never left
	// in_progress and never reported verified.
	ErrExternalCheck = eris.New("external check unavailable")

	// ErrTerminalTask means a status transition tried to reopen a task
	// already in verified or failed state.
	ErrTerminalTask = eris.New("task is in a terminal state")
)
