// Package errs holds the sentinel errors §7's error-handling table
// classifies reconcile's failures into, grounded on the teacher's
// untaggedErr sentinel (cmd/nup/scan/command.go) generalized from one
// ad hoc value to the full classification table.
package errs

import "errors"

var (
	// ErrStoreBusy names the write-lock-timeout kind. internal/store itself
	// reports that condition as store.ErrWriteConflict, and no caller
	// retries the write.
	ErrStoreBusy = errors.New("store: busy")
	// ErrInvalidConfig means a Pipeline entry point was given bad configuration.
	ErrInvalidConfig = errors.New("config: invalid")
	// ErrInterrupted names the canceled-mid-flight kind. The scanner and
	// matcher do not return it: on cancellation they return their partial
	// result with a nil error.
	ErrInterrupted = errors.New("interrupted")
	// ErrTrackNotFound means a diagnose or manual-match call named a track
	// id the store doesn't have; no store mutation happens.
	ErrTrackNotFound = errors.New("track not found")
	// ErrFileNotFound is ErrTrackNotFound's counterpart for file ids.
	ErrFileNotFound = errors.New("file not found")
)
