// Package apperr holds the sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrInvalidName = errors.New("invalid name")
	// ErrLoad marks a failure to read one of the sources of truth during sync.
	ErrLoad = errors.New("load failed")
	// ErrWrite marks a failure to write or remove a note file.
	ErrWrite = errors.New("write failed")
	// ErrNotReady marks a mutation attempted before the first successful sync.
	ErrNotReady = errors.New("not ready")
)
