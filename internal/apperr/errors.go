// Package apperr defines the sentinel errors shared across the conversion pipeline.
package apperr

import "errors"

var (
	// ErrIncompleteConfig reports that a key required unconditionally is
	// missing from all three metadata sources.
	ErrIncompleteConfig = errors.New("incomplete config")

	// ErrUnsupportedModality reports a container path no classification
	// rule recognises.
	ErrUnsupportedModality = errors.New("unsupported modality")

	// ErrInvalidDocument reports a cross-cutting document invariant
	// violation found during final assembly.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrWrite reports a failure persisting converter output.
	ErrWrite = errors.New("write failed")

	// ErrNotFound reports a missing ledger entry.
	ErrNotFound = errors.New("not found")
)
