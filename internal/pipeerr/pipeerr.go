// Package pipeerr defines the error taxonomy shared by every pipeline stage.
//
// Capability and per-page failures are absorbed at the boundary where they
// occur (a missing binary degrades a page, it does not abort a PDF); only a
// broken invariant propagates up to the orchestrator as a fatal error.
package pipeerr

import (
	"errors"
	"fmt"
)

// Sentinel errors classified by the taxonomy in the error handling design.
var (
	// ErrCapabilityMissing indicates an external tool (pdftotext, pdftoppm,
	// tesseract, sips/convert) was not found on PATH. Callers downgrade
	// gracefully rather than treat this as fatal.
	ErrCapabilityMissing = errors.New("pipeerr: required capability is missing")

	// ErrInvariantViolation indicates a code invariant was broken, e.g. a
	// parallel per-file array length mismatch. This is always fatal.
	ErrInvariantViolation = errors.New("pipeerr: invariant violation")

	// ErrCorruptCheckpoint indicates a checkpoint file failed checksum
	// validation or failed to parse. Callers treat the checkpoint as
	// absent and restart from stage 1 with a warning, not fatally.
	ErrCorruptCheckpoint = errors.New("pipeerr: checkpoint is corrupt or unreadable")

	// ErrCoverageViolation indicates page coverage was not total after
	// segmentation. Logged as a warning, never returned upward as fatal.
	ErrCoverageViolation = errors.New("pipeerr: page coverage violation")
)

// CapabilityError wraps ErrCapabilityMissing with the name of the missing tool.
type CapabilityError struct {
	Tool string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("pipeerr: capability %q is missing", e.Tool)
}

func (e *CapabilityError) Unwrap() error { return ErrCapabilityMissing }

// NewCapabilityError constructs a CapabilityError for the named tool.
func NewCapabilityError(tool string) *CapabilityError {
	return &CapabilityError{Tool: tool}
}

// InvariantError wraps ErrInvariantViolation with a description of what broke.
type InvariantError struct {
	Invariant string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("pipeerr: invariant violated: %s", e.Invariant)
}

func (e *InvariantError) Unwrap() error { return ErrInvariantViolation }

// NewInvariantError constructs an InvariantError describing the broken invariant.
func NewInvariantError(format string, args ...interface{}) *InvariantError {
	return &InvariantError{Invariant: fmt.Sprintf(format, args...)}
}

// CheckpointError wraps ErrCorruptCheckpoint with the underlying cause.
type CheckpointError struct {
	Path   string
	Reason string
}

func (e *CheckpointError) Error() string {
	return fmt.Sprintf("pipeerr: checkpoint %q corrupt: %s", e.Path, e.Reason)
}

func (e *CheckpointError) Unwrap() error { return ErrCorruptCheckpoint }

// NewCheckpointError constructs a CheckpointError for the given path and reason.
func NewCheckpointError(path, reason string) *CheckpointError {
	return &CheckpointError{Path: path, Reason: reason}
}

// IsFatal reports whether err should abort the whole run (exit code 1),
// as opposed to being absorbed at a page/file boundary.
func IsFatal(err error) bool {
	return errors.Is(err, ErrInvariantViolation)
}
