package orchestrator

import (
	"errors"
	"fmt"
)

// PhaseError wraps a failure with the phase it occurred in, so callers
// can tell a pre-manifest failure (phases 1-5) from an execution
// failure without string matching.
type PhaseError struct {
	Phase Phase
	Err   error
}

// Error implements the error interface.
func (e *PhaseError) Error() string {
	return fmt.Sprintf("phase %s: %v", e.Phase, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *PhaseError) Unwrap() error { return e.Err }

// CancellationError reports that an external signal ended the run. The
// manifest, when one exists, has been transitioned to aborted.
type CancellationError struct {
	Cause error
}

// Error implements the error interface.
func (e *CancellationError) Error() string {
	return fmt.Sprintf("run cancelled: %v", e.Cause)
}

// Unwrap exposes the context error.
func (e *CancellationError) Unwrap() error { return e.Cause }

// IsCancellation reports whether err is a CancellationError.
func IsCancellation(err error) bool {
	var ce *CancellationError
	return errors.As(err, &ce)
}

// FatalBatchError classifies a run where no job succeeded as fatal:
// a backend failing every single submission is a systemic failure, not
// a partial one, and the manifest ends aborted.
type FatalBatchError struct {
	Failed int
}

// Error implements the error interface.
func (e *FatalBatchError) Error() string {
	return fmt.Sprintf("all %d jobs failed, classifying run as fatal", e.Failed)
}
