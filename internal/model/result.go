package model

import "errors"

// Outcome is the tri-state result of a best-effort dual write.
type Outcome int

const (
	// OutcomeFailure means nothing was written.
	OutcomeFailure Outcome = iota
	// OutcomePartial means at least one step was written and at least one failed.
	OutcomePartial
	// OutcomeFull means every step was written.
	OutcomeFull
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFull:
		return "full_success"
	case OutcomePartial:
		return "partial_success"
	default:
		return "failure"
	}
}

// WriteResult describes how far a membership operation got.
type WriteResult struct {
	Outcome Outcome
	// FailedSide is set for OutcomePartial results of two-sided writes.
	FailedSide Side
}

// FullSuccess is the result of a completed write.
func FullSuccess() WriteResult {
	return WriteResult{Outcome: OutcomeFull}
}

// PartialSuccess is the result of a write where side failed.
func PartialSuccess(side Side) WriteResult {
	return WriteResult{Outcome: OutcomePartial, FailedSide: side}
}

// Failure is the result of a write that did not persist anything.
func Failure() WriteResult {
	return WriteResult{Outcome: OutcomeFailure}
}

// ResultOf derives a WriteResult from an error returned by a membership operation.
func ResultOf(err error) WriteResult {
	if err == nil {
		return FullSuccess()
	}
	var pw *PartialWriteError
	if errors.As(err, &pw) {
		return PartialSuccess(pw.FailedSide)
	}
	if errors.Is(err, ErrPartialWrite) {
		return WriteResult{Outcome: OutcomePartial}
	}
	return Failure()
}
