package models

import "fmt"

// GenerationError reports that the text-generation backend produced no
// usable output for a role, after the client's retry budget was spent.
// It terminates the run.
type GenerationError struct {
	Role     string
	Attempts int
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed for %s after %d attempt(s): %v", e.Role, e.Attempts, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// DataUnavailableError reports a data-source adapter failure. It is
// role-local: a non-mandatory analyst degrades to a placeholder report
// instead of failing the request.
type DataUnavailableError struct {
	Source string
	Err    error
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("data unavailable from %s: %v", e.Source, e.Err)
}

func (e *DataUnavailableError) Unwrap() error { return e.Err }

// UnclassifiableDecisionError reports synthesis text that contains no
// recognizable BUY/HOLD/SELL token. It is surfaced to the caller rather
// than defaulted, since a default would hide a synthesis-quality failure.
type UnclassifiableDecisionError struct {
	Text string
}

func (e *UnclassifiableDecisionError) Error() string {
	return "no BUY/HOLD/SELL signal found in synthesis text"
}

// RecursionLimitError reports that the orchestrator loop exceeded its
// global step cap. It indicates a routing bug and is never retried.
type RecursionLimitError struct {
	Limit int
}

func (e *RecursionLimitError) Error() string {
	return fmt.Sprintf("orchestrator exceeded recursion limit of %d steps", e.Limit)
}
