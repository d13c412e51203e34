package coverage

import "errors"

// Sentinel errors returned by the coverage-feedback core. Callers should
// use errors.Is against these; the core never retries on any of them.
var (
	// ErrKeyNotFound is returned when a MapFeedback's named observer, or a
	// required metadata kind, is missing from the bag it was looked up in.
	ErrKeyNotFound = errors.New("coverage: key not found")

	// ErrSizeMismatch is returned when an observation's length disagrees
	// with the feedback's history map length. The feedback never truncates
	// silently.
	ErrSizeMismatch = errors.New("coverage: observation size mismatch")

	// ErrInvariantViolation is returned when a value that must be finite
	// and non-negative (e.g. a testcase score) is not.
	ErrInvariantViolation = errors.New("coverage: invariant violation")
)
