// Package scheduler implements the corpus scheduling side of the
// coverage-feedback core: per-testcase accounting (depth, handicap,
// fuzz-frequency) and the Rand/Queue/Weighted/Power/ProbabilitySampling
// selection strategies that consult it.
package scheduler

import "errors"

// Sentinel errors returned by the scheduler family. The core never
// retries on any of them — transient-failure semantics belong to the
// layer above (the executor/mutation pipeline).
var (
	// ErrEmpty is returned by Next when the corpus has no entries.
	ErrEmpty = errors.New("scheduler: corpus is empty")

	// ErrKeyNotFound is returned when a required observer or metadata
	// kind is missing from its bag.
	ErrKeyNotFound = errors.New("scheduler: key not found")

	// ErrInvariantViolation is returned when a TestcaseScore produces a
	// non-finite or negative value.
	ErrInvariantViolation = errors.New("scheduler: invariant violation")
)
