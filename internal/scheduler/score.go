package scheduler

import (
	"fmt"
	"math"

	"github.com/fluxfuzzer/fluxfuzzer/internal/fuzzcore"
)

// TestcaseScore is a stateless policy producing a scalar, non-negative,
// finite score per testcase. Scores are recomputed on add/replace only —
// never on every evaluation — so probability/weight tables don't churn on
// every single execution (spec.md §4.5).
type TestcaseScore interface {
	Compute(state *State, tc *fuzzcore.Testcase) (float64, error)
}

// UniformScore returns a constant score for every testcase, a baseline
// policy under which every entry is equally likely to be picked.
type UniformScore struct {
	Value float64
}

// Compute returns Value, unconditionally.
func (u UniformScore) Compute(*State, *fuzzcore.Testcase) (float64, error) {
	return u.Value, nil
}

// LenTimeMulScore favors testcases that are smaller and faster to execute:
// it is proportional to the inverse of input_len * exec_time_us, so short,
// quick-to-run testcases — cheap to mutate many times per second — score
// higher than long, slow ones.
type LenTimeMulScore struct{}

// Compute requires the testcase's Payload to implement ScoreInputs; any other
// payload shape is a programmer error, surfaced as ErrInvariantViolation
// rather than silently defaulting.
func (LenTimeMulScore) Compute(_ *State, tc *fuzzcore.Testcase) (float64, error) {
	inputs, ok := tc.Payload.(ScoreInputs)
	if !ok {
		return 0, fmt.Errorf("%w: testcase payload does not implement ScoreInputs", ErrInvariantViolation)
	}

	length := float64(inputs.InputLen())
	execUs := float64(inputs.ExecTimeUs())
	if length <= 0 {
		length = 1
	}
	if execUs <= 0 {
		execUs = 1
	}

	score := 1.0 / (length * execUs)
	if score < 0 || math.IsInf(score, 0) || math.IsNaN(score) {
		return 0, fmt.Errorf("%w: computed score %v is not finite/non-negative", ErrInvariantViolation, score)
	}
	return score, nil
}

// ScoreInputs is the narrow view LenTimeMulScore needs from a testcase
// payload: its byte length and its last execution time in microseconds.
// FluxFuzzer's *coverage.CorpusEntry (enriched with an ExecTimeUs field)
// implements this.
type ScoreInputs interface {
	InputLen() int
	ExecTimeUs() int64
}

// validateScore is the shared finite/non-negative check every scheduler
// that consults a TestcaseScore runs before storing the result, per
// spec.md §4.4.4's "Require p >= 0.0 && p.is_finite()".
func validateScore(p float64) error {
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
		return fmt.Errorf("%w: score %v must be finite and non-negative", ErrInvariantViolation, p)
	}
	return nil
}
