package scheduler

import (
	"github.com/fluxfuzzer/fluxfuzzer/internal/coverage"
	"github.com/fluxfuzzer/fluxfuzzer/internal/fuzzcore"
)

// RandScheduler feeds the fuzzer a uniformly random testcase on each
// request. Per spec.md §4.4.1, its OnAdd only links parentage — it does
// not attach the AFL-style SchedulerTestcaseMetadata or update n_fuzz,
// unlike the Queue/Weighted/Power family in §4.3.
type RandScheduler[T coverage.Cell] struct{}

// NewRandScheduler creates a RandScheduler.
func NewRandScheduler[T coverage.Cell]() *RandScheduler[T] {
	return &RandScheduler[T]{}
}

// OnAdd records the currently-scheduled id as the new testcase's parent.
func (s *RandScheduler[T]) OnAdd(state *State, id fuzzcore.CorpusId) error {
	currentID, hasCurrent := state.Corpus.Current()
	tc, err := state.Corpus.Get(id)
	if err != nil {
		return err
	}
	tc.SetParent(currentID, hasCurrent)
	return nil
}

// OnEvaluation is a no-op: RandScheduler keeps no statistics.
func (s *RandScheduler[T]) OnEvaluation(state *State, observers *coverage.Observers[T]) error {
	return nil
}

// Next draws a uniformly random id from the corpus. Precondition: the
// corpus must be non-empty, else ErrEmpty.
func (s *RandScheduler[T]) Next(state *State) (fuzzcore.CorpusId, error) {
	ids := state.Corpus.Ids()
	if len(ids) == 0 {
		return fuzzcore.CorpusId{}, ErrEmpty
	}

	id := ids[state.Rand.Below(len(ids))]
	s.SetCurrentScheduled(state, id, true)
	return id, nil
}

// SetCurrentScheduled writes id through to the corpus's current slot.
func (s *RandScheduler[T]) SetCurrentScheduled(state *State, id fuzzcore.CorpusId, ok bool) {
	setCurrentScheduled(state, id, ok)
}
