package scheduler

import (
	"github.com/fluxfuzzer/fluxfuzzer/internal/coverage"
	"github.com/fluxfuzzer/fluxfuzzer/internal/fuzzcore"
)

// QueueScheduler cycles through the corpus in insertion order, wrapping
// back to the start (and incrementing queueCycles) after the last entry.
// It carries the full AFL bookkeeping mixin, since depth/handicap/n_fuzz
// accounting is exactly what makes later scoring policies meaningful.
type QueueScheduler[T coverage.Cell] struct {
	afl         aflMetadataMixin[T]
	queueCycles uint64
}

// NewQueueScheduler creates a QueueScheduler reading the named map
// observer for frequency accounting.
func NewQueueScheduler[T coverage.Cell](mapObserverName string) *QueueScheduler[T] {
	return &QueueScheduler[T]{afl: newAflMetadataMixin[T](mapObserverName)}
}

// OnAdd attaches scheduler metadata and links parentage.
func (s *QueueScheduler[T]) OnAdd(state *State, id fuzzcore.CorpusId) error {
	return s.afl.onAddMetadata(state, id)
}

// OnEvaluation updates the campaign's n_fuzz frequency table.
func (s *QueueScheduler[T]) OnEvaluation(state *State, observers *coverage.Observers[T]) error {
	return s.afl.onEvaluationMetadata(state, observers)
}

// Next returns the entry after the current one (by insertion order),
// wrapping to the first entry and incrementing QueueCycles when it does.
// If the current id is no longer present in the corpus (removed), Next
// starts from the first entry instead of indexing past a stale position.
func (s *QueueScheduler[T]) Next(state *State) (fuzzcore.CorpusId, error) {
	ids := state.Corpus.Ids()
	if len(ids) == 0 {
		return fuzzcore.CorpusId{}, ErrEmpty
	}

	if err := s.afl.onNextMetadata(state); err != nil {
		return fuzzcore.CorpusId{}, err
	}

	nextIndex := 0
	if currentID, hasCurrent := state.Corpus.Current(); hasCurrent {
		if idx := indexOf(ids, currentID); idx >= 0 {
			nextIndex = idx + 1
			if nextIndex >= len(ids) {
				nextIndex = 0
				s.queueCycles++
			}
		}
		// Current id was removed from the corpus: advance to the first
		// valid entry rather than erroring, per spec.md §4.4.2's removal
		// policy.
	}

	id := ids[nextIndex]
	s.SetCurrentScheduled(state, id, true)
	return id, nil
}

// SetCurrentScheduled writes id through to the corpus's current slot.
func (s *QueueScheduler[T]) SetCurrentScheduled(state *State, id fuzzcore.CorpusId, ok bool) {
	setCurrentScheduled(state, id, ok)
}

// QueueCycles returns the number of full passes the scheduler has made
// through the corpus.
func (s *QueueScheduler[T]) QueueCycles() uint64 { return s.queueCycles }

func indexOf(ids []fuzzcore.CorpusId, id fuzzcore.CorpusId) int {
	for i, existing := range ids {
		if existing == id {
			return i
		}
	}
	return -1
}
