package scheduler

import (
	"github.com/fluxfuzzer/fluxfuzzer/internal/coverage"
	"github.com/fluxfuzzer/fluxfuzzer/internal/fuzzcore"
)

// weightedTable is the cumulative-weight index a WeightedScheduler
// materializes for O(log N) selection. It is invalidated (Stale=true) by
// any mutation of the underlying weights and rebuilt lazily on the next
// Next call, per spec.md §4.4.3.
type weightedTable struct {
	ids        []fuzzcore.CorpusId
	cumulative []float64
	total      float64
	stale      bool
}

func newWeightedTable() *weightedTable {
	return &weightedTable{stale: true}
}

// rebuild walks the corpus in id order, scoring every live entry and
// recording its running cumulative weight, so Next can binary-search the
// table instead of rescanning the whole corpus.
func (w *weightedTable) rebuild(state *State, score TestcaseScore) error {
	ids := state.Corpus.Ids()
	w.ids = w.ids[:0]
	w.cumulative = w.cumulative[:0]
	w.total = 0

	for _, id := range ids {
		tc, err := state.Corpus.Get(id)
		if err != nil {
			return err
		}
		p, err := score.Compute(state, tc)
		if err != nil {
			return err
		}
		if err := validateScore(p); err != nil {
			return err
		}
		w.total += p
		w.ids = append(w.ids, id)
		w.cumulative = append(w.cumulative, w.total)
	}
	w.stale = false
	return nil
}

// pick binary-searches the cumulative table for the first entry whose
// running weight is at least threshold.
func (w *weightedTable) pick(threshold float64) (fuzzcore.CorpusId, bool) {
	if len(w.ids) == 0 {
		return fuzzcore.CorpusId{}, false
	}
	lo, hi := 0, len(w.cumulative)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if w.cumulative[mid] >= threshold {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return w.ids[lo], true
}

// WeightedScheduler extends the AFL bookkeeping mixin with a power-
// schedule bias: Next consults the given TestcaseScore (e.g.
// LenTimeMulScore) to favor testcases that are cheap to re-fuzz, using a
// materialized cumulative-weight table that is rebuilt whenever the
// campaign's n_fuzz or testcase set has changed since the last Next call.
type WeightedScheduler[T coverage.Cell] struct {
	afl   aflMetadataMixin[T]
	score TestcaseScore
	table *weightedTable
}

// NewWeightedScheduler creates a WeightedScheduler scoring testcases with
// score and accounting frequency through the named map observer.
func NewWeightedScheduler[T coverage.Cell](mapObserverName string, score TestcaseScore) *WeightedScheduler[T] {
	return &WeightedScheduler[T]{
		afl:   newAflMetadataMixin[T](mapObserverName),
		score: score,
		table: newWeightedTable(),
	}
}

// OnAdd attaches scheduler metadata, links parentage, and invalidates the
// cumulative-weight table: the new entry changes the total.
func (s *WeightedScheduler[T]) OnAdd(state *State, id fuzzcore.CorpusId) error {
	if err := s.afl.onAddMetadata(state, id); err != nil {
		return err
	}
	s.table.stale = true
	return nil
}

// OnEvaluation updates the n_fuzz frequency table and invalidates the
// weight table, since LenTimeMulScore-style policies may depend on n_fuzz
// bucket counts.
func (s *WeightedScheduler[T]) OnEvaluation(state *State, observers *coverage.Observers[T]) error {
	if err := s.afl.onEvaluationMetadata(state, observers); err != nil {
		return err
	}
	s.table.stale = true
	return nil
}

// OnRemove invalidates the weight table; the removed id must no longer
// appear in it.
func (s *WeightedScheduler[T]) OnRemove(state *State, id fuzzcore.CorpusId) error {
	s.table.stale = true
	return nil
}

// OnReplace invalidates the weight table; the replaced id's score may have
// changed.
func (s *WeightedScheduler[T]) OnReplace(state *State, id fuzzcore.CorpusId) error {
	s.table.stale = true
	return nil
}

// Next ages the current testcase's handicap, rebuilds the weight table if
// stale, and draws an id with probability proportional to its score.
func (s *WeightedScheduler[T]) Next(state *State) (fuzzcore.CorpusId, error) {
	if state.Corpus.Count() == 0 {
		return fuzzcore.CorpusId{}, ErrEmpty
	}

	if err := s.afl.onNextMetadata(state); err != nil {
		return fuzzcore.CorpusId{}, err
	}

	if s.table.stale {
		if err := s.table.rebuild(state, s.score); err != nil {
			return fuzzcore.CorpusId{}, err
		}
	}

	threshold := s.table.total * state.Rand.NextFloat()
	id, ok := s.table.pick(threshold)
	if !ok {
		return fuzzcore.CorpusId{}, ErrEmpty
	}

	s.SetCurrentScheduled(state, id, true)
	return id, nil
}

// SetCurrentScheduled writes id through to the corpus's current slot.
func (s *WeightedScheduler[T]) SetCurrentScheduled(state *State, id fuzzcore.CorpusId, ok bool) {
	setCurrentScheduled(state, id, ok)
}
