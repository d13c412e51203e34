package scheduler

import (
	"math"

	"github.com/fluxfuzzer/fluxfuzzer/internal/coverage"
	"github.com/fluxfuzzer/fluxfuzzer/internal/fuzzcore"
)

// ProbabilityMetadata is campaign-wide: a map from corpus id to
// probability weight, plus the running total of those weights. Per
// spec.md §3, total_probability is maintained incrementally on every
// add/remove rather than recomputed from scratch each time — see Recompute
// for the drift-correction escape hatch spec.md §9 allows.
//
// order records insertion order alongside Map. A plain Go map's range
// order is re-randomized on every iteration, even across two iterations of
// the same map value in the same process — unlike the Rust HashMap this
// scheduler is grounded on, whose iteration order is fixed for the life of
// the map. Next must walk a stable order to satisfy spec.md §8's
// determinism law (same seed + same calls ⇒ identical id sequence), so
// order, not Map, is what Next ranges over.
type ProbabilityMetadata struct {
	Map              map[fuzzcore.CorpusId]float64
	order            []fuzzcore.CorpusId
	TotalProbability float64
}

// NewProbabilityMetadata creates an empty probability table.
func NewProbabilityMetadata() *ProbabilityMetadata {
	return &ProbabilityMetadata{Map: make(map[fuzzcore.CorpusId]float64)}
}

// set records id's weight, appending it to the stable iteration order the
// first time id is seen.
func (p *ProbabilityMetadata) set(id fuzzcore.CorpusId, weight float64) {
	if _, existed := p.Map[id]; !existed {
		p.order = append(p.order, id)
	}
	p.Map[id] = weight
}

// remove drops id from both the weight map and the stable order.
func (p *ProbabilityMetadata) remove(id fuzzcore.CorpusId) {
	delete(p.Map, id)
	for i, existing := range p.order {
		if existing == id {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// probabilityDriftTolerance bounds how far TotalProbability may drift from
// the true sum of Map's values before Recompute is worth calling; spec.md
// §9 mandates only the invariant, not the mechanism, so this is exposed as
// a constant rather than hardwired into every mutation.
const probabilityDriftTolerance = 1e-6

// Recompute recalculates TotalProbability from scratch. Spec.md §9 notes
// that under many add/remove cycles, incremental maintenance of
// TotalProbability can drift from the true sum under floating point
// arithmetic; callers may call this periodically or whenever drift is
// suspected.
func (p *ProbabilityMetadata) Recompute() {
	var total float64
	for _, v := range p.Map {
		total += v
	}
	p.TotalProbability = total
}

// Drifted reports whether TotalProbability has drifted from the true sum
// by more than the tolerance spec.md §9 suggests checking against.
func (p *ProbabilityMetadata) Drifted() bool {
	var total float64
	for _, v := range p.Map {
		total += v
	}
	bound := probabilityDriftTolerance * math.Max(1, total)
	return math.Abs(p.TotalProbability-total) > bound
}

// ProbabilitySamplingScheduler selects ids with probability proportional
// to their TestcaseScore, conducting reservoir/probabilistic sampling over
// the whole corpus on every Next call (spec.md §4.4.4).
type ProbabilitySamplingScheduler[T coverage.Cell] struct {
	score TestcaseScore
}

// NewProbabilitySamplingScheduler creates a scheduler that scores new
// testcases with the given policy.
func NewProbabilitySamplingScheduler[T coverage.Cell](score TestcaseScore) *ProbabilitySamplingScheduler[T] {
	return &ProbabilitySamplingScheduler[T]{score: score}
}

func (s *ProbabilitySamplingScheduler[T]) probMeta(state *State) *ProbabilityMetadata {
	var meta *ProbabilityMetadata
	if state.Metadata().Get(&meta) {
		return meta
	}
	meta = NewProbabilityMetadata()
	state.Metadata().Insert(meta)
	return meta
}

// storeProbability computes id's score and folds it into the probability
// table, creating the table on first use.
func (s *ProbabilitySamplingScheduler[T]) storeProbability(state *State, id fuzzcore.CorpusId) error {
	tc, err := state.Corpus.Get(id)
	if err != nil {
		return err
	}

	p, err := s.score.Compute(state, tc)
	if err != nil {
		return err
	}
	if err := validateScore(p); err != nil {
		return err
	}

	meta := s.probMeta(state)
	meta.set(id, p)
	meta.TotalProbability += p
	return nil
}

// OnAdd links parentage and stores the new testcase's probability weight.
func (s *ProbabilitySamplingScheduler[T]) OnAdd(state *State, id fuzzcore.CorpusId) error {
	currentID, hasCurrent := state.Corpus.Current()
	tc, err := state.Corpus.Get(id)
	if err != nil {
		return err
	}
	tc.SetParent(currentID, hasCurrent)

	return s.storeProbability(state, id)
}

// OnEvaluation is a no-op: scores are recomputed on add/replace only, not
// on every evaluation, per spec.md §4.5.
func (s *ProbabilitySamplingScheduler[T]) OnEvaluation(*State, *coverage.Observers[T]) error {
	return nil
}

// OnRemove subtracts id's stored weight from the running total and drops
// it from the map. A missing id is not an error.
func (s *ProbabilitySamplingScheduler[T]) OnRemove(state *State, id fuzzcore.CorpusId) error {
	meta := s.probMeta(state)
	if p, ok := meta.Map[id]; ok {
		meta.TotalProbability -= p
		meta.remove(id)
	}
	return nil
}

// OnReplace removes id's old weight then recomputes it from the testcase
// now stored at id, so the end state is identical to a fresh OnAdd on the
// cleaned-up table (spec.md §8's "replace preserves totals" law).
func (s *ProbabilitySamplingScheduler[T]) OnReplace(state *State, id fuzzcore.CorpusId) error {
	if err := s.OnRemove(state, id); err != nil {
		return err
	}
	return s.storeProbability(state, id)
}

// Next draws u uniformly from [0, 1), scales it by the running total to
// get a threshold, and returns the first id (walked in insertion order via
// meta.order) whose accumulated weight reaches that threshold. This must
// walk a stable order rather than range over meta.Map directly: Go
// re-randomizes a map's range order on every iteration, which would make
// two Next calls against the same RNG sequence pick different ids and
// break spec.md §8's determinism law.
func (s *ProbabilitySamplingScheduler[T]) Next(state *State) (fuzzcore.CorpusId, error) {
	if state.Corpus.Count() == 0 {
		return fuzzcore.CorpusId{}, ErrEmpty
	}

	meta := s.probMeta(state)
	if len(meta.order) == 0 {
		return fuzzcore.CorpusId{}, ErrEmpty
	}
	threshold := meta.TotalProbability * state.Rand.NextFloat()

	var k float64
	chosen := meta.order[len(meta.order)-1]
	found := false
	for _, id := range meta.order {
		k += meta.Map[id]
		if k >= threshold {
			chosen, found = id, true
			break
		}
	}
	_ = found

	s.SetCurrentScheduled(state, chosen, true)
	return chosen, nil
}

// SetCurrentScheduled writes id through to the corpus's current slot.
func (s *ProbabilitySamplingScheduler[T]) SetCurrentScheduled(state *State, id fuzzcore.CorpusId, ok bool) {
	setCurrentScheduled(state, id, ok)
}
