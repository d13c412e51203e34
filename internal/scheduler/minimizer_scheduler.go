package scheduler

import (
	"github.com/fluxfuzzer/fluxfuzzer/internal/analyzer"
	"github.com/fluxfuzzer/fluxfuzzer/internal/coverage"
	"github.com/fluxfuzzer/fluxfuzzer/internal/fuzzcore"
)

// MinimizerPayload is the narrow view MinimizerScheduler needs from a
// testcase payload: its raw bytes, for fuzzy-hash comparison.
type MinimizerPayload interface {
	Bytes() []byte
}

// minimizerIndex is campaign-wide metadata: the TLSH hash recorded for
// every id the minimizer has seen, so later adds can be compared against
// the whole corpus without rehashing it.
type minimizerIndex struct {
	hashes map[fuzzcore.CorpusId]*analyzer.TLSHHash
}

func newMinimizerIndex() *minimizerIndex {
	return &minimizerIndex{hashes: make(map[fuzzcore.CorpusId]*analyzer.TLSHHash)}
}

// MinimizerScheduler wraps an inner Scheduler (typically a
// WeightedScheduler or QueueScheduler) and additionally flags newly added
// testcases that are near-duplicates — by TLSH fuzzy-hash distance — of an
// existing corpus entry, reporting them through Redundant rather than
// silently dropping them: corpus minimization policy (what to do with a
// redundant entry) belongs to the campaign layer, not the scheduler. This
// supplements spec.md's scheduler family with FluxFuzzer's existing TLSH
// similarity analysis (internal/analyzer), which the distilled spec's
// scheduler section does not itself call for.
type MinimizerScheduler[T coverage.Cell] struct {
	inner    Scheduler[T]
	analyzer *analyzer.TLSHAnalyzer
	index    *minimizerIndex
}

// NewMinimizerScheduler creates a MinimizerScheduler delegating selection
// to inner and flagging near-duplicates within the given TLSH config (nil
// for defaults).
func NewMinimizerScheduler[T coverage.Cell](inner Scheduler[T], config *analyzer.TLSHConfig) *MinimizerScheduler[T] {
	return &MinimizerScheduler[T]{
		inner:    inner,
		analyzer: analyzer.NewTLSHAnalyzer(config),
		index:    newMinimizerIndex(),
	}
}

func (s *MinimizerScheduler[T]) idx(state *State) *minimizerIndex {
	var idx *minimizerIndex
	if state.Metadata().Get(&idx) {
		return idx
	}
	state.Metadata().Insert(s.index)
	return s.index
}

// OnAdd delegates to the inner scheduler, then computes and stores id's
// TLSH hash if its payload is large enough (TLSH requires a minimum
// content size; smaller inputs are simply not indexed, matching
// analyzer.TLSHAnalyzer's own threshold).
func (s *MinimizerScheduler[T]) OnAdd(state *State, id fuzzcore.CorpusId) error {
	if err := s.inner.OnAdd(state, id); err != nil {
		return err
	}

	tc, err := state.Corpus.Get(id)
	if err != nil {
		return err
	}
	payload, ok := tc.Payload.(MinimizerPayload)
	if !ok {
		return nil
	}

	hash, err := s.analyzer.ComputeHash(payload.Bytes())
	if err != nil {
		// Content too small for TLSH: not an error, just unindexed.
		return nil
	}
	s.idx(state).hashes[id] = hash
	return nil
}

// OnEvaluation delegates unconditionally to the inner scheduler.
func (s *MinimizerScheduler[T]) OnEvaluation(state *State, observers *coverage.Observers[T]) error {
	return s.inner.OnEvaluation(state, observers)
}

// Next delegates selection unconditionally to the inner scheduler.
func (s *MinimizerScheduler[T]) Next(state *State) (fuzzcore.CorpusId, error) {
	return s.inner.Next(state)
}

// SetCurrentScheduled delegates to the inner scheduler.
func (s *MinimizerScheduler[T]) SetCurrentScheduled(state *State, id fuzzcore.CorpusId, ok bool) {
	s.inner.SetCurrentScheduled(state, id, ok)
}

// OnRemove drops id from the hash index and, if the inner scheduler is
// itself removable, forwards the removal.
func (s *MinimizerScheduler[T]) OnRemove(state *State, id fuzzcore.CorpusId) error {
	delete(s.idx(state).hashes, id)
	if removable, ok := s.inner.(RemovableScheduler); ok {
		return removable.OnRemove(state, id)
	}
	return nil
}

// OnReplace re-hashes id's new payload and forwards to the inner scheduler
// if removable.
func (s *MinimizerScheduler[T]) OnReplace(state *State, id fuzzcore.CorpusId) error {
	delete(s.idx(state).hashes, id)
	tc, err := state.Corpus.Get(id)
	if err == nil {
		if payload, ok := tc.Payload.(MinimizerPayload); ok {
			if hash, herr := s.analyzer.ComputeHash(payload.Bytes()); herr == nil {
				s.idx(state).hashes[id] = hash
			}
		}
	}
	if removable, ok := s.inner.(RemovableScheduler); ok {
		return removable.OnReplace(state, id)
	}
	return nil
}

// Redundant reports whether id's recorded TLSH hash is within
// threshold distance of any other indexed entry, and if so, the closest
// one. A zero threshold or an unindexed id (too small for TLSH) always
// reports not-redundant.
func (s *MinimizerScheduler[T]) Redundant(state *State, id fuzzcore.CorpusId, threshold int) (fuzzcore.CorpusId, bool) {
	idx := s.idx(state)
	target, ok := idx.hashes[id]
	if !ok {
		return fuzzcore.CorpusId{}, false
	}

	best := -1
	var bestID fuzzcore.CorpusId
	for other, hash := range idx.hashes {
		if other == id {
			continue
		}
		d := target.Distance(hash)
		if d < 0 {
			continue
		}
		if best == -1 || d < best {
			best, bestID = d, other
		}
	}
	if best >= 0 && best <= threshold {
		return bestID, true
	}
	return fuzzcore.CorpusId{}, false
}

// QueueCycles forwards to the inner scheduler if it tracks cycles.
func (s *MinimizerScheduler[T]) QueueCycles() (uint64, bool) {
	if hasCycles, ok := s.inner.(HasQueueCycles); ok {
		return hasCycles.QueueCycles(), true
	}
	return 0, false
}
