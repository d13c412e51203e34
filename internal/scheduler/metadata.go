package scheduler

import (
	"github.com/cespare/xxhash/v2"

	"github.com/fluxfuzzer/fluxfuzzer/internal/coverage"
	"github.com/fluxfuzzer/fluxfuzzer/internal/fuzzcore"
)

// SchedulerTestcaseMetadata is the per-testcase bookkeeping every AFL-style
// scheduler reads and writes: depth along the parent chain, an aging
// handicap that influences later scoring, and the n_fuzz bucket this
// testcase entered the corpus under.
type SchedulerTestcaseMetadata struct {
	Depth       uint32
	Handicap    uint32
	NFuzzEntry  uint64
}

// SchedulerMetadata is campaign-wide: a fixed-size saturating frequency
// table indexed by a hash of the observed coverage map, counting how many
// times the campaign has visited each hash bucket.
type SchedulerMetadata struct {
	NFuzz []uint32
}

// NewSchedulerMetadata allocates a frequency table of the given length
// (fixed for the campaign's lifetime; spec.md requires it is never
// resized). A power-of-two length of at least 2^17 is recommended, per
// spec.md §3, to keep the hash's modulo reduction cheap and well spread.
func NewSchedulerMetadata(length int) *SchedulerMetadata {
	return &SchedulerMetadata{NFuzz: make([]uint32, length)}
}

// saturatingIncrement adds 1 to v, clamping at the type's maximum instead
// of wrapping.
func saturatingIncrement(v uint32) uint32 {
	if v == ^uint32(0) {
		return v
	}
	return v + 1
}

// aflMetadataMixin implements the three bookkeeping hooks shared by every
// AFL-style scheduler (spec.md §4.3): on_add, on_evaluation, on_next. It is
// embedded by value into concrete schedulers so they each get their own
// lastHash without sharing mutable state through pointers.
type aflMetadataMixin[T coverage.Cell] struct {
	lastHash         uint64
	mapObserverName  string
}

func newAflMetadataMixin[T coverage.Cell](mapObserverName string) aflMetadataMixin[T] {
	return aflMetadataMixin[T]{mapObserverName: mapObserverName}
}

// LastHash returns the hash bucket recorded by the most recent
// onEvaluation call.
func (m *aflMetadataMixin[T]) LastHash() uint64 { return m.lastHash }

// onAddMetadata attaches SchedulerTestcaseMetadata to a newly added
// testcase and links it to the currently-scheduled parent, exactly per
// spec.md §4.3: depth is the parent's depth + 1; with no current parent
// the parent depth counts as 0, so a root's attached depth is 1.
func (m *aflMetadataMixin[T]) onAddMetadata(state *State, id fuzzcore.CorpusId) error {
	currentID, hasCurrent := state.Corpus.Current()

	var depth uint32
	if hasCurrent {
		parent, err := state.Corpus.Get(currentID)
		if err != nil {
			return err
		}
		var parentMeta *SchedulerTestcaseMetadata
		if parent.Metadata().Get(&parentMeta) {
			depth = parentMeta.Depth
		}
	}
	depth++

	tc, err := state.Corpus.Get(id)
	if err != nil {
		return err
	}
	tc.Metadata().Insert(&SchedulerTestcaseMetadata{
		Depth:      depth,
		NFuzzEntry: m.lastHash,
	})
	tc.SetParent(currentID, hasCurrent)
	return nil
}

// onEvaluationMetadata hashes the named map observer with xxhash (fast,
// non-cryptographic — this is a hot-path frequency counter, not a content
// address), reduces it modulo n_fuzz's fixed length, and saturating-
// increments that bucket.
func (m *aflMetadataMixin[T]) onEvaluationMetadata(state *State, observers *coverage.Observers[T]) error {
	obs, ok := observers.Get(m.mapObserverName)
	if !ok {
		return ErrKeyNotFound
	}

	meta, err := state.SchedulerMetadata()
	if err != nil {
		return err
	}

	hash := obs.HashSimple() % uint64(len(meta.NFuzz))
	meta.NFuzz[hash] = saturatingIncrement(meta.NFuzz[hash])
	m.lastHash = hash
	return nil
}

// onNextMetadata ages the currently-scheduled testcase's handicap: -4 if
// it's at least 4, else -1 if positive, else untouched. Handicap decays
// linearly to zero.
func (m *aflMetadataMixin[T]) onNextMetadata(state *State) error {
	currentID, hasCurrent := state.Corpus.Current()
	if !hasCurrent {
		return nil
	}

	tc, err := state.Corpus.Get(currentID)
	if err != nil {
		return err
	}

	var meta *SchedulerTestcaseMetadata
	if !tc.Metadata().Get(&meta) {
		return nil
	}

	switch {
	case meta.Handicap >= 4:
		meta.Handicap -= 4
	case meta.Handicap > 0:
		meta.Handicap--
	}
	return nil
}

// hashMap64 is a small helper exposed for tests that want to hash a raw
// cell slice the same way onEvaluationMetadata does, without constructing
// a full Observers bag.
func hashMap64(data []byte) uint64 {
	return xxhash.Sum64(data)
}
