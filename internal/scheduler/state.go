package scheduler

import "github.com/fluxfuzzer/fluxfuzzer/internal/fuzzcore"

// State is the campaign-wide state a single fuzzer worker owns: its
// corpus, its RNG, and a metadata bag for campaign-wide tables
// (SchedulerMetadata, ProbabilityMetadata). Per spec.md §5, this is
// single-threaded cooperative — exactly one worker goroutine is expected
// to call into a given State's scheduler methods at a time.
type State struct {
	Corpus fuzzcore.Corpus
	Rand   Rand
	meta   *fuzzcore.MapBag
}

// NewState creates campaign state over an existing corpus and RNG.
func NewState(corpus fuzzcore.Corpus, rnd Rand) *State {
	return &State{Corpus: corpus, Rand: rnd, meta: fuzzcore.NewMapBag()}
}

// Metadata exposes the campaign-wide metadata bag directly, for callers
// that need to store their own kinds (e.g. ProbabilityMetadata).
func (s *State) Metadata() fuzzcore.MetadataBag { return s.meta }

// SchedulerMetadata returns the campaign's n_fuzz table, allocating one
// with DefaultNFuzzLength cells the first time it's requested.
func (s *State) SchedulerMetadata() (*SchedulerMetadata, error) {
	var meta *SchedulerMetadata
	if s.meta.Get(&meta) {
		return meta, nil
	}
	meta = NewSchedulerMetadata(DefaultNFuzzLength)
	s.meta.Insert(meta)
	return meta, nil
}

// DefaultNFuzzLength is the default n_fuzz table size: a power of two at
// least 2^17, per spec.md §3.
const DefaultNFuzzLength = 1 << 17
