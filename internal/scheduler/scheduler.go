package scheduler

import (
	"github.com/fluxfuzzer/fluxfuzzer/internal/coverage"
	"github.com/fluxfuzzer/fluxfuzzer/internal/fuzzcore"
)

// Scheduler defines how the fuzzer requests a testcase from the corpus. It
// has hooks into corpus add/evaluation to let complex scheduling
// algorithms collect data over the campaign's lifetime.
type Scheduler[T coverage.Cell] interface {
	// OnAdd is called when a new testcase enters the corpus.
	OnAdd(state *State, id fuzzcore.CorpusId) error

	// OnEvaluation is called after every execution, whether or not its
	// input was retained.
	OnEvaluation(state *State, observers *coverage.Observers[T]) error

	// Next returns the next testcase id to fuzz and records it as
	// current. Returns ErrEmpty if the corpus has no entries.
	Next(state *State) (fuzzcore.CorpusId, error)

	// SetCurrentScheduled sets (or clears) state.Corpus's current id
	// without going through Next — used by the engine to record manual
	// overrides.
	SetCurrentScheduled(state *State, id fuzzcore.CorpusId, ok bool)
}

// RemovableScheduler is implemented by schedulers that maintain internal
// tables keyed by corpus id (weighted sums, probability totals, fuzzy-hash
// indices) and so must be told when ids are removed or replaced to keep
// those tables consistent with the corpus.
type RemovableScheduler interface {
	OnRemove(state *State, id fuzzcore.CorpusId) error
	OnReplace(state *State, id fuzzcore.CorpusId) error
}

// HasQueueCycles is implemented by schedulers that cycle through the
// corpus and can report how many full cycles they've completed.
type HasQueueCycles interface {
	QueueCycles() uint64
}

// setCurrentScheduled is the shared SetCurrentScheduled body: write
// straight through to the corpus. Every scheduler embeds or calls this so
// the "current" bookkeeping is identical across strategies.
func setCurrentScheduled(state *State, id fuzzcore.CorpusId, ok bool) {
	state.Corpus.SetCurrent(id, ok)
}
