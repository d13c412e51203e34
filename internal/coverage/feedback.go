// Package coverage provides feedback loop for coverage-guided fuzzing.
package coverage

import (
	"crypto/sha256"
	"fmt"

	"github.com/fluxfuzzer/fluxfuzzer/internal/fuzzcore"
)

// MapFeedback compares the most recent per-cell observation against a
// persistent history map under a reducer, to detect novel coverage.
//
// A MapFeedback is constructed once per campaign and lives for its
// duration; it owns its history map exclusively.
type MapFeedback[T Cell] struct {
	history *HistoryMap[T]
	name    string
	reducer Reducer[T]

	// novelties is scratch space for the indices that were novel in the
	// most recent IsInteresting call. It is reused across runs rather than
	// reallocated, the same pooling discipline the teacher's
	// CoverageTracker history buffer uses.
	novelties []int
	track     bool
}

// NewMapFeedback creates a feedback with an explicit map size.
func NewMapFeedback[T Cell](name string, size int, reducer Reducer[T]) *MapFeedback[T] {
	return &MapFeedback[T]{
		history: NewHistoryMap[T](size, reducer),
		name:    name,
		reducer: reducer,
	}
}

// NewMapFeedbackFromObserver mirrors an observer's length instead of taking
// an explicit size.
func NewMapFeedbackFromObserver[T Cell](obs MapObserver[T], reducer Reducer[T]) *MapFeedback[T] {
	return NewMapFeedback[T](obs.Name(), obs.Len(), reducer)
}

// TrackNovelties enables recording of novel-cell indices into a per-run
// scratch vector, consumed by AppendMetadata/DiscardMetadata.
func (f *MapFeedback[T]) TrackNovelties(track bool) {
	f.track = track
}

// Name returns the feedback's stable name, used to locate its observer.
func (f *MapFeedback[T]) Name() string { return f.name }

// History exposes the owned history map (e.g. for persistence).
func (f *MapFeedback[T]) History() *HistoryMap[T] { return f.history }

// IsInteresting folds each cell of the named observer through the reducer
// against the history map and returns the count of cells whose reduced
// value differs from the stored history. Each differing cell's history
// entry is overwritten with the reduced value as a side effect.
//
// Cells are independent, so a partial failure (wrong length) never leaves
// the history map partially updated in a way that violates its invariant:
// on ErrSizeMismatch no cell has been touched yet.
func (f *MapFeedback[T]) IsInteresting(observers *Observers[T]) (uint32, error) {
	obs, ok := observers.Get(f.name)
	if !ok {
		return 0, fmt.Errorf("%w: observer %q", ErrKeyNotFound, f.name)
	}

	m := obs.Map()
	if len(m) != f.history.Len() {
		return 0, fmt.Errorf("%w: observer %q has %d cells, history has %d",
			ErrSizeMismatch, f.name, len(m), f.history.Len())
	}

	if f.track {
		f.novelties = f.novelties[:0]
	}

	var interesting uint32
	cells := f.history.cells
	for i, item := range m {
		reduced := f.reducer.Reduce(cells[i], item)
		if reduced != cells[i] {
			cells[i] = reduced
			interesting++
			if f.track {
				f.novelties = append(f.novelties, i)
			}
		}
	}

	return interesting, nil
}

// MapNoveltiesMetadata is attached to a testcase on corpus admission,
// recording which history indices this run made novel.
type MapNoveltiesMetadata struct {
	Indices []int
}

// AppendMetadata moves the scratch novelty vector into the admitted
// testcase's metadata bag. Call only after IsInteresting returned non-zero
// and the caller has decided to retain the input. An empty scratch vector
// inserts nothing.
func (f *MapFeedback[T]) AppendMetadata(bag fuzzcore.MetadataBag) {
	if !f.track || len(f.novelties) == 0 {
		return
	}
	indices := make([]int, len(f.novelties))
	copy(indices, f.novelties)
	bag.Insert(&MapNoveltiesMetadata{Indices: indices})
	f.novelties = f.novelties[:0]
}

// DiscardMetadata clears the scratch novelty vector when the run's input is
// not retained.
func (f *MapFeedback[T]) DiscardMetadata() {
	if f.track {
		f.novelties = f.novelties[:0]
	}
}

// ContentHash generates a hex-encoded SHA256 hash of arbitrary input bytes.
// This is the corpus's content-addressing hash (collision resistance
// matters here, unlike the scheduler's xxhash-based frequency hash), kept
// from the teacher's original implementation.
func ContentHash(data []byte) string {
	h := sha256.Sum256(data)
	result := make([]byte, 64)
	for i, b := range h {
		result[i*2] = "0123456789abcdef"[b>>4]
		result[i*2+1] = "0123456789abcdef"[b&0x0f]
	}
	return string(result)
}

// hashInput is an unexported alias of ContentHash.
func hashInput(input []byte) string {
	return ContentHash(input)
}
