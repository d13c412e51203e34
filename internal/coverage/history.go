package coverage

// HistoryMap is the persistent per-feedback reduction of every observation
// ever seen. It is owned exclusively by a single MapFeedback.
type HistoryMap[T Cell] struct {
	cells []T
}

// NewHistoryMap allocates a history map of the given length, filled with
// the reducer's initial value (zero for Max, the type maximum for Min).
func NewHistoryMap[T Cell](length int, reducer Reducer[T]) *HistoryMap[T] {
	cells := make([]T, length)
	init := reducer.InitialValue()
	for i := range cells {
		cells[i] = init
	}
	return &HistoryMap[T]{cells: cells}
}

// Len returns the number of cells in the history map.
func (h *HistoryMap[T]) Len() int { return len(h.cells) }

// Cells exposes the raw backing slice, e.g. for persistence as a
// length-prefixed array of T by the engine.
func (h *HistoryMap[T]) Cells() []T { return h.cells }
