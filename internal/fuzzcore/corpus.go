package fuzzcore

// Testcase holds an input plus engine-attached metadata. The concrete
// input representation is external to this core (spec.md §1); Payload is
// an opaque handle the executor/mutator understand (for FluxFuzzer, a
// *coverage.CorpusEntry).
type Testcase struct {
	Payload  any
	Meta     *MapBag
	ParentID CorpusId
	HasParent bool
}

// NewTestcase wraps a payload with a fresh metadata bag.
func NewTestcase(payload any) *Testcase {
	return &Testcase{Payload: payload, Meta: NewMapBag()}
}

// Metadata returns the testcase's metadata bag.
func (t *Testcase) Metadata() MetadataBag { return t.Meta }

// SetParent records the currently-scheduled id as this testcase's parent.
func (t *Testcase) SetParent(id CorpusId, ok bool) {
	t.ParentID = id
	t.HasParent = ok
}

// Parent returns the parent id, if any.
func (t *Testcase) Parent() (CorpusId, bool) {
	return t.ParentID, t.HasParent
}

// Corpus is the surface a Scheduler is allowed to touch: count, current
// selection, lookup, and the add/remove/replace hooks that schedulers use
// to keep internal tables in sync. The physical store (disk layout,
// persistence format) is external to this core.
type Corpus interface {
	// Count returns the number of stored testcases.
	Count() int

	// Current returns the id of the testcase currently being fuzzed, if
	// any.
	Current() (CorpusId, bool)

	// SetCurrent sets (or clears, via ok=false) the currently-scheduled id.
	SetCurrent(id CorpusId, ok bool)

	// Get returns the testcase for id, or an error if absent.
	Get(id CorpusId) (*Testcase, error)

	// Ids returns every stored id, in the corpus's native (stable within a
	// single call) order.
	Ids() []CorpusId
}

// MutableCorpus extends Corpus with the write operations a campaign loop
// (as opposed to a Scheduler) needs to grow the corpus. Kept separate from
// Corpus so a Scheduler's declared dependency stays minimal.
type MutableCorpus interface {
	Corpus
	Add(tc *Testcase) CorpusId
}
