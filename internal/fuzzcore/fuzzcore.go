// Package fuzzcore defines the narrow external-collaborator interfaces the
// scheduling and coverage-feedback core consumes: a stable testcase
// identifier, a typed metadata bag, and the corpus surface a Scheduler is
// allowed to touch. The concrete corpus store, persistence format, and
// input representation are all external to this core (see spec.md §1) —
// this package only pins down the shapes they must expose.
package fuzzcore

import "github.com/google/uuid"

// CorpusId is an opaque, stable identifier for a stored testcase. It is
// comparable for equality and hashable (usable as a map key); a total order
// is not required, matching spec.md's data model.
type CorpusId struct {
	id uuid.UUID
}

// NewCorpusId generates a fresh, campaign-unique id. uuid gives
// collision-safety across independent workers (spec.md §5's "one Campaign
// State per worker"), which a simple incrementing counter would not.
func NewCorpusId() CorpusId {
	return CorpusId{id: uuid.New()}
}

// String renders the id for logging and persistence.
func (c CorpusId) String() string { return c.id.String() }

// IsZero reports whether this is the zero CorpusId (never returned by
// NewCorpusId, used as an explicit "no id" sentinel where an Optional would
// be used in other languages).
func (c CorpusId) IsZero() bool { return c.id == uuid.Nil }

// MetadataBag is a typed get/insert/remove store keyed by the dynamic type
// of the value stored — the Go analogue of a keyed metadata map indexed by
// "metadata kind". Both per-testcase metadata (SchedulerTestcaseMetadata)
// and campaign-wide metadata (SchedulerMetadata, ProbabilityMetadata) are
// stored this way.
type MetadataBag interface {
	// Insert stores v, replacing any existing value of the same dynamic
	// type.
	Insert(v any)

	// Get retrieves the value previously inserted with the same dynamic
	// type as the value pointed to by out. out must be a non-nil pointer;
	// Get reports whether a value was found and, if so, assigns it through
	// out.
	Get(out any) bool

	// Remove deletes any value whose dynamic type matches the value
	// pointed to by out.
	Remove(out any)
}

// MapBag is a minimal MetadataBag backed by a map keyed on reflect.Type.
type MapBag struct {
	values map[any]any
}

// NewMapBag creates an empty metadata bag.
func NewMapBag() *MapBag {
	return &MapBag{values: make(map[any]any)}
}
