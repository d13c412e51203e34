package coverage

import "github.com/cespare/xxhash/v2"

// MapObserver is the narrow view of a coverage observer that a MapFeedback
// needs: the raw cell slice for an execution, its length, a name used to
// locate it in an Observers bag, and a fast (non-cryptographic) hash used
// by the scheduler's n_fuzz accounting — never by the feedback itself,
// which compares cell-by-cell.
type MapObserver[T Cell] interface {
	Map() []T
	Len() int
	Name() string
	HashSimple() uint64
}

// StdMapObserver is the default MapObserver backing FluxFuzzer's HTTP
// response-derived coverage signal: a fixed-size bitmap filled by whatever
// instrumentation produced this execution's observation (an instrumented
// response header, a structural hash bucket, a timing bucket — the exact
// mapping is external to this core, per spec).
type StdMapObserver[T Cell] struct {
	name string
	data []T
}

// NewStdMapObserver creates an observer over a freshly zeroed map of the
// given length.
func NewStdMapObserver[T Cell](name string, length int) *StdMapObserver[T] {
	return &StdMapObserver[T]{name: name, data: make([]T, length)}
}

// NewStdMapObserverFrom wraps an existing slice without copying it.
func NewStdMapObserverFrom[T Cell](name string, data []T) *StdMapObserver[T] {
	return &StdMapObserver[T]{name: name, data: data}
}

func (o *StdMapObserver[T]) Map() []T   { return o.data }
func (o *StdMapObserver[T]) Len() int   { return len(o.data) }
func (o *StdMapObserver[T]) Name() string { return o.name }

// HashSimple returns a fast 64-bit hash of the raw map bytes. It is used
// only for scheduler-side frequency accounting (SchedulerMetadata.n_fuzz),
// where speed matters far more than collision resistance; content-addressed
// corpus hashing elsewhere in this package uses sha256 instead.
func (o *StdMapObserver[T]) HashSimple() uint64 {
	return xxhash.Sum64(asBytes(o.data))
}

// asBytes reinterprets a cell slice as a byte slice for hashing purposes.
// Cells are fixed-width unsigned integers, so this is a simple, safe
// byte-by-byte expansion rather than an unsafe cast.
func asBytes[T Cell](data []T) []byte {
	out := make([]byte, 0, len(data)*cellWidth[T]())
	for _, v := range data {
		switch width := cellWidth[T](); width {
		case 1:
			out = append(out, byte(v))
		default:
			u := uint32(v)
			out = append(out, byte(u), byte(u>>8), byte(u>>16), byte(u>>24))
		}
	}
	return out
}

func cellWidth[T Cell]() int {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return 1
	default:
		return 4
	}
}

// Observers is a small typed lookup the engine fills per execution and the
// feedback/scheduler core reads from by name. Concrete observer kinds other
// than MapObserver (timers, log collectors, ...) are external collaborators
// and are out of scope here.
type Observers[T Cell] struct {
	byName map[string]MapObserver[T]
}

// NewObservers creates an empty observer bag.
func NewObservers[T Cell]() *Observers[T] {
	return &Observers[T]{byName: make(map[string]MapObserver[T])}
}

// Add registers an observer under its own name.
func (o *Observers[T]) Add(obs MapObserver[T]) {
	o.byName[obs.Name()] = obs
}

// Get looks up an observer by name.
func (o *Observers[T]) Get(name string) (MapObserver[T], bool) {
	obs, ok := o.byName[name]
	return obs, ok
}
