package fuzzcore

import "reflect"

// Insert stores v keyed by its own dynamic type. Callers store pointers
// (e.g. *SchedulerTestcaseMetadata) so Get can mutate in place.
func (b *MapBag) Insert(v any) {
	b.values[reflect.TypeOf(v)] = v
}

// Get looks up the value whose dynamic type matches *out, and if found,
// assigns it through out. out must be a non-nil pointer to an interface or
// pointer type, e.g. Get(&ptr) where ptr is *SchedulerTestcaseMetadata.
func (b *MapBag) Get(out any) bool {
	outVal := reflect.ValueOf(out)
	if outVal.Kind() != reflect.Ptr || outVal.IsNil() {
		return false
	}
	target := outVal.Elem()
	stored, ok := b.values[target.Type()]
	if !ok {
		return false
	}
	target.Set(reflect.ValueOf(stored))
	return true
}

// Remove deletes the value whose dynamic type matches *out.
func (b *MapBag) Remove(out any) {
	outVal := reflect.ValueOf(out)
	if outVal.Kind() != reflect.Ptr || outVal.IsNil() {
		return
	}
	delete(b.values, outVal.Elem().Type())
}
