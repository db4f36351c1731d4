package bridge

const maxTableSize = 1 << 28

// table is a free-list handle table. Index 0 is reserved so a zero handle
// stays null; removed indexes are reused.
type table[T any] struct {
	entries []tableEntry[T]
	free    []uint64
}

type tableEntry[T any] struct {
	value T
	set   bool
}

func newTable[T any]() *table[T] {
	return &table[T]{
		entries: []tableEntry[T]{{set: false}},
	}
}

func (t *table[T]) Add(entry T) uint64 {
	if len(t.free) > 0 {
		idx := t.free[len(t.free)-1]
		t.free = t.free[:len(t.free)-1]
		t.entries[idx] = tableEntry[T]{value: entry, set: true}
		return idx
	}
	idx := uint64(len(t.entries))
	if idx >= maxTableSize {
		panic("table size exceeded")
	}
	t.entries = append(t.entries, tableEntry[T]{value: entry, set: true})
	return idx
}

// Get returns the entry at idx, or the zero value and false when idx is
// null, out of range, or freed.
func (t *table[T]) Get(idx uint64) (T, bool) {
	if idx == 0 || idx >= uint64(len(t.entries)) {
		var zero T
		return zero, false
	}
	e := t.entries[idx]
	return e.value, e.set
}

// Remove frees the entry at idx. Removing an already freed or out-of-range
// index is a no-op.
func (t *table[T]) Remove(idx uint64) {
	if idx == 0 || idx >= uint64(len(t.entries)) || !t.entries[idx].set {
		return
	}
	var zero T
	t.entries[idx] = tableEntry[T]{value: zero, set: false}
	t.free = append(t.free, idx)
}
