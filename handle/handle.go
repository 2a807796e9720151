// Package handle provides slot tables that give heap objects stable integer
// handles.
//
// A Handle is the slot index plus one, so the zero Handle is never valid.
// Removed slots go on a free list and the most recently freed slot is handed
// out first. A slot is reused only after the handle that referenced it has
// been removed, which keeps validity checks O(1):
//
//	tbl := handle.New[*Texture](func(t *Texture) { t.Release() })
//	h := tbl.Add(tex)
//	if tbl.Valid(h) {
//	    use(tbl.Get(h))
//	}
//	tbl.Remove(h)
package handle

import (
	"fmt"
	"iter"
)

// Handle is an opaque reference to a slot in a Table.
type Handle uint32

// Invalid is the reserved empty handle.
const Invalid Handle = 0

type slot[T any] struct {
	value T
	used  bool
}

// Table is a slot allocator. The zero value is not usable; call New.
//
// Table is not safe for concurrent use.
type Table[T any] struct {
	slots   []slot[T]
	free    []int
	live    int
	release func(T)
}

// New creates an empty table. release, if non-nil, is called with the value
// of every entry that leaves the table through Remove or Clear.
func New[T any](release func(T)) *Table[T] {
	return &Table[T]{release: release}
}

// Add stores v and returns its handle.
func (t *Table[T]) Add(v T) Handle {
	var i int
	if n := len(t.free); n > 0 {
		i = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		i = len(t.slots)
		t.slots = append(t.slots, slot[T]{})
	}
	t.slots[i] = slot[T]{value: v, used: true}
	t.live++
	return Handle(i + 1)
}

// Valid reports whether h refers to an occupied slot.
func (t *Table[T]) Valid(h Handle) bool {
	i := int(h) - 1
	return h != Invalid && i < len(t.slots) && t.slots[i].used
}

// Get returns the value stored under h. It panics if h is not valid;
// check Valid first when the handle comes from an untrusted source.
func (t *Table[T]) Get(h Handle) T {
	if !t.Valid(h) {
		panic(fmt.Sprintf("handle: Get of invalid handle %d", h))
	}
	return t.slots[h-1].value
}

// Lookup returns the value stored under h and whether h is valid.
func (t *Table[T]) Lookup(h Handle) (T, bool) {
	if !t.Valid(h) {
		var zero T
		return zero, false
	}
	return t.slots[h-1].value, true
}

// Remove releases the value stored under h and frees its slot.
// An invalid handle is logged and ignored; Remove then returns false.
func (t *Table[T]) Remove(h Handle) bool {
	if !t.Valid(h) {
		logger().Error("handle: remove of invalid handle", "handle", uint32(h))
		return false
	}
	i := int(h) - 1
	v := t.slots[i].value
	t.slots[i] = slot[T]{}
	t.free = append(t.free, i)
	t.live--
	if t.release != nil {
		t.release(v)
	}
	return true
}

// First returns the live handle with the lowest slot index, or Invalid.
func (t *Table[T]) First() Handle {
	return t.scan(0)
}

// Next returns the live handle following h in slot order, or Invalid.
func (t *Table[T]) Next(h Handle) Handle {
	return t.scan(int(h))
}

func (t *Table[T]) scan(from int) Handle {
	for i := from; i < len(t.slots); i++ {
		if t.slots[i].used {
			return Handle(i + 1)
		}
	}
	return Invalid
}

// All iterates live entries in slot order. The table must not be modified
// during iteration.
func (t *Table[T]) All() iter.Seq2[Handle, T] {
	return func(yield func(Handle, T) bool) {
		for h := t.First(); h != Invalid; h = t.Next(h) {
			if !yield(h, t.slots[h-1].value) {
				return
			}
		}
	}
}

// Len returns the number of live entries.
func (t *Table[T]) Len() int {
	return t.live
}

// Cap returns the number of slots, occupied or free.
func (t *Table[T]) Cap() int {
	return len(t.slots)
}

// Clear releases every live entry and empties the table.
func (t *Table[T]) Clear() {
	if t.release != nil {
		for i := range t.slots {
			if t.slots[i].used {
				t.release(t.slots[i].value)
			}
		}
	}
	t.slots = t.slots[:0]
	t.free = t.free[:0]
	t.live = 0
}
