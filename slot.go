package gfx

// Slot is one state slot: either a value or unspecified. An unspecified slot
// means "do not touch the device". The zero Slot is unspecified.
type Slot[V ~uint8] struct {
	v  V
	ok bool
}

// Value returns a slot holding v.
func Value[V ~uint8](v V) Slot[V] {
	return Slot[V]{v: v, ok: true}
}

// Get returns the held value and whether the slot is specified.
func (s Slot[V]) Get() (V, bool) {
	return s.v, s.ok
}

// Specified reports whether the slot holds a value.
func (s Slot[V]) Specified() bool {
	return s.ok
}

// pack encodes the slot into 9 bits: a set bit above the 8-bit value.
func (s Slot[V]) pack() uint64 {
	if !s.ok {
		return 0
	}
	return 1<<8 | uint64(s.v)
}
