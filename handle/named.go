package handle

import (
	"errors"
	"fmt"
	"iter"
)

// ErrDuplicateName is returned when a name is already bound to a live entry.
var ErrDuplicateName = errors.New("handle: duplicate name")

// Named is a Table whose entries may also be addressed by a unique name.
// Entries added with an empty name are anonymous.
type Named[T any] struct {
	table *Table[T]
	names map[string]Handle
	byID  map[Handle]string
}

// NewNamed creates an empty named table. See New for release.
func NewNamed[T any](release func(T)) *Named[T] {
	return &Named[T]{
		table: New(release),
		names: make(map[string]Handle),
		byID:  make(map[Handle]string),
	}
}

// Add stores v under name. A name that is already in use is logged and the
// insertion is rejected with ErrDuplicateName.
func (n *Named[T]) Add(name string, v T) (Handle, error) {
	if name != "" {
		if _, dup := n.names[name]; dup {
			logger().Error("handle: duplicate name", "name", name)
			return Invalid, fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
	}
	h := n.table.Add(v)
	if name != "" {
		n.names[name] = h
		n.byID[h] = name
	}
	return h, nil
}

// Find returns the handle bound to name, or Invalid.
func (n *Named[T]) Find(name string) Handle {
	return n.names[name]
}

// Name returns the name of h, or "" for anonymous or invalid handles.
func (n *Named[T]) Name(h Handle) string {
	return n.byID[h]
}

// Remove frees h and its name. See Table.Remove.
func (n *Named[T]) Remove(h Handle) bool {
	if !n.table.Remove(h) {
		return false
	}
	if name, ok := n.byID[h]; ok {
		delete(n.names, name)
		delete(n.byID, h)
	}
	return true
}

func (n *Named[T]) Valid(h Handle) bool {
	return n.table.Valid(h)
}

func (n *Named[T]) Get(h Handle) T {
	return n.table.Get(h)
}

func (n *Named[T]) Lookup(h Handle) (T, bool) {
	return n.table.Lookup(h)
}

func (n *Named[T]) First() Handle {
	return n.table.First()
}

func (n *Named[T]) Next(h Handle) Handle {
	return n.table.Next(h)
}

func (n *Named[T]) All() iter.Seq2[Handle, T] {
	return n.table.All()
}

func (n *Named[T]) Len() int {
	return n.table.Len()
}

// Clear releases every entry and forgets all names.
func (n *Named[T]) Clear() {
	n.table.Clear()
	clear(n.names)
	clear(n.byID)
}
