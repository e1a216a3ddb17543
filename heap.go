package xarray

import "github.com/mdframe/xarray/internal/xalloc"

// HeapTree is a [Tree] that owns every value it holds: Insert copies its
// argument onto the Go heap and stores the resulting pointer, and Remove
// hands the value back by its last pointer, after which nothing in the
// tree keeps it reachable.
type HeapTree[T any] struct {
	tree *Tree[T]
}

// NewHeap returns an empty heap-owned tree.
func NewHeap[T any](alloc xalloc.Allocator) *HeapTree[T] {
	return &HeapTree[T]{tree: New[T](alloc)}
}

// IsEmpty reports whether the tree holds no values.
func (h *HeapTree[T]) IsEmpty() bool { return h.tree.IsEmpty() }

// IsMarked reports whether any value anywhere in the tree carries m.
func (h *HeapTree[T]) IsMarked(m Mark) bool { return h.tree.IsMarked(m) }

// Get returns a pointer to the value at key, or nil if key is unoccupied.
func (h *HeapTree[T]) Get(key uint64) *T { return h.tree.Get(key) }

// Insert boxes value and stores it at key, returning the value key
// previously held. As with [Tree.Insert], a conflicting key leaves the
// existing value in place and the new value is never stored.
func (h *HeapTree[T]) Insert(key uint64, value T) (*T, error) {
	v := new(T)
	*v = value
	return h.tree.Insert(key, v)
}

// Replace unconditionally stores value at key, reclaiming and returning
// whatever value previously occupied that slot.
func (h *HeapTree[T]) Replace(key uint64, value T) (*T, error) {
	old := h.tree.Remove(key)
	v := new(T)
	*v = value
	if _, err := h.tree.Insert(key, v); err != nil {
		return old, err
	}
	return old, nil
}

// Remove clears key and returns the value it held, or nil if it was
// already unoccupied.
func (h *HeapTree[T]) Remove(key uint64) *T { return h.tree.Remove(key) }

// Iter returns a read-only range iterator over every key in the tree.
func (h *HeapTree[T]) Iter() Range[T] { return h.tree.Iter() }

// Drop visits every value still held by the tree and resets it to its
// zero value, so nothing a value refers to stays reachable through this
// tree once Drop returns. It does not affect the tree's structure; callers
// that are done with the tree entirely should simply drop their last
// reference to it.
func (h *HeapTree[T]) Drop() {
	r := h.tree.IterMut()
	for {
		_, v, ok := r.Next()
		if !ok {
			break
		}
		var zero T
		*v = zero
	}
}
