package xarray

import (
	"github.com/mdframe/xarray/internal/xalloc"
	"github.com/mdframe/xarray/internal/xnode"
	"github.com/mdframe/xarray/internal/xstate"
)

// Mark is one of the three independent per-entry tags a tree tracks. Each
// mark has its own bitmap at every internal node, aggregated bottom-up so
// that is_marked(m) is a single bit test against the root.
type Mark = xnode.Mark

// The three marks a tree supports.
const (
	Mark0 = xnode.Mark0
	Mark1 = xnode.Mark1
	Mark2 = xnode.Mark2
)

// MarkCount is the number of independent marks a tree tracks.
const MarkCount = xnode.MarkCount

// Tree is a sparse array of *T borrows keyed by uint64.
//
// A zero Tree is not ready to use; construct one with [New].
type Tree[T any] struct {
	root *xstate.Root[T]
}

// New returns an empty tree. alloc gates node allocation; a nil alloc
// permits unbounded growth ([xalloc.Unbounded]).
func New[T any](alloc xalloc.Allocator) *Tree[T] {
	return &Tree[T]{root: xstate.NewRoot[T](alloc)}
}

// IsEmpty reports whether the tree holds no values.
func (t *Tree[T]) IsEmpty() bool { return t.root.IsEmpty() }

// IsMarked reports whether any value anywhere in the tree carries m.
func (t *Tree[T]) IsMarked(m Mark) bool { return t.root.IsMarked(m) }

// Get returns the value at key, or nil if key is unoccupied. Get never
// mutates the tree.
func (t *Tree[T]) Get(key uint64) *T {
	s := xstate.New[T](key)
	return s.Load(t.root).AsValue()
}

// Insert stores v at key and returns the value key previously held, or nil
// if it was unoccupied. Unlike a map, Insert does not replace an existing
// value: if key was already occupied, v is discarded and the tree is left
// unchanged — call Remove then Insert, or use one of the adapters'
// Replace methods, for conventional replace semantics.
func (t *Tree[T]) Insert(key uint64, v *T) (*T, error) {
	c := t.CursorMut(key)
	return c.Insert(v)
}

// Remove clears key and returns the value it held, or nil if it was
// already unoccupied.
func (t *Tree[T]) Remove(key uint64) *T {
	c := t.CursorMut(key)
	return c.Remove()
}

// GetOrWith returns the value at key if present; otherwise it calls f,
// inserts the result, and returns it.
func (t *Tree[T]) GetOrWith(key uint64, f func() *T) (*T, error) {
	if v := t.Get(key); v != nil {
		return v, nil
	}
	v := f()
	old, err := t.Insert(key, v)
	if err != nil {
		return nil, err
	}
	if old != nil {
		return old, nil
	}
	return v, nil
}

// Cursor returns a read-only cursor positioned at key.
func (t *Tree[T]) Cursor(key uint64) Cursor[T] {
	return Cursor[T]{tree: t, state: xstate.New[T](key)}
}

// CursorMut returns a mutating cursor positioned at key.
func (t *Tree[T]) CursorMut(key uint64) CursorMut[T] {
	return CursorMut[T]{Cursor[T]{tree: t, state: xstate.New[T](key)}}
}

// Extract returns a read-only range iterator over [lo, hi].
func (t *Tree[T]) Extract(lo, hi uint64) Range[T] {
	return Range[T]{tree: t, state: xstate.New[T](lo), end: hi}
}

// ExtractMut returns a mutating range iterator over [lo, hi].
func (t *Tree[T]) ExtractMut(lo, hi uint64) RangeMut[T] {
	return RangeMut[T]{t.Extract(lo, hi)}
}

// Iter returns a read-only range iterator over every key in the tree.
func (t *Tree[T]) Iter() Range[T] { return t.Extract(0, ^uint64(0)) }

// IterMut returns a mutating range iterator over every key in the tree.
func (t *Tree[T]) IterMut() RangeMut[T] { return t.ExtractMut(0, ^uint64(0)) }
