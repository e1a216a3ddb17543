package xarray

import (
	"github.com/mdframe/xarray/internal/debug"
	"github.com/mdframe/xarray/internal/xnode"
	"github.com/mdframe/xarray/internal/xstate"
)

// Range is a forward, read-only iterator over an inclusive key span,
// optionally restricted to keys carrying a single mark.
//
// A Range is not safe to share across goroutines, and mutating the tree it
// was built from invalidates it.
type Range[T any] struct {
	tree *Tree[T]

	state xstate.State[T]
	end   uint64

	filtered bool
	mark     Mark
}

// WithMark restricts the range to keys carrying m. It may be called at
// most once per range; calling it twice is a programmer error.
func (r *Range[T]) WithMark(m Mark) *Range[T] {
	debug.Assert(!r.filtered, "a range's mark filter may be set only once")
	r.filtered = true
	r.mark = m
	return r
}

// Next returns the next (key, value) pair in the range, in strictly
// increasing key order, and false once the range is exhausted. Each key is
// visited at most once over the lifetime of the range.
func (r *Range[T]) Next() (uint64, *T, bool) {
	var entry xnode.Entry[T]
	var ok bool
	if r.filtered {
		entry, ok = r.state.GetNextMarked(r.tree.root, r.end, r.mark)
	} else {
		entry, ok = r.state.GetNext(r.tree.root, r.end)
	}
	if !ok {
		return 0, nil, false
	}
	return r.state.Index, entry.AsValue(), true
}

// RangeMut is a [Range] that can also mark, unmark, and remove the value
// at its current position.
type RangeMut[T any] struct {
	Range[T]
}

// Mark tags the value at the range's current position with m. It is only
// valid to call this after a call to Next has returned true.
func (r *RangeMut[T]) Mark(m Mark) { r.state.SetMark(r.tree.root, m) }

// Unmark clears m from the value at the range's current position. It is
// only valid to call this after a call to Next has returned true.
func (r *RangeMut[T]) Unmark(m Mark) { r.state.UnsetMark(r.tree.root, m) }

// Remove clears the range's current position and returns the value it
// held. It is only valid to call this after a call to Next has returned
// true, and the range's remaining iteration resumes from the key after the
// one just removed.
func (r *RangeMut[T]) Remove() *T {
	old, _ := r.state.Store(r.tree.root, xnode.EmptyEntry[T]())
	return old.AsValue()
}
