package xarray

import (
	"github.com/pkg/errors"

	"github.com/mdframe/xarray/internal/debug"
	"github.com/mdframe/xarray/internal/xnode"
	"github.com/mdframe/xarray/internal/xstate"
)

// Cursor is a read-only position within a tree: a borrowed tree plus a
// search state fixed at one key.
type Cursor[T any] struct {
	tree  *Tree[T]
	state xstate.State[T]
}

// Current returns the value at the cursor's key, or nil if unoccupied.
func (c *Cursor[T]) Current() *T {
	return c.state.Load(c.tree.root).AsValue()
}

// Mark tags the value at the cursor's key with m. The slot must currently
// hold a value; marking an empty slot is a programmer error.
func (c *Cursor[T]) Mark(m Mark) {
	entry := c.state.Load(c.tree.root)
	debug.Assert(entry.IsValue(), "Mark called on an empty slot at key %d", c.state.Index)
	c.state.SetMark(c.tree.root, m)
}

// Unmark clears m from the value at the cursor's key. The slot must
// currently hold a value.
func (c *Cursor[T]) Unmark(m Mark) {
	entry := c.state.Load(c.tree.root)
	debug.Assert(entry.IsValue(), "Unmark called on an empty slot at key %d", c.state.Index)
	c.state.UnsetMark(c.tree.root, m)
}

// CursorMut is a [Cursor] that can also insert and remove.
type CursorMut[T any] struct {
	Cursor[T]
}

// Insert stores v at the cursor's key and returns the value that key
// previously held. If the key was already occupied, v is discarded and the
// existing value is returned unchanged — see [Tree.Insert].
func (c *CursorMut[T]) Insert(v *T) (*T, error) {
	debug.Assert(c.state.Sibs == 0, "a public cursor must never request a ranged store")
	if old := c.state.Load(c.tree.root).AsValue(); old != nil {
		return old, nil
	}
	old, err := c.state.Store(c.tree.root, xnode.ValueEntry(v))
	if err != nil {
		return nil, errors.Wrapf(err, "xarray: insert at key %d", c.state.Index)
	}
	return old.AsValue(), nil
}

// Remove clears the cursor's key and returns the value it held, or nil if
// it was already unoccupied.
func (c *CursorMut[T]) Remove() *T {
	old, _ := c.state.Store(c.tree.root, xnode.EmptyEntry[T]())
	return old.AsValue()
}
