// Package xstate implements the single stateful cursor that every read,
// write, and mark operation drives through a tree: it tracks where a
// traversal currently sits (which node, which offset, whether it fell off
// the tree entirely) and the handful of structural operations — growing the
// root, fabricating missing nodes on the way down, collapsing empty nodes
// back up, shrinking a root that has become a single chain — that a write
// can trigger along the way.
//
// Root and State are kept in one package for the same reason Entry and
// Node are: State needs to reach into a tree's head entry and mark bitmap
// directly, and Root's lifecycle helpers (FreeNodes) need direct access to
// entries and nodes too.
package xstate

import (
	"github.com/mdframe/xarray/internal/debug"
	"github.com/mdframe/xarray/internal/xalloc"
	"github.com/mdframe/xarray/internal/xnode"
)

// Root is the head of a tree: either empty, a single borrowed value, or the
// tagged entry of the top node, plus the tree-wide summary of which marks
// are set anywhere below it.
type Root[T any] struct {
	Head  xnode.Entry[T]
	Marks uint8
	Alloc xalloc.Allocator
}

// NewRoot returns an empty root using alloc to gate node allocation. A nil
// alloc is replaced with [xalloc.Unbounded].
func NewRoot[T any](alloc xalloc.Allocator) *Root[T] {
	if alloc == nil {
		alloc = xalloc.Unbounded{}
	}
	return &Root[T]{Alloc: alloc}
}

// IsEmpty reports whether the tree holds no values at all.
func (r *Root[T]) IsEmpty() bool { return r.Head.IsEmpty() }

// IsMarked reports whether any entry anywhere in the tree carries m.
func (r *Root[T]) IsMarked(m xnode.Mark) bool { return r.Marks&(1<<uint(m)) != 0 }

// FreeNodes walks the subtree rooted at node, in the same left-to-right,
// depth-first order the tree itself is addressed in, resetting each node's
// count and value count as it is passed. It does not unlink the nodes from
// one another; once the caller has overwritten the slot that pointed at
// node, the subtree is unreachable and left to the garbage collector.
// Values held by the subtree are left untouched — the caller is
// responsible for reclaiming them, since a bare Root does not own them.
func (r *Root[T]) FreeNodes(node *xnode.Node[T]) {
	if node == nil {
		return
	}

	top := node
	var offset uint8
	for {
		if node.Shift > 0 {
			if child := node.Slot(offset).AsNode(); child != nil {
				node = child
				offset = 0
				continue
			}
		}

		offset++
		for offset == xnode.Fanout {
			parent := node.Parent.AsNode()
			offset = node.Offset + 1
			node.Count = 0
			node.NrValue = 0

			debug.Log(nil, "free", "freed node at shift %d offset %d (%p)", node.Shift, node.Offset, node)

			if node == top {
				return
			}
			node = parent
		}
	}
}
