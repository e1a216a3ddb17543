// Package xarray implements a sparse array indexed by uint64 keys over an
// internal 64-ary radix tree, modeled on the Linux kernel's XArray.
//
// Values are never owned by the tree itself — every slot holds a borrowed
// *T, and it is the caller's job (or one of the two adapters in heap.go and
// borrow.go) to decide what owns the memory behind that pointer. This keeps
// the core small: a Tree[T] is a radix tree of tagged entries plus three
// per-node mark bitmaps, nothing more.
//
// # Basic usage
//
//	t := xarray.New[int](nil)
//	v := 7
//	t.Insert(42, &v)
//	got := t.Get(42) // -> &v
//
// # Cursors and ranges
//
// A [Cursor] positions a search at one key and can read or mark the value
// there; a [CursorMut] additionally inserts and removes. A [Range] walks an
// inclusive key span in increasing order, optionally restricted to a single
// mark; a [RangeMut] additionally marks, unmarks, and removes while
// iterating.
//
// # Ownership adapters
//
// [HeapTree] boxes every inserted value with new(T). [BorrowedTree]
// delegates ownership to a caller-supplied [Capability], converting it to a
// borrow on insert and reconstituting it on remove. Both are thin wrappers
// around a Tree; neither changes the tree's traversal or mark semantics.
package xarray
