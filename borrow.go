package xarray

import "github.com/mdframe/xarray/internal/xalloc"

// Capability is a caller-owned handle that can hand out a borrow of the
// value it controls. It is the delegated-ownership half of the adapter
// layer: the tree never allocates or frees the memory behind the borrow,
// it only stores and returns the pointer Borrow hands it.
type Capability[T any] interface {
	Borrow() *T
}

// BorrowedTree is a [Tree] whose ownership is delegated to a caller-
// supplied capability type C. Insert consumes a C, storing the *T it
// borrows; Remove reconstitutes a C from the *T the tree gives back, using
// the reclaim function supplied to [NewBorrowed].
type BorrowedTree[T any, C Capability[T]] struct {
	tree    *Tree[T]
	reclaim func(*T) C
}

// NewBorrowed returns an empty borrowed-ownership tree. reclaim must
// recover the same capability (or an equivalent one) that produced a given
// borrow via Borrow.
func NewBorrowed[T any, C Capability[T]](alloc xalloc.Allocator, reclaim func(*T) C) *BorrowedTree[T, C] {
	return &BorrowedTree[T, C]{tree: New[T](alloc), reclaim: reclaim}
}

// IsEmpty reports whether the tree holds no values.
func (b *BorrowedTree[T, C]) IsEmpty() bool { return b.tree.IsEmpty() }

// IsMarked reports whether any value anywhere in the tree carries m.
func (b *BorrowedTree[T, C]) IsMarked(m Mark) bool { return b.tree.IsMarked(m) }

// Get returns a borrow of the value at key, or nil if key is unoccupied.
func (b *BorrowedTree[T, C]) Get(key uint64) *T { return b.tree.Get(key) }

// Insert consumes cap, storing the borrow it hands out at key, and returns
// the capability key previously held and whether one existed. As with
// [Tree.Insert], a conflicting key leaves the existing value in place and
// cap's borrow is never stored.
func (b *BorrowedTree[T, C]) Insert(key uint64, cap C) (old C, had bool, err error) {
	v := cap.Borrow()
	oldBorrow, err := b.tree.Insert(key, v)
	if err != nil || oldBorrow == nil {
		return old, false, err
	}
	return b.reclaim(oldBorrow), true, nil
}

// Replace unconditionally stores cap at key, reclaiming and returning
// whatever capability previously occupied that slot.
func (b *BorrowedTree[T, C]) Replace(key uint64, cap C) (old C, had bool, err error) {
	old, had = b.Remove(key)
	if _, err = b.tree.Insert(key, cap.Borrow()); err != nil {
		return old, had, err
	}
	return old, had, nil
}

// Remove clears key and reconstitutes the capability that owned its
// value, if any.
func (b *BorrowedTree[T, C]) Remove(key uint64) (cap C, had bool) {
	v := b.tree.Remove(key)
	if v == nil {
		return cap, false
	}
	return b.reclaim(v), true
}

// Iter returns a read-only range iterator over every key in the tree.
func (b *BorrowedTree[T, C]) Iter() Range[T] { return b.tree.Iter() }
