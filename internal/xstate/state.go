package xstate

import (
	"github.com/mdframe/xarray/internal/debug"
	"github.com/mdframe/xarray/internal/xnode"
)

// Variant distinguishes the four shapes a State's position can be in.
type Variant uint8

const (
	// VariantRestart means the state has not yet been positioned by Load;
	// the next call to Load, Create, or Store must establish one of the
	// other three variants before any other method is meaningful.
	VariantRestart Variant = iota
	// VariantEmpty means the search found no node to stand in: the tree is
	// empty, or its head is a single value at key 0.
	VariantEmpty
	// VariantBound means the index fell outside what the tree currently
	// covers, or the cursor has run off the end of a walk.
	VariantBound
	// VariantNode means the state is positioned at a specific offset
	// within a specific node.
	VariantNode
)

// State is the single stateful cursor a traversal drives through a tree.
// It holds the index being searched for, the sibling range being written
// (always zero outside of a ranged store, which this package implements
// structurally but which no exported API ever requests), and the current
// position.
type State[T any] struct {
	Index  uint64
	Shift  uint8
	Sibs   uint8
	Offset uint8

	variant Variant
	node    *xnode.Node[T]
}

// New returns a fresh, unpositioned state searching for index.
func New[T any](index uint64) State[T] {
	return State[T]{Index: index, variant: VariantRestart}
}

// IsEmpty reports whether the state last observed an empty tree.
func (s *State[T]) IsEmpty() bool { return s.variant == VariantEmpty }

// IsBound reports whether the state has fallen outside the tree's range.
func (s *State[T]) IsBound() bool { return s.variant == VariantBound }

// IsRestart reports whether the state has not yet been positioned.
func (s *State[T]) IsRestart() bool { return s.variant == VariantRestart }

// Node returns the node the state is currently positioned at, or nil if
// the state is Empty, Bound, or Restart.
func (s *State[T]) Node() *xnode.Node[T] {
	if s.variant == VariantNode {
		return s.node
	}
	return nil
}

func (s *State[T]) setNode(n *xnode.Node[T]) {
	s.variant = VariantNode
	s.node = n
}

func (s *State[T]) setBound() {
	s.variant = VariantBound
	s.node = nil
}

func (s *State[T]) setEmpty() {
	s.variant = VariantEmpty
	s.node = nil
}

func (s *State[T]) setRestart() {
	s.variant = VariantRestart
	s.node = nil
}

// size returns the number of indices the current sibling range spans.
func (s *State[T]) size() uint64 { return (uint64(s.Sibs) + 1) << s.Shift }

// max returns the largest index covered by the current sibling range.
func (s *State[T]) max() uint64 {
	max := s.Index
	mask := s.size() - 1
	if s.Shift > 0 || s.Sibs > 0 {
		max |= mask
		if mask == max {
			max++
		}
	}
	return max
}

// moveIndex repositions Index at the first index of the given offset within
// the node the state is currently positioned at, without changing which
// node that is. Index bits below that node's digit are cleared.
func (s *State[T]) moveIndex(offset uint8) {
	node := s.Node()
	debug.Assert(node != nil, "moveIndex requires a positioned state")
	shift := node.Shift
	s.Index &= ^uint64(xnode.Mask) << shift
	s.Index += uint64(offset) << shift
}

// descend moves the state one level down into n, resolving a sibling
// placeholder at the target offset to the slot that actually holds the
// entry.
func (s *State[T]) descend(n *xnode.Node[T]) xnode.Entry[T] {
	offset := n.GetOffset(s.Index)
	entry := *n.Slot(offset)
	if sib, ok := entry.SiblingOffset(); ok {
		offset = sib
		entry = *n.Slot(offset)
	}
	s.setNode(n)
	s.Offset = offset
	return entry
}

// Load walks down from the root to the entry at Index, positioning the
// state at the node and offset that holds it (or at Empty/Bound if the
// tree does not reach that far).
func (s *State[T]) Load(root *Root[T]) xnode.Entry[T] {
	var entry xnode.Entry[T]

	if n := s.Node(); n != nil {
		entry = *n.Slot(s.Offset)
	} else {
		switch {
		case root.Head.IsNode() && s.Index>>root.Head.AsNode().Shift > xnode.Mask:
			s.setBound()
			entry = xnode.EmptyEntry[T]()
		case root.Head.IsValue() && s.Index != 0:
			s.setBound()
			entry = xnode.EmptyEntry[T]()
		default:
			s.setEmpty()
			entry = root.Head
		}
	}

	for {
		node := entry.AsNode()
		if node == nil {
			break
		}
		if s.Shift > node.Shift {
			entry = node.AsEntry()
			break
		}
		entry = s.descend(node)
		if s.Node().Shift == 0 {
			break
		}
	}
	return entry
}

// SetMark tags the entry at the state's current position with m, and
// propagates the bit up through every ancestor and into the root's
// tree-wide summary.
func (s *State[T]) SetMark(root *Root[T], m xnode.Mark) {
	node := s.Node()
	offset := s.Offset
	for node != nil {
		node.Marks[m] |= uint64(1) << offset
		offset = node.Offset
		node = node.Parent.AsNode()
	}
	root.Marks |= 1 << uint(m)
}

// UnsetMark clears m from the entry at the state's current position,
// propagating the clear upward only as long as each ancestor's bitmap for
// m becomes entirely empty; once an ancestor still has some other slot
// marked, the walk — and the root summary — are left untouched.
func (s *State[T]) UnsetMark(root *Root[T], m xnode.Mark) {
	node := s.Node()
	offset := s.Offset
	for node != nil {
		node.Marks[m] &^= uint64(1) << offset
		if node.Marks[m] != 0 {
			return
		}
		offset = node.Offset
		node = node.Parent.AsNode()
	}
	root.Marks &^= 1 << uint(m)
}

// alloc creates a new node at shift, linking it to whatever the state is
// currently positioned at (the empty root, or a specific parent node and
// offset), and reserving its memory through the root's allocator.
func (s *State[T]) alloc(root *Root[T], shift uint8) (*xnode.Node[T], error) {
	var parent xnode.Entry[T]
	if !s.IsEmpty() {
		p := s.Node()
		debug.Assert(p != nil, "alloc requires an Empty or positioned search state")
		if p != nil {
			parent = p.AsEntry()
		}
	}

	if err := root.Alloc.Reserve(); err != nil {
		return nil, err
	}

	n := &xnode.Node[T]{Shift: shift, Parent: parent}
	if p := s.Node(); p != nil {
		n.Offset = s.Offset
		p.Count++
	}
	return n, nil
}

// expand grows the root, wrapping head in successively higher parent
// nodes until it can address max (the largest index the pending write
// touches). The old head's tree-wide mark bits are copied onto the new
// root's slot 0, since that slot is where the old head now lives. Returns
// the shift one level above the resulting head node (that node's shift plus
// Shift), which create counts down from; for an empty head it is one level
// above the top node a store at max needs, or 0 when max is 0.
func (s *State[T]) expand(root *Root[T], head xnode.Entry[T]) (uint8, error) {
	max := s.max()

	var shift uint8
	var node *xnode.Node[T]

	switch {
	case head.IsNode():
		n := head.AsNode()
		shift = n.Shift + xnode.Shift
		node = n
	case head.IsValue():
		// shift and node stay at their zero values; the loop below grows
		// from a bare value the same way it grows from nothing.
	default:
		if max == 0 {
			return 0, nil
		}
		for (max >> shift) >= xnode.Fanout {
			shift += xnode.Shift
		}
		return shift + xnode.Shift, nil
	}

	for max > head.MaxIndex() {
		n, err := s.alloc(root, shift)
		if err != nil {
			return 0, err
		}

		n.Count = 1
		if head.IsValue() {
			n.NrValue = 1
		}
		*n.Slot(0) = head

		for _, m := range [xnode.MarkCount]xnode.Mark{xnode.Mark0, xnode.Mark1, xnode.Mark2} {
			if root.IsMarked(m) {
				n.Marks[m] |= 1
			}
		}

		if hn := head.AsNode(); hn != nil {
			hn.Offset = 0
			hn.Parent = n.AsEntry()
		}

		head = n.AsEntry()
		root.Head = head
		shift += xnode.Shift
		node = n

		debug.Log(nil, "expand", "grew root to shift %d (%p)", shift, n)
	}

	s.setNode(node)
	return shift, nil
}

// create walks down from the root, fabricating any nodes missing along
// the way, until the state is positioned at the slot where index belongs.
// allowRoot permits a store at key 0 into an empty tree to place the entry
// directly in the root head, with no node at all; Store clears it when the
// entry being stored is itself a node, which must not be mistaken for one
// of the tree's own levels, so that a leaf is fabricated instead.
func (s *State[T]) create(root *Root[T], allowRoot bool) (xnode.Entry[T], error) {
	order := s.Shift

	var slot *xnode.Entry[T]
	var entry xnode.Entry[T]
	var shift uint8

	if n := s.Node(); n != nil {
		offset := s.Offset
		shift = n.Shift
		entry = *n.Slot(offset)
		slot = n.Slot(offset)
	} else {
		s.setEmpty()
		newShift, err := s.expand(root, root.Head)
		if err != nil {
			return xnode.EmptyEntry[T](), err
		}
		shift = newShift
		if shift == 0 && !allowRoot {
			shift = xnode.Shift
		}
		entry = root.Head
		slot = &root.Head
	}

descend:
	for shift > order {
		shift -= xnode.Shift

		var node *xnode.Node[T]
		switch {
		case entry.IsNode():
			node = entry.AsNode()
		case entry.IsValue():
			break descend
		default:
			n, err := s.alloc(root, shift)
			if err != nil {
				// Drop a node fabricated earlier in this walk that is
				// still empty, so the failed store leaves no trace.
				if p := s.Node(); p != nil && p.Count == 0 {
					s.deleteNode(root)
				}
				return xnode.EmptyEntry[T](), err
			}
			*slot = n.AsEntry()
			node = n

			debug.Log(nil, "descend", "fabricated node at shift %d (%p)", shift, n)
		}

		entry = s.descend(node)
		slot = s.Node().Slot(s.Offset)
	}
	return entry, nil
}

// updateNode applies the accumulated slot-count and value-count deltas a
// Store pass produced to node, deleting it (and any now-empty ancestors)
// if the delta made it empty.
func (s *State[T]) updateNode(root *Root[T], node *xnode.Node[T], count, values int) {
	if count == 0 && values == 0 {
		return
	}
	if node == nil {
		return
	}
	node.Count = uint8(int(node.Count) + count)
	node.NrValue = uint8(int(node.NrValue) + values)
	if count < 0 {
		s.deleteNode(root)
	}
}

// deleteNode frees the node the state is positioned at if its count is
// zero, and walks up freeing each ancestor that becomes empty as a result,
// stopping at the first node that still holds something (and calling
// shrink if that node is the root, or emptying the head if the root itself
// became empty).
func (s *State[T]) deleteNode(root *Root[T]) {
	node := s.Node()
	debug.Assert(node != nil, "deleteNode requires a positioned state")

	for node.Count == 0 {
		offset := node.Offset
		parent := node.Parent.AsNode()
		s.Offset = offset

		if parent != nil {
			*parent.Slot(offset) = xnode.EmptyEntry[T]()
			parent.Count--
			s.setNode(parent)
			node = parent
		} else {
			root.Head = xnode.EmptyEntry[T]()
			s.setBound()
			return
		}
	}

	if node.Parent.IsEmpty() {
		s.shrink(root)
	}
}

// shrink lowers the tree while the root node's only occupied slot is slot
// 0 and it holds a leaf-level node or a value: that child becomes the new
// head. A root whose only child is a node above leaf level is left as it
// is.
func (s *State[T]) shrink(root *Root[T]) {
	node := s.Node()
	debug.Assert(node != nil, "shrink requires a positioned state")

	for node.Count == 1 {
		rawEntry := *node.Slot(0)
		if rawEntry.IsEmpty() {
			break
		}

		var child *xnode.Node[T]
		if n := rawEntry.AsNode(); n != nil {
			if n.Shift != 0 {
				break
			}
			child = n
		}

		s.setBound()
		root.Head = rawEntry

		debug.Log(nil, "shrink", "collapsed root to %v", rawEntry)

		if child == nil {
			break
		}
		node = child
		node.Parent = xnode.EmptyEntry[T]()
	}
}

// Store writes entry at the state's current position (positioning it
// there first via create, or via load if entry is empty), freeing any
// subtree it displaces and updating ancestor slot/value counts. It returns
// whatever entry previously occupied that position.
func (s *State[T]) Store(root *Root[T], entry xnode.Entry[T]) (xnode.Entry[T], error) {
	var first xnode.Entry[T]
	var isValue bool

	if !entry.IsEmpty() {
		created, err := s.create(root, !entry.IsNode())
		if err != nil {
			return created, err
		}
		first = created
		isValue = entry.IsValue()
	} else {
		first = s.Load(root)
		isValue = false
	}

	if s.IsBound() || s.IsRestart() {
		return first, nil
	}

	if node := s.Node(); node != nil && s.Shift < node.Shift {
		s.Sibs = 0
	}

	if first == entry && s.Sibs == 0 {
		return first, nil
	}

	// A cleared slot keeps no marks, so ancestor bitmaps and the root
	// summary only reflect values still in the tree.
	if entry.IsEmpty() {
		for _, m := range [xnode.MarkCount]xnode.Mark{xnode.Mark0, xnode.Mark1, xnode.Mark2} {
			s.UnsetMark(root, m)
		}
	}

	next := first
	offset := s.Offset
	max := s.Offset + s.Sibs

	type cursor struct {
		node *xnode.Node[T]
		ofs  uint8
	}
	var slot *cursor
	if node := s.Node(); node != nil {
		if s.Sibs != 0 {
			// Squashing the mark bitmap across [offset, max] onto the
			// canonical slot before the tail slots are overwritten with
			// sibling placeholders is not implemented: no exported API
			// ever requests a ranged store (Sibs is always 0 there), and
			// no test in this package requests one either.
			debug.Assert(false, "ranged store mark squashing reached with Sibs>0")
		}
		slot = &cursor{node, offset}
	}

	count, values := 0, 0
	for {
		if slot != nil {
			*slot.node.Slot(slot.ofs) = entry
			slot = &cursor{slot.node, slot.ofs + 1}
		} else {
			root.Head = entry
		}

		nextHadValue := !next.IsEmpty()

		if nn := next.AsNode(); nn != nil {
			if cur := s.Node(); cur == nil || cur.Shift != 0 {
				root.FreeNodes(nn)
			}
		}

		if s.Node() == nil {
			break
		}

		oldEmpty, newEmpty := 0, 0
		if !nextHadValue {
			oldEmpty = 1
		}
		if entry.IsEmpty() {
			newEmpty = 1
		}
		count += oldEmpty - newEmpty

		oldNotValue, newNotValue := 0, 0
		if !first.IsValue() {
			oldNotValue = 1
		}
		if !isValue {
			newNotValue = 1
		}
		values += oldNotValue - newNotValue

		if !entry.IsEmpty() {
			if offset == max {
				break
			}
			if !entry.IsSibling() {
				entry = xnode.SiblingEntry[T](s.Offset)
			}
		} else if offset == xnode.Mask {
			break
		}

		offset++
		node := s.Node()
		next = *node.Slot(offset)
		if _, ok := next.SiblingOffset(); !ok {
			if entry.IsEmpty() && offset > max {
				break
			}
			first = next
		}
	}

	s.updateNode(root, s.Node(), count, values)
	return first, nil
}

// Next advances Index by one position and re-derives which node and
// offset that position falls in, walking up through parents (and setting
// Bound if it runs off the top) and back down through any node entries it
// lands on.
func (s *State[T]) Next() {
	if !s.IsRestart() {
		s.Index++
	}
	if s.IsEmpty() {
		s.setBound()
		return
	}

	node := s.Node()
	if node == nil {
		return
	}

	if s.Offset != node.GetOffset(s.Index) {
		s.Offset++
	}
	for s.Offset == xnode.Fanout {
		s.Offset = node.Offset + 1
		if p := node.Parent.AsNode(); p != nil {
			s.setNode(p)
			node = p
		} else {
			s.setBound()
			return
		}
	}

	for {
		entry := *s.Node().Slot(s.Offset)
		if n := entry.AsNode(); n != nil {
			s.Offset = n.GetOffset(s.Index)
			s.setNode(n)
		} else {
			break
		}
	}
}

// Find scans forward from the state's current position for the next
// occupied value slot at an index no greater than end.
func (s *State[T]) Find(root *Root[T], end uint64) (xnode.Entry[T], bool) {
	if s.IsBound() {
		return xnode.EmptyEntry[T](), false
	}
	if s.Index > end {
		s.setBound()
		return xnode.EmptyEntry[T](), false
	}

	if s.IsEmpty() {
		s.Index = 1
		s.setBound()
		return xnode.EmptyEntry[T](), false
	} else if s.IsRestart() {
		entry := s.Load(root)
		if entry.IsValue() {
			return entry, true
		} else if s.Node() == nil {
			return xnode.EmptyEntry[T](), false
		}
	} else if node := s.Node(); node != nil {
		if node.Shift == 0 && node.Offset != uint8(s.Index&xnode.Mask) {
			s.Offset = uint8((s.Index-1)&xnode.Mask) + 1
		}
	}

	s.Offset++
	s.moveIndex(s.Offset)

	for s.Node() != nil && s.Index <= end {
		node := s.Node()
		if s.Offset == xnode.Fanout {
			s.Offset = node.Offset + 1
			if p := node.Parent.AsNode(); p != nil {
				s.setNode(p)
			} else {
				s.setEmpty()
			}
			continue
		}

		entry := *node.Slot(s.Offset)
		if n := entry.AsNode(); n != nil {
			s.setNode(n)
			s.Offset = 0
			continue
		}
		if entry.IsValue() && !entry.IsSibling() {
			return entry, true
		}
		s.Offset++
		s.moveIndex(s.Offset)
	}

	if s.IsEmpty() {
		s.setBound()
	}
	return xnode.EmptyEntry[T](), false
}

// FindMarked is Find's marked-entry counterpart: it scans forward for the
// next slot carrying m, using each node's per-mark bitmap to skip whole
// runs of unmarked slots at once instead of testing every offset.
func (s *State[T]) FindMarked(root *Root[T], end uint64, m xnode.Mark) (xnode.Entry[T], bool) {
	if s.Index > end {
		s.setRestart()
		return xnode.EmptyEntry[T](), false
	}

	var advance bool
	switch {
	case s.IsEmpty():
		s.Index = 1
		s.setBound()
		return xnode.EmptyEntry[T](), false
	case s.Node() == nil:
		s.setEmpty()
		var headMax uint64
		if hn := root.Head.AsNode(); hn != nil {
			headMax = hn.MaxIndex()
		}
		if s.Index > headMax {
			s.setBound()
			return xnode.EmptyEntry[T](), false
		}
		if hn := root.Head.AsNode(); hn != nil {
			s.Offset = uint8(s.Index >> hn.Shift)
			s.setNode(hn)
		} else {
			if root.IsMarked(m) {
				return root.Head, true
			}
			s.Index = 1
			s.setBound()
			return xnode.EmptyEntry[T](), false
		}
		advance = false
	default:
		advance = true
	}

	for s.Index <= end {
		node := s.Node()
		if s.Offset == xnode.Fanout {
			s.Offset = node.Offset + 1
			if p := node.Parent.AsNode(); p != nil {
				s.setNode(p)
			} else {
				s.setEmpty()
			}
			if s.IsEmpty() {
				break
			}
			advance = false
			continue
		}

		if !advance {
			if sib, ok := node.Slot(s.Offset).SiblingOffset(); ok {
				s.Offset = sib
				s.moveIndex(s.Offset)
			}
		}

		var advanceBit uint8
		if advance {
			advanceBit = 1
		}
		offset := s.Node().FindMark(s.Offset+advanceBit, m)
		if offset > s.Offset {
			advance = false
			s.moveIndex(offset)
			if s.Index > end {
				s.setRestart()
				return xnode.EmptyEntry[T](), false
			}
			s.Offset = offset
			if offset == xnode.Fanout {
				continue
			}
		}

		entry := *node.Slot(s.Offset)
		if n := entry.AsNode(); n != nil {
			s.Offset = n.GetOffset(s.Index)
			s.setNode(n)
		} else {
			return entry, true
		}
	}

	if s.Index > end {
		s.setRestart()
	} else {
		s.setBound()
	}
	return xnode.EmptyEntry[T](), false
}

// GetNext is Next plus Find: on the common case — still inside the same
// leaf node, not at its last slot — it advances one slot directly, only
// falling back to the general Find walk at a node boundary or when the
// next slot holds a node rather than a plain value.
func (s *State[T]) GetNext(root *Root[T], end uint64) (xnode.Entry[T], bool) {
	node := s.Node()
	if s.Offset != uint8(s.Index&xnode.Mask) {
		return s.Find(root, end)
	}
	if node == nil {
		return s.Find(root, end)
	}
	if node.Shift > 0 {
		return s.Find(root, end)
	}

	for {
		if s.Index >= end || s.Offset == xnode.Mask {
			return s.Find(root, end)
		}
		entry := *node.Slot(s.Offset + 1)
		if entry.IsInternal() {
			return s.Find(root, end)
		}
		s.Index++
		s.Offset++
		if !entry.IsEmpty() {
			return entry, true
		}
	}
}

// GetNextMarked is GetNext's marked-entry counterpart.
func (s *State[T]) GetNextMarked(root *Root[T], end uint64, m xnode.Mark) (xnode.Entry[T], bool) {
	node := s.Node()
	if node == nil || node.Shift > 0 {
		return s.FindMarked(root, end, m)
	}

	offset := node.FindMark(s.Offset+1, m)
	s.Offset = offset
	s.Index = (s.Index &^ uint64(xnode.Mask)) + uint64(offset)

	if s.Index > end {
		return xnode.EmptyEntry[T](), false
	} else if offset == xnode.Fanout {
		return s.FindMarked(root, end, m)
	}

	entry := *node.Slot(offset)
	if entry.IsEmpty() {
		return s.FindMarked(root, end, m)
	}
	return entry, true
}
