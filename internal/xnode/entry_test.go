package xnode_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/mdframe/xarray/internal/xnode"
)

func TestEntry(t *testing.T) {
	Convey("Given the empty entry", t, func() {
		e := xnode.EmptyEntry[int]()

		Convey("it is empty and nothing else", func() {
			So(e.IsEmpty(), ShouldBeTrue)
			So(e.IsValue(), ShouldBeFalse)
			So(e.IsNode(), ShouldBeFalse)
			So(e.IsSibling(), ShouldBeFalse)
		})
	})

	Convey("Given a value entry", t, func() {
		v := 42
		e := xnode.ValueEntry[int](&v)

		Convey("it round-trips through AsValue", func() {
			So(e.IsEmpty(), ShouldBeFalse)
			So(e.IsValue(), ShouldBeTrue)
			So(e.IsNode(), ShouldBeFalse)
			So(e.IsSibling(), ShouldBeFalse)
			So(e.AsValue(), ShouldEqual, &v)
			So(*e.AsValue(), ShouldEqual, 42)
		})
	})

	Convey("Given a node entry", t, func() {
		n := &xnode.Node[int]{Shift: xnode.Shift}
		e := n.AsEntry()

		Convey("it round-trips through AsNode", func() {
			So(e.IsNode(), ShouldBeTrue)
			So(e.IsValue(), ShouldBeFalse)
			So(e.IsSibling(), ShouldBeFalse)
			So(e.AsNode(), ShouldEqual, n)
		})
	})

	Convey("Given a sibling placeholder", t, func() {
		e := xnode.SiblingEntry[int](17)

		Convey("it is internal but not a node", func() {
			So(e.IsInternal(), ShouldBeTrue)
			So(e.IsNode(), ShouldBeFalse)
			So(e.IsSibling(), ShouldBeTrue)

			offset, ok := e.SiblingOffset()
			So(ok, ShouldBeTrue)
			So(offset, ShouldEqual, 17)
		})
	})

	Convey("Sibling offset 0 must not collide with the empty entry", t, func() {
		e := xnode.SiblingEntry[int](0)
		So(e.IsEmpty(), ShouldBeFalse)
		So(e.IsSibling(), ShouldBeTrue)
	})
}
