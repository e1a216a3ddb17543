package xarray

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Stats is a point-in-time summary of a tree's shape, useful for logging
// and diagnostics. Computing it walks every value in the tree.
type Stats struct {
	// Values is the number of occupied keys.
	Values int
	// Marks is the tree-wide summary bitmap: bit i is set if some value
	// anywhere in the tree carries Mark(i).
	Marks uint8
}

// Stats walks the tree and summarizes it. This is an O(n) operation.
func (t *Tree[T]) Stats() Stats {
	stats := Stats{Marks: t.root.Marks}
	r := t.Iter()
	for {
		_, _, ok := r.Next()
		if !ok {
			break
		}
		stats.Values++
	}
	return stats
}

func (s Stats) String() string {
	return fmt.Sprintf("xarray: %s values, marks=%03b", humanize.Comma(int64(s.Values)), s.Marks)
}
