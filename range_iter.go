//go:build go1.23

package xarray

import "iter"

// All adapts a [Range] to the standard iter.Seq2 shape, so it can be
// ranged over directly: for k, v := range r.All() { ... }.
func (r *Range[T]) All() iter.Seq2[uint64, *T] {
	return func(yield func(uint64, *T) bool) {
		for {
			k, v, ok := r.Next()
			if !ok {
				return
			}
			if !yield(k, v) {
				return
			}
		}
	}
}
