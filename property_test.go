package xarray_test

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mdframe/xarray"
)

// TestRandomInsertThenRemoveAll mirrors the reference's random insertion
// scenario: a large set of random keys is inserted, looked up, and then
// removed in a different random order, and the tree must end up empty. The
// seed is logged so a failure can be reproduced.
func TestRandomInsertThenRemoveAll(t *testing.T) {
	seed := int64(20260731)
	t.Logf("seed: %d", seed)
	rng := rand.New(rand.NewSource(seed))

	tr := xarray.New[uint64](nil)

	const n = 5000
	seen := make(map[uint64]bool, n)
	var keys []uint64
	values := make([]uint64, 0, n)
	for len(keys) < n {
		k := rng.Uint64()
		if seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}

	for _, k := range keys {
		values = append(values, k)
	}
	for i, k := range keys {
		old, err := tr.Insert(k, &values[i])
		require.NoError(t, err)
		require.Nil(t, old)
	}

	for i, k := range keys {
		got := tr.Get(k)
		require.NotNil(t, got, "key %d", k)
		require.Equal(t, values[i], *got)
	}

	removeOrder := append([]uint64(nil), keys...)
	rng.Shuffle(len(removeOrder), func(i, j int) {
		removeOrder[i], removeOrder[j] = removeOrder[j], removeOrder[i]
	})
	for _, k := range removeOrder {
		old := tr.Remove(k)
		require.NotNil(t, old, "key %d", k)
	}
	require.True(t, tr.IsEmpty())
}

// TestIterationOrderMatchesSortedKeys inserts a random sparse set of keys
// and checks that iteration order is the sorted key order, regardless of
// insertion order.
func TestIterationOrderMatchesSortedKeys(t *testing.T) {
	seed := int64(424242)
	rng := rand.New(rand.NewSource(seed))

	tr := xarray.New[int](nil)
	const n = 2000
	seen := make(map[uint64]bool, n)
	var keys []uint64
	for len(keys) < n {
		k := rng.Uint64() % (1 << 40)
		if seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}

	values := make([]int, len(keys))
	order := rng.Perm(len(keys))
	for _, idx := range order {
		values[idx] = idx
		_, err := tr.Insert(keys[idx], &values[idx])
		require.NoError(t, err)
	}

	sorted := append([]uint64(nil), keys...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	r := tr.Iter()
	var got []uint64
	for {
		k, _, ok := r.Next()
		if !ok {
			break
		}
		got = append(got, k)
	}
	require.Equal(t, sorted, got)
}
