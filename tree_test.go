package xarray_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mdframe/xarray"
	"github.com/mdframe/xarray/internal/xalloc"
)

func TestSimpleInsertAndGet(t *testing.T) {
	tr := xarray.New[string](nil)
	require.True(t, tr.IsEmpty())

	v := "hello"
	old, err := tr.Insert(1, &v)
	require.NoError(t, err)
	require.Nil(t, old)
	require.False(t, tr.IsEmpty())

	got := tr.Get(1)
	require.NotNil(t, got)
	require.Equal(t, "hello", *got)
	require.Nil(t, tr.Get(2))
}

func TestDuplicateInsertReturnsExistingWithoutReplacing(t *testing.T) {
	tr := xarray.New[int](nil)

	a, b := 1, 2
	old, err := tr.Insert(1, &a)
	require.NoError(t, err)
	require.Nil(t, old)

	old, err = tr.Insert(1, &b)
	require.NoError(t, err)
	require.NotNil(t, old)
	require.Equal(t, 1, *old)

	got := tr.Get(1)
	require.Equal(t, 1, *got, "a conflicting insert must not replace the existing value")
}

func TestSimpleRemove(t *testing.T) {
	tr := xarray.New[int](nil)
	v := 99
	_, err := tr.Insert(1, &v)
	require.NoError(t, err)

	old := tr.Remove(1)
	require.NotNil(t, old)
	require.Equal(t, 99, *old)
	require.Nil(t, tr.Get(1))
	require.True(t, tr.IsEmpty())

	require.Nil(t, tr.Remove(1))
}

func TestGetOrWithInsertsOnlyOnMiss(t *testing.T) {
	tr := xarray.New[int](nil)
	calls := 0
	make7 := func() *int { calls++; v := 7; return &v }

	got, err := tr.GetOrWith(5, make7)
	require.NoError(t, err)
	require.Equal(t, 7, *got)
	require.Equal(t, 1, calls)

	got, err = tr.GetOrWith(5, make7)
	require.NoError(t, err)
	require.Equal(t, 7, *got)
	require.Equal(t, 1, calls, "GetOrWith must not call f again on a hit")
}

func TestRootGrowthThenShrink(t *testing.T) {
	tr := xarray.New[int](nil)

	key := ^uint64(0) - 1
	v := 42
	_, err := tr.Insert(key, &v)
	require.NoError(t, err)
	require.False(t, tr.IsEmpty())

	old := tr.Remove(key)
	require.NotNil(t, old)
	require.True(t, tr.IsEmpty(), "removing the only key must collapse the root back to empty")
}

func TestDenseClusterIterationOrder(t *testing.T) {
	tr := xarray.New[int](nil)
	const n = 4096
	values := make([]int, n)
	for i := 0; i < n; i++ {
		values[i] = i
		_, err := tr.Insert(uint64(i), &values[i])
		require.NoError(t, err)
	}

	r := tr.Iter()
	for i := 0; i < n; i++ {
		k, v, ok := r.Next()
		require.True(t, ok)
		require.Equal(t, uint64(i), k)
		require.Equal(t, i, *v)
	}
	_, _, ok := r.Next()
	require.False(t, ok)

	for i := 0; i < n; i += 2 {
		tr.Remove(uint64(i))
	}

	r = tr.Iter()
	for i := 1; i < n; i += 2 {
		k, v, ok := r.Next()
		require.True(t, ok)
		require.Equal(t, uint64(i), k)
		require.Equal(t, i, *v)
	}
	_, _, ok = r.Next()
	require.False(t, ok)
}

func TestSparseSpan(t *testing.T) {
	tr := xarray.New[int](nil)

	const n = 4096
	keys := make([]uint64, n)
	values := make([]int, n)
	step := ^uint64(0) / n
	for i := 0; i < n; i++ {
		keys[i] = uint64(i) * step
		values[i] = i
		_, err := tr.Insert(keys[i], &values[i])
		require.NoError(t, err)
	}

	for i, k := range keys {
		got := tr.Get(k)
		require.NotNil(t, got, "key %d", k)
		require.Equal(t, values[i], *got)
	}

	for i := n - 1; i >= 0; i-- {
		old := tr.Remove(keys[i])
		require.NotNil(t, old)
	}
	require.True(t, tr.IsEmpty())
}

func TestMarkRoundTripAcrossEvenKeys(t *testing.T) {
	tr := xarray.New[int](nil)

	const n = 4095
	values := make([]int, n)
	var keys []uint64
	for i := 0; i < n; i += 2 {
		values[i] = i
		_, err := tr.Insert(uint64(i), &values[i])
		require.NoError(t, err)
		keys = append(keys, uint64(i))
	}

	for _, k := range keys {
		c := tr.Cursor(k)
		c.Mark(xarray.Mark0)
	}
	require.True(t, tr.IsMarked(xarray.Mark0))

	for _, k := range keys {
		c := tr.Cursor(k)
		c.Unmark(xarray.Mark0)
	}
	require.False(t, tr.IsMarked(xarray.Mark0))
}

func TestOutOfMemorySurfacesAsNoOpStore(t *testing.T) {
	tr := xarray.New[int](xalloc.NewBounded(0))

	v := 1
	// A single bare value at key 0 never allocates a node, so the first
	// insert succeeds even with a zero-node budget.
	old, err := tr.Insert(0, &v)
	require.NoError(t, err)
	require.Nil(t, old)

	w := 2
	_, err = tr.Insert(1<<20, &w)
	require.Error(t, err)
	require.ErrorIs(t, err, xalloc.ErrOutOfMemory)
	require.Nil(t, tr.Get(1<<20), "a failed store must leave the tree unchanged")
}

func TestStatsCountsValuesAndMarks(t *testing.T) {
	tr := xarray.New[int](nil)
	require.Equal(t, 0, tr.Stats().Values)

	a, b := 1, 2
	tr.Insert(1, &a)
	tr.Insert(2, &b)
	c := tr.Cursor(1)
	c.Mark(xarray.Mark0)

	stats := tr.Stats()
	require.Equal(t, 2, stats.Values)
	require.NotEmpty(t, stats.String())
}
