package memo

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skarupke/knucleotide/internal/freqtable"
)

func small(n uint64) func() (*freqtable.Table, error) {
	return func() (*freqtable.Table, error) {
		tb := freqtable.New(0)
		tb.Add(1, n)
		return tb, nil
	}
}

func TestGet_BuildsOncePerK(t *testing.T) {
	tables, err := New(1 << 20)
	require.NoError(t, err)
	defer tables.Close()

	var builds atomic.Int32
	build := func() (*freqtable.Table, error) {
		builds.Add(1)
		return small(3)()
	}

	var wg sync.WaitGroup
	got := make([]*freqtable.Table, 8)
	for i := range got {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got[i], _ = tables.Get(4, build)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), builds.Load())
	for _, tb := range got {
		require.NotNil(t, tb)
		assert.Same(t, got[0], tb)
	}
}

func TestGet_DistinctK(t *testing.T) {
	tables, err := New(1 << 20)
	require.NoError(t, err)
	defer tables.Close()

	a, err := tables.Get(1, small(1))
	require.NoError(t, err)
	b, err := tables.Get(2, small(2))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), a.Get(1))
	assert.Equal(t, uint64(2), b.Get(1))
}

func TestGet_ErrorNotCached(t *testing.T) {
	tables, err := New(1 << 20)
	require.NoError(t, err)
	defer tables.Close()

	boom := errors.New("boom")
	_, err = tables.Get(3, func() (*freqtable.Table, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	tb, err := tables.Get(3, small(5))
	require.NoError(t, err)
	assert.Equal(t, uint64(5), tb.Get(1))
}

func TestNilTablesAlwaysBuilds(t *testing.T) {
	var tables *Tables
	n := 0
	for i := 0; i < 2; i++ {
		_, err := tables.Get(1, func() (*freqtable.Table, error) { n++; return small(1)() })
		require.NoError(t, err)
	}
	assert.Equal(t, 2, n)
	tables.Close()
}

func TestGet_CacheIsScopedToItsTables(t *testing.T) {
	first, err := New(1 << 20)
	require.NoError(t, err)
	defer first.Close()
	second, err := New(1 << 20)
	require.NoError(t, err)
	defer second.Close()

	a, err := first.Get(1, small(8))
	require.NoError(t, err)
	b, err := second.Get(1, small(9))
	require.NoError(t, err)
	assert.NotSame(t, a, b)
	assert.Equal(t, uint64(9), b.Get(1), "a new Tables never sees another's entries")

	again, err := first.Get(1, small(100))
	require.NoError(t, err)
	assert.Same(t, a, again, "same Tables, same k: built once")
}
