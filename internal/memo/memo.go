// Package memo shares finished frequency tables between jobs that need the
// same window size.
package memo

import (
	"sync"

	"github.com/dgraph-io/ristretto"

	"github.com/skarupke/knucleotide/internal/freqtable"
)

// Tables caches the tables of one sequence by k. Keys carry no trace of the
// sequence, so a Tables must not be reused for another one. Cached tables are
// shared and must be treated as read-only. A nil *Tables caches nothing.
type Tables struct {
	cache *ristretto.Cache
	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

// New sizes the cache by total table entries.
func New(maxEntries int64) (*Tables, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        10 * 64, // a handful of distinct k values
		MaxCost:            maxEntries,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &Tables{cache: cache, locks: make(map[int]*sync.Mutex)}, nil
}

func (t *Tables) lockFor(k int) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.locks[k]
	if !ok {
		l = &sync.Mutex{}
		t.locks[k] = l
	}
	return l
}

// Get returns the cached table for k or builds it. Concurrent callers for
// the same k wait for a single build.
func (t *Tables) Get(k int, build func() (*freqtable.Table, error)) (*freqtable.Table, error) {
	if t == nil {
		return build()
	}
	if v, ok := t.cache.Get(k); ok {
		return v.(*freqtable.Table), nil
	}

	l := t.lockFor(k)
	l.Lock()
	defer l.Unlock()

	// another goroutine may have built it while we waited
	if v, ok := t.cache.Get(k); ok {
		return v.(*freqtable.Table), nil
	}
	tb, err := build()
	if err != nil {
		return nil, err
	}
	t.cache.Set(k, tb, max(1, int64(tb.Len())))
	t.cache.Wait()
	return tb, nil
}

func (t *Tables) Close() {
	if t != nil {
		t.cache.Close()
	}
}
