// Package freqtable is an open-addressing count table for packed k-mer keys.
//
// Slots live in one power-of-two array and collisions are resolved by linear
// probing. A slot with count 0 is empty, which leaves every key value
// (including 0, the all-A k-mer) usable. A Table has a single writer; share it
// across goroutines only once nobody mutates it.
package freqtable

import (
	"iter"
	"math"
	"math/bits"
)

const (
	minSlots       = 8
	DefaultMaxLoad = 0.5
)

type slot struct {
	key   uint64
	count uint64
}

type Table struct {
	slots   []slot
	mask    uint64
	len     int
	limit   int // grow once len exceeds this
	total   uint64
	maxLoad float64
	hasher  Hasher
}

type Option func(*Table)

// WithHasher sets the hash policy. nil keeps Identity.
func WithHasher(h Hasher) Option {
	return func(t *Table) {
		if h != nil {
			t.hasher = h
		}
	}
}

// WithMaxLoad sets the fill ratio that triggers doubling, clamped to [0.1, 0.9].
func WithMaxLoad(f float64) Option {
	return func(t *Table) {
		t.maxLoad = math.Min(0.9, math.Max(0.1, f))
	}
}

// New returns a table that holds capacity entries before its first growth.
func New(capacity int, opts ...Option) *Table {
	t := &Table{maxLoad: DefaultMaxLoad, hasher: Identity{}}
	for _, o := range opts {
		o(t)
	}
	t.alloc(slotsFor(capacity, t.maxLoad))
	return t
}

func nextPowerOf2(n int) int {
	return 1 << bits.Len64(uint64(n-1))
}

func slotsFor(entries int, maxLoad float64) int {
	n := int(math.Ceil(float64(entries)/maxLoad)) + 1
	if n < minSlots {
		n = minSlots
	}
	return nextPowerOf2(n)
}

func (t *Table) alloc(n int) {
	t.slots = make([]slot, n)
	t.mask = uint64(n - 1)
	t.limit = int(t.maxLoad * float64(n))
}

// find returns the slot holding key, or the empty slot where it belongs.
func (t *Table) find(key uint64) uint64 {
	i := t.hasher.Hash(key) & t.mask
	for {
		s := &t.slots[i]
		if s.count == 0 || s.key == key {
			return i
		}
		i = (i + 1) & t.mask
	}
}

// Increment counts one more occurrence of key.
func (t *Table) Increment(key uint64) {
	s := &t.slots[t.find(key)]
	t.total++
	if s.count != 0 {
		s.count++
		return
	}
	s.key, s.count = key, 1
	t.len++
	if t.len > t.limit {
		t.grow(len(t.slots) * 2)
	}
}

// Add counts n more occurrences of key.
func (t *Table) Add(key, n uint64) {
	if n == 0 {
		return
	}
	s := &t.slots[t.find(key)]
	t.total += n
	if s.count != 0 {
		s.count += n
		return
	}
	s.key, s.count = key, n
	t.len++
	if t.len > t.limit {
		t.grow(len(t.slots) * 2)
	}
}

// Get returns the count of key, 0 if it was never added.
func (t *Table) Get(key uint64) uint64 {
	return t.slots[t.find(key)].count
}

// Reserve grows the table so that n entries fit without rehashing.
func (t *Table) Reserve(n int) {
	if want := slotsFor(n, t.maxLoad); want > len(t.slots) {
		t.grow(want)
	}
}

func (t *Table) grow(n int) {
	old := t.slots
	t.alloc(n)
	for _, s := range old {
		if s.count != 0 {
			t.slots[t.find(s.key)] = s
		}
	}
}

// Merge adds every entry of other into t and empties other.
func (t *Table) Merge(other *Table) {
	if other == nil {
		return
	}
	if other == t {
		panic("freqtable: merge of a table into itself")
	}
	t.Reserve(t.len + other.len)
	for _, s := range other.slots {
		if s.count != 0 {
			t.Add(s.key, s.count)
		}
	}
	other.Reset()
}

// Reset drops every entry and releases the slot array.
func (t *Table) Reset() {
	t.alloc(minSlots)
	t.len = 0
	t.total = 0
}

// Clone returns an independent copy with the same hasher and load factor.
func (t *Table) Clone() *Table {
	c := *t
	c.slots = make([]slot, len(t.slots))
	copy(c.slots, t.slots)
	return &c
}

// Len is the number of distinct keys.
func (t *Table) Len() int { return t.len }

// Total is the sum of all counts.
func (t *Table) Total() uint64 { return t.total }

// Cap is the number of slots.
func (t *Table) Cap() int { return len(t.slots) }

// Hasher is the policy the table probes with.
func (t *Table) Hasher() Hasher { return t.hasher }

// All yields every (key, count) pair in slot order.
func (t *Table) All() iter.Seq2[uint64, uint64] {
	return func(yield func(uint64, uint64) bool) {
		for _, s := range t.slots {
			if s.count != 0 && !yield(s.key, s.count) {
				return
			}
		}
	}
}

// Each calls fn for every entry in slot order.
func (t *Table) Each(fn func(key, count uint64)) {
	for _, s := range t.slots {
		if s.count != 0 {
			fn(s.key, s.count)
		}
	}
}
