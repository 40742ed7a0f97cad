package freqtable

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/spaolacci/murmur3"
	"github.com/zeebo/xxh3"
)

// Hasher spreads keys over the slot array. Only the low bits of the result
// pick the home slot, so a policy must put its entropy there.
type Hasher interface {
	Hash(key uint64) uint64
	Name() string
}

// Identity is the default policy: 2-bit packed k-mers already use every low
// bit, so no mixing is done.
type Identity struct{}

func (Identity) Hash(key uint64) uint64 { return key }
func (Identity) Name() string           { return "identity" }

// Fibonacci multiplies by 2^64/phi and folds the high half down.
type Fibonacci struct{}

func (Fibonacci) Hash(key uint64) uint64 {
	h := key * 0x9E3779B97F4A7C15
	return h ^ h>>32
}
func (Fibonacci) Name() string { return "fibonacci" }

// XXHash hashes the little-endian key bytes with xxHash64.
type XXHash struct{}

func (XXHash) Hash(key uint64) uint64 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], key)
	return xxhash.Sum64(b[:])
}
func (XXHash) Name() string { return "xxhash" }

// XXH3 hashes the little-endian key bytes with 64-bit XXH3.
type XXH3 struct{}

func (XXH3) Hash(key uint64) uint64 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], key)
	return xxh3.Hash(b[:])
}
func (XXH3) Name() string { return "xxh3" }

// Murmur3 hashes the little-endian key bytes with 128-bit MurmurHash3, keeping the first half.
type Murmur3 struct{}

func (Murmur3) Hash(key uint64) uint64 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], key)
	return murmur3.Sum64(b[:])
}
func (Murmur3) Name() string { return "murmur3" }

var hashers = map[string]Hasher{
	Identity{}.Name():  Identity{},
	Fibonacci{}.Name(): Fibonacci{},
	XXHash{}.Name():    XXHash{},
	XXH3{}.Name():      XXH3{},
	Murmur3{}.Name():   Murmur3{},
}

// HasherByName resolves a configured policy name (case-insensitive).
func HasherByName(name string) (Hasher, error) {
	h, ok := hashers[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown hash policy %q", name)
	}
	return h, nil
}
