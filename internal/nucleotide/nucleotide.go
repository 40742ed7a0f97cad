// Package nucleotide packs DNA symbols into 2-bit codes and rolling k-mer keys.
package nucleotide

import (
	"errors"
	"fmt"
)

// MaxK is the widest window a uint64 key can hold (2 bits per symbol).
const MaxK = 32

// 'A' => 0, 'C' => 1, 'T' => 2, 'G' => 3
const alphabet = "ACTG"

var (
	ErrEmpty   = errors.New("empty sequence")
	ErrTooLong = fmt.Errorf("sequence longer than %d symbols", MaxK)
)

// InvalidSymbolError reports a byte outside {A,C,G,T} at Offset.
type InvalidSymbolError struct {
	Offset int
	Symbol byte
}

func (e *InvalidSymbolError) Error() string {
	return fmt.Sprintf("invalid nucleotide %q at offset %d", e.Symbol, e.Offset)
}

// Code maps a symbol to its 2-bit code. Any byte is accepted; bytes outside
// the alphabet fold silently into one of the four codes.
func Code(c byte) uint64 {
	return uint64(c>>1) & 3
}

// Valid reports whether c is one of A, C, G, T (either case).
func Valid(c byte) bool {
	switch c {
	case 'A', 'C', 'G', 'T', 'a', 'c', 'g', 't':
		return true
	}
	return false
}

// Validate returns an *InvalidSymbolError for the first byte of seq outside
// the alphabet.
func Validate(seq []byte) error {
	for i, c := range seq {
		if !Valid(c) {
			return &InvalidSymbolError{Offset: i, Symbol: c}
		}
	}
	return nil
}

// Mask keeps the low 2k bits of a key.
func Mask(k int) uint64 {
	if k >= MaxK {
		return ^uint64(0)
	}
	return uint64(1)<<(2*uint(k)) - 1
}

// Push shifts c into the rolling key.
func Push(key uint64, c byte, mask uint64) uint64 {
	return (key<<2 | Code(c)) & mask
}

// Encode returns the key of the whole of s.
func Encode(s []byte) (uint64, error) {
	if len(s) == 0 {
		return 0, ErrEmpty
	}
	if len(s) > MaxK {
		return 0, fmt.Errorf("%w: got %d", ErrTooLong, len(s))
	}
	if err := Validate(s); err != nil {
		return 0, err
	}
	var key uint64
	mask := Mask(len(s))
	for _, c := range s {
		key = Push(key, c, mask)
	}
	return key, nil
}

// EncodeString is Encode for a string.
func EncodeString(s string) (uint64, error) {
	return Encode([]byte(s))
}

// Decode rebuilds the k symbols packed in key. The low bits hold the
// rightmost symbol.
func Decode(key uint64, k int) string {
	if k <= 0 {
		return ""
	}
	if k > MaxK {
		k = MaxK
	}
	buf := make([]byte, k)
	for i := k - 1; i >= 0; i-- {
		buf[i] = alphabet[key&3]
		key >>= 2
	}
	return string(buf)
}
