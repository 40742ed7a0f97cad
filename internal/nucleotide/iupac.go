package nucleotide

import "fmt"

// 4-bit mask per base, A C G T
var iupac = [256]uint8{
	'A': 1 << 0,
	'C': 1 << 1,
	'G': 1 << 2,
	'T': 1 << 3,
	'R': (1 << 0) | (1 << 2),
	'Y': (1 << 1) | (1 << 3),
	'S': (1 << 1) | (1 << 2),
	'W': (1 << 0) | (1 << 3),
	'K': (1 << 2) | (1 << 3),
	'M': (1 << 0) | (1 << 1),
	'B': (1 << 1) | (1 << 2) | (1 << 3),
	'D': (1 << 0) | (1 << 2) | (1 << 3),
	'H': (1 << 0) | (1 << 1) | (1 << 3),
	'V': (1 << 0) | (1 << 1) | (1 << 2),
	'N': 0xf,
}

// MaxExpansions bounds how many concrete k-mers one ambiguous pattern may
// stand for.
const MaxExpansions = 1 << 12

// Degenerate reports whether pattern uses an ambiguity code.
func Degenerate(pattern string) bool {
	for i := 0; i < len(pattern); i++ {
		if !Valid(pattern[i]) {
			return true
		}
	}
	return false
}

// Expand returns the keys of every concrete k-mer matched by an IUPAC
// pattern (upper-case). A plain ACGT pattern yields its own key.
func Expand(pattern string) ([]uint64, error) {
	if len(pattern) == 0 {
		return nil, ErrEmpty
	}
	if len(pattern) > MaxK {
		return nil, fmt.Errorf("%w: got %d", ErrTooLong, len(pattern))
	}
	keys := []uint64{0}
	for i := 0; i < len(pattern); i++ {
		m := iupac[pattern[i]]
		if m == 0 {
			return nil, &InvalidSymbolError{Offset: i, Symbol: pattern[i]}
		}
		next := make([]uint64, 0, len(keys)*4)
		for b := 0; b < 4; b++ {
			if m&(1<<b) == 0 {
				continue
			}
			code := Code("ACGT"[b])
			for _, k := range keys {
				next = append(next, k<<2|code)
			}
		}
		if len(next) > MaxExpansions {
			return nil, fmt.Errorf("pattern %q matches more than %d k-mers", pattern, MaxExpansions)
		}
		keys = next
	}
	return keys, nil
}
