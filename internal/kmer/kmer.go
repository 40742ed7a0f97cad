// Package kmer slides a k-wide window over a sequence and counts every window.
package kmer

import (
	"errors"
	"fmt"

	"github.com/skarupke/knucleotide/internal/freqtable"
	"github.com/skarupke/knucleotide/internal/nucleotide"
)

var (
	ErrInvalidK   = fmt.Errorf("k must be in [1,%d]", nucleotide.MaxK)
	ErrEmptyQuery = errors.New("empty query")
)

// CheckK rejects window sizes a uint64 key cannot hold.
func CheckK(k int) error {
	if k < 1 || k > nucleotide.MaxK {
		return fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}
	return nil
}

// Windows is the number of k-wide windows in n symbols.
func Windows(n, k int) int {
	if n < k || k < 1 {
		return 0
	}
	return n - k + 1
}

// sizeHint caps the initial table at the number of distinct k-mers possible.
func sizeHint(n, k int) int {
	w := Windows(n, k)
	if k < 16 {
		if distinct := 1 << (2 * k); distinct < w {
			return distinct
		}
	}
	return w
}

// Count returns the frequency of every k-mer in seq. A seq shorter than k
// gives an empty table.
func Count(seq []byte, k int, opts ...freqtable.Option) (*freqtable.Table, error) {
	if err := CheckK(k); err != nil {
		return nil, err
	}
	t := freqtable.New(sizeHint(len(seq), k), opts...)
	countInto(t, seq, k)
	return t, nil
}

// CountInto adds the k-mers of seq to an existing table.
func CountInto(t *freqtable.Table, seq []byte, k int) error {
	if err := CheckK(k); err != nil {
		return err
	}
	countInto(t, seq, k)
	return nil
}

func countInto(t *freqtable.Table, seq []byte, k int) {
	if len(seq) < k {
		return
	}
	mask := nucleotide.Mask(k)
	var key uint64
	for _, c := range seq[:k-1] {
		key = nucleotide.Push(key, c, mask)
	}
	for _, c := range seq[k-1:] {
		key = nucleotide.Push(key, c, mask)
		t.Increment(key)
	}
}

// Occurrences counts the (possibly overlapping) windows of seq equal to query.
func Occurrences(seq []byte, query string, opts ...freqtable.Option) (uint64, error) {
	if query == "" {
		return 0, ErrEmptyQuery
	}
	key, err := nucleotide.EncodeString(query)
	if err != nil {
		return 0, fmt.Errorf("query %q: %w", query, err)
	}
	t, err := Count(seq, len(query), opts...)
	if err != nil {
		return 0, err
	}
	return t.Get(key), nil
}
