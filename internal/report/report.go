// Package report turns frequency tables into sorted, printable sections.
package report

import (
	"cmp"
	"slices"

	"github.com/skarupke/knucleotide/internal/freqtable"
	"github.com/skarupke/knucleotide/internal/nucleotide"
)

type Frequency struct {
	Kmer    string  `json:"kmer" yaml:"kmer"`
	Count   uint64  `json:"count" yaml:"count"`
	Percent float64 `json:"percent" yaml:"percent"`
}

// Frame is the full frequency listing for one window size.
type Frame struct {
	K           int         `json:"k" yaml:"k"`
	Windows     uint64      `json:"windows" yaml:"windows"`
	Frequencies []Frequency `json:"frequencies" yaml:"frequencies"`
}

// Query is the exact count of one literal k-mer.
type Query struct {
	Kmer  string `json:"kmer" yaml:"kmer"`
	Count uint64 `json:"count" yaml:"count"`
}

// Section is one unit of output; exactly one field is set.
type Section struct {
	Frame *Frame `json:"frame,omitempty" yaml:"frame,omitempty"`
	Query *Query `json:"query,omitempty" yaml:"query,omitempty"`
}

// Percent is 100*count/total, or 0 when there are no windows.
func Percent(count, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(count) / float64(total)
}

// Frequencies lists every k-mer of t, most frequent first. Equal counts are
// ordered by k-mer, ascending.
func Frequencies(t *freqtable.Table, k int, total uint64) []Frequency {
	out := make([]Frequency, 0, t.Len())
	for key, c := range t.All() {
		out = append(out, Frequency{Kmer: nucleotide.Decode(key, k), Count: c, Percent: Percent(c, total)})
	}
	slices.SortFunc(out, func(a, b Frequency) int {
		if a.Count != b.Count {
			return cmp.Compare(b.Count, a.Count)
		}
		return cmp.Compare(a.Kmer, b.Kmer)
	})
	return out
}

// NewFrame lists every k-mer of t, with percentages relative to windows.
func NewFrame(t *freqtable.Table, k int, windows uint64) Section {
	return Section{Frame: &Frame{K: k, Windows: windows, Frequencies: Frequencies(t, k, windows)}}
}

// NewQuery wraps the count of one query as a section.
func NewQuery(kmer string, count uint64) Section {
	return Section{Query: &Query{Kmer: kmer, Count: count}}
}
