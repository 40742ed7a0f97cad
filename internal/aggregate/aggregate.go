// Package aggregate splits a sequence into k-overlapping spans, counts each
// span on its own goroutine and merges the partial tables.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/skarupke/knucleotide/internal/freqtable"
	"github.com/skarupke/knucleotide/internal/kmer"
)

var ErrInvalidWorkers = errors.New("worker count must be at least 1")

// Span is a half-open, 0-based [Start, End) extent of the sequence.
type Span struct {
	Start int
	End   int
}

func (s Span) Len() int { return s.End - s.Start }

// Partition splits n symbols into workers spans. Every span but the last
// reaches k-1 symbols past its nominal end so that windows starting near the
// boundary are still whole; window starts never overlap.
func Partition(n, k, workers int) ([]Span, error) {
	if err := kmer.CheckK(k); err != nil {
		return nil, err
	}
	if workers < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWorkers, workers)
	}
	if n < 0 {
		n = 0
	}
	per := n / workers
	spans := make([]Span, workers)
	for i := range spans {
		start := i * per
		end := min(n, start+per+k-1)
		if i == workers-1 {
			end = n
		}
		spans[i] = Span{Start: start, End: end}
	}
	return spans, nil
}

// Aggregator counts k-mers with a fixed number of partitions.
type Aggregator struct {
	workers int
	opts    []freqtable.Option
}

func New(workers int, opts ...freqtable.Option) (Aggregator, error) {
	if workers < 1 {
		return Aggregator{}, fmt.Errorf("%w: got %d", ErrInvalidWorkers, workers)
	}
	return Aggregator{workers: workers, opts: opts}, nil
}

func (a Aggregator) Workers() int { return a.workers }

// Count is Aggregate with the aggregator's settings.
func (a Aggregator) Count(ctx context.Context, seq []byte, k int) (*freqtable.Table, error) {
	return Aggregate(ctx, seq, k, a.workers, a.opts...)
}

// Aggregate returns the same table kmer.Count(seq, k) would, computed over
// workers partitions in parallel. seq must not be modified until it returns.
func Aggregate(ctx context.Context, seq []byte, k, workers int, opts ...freqtable.Option) (*freqtable.Table, error) {
	spans, err := Partition(len(seq), k, workers)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if workers == 1 {
		return kmer.Count(seq, k, opts...)
	}

	parts := make([]*freqtable.Table, len(spans))
	var wg sync.WaitGroup
	for i, sp := range spans {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// k is already validated; Count cannot fail here
			parts[i], _ = kmer.Count(seq[sp.Start:sp.End], k, opts...)
		}()
	}
	wg.Wait()

	log.Debug().Int("k", k).Int("partitions", len(spans)).Int("length", len(seq)).Msg("partitions counted")
	return mergeAll(parts), nil
}

// mergeAll folds every table into the largest one.
func mergeAll(parts []*freqtable.Table) *freqtable.Table {
	big := 0
	for i, p := range parts {
		if p.Len() > parts[big].Len() {
			big = i
		}
	}
	dst := parts[big]
	for i, p := range parts {
		if i != big {
			dst.Merge(p)
		}
	}
	return dst
}
