// Package engine runs frequency frames and k-mer queries over one sequence
// on a bounded pool and hands the results to the collector in order.
package engine

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/skarupke/knucleotide/internal/aggregate"
	"github.com/skarupke/knucleotide/internal/collector"
	"github.com/skarupke/knucleotide/internal/freqtable"
	"github.com/skarupke/knucleotide/internal/kmer"
	"github.com/skarupke/knucleotide/internal/memo"
	"github.com/skarupke/knucleotide/internal/metrics"
	"github.com/skarupke/knucleotide/internal/nucleotide"
	"github.com/skarupke/knucleotide/internal/report"
)

type Kind int

const (
	Frame Kind = iota
	Query
)

func (k Kind) String() string {
	if k == Query {
		return metrics.JobKindQuery
	}
	return metrics.JobKindFrame
}

// Job is one output section: every k-mer of width K, or the count of Query.
type Job struct {
	Kind  Kind
	K     int
	Query string
}

// Plan lists frames first, then queries, in the given order.
func Plan(frames []int, queries []string) []Job {
	jobs := make([]Job, 0, len(frames)+len(queries))
	for _, k := range frames {
		jobs = append(jobs, Job{Kind: Frame, K: k})
	}
	for _, q := range queries {
		q = strings.ToUpper(q)
		jobs = append(jobs, Job{Kind: Query, K: len(q), Query: q})
	}
	return jobs
}

type Options struct {
	Workers int // partitions per frame
	Jobs    int // jobs in flight
	Hasher  freqtable.Hasher
	// ShareTables counts each k once per Run, in a cache of at most
	// CacheEntries table entries.
	ShareTables  bool
	CacheEntries int64
	Permissive   bool // count out-of-alphabet bytes instead of rejecting them
}

type Engine struct {
	agg        aggregate.Aggregator
	opts       []freqtable.Option
	jobs       int
	share      bool
	entries    int64
	permissive bool
}

func New(o Options) (*Engine, error) {
	opts := []freqtable.Option{freqtable.WithHasher(o.Hasher)}
	agg, err := aggregate.New(o.Workers, opts...)
	if err != nil {
		return nil, err
	}
	jobs := o.Jobs
	if jobs < 1 {
		jobs = o.Workers
	}
	if o.ShareTables && o.CacheEntries <= 0 {
		return nil, fmt.Errorf("cache entries must be positive when sharing tables, got %d", o.CacheEntries)
	}
	return &Engine{agg: agg, opts: opts, jobs: jobs, share: o.ShareTables, entries: o.CacheEntries, permissive: o.Permissive}, nil
}

// Run executes jobs and sends one Msg per job, Idx being the job's position.
// Longer windows are started first; they take the longest. The first error
// stops scheduling of the remaining jobs and is returned.
func (e *Engine) Run(ctx context.Context, seq []byte, jobs []Job, out chan<- collector.Msg) error {
	if !e.permissive {
		if err := nucleotide.Validate(seq); err != nil {
			return err
		}
	}
	for _, j := range jobs {
		if err := kmer.CheckK(j.K); err != nil {
			return fmt.Errorf("%s job: %w", j.Kind, err)
		}
	}
	metrics.Gauge(metrics.InputLength, float64(len(seq)), nil)

	// tables are bound to seq and never outlive this call
	var tables *memo.Tables
	if e.share {
		var err error
		if tables, err = memo.New(e.entries); err != nil {
			return err
		}
		defer tables.Close()
	}

	order := make([]int, len(jobs))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int { return cmp.Compare(jobs[b].K, jobs[a].K) })

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	todo := make(chan int)
	for w := 0; w < min(e.jobs, len(jobs)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range todo {
				sec, err := e.run(ctx, tables, seq, jobs[i])
				if err != nil {
					once.Do(func() { firstErr = err; cancel() })
					continue
				}
				select {
				case out <- collector.Msg{Idx: i, Section: sec}:
				case <-ctx.Done():
				}
			}
		}()
	}
feed:
	for _, i := range order {
		select {
		case todo <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(todo)
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

func (e *Engine) table(ctx context.Context, tables *memo.Tables, seq []byte, k int) (*freqtable.Table, error) {
	return tables.Get(k, func() (*freqtable.Table, error) {
		return e.agg.Count(ctx, seq, k)
	})
}

func (e *Engine) run(ctx context.Context, tables *memo.Tables, seq []byte, j Job) (report.Section, error) {
	start := time.Now()
	tags := []string{metrics.Tag(metrics.TagJobKind, j.Kind.String()), metrics.Tag(metrics.TagK, strconv.Itoa(j.K))}
	defer func() {
		metrics.Timing(metrics.JobLatency, time.Since(start), tags)
		metrics.Count(metrics.JobCount, 1, tags)
	}()

	switch j.Kind {
	case Frame:
		tb, err := e.table(ctx, tables, seq, j.K)
		if err != nil {
			return report.Section{}, err
		}
		windows := uint64(kmer.Windows(len(seq), j.K))
		metrics.Count(metrics.WindowsCount, int64(windows), tags)
		metrics.Gauge(metrics.TableEntries, float64(tb.Len()), tags)
		log.Debug().Int("k", j.K).Int("entries", tb.Len()).Dur("took", time.Since(start)).Msg("frame counted")
		return report.NewFrame(tb, j.K, windows), nil
	case Query:
		n, err := e.occurrences(ctx, tables, seq, j.Query)
		if err != nil {
			return report.Section{}, err
		}
		log.Debug().Str("query", j.Query).Uint64("count", n).Dur("took", time.Since(start)).Msg("query counted")
		return report.NewQuery(j.Query, n), nil
	}
	return report.Section{}, fmt.Errorf("unknown job kind %d", j.Kind)
}

// occurrences runs a private sequential count unless tables are shared. A
// query with ambiguity codes sums the counts of every k-mer it matches.
func (e *Engine) occurrences(ctx context.Context, tables *memo.Tables, seq []byte, q string) (uint64, error) {
	if tables == nil && !nucleotide.Degenerate(q) {
		return kmer.Occurrences(seq, q, e.opts...)
	}
	keys, err := nucleotide.Expand(q)
	if err != nil {
		return 0, fmt.Errorf("query %q: %w", q, err)
	}
	var tb *freqtable.Table
	if tables == nil {
		tb, err = kmer.Count(seq, len(q), e.opts...)
	} else {
		tb, err = e.table(ctx, tables, seq, len(q))
	}
	if err != nil {
		return 0, err
	}
	var n uint64
	for _, key := range keys {
		n += tb.Get(key)
	}
	return n, nil
}

// Report runs jobs and encodes every section, in job order, with enc.
func (e *Engine) Report(ctx context.Context, seq []byte, jobs []Job, enc report.Encoder) (collector.Stats, error) {
	in, done := collector.New(enc)
	err := e.Run(ctx, seq, jobs, in)
	close(in)
	stats := <-done
	if err != nil {
		return stats, err
	}
	return stats, stats.Err
}
