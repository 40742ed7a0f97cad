package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/skarupke/knucleotide/internal/collector"
	"github.com/skarupke/knucleotide/internal/config"
	"github.com/skarupke/knucleotide/internal/engine"
	"github.com/skarupke/knucleotide/internal/fasta"
	"github.com/skarupke/knucleotide/internal/freqtable"
	"github.com/skarupke/knucleotide/internal/logger"
	"github.com/skarupke/knucleotide/internal/metrics"
	"github.com/skarupke/knucleotide/internal/report"
	"github.com/skarupke/knucleotide/internal/sim"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// flag name -> config key
var flagKeys = map[string]string{
	"input":        "input",
	"record":       "record",
	"frames":       "frames",
	"queries":      "queries",
	"workers":      "workers",
	"jobs":         "jobs",
	"hash":         "hash",
	"permissive":   "permissive",
	"format":       "format",
	"share-tables": "share_tables",
	"log-level":    "log.level",
	"metrics":      "metrics.enabled",
	"metrics-addr": "metrics.address",
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("knucleotide", flag.ContinueOnError)
	fs.SetOutput(stderr)

	// ---- CLI flags ----------------------------------------------------------
	cfgPath := fs.String("config", "", "optional YAML config file")
	fs.String("input", "-", "FASTA input file, '-' for stdin (gzip detected)")
	fs.String("record", "THREE", "ID of the FASTA record to count (empty: first record)")
	fs.String("frames", "1,2", "comma-separated window sizes to list in full")
	fs.String("queries", "GGT,GGTA,GGTATT,GGTATTTTAATT,GGTATTTTAATTTATAGT", "comma-separated k-mers to count exactly (IUPAC codes allowed)")
	fs.Int("workers", 0, "partitions per frame (default: available CPUs - 1)")
	fs.Int("jobs", 0, "frames/queries computed at once (default: workers)")
	fs.String("hash", "identity", "table hash policy: identity, fibonacci, xxhash, xxh3, murmur3")
	fs.Bool("permissive", false, "fold non-ACGT bytes into the alphabet instead of failing")
	fs.String("format", "text", "output format: text, json, yaml")
	fs.Bool("share-tables", true, "reuse one table for every job with the same k")
	fs.String("log-level", "info", "log level")
	fs.Bool("metrics", false, "send statsd metrics")
	fs.String("metrics-addr", "localhost:8125", "statsd address")
	jsonPath := fs.String("json", "", "optional: write run summary JSON here")
	verbose := fs.Bool("v", false, "verbose progress to stderr (debug logging)")
	showVer := fs.Bool("version", false, "print version and exit")
	simLen := fs.Int("sim-len", 0, "count a synthetic sequence of this length instead of reading input")
	simSeed := fs.Int64("sim-seed", 1, "seed for -sim-len (0: time based)")

	fs.Usage = func() {
		b := &strings.Builder{}
		fmt.Fprintln(b, "knucleotide: k-mer frequencies and exact k-mer counts of a DNA record")
		fmt.Fprintln(b)
		fmt.Fprintln(b, "Usage:")
		fmt.Fprintln(b, "  knucleotide [options] < input.fa")
		fmt.Fprintln(b)
		fmt.Fprintln(b, "Options:")
		fs.SetOutput(b)
		fs.PrintDefaults()
		fs.SetOutput(stderr)
		fmt.Fprintln(b)
		fmt.Fprintln(b, "Environment variables KNUC_<KEY> (nested keys joined by '__') override the config file.")
		fmt.Fprintln(b)
		fmt.Fprintln(b, "Examples:")
		fmt.Fprintln(b, "  # Benchmark report for the >THREE record")
		fmt.Fprintln(b, "  knucleotide < knucleotide-input.txt")
		fmt.Fprintln(b, "  # Every 12-mer of chr1, as JSON lines")
		fmt.Fprintln(b, "  zcat ref.fa.gz | knucleotide -record chr1 -frames 12 -queries '' -format json")
		fmt.Fprint(stderr, b.String())
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if *showVer {
		fmt.Fprintf(stdout, "knucleotide %s (commit %s, %s)\n", version, commit, date)
		return 0
	}

	// provisional logger until the configured level is known
	_ = logger.InitWithWriter("info", stderr)
	undo, err := maxprocs.Set(maxprocs.Logger(func(format string, a ...interface{}) {
		log.Debug().Msgf(format, a...)
	}))
	defer undo()
	if err != nil {
		log.Warn().Err(err).Msg("could not adjust GOMAXPROCS")
	}

	set := map[string]interface{}{}
	fs.Visit(func(f *flag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			set[key] = f.Value.(flag.Getter).Get()
		}
	})
	if *verbose {
		set["log.level"] = "debug"
	}
	// an explicitly empty list means none, not the default
	for _, key := range []string{"frames", "queries"} {
		if v, ok := set[key].(string); ok && strings.TrimSpace(v) == "" {
			set[key] = []string{}
		}
	}

	cfg, err := config.Load(config.Sources{File: *cfgPath, Flags: set})
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		fs.Usage()
		return 2
	}
	if err := logger.InitWithWriter(cfg.Log.Level, stderr); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}
	if err := metrics.Init(cfg.Metrics); err != nil {
		log.Error().Err(err).Msg("metrics init failed, continuing without metrics")
	}
	defer metrics.Close()

	started := time.Now()

	// ---- load the sequence ----------------------------------------------------
	var rec fasta.Record
	if *simLen > 0 {
		rec = fasta.Record{ID: "sim", Seq: sim.Make(*simLen, *simSeed, sim.HomoSapiens)}
	} else {
		rc, err := fasta.Open(cfg.Input)
		if err != nil {
			log.Error().Err(err).Str("input", cfg.Input).Msg("open input")
			return 1
		}
		rec, err = fasta.Find(rc, cfg.Record)
		rc.Close()
		if err != nil {
			log.Error().Err(err).Str("input", cfg.Input).Msg("read input")
			return 1
		}
	}
	log.Debug().Str("record", rec.ID).Int("length", len(rec.Seq)).Msg("sequence loaded")

	// ---- build the engine -----------------------------------------------------
	hasher, err := freqtable.HasherByName(cfg.Hash)
	if err != nil {
		log.Error().Err(err).Msg("hash policy")
		return 2
	}
	eng, err := engine.New(engine.Options{
		Workers:      cfg.Workers,
		Jobs:         cfg.Jobs,
		Hasher:       hasher,
		ShareTables:  cfg.ShareTables,
		CacheEntries: cfg.Cache.MaxEntries,
		Permissive:   cfg.Permissive,
	})
	if err != nil {
		log.Error().Err(err).Msg("engine")
		return 2
	}
	enc, err := report.NewEncoder(cfg.Format, stdout)
	if err != nil {
		log.Error().Err(err).Msg("output")
		return 2
	}

	// ---- count and report -----------------------------------------------------
	stats, err := eng.Report(context.Background(), rec.Seq, engine.Plan(cfg.Frames, cfg.Queries), enc)
	if err != nil {
		log.Error().Err(err).Str("record", rec.ID).Msg("count failed")
		return 1
	}
	elapsed := time.Since(started)
	metrics.Timing(metrics.RunLatency, elapsed, nil)
	log.Info().Str("record", rec.ID).Int("length", len(rec.Seq)).Int("sections", stats.Sections).
		Dur("elapsed", elapsed).Msg("done")

	if *jsonPath != "" {
		out := struct {
			Record  string   `json:"record"`
			Length  int      `json:"length"`
			Frames  []int    `json:"frames"`
			Queries []string `json:"queries"`
			Workers int      `json:"workers"`
			Hash    string   `json:"hash"`
			Elapsed float64  `json:"elapsed_seconds"`
			collector.Stats
		}{
			Record:  rec.ID,
			Length:  len(rec.Seq),
			Frames:  cfg.Frames,
			Queries: cfg.Queries,
			Workers: cfg.Workers,
			Hash:    hasher.Name(),
			Elapsed: elapsed.Seconds(),
			Stats:   stats,
		}
		f, err := os.Create(*jsonPath)
		if err != nil {
			log.Error().Err(err).Msg("write json")
			return 1
		}
		defer f.Close()
		if err := json.NewEncoder(f).Encode(out); err != nil {
			log.Error().Err(err).Msg("encode json")
			return 1
		}
	}
	return 0
}
