// Package config layers defaults, an optional YAML file, KNUC_ environment
// variables and command-line flags, in that order of precedence.
package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"

	"github.com/skarupke/knucleotide/internal/freqtable"
	"github.com/skarupke/knucleotide/internal/kmer"
	"github.com/skarupke/knucleotide/internal/metrics"
	"github.com/skarupke/knucleotide/internal/nucleotide"
	"github.com/skarupke/knucleotide/internal/report"
)

const (
	EnvPrefix       = "KNUC_"
	EnvDelimiter    = "__"
	ConfigDelimiter = "."
)

type CacheConfig struct {
	MaxEntries int64 `koanf:"max_entries"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

type Config struct {
	Input       string         `koanf:"input"`
	Record      string         `koanf:"record"`
	Frames      []int          `koanf:"frames"`
	Queries     []string       `koanf:"queries"`
	Workers     int            `koanf:"workers"`
	Jobs        int            `koanf:"jobs"`
	Hash        string         `koanf:"hash"`
	Permissive  bool           `koanf:"permissive"`
	Format      string         `koanf:"format"`
	ShareTables bool           `koanf:"share_tables"`
	Cache       CacheConfig    `koanf:"cache"`
	Log         LogConfig      `koanf:"log"`
	Metrics     metrics.Config `koanf:"metrics"`
}

// DefaultWorkers keeps one unit of parallelism for the orchestrating
// goroutine.
func DefaultWorkers(parallelism int) int {
	return max(1, parallelism-1)
}

// Defaults are the benchmark settings: frames 1 and 2 plus the five
// GGT... queries of the >THREE record.
func Defaults(parallelism int) map[string]interface{} {
	return map[string]interface{}{
		"input":               "-",
		"record":              "THREE",
		"frames":              []int{1, 2},
		"queries":             []string{"GGT", "GGTA", "GGTATT", "GGTATTTTAATT", "GGTATTTTAATTTATAGT"},
		"workers":             DefaultWorkers(parallelism),
		"jobs":                0,
		"hash":                freqtable.Identity{}.Name(),
		"permissive":          false,
		"format":              report.FormatText,
		"share_tables":        true,
		"cache.max_entries":   int64(1 << 22),
		"log.level":           "info",
		"metrics.enabled":     false,
		"metrics.address":     "localhost:8125",
		"metrics.sample_rate": 1.0,
		"metrics.service":     "knucleotide",
	}
}

type Sources struct {
	File        string                 // optional YAML file
	Flags       map[string]interface{} // only flags the user set
	Parallelism int                    // 0 means runtime.GOMAXPROCS(0)
}

// envKey maps KNUC_METRICS__ENABLED to metrics.enabled.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, strings.ToLower(EnvDelimiter), ConfigDelimiter)
}

func Load(src Sources) (Config, error) {
	par := src.Parallelism
	if par <= 0 {
		par = runtime.GOMAXPROCS(0)
	}
	k := koanf.New(ConfigDelimiter)
	if err := k.Load(confmap.Provider(Defaults(par), ConfigDelimiter), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}
	if src.File != "" {
		if err := k.Load(file.Provider(src.File), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", src.File, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ConfigDelimiter, envKey), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}
	if len(src.Flags) > 0 {
		if err := k.Load(confmap.Provider(src.Flags, ConfigDelimiter), nil); err != nil {
			return Config{}, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Jobs <= 0 {
		cfg.Jobs = cfg.Workers
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.Jobs < 1 {
		return fmt.Errorf("jobs must be at least 1, got %d", c.Jobs)
	}
	for _, k := range c.Frames {
		if err := kmer.CheckK(k); err != nil {
			return fmt.Errorf("frame: %w", err)
		}
	}
	for _, q := range c.Queries {
		if _, err := nucleotide.Expand(strings.ToUpper(q)); err != nil {
			return fmt.Errorf("query %q: %w", q, err)
		}
	}
	if len(c.Frames) == 0 && len(c.Queries) == 0 {
		return fmt.Errorf("nothing to do: no frames and no queries")
	}
	if _, err := freqtable.HasherByName(c.Hash); err != nil {
		return err
	}
	switch strings.ToLower(c.Format) {
	case report.FormatText, report.FormatJSON, report.FormatYAML:
	default:
		return fmt.Errorf("unknown output format %q", c.Format)
	}
	if c.ShareTables && c.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache.max_entries must be positive when share_tables is on")
	}
	return nil
}
