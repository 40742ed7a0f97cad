package metrics

import (
	"sync"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/rs/zerolog/log"
)

// metric keys
const (
	JobLatency   = "knucleotide_job_latency"
	JobCount     = "knucleotide_job_count"
	WindowsCount = "knucleotide_windows_counted"
	TableEntries = "knucleotide_table_entries"
	InputLength  = "knucleotide_input_length"
	RunLatency   = "knucleotide_run_latency"
	TagJobKind   = "job_kind"
	TagK         = "k"
	JobKindFrame = "frame"
	JobKindQuery = "query"
)

type Config struct {
	Enabled    bool    `koanf:"enabled"`
	Address    string  `koanf:"address"`
	SampleRate float64 `koanf:"sample_rate"`
	Service    string  `koanf:"service"`
}

var (
	mu           sync.RWMutex
	client       statsd.ClientInterface
	samplingRate = 1.0
)

// Init creates the statsd client. With Enabled false every call below is a
// no-op.
func Init(cfg Config) error {
	mu.Lock()
	defer mu.Unlock()
	if !cfg.Enabled {
		client = nil
		return nil
	}
	opts := []statsd.Option{statsd.WithoutTelemetry()}
	if cfg.Service != "" {
		opts = append(opts, statsd.WithTags([]string{Tag("service", cfg.Service)}))
	}
	c, err := statsd.New(cfg.Address, opts...)
	if err != nil {
		return err
	}
	client = c
	if cfg.SampleRate > 0 && cfg.SampleRate <= 1 {
		samplingRate = cfg.SampleRate
	}
	log.Info().Str("address", cfg.Address).Float64("sample_rate", samplingRate).Msg("metrics client initialized")
	return nil
}

// Close flushes and drops the client.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if client != nil {
		if err := client.Close(); err != nil {
			log.Warn().Err(err).Msg("closing statsd client")
		}
		client = nil
	}
}

func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return client != nil
}

func Tag(key, value string) string { return key + ":" + value }

func Timing(name string, value time.Duration, tags []string) {
	mu.RLock()
	defer mu.RUnlock()
	if client == nil {
		return
	}
	if err := client.Timing(name, value, tags, samplingRate); err != nil {
		log.Warn().Err(err).Msg("Error occurred while doing statsd timing")
	}
}

func Count(name string, value int64, tags []string) {
	mu.RLock()
	defer mu.RUnlock()
	if client == nil {
		return
	}
	if err := client.Count(name, value, tags, samplingRate); err != nil {
		log.Warn().Err(err).Msg("Error occurred while doing statsd count")
	}
}

func Gauge(name string, value float64, tags []string) {
	mu.RLock()
	defer mu.RUnlock()
	if client == nil {
		return
	}
	if err := client.Gauge(name, value, tags, samplingRate); err != nil {
		log.Warn().Err(err).Msg("Error occurred while doing statsd gauge")
	}
}
