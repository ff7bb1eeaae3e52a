package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/precip-ingest-service/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"gopkg.in/yaml.v3"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DataDir          string
	Source           string
	SourcesFile      string
	FetchTimeout     time.Duration
	PollRetryDelay   time.Duration
	BackfillDebounce time.Duration
	KeepCompressed   bool

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Artifact notifications are disabled when KafkaBrokers is empty.
	KafkaBrokers []string
	KafkaTopic   string

	// Forecast serving.
	ResultsDir      string
	ResultBox       domain.BoundingBox
	ResolutionLng   float64
	ResolutionLat   float64
	FrameInterval   time.Duration
	PrecipMax       float64
	DemoKey         string
	SeriesCacheSize int

	// Sources holds every known source definition keyed by name.
	Sources map[string]Source
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	dataDir := sharedcfg.EnvOrDefault("DATA_DIR", "./data")
	cfg := &Config{
		DataDir:     dataDir,
		Source:      sharedcfg.EnvOrDefault("SOURCE", "mrms"),
		SourcesFile: os.Getenv("SOURCES_FILE"),

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaTopic: sharedcfg.EnvOrDefault("KAFKA_TOPIC", "precip-artifacts"),

		ResultsDir: sharedcfg.EnvOrDefault("RESULTS_DIR", filepath.Join(dataDir, "results", "NowcastNet")),
		DemoKey:    sharedcfg.EnvOrDefault("DEMO_KEY", "demo"),
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(brokers)
	}

	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"FETCH_TIMEOUT", "30s", &cfg.FetchTimeout},
		{"POLL_RETRY_DELAY", "10s", &cfg.PollRetryDelay},
		{"BACKFILL_DEBOUNCE", "1s", &cfg.BackfillDebounce},
		{"FRAME_INTERVAL", "10m", &cfg.FrameInterval},
	}
	for _, d := range durations {
		if *d.dst, err = parseDuration(d.key, d.def); err != nil {
			return nil, err
		}
	}
	if cfg.FetchTimeout == 0 || cfg.FrameInterval == 0 {
		return nil, fmt.Errorf("%w: FETCH_TIMEOUT and FRAME_INTERVAL must be positive", domain.ErrInvalidConfiguration)
	}

	if cfg.KeepCompressed, err = parseBool("KEEP_COMPRESSED", false); err != nil {
		return nil, err
	}

	floats := []struct {
		key string
		def float64
		dst *float64
	}{
		{"RESULT_BOUNDING_MIN_LNG", -130, &cfg.ResultBox.MinLng},
		{"RESULT_BOUNDING_MAX_LNG", -60, &cfg.ResultBox.MaxLng},
		{"RESULT_BOUNDING_MIN_LAT", 20, &cfg.ResultBox.MinLat},
		{"RESULT_BOUNDING_MAX_LAT", 55, &cfg.ResultBox.MaxLat},
		{"RESULT_RESOLUTION_LNG", 0.02, &cfg.ResolutionLng},
		{"RESULT_RESOLUTION_LAT", 0.02, &cfg.ResolutionLat},
		{"PRECIP_MAX", 128, &cfg.PrecipMax},
	}
	for _, f := range floats {
		if *f.dst, err = parseFloat(f.key, f.def); err != nil {
			return nil, err
		}
	}
	if _, err := domain.NewGrid(cfg.ResultBox, cfg.ResolutionLng, cfg.ResolutionLat); err != nil {
		return nil, err
	}
	if cfg.PrecipMax <= 0 {
		return nil, fmt.Errorf("%w: PRECIP_MAX must be positive", domain.ErrInvalidConfiguration)
	}

	if cfg.SeriesCacheSize, err = parseInt("SERIES_CACHE_SIZE", 16); err != nil {
		return nil, err
	}
	if cfg.SeriesCacheSize <= 0 {
		return nil, fmt.Errorf("%w: SERIES_CACHE_SIZE must be positive", domain.ErrInvalidConfiguration)
	}

	cfg.Sources = DefaultSources()
	if cfg.SourcesFile != "" {
		if err := cfg.loadSourcesFile(); err != nil {
			return nil, err
		}
	}
	for name, src := range cfg.Sources {
		if err := src.Validate(); err != nil {
			return nil, fmt.Errorf("source %q: %w", name, err)
		}
	}
	if _, err := cfg.Selected(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Selected returns the definition named by SOURCE.
func (c *Config) Selected() (Source, error) {
	return c.Lookup(c.Source)
}

// Lookup returns the named source definition.
func (c *Config) Lookup(name string) (Source, error) {
	src, ok := c.Sources[name]
	if !ok {
		return Source{}, fmt.Errorf("%w: unknown source %q", domain.ErrInvalidConfiguration, name)
	}
	return src, nil
}

// loadSourcesFile merges definitions from a YAML document of the form
//
//	sources:
//	  mrms:
//	    delay: 4m
//
// into the built-in set. Each entry is decoded over a copy of the built-in
// definition, so fields it sets win, including explicit zeros, and fields it
// omits are kept. New names are added.
func (c *Config) loadSourcesFile() error {
	data, err := os.ReadFile(c.SourcesFile)
	if err != nil {
		return fmt.Errorf("read SOURCES_FILE: %w", err)
	}
	var doc struct {
		Sources map[string]yaml.Node `yaml:"sources"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: parse SOURCES_FILE: %w", domain.ErrInvalidConfiguration, err)
	}
	for name, node := range doc.Sources {
		merged := c.Sources[name]
		if err := node.Decode(&merged); err != nil {
			return fmt.Errorf("%w: SOURCES_FILE source %q: %w", domain.ErrInvalidConfiguration, name, err)
		}
		merged.Name = name
		c.Sources[name] = merged
	}
	return nil
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: invalid %s", domain.ErrInvalidConfiguration, key)
	}
	return d, nil
}

func parseFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s", domain.ErrInvalidConfiguration, key)
	}
	return v, nil
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s", domain.ErrInvalidConfiguration, key)
	}
	return v, nil
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%w: invalid %s", domain.ErrInvalidConfiguration, key)
	}
	return v, nil
}
