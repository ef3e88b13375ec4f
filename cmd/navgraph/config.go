package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/navgraph/navgraph"
	"github.com/navgraph/navgraph/distance"
	"github.com/navgraph/navgraph/persistence"
)

// Config is the CLI configuration. Values are resolved in order: defaults,
// then the YAML file given by --config, then explicitly set flags.
type Config struct {
	Index   IndexConfig   `yaml:"index"`
	Search  SearchConfig  `yaml:"search"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`

	// MetricsAddr serves Prometheus metrics at /metrics when set.
	MetricsAddr string `yaml:"metrics_addr"`
}

// IndexConfig holds graph construction and persistence parameters.
type IndexConfig struct {
	M                     int     `yaml:"m"`
	M0                    int     `yaml:"m0"`
	EFConstruction        int     `yaml:"ef_construction"`
	LevelMultiplier       float64 `yaml:"level_multiplier"`
	Metric                string  `yaml:"metric"`
	Seed                  uint64  `yaml:"seed"`
	Workers               int     `yaml:"workers"`
	KeepPrunedConnections bool    `yaml:"keep_pruned_connections"`
	Normalize             bool    `yaml:"normalize"`
	Compression           string  `yaml:"compression"`
	EmbedVectors          bool    `yaml:"embed_vectors"`
}

// SearchConfig holds query parameters.
type SearchConfig struct {
	K  int `yaml:"k"`
	EF int `yaml:"ef"`
}

// StorageConfig selects where indexes are saved and loaded.
type StorageConfig struct {
	// Backend is one of "local", "minio" or "s3".
	Backend string      `yaml:"backend"`
	Local   LocalConfig `yaml:"local"`
	MinIO   MinIOConfig `yaml:"minio"`
	S3      S3Config    `yaml:"s3"`
}

// LocalConfig configures the local file system backend.
type LocalConfig struct {
	Root string `yaml:"root"`
}

// MinIOConfig configures the MinIO backend.
type MinIOConfig struct {
	Endpoint     string `yaml:"endpoint"`
	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
	Bucket       string `yaml:"bucket"`
	Prefix       string `yaml:"prefix"`
	Region       string `yaml:"region"`
	Secure       bool   `yaml:"secure"`
	CreateBucket bool   `yaml:"create_bucket"`
}

// S3Config configures the S3 backend. Credentials come from the default
// AWS credential chain.
type S3Config struct {
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
}

// LogConfig configures structured logging to stderr.
type LogConfig struct {
	// Level is one of "debug", "info", "warn" or "error".
	Level string `yaml:"level"`

	// Format is "text" or "json".
	Format string `yaml:"format"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Index: IndexConfig{
			M:              16,
			EFConstruction: 200,
			Metric:         "ip",
			Compression:    "zstd",
		},
		Search: SearchConfig{
			K:  10,
			EF: navgraph.DefaultEFSearch,
		},
		Storage: StorageConfig{
			Backend: "local",
			Local:   LocalConfig{Root: "."},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig overlays the YAML file at path on DefaultConfig. Unknown keys
// are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, cfg.Validate()
}

// Validate checks values that cannot be checked by the index itself.
func (c Config) Validate() error {
	if _, err := distance.ParseMetric(c.Index.Metric); err != nil {
		return fmt.Errorf("index.metric: %w", err)
	}
	if _, err := persistence.ParseCompression(c.Index.Compression); err != nil {
		return fmt.Errorf("index.compression: %w", err)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q", c.Log.Format)
	}
	switch c.Storage.Backend {
	case "local", "minio", "s3":
	default:
		return fmt.Errorf("storage.backend: unknown backend %q", c.Storage.Backend)
	}
	if c.Search.K <= 0 {
		return fmt.Errorf("search.k: must be positive, got %d", c.Search.K)
	}
	return nil
}

// IndexOptions translates the configuration into facade options.
func (c Config) IndexOptions() ([]navgraph.Option, error) {
	metric, err := distance.ParseMetric(c.Index.Metric)
	if err != nil {
		return nil, err
	}
	compression, err := persistence.ParseCompression(c.Index.Compression)
	if err != nil {
		return nil, err
	}

	opts := []navgraph.Option{
		navgraph.WithM(c.Index.M),
		navgraph.WithEFConstruction(c.Index.EFConstruction),
		navgraph.WithMetric(metric),
		navgraph.WithSeed(c.Index.Seed),
		navgraph.WithCompression(compression),
		navgraph.WithEFSearch(c.Search.EF),
	}
	if c.Index.M0 > 0 {
		opts = append(opts, navgraph.WithM0(c.Index.M0))
	}
	if c.Index.LevelMultiplier > 0 {
		opts = append(opts, navgraph.WithLevelMultiplier(c.Index.LevelMultiplier))
	}
	if c.Index.Workers > 0 {
		opts = append(opts, navgraph.WithWorkers(c.Index.Workers))
	}
	if c.Index.KeepPrunedConnections {
		opts = append(opts, navgraph.WithKeepPrunedConnections())
	}
	if c.Index.Normalize {
		opts = append(opts, navgraph.WithNormalization())
	}
	if c.Index.EmbedVectors {
		opts = append(opts, navgraph.WithEmbeddedVectors())
	}
	return opts, nil
}

// Logger builds the configured logger writing to w.
func (c Config) Logger(w io.Writer) (*navgraph.Logger, error) {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}

	ho := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return navgraph.NewLogger(slog.NewJSONHandler(w, ho)), nil
	}
	return navgraph.NewLogger(slog.NewTextHandler(w, ho)), nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, err
	}
	return level, nil
}
