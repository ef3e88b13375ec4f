package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/navgraph/navgraph"
	"github.com/navgraph/navgraph/blobstore"
)

// app carries the state shared by all subcommands of one invocation.
type app struct {
	configPath string
	flags      flagValues

	cfg     Config
	logger  *navgraph.Logger
	metrics navgraph.MetricsCollector
	store   blobstore.BlobStore

	server  *http.Server
	serveCh chan error
}

// flagValues receives command line flags. A flag only overrides the
// configuration when it was set explicitly.
type flagValues struct {
	backend     string
	root        string
	logLevel    string
	logFormat   string
	metricsAddr string

	m               int
	m0              int
	efConstruction  int
	levelMultiplier float64
	metric          string
	seed            uint64
	workers         int
	keepPruned      bool
	normalize       bool
	compression     string
	embedVectors    bool

	k  int
	ef int
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "navgraph",
		Short: "Build and query HNSW vector indexes",
		Long: `navgraph builds approximate nearest neighbor indexes over .fvecs files,
stores them on the local file system, MinIO or S3, and answers k-NN queries.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.shutdown(cmd.Context())
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "YAML configuration file")
	pf.StringVar(&a.flags.backend, "backend", "", "Storage backend: local, minio or s3")
	pf.StringVar(&a.flags.root, "root", "", "Root directory of the local backend")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	pf.StringVar(&a.flags.logFormat, "log-format", "", "Log format: text or json")
	pf.StringVar(&a.flags.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")

	cmd.AddCommand(newBuildCmd(a), newSearchCmd(a), newStatsCmd(a))
	return cmd
}

// setup resolves the configuration and connects storage, logging and
// metrics for the command about to run.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	a.flags.overlay(&cfg, cmd.Flags().Changed)
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	a.logger, err = cfg.Logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	if err := a.startMetrics(); err != nil {
		return err
	}

	a.store, err = openStorage(cmd.Context(), cfg.Storage)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	return nil
}

func (f *flagValues) overlay(cfg *Config, changed func(string) bool) {
	set := func(name string, apply func()) {
		if changed(name) {
			apply()
		}
	}

	set("backend", func() { cfg.Storage.Backend = f.backend })
	set("root", func() { cfg.Storage.Local.Root = f.root })
	set("log-level", func() { cfg.Log.Level = f.logLevel })
	set("log-format", func() { cfg.Log.Format = f.logFormat })
	set("metrics-addr", func() { cfg.MetricsAddr = f.metricsAddr })

	set("m", func() { cfg.Index.M = f.m })
	set("m0", func() { cfg.Index.M0 = f.m0 })
	set("ef-construction", func() { cfg.Index.EFConstruction = f.efConstruction })
	set("level-multiplier", func() { cfg.Index.LevelMultiplier = f.levelMultiplier })
	set("metric", func() { cfg.Index.Metric = f.metric })
	set("seed", func() { cfg.Index.Seed = f.seed })
	set("workers", func() { cfg.Index.Workers = f.workers })
	set("keep-pruned", func() { cfg.Index.KeepPrunedConnections = f.keepPruned })
	set("normalize", func() { cfg.Index.Normalize = f.normalize })
	set("compression", func() { cfg.Index.Compression = f.compression })
	set("embed-vectors", func() { cfg.Index.EmbedVectors = f.embedVectors })

	set("k", func() { cfg.Search.K = f.k })
	set("ef", func() { cfg.Search.EF = f.ef })
}

func (a *app) startMetrics() error {
	if a.cfg.MetricsAddr == "" {
		a.metrics = &navgraph.BasicMetricsCollector{}
		return nil
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	pc, err := navgraph.NewPrometheusCollector(reg, "navgraph")
	if err != nil {
		return err
	}
	a.metrics = pc

	ln, err := net.Listen("tcp", a.cfg.MetricsAddr)
	if err != nil {
		return fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	a.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	a.serveCh = make(chan error, 1)
	go func() { a.serveCh <- a.server.Serve(ln) }()

	a.logger.Info("serving metrics", "addr", ln.Addr().String())
	return nil
}

func (a *app) shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("metrics server: %w", err)
	}
	if err := <-a.serveCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

// indexOptions returns the facade options for the resolved configuration.
func (a *app) indexOptions() ([]navgraph.Option, error) {
	opts, err := a.cfg.IndexOptions()
	if err != nil {
		return nil, err
	}
	return append(opts,
		navgraph.WithLogger(a.logger),
		navgraph.WithMetricsCollector(a.metrics),
	), nil
}
