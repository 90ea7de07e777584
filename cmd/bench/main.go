package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"storebench/internal/backend"
	"storebench/internal/backend/badgerstore"
	"storebench/internal/backend/localmem"
	"storebench/internal/backend/redismem"
	"storebench/internal/backend/simplestore"
	"storebench/internal/config"
	"storebench/internal/logging"
	"storebench/internal/orchestrator"
	"storebench/internal/ratelimit"
	"storebench/internal/report"
	"storebench/internal/tracing"
)

func main() {
	var configPath string
	var serve bool
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.BoolVar(&serve, "serve", false, "Serve results over HTTP after the suite finishes")
	flag.Parse()

	if len(os.Args) > 1 && (os.Args[1] == "-h" || os.Args[1] == "--help") {
		printUsage()
		return
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.NewLogger(&cfg.Logging)

	tracer, err := tracing.NewService(cfg.Tracing)
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}
	defer func() {
		_ = tracer.Close(context.Background())
	}()

	var limiters *ratelimit.Registry
	if cfg.Limits.Enabled {
		limiters = ratelimit.NewRegistry()
	}

	orch := orchestrator.New(orchestrator.Options{
		Logger:   logger,
		Tracer:   tracer,
		Seed:     cfg.Data.Seed,
		NumUsers: cfg.Data.NumUsers,
		Limiters: limiters,
	})

	backendNames, err := registerBackends(orch, cfg)
	if err != nil {
		log.Fatalf("Failed to register backends: %v", err)
	}
	if len(backendNames) == 0 {
		log.Fatalf("No backends enabled in configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cases := buildCases(cfg)
	suite, err := orch.RunSuite(ctx, cfg.Suite.Name, backendNames, cases, cfg.Suite.ConcurrencyLevels)
	if err != nil {
		log.Fatalf("Suite failed: %v", err)
	}

	path, err := report.Write(cfg.Report.OutputDir, suite)
	if err != nil {
		log.Fatalf("Failed to write report: %v", err)
	}
	logger.Info("Suite finished",
		"suite", suite.SuiteName,
		"runs", len(suite.Results),
		"duration_seconds", suite.TotalDuration,
		"report", path,
	)

	if serve {
		store := report.NewStore()
		store.Add(suite)
		srv := report.NewServer(&cfg.Report, store, logger)

		go func() {
			<-ctx.Done()
			_ = srv.Stop(context.Background())
		}()
		if err := srv.Start(); err != nil {
			logger.WithError(err).Info("Report server stopped")
		}
	}
}

// registerBackends wires every enabled backend into the orchestrator and
// returns their names in a stable order.
func registerBackends(orch *orchestrator.Orchestrator, cfg *config.Config) ([]string, error) {
	var names []string

	register := func(b backend.Backend) error {
		if err := orch.RegisterBackend(b); err != nil {
			return err
		}
		names = append(names, b.Name())
		return nil
	}

	if cfg.Backends.SimpleStore.Enabled {
		if err := register(simplestore.New()); err != nil {
			return nil, err
		}
	}
	if cfg.Backends.Badger.Enabled {
		store := badgerstore.New(badgerstore.Config{
			DataPath:   cfg.Backends.Badger.DataPath,
			InMemory:   cfg.Backends.Badger.InMemory,
			SyncWrites: cfg.Backends.Badger.SyncWrites,
		})
		if err := register(store); err != nil {
			return nil, err
		}
	}
	if cfg.Backends.LocalMemory.Enabled {
		if err := register(localmem.New()); err != nil {
			return nil, err
		}
	}
	if cfg.Backends.Redis.Enabled {
		store := redismem.New(redismem.Config{
			Addr:     cfg.Backends.Redis.Addr,
			Password: cfg.Backends.Redis.Password,
			DB:       cfg.Backends.Redis.DB,
		})
		if err := register(store); err != nil {
			return nil, err
		}
	}
	return names, nil
}

// buildCases derives the standard case pair from the suite configuration:
// one knowledge-base case and one memory case at the configured scale.
func buildCases(cfg *config.Config) []orchestrator.TestCase {
	return []orchestrator.TestCase{
		{
			ID:          "kb-retrieval",
			Name:        "Knowledge base retrieval",
			Domain:      orchestrator.DomainKnowledgeBase,
			Description: "Upload, index, and query a synthetic corpus",
			DataScale:   cfg.Suite.DataScale,
			NumQueries:  cfg.Suite.NumQueries,
			TopK:        cfg.Suite.TopK,
		},
		{
			ID:          "memory-search",
			Name:        "Memory store search",
			Domain:      orchestrator.DomainMemory,
			Description: "Bulk-load memories and search them per user",
			DataScale:   cfg.Suite.DataScale,
			NumQueries:  cfg.Suite.NumQueries,
			TopK:        cfg.Suite.TopK,
		},
	}
}

func printUsage() {
	fmt.Printf(`Backend Benchmark Harness

Usage:
  %s [options]

Options:
  -config string
        Path to configuration file (YAML)
  -serve
        Serve finished results over HTTP after the suite completes
  -h, --help
        Show this help message

Environment Variables:
  Configuration can be overridden using environment variables with SB_ prefix,
  e.g. SB_SUITE_DATA_SCALE, SB_REDIS_ADDR, SB_LOG_LEVEL.

Examples:
  # Run with defaults (in-process backends, small scale)
  %s

  # Run a custom suite and browse results
  %s -config bench.yaml -serve

  # Override scale without a config file
  SB_SUITE_DATA_SCALE=medium %s
`, os.Args[0], os.Args[0], os.Args[0], os.Args[0])
}
