package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/tenax/internal/common"
	"github.com/ternarybob/tenax/internal/edgar"
	"github.com/ternarybob/tenax/internal/interfaces"
	"github.com/ternarybob/tenax/internal/marketdata"
	"github.com/ternarybob/tenax/internal/services/collector"
	"github.com/ternarybob/tenax/internal/services/mapping"
	"github.com/ternarybob/tenax/internal/services/periods"
	"github.com/ternarybob/tenax/internal/services/pricing"
	"github.com/ternarybob/tenax/internal/services/tracker"
	storage "github.com/ternarybob/tenax/internal/storage/badger"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles  configPaths
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
	runOnce      = flag.Bool("once", false, "Run a single collection cycle and exit, ignoring any schedule")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("Tenax version %s\n", common.GetVersion())
		os.Exit(0)
	}

	// Startup sequence:
	// 1. Load config (defaults -> file1 -> file2 -> ... -> env)
	// 2. Initialize logger
	// 3. Print banner
	// 4. Open storage, seed registry, wire services

	if len(configFiles) == 0 {
		if _, err := os.Stat("tenax.toml"); err == nil {
			configFiles = append(configFiles, "tenax.toml")
		}
	}

	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	logger := common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	logger.Info().
		Strs("config_files", configFiles).
		Str("environment", config.Environment).
		Str("target_form", config.Collector.TargetForm).
		Int("concurrency", config.Collector.Concurrency).
		Msg("Application configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := storage.NewBadgerDB(logger, &config.Storage.Badger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open storage")
		os.Exit(1)
	}
	defer db.Close()

	registry := storage.NewRegistryStorage(db, logger)
	snapshots := storage.NewSnapshotStorage(db, logger)
	summaries := storage.NewSummaryStorage(db, logger)

	if err := storage.LoadRegistryFromFile(ctx, registry, config.Collector.RegistryFile, logger); err != nil {
		logger.Fatal().Err(err).Str("file", config.Collector.RegistryFile).Msg("Failed to load entity registry")
		os.Exit(1)
	}

	svc := buildCollector(config, registry, snapshots, summaries, logger)

	if config.Collector.Schedule == "" || *runOnce {
		if err := runCycle(ctx, svc, logger); err != nil {
			os.Exit(1)
		}
		return
	}

	// Scheduled mode: run on the configured cron expression until signalled.
	scheduler := cron.New()
	_, err = scheduler.AddFunc(config.Collector.Schedule, func() {
		_ = runCycle(ctx, svc, logger)
	})
	if err != nil {
		logger.Fatal().Err(err).Str("schedule", config.Collector.Schedule).Msg("Invalid collection schedule")
		os.Exit(1)
	}

	scheduler.Start()
	logger.Info().Str("schedule", config.Collector.Schedule).Msg("Collector scheduled - Press Ctrl+C to stop")

	<-ctx.Done()
	logger.Info().Msg("Shutdown signal received")
	<-scheduler.Stop().Done()
}

func buildCollector(
	config *common.Config,
	registry interfaces.RegistryStorage,
	snapshots interfaces.SnapshotStorage,
	summaries interfaces.SummaryStorage,
	logger arbor.ILogger,
) *collector.Service {
	edgarClient := edgar.NewClient(
		config.Edgar.UserAgent,
		edgar.WithBaseURL(config.Edgar.BaseURL),
		edgar.WithArchiveURL(config.Edgar.ArchiveURL),
		edgar.WithRequestDelay(config.Edgar.RequestDelay),
		edgar.WithRequestTimeout(config.Edgar.RequestTimeout),
		edgar.WithTargetForm(config.Collector.TargetForm),
		edgar.WithLogger(logger),
	)

	marketClient := marketdata.NewClient(
		config.MarketData.APIKey,
		marketdata.WithBaseURL(config.MarketData.BaseURL),
		marketdata.WithRateLimit(config.MarketData.RateLimit),
		marketdata.WithRequestTimeout(config.MarketData.RequestTimeout),
		marketdata.WithLogger(logger),
	)

	pricer := pricing.NewService(marketClient, logger)
	aggregator := periods.NewService(pricer, snapshots, logger)
	changeTracker := tracker.NewService(summaries, logger)

	resolver, err := mapping.NewService(config.Collector.MappingFile, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load identifier mappings")
		os.Exit(1)
	}

	return collector.NewService(
		edgarClient,
		resolver,
		aggregator,
		changeTracker,
		registry,
		snapshots,
		config.Collector.Concurrency,
		logger,
	)
}

func runCycle(ctx context.Context, svc *collector.Service, logger arbor.ILogger) error {
	stats, err := svc.Run(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Collection cycle failed")
		return err
	}
	if stats.Failed > 0 {
		logger.Warn().
			Str("run_id", stats.RunID).
			Int("failed", stats.Failed).
			Msg("Collection cycle finished with entity failures")
	}
	return nil
}
