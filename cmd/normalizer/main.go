// Package main provides the normalizer command-line tool that turns raw
// Medicina Legal exports into the canonical deaths artifact.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"deathmap/internal/config"
	"deathmap/internal/logger"
	"deathmap/internal/normalizer"
	"deathmap/internal/source"
	"deathmap/internal/store"
	"deathmap/internal/store/sqlite"
)

const defaultConfig = "configs/normalizer.yaml"

func main() {
	configFile := flag.String("config", defaultConfig, "Path to YAML configuration file")
	output := flag.String("output", "", "Artifact path (overrides output.path)")
	sqlitePath := flag.String("sqlite", "", "Also export to this SQLite database (overrides output.sqlite_path)")
	force := flag.Bool("force", false, "Overwrite an existing artifact")
	seed := flag.Uint64("seed", 0, "Jitter seed for reproducible output (overrides dataset.seed)")
	level := flag.String("log-level", "", "Log level (overrides logging.level)")
	dumpConfig := flag.String("dump-config", "", "Write the effective configuration to this YAML file")
	help := flag.Bool("help", false, "Show usage information")

	flag.Parse()

	if *help {
		printUsage()
		os.Exit(0)
	}

	log := logger.NewLogger("info")

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Error(fmt.Sprintf("❌ Failed to load config %s: %v", *configFile, err))
		os.Exit(1)
	}

	if *output != "" {
		cfg.Output.Path = *output
	}

	if *sqlitePath != "" {
		cfg.Output.SQLitePath = *sqlitePath
	}

	if *force {
		cfg.Output.Force = true
	}

	if *seed != 0 {
		cfg.Dataset.Seed = *seed
	}

	if *level != "" {
		cfg.Logging.Level = *level
	}

	log.SetLevel(cfg.Logging.Level)

	if *dumpConfig != "" {
		if err := cfg.SaveConfig(*dumpConfig); err != nil {
			log.Error(fmt.Sprintf("❌ %v", err))
			os.Exit(1)
		}

		log.Info(fmt.Sprintf("💾 Effective configuration written to: %s", *dumpConfig))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error(fmt.Sprintf("❌ %v", err))

		if errors.Is(err, store.ErrOutputExists) {
			log.Info("ℹ️  Pass -force to overwrite the existing artifact")
		}

		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	start := time.Now()

	log.Info("🚀 Starting normalizer")
	log.Info(fmt.Sprintf("⚙️  %s", cfg))

	client := source.NewClient(cfg.Fetch, log)
	processor := normalizer.NewProcessor(normalizer.NewRand(cfg.Dataset.Seed), log)

	ds, err := processor.Run(ctx, cfg, client)
	if err != nil {
		return err
	}

	log.Info(fmt.Sprintf("✅ Normalized %d records in %v", ds.Total, time.Since(start)))

	opts := store.WriteOptions{Pretty: cfg.Output.PrettyPrint, Force: cfg.Output.Force}
	if err := store.Write(cfg.Output.Path, ds, opts); err != nil {
		return err
	}

	log.Info(fmt.Sprintf("💾 Saved to: %s", cfg.Output.Path))

	if cfg.Output.SQLitePath == "" {
		return nil
	}

	db, err := sqlite.Open(cfg.Output.SQLitePath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := sqlite.Migrate(db); err != nil {
		return err
	}

	if err := sqlite.Export(ctx, db, ds); err != nil {
		return err
	}

	log.Info(fmt.Sprintf("🗄️  Exported to SQLite: %s", cfg.Output.SQLitePath))

	return nil
}

func printUsage() {
	fmt.Println("Usage: ./bin/normalizer [OPTIONS]")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  ./bin/normalizer -config configs/normalizer.yaml")
	fmt.Println("  ./bin/normalizer -output public/data/deaths/deaths-2023.json -force -seed 42")
	fmt.Println("  ./bin/normalizer -sqlite data/deaths.db")
	fmt.Println("  ./bin/normalizer -seed 42 -dump-config run-2023.yaml")
}
