// Command builder produces the SKK-JISYO.jawiki dictionary from
// (title, headword, reading) triples extracted from Japanese Wikipedia.
// It is intended to be run offline.
//
// Flags:
//
//	--phase           comma-separated list of phases to run (default: all)
//	--dry-run         filter and merge without writing files or the DB
//	--builder-config  path to builder YAML config file
//	--input           triple file, overrides input_path
//	--output          dictionary file, overrides output_path
//	--migrate         apply database migrations before running
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/heartmarshall/jawiki-kana-dict/internal/adapter/postgres"
	"github.com/heartmarshall/jawiki-kana-dict/internal/adapter/postgres/skkentry"
	"github.com/heartmarshall/jawiki-kana-dict/internal/app"
	"github.com/heartmarshall/jawiki-kana-dict/internal/app/builder"
	"github.com/heartmarshall/jawiki-kana-dict/internal/config"
)

// Compile-time interface assertion.
var _ builder.EntryStore = (*skkentry.Repo)(nil)

func main() {
	phaseFlag := flag.String("phase", "", "comma-separated phases to run (default: all)")
	dryRunFlag := flag.Bool("dry-run", false, "filter and merge without writing files or the DB")
	builderConfigFlag := flag.String("builder-config", "", "path to builder YAML config file")
	inputFlag := flag.String("input", "", "triple file (overrides input_path)")
	outputFlag := flag.String("output", "", "dictionary file (overrides output_path)")
	migrateFlag := flag.Bool("migrate", false, "apply database migrations before running")
	flag.Parse()

	_ = godotenv.Load()

	// Load app config (logging, optional DB connection).
	appCfg, err := config.Load()
	if err != nil {
		log.Fatalf("load app config: %v", err)
	}

	logger := app.NewLogger(appCfg.Log)
	logger.Info("starting builder", slog.String("version", app.BuildVersion()))

	builderCfg, err := builder.LoadConfig(*builderConfigFlag)
	if err != nil {
		logger.Error("load builder config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// CLI flags override config.
	if *dryRunFlag {
		builderCfg.DryRun = true
	}
	if *inputFlag != "" {
		builderCfg.InputPath = *inputFlag
	}
	if *outputFlag != "" {
		builderCfg.OutputPath = *outputFlag
	}

	var phases []string
	if *phaseFlag != "" {
		phases = strings.Split(*phaseFlag, ",")
		for i := range phases {
			phases[i] = strings.TrimSpace(phases[i])
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 2*time.Hour)
	defer cancel()

	var store builder.EntryStore
	if appCfg.Database.Enabled() {
		pool, err := postgres.NewPool(ctx, appCfg.Database)
		if err != nil {
			logger.Error("connect to database", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer pool.Close()

		if *migrateFlag {
			if err := postgres.Migrate(ctx, pool, logger); err != nil {
				logger.Error("migrate database", slog.String("error", err.Error()))
				os.Exit(1)
			}
		}

		store = skkentry.New(pool, postgres.NewTxManager(pool))
	} else {
		logger.Info("no database configured, persist phase will be skipped")
	}

	pipeline := builder.NewPipeline(logger, store, *builderCfg)
	if err := pipeline.Run(ctx, phases); err != nil {
		logger.Error("pipeline failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("rejections by reason", slog.Any("counts", pipeline.RejectionCounts()))

	if pipeline.HasErrors() {
		logger.Warn("pipeline completed with errors")
		os.Exit(1)
	}

	logger.Info("pipeline completed successfully")
}
