// Command prune removes rejection records of build runs older than the
// configured retention period. Runs and accepted entries are kept. It is
// intended to be invoked by an external cron job.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/heartmarshall/jawiki-kana-dict/internal/adapter/postgres"
	"github.com/heartmarshall/jawiki-kana-dict/internal/adapter/postgres/skkentry"
	"github.com/heartmarshall/jawiki-kana-dict/internal/app"
	"github.com/heartmarshall/jawiki-kana-dict/internal/config"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	repo := skkentry.New(pool, postgres.NewTxManager(pool))

	threshold := time.Now().AddDate(0, 0, -cfg.Prune.RejectionRetentionDays)

	deleted, err := repo.PruneRejections(ctx, threshold)
	if err != nil {
		logger.Error("prune failed",
			slog.String("error", err.Error()),
			slog.Time("threshold", threshold),
		)
		os.Exit(1)
	}

	logger.Info("prune completed",
		slog.Int64("deleted", deleted),
		slog.Time("threshold", threshold),
	)
}
