package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/jawiki-kana-dict/internal/domain"
)

// UniquePrefix returns a short unique reading prefix for non-conflicting test data.
func UniquePrefix() string {
	return "t" + uuid.New().String()[:8] + "-"
}

// SeedRun creates an unfinished build run and returns its ID.
func SeedRun(t *testing.T, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO build_runs (id, started_at) VALUES ($1, $2)`,
		id, time.Now().UTC(),
	)
	if err != nil {
		t.Fatalf("testhelper: SeedRun insert build_run: %v", err)
	}
	return id
}

// SeedEntries stores entries for runID in the given order.
func SeedEntries(t *testing.T, pool *pgxpool.Pool, runID uuid.UUID, entries ...domain.Entry) {
	t.Helper()

	for _, e := range entries {
		_, err := pool.Exec(context.Background(),
			`INSERT INTO skk_entries (reading, headword, run_id) VALUES ($1, $2, $3)`,
			e.Reading, e.Headword, runID,
		)
		if err != nil {
			t.Fatalf("testhelper: SeedEntries insert %s /%s/: %v", e.Reading, e.Headword, err)
		}
	}
}
