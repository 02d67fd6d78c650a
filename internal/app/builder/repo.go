// Package builder orchestrates the offline dictionary build: filtering raw
// triples, merging with existing SKK dictionaries, writing the result and
// optionally recording the run in PostgreSQL.
package builder

import (
	"context"

	"github.com/google/uuid"

	"github.com/heartmarshall/jawiki-kana-dict/internal/domain"
	"github.com/heartmarshall/jawiki-kana-dict/internal/skkdict"
)

// EntryStore defines the persistence contract consumed by the pipeline.
// All methods use only domain types; no adapter imports.
// Implemented by skkentry.Repo.
type EntryStore interface {
	// RunInTx runs fn in one transaction; store calls made with the ctx passed
	// to fn join it.
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error

	// Run bookkeeping.
	CreateRun(ctx context.Context) (uuid.UUID, error)
	FinishRun(ctx context.Context, runID uuid.UUID, stats domain.RunStats) error

	// Batch inserts. Entries are ON CONFLICT DO NOTHING on (reading, headword).
	BulkInsertEntries(ctx context.Context, runID uuid.UUID, entries []domain.Entry) (int, error)
	BulkInsertRejections(ctx context.Context, runID uuid.UUID, rejections []domain.Rejection) (int, error)

	// LoadDictionary returns every stored pair whose reading starts with prefix.
	LoadDictionary(ctx context.Context, readingPrefix string) (skkdict.Dictionary, error)
}
