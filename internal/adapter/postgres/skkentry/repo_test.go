package skkentry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/jawiki-kana-dict/internal/adapter/postgres"
	"github.com/heartmarshall/jawiki-kana-dict/internal/adapter/postgres/skkentry"
	"github.com/heartmarshall/jawiki-kana-dict/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/jawiki-kana-dict/internal/app/builder"
	"github.com/heartmarshall/jawiki-kana-dict/internal/domain"
)

// Compile-time check: *skkentry.Repo must satisfy builder.EntryStore.
var _ builder.EntryStore = (*skkentry.Repo)(nil)

func newRepo(t *testing.T) (*skkentry.Repo, *pgxpool.Pool) {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	return skkentry.New(pool, postgres.NewTxManager(pool)), pool
}

func TestRepo_CreateAndFinishRun(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	ctx := context.Background()

	runID, err := repo.CreateRun(ctx)
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	run, err := repo.GetRun(ctx, runID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.FinishedAt != nil {
		t.Errorf("new run should not be finished, got %v", run.FinishedAt)
	}

	if err := repo.FinishRun(ctx, runID, domain.RunStats{Accepted: 7, Rejected: 3}); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	run, err = repo.GetRun(ctx, runID)
	if err != nil {
		t.Fatalf("GetRun after finish: %v", err)
	}
	if run.FinishedAt == nil {
		t.Fatal("finished run should have finished_at")
	}
	if run.Accepted != 7 || run.Rejected != 3 {
		t.Errorf("counters = (%d, %d), want (7, 3)", run.Accepted, run.Rejected)
	}
}

func TestRepo_GetRun_NotFound(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)

	_, err := repo.GetRun(context.Background(), uuid.New())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRepo_FinishRun_NotFound(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)

	err := repo.FinishRun(context.Background(), uuid.New(), domain.RunStats{})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRepo_BulkInsertEntries_Idempotent(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	ctx := context.Background()
	p := testhelper.UniquePrefix()

	runID, err := repo.CreateRun(ctx)
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	entries := []domain.Entry{
		{Reading: p + "あかぷる", Headword: "赤プル"},
		{Reading: p + "あかぷる", Headword: "赤ぷる"},
		{Reading: p + "あそさん", Headword: "安蘇山"},
	}

	inserted, err := repo.BulkInsertEntries(ctx, runID, entries)
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if inserted != 3 {
		t.Errorf("first: expected 3 inserted, got %d", inserted)
	}

	// A second run producing the same pairs inserts nothing.
	runID2, err := repo.CreateRun(ctx)
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	inserted, err = repo.BulkInsertEntries(ctx, runID2, entries)
	if err != nil {
		t.Fatalf("second insert: %v", err)
	}
	if inserted != 0 {
		t.Errorf("second: expected 0 inserted, got %d", inserted)
	}
}

func TestRepo_BulkInsertEntries_UnknownRun(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)

	_, err := repo.BulkInsertEntries(context.Background(), uuid.New(), []domain.Entry{
		{Reading: testhelper.UniquePrefix() + "あ", Headword: "亜"},
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing run, got %v", err)
	}
}

func TestRepo_BulkInsertEntries_Empty(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)

	inserted, err := repo.BulkInsertEntries(context.Background(), uuid.New(), nil)
	if err != nil || inserted != 0 {
		t.Fatalf("empty insert = (%d, %v), want (0, nil)", inserted, err)
	}
}

func TestRepo_BulkInsertRejections(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	ctx := context.Background()

	runID, err := repo.CreateRun(ctx)
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	rejections := []domain.Rejection{
		{Reason: "kanji is page link", Context: []string{"[[葉状体]]", "ようじょうたい"}},
		{Reason: "kanji is page link", Context: []string{"[[a]]", "あ"}},
		{Reason: "yomi is empty"},
	}

	inserted, err := repo.BulkInsertRejections(ctx, runID, rejections)
	if err != nil {
		t.Fatalf("BulkInsertRejections: %v", err)
	}
	if inserted != 3 {
		t.Errorf("expected 3 inserted, got %d", inserted)
	}

	counts, err := repo.RejectionCounts(ctx, runID)
	if err != nil {
		t.Fatalf("RejectionCounts: %v", err)
	}
	if counts["kanji is page link"] != 2 || counts["yomi is empty"] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

func TestRepo_BulkInsertRejections_UnknownRun(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)

	_, err := repo.BulkInsertRejections(context.Background(), uuid.New(), []domain.Rejection{
		{Reason: "yomi is empty"},
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing run, got %v", err)
	}
}

func TestRepo_RunInTx_RollsBackRunAndEntries(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	ctx := context.Background()
	p := testhelper.UniquePrefix()
	abort := errors.New("abort build")

	var runID uuid.UUID
	err := repo.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		runID, err = repo.CreateRun(ctx)
		if err != nil {
			return err
		}
		for _, batch := range [][]domain.Entry{
			{{Reading: p + "あかぷる", Headword: "赤プル"}},
			{{Reading: p + "あそさん", Headword: "安蘇山"}},
		} {
			if _, err := repo.BulkInsertEntries(ctx, runID, batch); err != nil {
				return err
			}
		}
		return abort
	})
	if !errors.Is(err, abort) {
		t.Fatalf("RunInTx error = %v, want abort", err)
	}

	if _, err := repo.GetRun(ctx, runID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetRun after rollback = %v, want ErrNotFound", err)
	}
	d, err := repo.LoadDictionary(ctx, p)
	if err != nil {
		t.Fatalf("LoadDictionary: %v", err)
	}
	if d.Len() != 0 {
		t.Errorf("expected no entries after rollback, got %v", d)
	}
}

func TestRepo_LoadDictionary(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()
	p := testhelper.UniquePrefix()

	runID := testhelper.SeedRun(t, pool)
	testhelper.SeedEntries(t, pool, runID,
		domain.Entry{Reading: p + "あかぷる", Headword: "赤プル"},
		domain.Entry{Reading: p + "きめつのやいば", Headword: "鬼滅の刃"},
		domain.Entry{Reading: p + "あかぷる", Headword: "赤ぷる"},
	)

	d, err := repo.LoadDictionary(ctx, p)
	if err != nil {
		t.Fatalf("LoadDictionary: %v", err)
	}

	if len(d) != 2 {
		t.Fatalf("expected 2 readings, got %d: %v", len(d), d)
	}
	got := d[p+"あかぷる"]
	if len(got) != 2 || got[0] != "赤プル" || got[1] != "赤ぷる" {
		t.Errorf("candidates = %v, want insertion order [赤プル 赤ぷる]", got)
	}

	narrow, err := repo.LoadDictionary(ctx, p+"き")
	if err != nil {
		t.Fatalf("LoadDictionary narrow: %v", err)
	}
	if len(narrow) != 1 || !narrow.Contains(p+"きめつのやいば", "鬼滅の刃") {
		t.Errorf("narrow prefix result = %v", narrow)
	}
}

func TestRepo_LoadDictionary_EscapesWildcards(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	ctx := context.Background()
	p := testhelper.UniquePrefix()

	runID, err := repo.CreateRun(ctx)
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	_, err = repo.BulkInsertEntries(ctx, runID, []domain.Entry{
		{Reading: p + "a_b", Headword: "甲"},
		{Reading: p + "axb", Headword: "乙"},
	})
	if err != nil {
		t.Fatalf("BulkInsertEntries: %v", err)
	}

	d, err := repo.LoadDictionary(ctx, p+"a_")
	if err != nil {
		t.Fatalf("LoadDictionary: %v", err)
	}
	if len(d) != 1 || !d.Contains(p+"a_b", "甲") {
		t.Errorf("underscore must match literally, got %v", d)
	}
}

// Not parallel: a future threshold prunes rejections of every run in the
// shared database.
func TestRepo_PruneRejections(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	runID, err := repo.CreateRun(ctx)
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if _, err := repo.BulkInsertRejections(ctx, runID, []domain.Rejection{{Reason: "yomi is empty"}}); err != nil {
		t.Fatalf("BulkInsertRejections: %v", err)
	}

	// A threshold before the run keeps its rejections.
	if _, err := repo.PruneRejections(ctx, time.Now().Add(-time.Hour)); err != nil {
		t.Fatalf("PruneRejections (past): %v", err)
	}
	counts, err := repo.RejectionCounts(ctx, runID)
	if err != nil {
		t.Fatalf("RejectionCounts: %v", err)
	}
	if counts["yomi is empty"] != 1 {
		t.Fatalf("rejection should survive a past threshold, counts = %v", counts)
	}

	deleted, err := repo.PruneRejections(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("PruneRejections (future): %v", err)
	}
	if deleted < 1 {
		t.Errorf("expected at least 1 deleted row, got %d", deleted)
	}
	counts, err = repo.RejectionCounts(ctx, runID)
	if err != nil {
		t.Fatalf("RejectionCounts: %v", err)
	}
	if len(counts) != 0 {
		t.Errorf("expected no rejections after prune, got %v", counts)
	}

	if _, err := repo.GetRun(ctx, runID); err != nil {
		t.Errorf("run must be kept after prune: %v", err)
	}
}
