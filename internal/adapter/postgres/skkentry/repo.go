// Package skkentry persists dictionary build runs in PostgreSQL: the run
// record, every accepted (reading, headword) pair and every rejection.
package skkentry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/jawiki-kana-dict/internal/adapter/postgres"
	"github.com/heartmarshall/jawiki-kana-dict/internal/domain"
	"github.com/heartmarshall/jawiki-kana-dict/internal/skkdict"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Repo provides build-run persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
	txm  *postgres.TxManager
}

// New creates a new build-run repository.
func New(pool *pgxpool.Pool, txm *postgres.TxManager) *Repo {
	return &Repo{pool: pool, txm: txm}
}

// RunInTx runs fn in one transaction shared by every Repo call made with the
// ctx it receives.
func (r *Repo) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.txm.RunInTx(ctx, fn)
}

// ---------------------------------------------------------------------------
// Runs
// ---------------------------------------------------------------------------

// CreateRun inserts a new build run and returns its ID.
func (r *Repo) CreateRun(ctx context.Context) (uuid.UUID, error) {
	id := uuid.New()
	q := postgres.QuerierFromCtx(ctx, r.pool)

	_, err := q.Exec(ctx,
		`INSERT INTO build_runs (id, started_at) VALUES ($1, $2)`,
		id, time.Now().UTC(),
	)
	if err != nil {
		return uuid.Nil, postgres.MapError(err, "build_runs", id.String())
	}
	return id, nil
}

// FinishRun stamps the run as finished with its counters.
// Returns domain.ErrNotFound if the run does not exist.
func (r *Repo) FinishRun(ctx context.Context, runID uuid.UUID, stats domain.RunStats) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx,
		`UPDATE build_runs SET finished_at = $2, accepted = $3, rejected = $4 WHERE id = $1`,
		runID, time.Now().UTC(), stats.Accepted, stats.Rejected,
	)
	if err != nil {
		return postgres.MapError(err, "build_runs", runID.String())
	}
	if tag.RowsAffected() == 0 {
		return postgres.MapError(pgx.ErrNoRows, "build_runs", runID.String())
	}
	return nil
}

// GetRun returns a build run by ID. Returns domain.ErrNotFound if not found.
func (r *Repo) GetRun(ctx context.Context, runID uuid.UUID) (*domain.BuildRun, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var run domain.BuildRun
	err := q.QueryRow(ctx,
		`SELECT id, started_at, finished_at, accepted, rejected FROM build_runs WHERE id = $1`,
		runID,
	).Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.Accepted, &run.Rejected)
	if err != nil {
		return nil, postgres.MapError(err, "build_runs", runID.String())
	}
	return &run, nil
}

// ---------------------------------------------------------------------------
// Batch inserts (pgx.Batch API)
// ---------------------------------------------------------------------------

// BulkInsertEntries inserts accepted pairs in one transaction, or in the
// caller's transaction when ctx carries one. Pairs already
// stored by any run are skipped via ON CONFLICT DO NOTHING.
// Returns the number of actually inserted rows.
func (r *Repo) BulkInsertEntries(ctx context.Context, runID uuid.UUID, entries []domain.Entry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(
			`INSERT INTO skk_entries (reading, headword, run_id)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (reading, headword) DO NOTHING`,
			e.Reading, e.Headword, runID,
		)
	}

	var inserted int
	err := r.txm.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		inserted, err = r.sendBatchExec(ctx, batch)
		return err
	})
	if err != nil {
		return 0, postgres.MapError(err, "skk_entries", runID.String())
	}
	return inserted, nil
}

// BulkInsertRejections records rejections for a run with COPY, inside the
// caller's transaction or a new one.
func (r *Repo) BulkInsertRejections(ctx context.Context, runID uuid.UUID, rejections []domain.Rejection) (int, error) {
	if len(rejections) == 0 {
		return 0, nil
	}

	rows := make([][]any, len(rejections))
	for i, rej := range rejections {
		values := rej.Context
		if values == nil {
			values = []string{}
		}
		rows[i] = []any{runID, rej.Reason, values}
	}

	var copied int64
	err := r.txm.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		copied, err = postgres.QuerierFromCtx(ctx, r.pool).CopyFrom(ctx,
			pgx.Identifier{"rejections"},
			[]string{"run_id", "reason", "context"},
			pgx.CopyFromRows(rows),
		)
		return err
	})
	if err != nil {
		return 0, postgres.MapError(err, "rejections", runID.String())
	}
	return int(copied), nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// LoadDictionary returns every stored pair whose reading starts with
// readingPrefix (all pairs for an empty prefix). Candidates keep insertion order.
func (r *Repo) LoadDictionary(ctx context.Context, readingPrefix string) (skkdict.Dictionary, error) {
	query := psql.
		Select("reading", "headword").
		From("skk_entries").
		OrderBy("reading", "seq")
	if readingPrefix != "" {
		query = query.Where(squirrel.Like{"reading": escapeLike(readingPrefix) + "%"})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.MapError(err, "skk_entries", readingPrefix)
	}
	defer rows.Close()

	d := make(skkdict.Dictionary)
	for rows.Next() {
		var reading, headword string
		if err := rows.Scan(&reading, &headword); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		d.Add(reading, headword)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, "skk_entries", readingPrefix)
	}
	return d, nil
}

// RejectionCounts returns rejection totals per reason for a run.
func (r *Repo) RejectionCounts(ctx context.Context, runID uuid.UUID) (map[string]int, error) {
	sql, args, err := psql.
		Select("reason", "count(*)").
		From("rejections").
		Where(squirrel.Eq{"run_id": runID}).
		GroupBy("reason").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.MapError(err, "build_runs", runID.String())
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var reason string
		var n int
		if err := rows.Scan(&reason, &n); err != nil {
			return nil, fmt.Errorf("scan rejection count: %w", err)
		}
		counts[reason] = n
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, "build_runs", runID.String())
	}
	return counts, nil
}

// ---------------------------------------------------------------------------
// Maintenance
// ---------------------------------------------------------------------------

// PruneRejections deletes the rejections of runs started before threshold.
// Runs and their entries are kept. Returns the number of deleted rows.
func (r *Repo) PruneRejections(ctx context.Context, threshold time.Time) (int64, error) {
	sql, args, err := psql.
		Delete("rejections").
		Where("run_id IN (SELECT id FROM build_runs WHERE started_at < ?)", threshold).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, postgres.MapError(err, "rejections", "")
	}
	return tag.RowsAffected(), nil
}

func (r *Repo) sendBatchExec(ctx context.Context, batch *pgx.Batch) (int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)
	results := q.SendBatch(ctx, batch)
	defer results.Close()

	var inserted int
	for range batch.Len() {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("batch exec: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}

	return inserted, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
