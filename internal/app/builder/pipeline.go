package builder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/jawiki-kana-dict/internal/app/builder/jawiki"
	"github.com/heartmarshall/jawiki-kana-dict/internal/domain"
	"github.com/heartmarshall/jawiki-kana-dict/internal/filter"
	"github.com/heartmarshall/jawiki-kana-dict/internal/skkdict"
)

// Phase names in canonical execution order.
const (
	PhaseFilter  = "filter"
	PhaseMerge   = "merge"
	PhaseWrite   = "write"
	PhasePersist = "persist"
	PhaseCheck   = "check"
)

var allPhases = []string{PhaseFilter, PhaseMerge, PhaseWrite, PhasePersist, PhaseCheck}

// ErrNothingBuilt is returned by the write and persist phases when no earlier
// phase of the same run produced a dictionary.
var ErrNothingBuilt = errors.New("no dictionary built in this run")

// filterChunkSize is the number of triples one worker task filters.
const filterChunkSize = 256

// PhaseResult holds the outcome of a single pipeline phase.
type PhaseResult struct {
	Processed int
	Accepted  int
	Rejected  int
	Skipped   int
	Errors    int
	Duration  time.Duration
	Err       error
}

// Pipeline orchestrates the build phases. State produced by one phase is
// consumed by the next; a failed phase stops the run.
type Pipeline struct {
	log     *slog.Logger
	store   EntryStore
	cfg     Config
	results map[string]PhaseResult

	reporter *slogReporter
	built    skkdict.Dictionary
	final    skkdict.Dictionary
	entries  []domain.Entry
}

// NewPipeline creates a new Pipeline. store may be nil, in which case the
// persist phase is skipped.
func NewPipeline(log *slog.Logger, store EntryStore, cfg Config) *Pipeline {
	return &Pipeline{
		log:      log,
		store:    store,
		cfg:      cfg,
		results:  make(map[string]PhaseResult),
		reporter: newSlogReporter(log, store != nil && !cfg.DryRun),
	}
}

// Results returns phase results after Run completes.
func (p *Pipeline) Results() map[string]PhaseResult {
	return p.results
}

// HasErrors returns true if any phase recorded errors.
func (p *Pipeline) HasErrors() bool {
	for _, r := range p.results {
		if r.Err != nil || r.Errors > 0 {
			return true
		}
	}
	return false
}

// Dictionary returns the final dictionary of the last run, or the filtered
// one if the merge phase did not run.
func (p *Pipeline) Dictionary() skkdict.Dictionary {
	if p.final != nil {
		return p.final
	}
	return p.built
}

// RejectionCounts returns how many triples were rejected per reason.
func (p *Pipeline) RejectionCounts() map[string]int {
	return p.reporter.Counts()
}

// Run executes the pipeline. If phases is non-empty, only the listed phases
// run, still in canonical order.
func (p *Pipeline) Run(ctx context.Context, phases []string) error {
	toRun, err := selectPhases(phases)
	if err != nil {
		return err
	}

	for _, phase := range toRun {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("before phase %s: %w", phase, err)
		}

		start := time.Now()
		p.log.Info("starting phase", slog.String("phase", phase))

		var result PhaseResult
		switch phase {
		case PhaseFilter:
			result = p.runFilter(ctx)
		case PhaseMerge:
			result = p.runMerge()
		case PhaseWrite:
			result = p.runWrite()
		case PhasePersist:
			result = p.runPersist(ctx)
		case PhaseCheck:
			result = p.runCheck(ctx)
		}
		result.Duration = time.Since(start)
		p.results[phase] = result

		if result.Err != nil {
			p.log.Warn("phase failed",
				slog.String("phase", phase),
				slog.String("error", result.Err.Error()),
				slog.Duration("duration", result.Duration),
			)
			return fmt.Errorf("phase %s: %w", phase, result.Err)
		}

		p.log.Info("phase completed",
			slog.String("phase", phase),
			slog.Int("processed", result.Processed),
			slog.Int("accepted", result.Accepted),
			slog.Int("rejected", result.Rejected),
			slog.Int("skipped", result.Skipped),
			slog.Int("errors", result.Errors),
			slog.Duration("duration", result.Duration),
		)
	}

	p.log.Info("pipeline completed", slog.Int("phases_run", len(toRun)))
	return nil
}

func selectPhases(phases []string) ([]string, error) {
	if len(phases) == 0 {
		return allPhases, nil
	}
	for _, ph := range phases {
		if !slices.Contains(allPhases, ph) {
			return nil, fmt.Errorf("unknown phase %q (known: %v)", ph, allPhases)
		}
	}
	var filtered []string
	for _, ph := range allPhases {
		if slices.Contains(phases, ph) {
			filtered = append(filtered, ph)
		}
	}
	return filtered, nil
}

func (p *Pipeline) rules() *filter.Rules {
	rules := filter.DefaultRules()
	rules.MaxIterations = p.cfg.MaxFixpointIterations
	rules.TitleBlacklist = append(rules.TitleBlacklist, p.cfg.ExtraTitleBlacklist...)
	return rules
}

// runFilter parses the triple file and filters it across the worker pool.
// Results are collected by input index, so the dictionary is assembled in
// input order regardless of scheduling.
func (p *Pipeline) runFilter(ctx context.Context) PhaseResult {
	if p.cfg.InputPath == "" {
		return PhaseResult{Err: errors.New("input path not configured")}
	}

	triples, err := jawiki.Parse(p.cfg.InputPath)
	if err != nil {
		return PhaseResult{Err: fmt.Errorf("parse triples: %w", err)}
	}
	p.log.Info("triples parsed", slog.Int("triples", len(triples)))

	f := filter.New(p.rules(), p.reporter)
	accepted := make([]*domain.Entry, len(triples))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)
	for start := 0; start < len(triples); start += filterChunkSize {
		end := min(start+filterChunkSize, len(triples))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				e, err := f.Apply(triples[i])
				if err != nil {
					return fmt.Errorf("%s: %w", triples[i], err)
				}
				accepted[i] = e
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return PhaseResult{Processed: len(triples), Err: err}
	}

	p.built = make(skkdict.Dictionary)
	p.final = nil
	p.entries = p.entries[:0]
	for _, e := range accepted {
		if e == nil {
			continue
		}
		p.built.Add(e.Reading, e.Headword)
		p.entries = append(p.entries, *e)
	}

	return PhaseResult{
		Processed: len(triples),
		Accepted:  len(p.entries),
		Rejected:  len(triples) - len(p.entries),
	}
}

// runMerge combines the filtered dictionary with the configured SKK files.
// Candidates may repeat across sources until the final Dedupe.
func (p *Pipeline) runMerge() PhaseResult {
	dicts := []skkdict.Dictionary{p.built}
	for _, path := range p.cfg.MergePaths {
		d, err := skkdict.ParseFile(path, p.cfg.MergeEncoding, skkdict.ParseOptions{})
		if err != nil {
			return PhaseResult{Err: fmt.Errorf("merge source: %w", err)}
		}
		p.log.Info("merge source parsed", slog.String("path", path), slog.Int("readings", len(d)))
		dicts = append(dicts, d)
	}

	p.final = skkdict.Merge(dicts...).Dedupe()
	return PhaseResult{Processed: len(p.cfg.MergePaths), Accepted: p.final.Len()}
}

// runWrite replaces OutputPath with the dictionary of this run. Without a
// filter or merge phase before it there is nothing to write, and the existing
// file is left untouched.
func (p *Pipeline) runWrite() PhaseResult {
	d := p.Dictionary()
	if d == nil {
		return PhaseResult{Err: fmt.Errorf("%w: run filter or merge before write", ErrNothingBuilt)}
	}
	if p.cfg.DryRun {
		return PhaseResult{Skipped: d.Len()}
	}

	if err := skkdict.WriteFile(p.cfg.OutputPath, p.cfg.OutputEncoding, d); err != nil {
		return PhaseResult{Err: fmt.Errorf("write dictionary: %w", err)}
	}
	p.log.Info("dictionary written", slog.String("path", p.cfg.OutputPath), slog.Int("readings", len(d)))
	return PhaseResult{Processed: len(d), Accepted: d.Len()}
}

// runPersist records the run with its accepted entries and rejections.
func (p *Pipeline) runPersist(ctx context.Context) PhaseResult {
	rejections := p.reporter.Rejections()
	if p.store == nil || p.cfg.DryRun {
		return PhaseResult{Skipped: len(p.entries)}
	}
	if p.built == nil {
		return PhaseResult{Err: fmt.Errorf("%w: run filter before persist", ErrNothingBuilt)}
	}

	runID, err := p.store.CreateRun(ctx)
	if err != nil {
		return PhaseResult{Err: fmt.Errorf("create run: %w", err)}
	}
	log := p.log.With(slog.String("run_id", runID.String()))

	// All entry batches commit together, so a failed run leaves no partial
	// entry set behind.
	var inserted int
	err = p.store.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		inserted, err = batchProcess(p.entries, p.cfg.BatchSize, func(batch []domain.Entry) (int, error) {
			return p.store.BulkInsertEntries(ctx, runID, batch)
		})
		return err
	})
	if err != nil {
		return PhaseResult{Err: fmt.Errorf("insert entries: %w", err)}
	}

	var result PhaseResult
	result.Processed = len(p.entries) + len(rejections)
	result.Accepted = inserted
	result.Skipped = len(p.entries) - inserted

	recorded, err := batchProcess(rejections, p.cfg.BatchSize, func(batch []domain.Rejection) (int, error) {
		return p.store.BulkInsertRejections(ctx, runID, batch)
	})
	if err != nil {
		log.Warn("rejection insert failed", slog.String("error", err.Error()))
		result.Errors++
	}
	result.Rejected = recorded

	stats := domain.RunStats{
		Accepted: len(p.entries),
		Rejected: p.results[PhaseFilter].Rejected,
	}
	if err := p.store.FinishRun(ctx, runID, stats); err != nil {
		return PhaseResult{Err: fmt.Errorf("finish run: %w", err)}
	}
	log.Info("run recorded", slog.Int("entries", inserted), slog.Int("rejections", recorded))

	return result
}

// runCheck verifies the expectations against the dictionary built in this
// run, or, when none was built, against the configured check source.
func (p *Pipeline) runCheck(ctx context.Context) PhaseResult {
	if p.cfg.ExpectationsPath == "" {
		p.log.Info("no expectations configured, check skipped")
		return PhaseResult{Skipped: 1}
	}

	exp, err := LoadExpectations(p.cfg.ExpectationsPath)
	if err != nil {
		return PhaseResult{Err: err}
	}

	d, err := p.checkTarget(ctx)
	if err != nil {
		return PhaseResult{Err: err}
	}

	violations := exp.Verify(d)
	logViolations(p.log, violations)

	return PhaseResult{
		Processed: exp.size(),
		Accepted:  exp.size() - len(violations),
		Errors:    len(violations),
	}
}

func (p *Pipeline) checkTarget(ctx context.Context) (skkdict.Dictionary, error) {
	if d := p.Dictionary(); d != nil {
		return d, nil
	}

	if p.cfg.CheckSource == CheckSourceStore {
		if p.store == nil {
			return nil, errors.New("check source is store but no database is configured")
		}
		d, err := p.store.LoadDictionary(ctx, "")
		if err != nil {
			return nil, fmt.Errorf("load stored dictionary: %w", err)
		}
		return d, nil
	}

	d, err := skkdict.ParseFile(p.cfg.OutputPath, p.cfg.OutputEncoding, skkdict.ParseOptions{})
	if err != nil {
		return nil, fmt.Errorf("read output dictionary: %w", err)
	}
	return d, nil
}

// batchProcess splits items into batches and processes each via fn.
func batchProcess[T any](items []T, batchSize int, fn func([]T) (int, error)) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	if batchSize <= 0 {
		batchSize = 500
	}

	total := 0
	for i := 0; i < len(items); i += batchSize {
		end := min(i+batchSize, len(items))
		n, err := fn(items[i:end])
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
