package builder

import (
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/heartmarshall/jawiki-kana-dict/internal/domain"
)

// slogReporter logs rejections at debug level and tallies them per reason.
// It is safe for concurrent use by filter workers.
type slogReporter struct {
	log     *slog.Logger
	collect bool

	mu         sync.Mutex
	counts     map[string]int
	rejections []domain.Rejection
}

func newSlogReporter(log *slog.Logger, collect bool) *slogReporter {
	return &slogReporter{
		log:     log,
		collect: collect,
		counts:  make(map[string]int),
	}
}

// ReportSkip implements filter.SkipReporter.
func (r *slogReporter) ReportSkip(reason string, context []string) {
	r.log.Debug("skip entry", slog.String("reason", reason), slog.Any("context", context))

	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[reason]++
	if r.collect {
		r.rejections = append(r.rejections, domain.Rejection{
			Reason:  reason,
			Context: slices.Clone(context),
		})
	}
}

// Counts returns a snapshot of rejection counts keyed by reason.
func (r *slogReporter) Counts() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return maps.Clone(r.counts)
}

// Rejections returns the collected rejections. Empty unless collecting.
func (r *slogReporter) Rejections() []domain.Rejection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.rejections)
}
