// Package filter turns raw (title, headword, reading) triples extracted from
// Wikipedia infoboxes into clean dictionary entries.
//
// The filter is a pure function of its input and the Rules it was built
// with: it holds no mutable state and may be shared between goroutines as
// long as the SkipReporter is safe for concurrent use.
package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/heartmarshall/jawiki-kana-dict/internal/corpname"
	"github.com/heartmarshall/jawiki-kana-dict/internal/domain"
)

// SkipReporter receives the reason and offending values for every rejected triple.
type SkipReporter interface {
	ReportSkip(reason string, context []string)
}

// SkipReporterFunc adapts a plain function to SkipReporter.
type SkipReporterFunc func(reason string, context []string)

// ReportSkip calls f.
func (f SkipReporterFunc) ReportSkip(reason string, context []string) {
	f(reason, context)
}

// Discard is a SkipReporter that ignores everything.
var Discard SkipReporter = SkipReporterFunc(func(string, []string) {})

var anyWhitespace = regexp.MustCompile(ws)

// Filter is the entry filter pipeline.
type Filter struct {
	rules    *Rules
	reporter SkipReporter
}

// New creates a Filter. A nil reporter discards rejections.
func New(rules *Rules, reporter SkipReporter) *Filter {
	if reporter == nil {
		reporter = Discard
	}
	return &Filter{rules: rules, reporter: reporter}
}

// Apply runs the full pipeline on one raw triple. It returns nil, nil when the
// triple is rejected; the reason has then been sent to the SkipReporter.
// An error means a rewrite loop did not converge.
func (f *Filter) Apply(t domain.RawTriple) (*domain.Entry, error) {
	headword, reading := t.Headword, t.Reading

	if strings.HasPrefix(headword, "[[") {
		f.skip("kanji is page link", headword, reading)
		return nil, nil
	}

	if !f.validatePhase1(t.Title, headword, reading) {
		return nil, nil
	}

	headword = f.basicClean(headword)
	headword, err := f.cleanHeadword(headword)
	if err != nil {
		return nil, fmt.Errorf("clean headword %q: %w", t.Headword, err)
	}

	reading = f.basicClean(reading)
	reading, err = f.cleanReading(reading, headword)
	if err != nil {
		return nil, fmt.Errorf("clean reading %q: %w", t.Reading, err)
	}

	headword, reading = corpname.Normalize(headword, reading)

	headword = anyWhitespace.ReplaceAllString(headword, " ")

	if !f.validatePhase2(headword, reading) {
		return nil, nil
	}

	return &domain.Entry{Headword: headword, Reading: reading}, nil
}

func (f *Filter) skip(reason string, context ...string) {
	f.reporter.ReportSkip(reason, context)
}
