package builder

import (
	"fmt"
	"log/slog"

	"github.com/heartmarshall/jawiki-kana-dict/internal/config"
	"github.com/heartmarshall/jawiki-kana-dict/internal/skkdict"
)

// Pair is a (headword, reading) expectation.
type Pair struct {
	Headword string `yaml:"headword"`
	Reading  string `yaml:"reading"`
}

// Expectations lists acceptance checks run against a finished dictionary.
type Expectations struct {
	Present     []string `yaml:"present"`
	Pairs       []Pair   `yaml:"pairs"`
	AbsentPairs []Pair   `yaml:"absent_pairs"`
	Absent      []string `yaml:"absent"`
}

// LoadExpectations reads an expectations YAML file.
func LoadExpectations(path string) (*Expectations, error) {
	var exp Expectations
	if err := config.ReadFile(path, false, &exp); err != nil {
		return nil, fmt.Errorf("expectations: %w", err)
	}
	return &exp, nil
}

// Violation is one failed expectation.
type Violation struct {
	Kind     string
	Headword string
	Reading  string
}

func (v Violation) String() string {
	if v.Headword == "" {
		return fmt.Sprintf("%s: %s", v.Kind, v.Reading)
	}
	return fmt.Sprintf("%s: %s /%s/", v.Kind, v.Reading, v.Headword)
}

// Verify returns every expectation that d does not meet, in declaration order.
func (e *Expectations) Verify(d skkdict.Dictionary) []Violation {
	var out []Violation
	for _, r := range e.Present {
		if _, ok := d[r]; !ok {
			out = append(out, Violation{Kind: "missing reading", Reading: r})
		}
	}
	for _, p := range e.Pairs {
		if !d.Contains(p.Reading, p.Headword) {
			out = append(out, Violation{Kind: "missing pair", Headword: p.Headword, Reading: p.Reading})
		}
	}
	for _, p := range e.AbsentPairs {
		if d.Contains(p.Reading, p.Headword) {
			out = append(out, Violation{Kind: "unexpected pair", Headword: p.Headword, Reading: p.Reading})
		}
	}
	for _, r := range e.Absent {
		if _, ok := d[r]; ok {
			out = append(out, Violation{Kind: "unexpected reading", Reading: r})
		}
	}
	return out
}

func (e *Expectations) size() int {
	return len(e.Present) + len(e.Pairs) + len(e.AbsentPairs) + len(e.Absent)
}

func logViolations(log *slog.Logger, vs []Violation) {
	for _, v := range vs {
		log.Warn("check failed",
			slog.String("kind", v.Kind),
			slog.String("reading", v.Reading),
			slog.String("headword", v.Headword),
		)
	}
}
