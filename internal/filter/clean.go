package filter

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/heartmarshall/jawiki-kana-dict/internal/domain"
	"github.com/heartmarshall/jawiki-kana-dict/internal/kana"
)

var whitespaceRun = regexp.MustCompile(ws + `+`)

// basicClean strips footnotes, comments, former-name and generation
// parentheticals, stray middle dots and HTML entities.
func (f *Filter) basicClean(s string) string {
	for _, rw := range f.rules.BasicRewrites {
		s = rw.apply(s)
	}
	return strings.TrimSpace(s)
}

// cleanHeadword unwraps templates and links and joins space-separated
// family and given names.
func (f *Filter) cleanHeadword(headword string) (string, error) {
	for _, rw := range f.rules.HeadwordRewrites {
		headword = rw.apply(headword)
	}

	// '山田 太朗' → 山田太朗
	return fixpoint(headword, f.rules.MaxIterations, func(s string) string {
		if !f.rules.NameSpacing.MatchString(s) {
			return s
		}
		return f.rules.NameSpacing.ReplaceAllString(s, "${1}${2}")
	})
}

// cleanReading strips trailing clauses until none applies, converts the
// reading to hiragana and resolves alternative readings.
func (f *Filter) cleanReading(reading, headword string) (string, error) {
	reading, err := fixpoint(reading, f.rules.MaxIterations, func(s string) string {
		for _, rw := range f.rules.ReadingTrailers {
			s = rw.apply(s)
		}
		return s
	})
	if err != nil {
		return "", err
	}

	reading = whitespaceRun.ReplaceAllString(reading, "")
	reading = kana.ToHiragana(reading)

	candidates := f.filterEntities(headword, reading)

	// アイエスオー、イソ、アイソ → アイエスオー
	if len(candidates) > 0 && !slices.ContainsFunc(candidates, func(c string) bool { return !kana.IsKana(c) }) {
		candidates = candidates[:1]
	}

	if len(candidates) > 1 {
		candidates = slices.DeleteFunc(candidates, func(c string) bool {
			return isRestatement(c, headword)
		})
	}

	return strings.Join(candidates, string(kana.Delimiter)), nil
}

// fixpoint applies step until the string stops changing. It fails if the
// string is still changing after limit applications.
func fixpoint(s string, limit int, step func(string) string) (string, error) {
	for range limit {
		next := step(s)
		if next == s {
			return s, nil
		}
		s = next
	}
	return "", fmt.Errorf("no fixpoint after %d iterations for %q: %w", limit, s, domain.ErrFixpointExhausted)
}

// isRestatement reports whether a reading candidate is the headword itself,
// possibly written with old or variant characters (今鷹 眞 for 今鷹真).
func isRestatement(candidate, headword string) bool {
	n := kana.Normalize(candidate)
	return n == headword || n == kana.Normalize(headword)
}
