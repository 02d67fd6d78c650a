package filter

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/heartmarshall/jawiki-kana-dict/internal/kana"
)

// filterEntities splits a reading into its alternatives. Restatements of the
// headword are dropped and everything from the first non-kana alternative on
// is discarded. A long list of dissimilar alternatives is an enumeration of
// unrelated things sharing the headword, e.g.
// 森ガールの集い（かまいたち、オレンジサンセット、ヒカリゴケ、しゃもじ),
// and yields no candidates at all.
func (f *Filter) filterEntities(headword, reading string) []string {
	var results []string
	for _, s := range strings.Split(reading, string(kana.Delimiter)) {
		if isRestatement(s, headword) {
			continue
		}
		if !kana.IsKana(s) {
			break
		}
		results = append(results, s)
	}

	if len(results) > f.rules.EntityListMaxSize && !f.entityListExempt(results[0]) {
		if meanDistance(results[0], results[1:]) > f.rules.EntityDistanceThreshold {
			return nil
		}
	}

	return results
}

func (f *Filter) entityListExempt(base string) bool {
	for _, suffix := range f.rules.EntityExemptSuffixes {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}
	for _, prefix := range f.rules.EntityExemptPrefixes {
		if strings.HasPrefix(base, prefix) {
			return true
		}
	}
	return false
}

func meanDistance(base string, others []string) float64 {
	if len(others) == 0 {
		return 0
	}
	total := 0
	for _, o := range others {
		total += levenshtein.ComputeDistance(base, o)
	}
	return float64(total) / float64(len(others))
}
