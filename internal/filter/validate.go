package filter

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/heartmarshall/jawiki-kana-dict/internal/kana"
)

var (
	katakanaPrefix = regexp.MustCompile(`^[` + kana.KatakanaBlock + `]+`)
	katakanaSuffix = regexp.MustCompile(`[` + kana.KatakanaBlock + `]+$`)
)

// validatePhase1 rejects triples whose raw text is known to be unusable.
func (f *Filter) validatePhase1(title, headword, reading string) bool {
	for _, prefix := range f.rules.IgnorableReadingPrefixes {
		if strings.HasPrefix(reading, prefix) {
			f.skip("ignorable yomi prefix: "+prefix, headword, reading)
			return false
		}
	}

	for _, prefix := range f.rules.IgnorableHeadwordPrefixes {
		if strings.HasPrefix(headword, prefix) {
			f.skip("ignorable kanji prefix: "+prefix, headword, reading)
			return false
		}
	}

	// Readings starting with "or" usually point elsewhere; a few are real words.
	if strings.HasPrefix(reading, "または") {
		allowed := slices.ContainsFunc(f.rules.OrReadingAllowList, func(n string) bool {
			return strings.HasPrefix(reading, n)
		})
		if !allowed {
			f.skip("ignorable yomi prefix: または", headword, reading)
			return false
		}
	}

	if slices.Contains(f.rules.TitleBlacklist, title) {
		f.skip("Title is in the blacklist", title, headword, reading)
		return false
	}

	return true
}

// validatePhase2 checks the cleaned pair.
func (f *Filter) validatePhase2(headword, reading string) bool {
	switch {
	case headword == "":
		f.skip("kanji is empty", headword, reading)
		return false
	case utf8.RuneCountInString(headword) == 1:
		f.skip("kanji is single character", headword, reading)
		return false
	case reading == "":
		f.skip("yomi is empty", headword, reading)
		return false
	case utf8.RuneCountInString(reading) < 2:
		f.skip("yomi is too short", headword, reading)
		return false
	case !kana.IsHiragana(reading):
		f.skip("yomi contains non-hiragana char", headword, reading)
		return false
	case kana.IsHiragana(headword):
		f.skip("kanji is hiragana", headword, reading)
		return false
	}

	for _, prefix := range f.rules.ForbiddenHeadwordPrefixes {
		if strings.HasPrefix(headword, prefix) {
			f.skip("kanji starts with "+prefix, headword, reading)
			return false
		}
	}

	for _, suffix := range f.rules.ForbiddenHeadwordSuffixes {
		if strings.HasSuffix(headword, suffix) {
			f.skip("kanji ends with "+suffix, headword, reading)
			return false
		}
	}

	for _, prefix := range f.rules.ForbiddenReadingPrefixes {
		if strings.HasPrefix(reading, prefix) {
			f.skip("yomi starts with "+prefix, headword, reading)
			return false
		}
	}

	for _, infix := range f.rules.ForbiddenReadingInfixes {
		if strings.Contains(reading, infix) {
			f.skip("yomi contains "+infix, headword, reading)
			return false
		}
	}

	for _, infix := range f.rules.ForbiddenHeadwordInfixes {
		if strings.Contains(headword, infix) {
			f.skip("kanji contains "+infix, headword, reading)
			return false
		}
	}

	for _, pattern := range f.rules.InvalidHeadwordPatterns {
		if pattern.MatchString(headword) {
			f.skip("Invalid kanji pattern", headword, reading)
			return false
		}
	}

	return f.validateScriptAffixes(headword, reading)
}

// validateScriptAffixes requires a katakana prefix or suffix of the headword
// to reappear, as hiragana, at the same end of the reading.
func (f *Filter) validateScriptAffixes(headword, reading string) bool {
	normalizedReading := kana.Assimilate(reading)

	if prefix := katakanaPrefix.FindString(headword); prefix != "" {
		prefixHira := kana.Assimilate(kana.ToHiragana(prefix))
		if !strings.HasPrefix(normalizedReading, prefixHira) {
			f.skip(fmt.Sprintf("Kanji prefix and yomi prefix aren't same: normalized_yomi=%s prefix_hira=%s", normalizedReading, prefixHira), headword, reading)
			return false
		}
	}

	if suffix := katakanaSuffix.FindString(headword); suffix != "" {
		suffixHira := kana.Assimilate(kana.ToHiragana(suffix))
		if !strings.HasSuffix(normalizedReading, suffixHira) {
			f.skip(fmt.Sprintf("Kanji postfix and yomi postfix aren't same: normalized_yomi=%s postfix_hira=%s", normalizedReading, suffixHira), headword, reading)
			return false
		}
	}

	return true
}
