// Package kana classifies Japanese text by script and provides the
// conversions used to compare headwords with their readings.
// All functions are pure and safe for concurrent use.
package kana

import (
	"strings"
	"unicode"
)

// Block ranges in regexp character-class syntax. Katakana includes the
// middle dot (U+30FB) and the prolonged sound mark (U+30FC).
const (
	HiraganaBlock = `\x{3041}-\x{309F}`
	KatakanaBlock = `\x{30A0}-\x{30FF}`
	KanjiBlock    = `\p{Han}`
)

const (
	// Delimiter separates alternative readings.
	Delimiter = '、'
	// Nakaguro is the katakana middle dot.
	Nakaguro = '・'
	// ChoonMark is the prolonged sound mark, valid inside hiragana readings.
	ChoonMark = 'ー'
	// IdeographicSpace is the full-width space.
	IdeographicSpace = '　'
)

func isHiraganaRune(r rune) bool {
	return r >= 0x3041 && r <= 0x309F
}

func isKatakanaRune(r rune) bool {
	return r >= 0x30A0 && r <= 0x30FF
}

// IsKanjiRune reports whether r is a Han ideograph.
func IsKanjiRune(r rune) bool {
	return unicode.Is(unicode.Han, r)
}

func all(s string, pred func(rune) bool) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !pred(r) {
			return false
		}
	}
	return true
}

// IsHiragana reports whether s is non-empty and consists only of hiragana,
// the prolonged sound mark and the reading delimiter.
func IsHiragana(s string) bool {
	return all(s, func(r rune) bool {
		return isHiraganaRune(r) || r == ChoonMark || r == Delimiter
	})
}

// IsKatakana reports whether s is non-empty and entirely katakana.
func IsKatakana(s string) bool {
	return all(s, isKatakanaRune)
}

// IsKanji reports whether s is non-empty and entirely Han ideographs.
func IsKanji(s string) bool {
	return all(s, IsKanjiRune)
}

// IsKana reports whether s is non-empty and made only of katakana, hiragana,
// the middle dot and half- or full-width spaces.
func IsKana(s string) bool {
	return all(s, func(r rune) bool {
		return isHiraganaRune(r) || isKatakanaRune(r) || r == Nakaguro || r == ' ' || r == IdeographicSpace
	})
}

// ToHiragana converts katakana letters to their hiragana counterparts.
// Characters without a hiragana form (ー, ・, ヷ..ヺ) are left unchanged.
func ToHiragana(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'ァ' && r <= 'ヶ':
			return r - 0x60
		case r == 'ヽ' || r == 'ヾ':
			return r - 0x60
		}
		return r
	}, s)
}

// assimilation folds glides, small kana, vowels and obsolete kana into a
// coarse form so that a katakana spelling and its hiragana reading compare
// equal despite orthographic drift (きやう vs きょう).
var assimilation = func() map[rune]rune {
	from := []rune("ゐゑをっあいうえおふぁぃぅぇぉゃゅょやゆよ")
	to := []rune("ーーーつーーーーーうあいうえおよよよよよよ")
	m := make(map[rune]rune, len(from))
	for i := range from {
		m[from[i]] = to[i]
	}
	return m
}()

// Assimilate applies the hiragana variant table to s.
func Assimilate(s string) string {
	return strings.Map(func(r rune) rune {
		if to, ok := assimilation[r]; ok {
			return to
		}
		return r
	}, s)
}
