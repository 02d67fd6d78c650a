// Package corpname canonicalises corporate-entity designators in
// (headword, reading) pairs.
package corpname

import (
	"strings"
	"unicode/utf8"
)

type designator struct {
	forms    []string
	readings []string
}

// Abbreviated forms carry no reading of their own.
var designators = []designator{
	{forms: []string{"株式会社", "(株)", "（株）", "㈱"}, readings: []string{"かぶしきがいしゃ", "かぶしきかいしゃ"}},
	{forms: []string{"有限会社", "(有)", "（有）", "㈲"}, readings: []string{"ゆうげんがいしゃ", "ゆうげんかいしゃ"}},
	{forms: []string{"合同会社"}, readings: []string{"ごうどうがいしゃ", "ごうどうかいしゃ"}},
	{forms: []string{"合資会社"}, readings: []string{"ごうしがいしゃ", "ごうしかいしゃ"}},
	{forms: []string{"合名会社"}, readings: []string{"ごうめいがいしゃ", "ごうめいかいしゃ"}},
}

// Normalize drops a leading or trailing corporate designator from the
// headword, together with its reading when the reading spells it out at the
// same position. A designator spelled only in the reading is left alone.
// Nothing is removed if that would leave the headword empty.
func Normalize(headword, reading string) (string, string) {
	for _, d := range designators {
		for _, form := range d.forms {
			if rest, ok := strings.CutPrefix(headword, form); ok && hasText(rest) {
				headword = strings.TrimSpace(rest)
				reading = trimReading(reading, d.readings, strings.CutPrefix)
			}
			if rest, ok := strings.CutSuffix(headword, form); ok && hasText(rest) {
				headword = strings.TrimSpace(rest)
				reading = trimReading(reading, d.readings, strings.CutSuffix)
			}
		}
	}
	return headword, reading
}

func trimReading(reading string, readings []string, cut func(s, affix string) (string, bool)) string {
	for _, r := range readings {
		if rest, ok := cut(reading, r); ok && rest != "" {
			return rest
		}
	}
	return reading
}

func hasText(s string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(s)) > 0
}
