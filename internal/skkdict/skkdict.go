// Package skkdict reads, merges and writes SKK-JISYO style dictionaries:
//
//	;; comment
//	あいらさてぃ /姶良サティ/
//
// Each line maps a reading to slash-delimited candidates. A candidate may
// carry an annotation after ';', which is dropped on parse. Candidates that
// themselves contain '/' or ';' are written as (concat "...") with octal
// escapes and decoded again on parse.
package skkdict

import (
	"slices"
	"sort"
)

// Dictionary maps a reading to its candidate headwords. Candidates behave as
// a set and keep their first-insertion order.
type Dictionary map[string][]string

// Add inserts headword under reading unless it is already present.
func (d Dictionary) Add(reading, headword string) {
	if slices.Contains(d[reading], headword) {
		return
	}
	d[reading] = append(d[reading], headword)
}

// Contains reports whether headword is a candidate for reading.
func (d Dictionary) Contains(reading, headword string) bool {
	return slices.Contains(d[reading], headword)
}

// Len returns the number of (reading, headword) pairs.
func (d Dictionary) Len() int {
	n := 0
	for _, hs := range d {
		n += len(hs)
	}
	return n
}

// Readings returns all readings in ascending code-point order.
func (d Dictionary) Readings() []string {
	readings := make([]string, 0, len(d))
	for r := range d {
		readings = append(readings, r)
	}
	sort.Strings(readings)
	return readings
}

// Merged is the result of merging several dictionaries: candidates from
// different sources are concatenated and may repeat.
type Merged map[string][]string

// Merge concatenates the candidate lists of every dictionary per reading, in
// argument order. Duplicates across sources are kept until Dedupe.
func Merge(dicts ...Dictionary) Merged {
	result := make(Merged)
	for _, d := range dicts {
		for reading, candidates := range d {
			result[reading] = append(result[reading], candidates...)
		}
	}
	return result
}

// Dedupe collapses the merged candidate lists into sets.
func (m Merged) Dedupe() Dictionary {
	d := make(Dictionary, len(m))
	for reading, candidates := range m {
		for _, c := range candidates {
			d.Add(reading, c)
		}
	}
	return d
}
