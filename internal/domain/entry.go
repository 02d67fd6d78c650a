package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RawTriple is one unvalidated (title, headword, reading) record extracted
// from an encyclopedia infobox. Title is only used for the title blacklist.
type RawTriple struct {
	Title    string
	Headword string
	Reading  string
}

func (t RawTriple) String() string {
	return fmt.Sprintf("TITLE<<%s>> KANJI<<%s>> YOMI<<%s>>", t.Title, t.Headword, t.Reading)
}

// Entry is an accepted dictionary pair.
type Entry struct {
	Headword string
	Reading  string
}

// Rejection records why a raw triple produced no entry.
type Rejection struct {
	Reason  string
	Context []string
}

// BuildRun describes one persisted dictionary build.
type BuildRun struct {
	ID         uuid.UUID
	StartedAt  time.Time
	FinishedAt *time.Time
	Accepted   int
	Rejected   int
}

// RunStats holds the counters recorded when a build run finishes.
type RunStats struct {
	Accepted int
	Rejected int
}
