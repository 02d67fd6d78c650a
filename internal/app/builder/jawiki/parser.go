// Package jawiki reads the raw (title, headword, reading) triples extracted
// from the Japanese Wikipedia dump. Pure function: file in, domain structs out.
package jawiki

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/heartmarshall/jawiki-kana-dict/internal/domain"
)

// maxLineSize is the buffer size for bufio.Scanner (4 MB).
const maxLineSize = 4 << 20

// Parse reads a UTF-8 TSV file of title<TAB>headword<TAB>reading lines.
func Parse(path string) ([]domain.RawTriple, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open triples: %w", err)
	}
	defer f.Close()

	triples, err := ParseReader(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return triples, nil
}

// ParseReader reads triples from r. Blank lines are skipped. A line with
// fewer than three fields yields a *domain.LineError. Tabs after the second
// separator belong to the reading.
func ParseReader(r io.Reader) ([]domain.RawTriple, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64<<10), maxLineSize)

	var triples []domain.RawTriple
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.SplitN(line, "\t", 3)
		if len(fields) < 3 {
			return nil, domain.NewLineError(lineNum, fmt.Sprintf("expected 3 tab-separated fields, got %d", len(fields)))
		}

		triples = append(triples, domain.RawTriple{
			Title:    fields[0],
			Headword: fields[1],
			Reading:  fields[2],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan line %d: %w", lineNum+1, err)
	}

	return triples, nil
}
