package skkdict

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"

	"github.com/heartmarshall/jawiki-kana-dict/internal/domain"
)

// ParseOptions controls how duplicate readings are handled.
type ParseOptions struct {
	// Overwrite makes a later line replace the candidates of an earlier line
	// with the same reading. By default the first occurrence wins.
	Overwrite bool
}

// LookupEncoding resolves an encoding name such as "utf-8" or "euc-jp".
func LookupEncoding(name string) (encoding.Encoding, error) {
	if name == "" || strings.EqualFold(name, "utf-8") || strings.EqualFold(name, "utf8") {
		return unicode.UTF8, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownEncoding, name)
	}
	return enc, nil
}

// ParseFile reads the dictionary at path, decoding it from the named encoding.
func ParseFile(path, encodingName string, opts ParseOptions) (Dictionary, error) {
	enc, err := LookupEncoding(encodingName)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dictionary: %w", err)
	}
	defer f.Close()

	d, err := Parse(enc.NewDecoder().Reader(f), opts)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return d, nil
}

// Parse reads a UTF-8 dictionary. A non-comment line without the space
// separating reading and candidates fails the whole parse.
func Parse(r io.Reader, opts ParseOptions) (Dictionary, error) {
	d := make(Dictionary)
	seen := make(map[string]struct{})
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if strings.HasPrefix(line, ";;") {
			continue
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		reading, field, ok := strings.Cut(line, " ")
		if !ok {
			return nil, domain.NewLineError(lineNum, "missing separator between reading and candidates")
		}

		if _, exists := seen[reading]; exists && !opts.Overwrite {
			continue
		}
		seen[reading] = struct{}{}
		delete(d, reading)

		field = strings.TrimRight(strings.TrimLeft(field, "/"), "/")
		for _, candidate := range strings.Split(field, "/") {
			candidate, _, _ = strings.Cut(candidate, ";")
			if candidate == "" {
				continue
			}
			d.Add(reading, decodeCandidate(candidate))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}

	return d, nil
}

// WriteFile writes d to path in the named encoding.
func WriteFile(path, encodingName string, d Dictionary) error {
	enc, err := LookupEncoding(encodingName)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dictionary: %w", err)
	}

	if err := Write(enc.NewEncoder().Writer(f), d); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// Write emits d in UTF-8 with readings in ascending order. Readings without
// candidates are omitted.
func Write(w io.Writer, d Dictionary) error {
	bw := bufio.NewWriter(w)
	for _, reading := range d.Readings() {
		candidates := d[reading]
		if len(candidates) == 0 {
			continue
		}
		encoded := make([]string, len(candidates))
		for i, c := range candidates {
			encoded[i] = encodeCandidate(c)
		}
		if _, err := fmt.Fprintf(bw, "%s /%s/\n", reading, strings.Join(encoded, "/")); err != nil {
			return err
		}
	}
	return bw.Flush()
}

const concatPrefix = `(concat "`

// encodeCandidate wraps a candidate containing the field separator or the
// annotation marker in an SKK (concat "...") form, with '/' and ';' written
// as octal escapes.
func encodeCandidate(c string) string {
	if !strings.ContainsAny(c, "/;") && !strings.HasPrefix(c, concatPrefix) {
		return c
	}
	var b strings.Builder
	b.WriteString(concatPrefix)
	for _, r := range c {
		switch r {
		case '/':
			b.WriteString(`\057`)
		case ';':
			b.WriteString(`\073`)
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteString(`")`)
	return b.String()
}

// decodeCandidate reverses encodeCandidate. Only single-string concat forms
// are decoded; anything else is kept verbatim.
func decodeCandidate(c string) string {
	if !strings.HasPrefix(c, concatPrefix) || !strings.HasSuffix(c, ")") {
		return c
	}
	quoted := strings.TrimSuffix(strings.TrimPrefix(c, "(concat "), ")")
	s, err := strconv.Unquote(quoted)
	if err != nil {
		return c
	}
	return s
}
