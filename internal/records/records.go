// Package records reads delimited data files and normalizes raw rows into
// the canonical facts consumed by the pivot engine.
package records

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrBadContent reports a file that exists but cannot be parsed as CSV.
var ErrBadContent = errors.New("unreadable csv content")

// Key identifies one aggregation bucket. Secondary is empty for
// single-dimension reports.
type Key struct {
	Primary   string
	Secondary string
}

// Record is one normalized fact: a dimension key, a base reporting
// period such as "2024-25", a sub-period ordinal (0 none, 1-4 quarters,
// 1-12 months) and a non-negative count.
type Record struct {
	Key       Key
	Period    string
	SubPeriod int
	Measure   int
}

// Row is one raw CSV row keyed by header field name.
type Row map[string]string

// Get returns the trimmed value for field, or "" when absent.
func (r Row) Get(field string) string {
	return strings.TrimSpace(r[field])
}

// ReadRows reads path and returns the rows the keep predicate accepts.
// A missing file surfaces as the underlying not-exist error; malformed
// content wraps ErrBadContent so callers can tell the two apart.
func ReadRows(path string, keep func(Row) bool) ([]Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv file not found: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBadContent, path, err)
	}
	for i, field := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(field, "\uFEFF"))
	}

	var kept []Row
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrBadContent, path, err)
		}
		row := make(Row, len(header))
		for i, name := range header {
			if i < len(fields) {
				row[name] = fields[i]
			}
		}
		if keep == nil || keep(row) {
			kept = append(kept, row)
		}
	}
	return kept, nil
}

// ParseCount leniently parses a non-negative integer count, returning
// def when the value is empty or not a plain digit string.
func ParseCount(value string, def int) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return def
	}
	n := 0
	for _, r := range value {
		if r < '0' || r > '9' {
			return def
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// FormatAcademicYear renders a compact academic year like "202425" as
// "2024-25". Values that do not contain exactly six digits pass through.
func FormatAcademicYear(year string) string {
	var digits strings.Builder
	for _, r := range year {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() != 6 {
		return year
	}
	s := digits.String()
	return s[:4] + "-" + s[4:]
}
