package dataset

import (
	"fmt"
	"strings"
	"time"
)

// TimeColumnCandidates are tried in order when no time column is configured.
var TimeColumnCandidates = []string{ColSampleTime, "time", "timestamp", "datetime"}

// TemporalStatus reports how a time column coercion went.
type TemporalStatus int

const (
	// Parsed means every non-null value was coerced to a timestamp.
	Parsed TemporalStatus = iota
	// PartiallyParsed means at least one value could not be coerced and the
	// column kept its original representation.
	PartiallyParsed
)

func (s TemporalStatus) String() string {
	if s == Parsed {
		return "parsed"
	}
	return "partially_parsed"
}

// TemporalResult is the outcome of ParseTime.
type TemporalResult struct {
	Dataset *Dataset
	Column  string
	Status  TemporalStatus
	// Reason explains a PartiallyParsed status.
	Reason string
	// Failed counts values that could not be coerced.
	Failed int
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
}

// ResolveTimeColumn returns explicit when it is set, otherwise the first of
// TimeColumnCandidates present in d.
func ResolveTimeColumn(d *Dataset, explicit string) (string, error) {
	if explicit != "" {
		if !d.HasColumn(explicit) {
			return "", fmt.Errorf("%w: configured column %q not found", ErrMissingTimeColumn, explicit)
		}
		return explicit, nil
	}
	for _, c := range TimeColumnCandidates {
		if d.HasColumn(c) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: expected one of %s", ErrMissingTimeColumn, strings.Join(TimeColumnCandidates, ", "))
}

// ParseTime coerces column to timestamps. Coercion is all-or-nothing: if any
// non-null value does not parse, the dataset is returned unchanged with a
// PartiallyParsed status. ParseTime never fails.
func ParseTime(d *Dataset, column string) TemporalResult {
	c, ok := d.index[column]
	if !ok {
		return TemporalResult{
			Dataset: d,
			Column:  column,
			Status:  PartiallyParsed,
			Reason:  fmt.Sprintf("column %q not present", column),
		}
	}

	parsed := make([]Cell, len(d.rows))
	failed := 0
	firstBad := ""
	for i, r := range d.rows {
		cell := r[c]
		t, ok := coerceTime(cell)
		switch {
		case ok:
			parsed[i] = Time(t)
		case cell.IsNull():
			parsed[i] = cell
		default:
			if failed == 0 {
				firstBad = cell.String()
			}
			failed++
		}
	}
	if failed > 0 {
		return TemporalResult{
			Dataset: d,
			Column:  column,
			Status:  PartiallyParsed,
			Reason:  fmt.Sprintf("%d value(s) in %q are not timestamps (first: %q)", failed, column, firstBad),
			Failed:  failed,
		}
	}

	rows := make([][]Cell, len(d.rows))
	for i, r := range d.rows {
		row := append([]Cell(nil), r...)
		row[c] = parsed[i]
		rows[i] = row
	}
	return TemporalResult{Dataset: d.withRows(rows), Column: column, Status: Parsed}
}

func coerceTime(c Cell) (time.Time, bool) {
	switch c.Kind() {
	case KindTime:
		t, _ := c.TimeValue()
		return t, true
	case KindText:
		return ParseTimestamp(c.String())
	default:
		return time.Time{}, false
	}
}

// ParseTimestamp parses s with the accepted layouts, interpreting zone-less
// values as UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
