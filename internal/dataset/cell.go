package dataset

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the representation held by a Cell.
type Kind int

const (
	KindNull Kind = iota
	KindText
	KindNumber
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindTime:
		return "time"
	default:
		return "unknown"
	}
}

// Cell is a single immutable value of a Reading.
type Cell struct {
	kind Kind
	text string
	num  float64
	t    time.Time
}

func Null() Cell { return Cell{kind: KindNull} }

func Text(s string) Cell { return Cell{kind: KindText, text: s} }

// Number returns a numeric cell. NaN and ±Inf are stored as null.
func Number(f float64) Cell {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null()
	}
	return Cell{kind: KindNumber, num: f}
}

func Time(t time.Time) Cell { return Cell{kind: KindTime, t: t} }

// ParseCell infers a cell from raw text the way a CSV reader would:
// empty or NA markers become null, numeric text becomes a number,
// anything else stays text.
func ParseCell(raw string) Cell {
	s := strings.TrimSpace(raw)
	switch strings.ToLower(s) {
	case "", "na", "n/a", "nan", "null", "none":
		return Null()
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Number(f)
	}
	return Text(raw)
}

func (c Cell) Kind() Kind { return c.kind }

func (c Cell) IsNull() bool { return c.kind == KindNull }

// Float returns the numeric value and whether the cell is numeric.
func (c Cell) Float() (float64, bool) {
	if c.kind != KindNumber {
		return 0, false
	}
	return c.num, true
}

// TimeValue returns the timestamp and whether the cell holds one.
func (c Cell) TimeValue() (time.Time, bool) {
	if c.kind != KindTime {
		return time.Time{}, false
	}
	return c.t, true
}

// String renders the cell in its canonical text form. Zone ids are compared
// through this form, so 3, 3.0 and "3" all render as "3".
func (c Cell) String() string {
	switch c.kind {
	case KindText:
		return c.text
	case KindNumber:
		return strconv.FormatFloat(c.num, 'f', -1, 64)
	case KindTime:
		return c.t.Format(time.RFC3339Nano)
	default:
		return ""
	}
}

// Equal reports whether two cells hold the same kind and value.
func (c Cell) Equal(o Cell) bool {
	if c.kind != o.kind {
		return false
	}
	switch c.kind {
	case KindText:
		return c.text == o.text
	case KindNumber:
		return c.num == o.num
	case KindTime:
		return c.t.Equal(o.t)
	default:
		return true
	}
}

// less orders cells for chronological sorting: times, then numbers, then
// text, nulls last.
func (c Cell) less(o Cell) bool {
	if c.kind != o.kind {
		return kindRank(c.kind) < kindRank(o.kind)
	}
	switch c.kind {
	case KindTime:
		return c.t.Before(o.t)
	case KindNumber:
		return c.num < o.num
	case KindText:
		return c.text < o.text
	default:
		return false
	}
}

func kindRank(k Kind) int {
	switch k {
	case KindTime:
		return 0
	case KindNumber:
		return 1
	case KindText:
		return 2
	default:
		return 3
	}
}
