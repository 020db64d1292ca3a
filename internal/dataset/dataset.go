// Package dataset holds the in-memory table of zone readings and the pure
// transforms applied to it during one display cycle: column normalization,
// time coercion, IQR outlier fencing and zone selection.
//
// A Dataset is never mutated after construction. Every transform returns a
// new Dataset; row slices may be shared between datasets because nothing
// writes to them.
package dataset

import (
	"fmt"
	"sort"
	"strconv"
)

// Dataset is an ordered-by-arrival collection of readings sharing one column set.
type Dataset struct {
	columns []string
	index   map[string]int
	rows    [][]Cell
}

// New builds a Dataset. Every row must have exactly len(columns) cells.
func New(columns []string, rows [][]Cell) (*Dataset, error) {
	for i, r := range rows {
		if len(r) != len(columns) {
			return nil, fmt.Errorf("row %d has %d cells, want %d", i, len(r), len(columns))
		}
	}
	cols := append([]string(nil), columns...)
	return &Dataset{columns: cols, index: buildIndex(cols), rows: rows}, nil
}

// MustNew is New for fixtures and literals; it panics on a ragged row.
func MustNew(columns []string, rows [][]Cell) *Dataset {
	ds, err := New(columns, rows)
	if err != nil {
		panic(err)
	}
	return ds
}

// FromRecords builds a Dataset from a header and raw text records, inferring
// each cell with ParseCell. Short records are padded with nulls and long
// records are truncated.
func FromRecords(header []string, records [][]string) *Dataset {
	rows := make([][]Cell, 0, len(records))
	for _, rec := range records {
		row := make([]Cell, len(header))
		for i := range header {
			if i < len(rec) {
				row[i] = ParseCell(rec[i])
			} else {
				row[i] = Null()
			}
		}
		rows = append(rows, row)
	}
	return &Dataset{columns: append([]string(nil), header...), index: buildIndex(header), rows: rows}
}

// buildIndex maps each column name to its first position.
func buildIndex(cols []string) map[string]int {
	idx := make(map[string]int, len(cols))
	for i, c := range cols {
		if _, ok := idx[c]; !ok {
			idx[c] = i
		}
	}
	return idx
}

func (d *Dataset) Columns() []string { return append([]string(nil), d.columns...) }

func (d *Dataset) Len() int { return len(d.rows) }

func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.index[name]
	return ok
}

// ColumnIndex returns the position of the first column called name.
func (d *Dataset) ColumnIndex(name string) (int, bool) {
	i, ok := d.index[name]
	return i, ok
}

// Row returns a copy of row i.
func (d *Dataset) Row(i int) []Cell { return append([]Cell(nil), d.rows[i]...) }

// Value returns the cell at row i in the named column, or a null cell when
// the column does not exist.
func (d *Dataset) Value(i int, column string) Cell {
	c, ok := d.index[column]
	if !ok {
		return Null()
	}
	return d.rows[i][c]
}

// Column returns a copy of every cell of the named column.
func (d *Dataset) Column(name string) ([]Cell, bool) {
	c, ok := d.index[name]
	if !ok {
		return nil, false
	}
	out := make([]Cell, len(d.rows))
	for i, r := range d.rows {
		out[i] = r[c]
	}
	return out, true
}

// Filter returns the rows for which keep reports true, in their original order.
func (d *Dataset) Filter(keep func(row []Cell) bool) *Dataset {
	rows := make([][]Cell, 0, len(d.rows))
	for _, r := range d.rows {
		if keep(r) {
			rows = append(rows, r)
		}
	}
	return d.withRows(rows)
}

// Project keeps only the named columns, in the given order. Names that are
// not present are ignored.
func (d *Dataset) Project(columns []string) *Dataset {
	var cols []string
	var src []int
	for _, name := range columns {
		if i, ok := d.index[name]; ok {
			cols = append(cols, name)
			src = append(src, i)
		}
	}
	rows := make([][]Cell, len(d.rows))
	for i, r := range d.rows {
		row := make([]Cell, len(src))
		for j, s := range src {
			row[j] = r[s]
		}
		rows[i] = row
	}
	return &Dataset{columns: cols, index: buildIndex(cols), rows: rows}
}

// SortBy returns the rows stably sorted ascending by the named column.
// Nulls sort last. A missing column returns the dataset unchanged.
func (d *Dataset) SortBy(column string) *Dataset {
	c, ok := d.index[column]
	if !ok {
		return d
	}
	rows := append([][]Cell(nil), d.rows...)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i][c].less(rows[j][c])
	})
	return d.withRows(rows)
}

// Distinct returns the distinct non-null values of a column, sorted
// numerically when every value is numeric and lexicographically otherwise.
func (d *Dataset) Distinct(column string) []string {
	c, ok := d.index[column]
	if !ok {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	numeric := true
	for _, r := range d.rows {
		cell := r[c]
		if cell.IsNull() {
			continue
		}
		s := cell.String()
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
		if _, isNum := cell.Float(); !isNum {
			numeric = false
		}
	}
	if numeric {
		sort.Slice(out, func(i, j int) bool {
			a, _ := strconv.ParseFloat(out[i], 64)
			b, _ := strconv.ParseFloat(out[j], 64)
			return a < b
		})
	} else {
		sort.Strings(out)
	}
	return out
}

// Records renders every row as text, for table display and export.
func (d *Dataset) Records() [][]string {
	out := make([][]string, len(d.rows))
	for i, r := range d.rows {
		rec := make([]string, len(r))
		for j, c := range r {
			rec[j] = c.String()
		}
		out[i] = rec
	}
	return out
}

func (d *Dataset) withRows(rows [][]Cell) *Dataset {
	return &Dataset{columns: d.columns, index: d.index, rows: rows}
}

// withColumns returns a dataset sharing the rows under a new header.
func (d *Dataset) withColumns(cols []string) *Dataset {
	return &Dataset{columns: cols, index: buildIndex(cols), rows: d.rows}
}
