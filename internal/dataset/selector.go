package dataset

import "fmt"

// DefaultMetrics are the temperature columns plotted when the caller does
// not choose any.
var DefaultMetrics = []string{ColExtTemp, ColTargetTemp, ColRealTemp}

// SelectOptions controls SelectZone.
type SelectOptions struct {
	// TimeColumn is the column used for chronological ordering.
	TimeColumn string
	// SortByTime orders the selection ascending by TimeColumn.
	SortByTime bool
}

// ViewStatus describes whether a projection has anything to display.
type ViewStatus int

const (
	StatusOK ViewStatus = iota
	// StatusEmptyZone means the selected zone matched no rows.
	StatusEmptyZone
	// StatusNoMetrics means no metric was chosen or none of the chosen ones is
	// present.
	StatusNoMetrics
)

func (s ViewStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEmptyZone:
		return "empty_zone"
	case StatusNoMetrics:
		return "no_metrics"
	default:
		return "unknown"
	}
}

// Message is the informational text shown for an empty state.
func (s ViewStatus) Message() string {
	switch s {
	case StatusEmptyZone:
		return "No readings for the selected zone."
	case StatusNoMetrics:
		return "Select at least one available metric to plot."
	default:
		return ""
	}
}

// Projection is the chart-ready view of a zone selection: the time column
// and the ordered numeric columns to plot against it.
type Projection struct {
	TimeColumn string
	Metrics    []string
	Rows       *Dataset
	Status     ViewStatus
}

// RequireZoneColumn fails with ErrMissingRequiredColumn when zone_id is absent.
func RequireZoneColumn(d *Dataset) error {
	if !d.HasColumn(ColZoneID) {
		return fmt.Errorf("%w: %q not found after renaming", ErrMissingRequiredColumn, ColZoneID)
	}
	return nil
}

// Zones lists the distinct zone ids of d for the zone picker.
func Zones(d *Dataset) []string {
	return d.Distinct(ColZoneID)
}

// SelectZone returns the rows whose zone_id equals zone. An unknown zone
// yields an empty dataset.
func SelectZone(d *Dataset, zone string, opts SelectOptions) (*Dataset, error) {
	if err := RequireZoneColumn(d); err != nil {
		return nil, err
	}
	c := d.index[ColZoneID]
	out := d.Filter(func(row []Cell) bool {
		return !row[c].IsNull() && row[c].String() == zone
	})
	if opts.SortByTime && opts.TimeColumn != "" {
		out = out.SortBy(opts.TimeColumn)
	}
	return out, nil
}

// AvailableMetrics returns the requested columns present in d, in requested
// order and without duplicates.
func AvailableMetrics(d *Dataset, requested []string) []string {
	seen := make(map[string]bool, len(requested))
	var out []string
	for _, m := range requested {
		if seen[m] || !d.HasColumn(m) {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

// Project builds the chart view of a selection.
func Project(selection *Dataset, timeColumn string, metrics []string) Projection {
	available := AvailableMetrics(selection, metrics)
	p := Projection{
		TimeColumn: timeColumn,
		Metrics:    available,
		Rows:       selection.Project(append([]string{timeColumn}, available...)),
	}
	switch {
	case len(available) == 0:
		p.Status = StatusNoMetrics
	case selection.Len() == 0:
		p.Status = StatusEmptyZone
	}
	return p
}

// Point is one sample of a metric series.
type Point struct {
	Time  Cell
	Value float64
}

// Series returns the numeric points of one metric, skipping rows where the
// metric is not numeric.
func (p Projection) Series(metric string) []Point {
	if p.Rows == nil {
		return nil
	}
	tc, ok := p.Rows.ColumnIndex(p.TimeColumn)
	if !ok {
		return nil
	}
	mc, ok := p.Rows.ColumnIndex(metric)
	if !ok {
		return nil
	}
	var out []Point
	for _, r := range p.Rows.rows {
		if v, isNum := r[mc].Float(); isNum {
			out = append(out, Point{Time: r[tc], Value: v})
		}
	}
	return out
}
