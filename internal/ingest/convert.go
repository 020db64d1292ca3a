package ingest

import (
	"fmt"
	"math"

	"github.com/deng0529/GUItest-building-heating/internal/dataset"
)

// FromDataset converts a table of readings (any accepted column spelling)
// into telemetry records. Rows without an integer zone or a parseable time
// are skipped and reported in the returned errors.
func FromDataset(raw *dataset.Dataset) ([]ZoneTelemetry, []error, error) {
	ds := dataset.Normalize(raw)
	if err := dataset.RequireZoneColumn(ds); err != nil {
		return nil, nil, err
	}
	timeCol, err := dataset.ResolveTimeColumn(ds, "")
	if err != nil {
		return nil, nil, err
	}

	var (
		out     []ZoneTelemetry
		skipped []error
	)
	for i := 0; i < ds.Len(); i++ {
		t, err := rowTelemetry(ds, i, timeCol)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("row %d: %w", i+1, err))
			continue
		}
		out = append(out, t)
	}
	return out, skipped, nil
}

func rowTelemetry(ds *dataset.Dataset, i int, timeCol string) (ZoneTelemetry, error) {
	z, ok := ds.Value(i, dataset.ColZoneID).Float()
	if !ok || z != math.Trunc(z) {
		return ZoneTelemetry{}, fmt.Errorf("zone_id %q is not an integer", ds.Value(i, dataset.ColZoneID).String())
	}
	zone := int(z)

	cell := ds.Value(i, timeCol)
	ts, ok := cell.TimeValue()
	if !ok {
		ts, ok = dataset.ParseTimestamp(cell.String())
	}
	if !ok {
		return ZoneTelemetry{}, fmt.Errorf("%s %q is not a timestamp", timeCol, cell.String())
	}

	t := ZoneTelemetry{
		ZoneID:     &zone,
		SampleTime: ts,
		ExtTemp:    floatPtr(ds.Value(i, dataset.ColExtTemp)),
		TargetTemp: floatPtr(ds.Value(i, dataset.ColTargetTemp)),
		IndoorTemp: floatPtr(ds.Value(i, dataset.ColRealTemp)),
	}
	if err := t.Validate(); err != nil {
		return ZoneTelemetry{}, err
	}
	return t, nil
}

func floatPtr(c dataset.Cell) *float64 {
	v, ok := c.Float()
	if !ok {
		return nil
	}
	return &v
}
