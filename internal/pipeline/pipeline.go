// Package pipeline runs one display cycle: normalize the raw table, check the
// required columns, parse the time column, optionally strip outliers and
// select the requested zone.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/deng0529/GUItest-building-heating/internal/dataset"
	"github.com/deng0529/GUItest-building-heating/internal/source"
)

// Options are the user inputs of one cycle.
type Options struct {
	// Zone to display; empty selects the first zone.
	Zone string
	// Metrics to plot. nil plots dataset.DefaultMetrics; an empty non-nil
	// slice means none were chosen.
	Metrics []string
	// FilterOutliers enables the IQR filter over the whole table.
	FilterOutliers bool
	// OutlierColumns overrides the columns fenced by the filter.
	OutlierColumns []string
	// TimeColumn overrides the time column candidates.
	TimeColumn string
	// Source labels the cycle in logs and metrics ("warehouse", "upload").
	Source string
}

// Result is filled as far as the cycle got. On a fatal error Table still
// holds the normalized raw table so it can be shown without a chart.
type Result struct {
	CycleID        string
	Table          *dataset.Dataset
	Zones          []string
	Zone           string
	ZoneLabel      string
	TimeColumn     string
	Temporal       dataset.TemporalStatus
	TemporalReason string
	Fences         []dataset.Fence
	RowsRemoved    int
	Selection      *dataset.Dataset
	View           dataset.Projection
	Summary        []dataset.Summary
}

// Charted reports whether the cycle reached zone selection.
func (r *Result) Charted() bool { return r.Selection != nil }

// Recorder receives per-cycle counters. *metrics.Metrics satisfies it.
type Recorder interface {
	PipelineRun(source, outcome string)
	OutlierRowsRemoved(n int)
	TemporalFallback()
}

// Labeler turns a zone id into a display caption. config.ZoneLabels satisfies it.
type Labeler interface {
	Label(zone string) string
}

type Pipeline struct {
	source   source.Source
	logger   *slog.Logger
	recorder Recorder
	labels   Labeler
}

// New builds a Pipeline. src may be nil when only Run is used; recorder and
// labels are optional.
func New(src source.Source, logger *slog.Logger, recorder Recorder, labels Labeler) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{source: src, logger: logger, recorder: recorder, labels: labels}
}

// Load fetches a table through the data source and runs the cycle on it.
func (p *Pipeline) Load(ctx context.Context, table string, opts Options) (*Result, error) {
	if p.source == nil {
		return nil, fmt.Errorf("%w: no data source configured", dataset.ErrConnectionFailure)
	}
	if opts.Source == "" {
		opts.Source = "warehouse"
	}
	raw, err := p.source.FetchTable(ctx, table)
	if err != nil {
		p.record(opts.Source, outcome(err))
		p.logger.Warn("fetch table failed", "table", table, "error", err)
		return nil, err
	}
	return p.Run(ctx, raw, opts)
}

// Run executes the cycle on an already loaded table.
func (p *Pipeline) Run(ctx context.Context, raw *dataset.Dataset, opts Options) (*Result, error) {
	if opts.Source == "" {
		opts.Source = "upload"
	}
	start := time.Now()
	res := &Result{CycleID: uuid.NewString()}
	log := p.logger.With("cycle_id", res.CycleID, "source", opts.Source)

	res, err := p.run(ctx, raw, opts, res, log)
	p.record(opts.Source, outcome(err))
	if err != nil {
		log.Warn("pipeline halted", "error", err, "rows", tableLen(res.Table))
		return res, err
	}
	log.Info("pipeline finished",
		"zone", res.Zone,
		"rows", res.Table.Len(),
		"selected", res.Selection.Len(),
		"removed", res.RowsRemoved,
		"temporal", res.Temporal.String(),
		"view", res.View.Status.String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, raw *dataset.Dataset, opts Options, res *Result, log *slog.Logger) (*Result, error) {
	if raw == nil {
		raw = dataset.MustNew(nil, nil)
	}

	res.Table = dataset.Normalize(raw)
	if err := dataset.RequireZoneColumn(res.Table); err != nil {
		return res, err
	}
	res.Zones = dataset.Zones(res.Table)

	timeCol, err := dataset.ResolveTimeColumn(res.Table, opts.TimeColumn)
	if err != nil {
		return res, err
	}
	res.TimeColumn = timeCol

	temporal := dataset.ParseTime(res.Table, timeCol)
	res.Table = temporal.Dataset
	res.Temporal = temporal.Status
	res.TemporalReason = temporal.Reason
	if temporal.Status == dataset.PartiallyParsed {
		log.Warn("time column kept as text", "column", timeCol, "failed", temporal.Failed, "reason", temporal.Reason)
		if p.recorder != nil {
			p.recorder.TemporalFallback()
		}
	}

	if err := ctx.Err(); err != nil {
		return res, err
	}

	working := res.Table
	if opts.FilterOutliers {
		cols := opts.OutlierColumns
		if len(cols) == 0 {
			cols = dataset.DefaultMetrics
		}
		before := working.Len()
		working, res.Fences = dataset.FilterOutliers(working, cols)
		res.RowsRemoved = before - working.Len()
		if p.recorder != nil {
			p.recorder.OutlierRowsRemoved(res.RowsRemoved)
		}
		log.Debug("outliers filtered", "columns", cols, "removed", res.RowsRemoved)
		// Zones whose rows were all fenced out are no longer offered.
		res.Zones = dataset.Zones(working)
	}

	res.Zone = opts.Zone
	if res.Zone == "" && len(res.Zones) > 0 {
		res.Zone = res.Zones[0]
	}
	res.ZoneLabel = res.Zone
	if p.labels != nil {
		res.ZoneLabel = p.labels.Label(res.Zone)
	}

	res.Selection, err = dataset.SelectZone(working, res.Zone, dataset.SelectOptions{
		TimeColumn: timeCol,
		SortByTime: true,
	})
	if err != nil {
		return res, err
	}

	metrics := opts.Metrics
	if metrics == nil {
		metrics = dataset.DefaultMetrics
	}
	res.View = dataset.Project(res.Selection, timeCol, metrics)
	res.Summary = dataset.Summarize(res.View)
	return res, nil
}

func (p *Pipeline) record(src, outcome string) {
	if p.recorder != nil {
		p.recorder.PipelineRun(src, outcome)
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, dataset.ErrMissingRequiredColumn):
		return "missing_zone_column"
	case errors.Is(err, dataset.ErrMissingTimeColumn):
		return "missing_time_column"
	case errors.Is(err, dataset.ErrTableNotFound):
		return "table_not_found"
	case errors.Is(err, dataset.ErrConnectionFailure):
		return "connection_failure"
	default:
		return "error"
	}
}

func tableLen(d *dataset.Dataset) int {
	if d == nil {
		return 0
	}
	return d.Len()
}
