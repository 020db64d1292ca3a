package views

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/deng0529/GUItest-building-heating/internal/dataset"
)

const timeLabelLayout = "2006-01-02 15:04:05"

// Default PNG size.
const (
	PNGWidth  = 10 * vg.Inch
	PNGHeight = 4 * vg.Inch
)

// ChartData is the input of both chart renderers.
type ChartData struct {
	Title    string
	Subtitle string
	View     dataset.Projection
}

var errNothingToPlot = errors.New("nothing to plot")

// RenderLineChart writes a standalone go-echarts page with one line per
// metric. Rows without a numeric value leave a gap in that metric's line.
func RenderLineChart(w io.Writer, c ChartData) error {
	if c.View.Rows == nil {
		return errNothingToPlot
	}
	rows := c.View.Rows
	xs := make([]string, rows.Len())
	for i := range xs {
		xs[i] = cellText(rows.Value(i, c.View.TimeColumn))
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: c.Title, Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: c.Title, Subtitle: c.Subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: c.View.TimeColumn, NameLocation: "middle", NameGap: 30}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Temperature", NameLocation: "middle", NameGap: 40}),
	)
	line.SetXAxis(xs)
	for _, m := range c.View.Metrics {
		data := make([]opts.LineData, rows.Len())
		for i := range data {
			if v, ok := rows.Value(i, m).Float(); ok {
				data[i] = opts.LineData{Value: v}
			} else {
				data[i] = opts.LineData{Value: "-"}
			}
		}
		line.AddSeries(m, data)
	}
	return line.Render(w)
}

// RenderChartPNG draws the projection with gonum/plot. When the time column
// holds parsed timestamps the x axis is a time axis, otherwise rows are
// plotted against their position.
func RenderChartPNG(w io.Writer, c ChartData, width, height vg.Length) error {
	p := plot.New()
	p.Title.Text = c.Title
	p.X.Label.Text = c.View.TimeColumn
	p.Y.Label.Text = "Temperature"
	p.Legend.Top = true

	timeAxis := hasTimeAxis(c.View)
	if timeAxis {
		p.X.Tick.Marker = plot.TimeTicks{Format: "01-02\n15:04"}
	}

	for i, m := range c.View.Metrics {
		pts := xyPoints(c.View, m, timeAxis)
		if len(pts) == 0 {
			continue
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("plot %s: %w", m, err)
		}
		l.Color = plotutil.Color(i)
		l.Width = vg.Points(1)
		p.Add(l)
		p.Legend.Add(m, l)
	}

	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("render png: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

func hasTimeAxis(v dataset.Projection) bool {
	if v.Rows == nil {
		return false
	}
	for i := 0; i < v.Rows.Len(); i++ {
		c := v.Rows.Value(i, v.TimeColumn)
		if c.IsNull() {
			continue
		}
		return c.Kind() == dataset.KindTime
	}
	return false
}

func xyPoints(v dataset.Projection, metric string, timeAxis bool) plotter.XYs {
	var pts plotter.XYs
	for i := 0; i < v.Rows.Len(); i++ {
		y, ok := v.Rows.Value(i, metric).Float()
		if !ok {
			continue
		}
		x := float64(i)
		if timeAxis {
			t, ok := v.Rows.Value(i, v.TimeColumn).TimeValue()
			if !ok {
				continue
			}
			x = float64(t.Unix())
		}
		pts = append(pts, plotter.XY{X: x, Y: y})
	}
	return pts
}
