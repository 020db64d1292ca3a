package dataset

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes one metric of a selection.
type Summary struct {
	Metric string  `json:"metric"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summarize computes descriptive statistics for each metric of a projection.
// Metrics without numeric values are reported with a zero count.
func Summarize(p Projection) []Summary {
	out := make([]Summary, 0, len(p.Metrics))
	for _, m := range p.Metrics {
		points := p.Series(m)
		s := Summary{Metric: m, Count: len(points)}
		if len(points) > 0 {
			values := make([]float64, len(points))
			for i, pt := range points {
				values[i] = pt.Value
			}
			s.Mean, s.StdDev = stat.MeanStdDev(values, nil)
			if len(values) == 1 {
				s.StdDev = 0
			}
			s.Min = floats.Min(values)
			s.Max = floats.Max(values)
		}
		out = append(out, s)
	}
	return out
}
