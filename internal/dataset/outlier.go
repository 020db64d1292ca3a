package dataset

import (
	"math"
	"sort"
)

// IQRMultiplier scales the interquartile range into the fence width.
const IQRMultiplier = 1.5

// Fence is the inclusive [Lower, Upper] bound derived from one column's quartiles.
type Fence struct {
	Column string  `json:"column"`
	Q1     float64 `json:"q1"`
	Q3     float64 `json:"q3"`
	IQR    float64 `json:"iqr"`
	Lower  float64 `json:"lower"`
	Upper  float64 `json:"upper"`
	// Removed counts rows dropped by this column's pass.
	Removed int `json:"removed"`
}

// Contains reports whether v lies inside the fence.
func (f Fence) Contains(v float64) bool { return v >= f.Lower && v <= f.Upper }

// ComputeFence derives the fence for a column from its numeric values. ok is
// false when the column is absent or holds no numeric value.
func ComputeFence(d *Dataset, column string) (Fence, bool) {
	cells, ok := d.Column(column)
	if !ok {
		return Fence{}, false
	}
	values := make([]float64, 0, len(cells))
	for _, c := range cells {
		if v, isNum := c.Float(); isNum {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return Fence{}, false
	}
	sort.Float64s(values)
	q1 := Quantile(values, 0.25)
	q3 := Quantile(values, 0.75)
	iqr := q3 - q1
	return Fence{
		Column: column,
		Q1:     q1,
		Q3:     q3,
		IQR:    iqr,
		Lower:  q1 - IQRMultiplier*iqr,
		Upper:  q3 + IQRMultiplier*iqr,
	}, true
}

// FilterOutliers drops rows outside each column's IQR fence. Columns are
// processed in order and each fence is computed on the rows that survived
// the previous columns. Absent columns and columns without numeric values
// are skipped. A row whose value in a processed column is not numeric is
// dropped.
func FilterOutliers(d *Dataset, columns []string) (*Dataset, []Fence) {
	var fences []Fence
	out := d
	for _, col := range columns {
		fence, ok := ComputeFence(out, col)
		if !ok {
			continue
		}
		c := out.index[col]
		before := out.Len()
		out = out.Filter(func(row []Cell) bool {
			v, isNum := row[c].Float()
			return isNum && fence.Contains(v)
		})
		fence.Removed = before - out.Len()
		fences = append(fences, fence)
	}
	return out, fences
}

// Quantile returns the p-quantile of sorted values using linear
// interpolation between the closest ranks. sorted must be ascending and
// non-empty.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	h := float64(n-1) * p
	lo := math.Floor(h)
	i := int(lo)
	if i >= n-1 {
		return sorted[n-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}
