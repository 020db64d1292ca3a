package dataset

import "strings"

// Canonical column names.
const (
	ColZoneID     = "zone_id"
	ColSampleTime = "sample_time"
	ColExtTemp    = "ext_temp"
	ColTargetTemp = "target_temp"
	ColRealTemp   = "real_temp"
)

// canonicalNames maps lower-cased input names to canonical names. Canonical
// names map to themselves so normalizing twice is a no-op.
var canonicalNames = map[string]string{
	"zoneid":      ColZoneID,
	"zone_id":     ColZoneID,
	"ext":         ColExtTemp,
	"ext_temp":    ColExtTemp,
	"temp.0":      ColRealTemp,
	"real_temp":   ColRealTemp,
	"indoor_temp": ColRealTemp,
	"target_temp": ColTargetTemp,
	"sample_time": ColSampleTime,
	"time":        "time",
	"timestamp":   "timestamp",
	"datetime":    "datetime",
}

// CanonicalName maps an input column name to its canonical name. When the
// name is not in the mapping table it is returned unchanged with mapped=false.
func CanonicalName(name string) (canonical string, mapped bool) {
	if c, ok := canonicalNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return c, true
	}
	return name, false
}

// Normalize renames mapped columns to their canonical names, keeping column
// order. A column already spelled canonically keeps its name; otherwise the
// first column mapping to a canonical name takes it and later ones keep
// their input name, so the result never gains duplicate columns.
func Normalize(d *Dataset) *Dataset {
	taken := make(map[string]bool, len(d.columns))
	for _, c := range d.columns {
		if canonical, mapped := CanonicalName(c); !mapped || canonical == c {
			taken[c] = true
		}
	}
	cols := make([]string, len(d.columns))
	for i, c := range d.columns {
		canonical, mapped := CanonicalName(c)
		switch {
		case !mapped || canonical == c:
			cols[i] = c
		case !taken[canonical]:
			cols[i] = canonical
			taken[canonical] = true
		default:
			cols[i] = c
		}
	}
	return d.withColumns(cols)
}
