package dataset

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCanonicalName(t *testing.T) {
	tests := []struct {
		in         string
		want       string
		wantMapped bool
	}{
		{in: "zoneid", want: "zone_id", wantMapped: true},
		{in: "ZONEID", want: "zone_id", wantMapped: true},
		{in: "ext", want: "ext_temp", wantMapped: true},
		{in: "temp.0", want: "real_temp", wantMapped: true},
		{in: "INDOOR_TEMP", want: "real_temp", wantMapped: true},
		{in: "TARGET_TEMP", want: "target_temp", wantMapped: true},
		{in: " SAMPLE_TIME ", want: "sample_time", wantMapped: true},
		{in: "zone_id", want: "zone_id", wantMapped: true},
		{in: "humidity", want: "humidity", wantMapped: false},
		{in: "Temp.1", want: "Temp.1", wantMapped: false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, mapped := CanonicalName(tt.in)
			if got != tt.want || mapped != tt.wantMapped {
				t.Errorf("CanonicalName(%q) = (%q, %v); want (%q, %v)", tt.in, got, mapped, tt.want, tt.wantMapped)
			}
		})
	}
}

func TestNormalize_uploadColumns(t *testing.T) {
	ds := FromRecords(
		[]string{"zoneid", "ext", "temp.0", "sample_time"},
		[][]string{{"1", "10", "21", "2025-01-01 00:00:00"}},
	)

	got := Normalize(ds).Columns()
	want := []string{"zone_id", "ext_temp", "real_temp", "sample_time"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Normalize columns mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalize_unmappedColumnsKeepPosition(t *testing.T) {
	ds := FromRecords([]string{"site", "zoneid", "humidity", "ext"}, nil)

	got := Normalize(ds).Columns()
	want := []string{"site", "zone_id", "humidity", "ext_temp"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Normalize columns mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalize_doesNotMutateInput(t *testing.T) {
	ds := FromRecords([]string{"zoneid", "ext"}, [][]string{{"1", "2"}})
	_ = Normalize(ds)
	if diff := cmp.Diff([]string{"zoneid", "ext"}, ds.Columns()); diff != "" {
		t.Errorf("input columns changed (-want +got):\n%s", diff)
	}
}

func TestNormalize_collisions(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "canonical spelling wins over alias",
			in:   []string{"ext", "ext_temp"},
			want: []string{"ext", "ext_temp"},
		},
		{
			name: "first alias wins",
			in:   []string{"EXT", "ext"},
			want: []string{"ext_temp", "ext"},
		},
		{
			name: "two aliases of real_temp",
			in:   []string{"temp.0", "INDOOR_TEMP"},
			want: []string{"real_temp", "INDOOR_TEMP"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(FromRecords(tt.in, nil)).Columns()
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Normalize(%v) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestNormalize_idempotent(t *testing.T) {
	headers := [][]string{
		{"zoneid", "ext", "temp.0", "sample_time"},
		{"ZONEID", "SAMPLE_TIME", "EXT_TEMP", "TARGET_TEMP", "INDOOR_TEMP"},
		{"ext", "ext_temp", "EXT", "zone_id", "zoneid"},
		{"a", "b", "c"},
		{},
	}
	for _, h := range headers {
		once := Normalize(FromRecords(h, nil))
		twice := Normalize(once)
		if diff := cmp.Diff(once.Columns(), twice.Columns()); diff != "" {
			t.Errorf("Normalize not idempotent for %v (-once +twice):\n%s", h, diff)
		}
	}
}
