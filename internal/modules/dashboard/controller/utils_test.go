package controller

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"

	"github.com/deng0529/GUItest-building-heating/internal/dataset"
)

func Test_parseDisplayQuery(t *testing.T) {
	c := &dashboardControllerImpl{validate: validator.New(validator.WithRequiredStructEnabled())}

	t.Run("reads every input", func(t *testing.T) {
		q, err := c.parseDisplayQuery(url.Values{
			"table":    {" BUILDING_B "},
			"zone":     {"3"},
			"metric":   {"ext_temp", " ", "real_temp"},
			"outliers": {"on"},
		})
		if err != nil {
			t.Fatalf("parseDisplayQuery: %v", err)
		}
		if q.Table != "BUILDING_B" || q.Zone != "3" || !q.Outliers {
			t.Errorf("query = %+v", q)
		}
		if len(q.Metrics) != 2 || q.Metrics[0] != "ext_temp" || q.Metrics[1] != "real_temp" {
			t.Errorf("metrics = %v; want [ext_temp real_temp]", q.Metrics)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		q, err := c.parseDisplayQuery(url.Values{})
		if err != nil {
			t.Fatalf("parseDisplayQuery: %v", err)
		}
		if q.Zone != "" || q.Outliers || q.Metrics != nil {
			t.Errorf("query = %+v; want zero value", q)
		}
	})

	t.Run("unticked metrics", func(t *testing.T) {
		q, err := c.parseDisplayQuery(url.Values{"metrics_set": {"1"}})
		if err != nil {
			t.Fatalf("parseDisplayQuery: %v", err)
		}
		if q.Metrics == nil || len(q.Metrics) != 0 {
			t.Errorf("metrics = %#v; want empty non-nil slice", q.Metrics)
		}

		q, err = c.parseDisplayQuery(url.Values{"metrics_set": {"1"}, "metric": {"ext_temp"}})
		if err != nil {
			t.Fatalf("parseDisplayQuery: %v", err)
		}
		if len(q.Metrics) != 1 || q.Metrics[0] != "ext_temp" {
			t.Errorf("metrics = %v; want [ext_temp]", q.Metrics)
		}
	})

	tests := []struct {
		name    string
		values  url.Values
		wantErr string
	}{
		{name: "zone too long", values: url.Values{"zone": {strings.Repeat("z", 65)}}, wantErr: "'zone'"},
		{name: "table too long", values: url.Values{"table": {strings.Repeat("t", 129)}}, wantErr: "'table'"},
		{name: "too many metrics", values: url.Values{"metric": strings.Split(strings.Repeat("m,", 17), ",")[:17]}, wantErr: "'metrics'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.parseDisplayQuery(tt.values)
			if err == nil {
				t.Fatal("parseDisplayQuery() = nil; want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q; want it to mention %s", err, tt.wantErr)
			}
		})
	}
}

func Test_statusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: dial", dataset.ErrConnectionFailure), http.StatusBadGateway},
		{fmt.Errorf("%w: X", dataset.ErrTableNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: zone_id", dataset.ErrMissingRequiredColumn), http.StatusUnprocessableEntity},
		{dataset.ErrMissingTimeColumn, http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d; want %d", tt.err, got, tt.want)
		}
		if userMessage(tt.err) == "" {
			t.Errorf("userMessage(%v) is empty", tt.err)
		}
	}
	if got := httpStatus(nil); got != http.StatusOK {
		t.Errorf("httpStatus(nil) = %d; want 200", got)
	}
}

func Test_chartURL(t *testing.T) {
	got := chartURL("/chart", "BUILDING_A", "3", displayQuery{Metrics: []string{"ext_temp", "real_temp"}, Outliers: true})
	want := "/chart?metric=ext_temp&metric=real_temp&outliers=on&table=BUILDING_A&zone=3"
	if got != want {
		t.Errorf("chartURL() = %q; want %q", got, want)
	}

	got = chartURL("/chart", "BUILDING_A", "3", displayQuery{Metrics: []string{}})
	want = "/chart?metrics_set=1&table=BUILDING_A&zone=3"
	if got != want {
		t.Errorf("chartURL() = %q; want %q", got, want)
	}
}

func Test_formatBytes(t *testing.T) {
	tests := map[int64]string{
		512:      "512 B",
		2048:     "2 KiB",
		1 << 20:  "1 MiB",
		32 << 20: "32 MiB",
	}
	for n, want := range tests {
		if got := formatBytes(n); got != want {
			t.Errorf("formatBytes(%d) = %q; want %q", n, got, want)
		}
	}
}
