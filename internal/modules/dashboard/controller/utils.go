package controller

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/deng0529/GUItest-building-heating/internal/dataset"
	"github.com/deng0529/GUItest-building-heating/internal/pipeline"
	"github.com/deng0529/GUItest-building-heating/internal/utils"
)

const (
	pageTitle = "Building zone temperatures"
	// Rows shown in the raw and selected-zone tables.
	tableRowLimit = 500
	// metricsSetField is posted by the controls form so that a submission with
	// every metric unticked is told apart from one that names no metrics.
	metricsSetField = "metrics_set"
)

// displayQuery holds the user inputs of one display cycle.
type displayQuery struct {
	Table    string   `validate:"omitempty,max=128"`
	Zone     string   `validate:"omitempty,max=64"`
	Metrics  []string `validate:"max=16,dive,required,max=64"`
	Outliers bool
}

func (c *dashboardControllerImpl) parseDisplayQuery(values url.Values) (displayQuery, error) {
	q := displayQuery{
		Table:    strings.TrimSpace(values.Get("table")),
		Zone:     strings.TrimSpace(values.Get("zone")),
		Outliers: utils.ParseBool(values.Get("outliers"), false),
	}
	for _, m := range values["metric"] {
		if m = strings.TrimSpace(m); m != "" {
			q.Metrics = append(q.Metrics, m)
		}
	}
	if q.Metrics == nil && utils.ParseBool(values.Get(metricsSetField), false) {
		q.Metrics = []string{}
	}
	if err := c.validate.Struct(q); err != nil {
		return displayQuery{}, queryError(err)
	}
	return q, nil
}

func (c *dashboardControllerImpl) pipelineOptions(q displayQuery) pipeline.Options {
	return pipeline.Options{
		Zone:           q.Zone,
		Metrics:        q.Metrics,
		FilterOutliers: q.Outliers,
		TimeColumn:     c.settings.TimeColumn,
	}
}

func (c *dashboardControllerImpl) tableName(q displayQuery) string {
	if q.Table != "" {
		return q.Table
	}
	return c.settings.Table
}

func queryError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	name := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "max":
		return fmt.Errorf("invalid '%s' (too long or too many values)", name)
	case "required":
		return fmt.Errorf("invalid '%s' (empty value)", name)
	default:
		return fmt.Errorf("invalid '%s'", name)
	}
}

// statusFor maps a cycle error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, dataset.ErrConnectionFailure):
		return http.StatusBadGateway
	case errors.Is(err, dataset.ErrTableNotFound):
		return http.StatusNotFound
	case errors.Is(err, dataset.ErrMissingRequiredColumn), errors.Is(err, dataset.ErrMissingTimeColumn):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// userMessage is the text shown to the user for a cycle error.
func userMessage(err error) string {
	switch {
	case errors.Is(err, dataset.ErrConnectionFailure):
		return "The data warehouse could not be reached. Try again later."
	case errors.Is(err, dataset.ErrTableNotFound):
		return "The requested table does not exist."
	case errors.Is(err, dataset.ErrMissingRequiredColumn):
		return fmt.Sprintf("The table has no %s column, so no zone can be selected.", dataset.ColZoneID)
	case errors.Is(err, dataset.ErrMissingTimeColumn):
		return "The table has no time column, so it cannot be charted."
	default:
		return "The data could not be processed."
	}
}

// notices collects the recoverable conditions of a finished cycle.
func notices(res *pipeline.Result) []string {
	var out []string
	if res.Temporal == dataset.PartiallyParsed {
		out = append(out, fmt.Sprintf("Column %s could not be read as dates and is shown as text: %s", res.TimeColumn, res.TemporalReason))
	}
	if msg := res.View.Status.Message(); msg != "" {
		out = append(out, msg)
	}
	return out
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.0f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
