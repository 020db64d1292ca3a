package controller

import (
	"net/http"

	"github.com/deng0529/GUItest-building-heating/internal/dataset"
	"github.com/deng0529/GUItest-building-heating/internal/utils"
)

type zoneResponse struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type seriesPoint struct {
	Time  string  `json:"t"`
	Value float64 `json:"v"`
}

type temporalInfo struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

type outlierInfo struct {
	Enabled     bool            `json:"enabled"`
	RowsRemoved int             `json:"rows_removed"`
	Fences      []dataset.Fence `json:"fences,omitempty"`
}

type seriesResponse struct {
	CycleID    string                   `json:"cycle_id"`
	Table      string                   `json:"table"`
	Zone       string                   `json:"zone"`
	ZoneLabel  string                   `json:"zone_label"`
	Zones      []string                 `json:"zones"`
	TimeColumn string                   `json:"time_column"`
	Temporal   temporalInfo             `json:"temporal"`
	Outliers   outlierInfo              `json:"outliers"`
	Status     string                   `json:"status"`
	Message    string                   `json:"message,omitempty"`
	Metrics    []string                 `json:"metrics"`
	Series     map[string][]seriesPoint `json:"series"`
	Summary    []dataset.Summary        `json:"summary"`
}

func (c *dashboardControllerImpl) handleTables(w http.ResponseWriter, r *http.Request) {
	if c.source == nil {
		utils.WriteError(w, http.StatusBadGateway, userMessage(dataset.ErrConnectionFailure))
		return
	}
	tables, err := c.source.Tables(r.Context())
	if err != nil {
		c.logger.Error("tables: list failed", "error", err)
		utils.WriteError(w, statusFor(err), userMessage(err))
		return
	}
	if tables == nil {
		tables = []string{}
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"tables": tables})
}

func (c *dashboardControllerImpl) handleZones(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		utils.WriteError(w, http.StatusBadRequest, "missing table name")
		return
	}
	if c.source == nil {
		utils.WriteError(w, http.StatusBadGateway, userMessage(dataset.ErrConnectionFailure))
		return
	}
	raw, err := c.source.FetchTable(r.Context(), name)
	if err != nil {
		utils.WriteError(w, statusFor(err), userMessage(err))
		return
	}
	table := dataset.Normalize(raw)
	if err := dataset.RequireZoneColumn(table); err != nil {
		utils.WriteError(w, statusFor(err), userMessage(err))
		return
	}
	zones := dataset.Zones(table)
	out := make([]zoneResponse, 0, len(zones))
	for _, z := range zones {
		label := z
		if c.labels != nil {
			label = c.labels.Label(z)
		}
		out = append(out, zoneResponse{ID: z, Label: label})
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

func (c *dashboardControllerImpl) handleSeries(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		utils.WriteError(w, http.StatusBadRequest, "missing table name")
		return
	}
	q, err := c.parseDisplayQuery(r.URL.Query())
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	q.Table = name

	res, err := c.pipeline.Load(r.Context(), name, c.pipelineOptions(q))
	if err != nil {
		utils.WriteError(w, statusFor(err), userMessage(err))
		return
	}

	resp := seriesResponse{
		CycleID:    res.CycleID,
		Table:      name,
		Zone:       res.Zone,
		ZoneLabel:  res.ZoneLabel,
		Zones:      res.Zones,
		TimeColumn: res.TimeColumn,
		Temporal:   temporalInfo{Status: res.Temporal.String(), Reason: res.TemporalReason},
		Outliers:   outlierInfo{Enabled: q.Outliers, RowsRemoved: res.RowsRemoved, Fences: res.Fences},
		Status:     res.View.Status.String(),
		Message:    res.View.Status.Message(),
		Metrics:    res.View.Metrics,
		Series:     make(map[string][]seriesPoint, len(res.View.Metrics)),
		Summary:    res.Summary,
	}
	if resp.Zones == nil {
		resp.Zones = []string{}
	}
	if resp.Metrics == nil {
		resp.Metrics = []string{}
	}
	for _, m := range res.View.Metrics {
		points := res.View.Series(m)
		out := make([]seriesPoint, len(points))
		for i, p := range points {
			out[i] = seriesPoint{Time: p.Time.String(), Value: p.Value}
		}
		resp.Series[m] = out
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}
