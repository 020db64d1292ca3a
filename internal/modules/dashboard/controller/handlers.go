package controller

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"slices"

	"github.com/deng0529/GUItest-building-heating/internal/dataset"
	"github.com/deng0529/GUItest-building-heating/internal/modules/dashboard/views"
	"github.com/deng0529/GUItest-building-heating/internal/pipeline"
	"github.com/deng0529/GUItest-building-heating/internal/source/upload"
	"github.com/deng0529/GUItest-building-heating/internal/utils"
)

// Memory kept for a multipart upload before spilling to temp files.
const uploadMemory = 8 << 20

func (c *dashboardControllerImpl) handleDashboard(w http.ResponseWriter, r *http.Request) {
	q, err := c.parseDisplayQuery(r.URL.Query())
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	table := c.tableName(q)

	res, err := c.pipeline.Load(r.Context(), table, c.pipelineOptions(q))
	data := c.dashboardData(res, err, q, table, false)
	if err == nil && res.View.Status == dataset.StatusOK {
		data.ChartURL = chartURL("/chart", table, res.Zone, q)
		data.PNGURL = chartURL("/chart.png", table, res.Zone, q)
	}
	c.renderDashboard(w, httpStatus(err), data)
}

func (c *dashboardControllerImpl) handleUploadForm(w http.ResponseWriter, r *http.Request) {
	c.renderUpload(w, http.StatusOK, "")
}

func (c *dashboardControllerImpl) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, c.settings.UploadMaxBytes)
	if err := r.ParseMultipartForm(uploadMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.renderUpload(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("The file is larger than %s.", formatBytes(c.settings.UploadMaxBytes)))
			return
		}
		c.renderUpload(w, http.StatusBadRequest, "The upload could not be read.")
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			c.logger.Warn("upload: remove temp files failed", "error", err)
		}
	}()

	q, err := c.parseDisplayQuery(r.PostForm)
	if err != nil {
		c.renderUpload(w, http.StatusBadRequest, err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		c.renderUpload(w, http.StatusBadRequest, "Choose a CSV or Excel file to upload.")
		return
	}
	defer file.Close()

	raw, err := upload.Parse(header.Filename, file)
	if err != nil {
		c.logger.Info("upload: parse failed", "filename", header.Filename, "error", err)
		c.renderUpload(w, http.StatusBadRequest, fmt.Sprintf("%s could not be read: %v", header.Filename, err))
		return
	}

	opts := c.pipelineOptions(q)
	opts.Source = "upload"
	res, err := c.pipeline.Run(r.Context(), raw, opts)
	data := c.dashboardData(res, err, q, header.Filename, true)
	if err == nil && res.View.Status == dataset.StatusOK {
		c.inlineCharts(data, res)
	}
	c.renderDashboard(w, httpStatus(err), data)
}

func (c *dashboardControllerImpl) handleChart(w http.ResponseWriter, r *http.Request) {
	res, ok := c.loadForChart(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := views.RenderLineChart(&buf, chartData(res)); err != nil {
		c.logger.Error("chart: render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render chart")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(buf.Bytes()); err != nil {
		c.logger.Error("chart: write response failed", "error", err)
	}
}

func (c *dashboardControllerImpl) handleChartPNG(w http.ResponseWriter, r *http.Request) {
	res, ok := c.loadForChart(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := views.RenderChartPNG(&buf, chartData(res), views.PNGWidth, views.PNGHeight); err != nil {
		c.logger.Error("chart png: render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render chart")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if _, err := w.Write(buf.Bytes()); err != nil {
		c.logger.Error("chart png: write response failed", "error", err)
	}
}

func (c *dashboardControllerImpl) loadForChart(w http.ResponseWriter, r *http.Request) (*pipeline.Result, bool) {
	q, err := c.parseDisplayQuery(r.URL.Query())
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	res, err := c.pipeline.Load(r.Context(), c.tableName(q), c.pipelineOptions(q))
	if err != nil {
		utils.WriteError(w, statusFor(err), userMessage(err))
		return nil, false
	}
	return res, true
}

func (c *dashboardControllerImpl) dashboardData(res *pipeline.Result, err error, q displayQuery, name string, isUpload bool) *views.DashboardData {
	data := &views.DashboardData{
		Title:          pageTitle,
		Upload:         isUpload,
		SourceName:     name,
		FilterOutliers: q.Outliers,
	}
	if res != nil {
		data.Raw = views.NewTableView(res.Table, tableRowLimit)
	}
	if err != nil {
		data.Error = userMessage(err)
		return data
	}

	data.Charted = true
	data.Notices = notices(res)
	data.Caption = caption(res)
	data.Fences = res.Fences
	data.RowsRemoved = res.RowsRemoved
	data.Selection = views.NewTableView(res.Selection, tableRowLimit)
	data.Summary = res.Summary

	for _, z := range res.Zones {
		label := z
		if c.labels != nil {
			label = c.labels.Label(z)
		}
		data.Zones = append(data.Zones, views.Option{Value: z, Label: label, Selected: z == res.Zone})
	}
	for _, m := range dataset.AvailableMetrics(res.Table, dataset.DefaultMetrics) {
		data.Metrics = append(data.Metrics, views.Option{Value: m, Label: m, Selected: slices.Contains(res.View.Metrics, m)})
	}
	return data
}

// inlineCharts renders both charts into the page, since uploaded data is not
// stored and cannot be fetched again by the chart endpoints.
func (c *dashboardControllerImpl) inlineCharts(data *views.DashboardData, res *pipeline.Result) {
	var page bytes.Buffer
	if err := views.RenderLineChart(&page, chartData(res)); err != nil {
		c.logger.Error("upload: chart render failed", "cycle_id", res.CycleID, "error", err)
		data.Notices = append(data.Notices, "The chart could not be rendered.")
		return
	}
	data.ChartPage = page.String()

	var img bytes.Buffer
	if err := views.RenderChartPNG(&img, chartData(res), views.PNGWidth, views.PNGHeight); err != nil {
		c.logger.Error("upload: png render failed", "cycle_id", res.CycleID, "error", err)
		return
	}
	data.ChartPNG = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(img.Bytes()))
}

func (c *dashboardControllerImpl) renderDashboard(w http.ResponseWriter, status int, data *views.DashboardData) {
	var buf bytes.Buffer
	if err := views.RenderDashboard(&buf, data); err != nil {
		c.logger.Error("dashboard template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		c.logger.Error("dashboard: write response failed", "error", err)
	}
}

func (c *dashboardControllerImpl) renderUpload(w http.ResponseWriter, status int, msg string) {
	data := &views.UploadData{
		Title:   pageTitle,
		Error:   msg,
		MaxSize: formatBytes(c.settings.UploadMaxBytes),
	}
	for _, m := range dataset.DefaultMetrics {
		data.Metrics = append(data.Metrics, views.Option{Value: m, Label: m, Selected: true})
	}
	var buf bytes.Buffer
	if err := views.RenderUpload(&buf, data); err != nil {
		c.logger.Error("upload template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		c.logger.Error("upload: write response failed", "error", err)
	}
}

func chartData(res *pipeline.Result) views.ChartData {
	return views.ChartData{Title: caption(res), View: res.View}
}

func caption(res *pipeline.Result) string {
	if res.Zone == "" {
		return "No zones in this table"
	}
	return "Data for Zone " + res.ZoneLabel
}

func chartURL(path, table, zone string, q displayQuery) string {
	v := url.Values{}
	v.Set("table", table)
	v.Set("zone", zone)
	for _, m := range q.Metrics {
		v.Add("metric", m)
	}
	if q.Metrics != nil && len(q.Metrics) == 0 {
		v.Set(metricsSetField, "1")
	}
	if q.Outliers {
		v.Set("outliers", "on")
	}
	return path + "?" + v.Encode()
}

func httpStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return statusFor(err)
}
