package controller

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/deng0529/GUItest-building-heating/internal/pipeline"
	"github.com/deng0529/GUItest-building-heating/internal/source"
)

type DashboardController interface {
	RegisterRoutes(mux *http.ServeMux)
}

// Settings are the dashboard defaults taken from the configuration.
type Settings struct {
	// Table is the warehouse table shown when the request names none.
	Table string
	// TimeColumn overrides the time column candidates when set.
	TimeColumn     string
	UploadMaxBytes int64
}

type dashboardControllerImpl struct {
	pipeline *pipeline.Pipeline
	source   source.Source
	labels   pipeline.Labeler
	settings Settings
	logger   *slog.Logger
	validate *validator.Validate
}

// NewDashboardController serves the dashboard pages and the series API. labels
// may be nil.
func NewDashboardController(p *pipeline.Pipeline, src source.Source, labels pipeline.Labeler, settings Settings, logger *slog.Logger) DashboardController {
	if logger == nil {
		logger = slog.Default()
	}
	return &dashboardControllerImpl{
		pipeline: p,
		source:   src,
		labels:   labels,
		settings: settings,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (c *dashboardControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", c.handleDashboard)
	mux.HandleFunc("GET /upload", c.handleUploadForm)
	mux.HandleFunc("POST /upload", c.handleUpload)
	mux.HandleFunc("GET /chart", c.handleChart)
	mux.HandleFunc("GET /chart.png", c.handleChartPNG)
	mux.HandleFunc("GET /api/v1/tables", c.handleTables)
	mux.HandleFunc("GET /api/v1/tables/{name}/zones", c.handleZones)
	mux.HandleFunc("GET /api/v1/tables/{name}/series", c.handleSeries)
}
