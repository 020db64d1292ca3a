package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/deng0529/GUItest-building-heating/internal/config"
	"github.com/deng0529/GUItest-building-heating/internal/modules/dashboard/controller"
	"github.com/deng0529/GUItest-building-heating/internal/pipeline"
	"github.com/deng0529/GUItest-building-heating/internal/source"
)

func RegisterFeature(mux *http.ServeMux, p *pipeline.Pipeline, src source.Source, labels config.ZoneLabels, cfg config.Config, logger *slog.Logger) {
	dashboardController := controller.NewDashboardController(p, src, labels, controller.Settings{
		Table:          cfg.WarehouseTable,
		TimeColumn:     cfg.TimeColumn,
		UploadMaxBytes: cfg.UploadMaxBytes,
	}, logger)
	dashboardController.RegisterRoutes(mux)
}
