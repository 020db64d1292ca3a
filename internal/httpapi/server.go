package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/deng0529/GUItest-building-heating/internal/config"
)

func NewServer(cfg config.Config, mux *http.ServeMux, logger *slog.Logger, recorder RequestRecorder) *http.Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           requestLogger(logger, recorder, mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
