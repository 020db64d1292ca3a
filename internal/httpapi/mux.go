package httpapi

import (
	"database/sql"
	"net/http"
)

// NewMux registers the operational endpoints. Feature modules add their own
// routes to the returned mux.
func NewMux(db *sql.DB, mqtt ConnectionStatus, metrics http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, db, mqtt)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
	return mux
}
