package rest

import "net/http"

// NewRouter mounts the health, model and metrics endpoints.
func NewRouter(health *HealthHandler, model *ModelHandler, metrics http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	health.RegisterRoutes(mux)
	model.RegisterRoutes(mux)
	mux.Handle("GET /metrics", metrics)
	return mux
}
