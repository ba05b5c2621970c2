package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vorp/internal/metrics"
)

// Routes returns the service mux.
func (s *Server) Routes() http.Handler {
	metrics.RegisterDefault()
	mux := http.NewServeMux()

	// Planning state
	mux.HandleFunc("/v1/locations", s.LocationsHandler)
	mux.HandleFunc("/v1/locations/", s.LocationByIndexHandler) // includes /depot
	mux.HandleFunc("/v1/depot", s.DepotHandler)
	mux.HandleFunc("/v1/vehicles", s.VehiclesHandler)
	mux.HandleFunc("/v1/vehicles/", s.VehicleByIDHandler)

	// Routes
	mux.HandleFunc("/v1/routes", s.RoutesHandler)
	mux.HandleFunc("/v1/routes/calculate", s.CalculateHandler)
	mux.HandleFunc("/v1/routes/selection", s.SelectionHandler)
	mux.HandleFunc("/v1/routes/stats", s.RouteStatsHandler)

	// Map
	mux.HandleFunc("/v1/map/state", s.MapStateHandler)
	mux.HandleFunc("/v1/map/click", s.MapClickHandler)
	mux.HandleFunc("/v1/map/ws", s.MapWSHandler)

	// Persistence
	mux.HandleFunc("/v1/saved-routes", s.SavedRoutesHandler)
	mux.HandleFunc("/v1/saved-routes/", s.SavedRouteByIDHandler) // includes /load

	// Ops
	mux.HandleFunc("/healthz", s.HealthHandler)
	mux.HandleFunc("/readyz", s.ReadyHandler)
	mux.HandleFunc("/debug", s.DebugJSON)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	return Instrument(mux)
}
