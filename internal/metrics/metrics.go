package metrics

import (
    "sync"
    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/collectors"
)

var (
    // Registry is the dedicated Prometheus registry for the API
    Registry = prometheus.NewRegistry()
    // HTTPRequests counts requests by method, path, and status
    HTTPRequests = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
        []string{"method", "path", "status"},
    )
    // HTTPDuration records request durations in seconds
    HTTPDuration = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
        []string{"method", "path", "status"},
    )

    // SolverRequests counts solver calls by outcome (ok, transport, format, advisory)
    SolverRequests = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "solver_requests_total", Help: "Route solver calls by outcome."},
        []string{"outcome"},
    )
    // SolverDuration tracks solver round trips in seconds
    SolverDuration = prometheus.NewHistogram(
        prometheus.HistogramOpts{Name: "solver_request_duration_seconds", Help: "Route solver round-trip time in seconds.", Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}},
    )
    // Normalizations counts parsed solver responses by detected shape
    Normalizations = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "route_normalizations_total", Help: "Solver responses normalized, by shape and outcome."},
        []string{"shape", "outcome"},
    )

    // OverlaysActive is the number of live route overlays per session
    OverlaysActive = prometheus.NewGaugeVec(
        prometheus.GaugeOpts{Name: "map_overlays_active", Help: "Route overlays currently on the map."},
        []string{"session"},
    )
    // OverlayOps counts map surface operations (fit, add, remove, style)
    OverlayOps = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "map_overlay_ops_total", Help: "Map surface operations by kind."},
        []string{"op"},
    )
)

// RegisterDefault registers collectors to the default registry.
func RegisterDefault() {
    regOnce.Do(func(){
        Registry.MustRegister(HTTPRequests)
        Registry.MustRegister(HTTPDuration)
        Registry.MustRegister(SolverRequests)
        Registry.MustRegister(SolverDuration)
        Registry.MustRegister(Normalizations)
        Registry.MustRegister(OverlaysActive)
        Registry.MustRegister(OverlayOps)
        // Go/process collectors on our registry
        Registry.MustRegister(collectors.NewGoCollector())
        Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
    })
}

var regOnce sync.Once
