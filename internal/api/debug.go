package api

import (
    "encoding/json"
    "net/http"
    "sort"
    "time"

    "vorp/internal/buildinfo"
)

func (s *Server) DebugJSON(w http.ResponseWriter, r *http.Request) {
    ids := s.Sessions.IDs()
    sort.Strings(ids)
    cfg := s.Config
    info := map[string]any{
        "build": buildinfo.Info(),
        "time":  time.Now().UTC().Format(time.RFC3339),
        "config": map[string]any{
            "PORT":             cfg.Port,
            "SOLVER_URL":       s.Solver.URL(),
            "SOLVER_TIMEOUT":   cfg.Solver.Timeout.String(),
            "SOLVER_RPS":       cfg.Solver.RPS,
            "SOLVER_BURST":     cfg.Solver.Burst,
            "MAP_FIT_PADDING":  cfg.Map.FitPadding,
            "HAS_DATABASE_URL": cfg.DB.URL != "",
            "HAS_REDIS_URL":    cfg.Redis.URL != "",
        },
        "sessions": ids,
    }
    w.Header().Set("Content-Type", "application/json")
    _ = json.NewEncoder(w).Encode(info)
}
