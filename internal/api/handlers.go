package api

import (
    "context"
    "fmt"
    "net/http"
    "strings"
    "time"
)

// LocationsHandler handles GET/POST /v1/locations
func (s *Server) LocationsHandler(w http.ResponseWriter, r *http.Request) {
    ctx, sess := s.withSession(r)
    switch r.Method {
    case http.MethodGet:
        writeJSON(w, http.StatusOK, map[string]any{"items": sess.Locations()})
    case http.MethodPost:
        var req locationsRequest
        if err := decodeJSON(w, r, &req); err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
            return
        }
        if err := validateLocationsRequest(&req); err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid locations request", err.Error(), r.URL.Path)
            return
        }
        first, err := sess.AddLocations(ctx, req.Locations...)
        if err != nil {
            writeError(w, r, "Add location failed", err)
            return
        }
        writeJSON(w, http.StatusCreated, map[string]any{"firstIndex": first, "items": sess.Locations()})
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
    }
}

// LocationByIndexHandler handles DELETE /v1/locations/{n} and PUT /v1/locations/{n}/depot
func (s *Server) LocationByIndexHandler(w http.ResponseWriter, r *http.Request) {
    ctx, sess := s.withSession(r)
    rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/locations/"), "/")
    parts := strings.Split(rest, "/")
    idx, err := parseIndex(parts[0])
    if err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid location index", err.Error(), r.URL.Path)
        return
    }
    switch {
    case len(parts) == 1 && r.Method == http.MethodDelete:
        if err := sess.RemoveLocation(ctx, idx); err != nil {
            writeError(w, r, "Remove location failed", err)
            return
        }
        writeJSON(w, http.StatusOK, map[string]any{"items": sess.Locations()})
    case len(parts) == 2 && parts[1] == "depot" && r.Method == http.MethodPut:
        if err := sess.SetDepot(idx); err != nil {
            writeError(w, r, "Set depot failed", err)
            return
        }
        writeJSON(w, http.StatusOK, map[string]any{"items": sess.Locations()})
    case len(parts) <= 2:
        w.WriteHeader(http.StatusMethodNotAllowed)
    default:
        writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
    }
}

// DepotHandler handles DELETE /v1/depot
func (s *Server) DepotHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodDelete {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    _, sess := s.withSession(r)
    sess.ClearDepot()
    w.WriteHeader(http.StatusNoContent)
}

// VehiclesHandler handles GET/POST /v1/vehicles
func (s *Server) VehiclesHandler(w http.ResponseWriter, r *http.Request) {
    _, sess := s.withSession(r)
    switch r.Method {
    case http.MethodGet:
        writeJSON(w, http.StatusOK, map[string]any{"items": sess.Vehicles()})
    case http.MethodPost:
        var req vehiclesRequest
        if err := decodeJSON(w, r, &req); err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
            return
        }
        if err := validateVehiclesRequest(&req); err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid vehicles request", err.Error(), r.URL.Path)
            return
        }
        added, err := sess.AddVehicles(req.Capacity, req.Quantity)
        if err != nil {
            writeError(w, r, "Add vehicles failed", err)
            return
        }
        writeJSON(w, http.StatusCreated, map[string]any{"added": added, "items": sess.Vehicles()})
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
    }
}

// VehicleByIDHandler handles DELETE /v1/vehicles/{id}
func (s *Server) VehicleByIDHandler(w http.ResponseWriter, r *http.Request) {
    id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/vehicles/"), "/")
    if id == "" || strings.Contains(id, "/") {
        writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
        return
    }
    if r.Method != http.MethodDelete {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    _, sess := s.withSession(r)
    if err := sess.RemoveVehicle(id); err != nil {
        writeError(w, r, "Remove vehicle failed", err)
        return
    }
    writeJSON(w, http.StatusOK, map[string]any{"items": sess.Vehicles()})
}

// RoutesHandler handles GET /v1/routes
func (s *Server) RoutesHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    _, sess := s.withSession(r)
    out := sess.Routes()
    writeJSON(w, http.StatusOK, map[string]any{"routes": out.Routes, "selectedRouteId": out.SelectedID, "calculating": sess.Calculating()})
}

// CalculateHandler handles POST /v1/routes/calculate
func (s *Server) CalculateHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    ctx, sess := s.withSession(r)
    // The solve outlives a dropped client: its result still updates the session.
    ctx = context.WithoutCancel(ctx)
    res, err := sess.Calculate(ctx)
    if err != nil {
        writeError(w, r, "Route calculation failed", err)
        return
    }
    writeJSON(w, http.StatusOK, res)
}

// SelectionHandler handles PUT/DELETE /v1/routes/selection
func (s *Server) SelectionHandler(w http.ResponseWriter, r *http.Request) {
    ctx, sess := s.withSession(r)
    switch r.Method {
    case http.MethodPut:
        var req struct {
            RouteID string `json:"routeId"`
        }
        if err := decodeJSON(w, r, &req); err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
            return
        }
        if req.RouteID == "" {
            writeProblem(w, http.StatusBadRequest, "Invalid selection", "routeId is required", r.URL.Path)
            return
        }
        if err := sess.Select(ctx, req.RouteID); err != nil {
            writeError(w, r, "Select route failed", err)
            return
        }
    case http.MethodDelete:
        if err := sess.Select(ctx, ""); err != nil {
            writeError(w, r, "Clear selection failed", err)
            return
        }
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    out := sess.Routes()
    writeJSON(w, http.StatusOK, map[string]any{"selectedRouteId": out.SelectedID})
}

// RouteStatsHandler handles GET /v1/routes/stats
func (s *Server) RouteStatsHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    _, sess := s.withSession(r)
    writeJSON(w, http.StatusOK, map[string]any{"items": sess.Stats()})
}

// MapStateHandler handles GET /v1/map/state
func (s *Server) MapStateHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    _, sess := s.withSession(r)
    writeJSON(w, http.StatusOK, sess.MapState())
}

// MapClickHandler handles POST /v1/map/click
func (s *Server) MapClickHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    ctx, sess := s.withSession(r)
    var req clickRequest
    if err := decodeJSON(w, r, &req); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
        return
    }
    if err := validateClickRequest(&req); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid click", err.Error(), r.URL.Path)
        return
    }
    if err := sess.Click(ctx, *req.Lat, *req.Lng); err != nil {
        writeError(w, r, "Click rejected", err)
        return
    }
    writeJSON(w, http.StatusAccepted, map[string]any{"draft": sess.MapState().Draft})
}

// SavedRoutesHandler handles GET/POST /v1/saved-routes
func (s *Server) SavedRoutesHandler(w http.ResponseWriter, r *http.Request) {
    ctx, sess := s.withSession(r)
    user := userID(r)
    switch r.Method {
    case http.MethodGet:
        cursor := r.URL.Query().Get("cursor")
        limit := 50
        if v := r.URL.Query().Get("limit"); v != "" { fmt.Sscanf(v, "%d", &limit) }
        items, next, err := s.Store.ListSavedRoutes(ctx, user, cursor, limit)
        if err != nil {
            writeError(w, r, "List saved routes failed", err)
            return
        }
        writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
    case http.MethodPost:
        var req saveRequest
        if err := decodeJSON(w, r, &req); err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
            return
        }
        if err := validateSaveRequest(&req); err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid save request", err.Error(), r.URL.Path)
            return
        }
        sr, err := sess.SaveLocations(ctx, user, req.Name)
        if err != nil {
            writeError(w, r, "Save locations failed", err)
            return
        }
        writeJSON(w, http.StatusCreated, sr)
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
    }
}

// SavedRouteByIDHandler handles GET/DELETE /v1/saved-routes/{id} and POST /v1/saved-routes/{id}/load
func (s *Server) SavedRouteByIDHandler(w http.ResponseWriter, r *http.Request) {
    ctx, sess := s.withSession(r)
    user := userID(r)
    rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/saved-routes/"), "/")
    parts := strings.Split(rest, "/")
    id := parts[0]
    if id == "" || len(parts) > 2 || (len(parts) == 2 && parts[1] != "load") {
        writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
        return
    }
    switch {
    case len(parts) == 2 && r.Method == http.MethodPost:
        if err := sess.LoadSaved(ctx, user, id); err != nil {
            writeError(w, r, "Load saved route failed", err)
            return
        }
        writeJSON(w, http.StatusOK, map[string]any{"items": sess.Locations()})
    case len(parts) == 1 && r.Method == http.MethodGet:
        sr, err := s.Store.GetSavedRoute(ctx, user, id)
        if err != nil {
            writeError(w, r, "Get saved route failed", err)
            return
        }
        writeJSON(w, http.StatusOK, sr)
    case len(parts) == 1 && r.Method == http.MethodDelete:
        if err := s.Store.DeleteSavedRoute(ctx, user, id); err != nil {
            writeError(w, r, "Delete saved route failed", err)
            return
        }
        w.WriteHeader(http.StatusNoContent)
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
    }
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
    writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadyHandler checks the store and, when Redis backs the broker, Redis.
func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
    ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
    defer cancel()
    if err := s.Store.Ping(ctx); err != nil {
        writeProblem(w, http.StatusServiceUnavailable, "Store unavailable", err.Error(), r.URL.Path)
        return
    }
    if p, ok := s.Broker.(interface{ Ping(context.Context) error }); ok {
        if err := p.Ping(ctx); err != nil {
            writeProblem(w, http.StatusServiceUnavailable, "Broker unavailable", err.Error(), r.URL.Path)
            return
        }
    }
    writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
