package store

import (
    "context"
    "fmt"
    "strconv"
    "sync"
    "time"

    "github.com/google/uuid"
    "vorp/internal/model"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
    mu     sync.Mutex
    routes map[string]model.SavedRoute // id -> saved route
    byUser map[string][]string         // user -> ids, insertion order
    now    func() time.Time
}

func NewMemory() *Memory {
    return &Memory{
        routes: map[string]model.SavedRoute{},
        byUser: map[string][]string{},
        now:    time.Now,
    }
}

func (m *Memory) SaveRoute(ctx context.Context, in model.SavedRouteIn) (model.SavedRoute, error) {
    if err := validateIn(in); err != nil { return model.SavedRoute{}, err }
    m.mu.Lock(); defer m.mu.Unlock()
    sr := model.SavedRoute{
        ID:        uuid.New().String(),
        UserID:    in.UserID,
        Name:      in.Name,
        Data:      model.SavedRouteData{Locations: append([]model.Location{}, in.Data.Locations...)},
        CreatedAt: m.now().UTC().Format(time.RFC3339Nano),
    }
    m.routes[sr.ID] = sr
    m.byUser[in.UserID] = append(m.byUser[in.UserID], sr.ID)
    return sr, nil
}

// ListSavedRoutes pages newest first. The cursor is the offset of the next page.
func (m *Memory) ListSavedRoutes(ctx context.Context, userID, cursor string, limit int) ([]model.SavedRoute, string, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    limit = clampLimit(limit)
    ids := append([]string(nil), m.byUser[userID]...)
    // newest first
    for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 { ids[i], ids[j] = ids[j], ids[i] }
    start := 0
    if cursor != "" {
        n, err := strconv.Atoi(cursor)
        if err != nil || n < 0 { return nil, "", fmt.Errorf("%w: %q", ErrBadCursor, cursor) }
        start = n
    }
    if start > len(ids) { start = len(ids) }
    end := start + limit
    if end > len(ids) { end = len(ids) }
    out := make([]model.SavedRoute, 0, end-start)
    for _, id := range ids[start:end] { out = append(out, m.routes[id]) }
    next := ""
    if end < len(ids) { next = strconv.Itoa(end) }
    return out, next, nil
}

func (m *Memory) GetSavedRoute(ctx context.Context, userID, id string) (model.SavedRoute, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    sr, ok := m.routes[id]
    if !ok || sr.UserID != userID { return model.SavedRoute{}, ErrNotFound }
    return sr, nil
}

func (m *Memory) DeleteSavedRoute(ctx context.Context, userID, id string) error {
    m.mu.Lock(); defer m.mu.Unlock()
    sr, ok := m.routes[id]
    if !ok || sr.UserID != userID { return ErrNotFound }
    delete(m.routes, id)
    ids := m.byUser[userID]
    for i, v := range ids {
        if v == id { m.byUser[userID] = append(ids[:i:i], ids[i+1:]...); break }
    }
    return nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }
