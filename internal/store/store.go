package store

import (
    "context"
    "errors"

    "vorp/internal/model"
)

// Store is the persistence interface for saved location lists.
type Store interface {
    // SaveRoute inserts {user_id, name, data: {locations}} and returns the stored row.
    SaveRoute(ctx context.Context, in model.SavedRouteIn) (model.SavedRoute, error)
    // ListSavedRoutes returns a user's saved routes, newest first.
    ListSavedRoutes(ctx context.Context, userID, cursor string, limit int) ([]model.SavedRoute, string, error)
    GetSavedRoute(ctx context.Context, userID, id string) (model.SavedRoute, error)
    DeleteSavedRoute(ctx context.Context, userID, id string) error
    Ping(ctx context.Context) error
}

var ErrNotFound = errors.New("not found")

var (
    // ErrInvalid wraps rejected inserts.
    ErrInvalid   = errors.New("invalid saved route")
    ErrBadCursor = errors.New("invalid cursor")
)

const (
    defaultLimit = 50
    maxLimit     = 200
)

func clampLimit(n int) int {
    if n <= 0 { return defaultLimit }
    if n > maxLimit { return maxLimit }
    return n
}

func validateIn(in model.SavedRouteIn) error {
    if in.UserID == "" { return errors.Join(ErrInvalid, errors.New("user_id is required")) }
    if in.Name == "" { return errors.Join(ErrInvalid, errors.New("name is required")) }
    return nil
}
