//go:build postgres_integration

package store

import (
    "errors"
    "os"
    "testing"

    "vorp/internal/model"
)

func TestPostgresSavedRoutes(t *testing.T) {
    dsn := os.Getenv("DATABASE_URL")
    if dsn == "" { t.Skip("DATABASE_URL not set; skipping integration test") }
    p, err := NewPostgres(dsn)
    if err != nil { t.Fatalf("NewPostgres: %v", err) }
    defer p.Close()
    ctx := t.Context()
    if err := p.Ping(ctx); err != nil { t.Fatalf("Ping: %v", err) }
    if err := p.EnsureSchema(ctx); err != nil { t.Fatalf("EnsureSchema: %v", err) }

    user := "u_it_" + t.Name()
    in := model.SavedRouteIn{UserID: user, Name: "morning", Data: model.SavedRouteData{Locations: []model.Location{{Latitude: 12.9, Longitude: 80.1, Demand: 3}}}}
    sr, err := p.SaveRoute(ctx, in)
    if err != nil { t.Fatalf("SaveRoute: %v", err) }
    defer p.DeleteSavedRoute(ctx, user, sr.ID)

    got, err := p.GetSavedRoute(ctx, user, sr.ID)
    if err != nil { t.Fatalf("GetSavedRoute: %v", err) }
    if got.Name != "morning" || len(got.Data.Locations) != 1 || got.Data.Locations[0].Demand != 3 { t.Fatalf("got %+v", got) }

    if _, err := p.GetSavedRoute(ctx, "someone_else", sr.ID); !errors.Is(err, ErrNotFound) { t.Fatalf("other user: %v", err) }
    items, _, err := p.ListSavedRoutes(ctx, user, "", 10)
    if err != nil || len(items) != 1 { t.Fatalf("ListSavedRoutes: %v %d", err, len(items)) }
}
