package store

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "fmt"
    "time"

    "github.com/google/uuid"
    _ "github.com/jackc/pgx/v5/stdlib"

    "vorp/internal/model"
)

type Postgres struct {
    db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
    db, err := sql.Open("pgx", dsn)
    if err != nil {
        return nil, err
    }
    if err := db.Ping(); err != nil {
        _ = db.Close()
        return nil, err
    }
    return &Postgres{db: db}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS saved_routes (
    id         uuid PRIMARY KEY,
    user_id    text NOT NULL,
    name       text NOT NULL,
    data       jsonb NOT NULL,
    created_at timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS saved_routes_user_created ON saved_routes (user_id, created_at DESC, id DESC);
`

// EnsureSchema creates the saved_routes table if it does not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
    if _, err := p.db.ExecContext(ctx, schema); err != nil {
        return fmt.Errorf("ensure schema: %w", err)
    }
    return nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *Postgres) Close() error { return p.db.Close() }

func (p *Postgres) SaveRoute(ctx context.Context, in model.SavedRouteIn) (model.SavedRoute, error) {
    if err := validateIn(in); err != nil { return model.SavedRoute{}, err }
    data, err := encodeData(in.Data)
    if err != nil { return model.SavedRoute{}, err }
    id := uuid.New()
    var created time.Time
    err = p.db.QueryRowContext(ctx,
        `INSERT INTO saved_routes (id, user_id, name, data) VALUES ($1,$2,$3,$4) RETURNING created_at`,
        id, in.UserID, in.Name, data).Scan(&created)
    if err != nil { return model.SavedRoute{}, fmt.Errorf("insert saved route: %w", err) }
    return model.SavedRoute{
        ID:        id.String(),
        UserID:    in.UserID,
        Name:      in.Name,
        Data:      in.Data,
        CreatedAt: created.UTC().Format(time.RFC3339Nano),
    }, nil
}

// ListSavedRoutes pages newest first; the cursor is the id of the last row seen.
func (p *Postgres) ListSavedRoutes(ctx context.Context, userID, cursor string, limit int) ([]model.SavedRoute, string, error) {
    limit = clampLimit(limit)
    var (
        rows *sql.Rows
        err  error
    )
    if cursor != "" {
        if _, perr := uuid.Parse(cursor); perr != nil {
            return nil, "", fmt.Errorf("%w: %q", ErrBadCursor, cursor)
        }
        rows, err = p.db.QueryContext(ctx, `SELECT id::text, user_id, name, data, created_at FROM saved_routes
            WHERE user_id=$1 AND (created_at, id) < (SELECT created_at, id FROM saved_routes WHERE id=$2)
            ORDER BY created_at DESC, id DESC LIMIT $3`, userID, cursor, limit+1)
    } else {
        rows, err = p.db.QueryContext(ctx, `SELECT id::text, user_id, name, data, created_at FROM saved_routes
            WHERE user_id=$1 ORDER BY created_at DESC, id DESC LIMIT $2`, userID, limit+1)
    }
    if err != nil { return nil, "", err }
    defer rows.Close()
    out := make([]model.SavedRoute, 0, limit)
    for rows.Next() {
        sr, err := scanSavedRoute(rows)
        if err != nil { return nil, "", err }
        out = append(out, sr)
    }
    if err := rows.Err(); err != nil { return nil, "", err }
    next := ""
    if len(out) > limit {
        out = out[:limit]
        next = out[limit-1].ID
    }
    return out, next, nil
}

func (p *Postgres) GetSavedRoute(ctx context.Context, userID, id string) (model.SavedRoute, error) {
    if _, err := uuid.Parse(id); err != nil { return model.SavedRoute{}, ErrNotFound }
    row := p.db.QueryRowContext(ctx, `SELECT id::text, user_id, name, data, created_at FROM saved_routes WHERE id=$1 AND user_id=$2`, id, userID)
    sr, err := scanSavedRoute(row)
    if errors.Is(err, sql.ErrNoRows) { return model.SavedRoute{}, ErrNotFound }
    return sr, err
}

func (p *Postgres) DeleteSavedRoute(ctx context.Context, userID, id string) error {
    if _, err := uuid.Parse(id); err != nil { return ErrNotFound }
    res, err := p.db.ExecContext(ctx, `DELETE FROM saved_routes WHERE id=$1 AND user_id=$2`, id, userID)
    if err != nil { return err }
    if n, _ := res.RowsAffected(); n == 0 { return ErrNotFound }
    return nil
}

type rowScanner interface {
    Scan(dest ...any) error
}

func scanSavedRoute(r rowScanner) (model.SavedRoute, error) {
    var (
        sr      model.SavedRoute
        raw     []byte
        created time.Time
    )
    if err := r.Scan(&sr.ID, &sr.UserID, &sr.Name, &raw, &created); err != nil {
        return model.SavedRoute{}, err
    }
    data, err := decodeData(raw)
    if err != nil { return model.SavedRoute{}, fmt.Errorf("saved route %s: %w", sr.ID, err) }
    sr.Data = data
    sr.CreatedAt = created.UTC().Format(time.RFC3339Nano)
    return sr, nil
}

func encodeData(d model.SavedRouteData) ([]byte, error) {
    if d.Locations == nil { d.Locations = []model.Location{} }
    b, err := json.Marshal(d)
    if err != nil { return nil, fmt.Errorf("encode data: %w", err) }
    return b, nil
}

// decodeData reads the jsonb column. Older rows store demand as "capacity";
// model.Location handles both.
func decodeData(raw []byte) (model.SavedRouteData, error) {
    var d model.SavedRouteData
    if len(raw) == 0 { return d, nil }
    if err := json.Unmarshal(raw, &d); err != nil { return d, fmt.Errorf("decode data: %w", err) }
    return d, nil
}
