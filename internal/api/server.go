package api

import (
    "context"
    "log"
    "net/http"
    "strings"

    "vorp/internal/config"
    "vorp/internal/events"
    "vorp/internal/obs"
    "vorp/internal/session"
    "vorp/internal/solver"
    "vorp/internal/store"
)

type Server struct {
    Store    store.Store
    Broker   events.EventBroker
    Solver   *solver.Client
    Sessions *session.Registry
    Config   *config.Config
}

// NewServer wires backends from cfg. Without DATABASE_URL the in-memory store
// is used; without REDIS_URL map events stay in process.
func NewServer(cfg *config.Config) (*Server, error) {
    if cfg == nil { cfg = config.Default() }
    var s store.Store
    if strings.TrimSpace(cfg.DB.URL) == "" {
        s = store.NewMemory()
    } else {
        sp, err := store.NewPostgres(cfg.DB.URL)
        if err != nil {
            return nil, err
        }
        if cfg.DB.Migrate {
            if err := sp.EnsureSchema(context.Background()); err != nil {
                return nil, err
            }
        }
        s = sp
    }
    // Broker selection
    var broker events.EventBroker
    if cfg.Redis.URL != "" {
        if rb, err := events.NewRedisBroker(cfg.Redis.URL); err == nil {
            broker = rb
        } else {
            log.Printf("redis broker unavailable, using in-process broker: %v", err)
            broker = events.NewBroker()
        }
    } else {
        broker = events.NewBroker()
    }
    sc := solver.New(solver.Options{
        URL:     cfg.Solver.URL,
        Timeout: cfg.Solver.Timeout,
        RPS:     cfg.Solver.RPS,
        Burst:   cfg.Solver.Burst,
    })
    reg := session.NewRegistry(session.Deps{
        Solver:    sc,
        Store:     s,
        Publisher: broker,
        Palette:   cfg.Map.Palette,
        Padding:   cfg.Map.FitPadding,
    })
    return &Server{Store: s, Broker: broker, Solver: sc, Sessions: reg, Config: cfg}, nil
}

// withSession resolves the planning session from X-Session-Id and tags the
// request context with it.
func (s *Server) withSession(r *http.Request) (context.Context, *session.Session) {
    id := strings.TrimSpace(r.Header.Get("X-Session-Id"))
    if id == "" { id = r.URL.Query().Get("session") }
    sess := s.Sessions.Get(id)
    return obs.WithSession(r.Context(), sess.ID()), sess
}

// userID identifies the owner of saved routes. There is no authentication;
// the header is trusted.
func userID(r *http.Request) string {
    if u := strings.TrimSpace(r.Header.Get("X-User-Id")); u != "" { return u }
    return "u_demo"
}

func (s *Server) Close() error {
    return s.Broker.Close()
}
