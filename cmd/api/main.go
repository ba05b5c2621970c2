package main

import (
    "context"
    "errors"
    "log"
    "net/http"
    "os/signal"
    "syscall"
    "time"

    "vorp/internal/api"
    "vorp/internal/config"
)

func main() {
    cfg, err := config.Load()
    if err != nil {
        log.Fatalf("failed to load config: %v", err)
    }
    srvDeps, err := api.NewServer(cfg)
    if err != nil {
        log.Fatalf("failed to init server: %v", err)
    }
    defer func() { _ = srvDeps.Close() }()

    addr := ":" + cfg.Port
    srv := &http.Server{
        Addr:              addr,
        Handler:           srvDeps.Routes(),
        ReadHeaderTimeout: 5 * time.Second,
    }

    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()
    go func() {
        <-ctx.Done()
        shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
        defer cancel()
        _ = srv.Shutdown(shutdownCtx)
    }()

    log.Printf("API listening on %s (solver %s)", addr, srvDeps.Solver.URL())
    if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
        log.Fatalf("server error: %v", err)
    }
}
