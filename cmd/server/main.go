package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/AngelCh415/voyager-portal/internal/actions"
	"github.com/AngelCh415/voyager-portal/internal/backend"
	"github.com/AngelCh415/voyager-portal/internal/config"
	"github.com/AngelCh415/voyager-portal/internal/httpx"
	"github.com/AngelCh415/voyager-portal/internal/ingest"
	"github.com/AngelCh415/voyager-portal/internal/telemetry"

	"github.com/AngelCh415/voyager-portal/internal/metrics"
	"github.com/AngelCh415/voyager-portal/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", slog.String("err", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	m := telemetry.New()
	cl := ingest.NewHTTPClient(cfg.HTTPTimeout)
	st := store.NewMemoryStore()
	loader := ingest.NewLoader(cl, st, logger, cfg, m)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPTimeout)
	if _, err := loader.Load(ctx); err != nil {
		// serve the bundled payload rather than an empty dashboard
		if p, embErr := ingest.Embedded(); embErr == nil {
			st.SetPayload(ingest.Normalize(p), ingest.SourceEmbedded, time.Now())
		}
	}
	cancel()

	svc := httpx.Services{
		Config:  cfg,
		Store:   st,
		Views:   metrics.NewService(st, metrics.DefaultSegments),
		Loader:  loader,
		Metrics: m,
		Flash:   actions.NewFlash(actions.FlashTTL),
	}
	if cfg.BackendURL != "" {
		bc := backend.NewClient(cfg.BackendURL, cl, logger, m)
		svc.Notifier = bc
		svc.Overview = bc.Overview
	} else {
		logger.Warn("BACKEND_URL not set, using local approval queue")
		backend.SeedPending(st)
		svc.Notifier = backend.NewLocal(st, logger)
	}

	r := httpx.NewRouter(logger, svc)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting server", slog.String("port", cfg.Port), slog.String("payload", loader.Source()))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", slog.String("err", err.Error()))
		os.Exit(1)
	}
}
