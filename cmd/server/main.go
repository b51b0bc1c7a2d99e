package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AngelCh415/ockno-signals/internal/config"
	"github.com/AngelCh415/ockno-signals/internal/httpx"
	"github.com/AngelCh415/ockno-signals/internal/ingest"
	"github.com/AngelCh415/ockno-signals/internal/metrics"
	"github.com/AngelCh415/ockno-signals/internal/store"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("config error", slog.String("err", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	st := store.NewMemoryStore(store.NewIDGenerator(cfg.IDMode))
	for _, name := range cfg.SeedClients {
		c, err := st.AddClient(name)
		if err != nil {
			logger.Warn("skipping seed client", slog.String("name", name), slog.String("err", err.Error()))
			continue
		}
		logger.Info("seeded client", slog.String("client_id", c.ID), slog.String("name", c.Name))
	}

	cl := ingest.NewHTTPClient(cfg.HTTPTimeout)
	syncer := ingest.NewSyncer(cl, st, logger, cfg)
	views := metrics.NewService(st)
	rec := metrics.NewRecorder()

	r := httpx.NewRouter(logger, st, syncer, views, rec)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", slog.String("err", err.Error()))
		}
	}()

	logger.Info("starting server", slog.String("port", cfg.Port), slog.String("id_mode", cfg.IDMode))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", slog.String("err", err.Error()))
		os.Exit(1)
	}
}
