package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"pastmatters/internal/platform/config"
	"pastmatters/internal/platform/httpserver"
	"pastmatters/internal/platform/logger"
	platformmetrics "pastmatters/internal/platform/metrics"
	"pastmatters/internal/verification/dispatcher"
	"pastmatters/internal/verification/handler"
	"pastmatters/internal/verification/metrics"
	"pastmatters/internal/verification/orchestrator"
	"pastmatters/internal/verification/risk"
	"pastmatters/internal/verification/service"
	"pastmatters/internal/verification/uploads"
	"pastmatters/pkg/platform/httputil"
	"pastmatters/pkg/platform/middleware/request"
	"pastmatters/pkg/platform/middleware/requesttime"
)

// main wires dependencies, serves the API and drains in-flight jobs on
// shutdown. Business logic lives in internal/verification.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "past-matters: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	infra, err := buildInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer infra.Close(context.WithoutCancel(ctx))

	catalog := risk.DefaultCatalog()
	if cfg.Evidence.CatalogPath != "" {
		if catalog, err = risk.LoadCatalog(cfg.Evidence.CatalogPath); err != nil {
			return err
		}
	}

	photos, err := uploads.NewDirStore(cfg.Upload.Dir, cfg.Upload.MaxBytes)
	if err != nil {
		return fmt.Errorf("prepare upload dir: %w", err)
	}

	jobMetrics := metrics.New()
	orchOpts := []orchestrator.Option{
		orchestrator.WithLogger(log),
		orchestrator.WithMetrics(jobMetrics),
		orchestrator.WithScorer(risk.NewScorer(catalog)),
		orchestrator.WithPublisher(infra.publisher),
	}
	if photoClient := buildPhotoClient(cfg.Evidence, photos, log); photoClient != nil {
		orchOpts = append(orchOpts, orchestrator.WithPhotoServices(photoClient, photoClient))
	}
	orch := orchestrator.New(infra.store, buildCollectors(cfg.Evidence, infra.redis, log), orchOpts...)

	pool := dispatcher.New(orch, dispatcher.Config{
		Concurrency: cfg.Worker.Concurrency,
		QueueSize:   cfg.Worker.QueueSize,
	}, dispatcher.WithLogger(log), dispatcher.WithMetrics(jobMetrics))

	svc := service.New(infra.store, pool, service.WithLogger(log))
	api := handler.New(svc, photos, log)

	httpMetrics := platformmetrics.New()
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recover(log))
	r.Use(request.Logger(log))
	r.Use(requesttime.Middleware)
	r.Use(httpMetrics.Middleware)
	r.Get("/health", infra.health)
	r.Handle("/metrics", platformmetrics.Handler())
	api.Register(r)

	srv := httpserver.New(cfg.Addr, r)
	serveErr := make(chan error, 1)
	go func() {
		log.InfoContext(ctx, "starting past-matters", "addr", cfg.Addr, "job_store", cfg.JobStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "error", err)
	}
	if err := pool.Shutdown(shutdownCtx); err != nil {
		log.Error("jobs still running at shutdown deadline", "error", err)
	}
	return nil
}

func (i *infra) health(w http.ResponseWriter, r *http.Request) {
	if i.redis != nil {
		if err := i.redis.Health(r.Context()); err != nil {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "redis": err.Error()})
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
