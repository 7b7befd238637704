package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"riskgate/internal/auth/handler"
	"riskgate/internal/auth/session"
	"riskgate/internal/auth/store/user"
	"riskgate/internal/bindings"
	"riskgate/internal/platform/config"
	"riskgate/internal/platform/health"
	"riskgate/internal/platform/logger"
	"riskgate/internal/platform/middleware"
	"riskgate/internal/policy"
	"riskgate/internal/scoring"
	"riskgate/internal/scoring/metrics"
	"riskgate/internal/scoring/scoringhttp"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// The risk pipeline lives in internal packages; the handlers here are the
// reference app the pipeline protects.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing riskgate",
		"addr", cfg.Addr,
		"monitoring_mode", cfg.MonitoringMode,
	)

	m := metrics.New()
	client := scoringhttp.NewClient(cfg.ScoringAPIURL, cfg.ScoringAPISecret,
		scoringhttp.WithLogger(log),
		scoringhttp.WithCircuitBreaker(cfg.BreakerFailureThreshold, cfg.BreakerCooldown),
	)
	gateway := scoring.New(client,
		scoring.WithLogger(log),
		scoring.WithMetrics(m),
	)
	enforcer := policy.New(cfg.MonitoringMode,
		policy.WithLogger(log),
		policy.WithMetrics(m),
	)

	sessions := session.NewManager(cfg.SessionSigningKey, session.WithTTL(cfg.SessionTTL))
	riskBindings := bindings.New(gateway, enforcer,
		bindings.HookConfig{"user": bindings.AllEnabled()},
		bindings.WithTerminator(sessions),
		bindings.WithLogger(log),
	)

	users := user.NewMemoryStore()

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))
	router.Use(middleware.RiskEvaluation)
	handler.New(users, sessions, riskBindings, "user", log).Register(router)

	healthHandler := health.New()
	healthHandler.RegisterCheck("scoring_api", client.Ready)
	healthHandler.Register(router)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info("starting metrics server", "addr", cfg.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		log.Info("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		return metricsSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
