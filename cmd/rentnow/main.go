package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"rentnow/internal/app/engine"
	"rentnow/internal/app/schedule"
	domainbooking "rentnow/internal/domain/booking"
	"rentnow/internal/infra/config"
	"rentnow/internal/infra/fixtures"
	ginserver "rentnow/internal/infra/http/gin"
	"rentnow/internal/infra/obs"
	"rentnow/internal/infra/validation"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "rentnow:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := obs.NewLogger(cfg.Env, cfg.LogLevel)
	metrics := obs.NewMetrics()

	be, err := openBackend(ctx, cfg, logger, metrics)
	if err != nil {
		return err
	}
	defer be.close(logger)

	validator, err := validation.New()
	if err != nil {
		return err
	}
	eng, err := engine.Build(engine.Deps{
		UoWFactory:  be.factory,
		OutboxSink:  be.sink,
		Idempotency: be.idempotency,
		Validator:   validator,
		Metrics:     metrics,
		Logger:      logger,
		Settings: engine.Settings{
			SymmetricPrepBuffer: cfg.SymmetricPrepBuffer,
			Windows: domainbooking.Windows{
				HostResponse: cfg.HostResponseWindow,
				Payment:      cfg.PaymentWindow,
			},
			ReturnPollMaxWait: cfg.ReturnPollMaxWait,
		},
		NewID: uuid.NewString,
		Now:   time.Now,
	})
	if err != nil {
		return err
	}
	logger.Info("engine ready", "storage", cfg.Storage, "commands", eng.CommandKeys, "queries", eng.QueryKeys)

	if cfg.PropertyFixtures != "" {
		if _, err := fixtures.LoadProperties(ctx, cfg.PropertyFixtures, be.putProperty, logger, time.Now()); err != nil {
			return err
		}
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{Ready: be.ready}, ginserver.Handlers{
		Properties: ginserver.PropertyHandler{Commands: eng.Commands, Queries: eng.Queries, Logger: logger},
		Bookings:   ginserver.BookingHandler{Commands: eng.Commands, Queries: eng.Queries, Logger: logger},
		Payments:   ginserver.PaymentWebhookHandler{Commands: eng.Commands, Secret: cfg.PaymentWebhookSecret, Logger: logger},
		Metrics:    metrics,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server starting", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
		logger.Info("HTTP server stopped")
		return nil
	})
	sweeper := &schedule.Sweeper{Bus: eng.Commands, Interval: cfg.SweepInterval, BatchSize: cfg.SweepBatchSize, Logger: logger}
	g.Go(func() error { return ignoreCanceled(sweeper.Run(gctx)) })
	for _, w := range be.workers(eng) {
		g.Go(func() error { return ignoreCanceled(w(gctx)) })
	}
	return g.Wait()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
