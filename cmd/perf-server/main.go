// Command perf-server runs a small JSON API behind the response cache and
// exposes the performance metrics, health and Prometheus endpoints.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sternrassler/perfcache/pkg/config"
	"github.com/Sternrassler/perfcache/pkg/logging"
	"github.com/Sternrassler/perfcache/pkg/performance"
)

func main() {
	if err := run(); err != nil {
		logger := logging.NewLogger(logging.ComponentServer)
		logger.Error().Err(err).Msg("Server failed")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	base := logging.Setup(cfg.Logging())
	logger := logging.WithComponent(base, logging.ComponentServer)

	perfCfg := cfg.Performance()
	perfCfg.Logger = &base

	svc, err := performance.New(perfCfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc.Start(ctx)
	defer svc.Stop()

	server := &http.Server{
		Addr:         cfg.Server.ListenAddress,
		Handler:      newRouter(svc, cfg.Cache.DefaultTTL, cfg.Cache.UseDistributedTier),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", server.Addr).
			Bool("distributed", cfg.Cache.UseDistributedTier).
			Msg("Starting perf server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info().Msg("Server stopped")
	return nil
}
