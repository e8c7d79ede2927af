package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/p-n-ai/medstudy/internal/httpapi"
	"github.com/p-n-ai/medstudy/internal/platform/config"
	"github.com/p-n-ai/medstudy/internal/platform/logging"
	"github.com/p-n-ai/medstudy/internal/tracker"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := logging.New(cfg.Log); err != nil {
		return fmt.Errorf("configuring logging: %w", err)
	}

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	handler, cleanup, err := build(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		// Cancelling ctx also ends hijacked feed connections, which Shutdown
		// does not track.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	return serve(ctx, srv)
}

// build opens storage and assembles the HTTP handler.
func build(ctx context.Context, cfg *config.Config) (http.Handler, func(), error) {
	d, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	defaults, err := seedDefaults(cfg)
	if err != nil {
		d.close()
		return nil, nil, err
	}

	tr, err := tracker.New(ctx, tracker.Config{
		Backend:  d.backend,
		Defaults: defaults,
		Events:   d.events,
	})
	if err != nil {
		d.close()
		return nil, nil, fmt.Errorf("starting tracker: %w", err)
	}

	handler := httpapi.NewHandler(httpapi.Config{
		Tracker: tr,
		Mentor:  newMentor(cfg, d.cache),
	})
	return handler, d.close, nil
}

// serve runs srv until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, srv *http.Server) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}
