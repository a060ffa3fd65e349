package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/officemath/internal/api"
	"github.com/dgallion1/officemath/internal/config"
	"github.com/dgallion1/officemath/internal/convert"
	"github.com/dgallion1/officemath/internal/mathrender"
	"github.com/dgallion1/officemath/internal/pipeline"
	"go.uber.org/automaxprocs/maxprocs"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
		log.Debug("maxprocs", "msg", format, "args", args)
	})); err != nil {
		log.Warn("failed to set GOMAXPROCS", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Math rendering. Without a remote service, Office HTML keeps the TeX
	// annotation only.
	stats := mathrender.NewStats(cfg.MathStatsWindow)
	opts := []convert.Option{
		convert.WithConcurrency(cfg.MathConcurrency),
		convert.WithStats(stats),
		convert.WithLogger(log),
	}
	var remote *mathrender.HTTPRenderer
	if cfg.MathRenderURL != "" {
		remote = mathrender.NewHTTPRenderer(cfg.MathRenderURL, cfg.MathRenderAPIKey,
			mathrender.WithRetry(uint(cfg.MathRenderAttempts), cfg.MathRenderDelay))
		opts = append(opts, convert.WithMathMLRenderer(remote))
	}
	conv := convert.New(opts...)

	orch := pipeline.NewOrchestrator(cfg, conv, log)
	orch.Start(ctx)

	srv := api.NewServer(orch, conv, stats, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		// Stop taking uploads before the queue closes.
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()

		if remote != nil {
			remote.Close()
		}
	}()

	log.Info("starting officemath", "port", cfg.Port, "math_renderer", cfg.MathRenderURL, "workers", cfg.WorkerCount)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-done
	log.Info("stopped")
}
