package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/jusunglee/mta-ridership/api/handlers"
	"github.com/jusunglee/mta-ridership/internal/config"
	"github.com/jusunglee/mta-ridership/internal/logging"
	"github.com/jusunglee/mta-ridership/internal/models"
	"github.com/jusunglee/mta-ridership/pkg/ridership"
)

const appName = "server"

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	var (
		addr           = flag.String("addr", cfg.HTTPAddr, "Listen address")
		source         = flag.String("data", cfg.DataSource, "Dataset file path or URL")
		reloadInterval = flag.Duration("reload-interval", 0, "Dataset reload interval (0 disables)")
		autoCutoffs    = flag.Bool("auto-cutoffs", false, "Derive encoder cutoffs from ridership percentiles")
		play           = flag.Bool("play", false, "Start with playback running")
	)
	flag.Parse()

	logger := logging.New(cfg, appName)
	slog.SetDefault(logger)

	rc := ridership.DefaultConfig()
	rc.DataSource = *source
	rc.ReloadInterval = *reloadInterval
	rc.AutoCutoffs = *autoCutoffs
	rc.PlaybackInterval = cfg.PlaybackInterval
	rc.Logger = logger
	if cfg.LowerCutoff > 0 {
		rc.Policy.LowerCutoff = cfg.LowerCutoff
	}
	if cfg.UpperCutoff > 0 {
		rc.Policy.UpperCutoff = cfg.UpperCutoff
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	client, err := ridership.NewLocal(ctx, rc)
	cancel()
	if err != nil {
		logger.Error("failed to create ridership client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	if *play {
		client.TogglePlayback()
	}

	r := mux.NewRouter()
	h := handlers.NewHandler(client, models.CanvasExtent{Width: cfg.CanvasWidth, Height: cfg.CanvasHeight})
	h.RegisterRoutes(r)
	r.Use(handlers.LoggingMiddleware(logger))

	srv := &http.Server{
		Addr:         *addr,
		Handler:      handlers.CORS(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", *addr, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
}
