package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jusunglee/mta-ridership/internal/config"
	"github.com/jusunglee/mta-ridership/internal/export"
	"github.com/jusunglee/mta-ridership/internal/logging"
	"github.com/jusunglee/mta-ridership/internal/models"
	"github.com/jusunglee/mta-ridership/pkg/ridership"
)

const appName = "render"

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	var (
		source      = flag.String("data", cfg.DataSource, "Dataset file path or URL")
		out         = flag.String("out", "frames", "Output directory")
		width       = flag.Float64("width", cfg.CanvasWidth, "Frame width in pixels")
		height      = flag.Float64("height", cfg.CanvasHeight, "Frame height in pixels")
		workers     = flag.Int("workers", 0, "Concurrent renders (0 uses GOMAXPROCS)")
		histograms  = flag.Bool("histograms", true, "Also write one histogram SVG per step")
		autoCutoffs = flag.Bool("auto-cutoffs", false, "Derive encoder cutoffs from ridership percentiles")
	)
	flag.Parse()

	logger := logging.New(cfg, appName)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rc := ridership.DefaultConfig()
	rc.DataSource = *source
	rc.AutoCutoffs = *autoCutoffs
	rc.Logger = logger
	if cfg.LowerCutoff > 0 {
		rc.Policy.LowerCutoff = cfg.LowerCutoff
	}
	if cfg.UpperCutoff > 0 {
		rc.Policy.UpperCutoff = cfg.UpperCutoff
	}

	client, err := ridership.NewLocal(ctx, rc)
	if err != nil {
		logger.Error("failed to load dataset", "source", *source, "error", err)
		os.Exit(1)
	}
	defer client.Close()

	summary, err := export.Run(ctx, client, export.Options{
		Dir:        *out,
		Extent:     models.CanvasExtent{Width: *width, Height: *height},
		Workers:    *workers,
		Histograms: *histograms,
		Logger:     logger,
	})
	if err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %d frames and %d histograms to %s\n", summary.Frames, summary.Histograms, *out)
}
