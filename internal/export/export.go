// Package export writes every timeline frame and its histogram to disk.
package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jusunglee/mta-ridership/internal/models"
	"github.com/jusunglee/mta-ridership/internal/render"
	"github.com/jusunglee/mta-ridership/pkg/ridership"
)

// Options controls an export run
type Options struct {
	Dir    string
	Extent models.CanvasExtent
	// Workers bounds concurrent renders. Zero uses GOMAXPROCS.
	Workers int
	// Histograms also writes one SVG per step.
	Histograms      bool
	HistogramWidth  int
	HistogramHeight int
	Logger          *slog.Logger
}

// Summary reports what an export wrote
type Summary struct {
	Frames     int
	Histograms int
}

// FrameName is the file name for the frame at t
func FrameName(t models.TimeState, ext string) string {
	day := strings.ReplaceAll(t.Day, "/", "-")
	return fmt.Sprintf("%s_%s.%s", day, t.Hour, ext)
}

// Run renders the whole timeline of client into opts.Dir
func Run(ctx context.Context, client ridership.Client, opts Options) (Summary, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(-1)
	}
	if opts.HistogramWidth <= 0 {
		opts.HistogramWidth = 720
	}
	if opts.HistogramHeight <= 0 {
		opts.HistogramHeight = 480
	}
	if !opts.Extent.Valid() {
		return Summary{}, fmt.Errorf("invalid canvas extent %vx%v", opts.Extent.Width, opts.Extent.Height)
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return Summary{}, err
	}

	timeline, err := client.Timeline()
	if err != nil {
		return Summary{}, err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for _, t := range timeline {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return exportStep(client, t, opts)
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	summary := Summary{Frames: len(timeline)}
	if opts.Histograms {
		summary.Histograms = len(timeline)
	}
	opts.Logger.Info("export finished", "dir", opts.Dir, "frames", summary.Frames, "histograms", summary.Histograms)
	return summary, nil
}

func exportStep(client ridership.Client, t models.TimeState, opts Options) error {
	var buf bytes.Buffer
	if _, err := client.RenderPNG(&buf, render.State{Time: t, Extent: opts.Extent}); err != nil {
		return fmt.Errorf("render %s: %w", t, err)
	}
	path := filepath.Join(opts.Dir, FrameName(t, "png"))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return err
	}
	opts.Logger.Debug("frame written", "path", path)

	if !opts.Histograms {
		return nil
	}
	buf.Reset()
	if err := client.HistogramSVG(&buf, t, opts.HistogramWidth, opts.HistogramHeight); err != nil {
		return fmt.Errorf("histogram %s: %w", t, err)
	}
	return os.WriteFile(filepath.Join(opts.Dir, FrameName(t, "svg")), buf.Bytes(), 0o644)
}
