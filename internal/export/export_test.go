package export

import (
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jusunglee/mta-ridership/internal/feed"
	"github.com/jusunglee/mta-ridership/internal/models"
	"github.com/jusunglee/mta-ridership/pkg/ridership"
)

func newClient(t *testing.T) *ridership.LocalClient {
	t.Helper()
	config := ridership.DefaultConfig()
	config.PlaybackInterval = time.Hour
	c, err := ridership.NewLocalFromSamples(feed.CreateMockSamples(), config)
	if err != nil {
		t.Fatalf("NewLocalFromSamples: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	summary, err := Run(context.Background(), newClient(t), Options{
		Dir:        dir,
		Extent:     models.CanvasExtent{Width: 200, Height: 150},
		Workers:    2,
		Histograms: true,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Frames != 2 || summary.Histograms != 2 {
		t.Errorf("unexpected summary %+v", summary)
	}

	f, err := os.Open(filepath.Join(dir, "2024-10-01_23.png"))
	if err != nil {
		t.Fatalf("open frame: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 150 {
		t.Errorf("unexpected frame size %v", b)
	}

	if _, err := os.Stat(filepath.Join(dir, "2024-10-01_08.svg")); err != nil {
		t.Errorf("expected histogram svg: %v", err)
	}
}

func TestRunInvalidExtent(t *testing.T) {
	if _, err := Run(context.Background(), newClient(t), Options{Dir: t.TempDir()}); err == nil {
		t.Error("expected error for empty extent")
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, newClient(t), Options{
		Dir:    t.TempDir(),
		Extent: models.CanvasExtent{Width: 50, Height: 50},
	})
	if err == nil {
		t.Error("expected error for canceled context")
	}
}

func TestFrameName(t *testing.T) {
	got := FrameName(models.NewTimeState("10/01/2024", "7"), "png")
	if got != "10-01-2024_07.png" {
		t.Errorf("unexpected name %q", got)
	}
}
