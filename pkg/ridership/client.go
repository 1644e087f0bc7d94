// Package ridership is the public entry point to the ridership map: frames,
// histograms, hover lookup and playback over one loaded dataset.
package ridership

import (
	"io"
	"log/slog"
	"time"

	"github.com/golang/geo/r2"

	"github.com/jusunglee/mta-ridership/internal/encode"
	"github.com/jusunglee/mta-ridership/internal/geo"
	"github.com/jusunglee/mta-ridership/internal/histogram"
	"github.com/jusunglee/mta-ridership/internal/models"
	"github.com/jusunglee/mta-ridership/internal/playback"
	"github.com/jusunglee/mta-ridership/internal/render"
)

// Client defines the interface for reading and drawing the dataset
// Abstracts the data source behind a common interface for handlers and CLIs
type Client interface {
	Timeline() ([]models.TimeState, error)

	Frame(t models.TimeState, extent models.CanvasExtent) ([]models.EncodedStation, error)
	RenderPNG(w io.Writer, st render.State) (render.Result, error)
	Hover(t models.TimeState, extent models.CanvasExtent, p r2.Point) (models.EncodedStation, error)

	Histogram(t models.TimeState) (histogram.Comparison, error)
	HistogramSVG(w io.Writer, t models.TimeState, width, height int) error
	Legend() (Legend, error)

	Nearest(lat, lon float64, t models.TimeState, limit int) ([]models.StationSample, error)

	Playback() (playback.Status, error)
	TogglePlayback() (playback.Status, error)
	StepPlayback(delta int) (playback.Status, error)

	GetLastUpdate() time.Time
}

// Legend describes the histogram buckets and the cutoff lines
type Legend struct {
	Entries    []encode.LegendEntry `json:"entries"`
	Thresholds []float64            `json:"thresholds"`
}

// Config holds configuration for the local client
type Config struct {
	// DataSource is a dataset file path or http(s) URL.
	DataSource string

	Bounds geo.BoundingBox
	Policy encode.Policy
	Edges  histogram.Edges

	// AutoCutoffs replaces the policy cutoffs with percentiles of the
	// loaded ridership.
	AutoCutoffs    bool
	LowerQuantile  float64
	UpperQuantile  float64
	ReloadInterval time.Duration

	PlaybackInterval time.Duration

	Logger *slog.Logger
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		DataSource:       "data/ridership.json",
		Bounds:           geo.NYC,
		Policy:           encode.DefaultPolicy(),
		Edges:            histogram.LogBins,
		LowerQuantile:    0.25,
		UpperQuantile:    0.99,
		PlaybackInterval: time.Second,
	}
}
