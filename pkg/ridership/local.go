package ridership

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/golang/geo/r2"

	"github.com/jusunglee/mta-ridership/internal/chart"
	"github.com/jusunglee/mta-ridership/internal/encode"
	"github.com/jusunglee/mta-ridership/internal/feed"
	"github.com/jusunglee/mta-ridership/internal/geo"
	"github.com/jusunglee/mta-ridership/internal/histogram"
	"github.com/jusunglee/mta-ridership/internal/models"
	"github.com/jusunglee/mta-ridership/internal/playback"
	"github.com/jusunglee/mta-ridership/internal/render"
	"github.com/jusunglee/mta-ridership/internal/store"
)

// LocalClient implements the Client interface over an in-memory dataset
// Owns the playback loop and, when configured, a background reload loop
type LocalClient struct {
	config    Config
	logger    *slog.Logger
	store     *store.Store
	loader    *feed.Loader
	projector *geo.Projector
	player    *playback.Player

	mu       sync.RWMutex
	encoder  *encode.Encoder
	renderer *render.Renderer

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewLocal loads config.DataSource and starts playback
func NewLocal(ctx context.Context, config Config) (*LocalClient, error) {
	c, err := newLocal(config)
	if err != nil {
		return nil, err
	}
	if err := c.Reload(ctx); err != nil {
		return nil, err
	}
	c.start()
	return c, nil
}

// NewLocalFromSamples builds a client over samples already in memory
func NewLocalFromSamples(samples []models.StationSample, config Config) (*LocalClient, error) {
	c, err := newLocal(config)
	if err != nil {
		return nil, err
	}
	if err := c.replace(samples); err != nil {
		return nil, err
	}
	c.start()
	return c, nil
}

func newLocal(config Config) (*LocalClient, error) {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if err := config.Edges.Validate(); err != nil {
		return nil, fmt.Errorf("histogram edges: %w", err)
	}
	projector, err := geo.NewProjector(config.Bounds)
	if err != nil {
		return nil, fmt.Errorf("projector: %w", err)
	}
	encoder, err := encode.NewEncoder(config.Policy)
	if err != nil {
		return nil, fmt.Errorf("encoder: %w", err)
	}
	if config.PlaybackInterval <= 0 {
		config.PlaybackInterval = time.Second
	}

	c := &LocalClient{
		config:    config,
		logger:    config.Logger,
		store:     store.NewStore(),
		loader:    feed.NewLoader(config.Logger),
		projector: projector,
		stopCh:    make(chan struct{}),
	}
	c.setEncoder(encoder)
	c.player = playback.NewPlayer(c.store, config.PlaybackInterval, func(st playback.Status) {
		c.logger.Debug("playback moved", "time", st.Time.String(), "index", st.Index)
	}, config.Logger)
	return c, nil
}

func (c *LocalClient) start() {
	c.player.Start()
	if c.config.ReloadInterval > 0 && c.config.DataSource != "" {
		c.wg.Add(1)
		go c.reloadLoop()
	}
}

// Close gracefully shuts down the local client
// Must be called to stop background goroutines and prevent leaks
func (c *LocalClient) Close() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	c.wg.Wait()
	c.player.Stop()
}

func (c *LocalClient) reloadLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.ReloadInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), c.config.ReloadInterval)
			if err := c.Reload(ctx); err != nil {
				c.logger.Error("reload failed", "source", c.config.DataSource, "error", err)
			}
			cancel()
		case <-c.stopCh:
			return
		}
	}
}

// Reload reads the data source again and swaps the dataset in
func (c *LocalClient) Reload(ctx context.Context) error {
	samples, _, err := c.loader.Load(ctx, c.config.DataSource)
	if err != nil {
		return err
	}
	return c.replace(samples)
}

// replace swaps in samples. With auto cutoffs the encoder is derived
// first, so a dataset it cannot handle never goes live.
func (c *LocalClient) replace(samples []models.StationSample) error {
	var encoder *encode.Encoder
	if c.config.AutoCutoffs {
		values := make([]float64, len(samples))
		for i, s := range samples {
			values[i] = s.Ridership
		}
		lo, hi, err := encode.CutoffsFromSample(values, c.config.LowerQuantile, c.config.UpperQuantile)
		if err != nil {
			return fmt.Errorf("auto cutoffs: %w", err)
		}
		policy := c.config.Policy
		policy.LowerCutoff, policy.UpperCutoff = lo, hi
		if encoder, err = encode.NewEncoder(policy); err != nil {
			return fmt.Errorf("auto cutoffs: %w", err)
		}
		c.logger.Info("cutoffs derived from data", "lower", lo, "upper", hi)
	}

	c.store.Replace(samples)
	if encoder != nil {
		c.setEncoder(encoder)
	}

	outside := 0
	box := c.projector.Bounds()
	for _, s := range samples {
		if !box.Contains(s.Location()) {
			outside++
		}
	}
	if outside > 0 {
		c.logger.Warn("samples outside the map bounds", "count", outside)
	}
	return nil
}

func (c *LocalClient) setEncoder(e *encode.Encoder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.encoder = e
	c.renderer = render.NewRenderer(c.store, c.projector, e, render.LabelTooltip{})
}

func (c *LocalClient) current() (*encode.Encoder, *render.Renderer) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.encoder, c.renderer
}

func (c *LocalClient) checkTime(t models.TimeState) error {
	_, err := c.store.Index(t)
	return err
}

func (c *LocalClient) Timeline() ([]models.TimeState, error) {
	return c.store.Timeline(), nil
}

func (c *LocalClient) Frame(t models.TimeState, extent models.CanvasExtent) ([]models.EncodedStation, error) {
	if err := c.checkTime(t); err != nil {
		return nil, err
	}
	if !extent.Valid() {
		return nil, fmt.Errorf("invalid canvas extent %vx%v", extent.Width, extent.Height)
	}
	_, r := c.current()
	return r.Frame(t, extent), nil
}

func (c *LocalClient) RenderPNG(w io.Writer, st render.State) (render.Result, error) {
	if err := c.checkTime(st.Time); err != nil {
		return render.Result{}, err
	}
	_, r := c.current()
	return r.RenderPNG(w, st)
}

func (c *LocalClient) Hover(t models.TimeState, extent models.CanvasExtent, p r2.Point) (models.EncodedStation, error) {
	frame, err := c.Frame(t, extent)
	if err != nil {
		return models.EncodedStation{}, err
	}
	_, r := c.current()
	return r.HitTest(frame, p)
}

func (c *LocalClient) Histogram(t models.TimeState) (histogram.Comparison, error) {
	if err := c.checkTime(t); err != nil {
		return histogram.Comparison{}, err
	}
	return histogram.Compare(c.store.Ridership(), c.store.RidershipAt(t), c.config.Edges), nil
}

func (c *LocalClient) HistogramSVG(w io.Writer, t models.TimeState, width, height int) error {
	cmp, err := c.Histogram(t)
	if err != nil {
		return err
	}
	// Render fully before writing so a failure leaves w untouched.
	var buf bytes.Buffer
	if err := chart.WriteComparison(&buf, t.String(), cmp, width, height); err != nil {
		return err
	}
	_, err = buf.WriteTo(w)
	return err
}

func (c *LocalClient) Legend() (Legend, error) {
	e, _ := c.current()
	return Legend{
		Entries:    e.Legend(c.config.Edges),
		Thresholds: e.Thresholds(),
	}, nil
}

func (c *LocalClient) Nearest(lat, lon float64, t models.TimeState, limit int) ([]models.StationSample, error) {
	if err := c.checkTime(t); err != nil {
		return nil, err
	}
	return c.store.Nearest(lat, lon, t, limit), nil
}

func (c *LocalClient) Playback() (playback.Status, error) {
	return c.player.Status()
}

func (c *LocalClient) TogglePlayback() (playback.Status, error) {
	c.player.Toggle()
	return c.player.Status()
}

func (c *LocalClient) StepPlayback(delta int) (playback.Status, error) {
	return c.player.Step(delta)
}

func (c *LocalClient) GetLastUpdate() time.Time {
	return c.store.GetLastUpdate()
}
