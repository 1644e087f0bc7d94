package render

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/golang/geo/r2"

	"github.com/jusunglee/mta-ridership/internal/encode"
	"github.com/jusunglee/mta-ridership/internal/geo"
	"github.com/jusunglee/mta-ridership/internal/models"
)

// ErrNoStation is returned when a hover point is not over any marker
var ErrNoStation = errors.New("no station at point")

// Dataset supplies the samples for one timeline step
type Dataset interface {
	Samples(t models.TimeState) []models.StationSample
}

// State is everything a single redraw depends on
type State struct {
	Time   models.TimeState
	Extent models.CanvasExtent
	// Hover is the pointer position, if any.
	Hover *r2.Point
}

// Result reports what a redraw produced
type Result struct {
	Stations []models.EncodedStation
	Hovered  *models.EncodedStation
}

// Tooltip draws the hover label for a station
type Tooltip interface {
	Draw(c Canvas, station models.EncodedStation)
}

// Renderer turns a State into pixels. It holds no per-frame state, so one
// renderer can serve any number of canvases.
type Renderer struct {
	data      Dataset
	projector *geo.Projector
	encoder   *encode.Encoder
	tooltip   Tooltip
	// pickRadius is the hover hit distance in pixels.
	pickRadius float64
}

// NewRenderer wires a renderer. A nil tooltip disables hover labels.
func NewRenderer(data Dataset, projector *geo.Projector, encoder *encode.Encoder, tooltip Tooltip) *Renderer {
	return &Renderer{
		data:       data,
		projector:  projector,
		encoder:    encoder,
		tooltip:    tooltip,
		pickRadius: encoder.Policy().MaxRadius,
	}
}

// Frame projects and encodes every station at t
func (r *Renderer) Frame(t models.TimeState, extent models.CanvasExtent) []models.EncodedStation {
	samples := r.data.Samples(t)
	out := make([]models.EncodedStation, len(samples))
	for i, s := range samples {
		p := r.projector.ProjectLocation(s.Location(), extent)
		out[i] = models.EncodedStation{
			Sample:   s,
			X:        p.X,
			Y:        p.Y,
			Encoding: r.encoder.Encode(s.Ridership),
		}
	}
	return out
}

// HitTest returns the station closest to p within the pick radius
func (r *Renderer) HitTest(stations []models.EncodedStation, p r2.Point) (models.EncodedStation, error) {
	best, bestDist := -1, math.Inf(1)
	for i, s := range stations {
		d := r2.Point{X: s.X, Y: s.Y}.Sub(p).Norm()
		if d < r.pickRadius && d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return models.EncodedStation{}, ErrNoStation
	}
	return stations[best], nil
}

// Render performs one full redraw of st onto c
func (r *Renderer) Render(c Canvas, st State) (Result, error) {
	if !st.Extent.Valid() {
		return Result{}, fmt.Errorf("invalid canvas extent %vx%v", st.Extent.Width, st.Extent.Height)
	}

	c.Clear()
	c.FillRect(0, 0, st.Extent.Width, st.Extent.Height, SkyPaint(st.Time.HourInt(), st.Extent))

	stations := r.Frame(st.Time, st.Extent)
	for _, s := range stations {
		center := r2.Point{X: s.X, Y: s.Y}
		c.FillCircle(center, s.Encoding.Radius, GlowPaint(center, s.Encoding))
	}

	result := Result{Stations: stations}
	if st.Hover != nil {
		if hit, err := r.HitTest(stations, *st.Hover); err == nil {
			result.Hovered = &hit
			c.StrokeCircle(r2.Point{X: hit.X, Y: hit.Y}, hit.Encoding.Radius, 1, NRGBA(hit.Encoding.Stroke, 1))
			if r.tooltip != nil {
				r.tooltip.Draw(c, hit)
			}
		}
	}
	return result, nil
}

// RenderPNG renders st onto a fresh raster canvas and encodes it
func (r *Renderer) RenderPNG(w io.Writer, st State) (Result, error) {
	c := NewRasterCanvas(st.Extent)
	result, err := r.Render(c, st)
	if err != nil {
		return Result{}, err
	}
	if err := c.EncodePNG(w); err != nil {
		return Result{}, fmt.Errorf("encode png: %w", err)
	}
	return result, nil
}

// LabelTooltip is a white box with the station's ridership
type LabelTooltip struct{}

func (LabelTooltip) Draw(c Canvas, s models.EncodedStation) {
	label := fmt.Sprintf("%s: %.0f", s.Sample.Name, s.Sample.Ridership)
	width := float64(len(label))*7 + 10
	c.FillRect(s.X+10, s.Y-10, width, 30, solid(models.RGB{R: 255, G: 255, B: 255}))
	c.Text(r2.Point{X: s.X + 15, Y: s.Y + 9}, label, color.Black)
}
