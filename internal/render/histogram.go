package render

import (
	"fmt"
	"image/color"

	"github.com/golang/geo/r2"

	"github.com/jusunglee/mta-ridership/internal/encode"
	"github.com/jusunglee/mta-ridership/internal/histogram"
	"github.com/jusunglee/mta-ridership/internal/models"
)

// Panel draws the ridership histogram: the all-time distribution as
// outlined bars, the current hour as filled bars, cutoff lines and one
// sample marker per bucket under the axis.
type Panel struct {
	Layout histogram.Layout
	Edges  histogram.Edges
	// Origin is the top-left corner of the plot area.
	Origin r2.Point
}

// markerRow is the distance from the axis to the legend markers
const markerRow = 20

var (
	axisColor      = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	thresholdColor = color.NRGBA{R: 255, G: 255, B: 255, A: 160}
)

// Draw renders cmp onto c
func (p Panel) Draw(c Canvas, cmp histogram.Comparison, enc *encode.Encoder) error {
	top := histogram.MaxCount(cmp.Baseline, cmp.Current)
	baseline, err := p.Layout.Bars(cmp.Baseline, top)
	if err != nil {
		return fmt.Errorf("baseline bars: %w", err)
	}
	current, err := p.Layout.Bars(cmp.Current, top)
	if err != nil {
		return fmt.Errorf("current bars: %w", err)
	}
	axis, err := p.Layout.NewAxis(p.Edges)
	if err != nil {
		return err
	}
	legend := enc.Legend(p.Edges)

	o := p.Origin
	for i, b := range current {
		fill := barColor(legend, i, true)
		c.FillRect(o.X+b.X, o.Y+b.Y, b.Width, b.Height, Solid{Color: fill})
	}
	for i, b := range baseline {
		if b.Height == 0 {
			continue
		}
		c.StrokeRect(o.X+b.X, o.Y+b.Y, b.Width, b.Height, 1, barColor(legend, i, false))
	}

	baseY := o.Y + p.Layout.Height
	c.Line(r2.Point{X: o.X, Y: baseY}, r2.Point{X: o.X + p.Layout.Width, Y: baseY}, 1, axisColor)

	for _, v := range enc.Thresholds() {
		x := o.X + axis.X(v)
		dashed(c, r2.Point{X: x, Y: o.Y}, r2.Point{X: x, Y: baseY}, 4, thresholdColor)
	}

	for _, e := range legend {
		center := r2.Point{X: o.X + axis.X(e.Center), Y: baseY + markerRow}
		c.FillCircle(center, e.Marker.Radius, GlowPaint(center, e.Marker))
	}
	for _, v := range p.Edges {
		c.Text(r2.Point{X: o.X + axis.X(v), Y: baseY + 2*markerRow + 5}, fmt.Sprintf("%.0f", v), axisColor)
	}
	return nil
}

func barColor(legend []encode.LegendEntry, i int, filled bool) color.NRGBA {
	if i >= len(legend) {
		return axisColor
	}
	if filled {
		return NRGBA(legend[i].BarFill, 1)
	}
	return NRGBA(legend[i].BarStroke, 1)
}

// dashed draws a vertical or diagonal dashed line with equal dash and gap
func dashed(c Canvas, a, b r2.Point, dash float64, col color.Color) {
	d := b.Sub(a)
	length := d.Norm()
	if length == 0 {
		return
	}
	step := d.Normalize()
	for s := 0.0; s < length; s += 2 * dash {
		e := s + dash
		if e > length {
			e = length
		}
		c.Line(a.Add(step.Mul(s)), a.Add(step.Mul(e)), 1, col)
	}
}

// PanelExtent is the canvas size that fits p with its axis labels
func (p Panel) PanelExtent() models.CanvasExtent {
	return models.CanvasExtent{
		Width:  p.Origin.X*2 + p.Layout.Width,
		Height: p.Origin.Y + p.Layout.Height + 3*markerRow,
	}
}
