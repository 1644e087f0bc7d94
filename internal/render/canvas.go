// Package render draws ridership frames onto a 2D canvas.
package render

import (
	"image/color"
	"math"

	"github.com/golang/geo/r2"

	"github.com/jusunglee/mta-ridership/internal/models"
)

// Canvas is an immediate-mode 2D drawing target
type Canvas interface {
	Extent() models.CanvasExtent
	Clear()
	FillRect(x, y, w, h float64, p Paint)
	StrokeRect(x, y, w, h, width float64, c color.Color)
	FillCircle(center r2.Point, radius float64, p Paint)
	StrokeCircle(center r2.Point, radius, width float64, c color.Color)
	Line(a, b r2.Point, width float64, c color.Color)
	Text(at r2.Point, s string, c color.Color)
}

// Paint gives the fill color at a canvas position
type Paint interface {
	ColorAt(x, y float64) color.NRGBA
}

// Solid is a uniform paint
type Solid struct {
	Color color.NRGBA
}

func (s Solid) ColorAt(x, y float64) color.NRGBA { return s.Color }

// ColorStop is one stop of a gradient. Offsets lie in [0, 1] and must
// be increasing.
type ColorStop struct {
	Offset float64
	Color  color.NRGBA
}

// VerticalGradient blends from Stops[0] at Y0 to the last stop at Y1.
// Outside that span the end colors extend.
type VerticalGradient struct {
	Y0, Y1 float64
	Stops  []ColorStop
}

func (g VerticalGradient) ColorAt(x, y float64) color.NRGBA {
	if g.Y1 == g.Y0 {
		return sampleStops(g.Stops, 0)
	}
	return sampleStops(g.Stops, (y-g.Y0)/(g.Y1-g.Y0))
}

// RadialGradient blends outward from Center to Radius
type RadialGradient struct {
	Center r2.Point
	Radius float64
	Stops  []ColorStop
}

func (g RadialGradient) ColorAt(x, y float64) color.NRGBA {
	if g.Radius <= 0 {
		return sampleStops(g.Stops, 1)
	}
	d := r2.Point{X: x, Y: y}.Sub(g.Center).Norm()
	return sampleStops(g.Stops, d/g.Radius)
}

// sampleStops interpolates non-premultiplied RGBA between stops
func sampleStops(stops []ColorStop, t float64) color.NRGBA {
	switch {
	case len(stops) == 0:
		return color.NRGBA{}
	case math.IsNaN(t) || t <= stops[0].Offset:
		return stops[0].Color
	case t >= stops[len(stops)-1].Offset:
		return stops[len(stops)-1].Color
	}
	for i := 1; i < len(stops); i++ {
		a, b := stops[i-1], stops[i]
		if t > b.Offset {
			continue
		}
		span := b.Offset - a.Offset
		if span <= 0 {
			return b.Color
		}
		return blendNRGBA(a.Color, b.Color, (t-a.Offset)/span)
	}
	return stops[len(stops)-1].Color
}

func blendNRGBA(a, b color.NRGBA, t float64) color.NRGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return color.NRGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}

// NRGBA converts an encoder color with an alpha factor in [0, 1]
func NRGBA(c models.RGB, alpha float64) color.NRGBA {
	if alpha < 0 {
		alpha = 0
	} else if alpha > 1 {
		alpha = 1
	}
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(math.Round(alpha * 255))}
}

// GlowPaint builds the radial glow for an encoded station marker
func GlowPaint(center r2.Point, enc models.VisualEncoding) RadialGradient {
	stops := make([]ColorStop, len(enc.Glow))
	for i, s := range enc.Glow {
		stops[i] = ColorStop{Offset: s.Offset, Color: NRGBA(enc.Fill, s.Alpha)}
	}
	return RadialGradient{Center: center, Radius: enc.Radius, Stops: stops}
}
