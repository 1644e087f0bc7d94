// Package geo maps station coordinates onto canvas pixels.
package geo

import (
	"fmt"
	"math"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/r2"

	"github.com/jusunglee/mta-ridership/internal/models"
)

// BoundingBox is the geographic window drawn on the canvas
type BoundingBox struct {
	Lat r1.Interval
	Lon r1.Interval
}

// NYC covers the five boroughs' subway network
var NYC = BoundingBox{
	Lat: r1.Interval{Lo: 40.6, Hi: 40.9},
	Lon: r1.Interval{Lo: -74.2, Hi: -73.7},
}

// Contains reports whether loc lies inside the box
func (b BoundingBox) Contains(loc models.Location) bool {
	return b.Lat.Contains(loc.Lat) && b.Lon.Contains(loc.Lon)
}

// Projector converts lat/lon into pixel coordinates for a given extent.
//
// Both axes share one scale, min(width, height), so the map keeps its
// shape when the canvas is resized. The leftover space on the longer
// axis is split evenly on both sides.
type Projector struct {
	box BoundingBox
}

// NewProjector returns a projector for box
func NewProjector(box BoundingBox) (*Projector, error) {
	if box.Lat.IsEmpty() || box.Lat.Length() == 0 {
		return nil, fmt.Errorf("latitude range %v is empty", box.Lat)
	}
	if box.Lon.IsEmpty() || box.Lon.Length() == 0 {
		return nil, fmt.Errorf("longitude range %v is empty", box.Lon)
	}
	return &Projector{box: box}, nil
}

// Bounds returns the projector's bounding box
func (p *Projector) Bounds() BoundingBox {
	return p.box
}

// Project maps (lat, lon) to a pixel. Coordinates outside the box land
// outside the canvas; clipping is left to the renderer.
func (p *Projector) Project(lat, lon float64, extent models.CanvasExtent) r2.Point {
	side, origin := frame(extent)
	fx := (lon - p.box.Lon.Lo) / p.box.Lon.Length()
	fy := (p.box.Lat.Hi - lat) / p.box.Lat.Length()
	return origin.Add(r2.Point{X: fx * side, Y: fy * side})
}

// ProjectLocation is Project for a Location
func (p *Projector) ProjectLocation(loc models.Location, extent models.CanvasExtent) r2.Point {
	return p.Project(loc.Lat, loc.Lon, extent)
}

// Unproject is the inverse of Project
func (p *Projector) Unproject(pt r2.Point, extent models.CanvasExtent) models.Location {
	side, origin := frame(extent)
	if side == 0 {
		return models.Location{Lat: math.NaN(), Lon: math.NaN()}
	}
	d := pt.Sub(origin).Mul(1 / side)
	return models.Location{
		Lat: p.box.Lat.Hi - d.Y*p.box.Lat.Length(),
		Lon: p.box.Lon.Lo + d.X*p.box.Lon.Length(),
	}
}

// frame returns the square drawing side and its top-left corner
func frame(extent models.CanvasExtent) (float64, r2.Point) {
	side := math.Min(extent.Width, extent.Height)
	return side, r2.Point{
		X: (extent.Width - side) / 2,
		Y: (extent.Height - side) / 2,
	}
}
