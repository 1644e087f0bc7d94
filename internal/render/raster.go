package render

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/golang/geo/r2"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/jusunglee/mta-ridership/internal/models"
)

// kappa places cubic control points for a quarter circle
const kappa = 0.5522847498

// RasterCanvas draws into an in-memory RGBA image. Each primitive is
// rasterized only over its own bounding box.
type RasterCanvas struct {
	img  *image.RGBA
	z    *vector.Rasterizer
	face font.Face

	// clip is the pixel box of the primitive being drawn; path
	// coordinates are shifted by its origin.
	clip image.Rectangle
	off  r2.Point
}

// NewRasterCanvas allocates a canvas of the given extent
func NewRasterCanvas(extent models.CanvasExtent) *RasterCanvas {
	w, h := int(math.Ceil(extent.Width)), int(math.Ceil(extent.Height))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return &RasterCanvas{
		img:  image.NewRGBA(image.Rect(0, 0, w, h)),
		z:    vector.NewRasterizer(w, h),
		face: basicfont.Face7x13,
	}
}

// Image returns the backing image
func (c *RasterCanvas) Image() *image.RGBA {
	return c.img
}

// EncodePNG writes the canvas as a PNG
func (c *RasterCanvas) EncodePNG(w io.Writer) error {
	return png.Encode(w, c.img)
}

func (c *RasterCanvas) Extent() models.CanvasExtent {
	b := c.img.Bounds()
	return models.CanvasExtent{Width: float64(b.Dx()), Height: float64(b.Dy())}
}

func (c *RasterCanvas) Clear() {
	draw.Draw(c.img, c.img.Bounds(), image.Transparent, image.Point{}, draw.Src)
}

func (c *RasterCanvas) FillRect(x, y, w, h float64, p Paint) {
	a, b := r2.Point{X: x, Y: y}, r2.Point{X: x + w, Y: y + h}
	if !c.begin(r2.RectFromPoints(a, b)) {
		return
	}
	c.rect(x, y, w, h)
	c.fill(p)
}

func (c *RasterCanvas) StrokeRect(x, y, w, h, width float64, col color.Color) {
	c.Line(r2.Point{X: x, Y: y}, r2.Point{X: x + w, Y: y}, width, col)
	c.Line(r2.Point{X: x + w, Y: y}, r2.Point{X: x + w, Y: y + h}, width, col)
	c.Line(r2.Point{X: x + w, Y: y + h}, r2.Point{X: x, Y: y + h}, width, col)
	c.Line(r2.Point{X: x, Y: y + h}, r2.Point{X: x, Y: y}, width, col)
}

func (c *RasterCanvas) FillCircle(center r2.Point, radius float64, p Paint) {
	if radius <= 0 {
		return
	}
	if !c.begin(r2.RectFromCenterSize(center, r2.Point{X: 2 * radius, Y: 2 * radius})) {
		return
	}
	c.circle(center, radius)
	c.fill(p)
}

func (c *RasterCanvas) StrokeCircle(center r2.Point, radius, width float64, col color.Color) {
	if radius <= 0 || width <= 0 {
		return
	}
	// An annulus: outer circle clockwise, inner circle counter-clockwise.
	outer := radius + width/2
	if !c.begin(r2.RectFromCenterSize(center, r2.Point{X: 2 * outer, Y: 2 * outer})) {
		return
	}
	c.circle(center, outer)
	if inner := radius - width/2; inner > 0 {
		c.circleReverse(center, inner)
	}
	c.fill(Solid{Color: toNRGBA(col)})
}

func (c *RasterCanvas) Line(a, b r2.Point, width float64, col color.Color) {
	d := b.Sub(a)
	if d.Norm() == 0 || width <= 0 {
		return
	}
	n := d.Ortho().Normalize().Mul(width / 2)
	if !c.begin(r2.RectFromPoints(a.Add(n), b.Add(n), b.Sub(n), a.Sub(n))) {
		return
	}
	c.moveTo(a.Add(n))
	c.lineTo(b.Add(n))
	c.lineTo(b.Sub(n))
	c.lineTo(a.Sub(n))
	c.z.ClosePath()
	c.fill(Solid{Color: toNRGBA(col)})
}

func (c *RasterCanvas) Text(at r2.Point, s string, col color.Color) {
	d := font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: c.face,
		Dot:  fixed.P(int(math.Round(at.X)), int(math.Round(at.Y))),
	}
	d.DrawString(s)
}

// TextWidth returns the advance of s in pixels
func (c *RasterCanvas) TextWidth(s string) float64 {
	return float64(font.MeasureString(c.face, s).Round())
}

// begin resets the rasterizer to the pixels covered by box, padded by
// one pixel for antialiasing. It reports false when nothing is visible.
func (c *RasterCanvas) begin(box r2.Rect) bool {
	if box.IsEmpty() {
		return false
	}
	c.clip = pixelBox(box).Intersect(c.img.Bounds())
	if c.clip.Empty() {
		return false
	}
	c.z.Reset(c.clip.Dx(), c.clip.Dy())
	c.z.DrawOp = draw.Over
	c.off = r2.Point{X: float64(c.clip.Min.X), Y: float64(c.clip.Min.Y)}
	return true
}

func (c *RasterCanvas) fill(p Paint) {
	var src image.Image
	if s, ok := p.(Solid); ok {
		src = image.NewUniform(s.Color)
	} else {
		src = paintImage{p: p, bounds: c.clip}
	}
	// The mask is relative to clip.Min; sampling from clip.Min keeps
	// the paint in canvas coordinates.
	c.z.Draw(c.img, c.clip, src, c.clip.Min)
}

func pixelBox(box r2.Rect) image.Rectangle {
	return image.Rect(
		int(math.Floor(box.X.Lo))-1, int(math.Floor(box.Y.Lo))-1,
		int(math.Ceil(box.X.Hi))+1, int(math.Ceil(box.Y.Hi))+1,
	)
}

func (c *RasterCanvas) moveTo(p r2.Point) {
	p = p.Sub(c.off)
	c.z.MoveTo(float32(p.X), float32(p.Y))
}

func (c *RasterCanvas) lineTo(p r2.Point) {
	p = p.Sub(c.off)
	c.z.LineTo(float32(p.X), float32(p.Y))
}

func (c *RasterCanvas) rect(x, y, w, h float64) {
	c.moveTo(r2.Point{X: x, Y: y})
	c.lineTo(r2.Point{X: x + w, Y: y})
	c.lineTo(r2.Point{X: x + w, Y: y + h})
	c.lineTo(r2.Point{X: x, Y: y + h})
	c.z.ClosePath()
}

func (c *RasterCanvas) circle(o r2.Point, r float64) {
	k := r * kappa
	c.moveTo(r2.Point{X: o.X + r, Y: o.Y})
	c.cubeTo(o.X+r, o.Y+k, o.X+k, o.Y+r, o.X, o.Y+r)
	c.cubeTo(o.X-k, o.Y+r, o.X-r, o.Y+k, o.X-r, o.Y)
	c.cubeTo(o.X-r, o.Y-k, o.X-k, o.Y-r, o.X, o.Y-r)
	c.cubeTo(o.X+k, o.Y-r, o.X+r, o.Y-k, o.X+r, o.Y)
	c.z.ClosePath()
}

func (c *RasterCanvas) circleReverse(o r2.Point, r float64) {
	k := r * kappa
	c.moveTo(r2.Point{X: o.X + r, Y: o.Y})
	c.cubeTo(o.X+r, o.Y-k, o.X+k, o.Y-r, o.X, o.Y-r)
	c.cubeTo(o.X-k, o.Y-r, o.X-r, o.Y-k, o.X-r, o.Y)
	c.cubeTo(o.X-r, o.Y+k, o.X-k, o.Y+r, o.X, o.Y+r)
	c.cubeTo(o.X+k, o.Y+r, o.X+r, o.Y+k, o.X+r, o.Y)
	c.z.ClosePath()
}

func (c *RasterCanvas) cubeTo(bx, by, cx, cy, dx, dy float64) {
	ox, oy := c.off.X, c.off.Y
	c.z.CubeTo(float32(bx-ox), float32(by-oy), float32(cx-ox), float32(cy-oy), float32(dx-ox), float32(dy-oy))
}

// paintImage adapts a Paint to image.Image, sampling at pixel centers
type paintImage struct {
	p      Paint
	bounds image.Rectangle
}

func (pi paintImage) ColorModel() color.Model { return color.NRGBAModel }
func (pi paintImage) Bounds() image.Rectangle { return pi.bounds }
func (pi paintImage) At(x, y int) color.Color {
	return pi.p.ColorAt(float64(x)+0.5, float64(y)+0.5)
}

func toNRGBA(c color.Color) color.NRGBA {
	return color.NRGBAModel.Convert(c).(color.NRGBA)
}
