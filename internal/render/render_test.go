package render

import (
	"bytes"
	"errors"
	"image/color"
	"image/png"
	"testing"

	"github.com/golang/geo/r2"

	"github.com/jusunglee/mta-ridership/internal/encode"
	"github.com/jusunglee/mta-ridership/internal/geo"
	"github.com/jusunglee/mta-ridership/internal/histogram"
	"github.com/jusunglee/mta-ridership/internal/models"
)

// recorder is a Canvas that remembers the calls made on it
type recorder struct {
	extent  models.CanvasExtent
	calls   []string
	circles []r2.Point
	texts   []string
}

func (r *recorder) Extent() models.CanvasExtent { return r.extent }
func (r *recorder) Clear()                       { r.calls = append(r.calls, "clear") }
func (r *recorder) FillRect(x, y, w, h float64, p Paint) {
	r.calls = append(r.calls, "fillRect")
}
func (r *recorder) StrokeRect(x, y, w, h, width float64, c color.Color) {
	r.calls = append(r.calls, "strokeRect")
}
func (r *recorder) FillCircle(center r2.Point, radius float64, p Paint) {
	r.calls = append(r.calls, "fillCircle")
	r.circles = append(r.circles, center)
}
func (r *recorder) StrokeCircle(center r2.Point, radius, width float64, c color.Color) {
	r.calls = append(r.calls, "strokeCircle")
}
func (r *recorder) Line(a, b r2.Point, width float64, c color.Color) {
	r.calls = append(r.calls, "line")
}
func (r *recorder) Text(at r2.Point, s string, c color.Color) {
	r.calls = append(r.calls, "text")
	r.texts = append(r.texts, s)
}

func (r *recorder) count(call string) int {
	n := 0
	for _, c := range r.calls {
		if c == call {
			n++
		}
	}
	return n
}

type fixedData []models.StationSample

func (d fixedData) Samples(t models.TimeState) []models.StationSample {
	var out []models.StationSample
	for _, s := range d {
		if s.Time() == t {
			out = append(out, s)
		}
	}
	return out
}

var (
	morning = models.NewTimeState("2024-10-01", "8")
	night   = models.NewTimeState("2024-10-01", "23")
)

func testData() fixedData {
	return fixedData{
		{StationID: "611", Name: "Times Sq-42 St", Day: "2024-10-01", Hour: "08", Ridership: 2400, Latitude: 40.7575, Longitude: -73.9875},
		{StationID: "447", Name: "Atlantic Av", Day: "2024-10-01", Hour: "08", Ridership: 150, Latitude: 40.6843, Longitude: -73.9779},
		{StationID: "611", Name: "Times Sq-42 St", Day: "2024-10-01", Hour: "23", Ridership: 10, Latitude: 40.7575, Longitude: -73.9875},
	}
}

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	p, err := geo.NewProjector(geo.NYC)
	if err != nil {
		t.Fatalf("NewProjector: %v", err)
	}
	e, err := encode.NewEncoder(encode.DefaultPolicy())
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	return NewRenderer(testData(), p, e, LabelTooltip{})
}

var extent = models.CanvasExtent{Width: 400, Height: 300}

func TestRenderOrder(t *testing.T) {
	r := newTestRenderer(t)
	c := &recorder{extent: extent}

	res, err := r.Render(c, State{Time: morning, Extent: extent})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(res.Stations) != 2 {
		t.Fatalf("expected 2 stations, got %d", len(res.Stations))
	}
	if res.Hovered != nil {
		t.Errorf("expected no hovered station")
	}

	want := []string{"clear", "fillRect", "fillCircle", "fillCircle"}
	if len(c.calls) != len(want) {
		t.Fatalf("expected calls %v, got %v", want, c.calls)
	}
	for i := range want {
		if c.calls[i] != want[i] {
			t.Errorf("call %d: expected %s, got %s", i, want[i], c.calls[i])
		}
	}
}

func TestRenderHover(t *testing.T) {
	r := newTestRenderer(t)
	frame := r.Frame(morning, extent)
	target := frame[0]

	c := &recorder{extent: extent}
	hover := r2.Point{X: target.X + 2, Y: target.Y - 1}
	res, err := r.Render(c, State{Time: morning, Extent: extent, Hover: &hover})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if res.Hovered == nil || res.Hovered.Sample.StationID != target.Sample.StationID {
		t.Fatalf("expected hovered station %s, got %+v", target.Sample.StationID, res.Hovered)
	}
	if c.count("strokeCircle") != 1 {
		t.Errorf("expected a highlight stroke, got calls %v", c.calls)
	}
	if len(c.texts) != 1 || c.texts[0] != "Times Sq-42 St: 2400" {
		t.Errorf("unexpected tooltip text %v", c.texts)
	}
}

func TestRenderHoverMiss(t *testing.T) {
	r := newTestRenderer(t)
	c := &recorder{extent: extent}
	hover := r2.Point{X: 1, Y: 1}
	res, err := r.Render(c, State{Time: morning, Extent: extent, Hover: &hover})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if res.Hovered != nil {
		t.Errorf("expected no hovered station, got %s", res.Hovered.Sample.StationID)
	}
	if c.count("text") != 0 {
		t.Errorf("expected no tooltip")
	}
}

func TestHitTest(t *testing.T) {
	r := newTestRenderer(t)
	frame := r.Frame(morning, extent)

	if _, err := r.HitTest(frame, r2.Point{X: -100, Y: -100}); !errors.Is(err, ErrNoStation) {
		t.Errorf("expected ErrNoStation, got %v", err)
	}
	got, err := r.HitTest(frame, r2.Point{X: frame[1].X, Y: frame[1].Y})
	if err != nil {
		t.Fatalf("HitTest: %v", err)
	}
	if got.Sample.StationID != "447" {
		t.Errorf("expected 447, got %s", got.Sample.StationID)
	}
}

func TestRenderEmptyHour(t *testing.T) {
	r := newTestRenderer(t)
	c := &recorder{extent: extent}
	res, err := r.Render(c, State{Time: models.NewTimeState("2024-10-02", "00"), Extent: extent})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(res.Stations) != 0 || c.count("fillCircle") != 0 {
		t.Errorf("expected an empty frame")
	}
}

func TestRenderInvalidExtent(t *testing.T) {
	r := newTestRenderer(t)
	if _, err := r.Render(&recorder{}, State{Time: morning}); err == nil {
		t.Error("expected error for zero extent")
	}
}

func TestRenderPNG(t *testing.T) {
	r := newTestRenderer(t)
	var buf bytes.Buffer
	if _, err := r.RenderPNG(&buf, State{Time: night, Extent: extent}); err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 300 {
		t.Errorf("unexpected bounds %v", b)
	}
	// Night sky is black and opaque.
	if got := color.NRGBAModel.Convert(img.At(0, 0)).(color.NRGBA); got != (color.NRGBA{A: 255}) {
		t.Errorf("expected black corner, got %v", got)
	}
}

func TestRasterMarkerCenter(t *testing.T) {
	r := newTestRenderer(t)
	c := NewRasterCanvas(extent)
	res, err := r.Render(c, State{Time: morning, Extent: extent})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	busy := res.Stations[0]
	px := c.Image().At(int(busy.X), int(busy.Y))
	got := color.NRGBAModel.Convert(px).(color.NRGBA)
	// The glow center is opaque fill over the sky.
	if got.R < 200 || got.G > 60 {
		t.Errorf("expected a red marker center, got %v", got)
	}
}

func TestSkyPaint(t *testing.T) {
	ext := models.CanvasExtent{Width: 10, Height: 200}
	tests := []struct {
		hour   int
		y      float64
		expect color.NRGBA
	}{
		{hour: 12, y: 0, expect: NRGBA(skyDarkBlue, 1)},
		{hour: 2, y: 199, expect: NRGBA(skyBlack, 1)},
		{hour: 7, y: 200, expect: NRGBA(skyOrange, 1)},
		{hour: 7, y: 0, expect: NRGBA(skyDarkBlue, 1)},
		{hour: 18, y: 200, expect: NRGBA(skyOrange, 1)},
	}
	for _, tt := range tests {
		got := SkyPaint(tt.hour, ext).ColorAt(5, tt.y)
		if got != tt.expect {
			t.Errorf("hour %d y %v: expected %v, got %v", tt.hour, tt.y, tt.expect, got)
		}
	}
}

func TestSampleStops(t *testing.T) {
	stops := []ColorStop{
		{Offset: 0, Color: color.NRGBA{A: 0}},
		{Offset: 1, Color: color.NRGBA{R: 200, A: 200}},
	}
	if got := sampleStops(stops, 0.5); got.R != 100 || got.A != 100 {
		t.Errorf("expected midpoint blend, got %v", got)
	}
	if got := sampleStops(stops, 2); got != stops[1].Color {
		t.Errorf("expected last stop past the end, got %v", got)
	}
	if got := sampleStops(nil, 0.5); got != (color.NRGBA{}) {
		t.Errorf("expected transparent for no stops, got %v", got)
	}
}

func TestPanelDraw(t *testing.T) {
	e, err := encode.NewEncoder(encode.DefaultPolicy())
	if err != nil {
		t.Fatal(err)
	}
	p := Panel{Layout: histogram.DefaultLayout, Edges: histogram.LogBins, Origin: r2.Point{X: 20, Y: 20}}
	all := []float64{1, 2, 19.95, 20, 1122.02, 20000}
	cmp := histogram.Compare(all, []float64{20, 1122.02}, histogram.LogBins)

	c := &recorder{extent: p.PanelExtent()}
	if err := p.Draw(c, cmp, e); err != nil {
		t.Fatalf("Draw: %v", err)
	}

	if got := c.count("fillRect"); got != histogram.LogBins.Len() {
		t.Errorf("expected %d filled bars, got %d", histogram.LogBins.Len(), got)
	}
	// Four non-empty baseline buckets are outlined.
	if got := c.count("strokeRect"); got != 4 {
		t.Errorf("expected 4 outlined bars, got %d", got)
	}
	if got := len(c.circles); got != histogram.LogBins.Len() {
		t.Errorf("expected %d legend markers, got %d", histogram.LogBins.Len(), got)
	}
	if got := len(c.texts); got != len(histogram.LogBins) {
		t.Errorf("expected %d edge labels, got %d", len(histogram.LogBins), got)
	}
}
