package encode

import (
	"math"
	"reflect"
	"testing"

	"github.com/jusunglee/mta-ridership/internal/histogram"
	"github.com/jusunglee/mta-ridership/internal/models"
)

func newDefault(t *testing.T) *Encoder {
	t.Helper()
	e, err := NewEncoder(DefaultPolicy())
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	return e
}

func TestEncodeAtCutoffs(t *testing.T) {
	e := newDefault(t)
	p := e.Policy()

	low := e.Encode(19.95)
	if low.T != 0 || low.Radius != p.MinRadius || low.Fill != p.LowColor {
		t.Errorf("Encode(lower) = %+v", low)
	}

	high := e.Encode(1122.02)
	if high.T != 1 || high.Radius != p.MaxRadius || high.Fill != p.HighColor {
		t.Errorf("Encode(upper) = %+v", high)
	}

	mid := e.Encode(149.54)
	if math.Abs(mid.T-0.5) > 0.01 {
		t.Errorf("Encode(149.54).T = %v, want ~0.5", mid.T)
	}
	if math.Abs(mid.Radius-6) > 0.05 {
		t.Errorf("Encode(149.54).Radius = %v, want ~6", mid.Radius)
	}
}

func TestEncodeFlatOutsideCutoffs(t *testing.T) {
	e := newDefault(t)

	atLower := e.Encode(19.95)
	for _, r := range []float64{0, 1, 5, 19.9} {
		got := e.Encode(r)
		if !reflect.DeepEqual(got, atLower) {
			t.Errorf("Encode(%v) = %+v, want %+v", r, got, atLower)
		}
	}

	atUpper := e.Encode(1122.02)
	for _, r := range []float64{1200, 5000, 20000, math.Inf(1)} {
		got := e.Encode(r)
		if !reflect.DeepEqual(got, atUpper) {
			t.Errorf("Encode(%v) = %+v, want %+v", r, got, atUpper)
		}
	}
}

func TestEncodeMonotonic(t *testing.T) {
	e := newDefault(t)
	p := e.Policy()

	prev := e.Encode(p.LowerCutoff)
	for i := 1; i <= 200; i++ {
		r := p.LowerCutoff * math.Pow(p.UpperCutoff/p.LowerCutoff, float64(i)/200)
		got := e.Encode(r)
		if got.Radius < prev.Radius {
			t.Fatalf("radius decreased at %v: %v -> %v", r, prev.Radius, got.Radius)
		}
		// Low anchor #E7E7E7 -> high anchor #FF000A: red rises, green and blue fall.
		if got.Fill.R < prev.Fill.R || got.Fill.G > prev.Fill.G || got.Fill.B > prev.Fill.B {
			t.Fatalf("color not monotonic at %v: %v -> %v", r, prev.Fill, got.Fill)
		}
		if got.Brightness < prev.Brightness {
			t.Fatalf("brightness decreased at %v", r)
		}
		prev = got
	}
}

func TestEncodeInvalidRidership(t *testing.T) {
	e := newDefault(t)
	zero := e.Encode(0)
	for _, r := range []float64{-1, -1000, math.NaN()} {
		if got := e.Encode(r); !reflect.DeepEqual(got, zero) {
			t.Errorf("Encode(%v) = %+v, want clamp to 0", r, got)
		}
	}
}

func TestEncodeDegenerateCutoffs(t *testing.T) {
	p := DefaultPolicy()
	p.LowerCutoff, p.UpperCutoff = 100, 100
	e, err := NewEncoder(p)
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}

	for _, r := range []float64{1, 100, 10000} {
		got := e.Encode(r)
		if got.T != 0 || got.Radius != p.MinRadius || got.Fill != p.LowColor {
			t.Errorf("Encode(%v) = %+v, want low anchor", r, got)
		}
	}
}

func TestEncodeGlow(t *testing.T) {
	e := newDefault(t)
	got := e.Encode(5000)
	want := []models.GlowStop{{Offset: 0, Alpha: 1}, {Offset: 0.5, Alpha: 1}, {Offset: 1, Alpha: 0.01}}
	if !reflect.DeepEqual(got.Glow, want) {
		t.Errorf("Glow = %v, want %v", got.Glow, want)
	}

	quiet := e.Encode(1)
	if quiet.Brightness != 0.8 || quiet.Glow[1].Alpha != 0.8 {
		t.Errorf("quiet glow = %v", quiet.Glow)
	}
	for i := 1; i < len(quiet.Glow); i++ {
		if quiet.Glow[i].Alpha > quiet.Glow[i-1].Alpha {
			t.Errorf("glow should fade outward: %v", quiet.Glow)
		}
	}
}

func TestBand(t *testing.T) {
	e := newDefault(t)
	tests := []struct {
		r    float64
		band Band
	}{
		{0, Quiet},
		{19.9, Quiet},
		{19.95, Quiet},
		{19.96, Graded},
		{500, Graded},
		{1122.02, Busy},
		{18000, Busy},
	}
	for _, tt := range tests {
		if got := e.Band(tt.r); got != tt.band {
			t.Errorf("Band(%v) = %v, want %v", tt.r, got, tt.band)
		}
	}

	if e.Encode(5).Stroke != e.Policy().QuietStroke {
		t.Error("quiet marker should use the quiet stroke")
	}
	if e.Encode(5000).Stroke != e.Policy().BusyStroke {
		t.Error("busy marker should use the busy stroke")
	}
}

func TestNewEncoderValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Policy)
	}{
		{"zero lower", func(p *Policy) { p.LowerCutoff = 0 }},
		{"negative lower", func(p *Policy) { p.LowerCutoff = -5 }},
		{"upper below lower", func(p *Policy) { p.UpperCutoff = 10 }},
		{"nan upper", func(p *Policy) { p.UpperCutoff = math.NaN() }},
		{"inverted radius", func(p *Policy) { p.MinRadius, p.MaxRadius = 8, 4 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPolicy()
			tt.mutate(&p)
			if _, err := NewEncoder(p); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestLerpRGB(t *testing.T) {
	a := models.RGB{R: 0, G: 100, B: 255}
	b := models.RGB{R: 255, G: 100, B: 0}

	if got := LerpRGB(a, b, 0.5); got != (models.RGB{R: 128, G: 100, B: 128}) {
		t.Errorf("LerpRGB(0.5) = %v", got)
	}
	if got := LerpRGB(a, b, -3); got != a {
		t.Errorf("LerpRGB(-3) = %v, want %v", got, a)
	}
	if got := LerpRGB(a, b, 7); got != b {
		t.Errorf("LerpRGB(7) = %v, want %v", got, b)
	}
}

func TestCutoffsFromSample(t *testing.T) {
	values := []float64{0, -3, 10, 20, 30, 40, 50}
	lower, upper, err := CutoffsFromSample(values, 0, 1)
	if err != nil {
		t.Fatalf("CutoffsFromSample: %v", err)
	}
	if lower != 10 || upper != 50 {
		t.Errorf("cutoffs = %v, %v; want 10, 50", lower, upper)
	}

	if _, _, err := CutoffsFromSample([]float64{0, 0}, 0.1, 0.9); err == nil {
		t.Error("Expected error with no positive values")
	}
	if _, _, err := CutoffsFromSample(values, 0.9, 0.1); err == nil {
		t.Error("Expected error for inverted percentiles")
	}
}

func TestLegend(t *testing.T) {
	e := newDefault(t)
	legend := e.Legend(histogram.LogBins)
	if len(legend) != 10 {
		t.Fatalf("Expected 10 legend entries, got %d", len(legend))
	}

	wantBands := []string{"quiet", "quiet", "quiet", "graded", "graded", "graded", "graded", "busy", "busy", "busy"}
	for i, entry := range legend {
		if entry.Band != wantBands[i] {
			t.Errorf("entry %d band = %s, want %s", i, entry.Band, wantBands[i])
		}
	}
	if legend[4].BarFill != barGrey || legend[0].BarFill != barBlack {
		t.Error("graded bars should be grey and the others black")
	}
	if legend[0].Marker.Radius != 4 || legend[9].Marker.Radius != 8 {
		t.Errorf("legend markers should match map markers: %v, %v", legend[0].Marker.Radius, legend[9].Marker.Radius)
	}
	if got := e.Thresholds(); !reflect.DeepEqual(got, []float64{19.95, 1122.02}) {
		t.Errorf("Thresholds = %v", got)
	}
}
