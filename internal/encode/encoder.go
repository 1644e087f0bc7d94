// Package encode turns a ridership count into marker radius, color and glow.
//
// The policy is logarithmic with two cutoffs. Ridership at or below the
// lower cutoff gets the smallest, palest marker; at or above the upper
// cutoff the largest, reddest one. Between the cutoffs radius and color
// are interpolated on ln(ridership).
package encode

import (
	"fmt"
	"math"

	"github.com/aclements/go-moremath/scale"
	"github.com/aclements/go-moremath/stats"

	"github.com/jusunglee/mta-ridership/internal/models"
)

// Policy holds the encoder's cutoffs, radii and anchor colors
type Policy struct {
	LowerCutoff float64
	UpperCutoff float64
	MinRadius   float64
	MaxRadius   float64
	LowColor    models.RGB
	HighColor   models.RGB

	// Stroke colors per Band, shared with the histogram legend.
	QuietStroke  models.RGB
	GradedStroke models.RGB
	BusyStroke   models.RGB
}

// DefaultPolicy puts the cutoffs on the 4th and 8th log bin edges
func DefaultPolicy() Policy {
	return Policy{
		LowerCutoff:  19.95,
		UpperCutoff:  1122.02,
		MinRadius:    4,
		MaxRadius:    8,
		LowColor:     models.MustParseHex("#E7E7E7"),
		HighColor:    models.MustParseHex("#FF000A"),
		QuietStroke:  models.MustParseHex("#C1DD0A"),
		GradedStroke: models.MustParseHex("#C8C8C8"),
		BusyStroke:   models.MustParseHex("#FF0000"),
	}
}

// Validate checks the policy can drive a log scale
func (p Policy) Validate() error {
	if !(p.LowerCutoff > 0) || math.IsInf(p.LowerCutoff, 0) {
		return fmt.Errorf("lower cutoff must be positive and finite, got %v", p.LowerCutoff)
	}
	if math.IsNaN(p.UpperCutoff) || math.IsInf(p.UpperCutoff, 0) || p.UpperCutoff < p.LowerCutoff {
		return fmt.Errorf("upper cutoff %v must be finite and >= lower cutoff %v", p.UpperCutoff, p.LowerCutoff)
	}
	if p.MinRadius < 0 || p.MaxRadius < p.MinRadius {
		return fmt.Errorf("invalid radius range [%v, %v]", p.MinRadius, p.MaxRadius)
	}
	return nil
}

// Band classifies ridership relative to the cutoffs
type Band int

const (
	Quiet Band = iota
	Graded
	Busy
)

func (b Band) String() string {
	switch b {
	case Quiet:
		return "quiet"
	case Graded:
		return "graded"
	case Busy:
		return "busy"
	}
	return fmt.Sprintf("Band(%d)", int(b))
}

// Encoder maps ridership to a VisualEncoding. It is immutable and safe
// for concurrent use.
type Encoder struct {
	policy Policy
	log    scale.Log
	// degenerate is set when both cutoffs coincide.
	degenerate bool
}

// NewEncoder validates p and returns an encoder for it
func NewEncoder(p Policy) (*Encoder, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	e := &Encoder{policy: p}
	if p.UpperCutoff == p.LowerCutoff {
		e.degenerate = true
		return e, nil
	}
	s, err := scale.NewLog(p.LowerCutoff, p.UpperCutoff, 10)
	if err != nil {
		return nil, fmt.Errorf("log scale: %w", err)
	}
	e.log = s
	return e, nil
}

// Policy returns the encoder's policy
func (e *Encoder) Policy() Policy {
	return e.policy
}

// Factor returns the interpolation factor t in [0, 1] for ridership r
func (e *Encoder) Factor(r float64) float64 {
	r = sanitize(r)
	switch {
	case e.degenerate, r <= e.policy.LowerCutoff:
		return 0
	case r >= e.policy.UpperCutoff:
		return 1
	}
	return clamp01(e.log.Map(r))
}

// Band returns which side of the cutoffs r falls on
func (e *Encoder) Band(r float64) Band {
	r = sanitize(r)
	switch {
	case r <= e.policy.LowerCutoff:
		return Quiet
	case r >= e.policy.UpperCutoff && !e.degenerate:
		return Busy
	}
	return Graded
}

// Encode returns the marker for ridership r
func (e *Encoder) Encode(r float64) models.VisualEncoding {
	t := e.Factor(r)
	brightness := 0.8 + 0.2*t
	return models.VisualEncoding{
		T:          t,
		Radius:     lerp(e.policy.MinRadius, e.policy.MaxRadius, t),
		Fill:       LerpRGB(e.policy.LowColor, e.policy.HighColor, t),
		Brightness: brightness,
		Glow: []models.GlowStop{
			{Offset: 0, Alpha: 1},
			{Offset: 0.5, Alpha: brightness},
			{Offset: 1, Alpha: brightness * 0.01},
		},
		Stroke: e.BandStroke(e.Band(r)),
	}
}

// BandStroke returns the stroke color for b
func (e *Encoder) BandStroke(b Band) models.RGB {
	switch b {
	case Quiet:
		return e.policy.QuietStroke
	case Busy:
		return e.policy.BusyStroke
	}
	return e.policy.GradedStroke
}

// LerpRGB interpolates channel-wise; t is clamped to [0, 1]
func LerpRGB(a, b models.RGB, t float64) models.RGB {
	t = clamp01(t)
	return models.RGB{
		R: lerp8(a.R, b.R, t),
		G: lerp8(a.G, b.G, t),
		B: lerp8(a.B, b.B, t),
	}
}

// CutoffsFromSample derives cutoffs from percentiles of observed
// ridership, e.g. 0.25 and 0.99. Non-positive values are ignored since
// they cannot sit on a log scale.
func CutoffsFromSample(values []float64, lowerPct, upperPct float64) (float64, float64, error) {
	if lowerPct < 0 || upperPct > 1 || lowerPct > upperPct {
		return 0, 0, fmt.Errorf("invalid percentiles %v, %v", lowerPct, upperPct)
	}
	xs := make([]float64, 0, len(values))
	for _, v := range values {
		if v > 0 && !math.IsInf(v, 0) {
			xs = append(xs, v)
		}
	}
	if len(xs) == 0 {
		return 0, 0, fmt.Errorf("no positive ridership values")
	}
	s := stats.Sample{Xs: xs}
	return s.Quantile(lowerPct), s.Quantile(upperPct), nil
}

func sanitize(r float64) float64 {
	if math.IsNaN(r) || r < 0 {
		return 0
	}
	return r
}

func clamp01(t float64) float64 {
	switch {
	case math.IsNaN(t), t < 0:
		return 0
	case t > 1:
		return 1
	}
	return t
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func lerp8(a, b uint8, t float64) uint8 {
	c := math.Round(lerp(float64(a), float64(b), t))
	switch {
	case c <= 0:
		return 0
	case c >= 255:
		return 255
	}
	return uint8(c)
}
