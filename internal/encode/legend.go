package encode

import (
	"github.com/jusunglee/mta-ridership/internal/histogram"
	"github.com/jusunglee/mta-ridership/internal/models"
)

// LegendEntry styles one histogram bucket so its bar and sample marker
// match what the map draws for the same ridership.
type LegendEntry struct {
	Index     int                   `json:"index"`
	Lower     float64               `json:"lower"`
	Upper     float64               `json:"upper"`
	Center    float64               `json:"center"`
	Band      string                `json:"band"`
	BarFill   models.RGB            `json:"bar_fill"`
	BarStroke models.RGB            `json:"bar_stroke"`
	Marker    models.VisualEncoding `json:"marker"`
}

var (
	barBlack = models.RGB{}
	barGrey  = models.MustParseHex("#C8C8C8")
	barWhite = models.MustParseHex("#FFFFFF")
)

// BucketBand classifies a whole bucket. A bucket is quiet when it ends at
// or below the lower cutoff and busy when it starts at or above the
// upper cutoff.
func (e *Encoder) BucketBand(lower, upper float64) Band {
	switch {
	case upper <= e.policy.LowerCutoff:
		return Quiet
	case lower >= e.policy.UpperCutoff && !e.degenerate:
		return Busy
	}
	return Graded
}

// Legend returns one entry per bucket of edges
func (e *Encoder) Legend(edges histogram.Edges) []LegendEntry {
	entries := make([]LegendEntry, edges.Len())
	for i := range entries {
		b := histogram.Bucket{Lower: edges[i], Upper: edges[i+1]}
		band := e.BucketBand(b.Lower, b.Upper)
		fill := barBlack
		if band == Graded {
			fill = barGrey
		}
		entries[i] = LegendEntry{
			Index:     i,
			Lower:     b.Lower,
			Upper:     b.Upper,
			Center:    b.Center(),
			Band:      band.String(),
			BarFill:   fill,
			BarStroke: barWhite,
			Marker:    e.Encode(b.Center()),
		}
	}
	return entries
}

// Thresholds returns the ridership values worth marking on the histogram axis
func (e *Encoder) Thresholds() []float64 {
	if e.degenerate {
		return []float64{e.policy.LowerCutoff}
	}
	return []float64{e.policy.LowerCutoff, e.policy.UpperCutoff}
}
