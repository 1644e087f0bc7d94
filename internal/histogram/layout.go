package histogram

import (
	"fmt"

	"github.com/aclements/go-moremath/scale"
)

// Layout places bars inside a plot area with a log ridership axis and a
// linear count axis. Y grows downward, as on a canvas.
type Layout struct {
	Width  float64
	Height float64
	// Gap is trimmed from each bar's width.
	Gap float64
}

// DefaultLayout matches the legend panel drawn next to the map
var DefaultLayout = Layout{Width: 720, Height: 240, Gap: 8}

// Bar is a positioned histogram bar
type Bar struct {
	Index  int     `json:"index"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Count  int     `json:"count"`
}

// Axis maps ridership onto the horizontal pixel range
type Axis struct {
	log   scale.Log
	width float64
}

// NewAxis builds the x axis for edges
func (l Layout) NewAxis(edges Edges) (*Axis, error) {
	if err := edges.Validate(); err != nil {
		return nil, err
	}
	s, err := scale.NewLog(edges.Min(), edges.Max(), 10)
	if err != nil {
		return nil, fmt.Errorf("log axis: %w", err)
	}
	return &Axis{log: s, width: l.Width}, nil
}

// X returns the pixel offset of ridership v
func (a *Axis) X(v float64) float64 {
	return a.log.Map(v) * a.width
}

// Bars lays out buckets. maxCount fixes the top of the count axis so the
// baseline and current series share a scale; pass 0 to fit the buckets.
func (l Layout) Bars(buckets []Bucket, maxCount int) ([]Bar, error) {
	if len(buckets) == 0 {
		return nil, nil
	}
	edges := make(Edges, 0, len(buckets)+1)
	for _, b := range buckets {
		edges = append(edges, b.Lower)
	}
	edges = append(edges, buckets[len(buckets)-1].Upper)

	axis, err := l.NewAxis(edges)
	if err != nil {
		return nil, err
	}

	if maxCount <= 0 {
		maxCount = MaxCount(buckets)
	}
	y := scale.Linear{Min: 0, Max: float64(maxCount)}

	bars := make([]Bar, len(buckets))
	for i, b := range buckets {
		x0, x1 := axis.X(b.Lower), axis.X(b.Upper)
		w := x1 - x0 - l.Gap
		if w < 0 {
			w = 0
		}
		h := 0.0
		if maxCount > 0 {
			h = y.Map(float64(b.Count)) * l.Height
		}
		bars[i] = Bar{
			Index:  i,
			X:      x0,
			Y:      l.Height - h,
			Width:  w,
			Height: h,
			Count:  b.Count,
		}
	}
	return bars, nil
}

// MaxCount returns the largest bucket count over all series
func MaxCount(series ...[]Bucket) int {
	m := 0
	for _, buckets := range series {
		for _, b := range buckets {
			if b.Count > m {
				m = b.Count
			}
		}
	}
	return m
}
