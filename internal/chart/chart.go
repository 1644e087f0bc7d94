// Package chart renders ridership histograms as standalone SVG plots.
package chart

import (
	"fmt"
	"io"
	"math"

	"github.com/aclements/go-gg/gg"
	"github.com/aclements/go-gg/table"

	"github.com/jusunglee/mta-ridership/internal/histogram"
)

const (
	colX      = "log10 ridership"
	colY      = "stations"
	colSeries = "series"
)

// Series is one named distribution to plot
type Series struct {
	Name    string
	Buckets []histogram.Bucket
}

// Table flattens series into step points. Each bucket contributes its
// lower edge; the last bucket also closes at its upper edge.
func Table(series ...Series) *table.Table {
	var xs, ys []float64
	var names []string
	for _, s := range series {
		for i, b := range s.Buckets {
			xs = append(xs, math.Log10(b.Lower))
			ys = append(ys, float64(b.Count))
			names = append(names, s.Name)
			if i == len(s.Buckets)-1 {
				xs = append(xs, math.Log10(b.Upper))
				ys = append(ys, float64(b.Count))
				names = append(names, s.Name)
			}
		}
	}
	return table.NewBuilder(nil).Add(colX, xs).Add(colY, ys).Add(colSeries, names).Done()
}

// Plot builds a step histogram of series
func Plot(title string, series ...Series) (*gg.Plot, error) {
	n := 0
	for _, s := range series {
		n += len(s.Buckets)
	}
	if n == 0 {
		return nil, fmt.Errorf("no buckets to plot")
	}

	plot := gg.NewPlot(Table(series...))
	plot.SetScale("y", gg.NewLinearScaler().Include(0))
	plot.Add(gg.LayerSteps{
		LayerPaths: gg.LayerPaths{X: colX, Y: colY, Color: colSeries},
		Step:       gg.StepHV,
	})
	plot.Add(gg.AxisLabel("x", colX), gg.AxisLabel("y", colY))
	if title != "" {
		plot.Add(gg.Title(title))
	}
	return plot, nil
}

// WriteComparison writes the baseline and current distributions as SVG
func WriteComparison(w io.Writer, title string, cmp histogram.Comparison, width, height int) error {
	plot, err := Plot(title,
		Series{Name: "all hours", Buckets: cmp.Baseline},
		Series{Name: "this hour", Buckets: cmp.Current},
	)
	if err != nil {
		return err
	}
	if err := plot.WriteSVG(w, width, height); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}
