package chart

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jusunglee/mta-ridership/internal/histogram"
)

func TestTable(t *testing.T) {
	buckets := histogram.Bin([]float64{1, 20, 20000}, histogram.LogBins)
	tab := Table(Series{Name: "all", Buckets: buckets})

	xs, ok := tab.MustColumn(colX).([]float64)
	if !ok {
		t.Fatalf("unexpected x column type %T", tab.MustColumn(colX))
	}
	if len(xs) != len(buckets)+1 {
		t.Fatalf("expected %d points, got %d", len(buckets)+1, len(xs))
	}
	if xs[0] != 0 {
		t.Errorf("expected first point at log10(1) = 0, got %v", xs[0])
	}
	if last := xs[len(xs)-1]; last < 4.30 || last > 4.31 {
		t.Errorf("expected last point at log10(20000), got %v", last)
	}
}

func TestWriteComparison(t *testing.T) {
	all := []float64{1, 2, 19.95, 20, 1122.02, 20000}
	cmp := histogram.Compare(all, []float64{20}, histogram.LogBins)

	var buf bytes.Buffer
	if err := WriteComparison(&buf, "2024-10-01 08", cmp, 400, 300); err != nil {
		t.Fatalf("WriteComparison: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "<svg") || !strings.Contains(out, "</svg>") {
		t.Errorf("expected an svg document, got %q", out)
	}
}

func TestPlotEmpty(t *testing.T) {
	if _, err := Plot("empty"); err == nil {
		t.Error("expected error for no buckets")
	}
}
