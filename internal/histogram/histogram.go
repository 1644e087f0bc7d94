// Package histogram buckets ridership values into fixed logarithmic bins.
package histogram

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Edges are the increasing thresholds that delimit the buckets.
// n edges define n-1 buckets.
type Edges []float64

// LogBins spans 1..20000 riders in ten logarithmic steps. The encoder's
// default cutoffs sit on edges 3 and 7, so histogram bands and marker
// colors line up.
var LogBins = Edges{1, 2.69, 7.24, 19.95, 54.55, 149.54, 409.49, 1122.02, 3073.8, 8421.87, 20000}

// Validate checks that e defines at least one bucket and is strictly increasing
func (e Edges) Validate() error {
	if len(e) < 2 {
		return errors.New("at least two bin edges are required")
	}
	for i, v := range e {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("bin edge %d is not finite", i)
		}
		if i > 0 && v <= e[i-1] {
			return fmt.Errorf("bin edges must increase: edge %d (%v) <= edge %d (%v)", i, v, i-1, e[i-1])
		}
	}
	return nil
}

// Len returns the number of buckets
func (e Edges) Len() int {
	if len(e) < 2 {
		return 0
	}
	return len(e) - 1
}

// Min returns the first edge
func (e Edges) Min() float64 { return e[0] }

// Max returns the last edge
func (e Edges) Max() float64 { return e[len(e)-1] }

// Index returns the bucket holding v. Buckets are [lo, hi) except the
// last one, which also holds the final edge. Values outside the edges
// (and NaN) belong to no bucket.
func (e Edges) Index(v float64) (int, bool) {
	n := e.Len()
	if n == 0 || math.IsNaN(v) || v < e.Min() || v > e.Max() {
		return 0, false
	}
	i := sort.Search(len(e), func(i int) bool { return e[i] > v }) - 1
	if i >= n {
		i = n - 1
	}
	return i, true
}

// Bucket is one histogram bar
type Bucket struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// Center returns the geometric mean of the bounds, the midpoint on a log axis
func (b Bucket) Center() float64 {
	return math.Sqrt(b.Lower * b.Upper)
}

// Bin counts values per bucket. The result has one entry per bucket in
// edge order, including empty buckets.
func Bin(values []float64, edges Edges) []Bucket {
	buckets := make([]Bucket, edges.Len())
	for i := range buckets {
		buckets[i] = Bucket{Lower: edges[i], Upper: edges[i+1]}
	}
	for _, v := range values {
		if i, ok := edges.Index(v); ok {
			buckets[i].Count++
		}
	}
	return buckets
}

// Counts returns just the per-bucket counts
func Counts(buckets []Bucket) []int {
	out := make([]int, len(buckets))
	for i, b := range buckets {
		out[i] = b.Count
	}
	return out
}

// Total sums the bucket counts
func Total(buckets []Bucket) int {
	total := 0
	for _, b := range buckets {
		total += b.Count
	}
	return total
}

// Comparison pairs the all-time distribution with the current hour's
type Comparison struct {
	Baseline []Bucket `json:"baseline"`
	Current  []Bucket `json:"current"`
}

// Compare bins both value sets against the same edges
func Compare(all, current []float64, edges Edges) Comparison {
	return Comparison{
		Baseline: Bin(all, edges),
		Current:  Bin(current, edges),
	}
}
