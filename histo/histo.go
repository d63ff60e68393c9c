// Package histo implements fixed-divider histograms for descriptor
// distributions. A distribution over a whole trajectory often tells more
// than its time series: a bimodal coordination histogram means two distinct
// sites, where the mean would show a meaningless average.
package histo

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Data is a histogram over fixed bin dividers. Bin i spans
// [dividers[i], dividers[i+1]), the last bin includes its upper edge.
// Points outside the divider range are counted in total but land in no bin.
type Data struct {
	normalized bool
	total      int
	dividers   []float64
	histo      []float64
}

// New returns an empty histogram with the given dividers, which must be
// sorted and at least two. rawdata may be nil.
func New(dividers []float64, rawdata []float64) (*Data, error) {
	if len(dividers) < 2 {
		return nil, fmt.Errorf("histo: need at least 2 dividers, got %d", len(dividers))
	}
	if !sort.Float64sAreSorted(dividers) {
		return nil, fmt.Errorf("histo: dividers not sorted")
	}
	ret := &Data{
		dividers: append([]float64{}, dividers...),
		histo:    make([]float64, len(dividers)-1),
	}
	ret.AddData(rawdata...)
	return ret, nil
}

// Span returns n evenly spaced dividers covering [min,max].
func Span(min, max float64, n int) []float64 {
	return floats.Span(make([]float64, n), min, max)
}

// AddData adds points to the histogram. Adding to a normalized histogram
// un-normalizes it first, so counts stay consistent.
func (D *Data) AddData(points ...float64) {
	if D.normalized {
		D.UnNormalize()
	}
	for _, p := range points {
		D.total++
		last := len(D.dividers) - 1
		if p < D.dividers[0] || p > D.dividers[last] {
			continue
		}
		bin := sort.SearchFloat64s(D.dividers, p)
		if bin > 0 && D.dividers[bin] != p {
			bin--
		}
		if bin == last {
			bin-- //upper edge of the last bin
		}
		D.histo[bin]++
	}
}

// Total returns the number of points added, including out-of-range ones.
func (D *Data) Total() int {
	return D.total
}

// Dividers returns a copy of the bin dividers.
func (D *Data) Dividers() []float64 {
	return append([]float64{}, D.dividers...)
}

// Histo returns a copy of the bin contents, counts or frequencies depending
// on the normalization state.
func (D *Data) Histo() []float64 {
	return append([]float64{}, D.histo...)
}

// Normalize scales the bins so they sum to one. A no-op on an already
// normalized or empty histogram.
func (D *Data) Normalize() {
	if D.normalized || D.total == 0 {
		return
	}
	s := floats.Sum(D.histo)
	if s > 0 {
		floats.Scale(1/s, D.histo)
	}
	D.normalized = true
}

// UnNormalize restores the bin counts.
func (D *Data) UnNormalize() {
	if !D.normalized {
		return
	}
	s := floats.Sum(D.histo)
	if s > 0 {
		floats.Scale(float64(D.total)/s, D.histo)
	}
	D.normalized = false
}

// Mean returns the bin-center weighted mean of the distribution, 0 when the
// histogram is empty.
func (D *Data) Mean() float64 {
	if floats.Sum(D.histo) == 0 {
		return 0
	}
	return stat.Mean(D.centers(), D.histo)
}

// Mode returns the center of the fullest bin.
func (D *Data) Mode() float64 {
	max := 0
	for i, v := range D.histo {
		if v > D.histo[max] {
			max = i
		}
	}
	return D.centers()[max]
}

func (D *Data) centers() []float64 {
	c := make([]float64, len(D.histo))
	for i := range c {
		c[i] = (D.dividers[i] + D.dividers[i+1]) / 2
	}
	return c
}
