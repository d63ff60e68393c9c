package histo

import (
	"math"
	"testing"
)

func TestBinning(t *testing.T) {
	h, err := New([]float64{0, 1, 2, 3}, nil)
	if err != nil {
		t.Fatal(err)
	}
	h.AddData(0.0, 0.5, 1.0, 1.5, 2.999, 3.0, -1.0, 4.0)
	want := []float64{2, 2, 2}
	got := h.Histo()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("bin %d: got %g, want %g", i, got[i], want[i])
		}
	}
	if h.Total() != 8 {
		t.Errorf("total: got %d, want 8 (out-of-range points still count)", h.Total())
	}
}

func TestNormalizeRoundTrip(t *testing.T) {
	h, err := New(Span(0, 1, 11), []float64{0.05, 0.15, 0.15, 0.95})
	if err != nil {
		t.Fatal(err)
	}
	h.Normalize()
	sum := 0.0
	for _, v := range h.Histo() {
		sum += v
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Errorf("normalized sum: got %g", sum)
	}
	h.UnNormalize()
	if got := h.Histo()[1]; got != 2 {
		t.Errorf("after un-normalize: bin 1 has %g, want 2", got)
	}
	//adding data to a normalized histogram keeps counts consistent
	h.Normalize()
	h.AddData(0.15)
	if got := h.Histo()[1]; got != 3 {
		t.Errorf("add after normalize: bin 1 has %g, want 3", got)
	}
}

func TestMeanAndMode(t *testing.T) {
	h, err := New([]float64{0, 2, 4, 6}, []float64{1, 1, 1, 3, 5})
	if err != nil {
		t.Fatal(err)
	}
	if got := h.Mode(); got != 1 {
		t.Errorf("mode: got %g, want 1", got)
	}
	if got, want := h.Mean(), (3*1.0+1*3.0+1*5.0)/5; math.Abs(got-want) > 1e-12 {
		t.Errorf("mean: got %g, want %g", got, want)
	}
	empty, _ := New([]float64{0, 1}, nil)
	if got := empty.Mean(); got != 0 {
		t.Errorf("empty mean: got %g", got)
	}
}

func TestBadDividers(t *testing.T) {
	if _, err := New([]float64{1}, nil); err == nil {
		t.Error("single divider accepted")
	}
	if _, err := New([]float64{2, 1}, nil); err == nil {
		t.Error("unsorted dividers accepted")
	}
}
