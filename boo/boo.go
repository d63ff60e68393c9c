package boo

import (
	"math"
	"math/cmplx"

	"github.com/devnelly/gocoord/neighbor"
	"github.com/devnelly/gocoord/param"
	"gonum.org/v1/gonum/mat"
)

// Overlapping positions make the bond angles meaningless; neighbors closer
// than this are left out of the order-parameter sums.
const MinBondDist = 0.1

// Structure labels produced by Classify.
const (
	FCC       = "FCC-like"
	ICO       = "ICO-like"
	HCP       = "HCP-like"
	BCC       = "BCC-like"
	Partially = "Partially-Ordered"
	Liquid    = "Liquid-like"
	Disorder  = "Disordered"
)

// Engine computes per-atom order parameters under the dedicated
// order-parameter cutoff, which is independent from the coordination-number
// cutoffs. It keeps no per-frame state.
type Engine struct {
	ord    param.Order
	metals map[string]bool
}

// NewEngine builds an order-parameter engine from the parameter table.
func NewEngine(p *param.Params) *Engine {
	m := make(map[string]bool, len(p.Metals))
	for _, s := range p.Metals {
		m[s] = true
	}
	return &Engine{ord: p.Order, metals: m}
}

// Ql computes the rank-l Steinhardt order parameter of atom i:
//
//	q_lm = (1/N_b) Σ_j Y_lm(θ_ij, φ_ij)
//	Q_l  = sqrt(4π/(2l+1) Σ_m |q_lm|²)
//
// Neighbors beyond the cutoff, non-metal neighbors (when the table says
// metal-only) and overlapping positions are skipped. If fewer than the
// configured minimum number of bond vectors remain, Ql is 0 (never NaN), so
// downstream aggregation needs no special-case filtering.
func (e *Engine) Ql(l, i int, species []string, coords *mat.Dense, nt *neighbor.Table) float64 {
	qlm := make([]complex128, 2*l+1)
	nb := 0
	xi, yi, zi := coords.At(i, 0), coords.At(i, 1), coords.At(i, 2)
	for _, n := range nt.Neighbors(i) {
		if n.Dist <= MinBondDist || n.Dist >= e.ord.Cutoff {
			continue
		}
		if e.ord.MetalOnly && !e.metals[species[n.Index]] {
			continue
		}
		j := n.Index
		theta, phi := Angles(coords.At(j, 0)-xi, coords.At(j, 1)-yi, coords.At(j, 2)-zi, n.Dist)
		for m := -l; m <= l; m++ {
			qlm[m+l] += Ylm(l, m, theta, phi)
		}
		nb++
	}
	if nb == 0 || nb < e.ord.MinNeighbors {
		return 0
	}
	return QlNorm(l, qlm, nb)
}

// QlNorm turns accumulated (unnormalized) q_lm sums over nbonds bond vectors
// into the rank-l order parameter. It is shared with the whole-cluster
// computation, which pools bond vectors across many atoms before normalizing.
func QlNorm(l int, qlm []complex128, nbonds int) float64 {
	var sum float64
	for _, q := range qlm {
		a := cmplx.Abs(q / complex(float64(nbonds), 0))
		sum += a * a
	}
	return math.Sqrt(4 * math.Pi / float64(2*l+1) * sum)
}

// Classify derives the local-structure label from the joint (Q4, Q6) value
// using the fixed thresholds of the parameter table. The thresholds
// correspond to reference values of common packing motifs; they are
// configuration, never fitted to the data.
func Classify(q4, q6 float64, t param.Thresholds) string {
	switch {
	case q6 > t.Q6High:
		if q4 > t.Q4FCC {
			return FCC
		}
		return ICO
	case q6 > t.Q6Mid:
		switch {
		case q4 > t.Q4FCC:
			return FCC
		case q4 > t.Q4HCP:
			return HCP
		default:
			return BCC
		}
	case q6 > t.Q6Partial:
		return Partially
	case q6 > t.Q6Liquid:
		return Liquid
	default:
		return Disorder
	}
}
