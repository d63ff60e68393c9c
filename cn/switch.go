// Package cn computes smooth coordination numbers and the four
// generalized-coordination-number (GCN) descriptor variants. The smooth
// switching function replaces a hard neighbor cutoff so the coordination
// number varies continuously with atomic displacement; the descriptors
// correlated downstream are sensitive to small CN discontinuities.
package cn

import (
	"math"

	"github.com/devnelly/gocoord/param"
)

// denominator values closer to zero than this take the analytic limit
const singular = 1e-7

// Switch evaluates the smooth neighbor weight for a distance r:
//
//	x = (r - D0) / R0
//	sw = (1 - x^NN) / (1 - x^MM)
//
// The x = 1 singularity (both numerator and denominator vanish) is handled
// with the analytic limit NN/MM rather than an unstable division. Past Dmax
// the weight is 0, and negative values are clipped to 0.
func Switch(r float64, s param.Switching) float64 {
	if r > s.Dmax {
		return 0
	}
	x := (r - s.D0) / s.R0
	den := 1 - math.Pow(x, float64(s.MM))
	if math.Abs(den) < singular {
		return float64(s.NN) / float64(s.MM)
	}
	sw := (1 - math.Pow(x, float64(s.NN))) / den
	if sw < 0 {
		return 0
	}
	return sw
}
