// Package boo computes Steinhardt bond-orientational order parameters (Q4,
// Q6) per atom and the discretized local-structure label derived from them.
package boo

import (
	"math"
	"math/cmplx"
)

// Ylm evaluates the complex spherical harmonic Y_l^m at the polar angle theta
// and azimuthal angle phi. The associated Legendre polynomial is computed with
// the stable upward recurrence, which is plenty for the small degrees (l = 4
// and l = 6) used here. |m| > l yields 0.
func Ylm(l, m int, theta, phi float64) complex128 {
	am := m
	if am < 0 {
		am = -am
	}
	if am > l {
		return 0
	}
	x := math.Cos(theta)

	//P_m^m(x), the recurrence seed
	plm := sign(am) * doubleFactorial(2*am-1) * math.Pow(1-x*x, float64(am)/2)
	if l > am {
		pm1m := x * float64(2*am+1) * plm
		if l == am+1 {
			plm = pm1m
		} else {
			prev, cur := plm, pm1m
			for ell := am + 2; ell <= l; ell++ {
				plm = (float64(2*ell-1)*x*cur - float64(ell+am-1)*prev) / float64(ell-am)
				prev, cur = cur, plm
			}
		}
	}
	if m < 0 {
		//Condon-Shortley phase relation for negative m
		plm = sign(am) * factorial(l-am) / factorial(l+am) * plm
	}
	norm := math.Sqrt(float64(2*l+1) / (4 * math.Pi) * factorial(l-am) / factorial(l+am))
	return complex(norm*plm, 0) * cmplx.Exp(complex(0, float64(m)*phi))
}

// Angles converts a bond vector of length r into the polar and azimuthal
// angles of the fixed laboratory frame. The cosine is clamped against
// floating-point overshoot before the Acos.
func Angles(dx, dy, dz, r float64) (theta, phi float64) {
	c := dz / r
	if c > 1 {
		c = 1
	} else if c < -1 {
		c = -1
	}
	return math.Acos(c), math.Atan2(dy, dx)
}

func sign(m int) float64 {
	if m%2 != 0 {
		return -1
	}
	return 1
}

func factorial(n int) float64 {
	r := 1.0
	for i := 2; i <= n; i++ {
		r *= float64(i)
	}
	return r
}

func doubleFactorial(n int) float64 {
	r := 1.0
	for i := n; i > 0; i -= 2 {
		r *= float64(i)
	}
	return r
}
