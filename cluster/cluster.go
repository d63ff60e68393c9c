// Package cluster computes whole-cluster descriptors: a pooled global Q6 per
// configured atom subset, and the geometry statistics of each subset (radius
// of gyration, bounding extents, radial species distribution, surface/core
// order split).
package cluster

import (
	"math"
	"sort"

	coord "github.com/devnelly/gocoord"
	"github.com/devnelly/gocoord/boo"
	"github.com/devnelly/gocoord/neighbor"
	"github.com/devnelly/gocoord/param"
	"gonum.org/v1/gonum/stat"
)

// Aggregator computes per-frame, per-subset cluster records. Like the other
// engines it is stateless across frames.
type Aggregator struct {
	p   *param.Params
	boo *boo.Engine
}

// NewAggregator returns an aggregator over the table's configured subsets.
func NewAggregator(p *param.Params) *Aggregator {
	return &Aggregator{p: p, boo: boo.NewEngine(p)}
}

// Analyze produces one record per configured subset for the given frame. An
// empty subset yields a zero-valued record rather than an error, so frames
// that momentarily lose a species do not break the time series.
func (a *Aggregator) Analyze(f *coord.Frame, nt *neighbor.Table) []coord.ClusterRecord {
	ret := make([]coord.ClusterRecord, 0, len(a.p.Cluster.Subsets))
	for _, sub := range a.p.Cluster.Subsets {
		idx := f.Indexes(sub.Species...)
		rec := coord.ClusterRecord{
			FrameIndex: f.Index,
			Time:       f.Time,
			Subset:     sub.Name,
			N:          len(idx),
			DistToCen:  make(map[string]float64),
		}
		if len(idx) > 0 {
			member := make([]bool, f.Len())
			for _, i := range idx {
				member[i] = true
			}
			perAtom := a.perAtomQ6(f, nt, idx)
			rec.Q6Global = a.pooledQ6(f, nt, idx, member)
			rec.Q6Mean = stat.Mean(perAtom, nil)
			a.geometry(f, idx, perAtom, &rec)
		}
		ret = append(ret, rec)
	}
	return ret
}

// pooledQ6 averages the q6m of every bond vector inside the subset before
// taking the norm. This is not the same as averaging per-atom Q6 values: the
// pooled average preserves phase cancellation across the whole subset, which
// makes it the physically meaningful global order measure.
func (a *Aggregator) pooledQ6(f *coord.Frame, nt *neighbor.Table, idx []int, member []bool) float64 {
	const l = 6
	qlm := make([]complex128, 2*l+1)
	nbonds := 0
	for _, i := range idx {
		xi, yi, zi := f.Pos(i)
		for _, n := range nt.Neighbors(i) {
			if !member[n.Index] {
				continue
			}
			if n.Dist <= boo.MinBondDist || n.Dist >= a.p.Cluster.Cutoff {
				continue
			}
			xj, yj, zj := f.Pos(n.Index)
			theta, phi := boo.Angles(xj-xi, yj-yi, zj-zi, n.Dist)
			for m := -l; m <= l; m++ {
				qlm[m+l] += boo.Ylm(l, m, theta, phi)
			}
			nbonds++
		}
	}
	if nbonds == 0 {
		return 0
	}
	return boo.QlNorm(l, qlm, nbonds)
}

// perAtomQ6 computes each subset member's Q6 against its full metal
// neighborhood, the same quantity the per-atom records carry. Only the
// averaging mask follows the subset; the neighbor set does not, so the mean
// over a single-species subset still measures order in the whole cluster.
func (a *Aggregator) perAtomQ6(f *coord.Frame, nt *neighbor.Table, idx []int) []float64 {
	ret := make([]float64, len(idx))
	for k, i := range idx {
		ret[k] = a.boo.Ql(6, i, f.Species, f.Coords, nt)
	}
	return ret
}

// geometry fills the geometric statistics of the subset: radius of gyration
// about the centroid, bounding extents, per-species mean distance to the
// centroid, and the surface/core mean Q6 split at the configured radial
// percentile.
func (a *Aggregator) geometry(f *coord.Frame, idx []int, perAtomQ6 []float64, rec *coord.ClusterRecord) {
	n := float64(len(idx))
	var cx, cy, cz float64
	min := [3]float64{math.Inf(1), math.Inf(1), math.Inf(1)}
	max := [3]float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, i := range idx {
		x, y, z := f.Pos(i)
		cx += x
		cy += y
		cz += z
		for d, v := range [3]float64{x, y, z} {
			if v < min[d] {
				min[d] = v
			}
			if v > max[d] {
				max[d] = v
			}
		}
	}
	cx /= n
	cy /= n
	cz /= n
	for d := range rec.Extents {
		rec.Extents[d] = max[d] - min[d]
	}

	radial := make([]float64, len(idx))
	distSum := make(map[string]float64)
	distN := make(map[string]int)
	var msq float64
	for k, i := range idx {
		x, y, z := f.Pos(i)
		dx, dy, dz := x-cx, y-cy, z-cz
		r2 := dx*dx + dy*dy + dz*dz
		msq += r2
		radial[k] = math.Sqrt(r2)
		s := f.Species[i]
		distSum[s] += radial[k]
		distN[s]++
	}
	rec.Gyration = math.Sqrt(msq / n)
	for s, sum := range distSum {
		rec.DistToCen[s] = sum / float64(distN[s])
	}

	//surface/core split at the configured radial percentile
	sorted := append([]float64{}, radial...)
	sort.Float64s(sorted)
	cut := stat.Quantile(a.p.Geometry.SurfacePercentile/100, stat.Empirical, sorted, nil)
	var surfSum, coreSum float64
	var surfN, coreN int
	for k := range idx {
		if radial[k] >= cut {
			surfSum += perAtomQ6[k]
			surfN++
		} else {
			coreSum += perAtomQ6[k]
			coreN++
		}
	}
	if surfN > 0 {
		rec.SurfaceQ6 = surfSum / float64(surfN)
	}
	if coreN > 0 {
		rec.CoreQ6 = coreSum / float64(coreN)
	}
}
