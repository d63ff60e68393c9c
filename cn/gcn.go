package cn

import (
	"math"

	"github.com/devnelly/gocoord/neighbor"
)

// GCNResult holds the four generalized-coordination-number variants of one
// atom. None of the variants depends on another's output; all four only read
// the neighbor distances and species.
type GCNResult struct {
	GCN      float64 //pure distance-decay sum
	WGCN     float64 //species-weighted distance-decay sum
	SnWGCN   float64 //species-weighted count in a single radial band
	ShellGCN float64 //species-weighted counts over the configured shell list
}

// GCN computes the four descriptor variants for atom i. Only metal neighbors
// contribute; oxygen and any other non-metal species are outside the GCN
// model. When GCN computation is disabled in the parameter table, all four
// values are 0.
func (e *Engine) GCN(i int, species []string, nt *neighbor.Table) GCNResult {
	var res GCNResult
	if !e.p.GCN.Enable {
		return res
	}
	g := &e.p.GCN
	for _, nb := range nt.Neighbors(i) {
		sj := species[nb.Index]
		if !e.p.Metal(sj) {
			continue
		}
		d := nb.Dist
		if d <= g.Standard.Cutoff {
			res.GCN += math.Exp(-d / g.Standard.R0)
		}
		if w, ok := g.Weighted.Weights[sj]; ok && d <= g.Weighted.Cutoff {
			res.WGCN += w * math.Exp(-d/g.Weighted.R0)
		}
		if w, ok := g.Band.Weights[sj]; ok && d >= g.Band.RMin && d <= g.Band.RMax {
			res.SnWGCN += w
		}
		for _, sh := range g.Shells {
			if w, ok := sh.Weights[sj]; ok && d >= sh.RMin && d <= sh.RMax {
				res.ShellGCN += w
			}
		}
	}
	return res
}
