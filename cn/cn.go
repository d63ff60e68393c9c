package cn

import (
	"fmt"
	"strings"

	"github.com/devnelly/gocoord/neighbor"
	"github.com/devnelly/gocoord/param"
)

// Engine computes per-atom coordination numbers and GCN descriptors from a
// validated parameter table. It keeps no per-frame state, so one Engine can
// serve any number of concurrent frame computations.
type Engine struct {
	p *param.Params
}

// NewEngine validates the parameter table and returns an engine. A bad table
// is rejected here, before any frame is processed.
func NewEngine(p *param.Params) (*Engine, error) {
	if p == nil {
		return nil, fmt.Errorf("cn: nil parameter table")
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("cn: %w", err)
	}
	return &Engine{p: p}, nil
}

// Result holds the smooth coordination numbers of one atom, keyed by
// bond-type label, the mean bonded distance per bond type, and the total over
// all bond types involving the atom's species. Every bond type configured for
// the species appears in ByBond, with 0 for an empty neighbor set.
type Result struct {
	ByBond  map[string]float64
	AvgDist map[string]float64
	Total   float64
}

// CN computes the smooth coordination numbers of atom i:
//
//	CN_type(i) = Σ_j sw(d_ij)  over neighbors j of the type's other species
//
// The bonded-distance average per bond type only counts neighbors closer than
// 1.5×Rcut, so the smooth tail does not drag it towards the search radius.
func (e *Engine) CN(i int, species []string, nt *neighbor.Table) Result {
	res := Result{
		ByBond:  make(map[string]float64),
		AvgDist: make(map[string]float64),
	}
	si := species[i]
	for key := range e.p.Bonds {
		a, b, ok := strings.Cut(key, "-")
		if ok && (a == si || b == si) {
			res.ByBond[param.Key(a, b)] = 0
		}
	}
	counts := make(map[string]int)
	for _, nb := range nt.Neighbors(i) {
		sj := species[nb.Index]
		sw, ok := e.p.Bond(si, sj)
		if !ok {
			continue
		}
		key := param.Key(si, sj)
		res.ByBond[key] += Switch(nb.Dist, sw)
		if nb.Dist < 1.5*sw.Rcut {
			res.AvgDist[key] += nb.Dist
			counts[key]++
		}
	}
	for key, n := range counts {
		res.AvgDist[key] /= float64(n)
	}
	for _, v := range res.ByBond {
		res.Total += v
	}
	return res
}
