// Package pipeline sequences the descriptor engines over single frames and
// whole trajectories. The per-frame computation is stateless and allocates
// only frame-local data, so whole frames can be processed concurrently with
// no synchronization (see RunConc).
package pipeline

import (
	"fmt"

	coord "github.com/devnelly/gocoord"
	"github.com/devnelly/gocoord/boo"
	"github.com/devnelly/gocoord/cluster"
	"github.com/devnelly/gocoord/cn"
	"github.com/devnelly/gocoord/neighbor"
	"github.com/devnelly/gocoord/param"
)

// Processor runs the four engines over one frame at a time and assembles the
// output records. Construction validates the parameter table; a Processor
// that exists can process any frame.
type Processor struct {
	p   *param.Params
	cn  *cn.Engine
	boo *boo.Engine
	agg *cluster.Aggregator
}

// NewProcessor builds a processor from the parameter table, failing fast on
// an invalid table.
func NewProcessor(p *param.Params) (*Processor, error) {
	cne, err := cn.NewEngine(p)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	return &Processor{
		p:   p,
		cn:  cne,
		boo: boo.NewEngine(p),
		agg: cluster.NewAggregator(p),
	}, nil
}

// Params returns the (shared, immutable) parameter table of the processor.
func (pr *Processor) Params() *param.Params {
	return pr.p
}

// Frame computes every descriptor for one frame: one AtomRecord per metal
// atom and one ClusterRecord per configured subset. The frame is never
// mutated and nothing is cached across calls, so repeated invocations on the
// same frame are bit-identical.
func (pr *Processor) Frame(f *coord.Frame) ([]coord.AtomRecord, []coord.ClusterRecord, error) {
	if f == nil || f.Coords == nil {
		return nil, nil, fmt.Errorf("pipeline: nil frame")
	}
	if f.Len() != len(f.Species) {
		return nil, nil, fmt.Errorf("pipeline: frame %d: coordinate/species size mismatch", f.Index)
	}
	nt := neighbor.New(f.Coords, pr.p.MaxRadius())

	atoms := make([]coord.AtomRecord, 0, f.Len())
	for i, s := range f.Species {
		if !pr.p.Metal(s) {
			continue
		}
		cnres := pr.cn.CN(i, f.Species, nt)
		gcn := pr.cn.GCN(i, f.Species, nt)
		q4 := pr.boo.Ql(4, i, f.Species, f.Coords, nt)
		q6 := pr.boo.Ql(6, i, f.Species, f.Coords, nt)
		atoms = append(atoms, coord.AtomRecord{
			FrameIndex: f.Index,
			Time:       f.Time,
			Atom:       i,
			Species:    s,
			CN:         cnres.ByBond,
			CNTotal:    cnres.Total,
			AvgDist:    cnres.AvgDist,
			GCN:        gcn.GCN,
			WGCN:       gcn.WGCN,
			SnWGCN:     gcn.SnWGCN,
			ShellGCN:   gcn.ShellGCN,
			Q4:         q4,
			Q6:         q6,
			Structure:  boo.Classify(q4, q6, pr.p.Order.Thresholds),
		})
	}
	clusters := pr.agg.Analyze(f, nt)
	return atoms, clusters, nil
}
