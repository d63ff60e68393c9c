// Package descplot renders the descriptor time series as PNG figures for a
// quick visual sanity check of a run, melting or ordering transitions show
// up immediately in the coordination and Q6 traces.
package descplot

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/devnelly/gocoord/pipeline"
)

// Series is one labeled trace of a figure.
type Series struct {
	Label string
	X     []float64
	Y     []float64
}

func basicPlot(title, xlabel, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Padding = 3 * vg.Millimeter
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())
	return p
}

// TimeSeries draws the given traces against time and saves the figure as a
// PNG under filename.
func TimeSeries(title, ylabel, filename string, series ...Series) error {
	p := basicPlot(title, "time (ps)", ylabel)
	args := make([]interface{}, 0, 2*len(series))
	for _, s := range series {
		pts := make(plotter.XYs, len(s.X))
		for i := range s.X {
			pts[i].X = s.X[i]
			pts[i].Y = s.Y[i]
		}
		args = append(args, s.Label, pts)
	}
	if err := plotutil.AddLines(p, args...); err != nil {
		return fmt.Errorf("descplot: %s: %w", title, err)
	}
	if err := p.Save(15*vg.Centimeter, 10*vg.Centimeter, filename); err != nil {
		return fmt.Errorf("descplot: saving %s: %w", filename, err)
	}
	return nil
}

// WriteAll renders the standard set of figures into dir: per-element total
// coordination, per-element Q6, per-element weighted GCN and per-subset
// global Q6.
func WriteAll(dir string, res *pipeline.Result) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("descplot: %w", err)
	}
	cn, q6, wgcn := elementTraces(res)
	if err := TimeSeries("Total coordination number", "CN", filepath.Join(dir, "cn_time_series.png"), cn...); err != nil {
		return err
	}
	if err := TimeSeries("Bond order parameter Q6", "Q6", filepath.Join(dir, "q6_time_series.png"), q6...); err != nil {
		return err
	}
	if err := TimeSeries("Weighted generalized CN", "wGCN", filepath.Join(dir, "gcn_time_series.png"), wgcn...); err != nil {
		return err
	}
	global, gyr := clusterTraces(res)
	if err := TimeSeries("Whole-cluster Q6", "Q6 (pooled)", filepath.Join(dir, "cluster_q6_time_series.png"), global...); err != nil {
		return err
	}
	return TimeSeries("Cluster compactness", "Rg (A)", filepath.Join(dir, "gyration_time_series.png"), gyr...)
}

// elementTraces averages the per-atom descriptors per frame and element.
func elementTraces(res *pipeline.Result) (cn, q6, wgcn []Series) {
	type acc struct {
		n            int
		cn, q6, wgcn float64
		time         float64
	}
	perElem := make(map[string]map[int]*acc)
	for _, a := range res.Atoms {
		if perElem[a.Species] == nil {
			perElem[a.Species] = make(map[int]*acc)
		}
		v := perElem[a.Species][a.FrameIndex]
		if v == nil {
			v = &acc{time: a.Time}
			perElem[a.Species][a.FrameIndex] = v
		}
		v.n++
		v.cn += a.CNTotal
		v.q6 += a.Q6
		v.wgcn += a.WGCN
	}
	elements := make([]string, 0, len(perElem))
	for e := range perElem {
		elements = append(elements, e)
	}
	sort.Strings(elements)
	for _, e := range elements {
		byFrame := perElem[e]
		idx := make([]int, 0, len(byFrame))
		for i := range byFrame {
			idx = append(idx, i)
		}
		sort.Ints(idx)
		scn := Series{Label: e}
		sq6 := Series{Label: e}
		sw := Series{Label: e}
		for _, i := range idx {
			v := byFrame[i]
			n := float64(v.n)
			scn.X = append(scn.X, v.time)
			scn.Y = append(scn.Y, v.cn/n)
			sq6.X = append(sq6.X, v.time)
			sq6.Y = append(sq6.Y, v.q6/n)
			sw.X = append(sw.X, v.time)
			sw.Y = append(sw.Y, v.wgcn/n)
		}
		cn = append(cn, scn)
		q6 = append(q6, sq6)
		wgcn = append(wgcn, sw)
	}
	return cn, q6, wgcn
}

// clusterTraces builds the per-subset pooled Q6 traces and the gyration
// radius of the first subset.
func clusterTraces(res *pipeline.Result) (global, gyr []Series) {
	perSubset := make(map[string]*Series)
	var names []string
	for _, c := range res.Clusters {
		s := perSubset[c.Subset]
		if s == nil {
			s = &Series{Label: c.Subset}
			perSubset[c.Subset] = s
			names = append(names, c.Subset)
		}
		s.X = append(s.X, c.Time)
		s.Y = append(s.Y, c.Q6Global)
	}
	for _, n := range names {
		global = append(global, *perSubset[n])
	}
	if len(names) > 0 {
		g := Series{Label: names[0]}
		for _, c := range res.Clusters {
			if c.Subset != names[0] {
				continue
			}
			g.X = append(g.X, c.Time)
			g.Y = append(g.Y, c.Gyration)
		}
		gyr = append(gyr, g)
	}
	return global, gyr
}
