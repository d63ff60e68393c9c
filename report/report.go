// Package report turns pipeline results into the CSV time-series files and
// the run summary consumed by the downstream correlation analysis, and
// validates previously written output directories.
package report

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	coord "github.com/devnelly/gocoord"
	"github.com/devnelly/gocoord/boo"
	"github.com/devnelly/gocoord/histo"
	"github.com/devnelly/gocoord/param"
	"github.com/devnelly/gocoord/pipeline"
	"gonum.org/v1/gonum/stat"
)

// Output file names. Validate checks for the same set.
const (
	CoordinationFile  = "coordination_time_series.csv"
	GlobalQ6File      = "cluster_global_q6_time_series.csv"
	GeometryFile      = "cluster_geometry_time_series.csv"
	ComparisonFile    = "element_comparison.csv"
	DistributionsFile = "descriptor_distributions.csv"
	DetectionFile     = "detection_info.txt"
)

// frameKey groups atom records of one frame.
type frameKey struct {
	index int
	time  float64
}

// elementMeans are the per-frame means of every per-atom descriptor for one
// element.
type elementMeans struct {
	n        int
	cn       map[string]float64
	avgDist  map[string]float64
	distN    map[string]int //atoms contributing to avgDist, per bond type
	cnTotal  float64
	gcn      [4]float64 //gcn, wgcn, snwgcn, shellgcn
	q4, q6   float64
	structur string
}

// WriteAll writes every output file into dir, creating it if needed. The
// element columns follow the species actually present in the records, so a
// trajectory without Sn simply has no Sn columns.
func WriteAll(dir string, res *pipeline.Result, p *param.Params, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	elements, counts := detectElements(res)
	if err := writeCoordination(filepath.Join(dir, CoordinationFile), res, p, elements); err != nil {
		return err
	}
	if err := writeGlobalQ6(filepath.Join(dir, GlobalQ6File), res); err != nil {
		return err
	}
	if err := writeGeometry(filepath.Join(dir, GeometryFile), res); err != nil {
		return err
	}
	if err := writeComparison(filepath.Join(dir, ComparisonFile), res, elements); err != nil {
		return err
	}
	if err := writeDistributions(filepath.Join(dir, DistributionsFile), res, elements); err != nil {
		return err
	}
	if err := writeDetection(filepath.Join(dir, DetectionFile), res, elements, counts); err != nil {
		return err
	}
	log.Info("analysis results written", "dir", dir, "frames", res.Frames,
		"skipped", len(res.Skipped), "elements", elements)
	return nil
}

// detectElements returns the metal species present anywhere in the records,
// in a stable order, with the number of distinct atoms carrying each. The
// whole run is scanned: a species missing from the first frame still gets
// its columns.
func detectElements(res *pipeline.Result) ([]string, map[string]int) {
	atoms := make(map[string]map[int]bool)
	for _, a := range res.Atoms {
		if atoms[a.Species] == nil {
			atoms[a.Species] = make(map[int]bool)
		}
		atoms[a.Species][a.Atom] = true
	}
	counts := make(map[string]int, len(atoms))
	elements := make([]string, 0, len(atoms))
	for e, set := range atoms {
		elements = append(elements, e)
		counts[e] = len(set)
	}
	sort.Strings(elements)
	return elements, counts
}

func frames(res *pipeline.Result) []frameKey {
	seen := make(map[int]bool)
	var keys []frameKey
	for _, a := range res.Atoms {
		if !seen[a.FrameIndex] {
			seen[a.FrameIndex] = true
			keys = append(keys, frameKey{a.FrameIndex, a.Time})
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].index < keys[j].index })
	return keys
}

// means computes the per-frame per-element descriptor means, the quantity
// the time-series file carries: whole-cluster trends are much less noisy
// than single-atom traces.
func means(res *pipeline.Result, p *param.Params) map[frameKey]map[string]*elementMeans {
	ret := make(map[frameKey]map[string]*elementMeans)
	for _, a := range res.Atoms {
		key := frameKey{a.FrameIndex, a.Time}
		if ret[key] == nil {
			ret[key] = make(map[string]*elementMeans)
		}
		m := ret[key][a.Species]
		if m == nil {
			m = &elementMeans{cn: make(map[string]float64),
				avgDist: make(map[string]float64), distN: make(map[string]int)}
			ret[key][a.Species] = m
		}
		m.n++
		for k, v := range a.CN {
			m.cn[k] += v
		}
		for k, v := range a.AvgDist {
			if v > 0 {
				m.avgDist[k] += v
				m.distN[k]++
			}
		}
		m.cnTotal += a.CNTotal
		m.gcn[0] += a.GCN
		m.gcn[1] += a.WGCN
		m.gcn[2] += a.SnWGCN
		m.gcn[3] += a.ShellGCN
		m.q4 += a.Q4
		m.q6 += a.Q6
	}
	for _, perElem := range ret {
		for _, m := range perElem {
			n := float64(m.n)
			for k := range m.cn {
				m.cn[k] /= n
			}
			for k := range m.avgDist {
				m.avgDist[k] /= float64(m.distN[k])
			}
			m.cnTotal /= n
			for i := range m.gcn {
				m.gcn[i] /= n
			}
			m.q4 /= n
			m.q6 /= n
			m.structur = boo.Classify(m.q4, m.q6, p.Order.Thresholds)
		}
	}
	return ret
}

// bondColumns returns, per element, the sorted bond-type labels that occur in
// the records for that element.
func bondColumns(res *pipeline.Result, elements []string) map[string][]string {
	found := make(map[string]map[string]bool)
	for _, e := range elements {
		found[e] = make(map[string]bool)
	}
	for _, a := range res.Atoms {
		if f, ok := found[a.Species]; ok {
			for k := range a.CN {
				f[k] = true
			}
		}
	}
	ret := make(map[string][]string, len(elements))
	for e, f := range found {
		cols := make([]string, 0, len(f))
		for k := range f {
			cols = append(cols, k)
		}
		sort.Strings(cols)
		ret[e] = cols
	}
	return ret
}

// flushWriter is a csv.Writer that flushes after every record, so a crashed
// run still leaves a usable prefix of the time series on disk.
type flushWriter struct {
	f *os.File
	w *csv.Writer
}

func newFlushWriter(filename string) (*flushWriter, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("report: creating %s: %w", filename, err)
	}
	return &flushWriter{f: f, w: csv.NewWriter(f)}, nil
}

func (w *flushWriter) Write(record []string) error {
	if err := w.w.Write(record); err != nil {
		return err
	}
	w.w.Flush()
	return w.w.Error()
}

func (w *flushWriter) Close() error {
	w.w.Flush()
	if err := w.w.Error(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', 10, 64)
}

func writeCoordination(filename string, res *pipeline.Result, p *param.Params, elements []string) error {
	w, err := newFlushWriter(filename)
	if err != nil {
		return err
	}
	defer w.Close()

	bonds := bondColumns(res, elements)
	header := []string{"frame", "time_ps"}
	for _, e := range elements {
		header = append(header, e+"_cn_total")
		for _, b := range bonds[e] {
			header = append(header, e+"_cn_"+b)
		}
		for _, b := range bonds[e] {
			header = append(header, e+"_avg_dist_"+b)
		}
		if p.GCN.Enable {
			header = append(header, e+"_gcn_loc", e+"_w_gcn_loc", e+"_sn_w_gcn_loc", e+"_shell_gcn_loc")
		}
		header = append(header, e+"_q6", e+"_q4", e+"_structure")
	}
	if err := w.Write(header); err != nil {
		return err
	}

	perFrame := means(res, p)
	for _, key := range frames(res) {
		row := []string{strconv.Itoa(key.index), ftoa(key.time)}
		for _, e := range elements {
			m := perFrame[key][e]
			if m == nil {
				//species absent in this frame: defined empty cells, like any
				//tabular tool expects for missing data
				gap := 4 + 2*len(bonds[e])
				if p.GCN.Enable {
					gap += 4
				}
				for i := 0; i < gap; i++ {
					row = append(row, "")
				}
				continue
			}
			row = append(row, ftoa(m.cnTotal))
			for _, b := range bonds[e] {
				row = append(row, ftoa(m.cn[b]))
			}
			for _, b := range bonds[e] {
				if m.distN[b] == 0 {
					row = append(row, "")
					continue
				}
				row = append(row, ftoa(m.avgDist[b]))
			}
			if p.GCN.Enable {
				row = append(row, ftoa(m.gcn[0]), ftoa(m.gcn[1]), ftoa(m.gcn[2]), ftoa(m.gcn[3]))
			}
			row = append(row, ftoa(m.q6), ftoa(m.q4), m.structur)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func subsetNames(res *pipeline.Result) []string {
	seen := make(map[string]bool)
	var names []string
	for _, c := range res.Clusters {
		if !seen[c.Subset] {
			seen[c.Subset] = true
			names = append(names, c.Subset)
		}
	}
	return names
}

func writeGlobalQ6(filename string, res *pipeline.Result) error {
	w, err := newFlushWriter(filename)
	if err != nil {
		return err
	}
	defer w.Close()

	names := subsetNames(res)
	header := []string{"frame", "time_ps"}
	for _, n := range names {
		header = append(header, n+"_q6_global", n+"_q6_mean")
	}
	if err := w.Write(header); err != nil {
		return err
	}
	byFrame := make(map[frameKey]map[string]coord.ClusterRecord)
	var keys []frameKey
	for _, c := range res.Clusters {
		key := frameKey{c.FrameIndex, c.Time}
		if byFrame[key] == nil {
			byFrame[key] = make(map[string]coord.ClusterRecord)
			keys = append(keys, key)
		}
		byFrame[key][c.Subset] = c
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].index < keys[j].index })
	for _, key := range keys {
		row := []string{strconv.Itoa(key.index), ftoa(key.time)}
		for _, n := range names {
			c := byFrame[key][n]
			row = append(row, ftoa(c.Q6Global), ftoa(c.Q6Mean))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// writeGeometry reports the geometry statistics of the widest subset (the
// first configured one, "all" by default).
func writeGeometry(filename string, res *pipeline.Result) error {
	w, err := newFlushWriter(filename)
	if err != nil {
		return err
	}
	defer w.Close()

	names := subsetNames(res)
	if len(names) == 0 {
		return w.Write([]string{"frame", "time_ps"})
	}
	main := names[0]
	header := []string{"frame", "time_ps", "gyration_radius",
		"extent_x", "extent_y", "extent_z",
		"pt_avg_dist_to_center", "sn_avg_dist_to_center",
		"surface_q6", "core_q6"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, c := range res.Clusters {
		if c.Subset != main {
			continue
		}
		row := []string{strconv.Itoa(c.FrameIndex), ftoa(c.Time), ftoa(c.Gyration),
			ftoa(c.Extents[0]), ftoa(c.Extents[1]), ftoa(c.Extents[2]),
			ftoa(c.DistToCen["Pt"]), ftoa(c.DistToCen["Sn"]),
			ftoa(c.SurfaceQ6), ftoa(c.CoreQ6)}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func writeComparison(filename string, res *pipeline.Result, elements []string) error {
	w, err := newFlushWriter(filename)
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Write([]string{"Element", "CN_total", "wGCN", "Q6", "Q4"}); err != nil {
		return err
	}
	for _, e := range elements {
		var cn, wgcn, q6, q4 []float64
		for _, a := range res.Atoms {
			if a.Species != e {
				continue
			}
			cn = append(cn, a.CNTotal)
			wgcn = append(wgcn, a.WGCN)
			q6 = append(q6, a.Q6)
			q4 = append(q4, a.Q4)
		}
		if len(cn) == 0 {
			continue
		}
		row := []string{e, ftoa(stat.Mean(cn, nil)), ftoa(stat.Mean(wgcn, nil)),
			ftoa(stat.Mean(q6, nil)), ftoa(stat.Mean(q4, nil))}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// writeDistributions writes whole-run histograms of the total coordination
// number and Q6 per element. The distributions separate coexisting
// environments that the per-frame means blur together.
func writeDistributions(filename string, res *pipeline.Result, elements []string) error {
	w, err := newFlushWriter(filename)
	if err != nil {
		return err
	}
	defer w.Close()

	const bins = 40
	cnDiv := histo.Span(0, 16, bins+1)
	q6Div := histo.Span(0, 1, bins+1)
	if err := w.Write([]string{"element", "descriptor", "bin_low", "bin_high", "frequency"}); err != nil {
		return err
	}
	for _, e := range elements {
		cn, err := histo.New(cnDiv, nil)
		if err != nil {
			return err
		}
		q6, err := histo.New(q6Div, nil)
		if err != nil {
			return err
		}
		for _, a := range res.Atoms {
			if a.Species != e {
				continue
			}
			cn.AddData(a.CNTotal)
			q6.AddData(a.Q6)
		}
		cn.Normalize()
		q6.Normalize()
		descriptors := []struct {
			name string
			h    *histo.Data
		}{{"cn_total", cn}, {"q6", q6}}
		for _, d := range descriptors {
			div := d.h.Dividers()
			for i, freq := range d.h.Histo() {
				row := []string{e, d.name, ftoa(div[i]), ftoa(div[i+1]), ftoa(freq)}
				if err := w.Write(row); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func writeDetection(filename string, res *pipeline.Result, elements []string, counts map[string]int) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("report: creating %s: %w", filename, err)
	}
	defer f.Close()
	fmt.Fprintf(f, "element detection\n=================\n")
	fmt.Fprintf(f, "metal elements: %v\n\natoms per element:\n", elements)
	for _, e := range elements {
		fmt.Fprintf(f, "  %s: %d\n", e, counts[e])
	}
	fmt.Fprintf(f, "\nframes analyzed: %d\n", res.Frames)
	fmt.Fprintf(f, "frames skipped: %d\n", len(res.Skipped))
	return nil
}
