package pipeline

import (
	"math"
	"reflect"
	"testing"

	coord "github.com/devnelly/gocoord"
	"github.com/devnelly/gocoord/boo"
	"github.com/devnelly/gocoord/param"
	"gonum.org/v1/gonum/mat"
)

//in-memory trajectory for tests, with optional per-frame injected failures

type memTraj struct {
	frames []*mat.Dense
	fail   map[int]bool //frames whose read fails recoverably
	pos    int
	natoms int
}

func newMemTraj(natoms int, frames ...*mat.Dense) *memTraj {
	return &memTraj{frames: frames, natoms: natoms, fail: map[int]bool{}}
}

func (m *memTraj) Readable() bool { return m.pos < len(m.frames) }
func (m *memTraj) Len() int       { return m.natoms }

func (m *memTraj) Next(coords *mat.Dense) error {
	if m.pos >= len(m.frames) {
		return lastFrame{}
	}
	i := m.pos
	m.pos++
	if m.fail[i] {
		return readErr{}
	}
	if coords != nil {
		coords.Copy(m.frames[i])
	}
	return nil
}

func (m *memTraj) NextConc(frames []*mat.Dense) ([]chan *mat.Dense, error) {
	chans := make([]chan *mat.Dense, 0, len(frames))
	for _, f := range frames {
		if err := m.Next(f); err != nil {
			if len(chans) == 0 {
				return nil, err
			}
			return chans, err
		}
		c := make(chan *mat.Dense, 1)
		c <- f
		chans = append(chans, c)
	}
	return chans, nil
}

type readErr struct{}

func (readErr) Error() string            { return "bad frame" }
func (readErr) Decorate(string) []string { return nil }
func (readErr) Critical() bool           { return false }
func (readErr) FileName() string         { return "" }
func (readErr) Format() string           { return "mem" }

type lastFrame struct{}

func (lastFrame) Error() string                { return "EOF" }
func (lastFrame) Decorate(string) []string     { return nil }
func (lastFrame) Critical() bool               { return false }
func (lastFrame) FileName() string             { return "" }
func (lastFrame) Format() string               { return "mem" }
func (lastFrame) NormalLastFrameTermination() {}

func fccCluster() ([]string, *mat.Dense) {
	dirs := [][3]float64{
		{1, 1, 0}, {1, -1, 0}, {-1, 1, 0}, {-1, -1, 0},
		{1, 0, 1}, {1, 0, -1}, {-1, 0, 1}, {-1, 0, -1},
		{0, 1, 1}, {0, 1, -1}, {0, -1, 1}, {0, -1, -1},
	}
	s := 2.77 / math.Sqrt2
	species := []string{"Pt"}
	data := []float64{0, 0, 0}
	for _, v := range dirs {
		species = append(species, "Pt")
		data = append(data, v[0]*s, v[1]*s, v[2]*s)
	}
	return species, mat.NewDense(13, 3, data)
}

func TestIsolatedAtomEndToEnd(t *testing.T) {
	pr, err := NewProcessor(param.Defaults())
	if err != nil {
		t.Fatal(err)
	}
	f, _ := coord.NewFrame(0, 0, []string{"Pt"}, mat.NewDense(1, 3, []float64{0, 0, 0}))
	atoms, clusters, err := pr.Frame(f)
	if err != nil {
		t.Fatal(err)
	}
	if len(atoms) != 1 {
		t.Fatalf("expected one atom record, got %d", len(atoms))
	}
	a := atoms[0]
	if a.CNTotal != 0 || a.GCN != 0 || a.WGCN != 0 || a.SnWGCN != 0 || a.ShellGCN != 0 || a.Q4 != 0 || a.Q6 != 0 {
		t.Errorf("isolated atom descriptors not all zero: %+v", a)
	}
	if a.Structure != boo.Disorder {
		t.Errorf("isolated atom classified as %s", a.Structure)
	}
	if len(clusters) != len(pr.Params().Cluster.Subsets) {
		t.Errorf("expected one cluster record per subset, got %d", len(clusters))
	}
}

func TestDimerAtReferenceDistance(t *testing.T) {
	p := param.Defaults()
	p.Bonds["Pt-Pt"] = param.Switching{D0: 2.5, R0: 0.5, NN: 6, MM: 12, Dmax: 10, Rcut: 3.0}
	pr, err := NewProcessor(p)
	if err != nil {
		t.Fatal(err)
	}
	f, _ := coord.NewFrame(0, 0, []string{"Pt", "Pt"},
		mat.NewDense(2, 3, []float64{0, 0, 0, 2.5, 0, 0}))
	atoms, _, err := pr.Frame(f)
	if err != nil {
		t.Fatal(err)
	}
	wantGCN := math.Exp(-2.5 / 0.3)
	for _, a := range atoms {
		if math.Abs(a.CN["Pt-Pt"]-1.0) > 1e-12 {
			t.Errorf("atom %d: CN_Pt-Pt = %g, want 1", a.Atom, a.CN["Pt-Pt"])
		}
		if math.Abs(a.GCN-wantGCN) > 1e-12 {
			t.Errorf("atom %d: gcn = %g, want %g", a.Atom, a.GCN, wantGCN)
		}
	}
}

func TestFCCClusterEndToEnd(t *testing.T) {
	p := param.Defaults()
	//a switching function referenced on the ideal bulk distance, so the 12
	//ideal neighbors each weigh ~1
	p.Bonds["Pt-Pt"] = param.Switching{D0: 2.8, R0: 0.5, NN: 6, MM: 12, Dmax: 10, Rcut: 3.0}
	pr, err := NewProcessor(p)
	if err != nil {
		t.Fatal(err)
	}
	species, coords := fccCluster()
	f, _ := coord.NewFrame(0, 0, species, coords)
	atoms, _, err := pr.Frame(f)
	if err != nil {
		t.Fatal(err)
	}
	central := atoms[0]
	if math.Abs(central.CNTotal-12) > 0.2 {
		t.Errorf("central FCC atom CN total = %g, want ~12", central.CNTotal)
	}
	if math.Abs(central.Q6-0.57452) > 1e-3 {
		t.Errorf("central FCC atom Q6 = %g, want 0.5745", central.Q6)
	}
	if central.Structure != boo.FCC {
		t.Errorf("central FCC atom classified as %s", central.Structure)
	}
}

// two identical runs over the same frames and table must be bit-identical:
// there is no hidden mutable state anywhere in the pipeline.
func TestIdempotence(t *testing.T) {
	pr, err := NewProcessor(param.Defaults())
	if err != nil {
		t.Fatal(err)
	}
	species, coords := fccCluster()
	f, _ := coord.NewFrame(3, 1.5, species, coords)

	a1, c1, err := pr.Frame(f)
	if err != nil {
		t.Fatal(err)
	}
	a2, c2, err := pr.Frame(f)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a1, a2) {
		t.Error("atom records differ between identical runs")
	}
	if !reflect.DeepEqual(c1, c2) {
		t.Error("cluster records differ between identical runs")
	}
}

func TestRunSkipsBadFrames(t *testing.T) {
	species, coords := fccCluster()
	traj := newMemTraj(13, coords, coords, coords)
	traj.fail[1] = true

	pr, err := NewProcessor(param.Defaults())
	if err != nil {
		t.Fatal(err)
	}
	res, err := pr.Run(traj, species)
	if err != nil {
		t.Fatalf("a recoverable frame failure aborted the run: %v", err)
	}
	if res.Frames != 2 {
		t.Errorf("processed %d frames, want 2", res.Frames)
	}
	if len(res.Skipped) != 1 || res.Skipped[0] != 1 {
		t.Errorf("skipped = %v, want [1]", res.Skipped)
	}
}

func TestRunConcSkipsBadFrames(t *testing.T) {
	species, coords := fccCluster()
	pr, err := NewProcessor(param.Defaults())
	if err != nil {
		t.Fatal(err)
	}
	o := DefaultOptions()
	o.Cpus(3)

	traj := newMemTraj(13, coords, coords, coords, coords)
	traj.fail[1] = true
	conc, err := pr.RunConc(traj, species, o)
	if err != nil {
		t.Fatalf("a recoverable frame failure aborted the concurrent run: %v", err)
	}
	if conc.Frames != 3 {
		t.Errorf("processed %d frames, want 3", conc.Frames)
	}
	if len(conc.Skipped) != 1 || conc.Skipped[0] != 1 {
		t.Errorf("skipped = %v, want [1]", conc.Skipped)
	}

	//the sequential driver over the same faulty trajectory must agree
	seqTraj := newMemTraj(13, coords, coords, coords, coords)
	seqTraj.fail[1] = true
	seq, err := pr.Run(seqTraj, species, o)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(seq.Atoms, conc.Atoms) || !reflect.DeepEqual(seq.Skipped, conc.Skipped) {
		t.Error("concurrent and sequential runs disagree on a faulty trajectory")
	}

	//a failure on the first frame of a batch leaves nothing to drain
	first := newMemTraj(13, coords, coords)
	first.fail[0] = true
	res, err := pr.RunConc(first, species, o)
	if err != nil {
		t.Fatalf("first-frame failure aborted the run: %v", err)
	}
	if res.Frames != 1 || len(res.Skipped) != 1 || res.Skipped[0] != 0 {
		t.Errorf("first-frame failure: %d frames, skipped %v", res.Frames, res.Skipped)
	}
}

func TestRunConcMatchesRun(t *testing.T) {
	species, coords := fccCluster()

	pr, err := NewProcessor(param.Defaults())
	if err != nil {
		t.Fatal(err)
	}
	o := DefaultOptions()
	o.Cpus(3)
	o.Interval(10)
	o.Dt(2.0)

	seq, err := pr.Run(newMemTraj(13, coords, coords, coords, coords, coords), species, o)
	if err != nil {
		t.Fatal(err)
	}
	conc, err := pr.RunConc(newMemTraj(13, coords, coords, coords, coords, coords), species, o)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(seq.Atoms, conc.Atoms) {
		t.Error("concurrent and sequential atom records differ")
	}
	if !reflect.DeepEqual(seq.Clusters, conc.Clusters) {
		t.Error("concurrent and sequential cluster records differ")
	}
	if seq.Atoms[13].FrameIndex != 10 || seq.Atoms[13].Time != 20.0 {
		t.Errorf("sampling interval/timestep not stamped on records: %+v", seq.Atoms[13])
	}
}

func TestSkipStride(t *testing.T) {
	species, coords := fccCluster()
	pr, err := NewProcessor(param.Defaults())
	if err != nil {
		t.Fatal(err)
	}
	o := DefaultOptions()
	o.Skip(2)
	o.Cpus(2)

	seq, err := pr.Run(newMemTraj(13, coords, coords, coords, coords, coords), species, o)
	if err != nil {
		t.Fatal(err)
	}
	if seq.Frames != 3 {
		t.Errorf("stride 2 over 5 frames: processed %d, want 3", seq.Frames)
	}
	if seq.Atoms[13].FrameIndex != 2 {
		t.Errorf("second sampled frame stamped as %d, want 2", seq.Atoms[13].FrameIndex)
	}
	conc, err := pr.RunConc(newMemTraj(13, coords, coords, coords, coords, coords), species, o)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(seq.Atoms, conc.Atoms) {
		t.Error("strided concurrent and sequential atom records differ")
	}
}

func TestTrajectoryRestartsFromStart(t *testing.T) {
	species, coords := fccCluster()
	pr, err := NewProcessor(param.Defaults())
	if err != nil {
		t.Fatal(err)
	}
	r1, err := pr.Run(newMemTraj(13, coords, coords), species)
	if err != nil {
		t.Fatal(err)
	}
	r2, err := pr.Run(newMemTraj(13, coords, coords), species)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(r1, r2) {
		t.Error("two scans over the same trajectory differ")
	}
}
