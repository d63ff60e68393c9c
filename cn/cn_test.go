package cn

import (
	"math"
	"testing"

	"github.com/devnelly/gocoord/neighbor"
	"github.com/devnelly/gocoord/param"
	"gonum.org/v1/gonum/mat"
)

func TestSwitchAtD0(t *testing.T) {
	for _, s := range []param.Switching{
		{D0: 0.1, R0: 2.9, NN: 6, MM: 12, Dmax: 10},
		{D0: 2.5, R0: 0.5, NN: 4, MM: 8, Dmax: 10},
		{D0: 1.0, R0: 1.7, NN: 3, MM: 9, Dmax: 10},
	} {
		if sw := Switch(s.D0, s); sw != 1.0 {
			t.Errorf("sw(D0) = %g for %+v, want exactly 1", sw, s)
		}
	}
}

func TestSwitchSingularity(t *testing.T) {
	s := param.Switching{D0: 0.1, R0: 2.9, NN: 6, MM: 12, Dmax: 10}
	//x = 1 at r = D0 + R0: both numerator and denominator vanish and the
	//analytic limit is NN/MM.
	got := Switch(s.D0+s.R0, s)
	want := 0.5
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("sw at the singularity: got %g, want %g", got, want)
	}
	//the neighborhood of the singularity must be continuous
	eps := 1e-9
	left := Switch(s.D0+s.R0-eps, s)
	right := Switch(s.D0+s.R0+eps, s)
	if math.Abs(left-want) > 1e-6 || math.Abs(right-want) > 1e-6 {
		t.Errorf("discontinuity around x=1: %g | %g | %g", left, got, right)
	}
}

func TestSwitchMonotonicAndBounded(t *testing.T) {
	s := param.Switching{D0: 0.1, R0: 2.9, NN: 6, MM: 12, Dmax: 10}
	prev := math.Inf(1)
	for r := s.D0; r < s.Dmax+2; r += 0.01 {
		sw := Switch(r, s)
		if sw < 0 || sw > 1 {
			t.Fatalf("sw(%g) = %g out of [0,1]", r, sw)
		}
		if sw > prev+1e-12 {
			t.Fatalf("sw not monotonically decreasing at r=%g: %g > %g", r, sw, prev)
		}
		prev = sw
	}
	if sw := Switch(s.Dmax+0.001, s); sw != 0 {
		t.Errorf("sw past Dmax = %g, want 0", sw)
	}
	if sw := Switch(100, s); sw != 0 {
		t.Errorf("sw(100) = %g, want 0", sw)
	}
}

// two Pt atoms at exactly the Pt-Pt reference distance: each sees the other
// with weight 1, so CN_Pt-Pt = 1 on both.
func TestCNDimerAtD0(t *testing.T) {
	p := param.Defaults()
	p.Bonds["Pt-Pt"] = param.Switching{D0: 2.5, R0: 0.5, NN: 6, MM: 12, Dmax: 10, Rcut: 3.0}
	e, err := NewEngine(p)
	if err != nil {
		t.Fatal(err)
	}
	species := []string{"Pt", "Pt"}
	coords := mat.NewDense(2, 3, []float64{0, 0, 0, 2.5, 0, 0})
	nt := neighbor.New(coords, p.MaxRadius())
	for i := 0; i < 2; i++ {
		res := e.CN(i, species, nt)
		if math.Abs(res.ByBond["Pt-Pt"]-1.0) > 1e-12 {
			t.Errorf("atom %d: CN_Pt-Pt = %g, want 1", i, res.ByBond["Pt-Pt"])
		}
		if math.Abs(res.Total-1.0) > 1e-12 {
			t.Errorf("atom %d: CN total = %g, want 1", i, res.Total)
		}
		if math.Abs(res.AvgDist["Pt-Pt"]-2.5) > 1e-12 {
			t.Errorf("atom %d: bonded distance average = %g, want 2.5", i, res.AvgDist["Pt-Pt"])
		}
	}
}

func TestCNIsolatedAtom(t *testing.T) {
	p := param.Defaults()
	e, _ := NewEngine(p)
	species := []string{"Pt"}
	nt := neighbor.New(mat.NewDense(1, 3, []float64{0, 0, 0}), p.MaxRadius())
	res := e.CN(0, species, nt)
	if res.Total != 0 {
		t.Errorf("isolated atom CN total = %g, want 0", res.Total)
	}
	//columns must still be defined, as zeros, for every Pt bond type
	for _, key := range []string{"Pt-Pt", "Pt-Sn"} {
		if v, ok := res.ByBond[key]; !ok || v != 0 {
			t.Errorf("isolated atom %s = %v (present %v), want defined 0", key, v, ok)
		}
	}
	g := e.GCN(0, species, nt)
	if g.GCN != 0 || g.WGCN != 0 || g.SnWGCN != 0 || g.ShellGCN != 0 {
		t.Errorf("isolated atom GCN variants not all 0: %+v", g)
	}
}

func TestGCNVariants(t *testing.T) {
	p := param.Defaults()
	e, err := NewEngine(p)
	if err != nil {
		t.Fatal(err)
	}
	//a Pt center with one Pt neighbor at 2.4 Å and one Sn neighbor at 2.6 Å,
	//plus an O atom that must not contribute to any variant.
	species := []string{"Pt", "Pt", "Sn", "O"}
	coords := mat.NewDense(4, 3, []float64{
		0, 0, 0,
		2.4, 0, 0,
		0, 2.6, 0,
		0, 0, 2.0,
	})
	nt := neighbor.New(coords, p.MaxRadius())
	g := e.GCN(0, species, nt)

	wantGCN := math.Exp(-2.4/0.3) + math.Exp(-2.6/0.3)
	if math.Abs(g.GCN-wantGCN) > 1e-12 {
		t.Errorf("standard gcn = %g, want %g", g.GCN, wantGCN)
	}
	wantW := 1.0*math.Exp(-2.4/0.3) + 2.0*math.Exp(-2.6/0.3)
	if math.Abs(g.WGCN-wantW) > 1e-12 {
		t.Errorf("weighted gcn = %g, want %g", g.WGCN, wantW)
	}
	//both neighbors fall in the 2.0-2.8 band: 0.8 + 2.5
	if math.Abs(g.SnWGCN-3.3) > 1e-12 {
		t.Errorf("band gcn = %g, want 3.3", g.SnWGCN)
	}
	//2.4 is in the first shell (Pt weight 1.0), 2.6 in the second (Sn weight 2.0)
	if math.Abs(g.ShellGCN-3.0) > 1e-12 {
		t.Errorf("shell gcn = %g, want 3.0", g.ShellGCN)
	}
}

func TestGCNDisabled(t *testing.T) {
	p := param.Defaults()
	p.GCN.Enable = false
	e, err := NewEngine(p)
	if err != nil {
		t.Fatal(err)
	}
	species := []string{"Pt", "Pt"}
	nt := neighbor.New(mat.NewDense(2, 3, []float64{0, 0, 0, 2.5, 0, 0}), p.MaxRadius())
	if g := e.GCN(0, species, nt); g != (GCNResult{}) {
		t.Errorf("disabled GCN should yield zeros, got %+v", g)
	}
}

func TestNewEngineRejectsBadTable(t *testing.T) {
	p := param.Defaults()
	b := p.Bonds["Pt-Pt"]
	b.NN, b.MM = 12, 6
	p.Bonds["Pt-Pt"] = b
	if _, err := NewEngine(p); err == nil {
		t.Error("engine accepted NN >= MM")
	}
	if _, err := NewEngine(nil); err == nil {
		t.Error("engine accepted a nil table")
	}
}
