package cluster

import (
	"math"
	"testing"

	coord "github.com/devnelly/gocoord"
	"github.com/devnelly/gocoord/boo"
	"github.com/devnelly/gocoord/neighbor"
	"github.com/devnelly/gocoord/param"
	"gonum.org/v1/gonum/mat"
)

func frameOf(t *testing.T, species []string, data []float64) *coord.Frame {
	t.Helper()
	f, err := coord.NewFrame(0, 0, species, mat.NewDense(len(species), 3, data))
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func record(t *testing.T, recs []coord.ClusterRecord, subset string) coord.ClusterRecord {
	t.Helper()
	for _, r := range recs {
		if r.Subset == subset {
			return r
		}
	}
	t.Fatalf("no record for subset %q", subset)
	return coord.ClusterRecord{}
}

func TestGeometryStatistics(t *testing.T) {
	p := param.Defaults()
	a := NewAggregator(p)
	//four Pt atoms at the corners of a 2×2 square centered on the origin:
	//centroid at the origin, every radial distance sqrt(2).
	f := frameOf(t, []string{"Pt", "Pt", "Pt", "Pt"}, []float64{
		1, 1, 0,
		1, -1, 0,
		-1, 1, 0,
		-1, -1, 0,
	})
	nt := neighbor.New(f.Coords, p.MaxRadius())
	rec := record(t, a.Analyze(f, nt), "Pt")
	if rec.N != 4 {
		t.Fatalf("Pt subset has %d members, want 4", rec.N)
	}
	if math.Abs(rec.Gyration-math.Sqrt2) > 1e-12 {
		t.Errorf("radius of gyration = %g, want sqrt(2)", rec.Gyration)
	}
	want := [3]float64{2, 2, 0}
	for d := range want {
		if math.Abs(rec.Extents[d]-want[d]) > 1e-12 {
			t.Errorf("extent[%d] = %g, want %g", d, rec.Extents[d], want[d])
		}
	}
	if math.Abs(rec.DistToCen["Pt"]-math.Sqrt2) > 1e-12 {
		t.Errorf("Pt mean distance to centroid = %g, want sqrt(2)", rec.DistToCen["Pt"])
	}
}

func TestSubsetMembership(t *testing.T) {
	p := param.Defaults()
	a := NewAggregator(p)
	f := frameOf(t, []string{"Pt", "Sn", "O"}, []float64{
		0, 0, 0,
		2.7, 0, 0,
		0, 2.0, 0,
	})
	nt := neighbor.New(f.Coords, p.MaxRadius())
	recs := a.Analyze(f, nt)
	if got := record(t, recs, "all").N; got != 3 {
		t.Errorf("all subset: %d members, want 3", got)
	}
	if got := record(t, recs, "metal").N; got != 2 {
		t.Errorf("metal subset: %d members, want 2", got)
	}
	if got := record(t, recs, "Sn").N; got != 1 {
		t.Errorf("Sn subset: %d members, want 1", got)
	}
}

func TestEmptySubsetIsZeroRecord(t *testing.T) {
	p := param.Defaults()
	a := NewAggregator(p)
	f := frameOf(t, []string{"Pt"}, []float64{0, 0, 0})
	nt := neighbor.New(f.Coords, p.MaxRadius())
	rec := record(t, a.Analyze(f, nt), "Sn")
	if rec.N != 0 || rec.Q6Global != 0 || rec.Q6Mean != 0 || rec.Gyration != 0 {
		t.Errorf("empty subset record not zero-valued: %+v", rec)
	}
}

// The mean per-atom Q6 of a subset averages over the subset's members but
// measures each member against its full metal neighborhood. Here the two Sn
// atoms sit on opposite vertices of an FCC shell, far out of bonding range of
// each other: a subset-internal neighbor set would leave them both with zero
// bonds and a zero mean, while against the metal neighborhood they are well
// coordinated and ordered.
func TestSubsetMeanQ6UsesMetalNeighbors(t *testing.T) {
	p := param.Defaults()
	a := NewAggregator(p)
	eng := boo.NewEngine(p)

	dirs := [][3]float64{
		{1, 1, 0}, {1, -1, 0}, {-1, 1, 0}, {-1, -1, 0},
		{1, 0, 1}, {1, 0, -1}, {-1, 0, 1}, {-1, 0, -1},
		{0, 1, 1}, {0, 1, -1}, {0, -1, 1}, {0, -1, -1},
	}
	s := 2.77 / math.Sqrt2
	species := []string{"Pt"}
	data := []float64{0, 0, 0}
	for k, v := range dirs {
		if k == 0 || k == 3 { //opposite vertices, 5.54 A apart
			species = append(species, "Sn")
		} else {
			species = append(species, "Pt")
		}
		data = append(data, v[0]*s, v[1]*s, v[2]*s)
	}
	f := frameOf(t, species, data)
	nt := neighbor.New(f.Coords, p.MaxRadius())
	rec := record(t, a.Analyze(f, nt), "Sn")
	if rec.N != 2 {
		t.Fatalf("Sn subset has %d members, want 2", rec.N)
	}
	if rec.Q6Mean <= 0 {
		t.Fatalf("Sn mean Q6 = %g; metal neighbors should make it positive", rec.Q6Mean)
	}
	want := (eng.Ql(6, 1, f.Species, f.Coords, nt) + eng.Ql(6, 4, f.Species, f.Coords, nt)) / 2
	if math.Abs(rec.Q6Mean-want) > 1e-12 {
		t.Errorf("Sn mean Q6 = %g, want the metal-neighborhood mean %g", rec.Q6Mean, want)
	}
}

// rotZ rotates (x, y, z) by the angle a around the z axis.
func rotZ(x, y, z, a float64) (float64, float64, float64) {
	c, s := math.Cos(a), math.Sin(a)
	return c*x - s*y, s*x + c*y, z
}

// Two well-ordered FCC shells with different orientations, too far apart to
// bond: every atom is locally ordered, so the per-atom mean Q6 stays high,
// but the pooled q6m of the two misaligned domains partially cancels. The
// pooled global Q6 must therefore come out lower than the per-atom mean.
func TestPooledQ6IsNotPerAtomAverage(t *testing.T) {
	p := param.Defaults()
	a := NewAggregator(p)

	dirs := [][3]float64{
		{1, 1, 0}, {1, -1, 0}, {-1, 1, 0}, {-1, -1, 0},
		{1, 0, 1}, {1, 0, -1}, {-1, 0, 1}, {-1, 0, -1},
		{0, 1, 1}, {0, 1, -1}, {0, -1, 1}, {0, -1, -1},
	}
	s := 2.77 / math.Sqrt2
	var species []string
	var data []float64
	//first shell at the origin
	species = append(species, "Pt")
	data = append(data, 0, 0, 0)
	for _, v := range dirs {
		species = append(species, "Pt")
		data = append(data, v[0]*s, v[1]*s, v[2]*s)
	}
	//second shell, rotated and displaced out of bonding range. The rotation
	//angle is not a symmetry of the cubic shell, so the two domains carry
	//different q6m phases; an arbitrary tilt around z is enough.
	const tilt = 0.4
	species = append(species, "Pt")
	data = append(data, 30, 0, 0)
	for _, v := range dirs {
		x, y, z := rotZ(v[0]*s, v[1]*s, v[2]*s, tilt)
		species = append(species, "Pt")
		data = append(data, 30+x, y, z)
	}

	f := frameOf(t, species, data)
	nt := neighbor.New(f.Coords, p.MaxRadius())
	rec := record(t, a.Analyze(f, nt), "Pt")
	if rec.Q6Global <= 0 || rec.Q6Mean <= 0 {
		t.Fatalf("degenerate test setup: pooled %g, mean %g", rec.Q6Global, rec.Q6Mean)
	}
	if rec.Q6Global >= rec.Q6Mean-1e-6 {
		t.Errorf("pooled Q6 (%g) should fall below the per-atom mean (%g) for misaligned domains",
			rec.Q6Global, rec.Q6Mean)
	}
}
