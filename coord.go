package coord

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Common species labels. Any string is a valid species; these are the ones the
// default parameter table knows about.
const (
	Pt = "Pt"
	Sn = "Sn"
	O  = "O"
)

// Frame is one snapshot of a trajectory: per-atom species labels and cartesian
// coordinates in an N×3 matrix, one row vector per atom. A Frame is immutable
// once built; the pipeline never writes to Coords.
type Frame struct {
	Index   int     //frame index in the original trajectory (sampling included)
	Time    float64 //simulation time, in ps
	Species []string
	Coords  *mat.Dense
}

// NewFrame builds a Frame after checking that species and coordinates agree in
// size. The coordinate matrix must have 3 columns.
func NewFrame(index int, time float64, species []string, coords *mat.Dense) (*Frame, error) {
	r, c := coords.Dims()
	if c != 3 {
		return nil, fmt.Errorf("coord: frame %d: coordinates must have 3 columns, got %d", index, c)
	}
	if r != len(species) {
		return nil, fmt.Errorf("coord: frame %d: %d species labels for %d coordinate rows", index, len(species), r)
	}
	return &Frame{Index: index, Time: time, Species: species, Coords: coords}, nil
}

// Len returns the number of atoms in the frame.
func (F *Frame) Len() int {
	r, _ := F.Coords.Dims()
	return r
}

// Pos returns the cartesian coordinates of the ith atom. It panics if i is out
// of range, as the corresponding slice access would.
func (F *Frame) Pos(i int) (x, y, z float64) {
	return F.Coords.At(i, 0), F.Coords.At(i, 1), F.Coords.At(i, 2)
}

// Indexes returns the indexes of all atoms whose species is in the given set.
// An empty set selects every atom.
func (F *Frame) Indexes(species ...string) []int {
	ret := make([]int, 0, F.Len())
	for i, s := range F.Species {
		if len(species) == 0 {
			ret = append(ret, i)
			continue
		}
		for _, want := range species {
			if s == want {
				ret = append(ret, i)
				break
			}
		}
	}
	return ret
}

// Traj is the interface for a trajectory source. It follows the usual
// contract: Next fills the given, preallocated N×3 matrix with the coordinates
// of the next frame, or discards the frame if passed nil. The normal
// end-of-trajectory condition is reported as a LastFrameError.
type Traj interface {

	//Is the trajectory ready to be read?
	Readable() bool

	//Next reads the next frame into coords, or discards it if coords is nil.
	Next(coords *mat.Dense) error

	//Len returns the number of atoms per frame.
	Len() int
}

// ConcTraj is a trajectory that can feed several concurrent workers. NextConc
// reads len(frames) frames and returns one channel per frame; each channel
// delivers its frame's coordinates exactly once, in frame order.
type ConcTraj interface {

	//Is the trajectory ready to be read?
	Readable() bool

	//NextConc reads as many frames as elements in the slice, delivering each
	//through the corresponding returned channel.
	NextConc(frames []*mat.Dense) ([]chan *mat.Dense, error)

	//Len returns the number of atoms per frame.
	Len() int
}

// AtomRecord is one output row: every per-atom descriptor for one atom in one
// frame. Records are write-once; the pipeline never revisits them.
type AtomRecord struct {
	FrameIndex int
	Time       float64
	Atom       int
	Species    string

	//smooth coordination numbers, keyed by bond-type label ("Pt-Sn"), plus
	//the mean bonded distance per bond type.
	CN      map[string]float64
	CNTotal float64
	AvgDist map[string]float64

	//the four generalized-coordination-number variants
	GCN      float64
	WGCN     float64
	SnWGCN   float64
	ShellGCN float64

	//Steinhardt order parameters and the derived local-structure label
	Q4        float64
	Q6        float64
	Structure string
}

// ClusterRecord is one whole-cluster output row for one frame and one
// configured atom subset.
type ClusterRecord struct {
	FrameIndex int
	Time       float64
	Subset     string
	N          int

	//Q6Global pools every bond vector of the subset into a single q6m average
	//before taking the norm. Q6Mean is the arithmetic mean of the per-atom Q6
	//values, which is in general a different (and less phase-aware) quantity.
	Q6Global float64
	Q6Mean   float64

	//geometry statistics over the subset positions
	Gyration  float64
	Extents   [3]float64
	DistToCen map[string]float64 //per-species mean distance to the centroid

	//mean per-atom Q6 of the radially outer and inner portions of the subset
	SurfaceQ6 float64
	CoreQ6    float64
}
