// Package neighbor builds per-frame neighbor tables: every unordered atom
// pair within a search radius, with its scalar distance. Tables are derived
// data, rebuilt for each frame and never shared between frames.
package neighbor

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Neighbor is one entry of an atom's adjacency list.
type Neighbor struct {
	Index int
	Dist  float64
}

// Table holds, for one frame, the pair list and the per-atom adjacency lists
// derived from it. The pair list reports each unordered pair exactly once,
// with I < J; the adjacency lists contain both directions.
type Table struct {
	maxRadius float64
	natoms    int
	I, J      []int
	D         []float64
	adj       [][]Neighbor
}

// New computes the neighbor table for an N×3 coordinate matrix. Pairs at
// near-zero distance (overlapping atoms) are reported as-is; it is the input
// data's responsibility to avoid physically impossible overlaps. The result
// does not depend on atom ordering beyond the indexes themselves: pair (i,j)
// and pair (j,i) are the same entry.
func New(coords *mat.Dense, maxRadius float64) *Table {
	n, _ := coords.Dims()
	t := &Table{
		maxRadius: maxRadius,
		natoms:    n,
		adj:       make([][]Neighbor, n),
	}
	raw := coords.RawMatrix()
	for i := 0; i < n; i++ {
		xi, yi, zi := raw.Data[i*raw.Stride], raw.Data[i*raw.Stride+1], raw.Data[i*raw.Stride+2]
		for j := i + 1; j < n; j++ {
			dx := raw.Data[j*raw.Stride] - xi
			dy := raw.Data[j*raw.Stride+1] - yi
			dz := raw.Data[j*raw.Stride+2] - zi
			d2 := dx*dx + dy*dy + dz*dz
			if d2 > maxRadius*maxRadius {
				continue
			}
			d := math.Sqrt(d2)
			t.I = append(t.I, i)
			t.J = append(t.J, j)
			t.D = append(t.D, d)
			t.adj[i] = append(t.adj[i], Neighbor{Index: j, Dist: d})
			t.adj[j] = append(t.adj[j], Neighbor{Index: i, Dist: d})
		}
	}
	return t
}

// Len returns the number of unordered pairs in the table.
func (t *Table) Len() int {
	return len(t.D)
}

// NAtoms returns the number of atoms the table was built for.
func (t *Table) NAtoms() int {
	return t.natoms
}

// MaxRadius returns the search radius the table was built with.
func (t *Table) MaxRadius() float64 {
	return t.maxRadius
}

// Neighbors returns atom i's adjacency list: every atom within the search
// radius and its distance. The returned slice is owned by the table and must
// not be modified. An isolated atom gets an empty list, not an error.
func (t *Table) Neighbors(i int) []Neighbor {
	return t.adj[i]
}
