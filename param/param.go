// Package param holds the parameter tables that fully determine the
// descriptor pipeline: switching-function parameters per bond type, the GCN
// weight and shell tables, the order-parameter cutoffs and structure
// thresholds, and the cluster subset definitions. A Params value is built
// once, validated, and passed explicitly to every engine; nothing in this
// module reads mutable global state.
package param

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Switching holds the parameters of the smooth neighbor-weight function for
// one bond type, plus the hard cutoff (Rcut) used for bonded-distance
// averages. The function is sw(r) = (1-x^NN)/(1-x^MM) with x = (r-D0)/R0; it
// is monotonic and bounded in [0,1] past D0 only when R0 > 0 and NN < MM.
type Switching struct {
	D0   float64 `yaml:"d0"`
	R0   float64 `yaml:"r0"`
	NN   int     `yaml:"nn"`
	MM   int     `yaml:"mm"`
	Dmax float64 `yaml:"dmax"`
	Rcut float64 `yaml:"rcut"`
}

// Standard configures the plain distance-decay GCN variant.
type Standard struct {
	R0     float64 `yaml:"r0"`
	Cutoff float64 `yaml:"cutoff"`
}

// Weighted configures the species-weighted distance-decay GCN variant.
type Weighted struct {
	R0      float64            `yaml:"r0"`
	Cutoff  float64            `yaml:"cutoff"`
	Weights map[string]float64 `yaml:"weights"`
}

// ShellBand is one radial interval with per-species occupancy weights.
type ShellBand struct {
	RMin    float64            `yaml:"rmin"`
	RMax    float64            `yaml:"rmax"`
	Weights map[string]float64 `yaml:"weights"`
}

// GCN configures the four generalized-coordination-number variants.
type GCN struct {
	Enable   bool        `yaml:"enable"`
	Standard Standard    `yaml:"standard"`
	Weighted Weighted    `yaml:"weighted"`
	Band     ShellBand   `yaml:"band"`
	Shells   []ShellBand `yaml:"shells"`
}

// Thresholds are the fixed numeric boundaries of the (Q4, Q6) structure
// classifier. They correspond to reference values for common local packing
// motifs and are configuration, never derived from the data.
type Thresholds struct {
	Q6High    float64 `yaml:"q6_high"`
	Q6Mid     float64 `yaml:"q6_mid"`
	Q6Partial float64 `yaml:"q6_partial"`
	Q6Liquid  float64 `yaml:"q6_liquid"`
	Q4FCC     float64 `yaml:"q4_fcc"`
	Q4HCP     float64 `yaml:"q4_hcp"`
}

// Order configures the per-atom Q4/Q6 computation. The cutoff is independent
// from the coordination-number cutoffs. MetalOnly restricts the neighbor set
// to the metal species. An atom with fewer than MinNeighbors bond vectors
// within the cutoff gets Ql = 0.
type Order struct {
	Cutoff       float64    `yaml:"cutoff"`
	MinNeighbors int        `yaml:"min_neighbors"`
	MetalOnly    bool       `yaml:"metal_only"`
	Thresholds   Thresholds `yaml:"thresholds"`
}

// Subset names a whole-cluster atom selection. An empty species list selects
// every atom in the frame.
type Subset struct {
	Name    string   `yaml:"name"`
	Species []string `yaml:"species"`
}

// Cluster configures the whole-cluster (global) Q6 computation.
type Cluster struct {
	Cutoff  float64  `yaml:"cutoff"`
	Subsets []Subset `yaml:"subsets"`
}

// Geometry configures the geometry statistics. SurfacePercentile is the
// radial percentile (0-100) above which subset atoms count as surface.
type Geometry struct {
	SurfacePercentile float64 `yaml:"surface_percentile"`
}

// Params is the full, immutable configuration of the pipeline. Bond-type keys
// are "A-B" species pairs; lookup through Bond is symmetric.
type Params struct {
	Metals   []string             `yaml:"metals"`
	Bonds    map[string]Switching `yaml:"bonds"`
	GCN      GCN                  `yaml:"gcn"`
	Order    Order                `yaml:"order"`
	Cluster  Cluster              `yaml:"cluster"`
	Geometry Geometry             `yaml:"geometry"`
}

// Defaults returns the reference parameter set for PtSn/PtSnO clusters.
func Defaults() *Params {
	return &Params{
		Metals: []string{"Pt", "Sn"},
		Bonds: map[string]Switching{
			"Pt-Pt": {D0: 0.1, R0: 2.9, NN: 6, MM: 12, Dmax: 10.0, Rcut: 3.0},
			"Pt-Sn": {D0: 0.1, R0: 3.1, NN: 6, MM: 12, Dmax: 10.0, Rcut: 3.2},
			"Sn-Sn": {D0: 0.1, R0: 3.3, NN: 6, MM: 12, Dmax: 10.0, Rcut: 3.4},
		},
		GCN: GCN{
			Enable:   true,
			Standard: Standard{R0: 0.3, Cutoff: 3.0},
			Weighted: Weighted{R0: 0.3, Cutoff: 3.0, Weights: map[string]float64{"Pt": 1.0, "Sn": 2.0}},
			Band:     ShellBand{RMin: 2.0, RMax: 2.8, Weights: map[string]float64{"Pt": 0.8, "Sn": 2.5}},
			Shells: []ShellBand{
				{RMin: 2.0, RMax: 2.5, Weights: map[string]float64{"Pt": 1.0, "Sn": 3.0}},
				{RMin: 2.5, RMax: 3.0, Weights: map[string]float64{"Pt": 0.8, "Sn": 2.0}},
				{RMin: 3.0, RMax: 3.5, Weights: map[string]float64{"Pt": 0.2, "Sn": 0.6}},
			},
		},
		Order: Order{
			Cutoff:       3.5,
			MinNeighbors: 4,
			MetalOnly:    true,
			Thresholds: Thresholds{
				Q6High:    0.60,
				Q6Mid:     0.50,
				Q6Partial: 0.35,
				Q6Liquid:  0.25,
				Q4FCC:     0.15,
				Q4HCP:     0.08,
			},
		},
		Cluster: Cluster{
			Cutoff: 3.5,
			Subsets: []Subset{
				{Name: "all"},
				{Name: "metal", Species: []string{"Pt", "Sn"}},
				{Name: "Pt", Species: []string{"Pt"}},
				{Name: "Sn", Species: []string{"Sn"}},
			},
		},
		Geometry: Geometry{SurfacePercentile: 70},
	}
}

// Load reads a YAML file and overlays it on the defaults, so a parameter file
// only needs to mention what it changes. The result is validated.
func Load(filename string) (*Params, error) {
	p := Defaults()
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("param: reading %s: %w", filename, err)
	}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("param: parsing %s: %w", filename, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("param: %s: %w", filename, err)
	}
	return p, nil
}

// Key returns the canonical map key for the bond type between two species.
// The pair is unordered: Key("Sn","Pt") == Key("Pt","Sn").
func Key(a, b string) string {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return a + "-" + b
}

// Bond returns the switching parameters for the bond type between species a
// and b, in either order. The second return is false when no such bond type
// is configured.
func (p *Params) Bond(a, b string) (Switching, bool) {
	if s, ok := p.Bonds[Key(a, b)]; ok {
		return s, true
	}
	//tolerate non-canonical keys in hand-written parameter files
	if s, ok := p.Bonds[a+"-"+b]; ok {
		return s, true
	}
	s, ok := p.Bonds[b+"-"+a]
	return s, ok
}

// Metal reports whether the species is one of the configured metals.
func (p *Params) Metal(species string) bool {
	for _, m := range p.Metals {
		if m == species {
			return true
		}
	}
	return false
}

// MaxRadius returns the largest search radius any engine needs, so one
// neighbor table per frame can serve every consumer.
func (p *Params) MaxRadius() float64 {
	max := p.Order.Cutoff
	if p.Cluster.Cutoff > max {
		max = p.Cluster.Cutoff
	}
	for _, b := range p.Bonds {
		if b.Dmax > max {
			max = b.Dmax
		}
		//bonded-distance averages look up to 1.5×Rcut
		if 1.5*b.Rcut > max {
			max = 1.5 * b.Rcut
		}
	}
	if p.GCN.Enable {
		if p.GCN.Standard.Cutoff > max {
			max = p.GCN.Standard.Cutoff
		}
		if p.GCN.Weighted.Cutoff > max {
			max = p.GCN.Weighted.Cutoff
		}
		if p.GCN.Band.RMax > max {
			max = p.GCN.Band.RMax
		}
		for _, s := range p.GCN.Shells {
			if s.RMax > max {
				max = s.RMax
			}
		}
	}
	return max
}

// Validate checks the whole table and fails fast on the first problem, so a
// bad configuration is caught at construction and never mid-trajectory.
func (p *Params) Validate() error {
	if len(p.Bonds) == 0 {
		return fmt.Errorf("no bond types configured")
	}
	//deterministic error reporting
	keys := make([]string, 0, len(p.Bonds))
	for k := range p.Bonds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b := p.Bonds[k]
		if b.R0 <= 0 {
			return fmt.Errorf("bond %s: R0 must be positive, got %g", k, b.R0)
		}
		if b.NN >= b.MM {
			return fmt.Errorf("bond %s: NN (%d) must be smaller than MM (%d)", k, b.NN, b.MM)
		}
		if b.NN <= 0 {
			return fmt.Errorf("bond %s: NN must be positive, got %d", k, b.NN)
		}
		if b.Dmax <= b.D0 {
			return fmt.Errorf("bond %s: Dmax (%g) must exceed D0 (%g)", k, b.Dmax, b.D0)
		}
	}
	if p.GCN.Enable {
		if p.GCN.Standard.R0 <= 0 || p.GCN.Weighted.R0 <= 0 {
			return fmt.Errorf("gcn: decay lengths must be positive")
		}
		if err := checkBand(p.GCN.Band); err != nil {
			return fmt.Errorf("gcn band: %w", err)
		}
		for i, s := range p.GCN.Shells {
			if err := checkBand(s); err != nil {
				return fmt.Errorf("gcn shell %d: %w", i, err)
			}
		}
	}
	if p.Order.Cutoff <= 0 {
		return fmt.Errorf("order: cutoff must be positive, got %g", p.Order.Cutoff)
	}
	if p.Order.MinNeighbors < 0 {
		return fmt.Errorf("order: min_neighbors must not be negative, got %d", p.Order.MinNeighbors)
	}
	if p.Cluster.Cutoff <= 0 {
		return fmt.Errorf("cluster: cutoff must be positive, got %g", p.Cluster.Cutoff)
	}
	if len(p.Cluster.Subsets) == 0 {
		return fmt.Errorf("cluster: no subsets configured")
	}
	seen := map[string]bool{}
	for _, s := range p.Cluster.Subsets {
		if s.Name == "" {
			return fmt.Errorf("cluster: subset with empty name")
		}
		if seen[s.Name] {
			return fmt.Errorf("cluster: duplicated subset %q", s.Name)
		}
		seen[s.Name] = true
	}
	if p.Geometry.SurfacePercentile < 0 || p.Geometry.SurfacePercentile > 100 {
		return fmt.Errorf("geometry: surface_percentile must be in [0,100], got %g", p.Geometry.SurfacePercentile)
	}
	return nil
}

func checkBand(s ShellBand) error {
	if s.RMin < 0 {
		return fmt.Errorf("rmin must not be negative, got %g", s.RMin)
	}
	if s.RMax <= s.RMin {
		return fmt.Errorf("rmax (%g) must exceed rmin (%g)", s.RMax, s.RMin)
	}
	return nil
}
