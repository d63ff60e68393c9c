package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ColumnCheck is the per-column outcome of a validation run.
type ColumnCheck struct {
	Name    string
	Rows    int
	Missing int //empty cells
	Bad     int //NaN or out of physical range
	Min     float64
	Max     float64
}

// FileCheck is the per-file outcome of a validation run.
type FileCheck struct {
	Name     string
	Present  bool
	Rows     int
	Columns  []ColumnCheck
	Problems []string
}

// Validation is what Validate returns. OK is true when every required file
// is present, every numeric column stays in its physical range and the data
// completeness of each file clears MinCompleteness.
type Validation struct {
	Files    []FileCheck
	Problems []string
	OK       bool
}

// MinCompleteness is the smallest acceptable fraction of filled numeric
// cells per file. Sparse frames are normal when a species drops out of the
// probe region, entire half-empty tables are not.
const MinCompleteness = 0.5

// columnRange gives the physically admissible interval for a column, matched
// by suffix. Columns with no matching suffix are only checked for NaN.
type columnRange struct {
	suffix   string
	min, max float64
}

var ranges = []columnRange{
	{"_cn_total", 0, 24},
	{"_q6", 0, 1},
	{"_q4", 0, 1},
	{"_q6_global", 0, 1},
	{"_q6_mean", 0, 1},
	{"surface_q6", 0, 1},
	{"core_q6", 0, 1},
	{"_gcn_loc", 0, 100},
	{"gyration_radius", 0, 500},
	{"_avg_dist_to_center", 0, 500},
	{"extent_x", 0, 1000},
	{"extent_y", 0, 1000},
	{"extent_z", 0, 1000},
	{"time_ps", 0, math.Inf(1)},
	{"frame", 0, math.Inf(1)},
}

func rangeFor(col string) (columnRange, bool) {
	lc := strings.ToLower(col)
	//bond-type labels trail the avg_dist columns, so this one matches inside
	if strings.Contains(lc, "_avg_dist_") && !strings.Contains(lc, "to_center") {
		return columnRange{"_avg_dist_", 0, 50}, true
	}
	for _, r := range ranges {
		if strings.HasSuffix(lc, r.suffix) || lc == r.suffix {
			return r, true
		}
	}
	return columnRange{}, false
}

// Validate checks an output directory previously filled by WriteAll. It
// never returns an error for bad data, only for being unable to look: data
// problems land in the returned Validation.
func Validate(dir string) (*Validation, error) {
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("report: %s is not a readable directory", dir)
	}
	val := &Validation{OK: true}
	required := []string{CoordinationFile, GlobalQ6File, GeometryFile, ComparisonFile}
	for _, name := range required {
		fc := validateCSV(filepath.Join(dir, name))
		fc.Name = name
		if !fc.Present {
			val.Problems = append(val.Problems, fmt.Sprintf("%s: missing", name))
		}
		val.Problems = append(val.Problems, fc.Problems...)
		val.Files = append(val.Files, fc)
	}
	if _, err := os.Stat(filepath.Join(dir, DetectionFile)); err != nil {
		val.Problems = append(val.Problems, DetectionFile+": missing")
		val.Files = append(val.Files, FileCheck{Name: DetectionFile})
	} else {
		val.Files = append(val.Files, FileCheck{Name: DetectionFile, Present: true})
	}
	val.OK = len(val.Problems) == 0
	return val, nil
}

func validateCSV(filename string) FileCheck {
	var fc FileCheck
	f, err := os.Open(filename)
	if err != nil {
		return fc
	}
	defer f.Close()
	fc.Present = true
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		fc.Problems = append(fc.Problems, filepath.Base(filename)+": unreadable header")
		return fc
	}
	cols := make([]ColumnCheck, len(header))
	for i, h := range header {
		cols[i] = ColumnCheck{Name: h, Min: math.Inf(1), Max: math.Inf(-1)}
	}
	var cells, filled int
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			fc.Problems = append(fc.Problems, fmt.Sprintf("%s: row %d unreadable", filepath.Base(filename), fc.Rows+2))
			break
		}
		fc.Rows++
		for i, cell := range rec {
			if i >= len(cols) {
				break
			}
			c := &cols[i]
			c.Rows++
			cells++
			if cell == "" {
				c.Missing++
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				//text columns (structure labels, element names) pass through
				filled++
				continue
			}
			filled++
			if math.IsNaN(v) {
				c.Bad++
				continue
			}
			if v < c.Min {
				c.Min = v
			}
			if v > c.Max {
				c.Max = v
			}
			if rng, ok := rangeFor(c.Name); ok && (v < rng.min || v > rng.max) {
				c.Bad++
			}
		}
	}
	base := filepath.Base(filename)
	if fc.Rows == 0 {
		fc.Problems = append(fc.Problems, base+": no data rows")
	}
	for _, c := range cols {
		if c.Bad > 0 {
			fc.Problems = append(fc.Problems, fmt.Sprintf("%s: column %s has %d values outside its physical range", base, c.Name, c.Bad))
		}
	}
	if cells > 0 {
		completeness := float64(filled) / float64(cells)
		if completeness < MinCompleteness {
			fc.Problems = append(fc.Problems, fmt.Sprintf("%s: only %.0f%% of cells carry data", base, completeness*100))
		}
	}
	fc.Columns = cols
	return fc
}
