// Package xyz reads and writes (multi-frame) XYZ trajectories, the format
// produced by most cluster MD post-processing tools: a line with the atom
// count, a comment line, then one "element x y z" line per atom, repeated
// per frame. Files compressed with gzip or zstd are handled transparently by
// filename extension. The reader implements both coord.Traj and
// coord.ConcTraj.
package xyz

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	"gonum.org/v1/gonum/mat"
)

// Reader streams frames from an XYZ trajectory. The species assignment is
// taken from the first frame and assumed constant, as it is for any MD
// trajectory of a fixed system.
type Reader struct {
	f         *os.File
	z         io.ReadCloser //decompressor, nil for plain files
	r         *bufio.Reader
	filename  string
	natoms    int
	species   []string
	readable  bool
	havehdr   bool //the natoms line of the next frame is already consumed
	frame     int
	lasttime  float64
	timefound bool
}

// New opens an XYZ trajectory. The first frame's header is read here so Len
// and Species are available before any Next call.
func New(filename string) (*Reader, error) {
	R := new(Reader)
	R.filename = filename
	var err error
	R.f, err = os.Open(filename)
	if err != nil {
		return nil, Error{UnableToOpen + ": " + err.Error(), filename, []string{"New"}, true}
	}
	var in io.Reader = R.f
	switch {
	case strings.HasSuffix(filename, ".gz"):
		gz, err := gzip.NewReader(R.f)
		if err != nil {
			R.f.Close()
			return nil, Error{"can't open gzip stream: " + err.Error(), filename, []string{"New"}, true}
		}
		R.z = gz
		in = gz
	case strings.HasSuffix(filename, ".zst"), strings.HasSuffix(filename, ".zstd"):
		zr, err := zstd.NewReader(R.f)
		if err != nil {
			R.f.Close()
			return nil, Error{"can't open zstd stream: " + err.Error(), filename, []string{"New"}, true}
		}
		R.z = zr.IOReadCloser()
		in = R.z
	}
	R.r = bufio.NewReader(in)
	if err := R.header(); err != nil {
		R.Close()
		return nil, errDecorate(err, "New")
	}
	R.havehdr = true
	//peek the species list from the first frame, then rewind by reopening:
	//XYZ gives no way to know the elements without reading a frame.
	species := make([]string, R.natoms)
	if err := R.body(nil, species); err != nil {
		R.Close()
		return nil, errDecorate(err, "New")
	}
	R.species = species
	natoms := R.natoms
	R.Close()
	R2, err := reopen(filename)
	if err != nil {
		return nil, err
	}
	R2.natoms = natoms
	R2.species = species
	R2.readable = true
	return R2, nil
}

// reopen builds a reader positioned at the start of the file, without the
// species peek New performs.
func reopen(filename string) (*Reader, error) {
	R := new(Reader)
	R.filename = filename
	var err error
	R.f, err = os.Open(filename)
	if err != nil {
		return nil, Error{UnableToOpen + ": " + err.Error(), filename, []string{"reopen"}, true}
	}
	var in io.Reader = R.f
	switch {
	case strings.HasSuffix(filename, ".gz"):
		gz, err := gzip.NewReader(R.f)
		if err != nil {
			R.f.Close()
			return nil, Error{"can't open gzip stream: " + err.Error(), filename, []string{"reopen"}, true}
		}
		R.z = gz
		in = gz
	case strings.HasSuffix(filename, ".zst"), strings.HasSuffix(filename, ".zstd"):
		zr, err := zstd.NewReader(R.f)
		if err != nil {
			R.f.Close()
			return nil, Error{"can't open zstd stream: " + err.Error(), filename, []string{"reopen"}, true}
		}
		R.z = zr.IOReadCloser()
		in = R.z
	}
	R.r = bufio.NewReader(in)
	return R, nil
}

// Readable returns true if the trajectory is ready to be read.
func (R *Reader) Readable() bool {
	return R.readable
}

// Len returns the number of atoms per frame.
func (R *Reader) Len() int {
	return R.natoms
}

// Species returns the per-atom species labels, read from the first frame.
// The returned slice is owned by the reader and must not be modified.
func (R *Reader) Species() []string {
	return R.species
}

// Time returns the time stamp parsed from the comment line of the last frame
// read, and whether one was present (a "time=<value>" token).
func (R *Reader) Time() (float64, bool) {
	return R.lasttime, R.timefound
}

// Next reads the next frame into coords, which must be a natoms×3 matrix, or
// discards the frame if coords is nil. The end of the trajectory is reported
// as a coord.LastFrameError. A malformed frame body is a non-critical error:
// the frame is lost but the reader stays usable, so a single corrupt frame
// does not abort a whole run.
func (R *Reader) Next(coords *mat.Dense) error {
	if !R.readable {
		return Error{TrajUnIni, R.filename, []string{"Next"}, true}
	}
	if !R.havehdr {
		if err := R.header(); err != nil {
			return errDecorate(err, "Next")
		}
	}
	R.havehdr = false
	if coords != nil {
		r, c := coords.Dims()
		if r != R.natoms || c != 3 {
			return Error{fmt.Sprintf("destination is %d×%d, want %d×3", r, c, R.natoms), R.filename, []string{"Next"}, true}
		}
	}
	if err := R.body(coords, nil); err != nil {
		return errDecorate(err, "Next")
	}
	R.frame++
	return nil
}

// NextConc reads as many frames as elements in the given slice, delivering
// each frame's coordinates through the corresponding returned channel. When
// the trajectory ends mid-batch, the channels read so far are returned along
// with the LastFrameError.
func (R *Reader) NextConc(frames []*mat.Dense) ([]chan *mat.Dense, error) {
	if !R.readable {
		return nil, Error{TrajUnIni, R.filename, []string{"NextConc"}, true}
	}
	framechans := make([]chan *mat.Dense, 0, len(frames))
	for _, v := range frames {
		if err := R.Next(v); err != nil {
			if len(framechans) == 0 {
				return nil, err
			}
			return framechans, err
		}
		c := make(chan *mat.Dense, 1)
		c <- v
		framechans = append(framechans, c)
	}
	return framechans, nil
}

// Close releases the file and any decompressor. Further reads return a
// critical error.
func (R *Reader) Close() {
	if R == nil {
		return
	}
	if R.z != nil {
		R.z.Close()
	}
	if R.f != nil {
		R.f.Close()
	}
	R.readable = false
}

// header reads the natoms line of the next frame. Blank lines before it are
// tolerated; a clean EOF there is the normal last-frame condition.
func (R *Reader) header() error {
	for {
		line, err := R.r.ReadString('\n')
		if err != nil && line == "" {
			return newlastFrameError(R.filename, "header")
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if err != nil {
				return newlastFrameError(R.filename, "header")
			}
			continue
		}
		n, cerr := strconv.Atoi(trimmed)
		if cerr != nil || n <= 0 {
			return Error{fmt.Sprintf("frame %d: malformed atom-count line %q", R.frame, trimmed), R.filename, []string{"header"}, false}
		}
		if R.natoms == 0 {
			R.natoms = n
		} else if n != R.natoms {
			return Error{fmt.Sprintf("frame %d: atom count changed from %d to %d", R.frame, R.natoms, n), R.filename, []string{"header"}, false}
		}
		return nil
	}
}

// body reads the comment line and the natoms atom lines of one frame. When
// species is not nil it is filled with the element labels; when coords is not
// nil it receives the positions. All natoms lines are consumed even if one of
// them is malformed, so the reader stays aligned on frame boundaries.
func (R *Reader) body(coords *mat.Dense, species []string) error {
	comment, err := R.r.ReadString('\n')
	if err != nil && comment == "" {
		return Error{fmt.Sprintf("frame %d: truncated before the comment line", R.frame), R.filename, []string{"body"}, false}
	}
	R.parseTime(comment)
	var bad string
	for i := 0; i < R.natoms; i++ {
		line, err := R.r.ReadString('\n')
		if err != nil && strings.TrimSpace(line) == "" {
			return Error{fmt.Sprintf("frame %d: truncated at atom %d of %d", R.frame, i, R.natoms), R.filename, []string{"body"}, false}
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			if bad == "" {
				bad = fmt.Sprintf("frame %d: atom line %d ill-formed: %q", R.frame, i, strings.TrimSpace(line))
			}
			continue
		}
		var xyz [3]float64
		ok := true
		for d := 0; d < 3; d++ {
			xyz[d], err = strconv.ParseFloat(fields[d+1], 64)
			if err != nil {
				ok = false
				break
			}
		}
		if !ok {
			if bad == "" {
				bad = fmt.Sprintf("frame %d: atom line %d has non-numeric coordinates", R.frame, i)
			}
			continue
		}
		if species != nil {
			species[i] = fields[0]
		}
		if coords != nil {
			coords.Set(i, 0, xyz[0])
			coords.Set(i, 1, xyz[1])
			coords.Set(i, 2, xyz[2])
		}
	}
	if bad != "" {
		return Error{bad, R.filename, []string{"body"}, false}
	}
	return nil
}

func (R *Reader) parseTime(comment string) {
	R.timefound = false
	for _, tok := range strings.Fields(comment) {
		if !strings.HasPrefix(tok, "time=") {
			continue
		}
		if v, err := strconv.ParseFloat(strings.TrimPrefix(tok, "time="), 64); err == nil {
			R.lasttime = v
			R.timefound = true
		}
		return
	}
}
