package xyz

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"gonum.org/v1/gonum/mat"
)

// Writer appends frames to an XYZ trajectory file, compressing by filename
// extension like the reader.
type Writer struct {
	f         *os.File
	h         io.WriteCloser
	w         *bufio.Writer
	filename  string
	species   []string
	writeable bool
}

// NewWriter creates the file and fixes the species assignment all written
// frames share.
func NewWriter(filename string, species []string) (*Writer, error) {
	W := new(Writer)
	W.filename = filename
	W.species = species
	var err error
	W.f, err = os.Create(filename)
	if err != nil {
		return nil, Error{"can't create file: " + err.Error(), filename, []string{"NewWriter"}, true}
	}
	var out io.Writer = W.f
	switch {
	case strings.HasSuffix(filename, ".gz"):
		gz := gzip.NewWriter(W.f)
		W.h = gz
		out = gz
	case strings.HasSuffix(filename, ".zst"), strings.HasSuffix(filename, ".zstd"):
		zw, err := zstd.NewWriter(W.f)
		if err != nil {
			W.f.Close()
			return nil, Error{"can't open zstd stream: " + err.Error(), filename, []string{"NewWriter"}, true}
		}
		W.h = zw
		out = zw
	}
	W.w = bufio.NewWriter(out)
	W.writeable = true
	return W, nil
}

// WNext appends one frame. The comment line carries the given time stamp in
// the "time=" form the reader parses back.
func (W *Writer) WNext(coords *mat.Dense, time float64) error {
	if !W.writeable {
		return Error{"writer is closed", W.filename, []string{"WNext"}, true}
	}
	r, c := coords.Dims()
	if c != 3 || r != len(W.species) {
		return Error{fmt.Sprintf("coordinates are %d×%d for %d species", r, c, len(W.species)), W.filename, []string{"WNext"}, true}
	}
	fmt.Fprintf(W.w, "%d\n", r)
	fmt.Fprintf(W.w, "time=%g\n", time)
	for i := 0; i < r; i++ {
		fmt.Fprintf(W.w, "%s %.8f %.8f %.8f\n", W.species[i], coords.At(i, 0), coords.At(i, 1), coords.At(i, 2))
	}
	return nil
}

// Close flushes and closes the file. The Writer is unusable afterwards.
func (W *Writer) Close() error {
	if W == nil || !W.writeable {
		return nil
	}
	W.writeable = false
	if err := W.w.Flush(); err != nil {
		return Error{"flush: " + err.Error(), W.filename, []string{"Close"}, true}
	}
	if W.h != nil {
		if err := W.h.Close(); err != nil {
			return Error{"closing compressor: " + err.Error(), W.filename, []string{"Close"}, true}
		}
	}
	if err := W.f.Close(); err != nil {
		return Error{"closing file: " + err.Error(), W.filename, []string{"Close"}, true}
	}
	return nil
}
