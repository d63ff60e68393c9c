package xyz

import (
	"fmt"

	coord "github.com/devnelly/gocoord"
)

const (
	TrajUnIni    = "traj object uninitialized or closed"
	UnableToOpen = "unable to open file"
)

// errDecorate asserts that err implements coord.Error and decorates it with
// the caller's name before returning it.
func errDecorate(err error, caller string) error {
	err2 := err.(coord.Error)
	err2.Decorate(caller)
	return err2
}

// Error is the general type for XYZ trajectory errors. It fulfills
// coord.Error and coord.TrajError.
type Error struct {
	message  string
	filename string
	deco     []string
	critical bool
}

func (err Error) Error() string {
	return fmt.Sprintf("xyz file %s error: %s", err.filename, err.message)
}

// Decorate adds new information to the error.
func (E Error) Decorate(deco string) []string {
	//The receiver is not a pointer, but E.deco is a slice, so the append
	//reaches the backing array when there is capacity; in any case the
	//updated slice is returned.
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

func (err Error) FileName() string { return err.filename }

func (err Error) Format() string { return "xyz" }

func (err Error) Critical() bool { return err.critical }

type lastFrameError struct {
	deco     []string
	fileName string
}

// NormalLastFrameTermination does nothing; it marks the error as the normal
// end of the trajectory.
func (E lastFrameError) NormalLastFrameTermination() {}

func (E lastFrameError) FileName() string { return E.fileName }

func (E lastFrameError) Error() string { return "EOF" }

func (E lastFrameError) Critical() bool { return false }

func (E lastFrameError) Format() string { return "xyz" }

func (E lastFrameError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

func newlastFrameError(filename string, caller string) *lastFrameError {
	e := new(lastFrameError)
	e.fileName = filename
	e.deco = []string{caller}
	return e
}
