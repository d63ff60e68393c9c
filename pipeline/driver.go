package pipeline

import (
	"fmt"
	"runtime"

	coord "github.com/devnelly/gocoord"
	"gonum.org/v1/gonum/mat"
)

// Options tunes trajectory scans. The zero value is not useful; start from
// DefaultOptions. Getter/setter methods return the current value and set a
// new one when a valid argument is given.
type Options struct {
	skip     int
	interval int
	dt       float64
	cpus     int
}

// DefaultOptions returns the default scan options: every frame, a sampling
// interval of 1, a 1 ps timestep and one worker per logical CPU.
func DefaultOptions() *Options {
	ret := new(Options)
	ret.skip = 1
	ret.interval = 1
	ret.dt = 1.0
	ret.cpus = runtime.NumCPU()
	return ret
}

// Skip returns the frame stride (1 processes every frame) and sets it, if a
// valid value is given.
func (o *Options) Skip(skip ...int) int {
	ret := o.skip
	if len(skip) > 0 && skip[0] > 0 {
		o.skip = skip[0]
	}
	return ret
}

// Interval returns the sampling interval of the trajectory (how many original
// MD steps one stored frame represents) and sets it, if a valid value is
// given. It only affects the frame indexes and times stamped on the records.
func (o *Options) Interval(interval ...int) int {
	ret := o.interval
	if len(interval) > 0 && interval[0] > 0 {
		o.interval = interval[0]
	}
	return ret
}

// Dt returns the time per original MD step, in ps, and sets it, if a valid
// value is given.
func (o *Options) Dt(dt ...float64) float64 {
	ret := o.dt
	if len(dt) > 0 && dt[0] > 0 {
		o.dt = dt[0]
	}
	return ret
}

// Cpus returns the number of concurrent workers RunConc uses and sets it, if
// a valid value is given.
func (o *Options) Cpus(cpus ...int) int {
	ret := o.cpus
	if len(cpus) > 0 && cpus[0] > 0 {
		o.cpus = cpus[0]
	}
	return ret
}

// Result is the full output of a trajectory scan, in frame order. Skipped
// lists the indexes of frames dropped as recoverable failures.
type Result struct {
	Atoms    []coord.AtomRecord
	Clusters []coord.ClusterRecord
	Frames   int
	Skipped  []int
}

// Run scans a trajectory sequentially, invoking the per-frame pipeline on
// every frame and collecting the records. The species slice is the constant
// per-atom species assignment of the trajectory. A frame that fails to
// compute is recorded in Skipped and the scan continues; only critical read
// errors abort the run.
func (pr *Processor) Run(traj coord.Traj, species []string, options ...*Options) (*Result, error) {
	o := scanOptions(options)
	if traj.Len() != len(species) {
		return nil, fmt.Errorf("pipeline: trajectory has %d atoms but %d species labels were given", traj.Len(), len(species))
	}
	res := new(Result)
	coords := mat.NewDense(traj.Len(), 3, nil)
reading:
	for i := 0; ; i++ {
		var err error
		if i%o.skip != 0 {
			err = traj.Next(nil) //discard
		} else {
			err = traj.Next(coords)
		}
		if err != nil {
			switch err := err.(type) {
			case coord.LastFrameError:
				break reading
			case coord.TrajError:
				if err.Critical() {
					err.Decorate(fmt.Sprintf("Run: failed while reading the %d th frame", i))
					return nil, err
				}
				res.Skipped = append(res.Skipped, i*o.interval)
				continue
			default:
				return nil, err
			}
		}
		if i%o.skip != 0 {
			continue
		}
		if !pr.accumulate(res, i, species, coords, o) {
			res.Skipped = append(res.Skipped, i*o.interval)
		}
	}
	return res, nil
}

// RunConc is the concurrent version of Run: it reads batches of frames from a
// ConcTraj and hands each frame to its own worker goroutine. Frames share no
// mutable state, so the workers need no synchronization; results are drained
// in frame order, which keeps the output deterministic and identical to Run's.
// Frames off the skip stride are still read, but their workers return without
// computing anything.
func (pr *Processor) RunConc(traj coord.ConcTraj, species []string, options ...*Options) (*Result, error) {
	o := scanOptions(options)
	if traj.Len() != len(species) {
		return nil, fmt.Errorf("pipeline: trajectory has %d atoms but %d species labels were given", traj.Len(), len(species))
	}
	type frameOut struct {
		atoms    []coord.AtomRecord
		clusters []coord.ClusterRecord
		discard  bool
		err      error
	}
	res := new(Result)
	frames := make([]*mat.Dense, o.cpus)
	for i := range frames {
		frames[i] = mat.NewDense(traj.Len(), 3, nil)
	}
	results := make([]chan frameOut, len(frames))
	for i := range results {
		results[i] = make(chan frameOut)
	}
	var lasterr error
	for i := 0; lasterr == nil; {
		coordchans, err := traj.NextConc(frames)
		advance := len(coordchans)
		badframe := -1
		if err != nil {
			switch err := err.(type) {
			case coord.LastFrameError:
				lasterr = err //drain what we got, then stop
			case coord.TrajError:
				if err.Critical() {
					err.Decorate(fmt.Sprintf("RunConc: failed while reading the %d th frame", i+advance))
					return nil, err
				}
				//the bad frame was consumed by the reader; the batch holds
				//the frames that preceded it, so record the skip after
				//draining them to keep Skipped in frame order
				badframe = i + advance
				advance++
			default:
				return nil, err
			}
		}
		for key, channel := range coordchans {
			go func(index int, in chan *mat.Dense, out chan frameOut) {
				coords := <-in
				if index%o.skip != 0 {
					out <- frameOut{discard: true}
					return
				}
				f, err := coord.NewFrame(index*o.interval, float64(index*o.interval)*o.dt, species, coords)
				if err != nil {
					out <- frameOut{err: err}
					return
				}
				atoms, clusters, err := pr.Frame(f)
				out <- frameOut{atoms: atoms, clusters: clusters, err: err}
			}(i+key, channel, results[key])
		}
		for key := range coordchans {
			r := <-results[key]
			if r.discard {
				continue
			}
			if r.err != nil {
				res.Skipped = append(res.Skipped, (i+key)*o.interval)
				continue
			}
			res.Atoms = append(res.Atoms, r.atoms...)
			res.Clusters = append(res.Clusters, r.clusters...)
			res.Frames++
		}
		if badframe >= 0 {
			res.Skipped = append(res.Skipped, badframe*o.interval)
		}
		i += advance
	}
	return res, nil
}

// accumulate runs the per-frame pipeline and appends the records. It reports
// false when the frame failed, which the caller treats as recoverable.
func (pr *Processor) accumulate(res *Result, i int, species []string, coords *mat.Dense, o *Options) bool {
	f, err := coord.NewFrame(i*o.interval, float64(i*o.interval)*o.dt, species, coords)
	if err != nil {
		return false
	}
	atoms, clusters, err := pr.Frame(f)
	if err != nil {
		return false
	}
	res.Atoms = append(res.Atoms, atoms...)
	res.Clusters = append(res.Clusters, clusters...)
	res.Frames++
	return true
}

func scanOptions(options []*Options) *Options {
	if len(options) > 0 && options[0] != nil {
		return options[0]
	}
	return DefaultOptions()
}
