package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/devnelly/gocoord/descplot"
	"github.com/devnelly/gocoord/param"
	"github.com/devnelly/gocoord/pipeline"
	"github.com/devnelly/gocoord/report"
	"github.com/devnelly/gocoord/traj/xyz"
)

var (
	outDir    string
	dt        float64
	interval  int
	cpus      int
	q6Cutoff  float64
	rcuts     map[string]string
	noGCN     bool
	withPlots bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze trajectory.xyz",
	Short: "Compute descriptor time series for a trajectory",
	Long: `Reads the trajectory, computes the per-atom and whole-cluster
descriptors for every sampled frame and writes the CSV time series into the
output directory. Plain, .gz and .zst trajectories are all accepted.`,
	Example: `  # Defaults: every 10th frame, dt guessed as 1 ps per frame
  gocoord analyze md.xyz

  # 0.5 ps frames, every frame, custom cutoffs and a parameter file
  gocoord analyze --dt 0.5 --interval 1 --rcut Pt-Pt=3.1 --params run.yaml md.xyz.zst`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadParams()
		if err != nil {
			return err
		}
		traj, err := xyz.New(args[0])
		if err != nil {
			return err
		}
		defer traj.Close()
		slog.Info("trajectory open", "file", args[0], "atoms", traj.Len())

		pr, err := pipeline.NewProcessor(p)
		if err != nil {
			return err
		}
		o := pipeline.DefaultOptions()
		o.Skip(interval)
		o.Dt(dt)
		o.Cpus(cpus)
		res, err := pr.RunConc(traj, traj.Species(), o)
		if err != nil {
			return err
		}
		if err := report.WriteAll(outDir, res, p, slog.Default()); err != nil {
			return err
		}
		if withPlots {
			if err := descplot.WriteAll(filepath.Join(outDir, "plots"), res); err != nil {
				return err
			}
		}
		return nil
	},
}

// loadParams builds the parameter set from the defaults, the optional YAML
// file and the command-line overrides, in that order.
func loadParams() (*param.Params, error) {
	var p *param.Params
	var err error
	if paramFile != "" {
		p, err = param.Load(paramFile)
		if err != nil {
			return nil, err
		}
	} else {
		p = param.Defaults()
	}
	for pair, raw := range rcuts {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("bad --rcut value %s=%s", pair, raw)
		}
		a, b, ok := strings.Cut(pair, "-")
		if !ok {
			return nil, fmt.Errorf("--rcut: bond type must look like Pt-Sn, got %s", pair)
		}
		key := param.Key(a, b)
		s, ok := p.Bonds[key]
		if !ok {
			return nil, fmt.Errorf("--rcut: unknown bond type %s", pair)
		}
		s.Rcut = v
		p.Bonds[key] = s
	}
	if q6Cutoff > 0 {
		p.Order.Cutoff = q6Cutoff
		p.Cluster.Cutoff = q6Cutoff
	}
	if noGCN {
		p.GCN.Enable = false
	}
	return p, p.Validate()
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&outDir, "out", "o", "analysis_output", "output directory")
	analyzeCmd.Flags().Float64Var(&dt, "dt", 1.0, "time per trajectory frame in ps")
	analyzeCmd.Flags().IntVar(&interval, "interval", 10, "analyze every Nth frame")
	analyzeCmd.Flags().IntVar(&cpus, "cpus", 0, "concurrent frame workers (0 means all cores)")
	analyzeCmd.Flags().Float64Var(&q6Cutoff, "q6-cutoff", 0, "override the Q4/Q6 neighbor cutoff in angstrom")
	analyzeCmd.Flags().StringToStringVar(&rcuts, "rcut", nil, "per-bond hard cutoff overrides, e.g. Pt-Pt=3.1")
	analyzeCmd.Flags().BoolVar(&noGCN, "disable-gcn", false, "skip the generalized coordination variants")
	analyzeCmd.Flags().BoolVar(&withPlots, "plots", false, "render PNG time-series figures under <out>/plots")
}
