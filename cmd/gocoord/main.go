// gocoord computes coordination and bond-orientational descriptors along an
// XYZ trajectory of a metal nanocluster and writes them as CSV time series.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	paramFile string
	verbose   bool

	rootCmd = &cobra.Command{
		Use:   "gocoord",
		Short: "Structural descriptors for metal nanocluster trajectories",
		Long: `gocoord reads an XYZ trajectory (plain, gzip or zstd compressed) and
computes, per metal atom and per frame, smooth coordination numbers split by
bond type, four generalized coordination variants and the Steinhardt Q4/Q6
bond-orientational parameters, plus whole-cluster order and geometry
statistics. Results are written as CSV time series.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr,
				&slog.HandlerOptions{Level: level})))
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&paramFile, "params", "", "YAML parameter file overlaying the built-in defaults")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
