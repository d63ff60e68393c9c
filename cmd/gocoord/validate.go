package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/devnelly/gocoord/report"
)

var validateCmd = &cobra.Command{
	Use:   "validate output_dir",
	Short: "Check an output directory for missing or unphysical data",
	Long: `Verifies that a previous analyze run left a complete and physically
plausible set of files: every CSV present, order parameters inside [0,1],
coordination numbers and distances in sane ranges, and no half-empty tables.
Exits nonzero when any check fails.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		val, err := report.Validate(args[0])
		if err != nil {
			return err
		}
		for _, fc := range val.Files {
			status := "ok"
			if !fc.Present {
				status = "MISSING"
			} else if len(fc.Problems) > 0 {
				status = "PROBLEMS"
			}
			fmt.Fprintf(os.Stdout, "%-40s %s", fc.Name, status)
			if fc.Present && fc.Rows > 0 {
				fmt.Fprintf(os.Stdout, " (%d rows)", fc.Rows)
			}
			fmt.Fprintln(os.Stdout)
		}
		if !val.OK {
			for _, p := range val.Problems {
				fmt.Fprintln(os.Stderr, "  "+p)
			}
			return fmt.Errorf("%d problems found in %s", len(val.Problems), args[0])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
