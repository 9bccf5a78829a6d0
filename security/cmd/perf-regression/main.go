package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const defaultThreshold = 0.30

var errRegression = errors.New("performance regression threshold exceeded")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		baselinePath  string
		candidatePath string
		threshold     float64
	)

	cmd := &cobra.Command{
		Use:          "perf-regression",
		Short:        "Compare two `go test -bench` outputs for the padlock hot paths",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if threshold < 0 {
				return fmt.Errorf("--threshold must be >= 0")
			}

			baseline, err := parseFile(baselinePath)
			if err != nil {
				return fmt.Errorf("parse baseline: %w", err)
			}
			candidate, err := parseFile(candidatePath)
			if err != nil {
				return fmt.Errorf("parse candidate: %w", err)
			}

			rows, failures := compare(baseline, candidate, threshold)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "perf regression check:")
			fmt.Fprintln(out, "benchmark metric baseline candidate delta")
			for _, r := range rows {
				fmt.Fprintf(out, "%s %s %.3f %.3f %+0.2f%%\n", r.benchmark, r.metric, r.baseline, r.candidate, r.delta*100)
			}

			if len(failures) > 0 {
				errOut := cmd.ErrOrStderr()
				for _, failure := range failures {
					fmt.Fprintf(errOut, "  - %s\n", failure)
				}
				return errRegression
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&baselinePath, "baseline", "", "path to baseline benchmark output")
	f.StringVar(&candidatePath, "candidate", "", "path to candidate benchmark output")
	f.Float64Var(&threshold, "threshold", defaultThreshold, "maximum allowed regression ratio (0.30 = +30%)")
	_ = cmd.MarkFlagRequired("baseline")
	_ = cmd.MarkFlagRequired("candidate")
	return cmd
}

func parseFile(path string) (sampleSet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return parseBenchmarks(file)
}
