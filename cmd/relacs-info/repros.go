package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reprosCmd = &cobra.Command{
	Use:   "repros <file> [name]",
	Short: "List repro runs and their stimuli",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runRepros,
}

func init() {
	rootCmd.AddCommand(reprosCmd)
}

func runRepros(cmd *cobra.Command, args []string) error {
	ds, err := openDataset(args[0])
	if err != nil {
		return err
	}
	defer ds.Close()

	runs := ds.Runs()
	if len(args) == 2 {
		runs = ds.RunsMatching(args[1])
		if len(runs) == 0 {
			return fmt.Errorf("no repro run matching %q", args[1])
		}
	}

	for _, run := range runs {
		fmt.Printf("%s (%s), %.2fs to %.2fs\n",
			run.Name(), run.Protocol(), run.StartTime(), run.StopTime())
		for _, s := range run.Stimuli() {
			fmt.Printf("  %-20s onset %8.3fs  duration %7.3fs\n",
				s.Name(), s.Onset(), s.Duration())
		}
	}
	return nil
}
