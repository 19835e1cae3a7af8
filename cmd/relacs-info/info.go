package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bendalab/go-relacs/relacs"
)

var infoCmd = &cobra.Command{
	Use:   "info <file>",
	Short: "Show a session summary with all repro runs",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func openDataset(path string) (*relacs.Dataset, error) {
	var opts []relacs.Option
	if mappingsFile != "" {
		opts = append(opts, relacs.WithMappingsFile(mappingsFile))
	}
	return relacs.Open(path, opts...)
}

func runInfo(cmd *cobra.Command, args []string) error {
	ds, err := openDataset(args[0])
	if err != nil {
		return err
	}
	defer ds.Close()

	fmt.Printf("%s\n", ds.Name())
	fmt.Printf("  mapping version: %.1f\n", ds.MappingVersion())
	if date, ok := ds.RecordingDate(); ok {
		fmt.Printf("  recorded: %s\n", date)
	}
	fmt.Printf("  sampled traces: %v\n", ds.SampledTraceNames())
	fmt.Printf("  event traces:   %v\n", ds.EventTraceNames())
	fmt.Println()

	for _, run := range ds.Runs() {
		fmt.Printf("  %-24s %-18s %8.2fs .. %8.2fs  %3d stimuli\n",
			run.Name(), run.Protocol(), run.StartTime(), run.StopTime(), run.StimulusCount())
	}
	return nil
}
