package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/bendalab/go-relacs/metadata"
)

var metadataCmd = &cobra.Command{
	Use:   "metadata <file> [run]",
	Short: "Dump the session's or one run's metadata tree, flattened",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runMetadata,
}

func init() {
	rootCmd.AddCommand(metadataCmd)
}

func runMetadata(cmd *cobra.Command, args []string) error {
	ds, err := openDataset(args[0])
	if err != nil {
		return err
	}
	defer ds.Close()

	var sec *metadata.Section
	if len(args) == 2 {
		run, err := ds.Run(args[1])
		if err != nil {
			return err
		}
		if sec, err = run.Metadata(); err != nil {
			return err
		}
	} else if sec, err = ds.SessionMetadata(); err != nil {
		return err
	}

	flat := sec.Flatten()
	paths := make([]string, 0, len(flat))
	for path := range flat {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		p := flat[path]
		if unit := p.Unit(); unit != "" {
			fmt.Printf("%-48s %v %s\n", path, p.Value(), unit)
		} else {
			fmt.Printf("%-48s %v\n", path, p.Value())
		}
	}
	return nil
}
