package main

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/bendalab/go-relacs/internal/nixfile"
	"github.com/bendalab/go-relacs/metadata"
)

var mkdemoCmd = &cobra.Command{
	Use:   "mkdemo <file>",
	Short: "Write a small synthetic recording for trying out the tool",
	Args:  cobra.ExactArgs(1),
	RunE:  runMkdemo,
}

func init() {
	rootCmd.AddCommand(mkdemoCmd)
}

func runMkdemo(cmd *cobra.Command, args []string) error {
	const (
		rate     = 1000.0
		duration = 12.0
	)

	voltage := make([]float64, int(duration*rate))
	for i := range voltage {
		t := float64(i) / rate
		voltage[i] = -60.0 + 5.0*math.Sin(2.0*math.Pi*8.0*t)
	}
	var spikes []float64
	for t := 0.05; t < duration; t += 0.125 {
		spikes = append(spikes, t)
	}

	session := metadata.NewSection("demo")
	recording := metadata.NewSection("Recording")
	recording.AddProperty(metadata.NewString("Date", "2024-05-17"))
	session.AddSection(recording)

	b := nixfile.NewBuilder("demo")
	b.Session(session)
	b.SampledTrace("V-1", rate, 0.0, "mV", voltage)
	b.EventTrace("Spikes-1", spikes)

	settings := metadata.NewSection("Baseline_1")
	b.ReproRun("Baseline_1", "BaselineActivity", 0.0, 4.0,
		[]string{"V-1", "Spikes-1"}, settings)

	ficurve := metadata.NewSection("FICurve_1")
	info := metadata.NewSection("RePro-Info")
	info.AddProperty(metadata.NewString("RePro", "FICurve"))
	sweep := metadata.NewSection("settings")
	sweep.AddProperty(metadata.NewNumeric("pause", "s", 0.5))
	sweep.AddProperty(metadata.NewNumeric("Contrast", "%", 10))
	info.AddSection(sweep)
	ficurve.AddSection(info)
	b.ReproRun("FICurve_1", "FICurve", 4.0, 8.0,
		[]string{"V-1", "Spikes-1"}, ficurve)
	b.Stimuli("FICurve-stim", []float64{4.5, 6.0, 7.5, 9.0, 10.5},
		[]float64{0.5, 0.5, 0.5, 0.5, 0.5},
		[]string{"V-1", "Spikes-1"}, ficurve)
	if err := b.Feature("FICurve-stim", "Contrast", "%",
		[]float64{5, 10, 20, 40, 80}); err != nil {
		return err
	}

	if err := b.Write(args[0]); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", args[0])
	return nil
}
