package efish

import (
	"fmt"
	"math"
)

// Baseline represents a run of the BaselineActivity repro: recording
// without stimulation, used to characterize spontaneous activity.
type Baseline struct {
	EphysRun
}

// BaselineRate returns the average spontaneous spike rate in Hz.
func (b *Baseline) BaselineRate() (float64, error) {
	if b.Duration() <= 0 {
		return 0, fmt.Errorf("run %q has zero duration", b.Name())
	}
	spikes, err := b.Spikes()
	if err != nil {
		return 0, err
	}
	return float64(len(spikes)) / b.Duration(), nil
}

// CV returns the coefficient of variation of the interspike
// intervals: zero for perfectly regular spiking, around one for
// Poisson-like spiking.
func (b *Baseline) CV() (float64, error) {
	spikes, err := b.Spikes()
	if err != nil {
		return 0, err
	}
	if len(spikes) < 2 {
		return 0, fmt.Errorf("run %q holds %d spikes, need at least two", b.Name(), len(spikes))
	}

	isis := make([]float64, len(spikes)-1)
	var mean float64
	for i := 1; i < len(spikes); i++ {
		isis[i-1] = spikes[i] - spikes[i-1]
		mean += isis[i-1]
	}
	mean /= float64(len(isis))
	if mean == 0 {
		return 0, nil
	}
	var variance float64
	for _, isi := range isis {
		variance += (isi - mean) * (isi - mean)
	}
	variance /= float64(len(isis))
	return math.Sqrt(variance) / mean, nil
}

// EodFrequency returns the fish's EOD frequency in Hz, derived from
// the recorded EOD times.
func (b *Baseline) EodFrequency() (float64, error) {
	if b.Duration() <= 0 {
		return 0, fmt.Errorf("run %q has zero duration", b.Name())
	}
	times, err := b.EodTimes()
	if err != nil {
		return 0, err
	}
	return float64(len(times)) / b.Duration(), nil
}
