package efish

import (
	"sort"

	"github.com/bendalab/go-relacs/relacs"
)

// FICurve represents a run of the FICurve repro: a sweep over
// stimulus intensities used to measure the firing-rate/intensity
// relation of a cell.
type FICurve struct {
	EphysRun
}

// contrastSetting names the swept parameter in the stimulus settings.
const contrastSetting = "Contrast"

// Contrasts returns the contrast of every presentation in onset
// order.
func (f *FICurve) Contrasts() ([]float64, error) {
	stimuli := f.Stimuli()
	out := make([]float64, 0, len(stimuli))
	for _, s := range stimuli {
		v, _, err := stimulusSetting(s, contrastSetting)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// StimuliByContrast groups the presentations of the sweep by their
// contrast, preserving onset order within each group. SweptContrasts
// lists the group keys in ascending order.
func (f *FICurve) StimuliByContrast() (map[float64][]*relacs.Stimulus, error) {
	groups := make(map[float64][]*relacs.Stimulus)
	for _, s := range f.Stimuli() {
		v, _, err := stimulusSetting(s, contrastSetting)
		if err != nil {
			return nil, err
		}
		groups[v] = append(groups[v], s)
	}
	return groups, nil
}

// SweptContrasts returns the distinct contrasts of the sweep in
// ascending order.
func (f *FICurve) SweptContrasts() ([]float64, error) {
	groups, err := f.StimuliByContrast()
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(groups))
	for v := range groups {
		out = append(out, v)
	}
	sort.Float64s(out)
	return out, nil
}
