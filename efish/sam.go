package efish

// SAM represents a run of the SAM repro: sinusoidal amplitude
// modulations of the fish's own field at a set of difference
// frequencies.
type SAM struct {
	EphysRun
}

// DeltaFs returns the difference frequency of every presentation in
// onset order, in Hz.
func (s *SAM) DeltaFs() ([]float64, error) {
	stimuli := s.Stimuli()
	out := make([]float64, 0, len(stimuli))
	for _, stim := range stimuli {
		v, _, err := stimulusSetting(stim, "DeltaF")
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Pause returns the pause between presentations in seconds, from the
// run's base settings.
func (s *SAM) Pause() (float64, error) {
	meta, err := s.Metadata()
	if err != nil {
		return 0, err
	}
	p, err := meta.Property("RePro-Info/settings/pause")
	if err != nil {
		if found, ok := meta.Find("pause"); ok {
			return found.Float()
		}
		return 0, err
	}
	return p.Float()
}

// Contrast returns the stimulus amplitude relative to the EOD
// amplitude, with its unit.
func (s *SAM) Contrast() (float64, string, error) {
	meta, err := s.Metadata()
	if err != nil {
		return 0, "", err
	}
	p, ok := meta.Find("Contrast")
	if !ok {
		if p, ok = meta.Find("amplitude"); !ok {
			return 0, "", &relacsSettingError{run: s.Name(), setting: "Contrast"}
		}
	}
	v, err := p.Float()
	if err != nil {
		return 0, "", err
	}
	return v, p.Unit(), nil
}

type relacsSettingError struct {
	run     string
	setting string
}

func (e *relacsSettingError) Error() string {
	return "run " + e.run + " carries no " + e.setting + " setting"
}
