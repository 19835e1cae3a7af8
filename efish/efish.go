// Package efish provides run specializations for the relacs efish
// plugin set. Importing the package registers them with the default
// registry, so datasets opened afterwards resolve matching repro runs
// to the types defined here.
package efish

import (
	"fmt"
	"strings"

	"github.com/bendalab/go-relacs/relacs"
)

func init() {
	relacs.Register("BaselineActivity*", func(base *relacs.ReProRun) relacs.Run {
		return &Baseline{EphysRun{base}}
	})
	relacs.Register("FICurve*", func(base *relacs.ReProRun) relacs.Run {
		return &FICurve{EphysRun{base}}
	})
	relacs.Register("SAM*", func(base *relacs.ReProRun) relacs.Run {
		return &SAM{EphysRun{base}}
	})
}

// EphysRun is the shared base of the efish specializations. It adds
// spike and EOD accessors on top of the run contract; which event
// channel holds them differs between rigs, so channels are found by
// name.
type EphysRun struct {
	*relacs.ReProRun
}

// Spikes returns the spike times recorded during the run, or during
// the given window.
func (r *EphysRun) Spikes(window ...relacs.Window) ([]float64, error) {
	return r.eventChannel("spike", window...)
}

// EodTimes returns the EOD cycle times recorded during the run.
func (r *EphysRun) EodTimes(window ...relacs.Window) ([]float64, error) {
	return r.eventChannel("eod", window...)
}

// eventChannel reads the first referenced event channel whose name
// contains the given fragment.
func (r *EphysRun) eventChannel(fragment string, window ...relacs.Window) ([]float64, error) {
	for _, name := range r.TraceNames() {
		if strings.Contains(strings.ToLower(name), fragment) {
			return r.Data(name, window...)
		}
	}
	return nil, fmt.Errorf("run %q references no %s channel", r.Name(), fragment)
}

// stimulusSetting reads a numeric setting from one stimulus, searching
// the settings tree by bare property name.
func stimulusSetting(s *relacs.Stimulus, name string) (float64, string, error) {
	meta, err := s.Metadata()
	if err != nil {
		return 0, "", err
	}
	p, ok := meta.Find(name)
	if !ok {
		return 0, "", fmt.Errorf("stimulus %s carries no %q setting", s.Name(), name)
	}
	v, err := p.Float()
	if err != nil {
		return 0, "", err
	}
	return v, p.Unit(), nil
}
