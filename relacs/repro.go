package relacs

import (
	"fmt"

	"github.com/bendalab/go-relacs/metadata"
)

// Run is the contract every repro run satisfies. Specializations
// returned by the registry extend it with protocol-specific
// accessors; they never change onset ordering, window resolution or
// the error kinds of the base implementation.
type Run interface {
	Name() string
	Protocol() string
	StartTime() float64
	StopTime() float64
	Duration() float64
	Metadata() (*metadata.Section, error)
	Stimuli(preds ...StimulusPredicate) []*Stimulus
	StimulusCount() int
	Data(channel string, window ...Window) ([]float64, error)
	TraceNames() []string

	// Base returns the underlying base run.
	Base() *ReProRun
}

// StimulusPredicate filters stimuli during enumeration. Predicates
// that only inspect onset, duration or index stay cheap; inspecting
// metadata materializes it for that stimulus alone.
type StimulusPredicate func(*Stimulus) bool

// Window is a half-open time interval [Start, Stop) in seconds.
type Window struct {
	Start float64
	Stop  float64
}

// ReProRun is one execution of an experimental protocol. Its scalar
// attributes are known at open time; settings are read from the
// container once and the stimulus list holds lightweight descriptors
// whose payloads load on demand.
type ReProRun struct {
	ds       *Dataset
	name     string
	protocol string
	start    float64
	extent   float64
	refs     []string
	settings *metadata.Section
	stimuli  []*Stimulus
}

var _ Run = (*ReProRun)(nil)

// Name returns the unique run name within the dataset.
func (r *ReProRun) Name() string { return r.name }

// Protocol returns the declared RePro name, e.g. "FICurve".
func (r *ReProRun) Protocol() string { return r.protocol }

// StartTime returns the run's start in seconds of recording time.
func (r *ReProRun) StartTime() float64 { return r.start }

// StopTime returns the run's end. Zero-duration runs have
// StopTime == StartTime.
func (r *ReProRun) StopTime() float64 { return r.start + r.extent }

// Duration returns the run length in seconds.
func (r *ReProRun) Duration() float64 { return r.extent }

// Base returns the run itself; specializations forward to their
// embedded base.
func (r *ReProRun) Base() *ReProRun { return r }

// Metadata returns the run's settings tree. These are the base
// settings of the protocol; individual stimuli may override them,
// see Stimulus.Metadata.
func (r *ReProRun) Metadata() (*metadata.Section, error) {
	if err := r.ds.checkOpen(); err != nil {
		return nil, err
	}
	if r.settings == nil {
		return metadata.NewSection(r.name), nil
	}
	return r.settings, nil
}

// Stimuli returns the stimuli presented during this run, ordered by
// onset; equal onsets keep container order. Each call produces a
// fresh slice, optionally filtered.
func (r *ReProRun) Stimuli(preds ...StimulusPredicate) []*Stimulus {
	out := make([]*Stimulus, 0, len(r.stimuli))
next:
	for _, s := range r.stimuli {
		for _, pred := range preds {
			if !pred(s) {
				continue next
			}
		}
		out = append(out, s)
	}
	return out
}

// StimulusCount returns the number of stimuli presented during the
// run.
func (r *ReProRun) StimulusCount() int {
	return len(r.stimuli)
}

// Stimulus returns the i-th stimulus in onset order.
func (r *ReProRun) Stimulus(i int) (*Stimulus, error) {
	if i < 0 || i >= len(r.stimuli) {
		return nil, fmt.Errorf("stimulus index %d out of bounds for %d stimuli of run %q",
			i, len(r.stimuli), r.name)
	}
	return r.stimuli[i], nil
}

// Data reads the named channel over the run's own window, or over the
// given one. Sampled channels yield samples, event channels absolute
// timestamps.
func (r *ReProRun) Data(channel string, window ...Window) ([]float64, error) {
	w := Window{Start: r.start, Stop: r.StopTime()}
	if len(window) > 0 {
		w = window[0]
	}
	return r.readChannel(channel, w)
}

// TraceNames returns the channels this run references; a run without
// explicit references sees every channel of the dataset.
func (r *ReProRun) TraceNames() []string {
	if len(r.refs) > 0 {
		return r.refs
	}
	return r.ds.traceOrder
}

// readChannel resolves a channel name against the run's references
// and slices it; shared by run- and stimulus-level reads.
func (r *ReProRun) readChannel(channel string, w Window) ([]float64, error) {
	if err := r.ds.checkOpen(); err != nil {
		return nil, err
	}
	if !r.hasChannel(channel) {
		return nil, &UnknownChannelError{Channel: channel, Run: r.name}
	}
	trace, ok := r.ds.traces[channel]
	if !ok {
		return nil, &UnknownChannelError{Channel: channel, Run: r.name}
	}
	return trace.slice(w.Start, w.Stop)
}

func (r *ReProRun) hasChannel(channel string) bool {
	if len(r.refs) == 0 {
		return true
	}
	for _, ref := range r.refs {
		if ref == channel {
			return true
		}
	}
	return false
}

func (r *ReProRun) String() string {
	return fmt.Sprintf("repro run %q (%s) from %.4fs to %.4fs, %d stimuli",
		r.name, r.protocol, r.start, r.StopTime(), len(r.stimuli))
}
