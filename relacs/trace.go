package relacs

import (
	"fmt"

	"github.com/bendalab/go-relacs/internal/nixfile"
	"github.com/bendalab/go-relacs/internal/timeline"
)

// TraceKind distinguishes continuously sampled channels from
// event-based ones.
type TraceKind int

const (
	// Sampled traces hold one value per sampling interval, e.g. the
	// membrane potential.
	Sampled TraceKind = iota
	// Event traces hold timestamps, e.g. detected spikes.
	Event
)

func (k TraceKind) String() string {
	if k == Event {
		return "event"
	}
	return "sampled"
}

// Trace describes one recorded channel. It is a lightweight
// descriptor; event timestamps are loaded on first use and sampled
// payloads only ever through windowed reads.
type Trace struct {
	ds    *Dataset
	name  string
	typ   string
	unit  string
	kind  TraceKind
	rate  float64 // Hz, sampled only
	start float64
	n     int

	times []float64 // event timestamps, lazily filled under ds.mu
}

func newTrace(ds *Dataset, info nixfile.DataArrayInfo) *Trace {
	t := &Trace{
		ds:    ds,
		name:  info.Name,
		typ:   info.Type,
		unit:  info.Unit,
		rate:  info.SampleRate,
		start: info.StartTime,
		n:     info.Len,
	}
	if info.Kind == nixfile.EventTrace {
		t.kind = Event
	}
	return t
}

// Name returns the channel name, e.g. "V-1".
func (t *Trace) Name() string { return t.name }

// Kind returns whether the channel is sampled or event-based.
func (t *Trace) Kind() TraceKind { return t.kind }

// Unit returns the unit of the recorded values.
func (t *Trace) Unit() string { return t.unit }

// SampleRate returns the sampling rate in Hz, zero for event traces.
func (t *Trace) SampleRate() float64 { return t.rate }

// StartTime returns the time of the first sample.
func (t *Trace) StartTime() float64 { return t.start }

// Len returns the stored sample or event count.
func (t *Trace) Len() int { return t.n }

// MaxTime returns the last time covered by the channel.
func (t *Trace) MaxTime() (float64, error) {
	if t.kind == Sampled {
		if t.rate <= 0 {
			return 0, fmt.Errorf("trace %q has no sampling rate", t.name)
		}
		return t.start + float64(t.n)/t.rate, nil
	}
	ts, err := t.Times()
	if err != nil {
		return 0, err
	}
	if len(ts) == 0 {
		return 0, nil
	}
	return ts[len(ts)-1], nil
}

// Times returns all timestamps of an event trace. The slice is shared
// and must not be mutated.
func (t *Trace) Times() ([]float64, error) {
	if t.kind != Event {
		return nil, fmt.Errorf("trace %q is not an event trace", t.name)
	}

	t.ds.mu.Lock()
	defer t.ds.mu.Unlock()
	if t.ds.closed {
		return nil, ErrClosed
	}
	if t.times != nil {
		return t.times, nil
	}
	ts, err := t.ds.c.EventTimes(t.name)
	if err != nil {
		return nil, containerErr(err)
	}
	t.times = ts
	return ts, nil
}

// slice reads the channel's values inside [wstart, wstop): samples
// for sampled traces, absolute timestamps for event traces.
func (t *Trace) slice(wstart, wstop float64) ([]float64, error) {
	if t.kind == Sampled {
		offset, count, err := timeline.SampledWindow(t.start, t.rate, t.n, wstart, wstop)
		if err != nil {
			max, _ := t.MaxTime()
			return nil, &TimeRangeError{
				Channel: t.name,
				Start:   wstart,
				Stop:    wstop,
				Covered: [2]float64{t.start, max},
			}
		}
		if err := t.ds.checkOpen(); err != nil {
			return nil, err
		}
		out, err := t.ds.c.ReadRange(t.name, offset, count)
		if err != nil {
			return nil, containerErr(err)
		}
		return out, nil
	}

	ts, err := t.Times()
	if err != nil {
		return nil, err
	}
	if len(ts) > 0 {
		first, last := ts[0], ts[len(ts)-1]
		if wstop < first-timeline.Epsilon || wstart > last+timeline.Epsilon {
			return nil, &TimeRangeError{
				Channel: t.name,
				Start:   wstart,
				Stop:    wstop,
				Covered: [2]float64{first, last},
			}
		}
	}
	lo, hi := timeline.EventWindow(ts, wstart, wstop)
	out := make([]float64, hi-lo)
	copy(out, ts[lo:hi])
	return out, nil
}
