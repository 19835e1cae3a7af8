// Package timeline resolves time windows against the segments and
// signal arrays of a recording. All times are floating-point seconds;
// comparisons tolerate Epsilon to absorb round-off in sample-rate
// derived timestamps.
package timeline

import (
	"errors"
	"math"
	"sort"
)

// Epsilon is the tolerance applied to all time comparisons.
const Epsilon = 1e-9

// ErrOutOfRange reports a window that lies entirely outside the
// interval covered by an entity.
var ErrOutOfRange = errors.New("window outside covered interval")

// SampledWindow converts the time window [wstart, wstop) into a sample
// range of a signal that starts at startTime, was sampled at rate Hz
// and holds n samples. The offset is rounded to the nearest sample,
// the count to the nearest whole number of samples, and both are
// clamped to the signal's bounds. A window entirely before or after
// the covered interval yields ErrOutOfRange.
func SampledWindow(startTime, rate float64, n int, wstart, wstop float64) (offset, count int, err error) {
	if rate <= 0 || n < 0 {
		return 0, 0, ErrOutOfRange
	}
	covered := startTime + float64(n)/rate
	if wstop <= startTime+Epsilon || wstart >= covered-Epsilon {
		return 0, 0, ErrOutOfRange
	}

	offset = int(math.Round((wstart - startTime) * rate))
	count = int(math.Round((wstop - wstart) * rate))
	if offset < 0 {
		count += offset
		offset = 0
	}
	if offset > n {
		offset = n
	}
	if offset+count > n {
		count = n - offset
	}
	if count < 0 {
		count = 0
	}
	return offset, count, nil
}

// EventWindow returns the index range [lo, hi) of timestamps that
// satisfy wstart <= t < wstop. ts must be sorted ascending. The
// half-open convention keeps boundary events from being counted by
// two adjacent windows; it also means a window ending exactly on the
// last timestamp excludes that event, so retrieving every event needs
// a stop strictly beyond it.
func EventWindow(ts []float64, wstart, wstop float64) (lo, hi int) {
	lo = sort.SearchFloat64s(ts, wstart-Epsilon)
	hi = sort.SearchFloat64s(ts, wstop-Epsilon)
	return lo, hi
}

// Segment is one tagged stretch of recording time: a stimulus
// presentation belonging to a named multi-tag at a given position
// index.
type Segment struct {
	Onset  float64
	Extent float64
	Group  string // owning multi-tag name
	Index  int    // position index within the multi-tag
}

// Stop returns the segment's end time.
func (s Segment) Stop() float64 {
	return s.Onset + s.Extent
}

// Timeline holds all stimulus segments of a recording ordered by
// onset. Segments with identical onsets keep their original
// enumeration order, so repeated loads of the same file produce the
// same sequence.
type Timeline struct {
	segments []Segment
}

// New builds a timeline from segments in container enumeration order.
func New(segments []Segment) *Timeline {
	sorted := make([]Segment, len(segments))
	copy(sorted, segments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Onset < sorted[j].Onset-Epsilon
	})
	return &Timeline{segments: sorted}
}

// Segments returns all segments in onset order.
func (t *Timeline) Segments() []Segment {
	return t.segments
}

// Within returns the segments that lie completely inside
// [start, stop], onset-ordered. Boundaries are inclusive up to
// Epsilon.
func (t *Timeline) Within(start, stop float64) []Segment {
	var out []Segment
	for _, s := range t.segments {
		if s.Onset > stop+Epsilon {
			break
		}
		if s.Onset >= start-Epsilon && s.Stop() <= stop+Epsilon {
			out = append(out, s)
		}
	}
	return out
}

// NextOnset returns the first segment onset strictly after the given
// time, or false if none follows.
func (t *Timeline) NextOnset(after float64) (float64, bool) {
	i := sort.Search(len(t.segments), func(i int) bool {
		return t.segments[i].Onset > after+Epsilon
	})
	if i == len(t.segments) {
		return 0, false
	}
	return t.segments[i].Onset, true
}

// Span returns the interval covered by the timeline.
func (t *Timeline) Span() (min, max float64) {
	if len(t.segments) == 0 {
		return 0, 0
	}
	min = t.segments[0].Onset
	for _, s := range t.segments {
		if s.Stop() > max {
			max = s.Stop()
		}
	}
	return min, max
}
