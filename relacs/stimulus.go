package relacs

import (
	"fmt"
	"strings"
	"sync"

	"github.com/bendalab/go-relacs/internal/nixfile"
	"github.com/bendalab/go-relacs/internal/timeline"
	"github.com/bendalab/go-relacs/metadata"
)

// stimGroup is the shared state of all stimuli belonging to one
// stimulus multi-tag: its references, its settings section and the
// per-presentation feature values. The settings tree loads once on
// first use.
type stimGroup struct {
	ds       *Dataset
	name     string
	refs     []string
	features []nixfile.FeatureInfo

	mu   sync.Mutex
	meta *metadata.Section
}

// settings returns the group's settings section, loading and caching
// it under the group lock. A failed load leaves the cache empty so a
// later call can retry.
func (g *stimGroup) settings() (*metadata.Section, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ds.closedNow() {
		return nil, ErrClosed
	}
	if g.meta != nil {
		return g.meta, nil
	}
	sec, err := g.ds.c.Section(g.name)
	if err != nil {
		return nil, containerErr(err)
	}
	if sec == nil {
		sec = metadata.NewSection(g.name)
	}
	g.meta = sec
	return sec, nil
}

// Stimulus is one stimulus presentation within a run: the index-th
// segment of its multi-tag. Construction stores positional
// information only; settings and signal windows are fetched on first
// access and cached per instance.
type Stimulus struct {
	run    *ReProRun
	group  *stimGroup
	index  int
	onset  float64
	extent float64

	mu    sync.Mutex
	meta  *metadata.Section
	cache map[windowKey][]float64
}

type windowKey struct {
	channel string
	start   float64
	stop    float64
}

// Name identifies the presentation as "<multi-tag>[<index>]".
func (s *Stimulus) Name() string {
	return fmt.Sprintf("%s[%d]", s.group.name, s.index)
}

// Onset returns the stimulus onset in seconds of recording time.
func (s *Stimulus) Onset() float64 { return s.onset }

// Duration returns the presentation length in seconds.
func (s *Stimulus) Duration() float64 { return s.extent }

// StopTime returns onset + duration.
func (s *Stimulus) StopTime() float64 { return s.onset + s.extent }

// Index returns the presentation's position within its multi-tag.
func (s *Stimulus) Index() int { return s.index }

// Run returns the owning repro run.
func (s *Stimulus) Run() *ReProRun { return s.run }

// Validate checks that the presentation lies within its run's window,
// tolerant of floating-point round-off. Violations are reported, the
// stimulus is never clamped.
func (s *Stimulus) Validate() error {
	if s.onset < s.run.start-timeline.Epsilon || s.StopTime() > s.run.StopTime()+timeline.Epsilon {
		return fmt.Errorf("stimulus %s spans [%gs, %gs) outside run %q window [%gs, %gs]",
			s.Name(), s.onset, s.StopTime(), s.run.name, s.run.start, s.run.StopTime())
	}
	return nil
}

// Metadata returns the stimulus settings: the multi-tag's settings
// tree with this presentation's feature values folded in. Features
// carry per-presentation overrides of swept parameters ("Contrast",
// "DeltaF"); the override replaces the property of the same name
// wherever it sits in the tree, adding it at the root when the
// settings never declared it. The result is computed once and cached.
func (s *Stimulus) Metadata() (*metadata.Section, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run.ds.closedNow() {
		return nil, ErrClosed
	}
	if s.meta != nil {
		return s.meta, nil
	}

	base, err := s.group.settings()
	if err != nil {
		return nil, err
	}
	sec := base.Clone()
	for _, feat := range s.group.features {
		if s.index >= len(feat.Values) {
			continue
		}
		override := metadata.NewNumeric(lastPathPart(feat.Name), feat.Unit, feat.Values[s.index])
		applyOverride(sec, feat.Name, override)
	}
	s.meta = sec
	return sec, nil
}

// applyOverride places a feature value into the settings tree. Dotted
// feature names descend subsections; bare names replace the first
// property of that name found anywhere, defaulting to the root.
func applyOverride(sec *metadata.Section, name string, p *metadata.Property) {
	target := sec
	if strings.Contains(name, ".") {
		parts := strings.Split(name, ".")
		if sub, err := sec.Section(strings.Join(parts[:len(parts)-1], "/")); err == nil {
			sub.AddProperty(p)
			return
		}
		name = parts[len(parts)-1]
	}
	if owner, ok := sec.FindOwner(name); ok {
		target = owner
	}
	target.AddProperty(p)
}

func lastPathPart(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}

// Data reads the named channel during this presentation, defaulting
// the window to [onset, onset+duration). Fetched windows are cached
// per instance, so repeated reads of the same region cost one file
// access.
func (s *Stimulus) Data(channel string, window ...Window) ([]float64, error) {
	w := Window{Start: s.onset, Stop: s.StopTime()}
	if len(window) > 0 {
		w = window[0]
	}
	if err := s.run.ds.checkOpen(); err != nil {
		return nil, err
	}
	if !s.hasChannel(channel) {
		return nil, &UnknownChannelError{Channel: channel, Run: s.run.name}
	}

	key := windowKey{channel: channel, start: w.Start, stop: w.Stop}
	s.mu.Lock()
	if data, ok := s.cache[key]; ok {
		s.mu.Unlock()
		return data, nil
	}
	s.mu.Unlock()

	data, err := s.run.readChannel(channel, w)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.cache == nil {
		s.cache = make(map[windowKey][]float64)
	}
	s.cache[key] = data
	s.mu.Unlock()
	return data, nil
}

// hasChannel resolves against the multi-tag's references first, then
// the run's.
func (s *Stimulus) hasChannel(channel string) bool {
	if len(s.group.refs) == 0 {
		return s.run.hasChannel(channel)
	}
	for _, ref := range s.group.refs {
		if ref == channel {
			return true
		}
	}
	return false
}

// NextStimulusStart returns the onset of the next stimulus anywhere
// in the recording, false when this is the last one.
func (s *Stimulus) NextStimulusStart() (float64, bool) {
	return s.run.ds.tl.NextOnset(s.onset)
}

func (s *Stimulus) String() string {
	return fmt.Sprintf("stimulus %s at %.4fs for %.4fs", s.Name(), s.onset, s.extent)
}
