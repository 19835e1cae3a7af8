package relacs

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bendalab/go-relacs/internal/nixfile"
	"github.com/bendalab/go-relacs/internal/timeline"
	"github.com/bendalab/go-relacs/metadata"
)

// Dataset is the entry point to one recording session. It owns the
// container handle exclusively; Close releases it and invalidates
// every run, stimulus and trace derived from it. Runs and stimuli are
// scanned once at open time as lightweight descriptors, their heavy
// payloads are read on first access.
type Dataset struct {
	path string
	c    *nixfile.Container

	mu      sync.Mutex
	closed  bool
	session *metadata.Section // lazily read session tree

	traces     map[string]*Trace
	traceOrder []string
	runs       map[string]Run
	runOrder   []string
	tl         *timeline.Timeline
	groups     map[string]*stimGroup
}

// Open opens a recording and scans its runs, traces and stimulus
// segments. It fails with ErrNotRelacs when the container does not
// follow the relacs-NIX layout; no partial Dataset is ever returned.
func Open(path string, opts ...Option) (*Dataset, error) {
	o := defaultOpenOptions()
	for _, opt := range opts {
		opt(o)
	}
	registry := o.registry
	if o.mappingsFile != "" {
		registry = registry.Clone()
		if err := registry.LoadMappingsFile(o.mappingsFile); err != nil {
			return nil, err
		}
	}

	c, err := nixfile.Open(path, o.cacheSize)
	if err != nil {
		if errors.Is(err, nixfile.ErrLayout) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotRelacs)
		}
		return nil, err
	}

	d := &Dataset{
		path:   path,
		c:      c,
		traces: make(map[string]*Trace),
		runs:   make(map[string]Run),
		groups: make(map[string]*stimGroup),
	}
	if err := d.scan(registry); err != nil {
		c.Close()
		return nil, err
	}
	return d, nil
}

// scan builds the descriptor graph: traces, the stimulus timeline and
// the registry-resolved runs in stored order.
func (d *Dataset) scan(registry *Registry) error {
	arrays, err := d.c.DataArrays()
	if err != nil {
		return err
	}
	for _, info := range arrays {
		d.traces[info.Name] = newTrace(d, info)
		d.traceOrder = append(d.traceOrder, info.Name)
	}

	mtags, err := d.c.MultiTags()
	if err != nil {
		return err
	}
	var segments []timeline.Segment
	for _, mt := range mtags {
		if !d.c.IsStimulus(mt) {
			continue
		}
		d.groups[mt.Name] = &stimGroup{ds: d, name: mt.Name, refs: mt.References, features: mt.Features}
		for i, onset := range mt.Positions {
			segments = append(segments, timeline.Segment{
				Onset:  onset,
				Extent: mt.Extents[i],
				Group:  mt.Name,
				Index:  i,
			})
		}
	}
	d.tl = timeline.New(segments)

	tags, err := d.c.Tags()
	if err != nil {
		return err
	}
	for _, tag := range tags {
		if !tag.IsReproRun() {
			continue
		}
		if err := d.addRun(registry, tag); err != nil {
			return err
		}
	}
	return nil
}

// addRun builds one run descriptor and resolves its specialization.
// Duplicate run names receive a deterministic ordinal suffix so no
// entry silently shadows another.
func (d *Dataset) addRun(registry *Registry, tag nixfile.TagInfo) error {
	name := tag.Name
	for ordinal := 2; ; ordinal++ {
		if _, taken := d.runs[name]; !taken {
			break
		}
		name = fmt.Sprintf("%s-%d", tag.Name, ordinal)
	}

	settings, err := d.c.Section(tag.Name)
	if err != nil {
		return err
	}
	protocol := protocolName(tag.Name, settings)

	run := &ReProRun{
		ds:       d,
		name:     name,
		protocol: protocol,
		start:    tag.Position,
		extent:   tag.Extent,
		refs:     tag.References,
		settings: settings,
	}
	for _, seg := range d.tl.Within(run.start, run.StopTime()) {
		group := d.groups[seg.Group]
		run.stimuli = append(run.stimuli, &Stimulus{
			run:    run,
			group:  group,
			index:  seg.Index,
			onset:  seg.Onset,
			extent: seg.Extent,
		})
	}

	wrapped := Run(run)
	if ctor := registry.Resolve(protocol, name); ctor != nil {
		wrapped = ctor(run)
	}
	d.runs[name] = wrapped
	d.runOrder = append(d.runOrder, name)
	return nil
}

// protocolName extracts the declared RePro name from the run's
// settings, falling back to the run name stripped of its trailing
// ordinal ("FICurve_001" ran the FICurve protocol).
func protocolName(runName string, settings *metadata.Section) string {
	if settings != nil {
		if p, err := settings.Property("RePro-Info/RePro"); err == nil {
			if s, err := p.String(); err == nil && s != "" {
				return s
			}
		}
	}
	if i := strings.LastIndex(runName, "_"); i > 0 {
		if strings.Trim(runName[i+1:], "0123456789") == "" {
			return runName[:i]
		}
	}
	return runName
}

// Close releases the container handle. It is idempotent; afterwards
// every lookup and every payload access fails with ErrClosed. The
// enumerators (Runs, RunsMatching, RunsWhere, trace name lists) keep
// returning the descriptors built at open time; only their payload
// accessors fail.
func (d *Dataset) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return d.c.Close()
}

func (d *Dataset) closedNow() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *Dataset) checkOpen() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	return nil
}

// containerErr rewrites container sentinels into the package's own. A
// lazy read can lose the race against Close and surface the
// container's closed error; callers must see ErrClosed either way.
func containerErr(err error) error {
	if errors.Is(err, nixfile.ErrClosed) {
		return ErrClosed
	}
	return err
}

// Name returns the path of the underlying container file.
func (d *Dataset) Name() string {
	return d.path
}

// MappingVersion returns the relacs-to-NIX mapping version of the
// container.
func (d *Dataset) MappingVersion() float64 {
	return d.c.Version()
}

// Runs returns all repro runs in recording order.
func (d *Dataset) Runs() []Run {
	out := make([]Run, 0, len(d.runOrder))
	for _, name := range d.runOrder {
		out = append(out, d.runs[name])
	}
	return out
}

// Run returns the run with the exact given name.
func (d *Dataset) Run(name string) (Run, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	run, ok := d.runs[name]
	if !ok {
		return nil, fmt.Errorf("no repro run %q in %s", name, d.path)
	}
	return run, nil
}

// RunsMatching returns the runs whose name contains the given
// substring, case-insensitively, in recording order.
func (d *Dataset) RunsMatching(substr string) []Run {
	needle := strings.ToLower(substr)
	var out []Run
	for _, name := range d.runOrder {
		if strings.Contains(strings.ToLower(name), needle) {
			out = append(out, d.runs[name])
		}
	}
	return out
}

// RunsWhere returns the runs satisfying the predicate, in recording
// order.
func (d *Dataset) RunsWhere(pred func(Run) bool) []Run {
	var out []Run
	for _, name := range d.runOrder {
		if pred(d.runs[name]) {
			out = append(out, d.runs[name])
		}
	}
	return out
}

// SessionMetadata returns the session-level metadata tree, read on
// first call and cached.
func (d *Dataset) SessionMetadata() (*metadata.Section, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}
	if d.session != nil {
		return d.session, nil
	}
	sec, err := d.c.Section(d.c.BlockName())
	if err != nil {
		return nil, containerErr(err)
	}
	if sec == nil {
		sec = metadata.NewSection(d.c.BlockName())
	}
	d.session = sec
	return sec, nil
}

// RecordingDate returns the session's recording date when the
// metadata carries one.
func (d *Dataset) RecordingDate() (string, bool) {
	sec, err := d.SessionMetadata()
	if err != nil {
		return "", false
	}
	for _, path := range []string{"Recording/Date", "Date"} {
		if p, err := sec.Property(path); err == nil {
			if s, err := p.String(); err == nil {
				return s, true
			}
		}
	}
	return "", false
}

// Trace returns the descriptor of a recorded channel.
func (d *Dataset) Trace(name string) (*Trace, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	t, ok := d.traces[name]
	if !ok {
		return nil, &UnknownChannelError{Channel: name}
	}
	return t, nil
}

// SampledTraceNames returns the names of the continuously sampled
// channels in stored order.
func (d *Dataset) SampledTraceNames() []string {
	return d.traceNames(Sampled)
}

// EventTraceNames returns the names of the event channels in stored
// order.
func (d *Dataset) EventTraceNames() []string {
	return d.traceNames(Event)
}

func (d *Dataset) traceNames(kind TraceKind) []string {
	var out []string
	for _, name := range d.traceOrder {
		if d.traces[name].kind == kind {
			out = append(out, name)
		}
	}
	return out
}
