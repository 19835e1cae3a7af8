package relacs

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/robert-malhotra/go-hdf5/hdf5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bendalab/go-relacs/internal/nixfile"
	"github.com/bendalab/go-relacs/metadata"
)

// writeStepRecording materializes a ten-second session: a 1 kHz
// voltage trace, a spike trace, one Step_001 run spanning the whole
// recording and two half-second step stimuli at 1 s and 3 s.
func writeStepRecording(t *testing.T) string {
	t.Helper()

	voltage := make([]float64, 10000)
	for i := range voltage {
		voltage[i] = math.Sin(2 * math.Pi * 8 * float64(i) / 1000)
	}
	spikes := []float64{0.2, 0.9, 1.1, 1.3, 2.7, 3.2, 3.4, 5.5, 8.8}

	b := nixfile.NewBuilder("2024-06-03-ac")
	session := metadata.NewSection("2024-06-03-ac")
	rec := metadata.NewSection("Recording")
	rec.AddProperty(metadata.NewString("Date", "2024-06-03"))
	session.AddSection(rec)
	b.Session(session)

	b.SampledTrace("voltage", 1000, 0, "mV", voltage)
	b.EventTrace("spikes", spikes)

	settings := metadata.NewSection("Step_001")
	sub := metadata.NewSection("settings")
	sub.AddProperty(metadata.NewNumeric("amplitude", "mV", 2.0))
	sub.AddProperty(metadata.NewNumeric("Contrast", "%", 10))
	settings.AddSection(sub)
	b.ReproRun("Step_001", "Step", 0, 10, []string{"voltage", "spikes"}, settings)

	b.Stimuli("step-1", []float64{1.0, 3.0}, []float64{0.5, 0.5},
		[]string{"voltage", "spikes"}, nil)
	require.NoError(t, b.Feature("step-1", "Contrast", "%", []float64{10, 20}))

	path := filepath.Join(t.TempDir(), "step.nix")
	require.NoError(t, b.Write(path))
	return path
}

func openStepRecording(t *testing.T, opts ...Option) *Dataset {
	t.Helper()
	ds, err := Open(writeStepRecording(t), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { ds.Close() })
	return ds
}

func TestOpenNotRelacs(t *testing.T) {
	dir := t.TempDir()

	foreign := filepath.Join(dir, "foreign.h5")
	f, err := hdf5.Create(foreign)
	require.NoError(t, err)
	_, err = f.Root().CreateGroup("results")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = Open(foreign)
	assert.ErrorIs(t, err, ErrNotRelacs)

	_, err = Open(filepath.Join(dir, "missing.nix"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotRelacs)
}

func TestDatasetOverview(t *testing.T) {
	ds := openStepRecording(t)

	assert.Equal(t, 1.1, ds.MappingVersion())
	assert.Equal(t, []string{"voltage"}, ds.SampledTraceNames())
	assert.Equal(t, []string{"spikes"}, ds.EventTraceNames())

	date, ok := ds.RecordingDate()
	require.True(t, ok)
	assert.Equal(t, "2024-06-03", date)

	session, err := ds.SessionMetadata()
	require.NoError(t, err)
	assert.True(t, session.Has("Recording/Date"))
	again, err := ds.SessionMetadata()
	require.NoError(t, err)
	assert.Same(t, session, again)
}

func TestRunLookup(t *testing.T) {
	ds := openStepRecording(t)

	runs := ds.Runs()
	require.Len(t, runs, 1)

	run, err := ds.Run("Step_001")
	require.NoError(t, err)
	assert.Equal(t, "Step_001", run.Name())
	assert.Equal(t, "Step", run.Protocol())
	assert.Equal(t, 0.0, run.StartTime())
	assert.Equal(t, 10.0, run.StopTime())
	assert.Equal(t, 10.0, run.Duration())
	assert.Equal(t, []string{"voltage", "spikes"}, run.TraceNames())

	_, err = ds.Run("Step_002")
	assert.Error(t, err)

	assert.Len(t, ds.RunsMatching("step"), 1)
	assert.Empty(t, ds.RunsMatching("sam"))

	assert.Len(t, ds.RunsWhere(func(r Run) bool { return r.StimulusCount() == 2 }), 1)
	assert.Empty(t, ds.RunsWhere(func(r Run) bool { return false }))
}

func TestRunMetadata(t *testing.T) {
	ds := openStepRecording(t)
	run, err := ds.Run("Step_001")
	require.NoError(t, err)

	meta, err := run.Metadata()
	require.NoError(t, err)
	assert.True(t, meta.Has("RePro-Info/RePro"))
	p, err := meta.Property("settings/amplitude")
	require.NoError(t, err)
	v, err := p.Float()
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)
}

func TestRunStimuli(t *testing.T) {
	ds := openStepRecording(t)
	run, err := ds.Run("Step_001")
	require.NoError(t, err)

	require.Equal(t, 2, run.StimulusCount())
	stims := run.Stimuli()
	require.Len(t, stims, 2)
	assert.Equal(t, 1.0, stims[0].Onset())
	assert.Equal(t, 3.0, stims[1].Onset())
	assert.Equal(t, 0.5, stims[0].Duration())
	assert.Equal(t, 1.5, stims[0].StopTime())
	assert.Equal(t, "step-1[0]", stims[0].Name())
	assert.Equal(t, 0, stims[0].Index())
	assert.Same(t, run.Base(), stims[0].Run())

	late := run.Stimuli(func(s *Stimulus) bool { return s.Onset() > 2 })
	require.Len(t, late, 1)
	assert.Equal(t, 3.0, late[0].Onset())

	s, err := run.Base().Stimulus(1)
	require.NoError(t, err)
	assert.Equal(t, 3.0, s.Onset())
	_, err = run.Base().Stimulus(2)
	assert.Error(t, err)
	_, err = run.Base().Stimulus(-1)
	assert.Error(t, err)

	require.NoError(t, stims[0].Validate())
	require.NoError(t, stims[1].Validate())

	next, ok := stims[0].NextStimulusStart()
	require.True(t, ok)
	assert.Equal(t, 3.0, next)
	_, ok = stims[1].NextStimulusStart()
	assert.False(t, ok)
}

func TestRunData(t *testing.T) {
	ds := openStepRecording(t)
	run, err := ds.Run("Step_001")
	require.NoError(t, err)

	data, err := run.Data("voltage")
	require.NoError(t, err)
	assert.Len(t, data, 10000)

	data, err = run.Data("voltage", Window{Start: 0.010, Stop: 0.015})
	require.NoError(t, err)
	assert.Len(t, data, 5)
	assert.InDelta(t, math.Sin(2*math.Pi*8*10.0/1000), data[0], 1e-12)

	// Event channels yield absolute timestamps.
	times, err := run.Data("spikes", Window{Start: 1.0, Stop: 3.0})
	require.NoError(t, err)
	assert.Equal(t, []float64{1.1, 1.3, 2.7}, times)

	// Half-open window: a stop falling exactly on a spike excludes it,
	// the adjacent window starting there picks it up instead.
	times, err = run.Data("spikes", Window{Start: 0.2, Stop: 8.8})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.2, 0.9, 1.1, 1.3, 2.7, 3.2, 3.4, 5.5}, times)
	times, err = run.Data("spikes", Window{Start: 8.8, Stop: 10})
	require.NoError(t, err)
	assert.Equal(t, []float64{8.8}, times)

	_, err = run.Data("current")
	var unknown *UnknownChannelError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "current", unknown.Channel)
	assert.Equal(t, "Step_001", unknown.Run)

	_, err = run.Data("voltage", Window{Start: 20, Stop: 30})
	var rangeErr *TimeRangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, "voltage", rangeErr.Channel)
	assert.Equal(t, [2]float64{0, 10}, rangeErr.Covered)
}

func TestStimulusData(t *testing.T) {
	ds := openStepRecording(t)
	run, err := ds.Run("Step_001")
	require.NoError(t, err)
	stims := run.Stimuli()
	require.Len(t, stims, 2)

	data, err := stims[0].Data("voltage")
	require.NoError(t, err)
	assert.Len(t, data, 500)
	assert.InDelta(t, math.Sin(2*math.Pi*8*1000.0/1000), data[0], 1e-12)

	// Served from the per-stimulus cache on repetition.
	again, err := stims[0].Data("voltage")
	require.NoError(t, err)
	assert.Equal(t, data, again)

	data, err = stims[1].Data("voltage")
	require.NoError(t, err)
	assert.Len(t, data, 500)
	assert.InDelta(t, math.Sin(2*math.Pi*8*3000.0/1000), data[0], 1e-12)

	times, err := stims[0].Data("spikes")
	require.NoError(t, err)
	assert.Equal(t, []float64{1.1, 1.3}, times)

	_, err = stims[0].Data("current")
	var unknown *UnknownChannelError
	assert.ErrorAs(t, err, &unknown)
}

func TestStimulusMetadataOverrides(t *testing.T) {
	ds := openStepRecording(t)
	run, err := ds.Run("Step_001")
	require.NoError(t, err)
	stims := run.Stimuli()
	require.Len(t, stims, 2)

	for i, want := range []float64{10, 20} {
		meta, err := stims[i].Metadata()
		require.NoError(t, err)
		p, ok := meta.Find("Contrast")
		require.True(t, ok, "stimulus %d", i)
		v, err := p.Float()
		require.NoError(t, err)
		assert.Equal(t, want, v, "stimulus %d", i)
	}

	// Overrides never leak into the run's own settings.
	meta, err := run.Metadata()
	require.NoError(t, err)
	p, err := meta.Property("settings/Contrast")
	require.NoError(t, err)
	v, err := p.Float()
	require.NoError(t, err)
	assert.Equal(t, 10.0, v)
}

func TestTraceAccessors(t *testing.T) {
	ds := openStepRecording(t)

	tr, err := ds.Trace("voltage")
	require.NoError(t, err)
	assert.Equal(t, Sampled, tr.Kind())
	assert.Equal(t, "sampled", tr.Kind().String())
	assert.Equal(t, "mV", tr.Unit())
	assert.InDelta(t, 1000.0, tr.SampleRate(), 1e-9)
	assert.Equal(t, 10000, tr.Len())
	max, err := tr.MaxTime()
	require.NoError(t, err)
	assert.InDelta(t, 10.0, max, 1e-9)

	ev, err := ds.Trace("spikes")
	require.NoError(t, err)
	assert.Equal(t, Event, ev.Kind())
	times, err := ev.Times()
	require.NoError(t, err)
	assert.Len(t, times, 9)
	max, err = ev.MaxTime()
	require.NoError(t, err)
	assert.Equal(t, 8.8, max)
	_, err = tr.Times()
	assert.Error(t, err)

	_, err = ds.Trace("current")
	var unknown *UnknownChannelError
	assert.ErrorAs(t, err, &unknown)
}

func TestCloseInvalidatesEverything(t *testing.T) {
	ds, err := Open(writeStepRecording(t))
	require.NoError(t, err)

	run, err := ds.Run("Step_001")
	require.NoError(t, err)
	stims := run.Stimuli()
	require.Len(t, stims, 2)
	tr, err := ds.Trace("spikes")
	require.NoError(t, err)

	require.NoError(t, ds.Close())
	require.NoError(t, ds.Close())

	_, err = ds.SessionMetadata()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = run.Metadata()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = run.Data("voltage")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = stims[0].Metadata()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = stims[0].Data("voltage")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = tr.Times()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = ds.Run("Step_001")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = ds.Trace("spikes")
	assert.ErrorIs(t, err, ErrClosed)

	// Descriptor attributes survive the close.
	assert.Equal(t, "Step_001", run.Name())
	assert.Equal(t, 1.0, stims[0].Onset())
}

// A read that loses the race against Close sees the container's closed
// error; it must still surface as ErrClosed.
func TestCloseRaceSurfacesErrClosed(t *testing.T) {
	ds, err := Open(writeStepRecording(t))
	require.NoError(t, err)
	defer ds.Close()

	run, err := ds.Run("Step_001")
	require.NoError(t, err)
	tr, err := ds.Trace("spikes")
	require.NoError(t, err)

	require.NoError(t, ds.c.Close())

	_, err = run.Data("voltage")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = tr.Times()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = ds.SessionMetadata()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = run.Stimuli()[0].Metadata()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestDuplicateRunNames(t *testing.T) {
	ds := openStepRecording(t)

	require.NoError(t, ds.addRun(NewRegistry(), nixfile.TagInfo{
		Name:     "Step_001",
		Type:     "relacs.repro_run",
		Position: 4.0,
		Extent:   1.0,
	}))
	require.NoError(t, ds.addRun(NewRegistry(), nixfile.TagInfo{
		Name:     "Step_001",
		Type:     "relacs.repro_run",
		Position: 6.0,
		Extent:   1.0,
	}))

	names := make([]string, 0, 3)
	for _, r := range ds.Runs() {
		names = append(names, r.Name())
	}
	assert.Equal(t, []string{"Step_001", "Step_001-2", "Step_001-3"}, names)

	dup, err := ds.Run("Step_001-2")
	require.NoError(t, err)
	assert.Equal(t, 4.0, dup.StartTime())
	assert.Equal(t, "Step", dup.Protocol())
}

func TestProtocolName(t *testing.T) {
	sec := metadata.NewSection("x")
	info := metadata.NewSection("RePro-Info")
	info.AddProperty(metadata.NewString("RePro", "FICurve"))
	sec.AddSection(info)
	assert.Equal(t, "FICurve", protocolName("whatever", sec))

	assert.Equal(t, "FICurve", protocolName("FICurve_001", nil))
	assert.Equal(t, "Baseline", protocolName("Baseline_12", nil))
	assert.Equal(t, "Baseline", protocolName("Baseline", nil))
	assert.Equal(t, "Two_Tone", protocolName("Two_Tone", nil))
}
