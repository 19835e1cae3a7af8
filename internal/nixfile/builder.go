package nixfile

import (
	"fmt"

	"github.com/robert-malhotra/go-hdf5/hdf5"

	"github.com/bendalab/go-relacs/metadata"
)

// Builder writes a synthetic relacs-NIX recording through the hdf5
// write API. It exists for tests and for generating demo files; the
// library itself never writes.
type Builder struct {
	blockName string
	version   float64
	session   *metadata.Section
	arrays    []arraySpec
	tags      []tagSpec
	mtags     []mtagSpec
	sections  []*metadata.Section
}

type arraySpec struct {
	name     string
	kind     TraceKind
	unit     string
	label    string
	interval float64 // sampled only
	offset   float64
	data     []float64
}

type tagSpec struct {
	name     string
	position float64
	extent   float64
	refs     []string
}

type mtagSpec struct {
	name      string
	positions []float64
	extents   []float64
	refs      []string
	features  []FeatureInfo
}

// NewBuilder creates a builder for a recording with one block, using
// mapping version 1.1.
func NewBuilder(blockName string) *Builder {
	b := &Builder{blockName: blockName, version: 1.1}
	b.session = metadata.NewSection(blockName)
	b.session.AddProperty(metadata.NewNumeric(versionProperty, "", b.version))
	return b
}

// MappingVersion switches the relacs-to-NIX mapping version the
// recording is written with.
func (b *Builder) MappingVersion(v float64) {
	b.version = v
	b.session.AddProperty(metadata.NewNumeric(versionProperty, "", v))
}

// Session replaces the session metadata section. The mapping version
// property is preserved unless the section carries its own.
func (b *Builder) Session(sec *metadata.Section) {
	if !sec.Has(versionProperty) {
		sec.AddProperty(metadata.NewNumeric(versionProperty, "", b.version))
	}
	b.session = sec
}

// SampledTrace adds a regularly sampled signal.
func (b *Builder) SampledTrace(name string, rate, start float64, unit string, data []float64) {
	b.arrays = append(b.arrays, arraySpec{
		name:     name,
		kind:     SampledTrace,
		unit:     unit,
		interval: 1.0 / rate,
		offset:   start,
		data:     data,
	})
}

// EventTrace adds an event signal holding the given timestamps.
func (b *Builder) EventTrace(name string, times []float64) {
	b.arrays = append(b.arrays, arraySpec{
		name: name,
		kind: EventTrace,
		unit: "s",
		data: times,
	})
}

// ReproRun adds a repro-run tag spanning [start, start+extent] that
// references the named traces. The settings section is stored under
// /metadata/<name>; the RePro-Info/RePro property naming the protocol
// is filled in when the settings do not carry it.
func (b *Builder) ReproRun(name, repro string, start, extent float64, refs []string, settings *metadata.Section) {
	if settings == nil {
		settings = metadata.NewSection(name)
	}
	if !settings.Has("RePro-Info/RePro") {
		info := metadata.NewSection("RePro-Info")
		info.AddProperty(metadata.NewString("RePro", repro))
		settings.AddSection(info)
	}
	b.tags = append(b.tags, tagSpec{name: name, position: start, extent: extent, refs: refs})
	b.sections = append(b.sections, renamed(settings, name))
}

// Stimuli adds a stimulus multi-tag with one segment per onset.
func (b *Builder) Stimuli(name string, onsets, extents []float64, refs []string, settings *metadata.Section) {
	b.mtags = append(b.mtags, mtagSpec{name: name, positions: onsets, extents: extents, refs: refs})
	if settings != nil {
		b.sections = append(b.sections, renamed(settings, name))
	}
}

// Feature attaches per-presentation values to a previously added
// stimulus multi-tag. Values override the settings property of the
// same name when stimuli resolve their metadata.
func (b *Builder) Feature(mtagName, featureName, unit string, values []float64) error {
	for i := range b.mtags {
		if b.mtags[i].name == mtagName {
			b.mtags[i].features = append(b.mtags[i].features, FeatureInfo{
				Name:   featureName,
				Unit:   unit,
				Values: values,
			})
			return nil
		}
	}
	return fmt.Errorf("no stimulus multi-tag %q", mtagName)
}

// Write materializes the recording at path.
func (b *Builder) Write(path string) error {
	f, err := hdf5.Create(path)
	if err != nil {
		return fmt.Errorf("creating container: %w", err)
	}
	defer f.Close()

	data, err := f.Root().CreateGroup("data")
	if err != nil {
		return err
	}
	if _, err := data.CreateGroup(b.blockName); err != nil {
		return err
	}

	if err := b.writeArrays(f.Root()); err != nil {
		return err
	}
	if err := b.writeTags(f.Root()); err != nil {
		return err
	}
	if err := b.writeMultiTags(f.Root()); err != nil {
		return err
	}

	meta, err := f.Root().CreateGroup("metadata")
	if err != nil {
		return err
	}
	if err := writeSection(meta, b.session, ""); err != nil {
		return err
	}
	for _, sec := range b.sections {
		if err := writeSection(meta, sec, ""); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) writeArrays(root *hdf5.Group) error {
	group, err := root.CreateGroup("data_arrays")
	if err != nil {
		return err
	}
	for _, a := range b.arrays {
		typ := typeSampledV11
		switch {
		case a.kind == EventTrace && b.version < 1.1:
			typ = typeEventV10
		case a.kind == EventTrace:
			typ = typeEventV11
		case b.version < 1.1:
			typ = typeSampledV10
		}
		opts := []hdf5.DatasetOption{
			hdf5.WithAttribute("type", typ),
			hdf5.WithAttribute("unit", a.unit),
		}
		if a.label != "" {
			opts = append(opts, hdf5.WithAttribute("label", a.label))
		}
		if a.interval > 0 {
			opts = append(opts,
				hdf5.WithAttribute("sampling_interval", a.interval),
				hdf5.WithAttribute("offset", a.offset))
		}
		if _, err := group.CreateDataset(a.name, a.data, opts...); err != nil {
			return fmt.Errorf("writing data array %q: %w", a.name, err)
		}
	}
	return nil
}

func (b *Builder) writeTags(root *hdf5.Group) error {
	if len(b.tags) == 0 {
		return nil
	}
	group, err := root.CreateGroup("tags")
	if err != nil {
		return err
	}
	for _, t := range b.tags {
		opts := []hdf5.DatasetOption{hdf5.WithAttribute("type", typeReproRun)}
		if len(t.refs) > 0 {
			opts = append(opts, hdf5.WithAttribute("references", t.refs))
		}
		span := []float64{t.position, t.extent}
		if _, err := group.CreateDataset(t.name, span, opts...); err != nil {
			return fmt.Errorf("writing tag %q: %w", t.name, err)
		}
	}
	return nil
}

func (b *Builder) writeMultiTags(root *hdf5.Group) error {
	if len(b.mtags) == 0 {
		return nil
	}
	group, err := root.CreateGroup("multi_tags")
	if err != nil {
		return err
	}
	for _, mt := range b.mtags {
		stimType := typeStimulusV11
		if b.version < 1.1 {
			stimType = typeStimulusV10
		}
		extents := mt.extents
		if len(extents) < len(mt.positions) {
			padded := make([]float64, len(mt.positions))
			copy(padded, extents)
			extents = padded
		}
		opts := []hdf5.DatasetOption{
			hdf5.WithAttribute("type", stimType),
			hdf5.WithAttribute("extents", extents),
		}
		if len(mt.refs) > 0 {
			opts = append(opts, hdf5.WithAttribute("references", mt.refs))
		}
		for _, feat := range mt.features {
			opts = append(opts, hdf5.WithAttribute(featurePrefix+feat.Name, feat.Values))
			if feat.Unit != "" {
				opts = append(opts, hdf5.WithAttribute(featurePrefix+feat.Name+unitSuffix, feat.Unit))
			}
		}
		if _, err := group.CreateDataset(mt.name, mt.positions, opts...); err != nil {
			return fmt.Errorf("writing multi-tag %q: %w", mt.name, err)
		}
	}
	return nil
}

// writeSection stores a metadata tree as one dataset per section, the
// section path joined with sectionSep. Properties ride as attributes
// on the section dataset because the write API does not support group
// attributes.
func writeSection(meta *hdf5.Group, sec *metadata.Section, prefix string) error {
	name := sec.Name()
	if prefix != "" {
		name = prefix + sectionSep + name
	}

	var opts []hdf5.DatasetOption
	for _, p := range sec.Properties() {
		if p.IsNumeric() {
			values, _ := p.Floats()
			opts = append(opts, hdf5.WithAttribute(p.Name(), values))
			if p.Unit() != "" {
				opts = append(opts, hdf5.WithAttribute(p.Name()+unitSuffix, p.Unit()))
			}
		} else {
			values, _ := p.Strings()
			opts = append(opts, hdf5.WithAttribute(p.Name(), values))
		}
	}
	if _, err := meta.CreateDataset(name, []float64{0}, opts...); err != nil {
		return fmt.Errorf("writing section %q: %w", name, err)
	}

	for _, sub := range sec.Sections() {
		if err := writeSection(meta, sub, name); err != nil {
			return err
		}
	}
	return nil
}

// renamed returns the section under a new name, reusing the subtree.
func renamed(sec *metadata.Section, name string) *metadata.Section {
	if sec.Name() == name {
		return sec
	}
	out := metadata.NewSection(name)
	for _, p := range sec.Properties() {
		out.AddProperty(p)
	}
	for _, s := range sec.Sections() {
		out.AddSection(s)
	}
	return out
}
