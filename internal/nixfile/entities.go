package nixfile

import (
	"fmt"
	"strings"

	"github.com/robert-malhotra/go-hdf5/hdf5"
)

// TraceKind distinguishes regularly sampled signals from event-based
// ones.
type TraceKind int

const (
	SampledTrace TraceKind = iota
	EventTrace
)

// featurePrefix marks multi-tag attributes carrying per-presentation
// feature values, one attribute per feature.
const featurePrefix = "feature:"

// DataArrayInfo is a lightweight descriptor of one data array. The
// array payload is never read during scanning.
type DataArrayInfo struct {
	Name       string
	Type       string
	Unit       string
	Label      string
	Kind       TraceKind
	SampleRate float64 // Hz, sampled traces only
	StartTime  float64 // time of the first sample
	Len        int     // sample or event count
}

// TagInfo describes one tagged region, typically a repro run.
type TagInfo struct {
	Name       string
	Type       string
	Position   float64
	Extent     float64
	References []string
}

// FeatureInfo carries per-presentation values attached to a stimulus
// multi-tag, one value per position index.
type FeatureInfo struct {
	Name   string
	Unit   string
	Values []float64
}

// MultiTagInfo describes one multi-tag: a set of co-typed segments,
// typically the presentations of one stimulus.
type MultiTagInfo struct {
	Name       string
	Type       string
	Positions  []float64
	Extents    []float64
	References []string
	Features   []FeatureInfo
}

// IsReproRun reports whether the tag marks a repro run.
func (t TagInfo) IsReproRun() bool {
	return strings.Contains(t.Type, typeReproRun)
}

// DataArrays enumerates the recording's data arrays in stored order.
func (c *Container) DataArrays() ([]DataArrayInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}

	group, err := c.f.OpenGroup("/data_arrays")
	if err != nil {
		return nil, fmt.Errorf("%w: no data_arrays group", ErrLayout)
	}
	names, err := group.Members()
	if err != nil {
		return nil, err
	}

	var infos []DataArrayInfo
	for _, name := range names {
		data, err := group.OpenDataset(name)
		if err != nil {
			return nil, fmt.Errorf("%w: data array %q unreadable", ErrLayout, name)
		}

		info := DataArrayInfo{
			Name:  name,
			Type:  stringAttr(data, "type"),
			Unit:  stringAttr(data, "unit"),
			Label: stringAttr(data, "label"),
		}
		if shape := data.Shape(); len(shape) > 0 {
			info.Len = int(shape[0])
		}
		if strings.Contains(info.Type, c.eventType()) {
			info.Kind = EventTrace
		} else {
			info.Kind = SampledTrace
			if dt, ok := floatAttr(data, "sampling_interval"); ok && dt > 0 {
				info.SampleRate = 1.0 / dt
			}
			info.StartTime, _ = floatAttr(data, "offset")
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Tags enumerates the recording's tags in stored order.
func (c *Container) Tags() ([]TagInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}

	group, err := c.f.OpenGroup("/tags")
	if err != nil {
		return nil, nil // a recording without repro runs is legal
	}
	names, err := group.Members()
	if err != nil {
		return nil, err
	}

	var infos []TagInfo
	for _, name := range names {
		ds, err := group.OpenDataset(name)
		if err != nil {
			return nil, fmt.Errorf("%w: tag %q unreadable", ErrLayout, name)
		}
		span, err := ds.ReadFloat64()
		if err != nil || len(span) < 2 {
			return nil, fmt.Errorf("%w: tag %q has no position and extent", ErrLayout, name)
		}

		infos = append(infos, TagInfo{
			Name:       name,
			Type:       stringAttr(ds, "type"),
			Position:   span[0],
			Extent:     span[1],
			References: stringsAttr(ds, "references"),
		})
	}
	return infos, nil
}

// MultiTags enumerates the recording's multi-tags in stored order.
func (c *Container) MultiTags() ([]MultiTagInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}

	group, err := c.f.OpenGroup("/multi_tags")
	if err != nil {
		return nil, nil
	}
	names, err := group.Members()
	if err != nil {
		return nil, err
	}

	var infos []MultiTagInfo
	for _, name := range names {
		ds, err := group.OpenDataset(name)
		if err != nil {
			return nil, fmt.Errorf("%w: multi-tag %q unreadable", ErrLayout, name)
		}
		onsets, err := ds.ReadFloat64()
		if err != nil {
			return nil, fmt.Errorf("%w: multi-tag %q positions unreadable", ErrLayout, name)
		}

		info := MultiTagInfo{
			Name:       name,
			Type:       stringAttr(ds, "type"),
			Positions:  onsets,
			References: stringsAttr(ds, "references"),
		}
		info.Extents, _ = floatsAttr(ds, "extents")
		// Without extents every presentation has zero duration.
		if len(info.Extents) < len(info.Positions) {
			padded := make([]float64, len(info.Positions))
			copy(padded, info.Extents)
			info.Extents = padded
		}
		info.Features = readFeatures(ds)
		infos = append(infos, info)
	}
	return infos, nil
}

// IsStimulus reports whether the multi-tag holds stimulus segments
// under the container's mapping version.
func (c *Container) IsStimulus(mt MultiTagInfo) bool {
	return strings.Contains(mt.Type, c.stimulusType())
}

// readFeatures collects the per-presentation feature attributes of a
// multi-tag dataset. Features are small (one value per presentation),
// so they are read during scanning.
func readFeatures(ds *hdf5.Dataset) []FeatureInfo {
	var feats []FeatureInfo
	for _, attrName := range ds.Attrs() {
		if !strings.HasPrefix(attrName, featurePrefix) ||
			strings.HasSuffix(attrName, unitSuffix) {
			continue
		}
		values, ok := floatsAttr(ds, attrName)
		if !ok {
			continue
		}
		feats = append(feats, FeatureInfo{
			Name:   strings.TrimPrefix(attrName, featurePrefix),
			Unit:   stringAttr(ds, attrName+unitSuffix),
			Values: values,
		})
	}
	return feats
}
