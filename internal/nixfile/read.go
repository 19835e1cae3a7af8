package nixfile

import (
	"fmt"

	"github.com/robert-malhotra/go-hdf5/hdf5"
)

// ReadRange reads count samples of the named data array starting at
// offset. The range is clamped to the array bounds. Decoded arrays
// are kept in a bounded LRU so repeated windows into the same trace
// do not re-read the file.
func (c *Container) ReadRange(name string, offset, count int) ([]float64, error) {
	data, err := c.arrayData(name)
	if err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if offset > len(data) {
		offset = len(data)
	}
	if offset+count > len(data) {
		count = len(data) - offset
	}
	if count < 0 {
		count = 0
	}
	out := make([]float64, count)
	copy(out, data[offset:offset+count])
	return out, nil
}

// EventTimes returns all timestamps of the named event array.
func (c *Container) EventTimes(name string) ([]float64, error) {
	return c.arrayData(name)
}

// arrayData returns the full decoded payload of a data array, served
// from the LRU when possible. The returned slice is shared; callers
// must not mutate it.
func (c *Container) arrayData(name string) ([]float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if data, ok := c.arrays.Get(name); ok {
		return data, nil
	}

	group, err := c.f.OpenGroup("/data_arrays")
	if err != nil {
		return nil, fmt.Errorf("%w: no data_arrays group", ErrLayout)
	}
	ds, err := group.OpenDataset(name)
	if err != nil {
		return nil, fmt.Errorf("data array %q: %w", name, err)
	}
	data, err := ds.ReadFloat64()
	if err != nil {
		return nil, fmt.Errorf("reading data array %q: %w", name, err)
	}
	c.arrays.Add(name, data)
	return data, nil
}

// stringAttr reads a scalar string attribute, empty when absent.
func stringAttr(ds *hdf5.Dataset, name string) string {
	attr := ds.Attr(name)
	if attr == nil {
		return ""
	}
	val, err := attr.Value()
	if err != nil {
		return ""
	}
	switch v := val.(type) {
	case string:
		return v
	case []string:
		if len(v) > 0 {
			return v[0]
		}
	}
	return ""
}

// stringsAttr reads a string-array attribute, nil when absent.
func stringsAttr(ds *hdf5.Dataset, name string) []string {
	attr := ds.Attr(name)
	if attr == nil {
		return nil
	}
	val, err := attr.Value()
	if err != nil {
		return nil
	}
	switch v := val.(type) {
	case []string:
		return v
	case string:
		return []string{v}
	}
	return nil
}

// floatAttr reads a scalar numeric attribute.
func floatAttr(ds *hdf5.Dataset, name string) (float64, bool) {
	attr := ds.Attr(name)
	if attr == nil {
		return 0, false
	}
	val, err := attr.Value()
	if err != nil {
		return 0, false
	}
	switch v := val.(type) {
	case float64:
		return v, true
	case []float64:
		if len(v) > 0 {
			return v[0], true
		}
	case int64:
		return float64(v), true
	case []int64:
		if len(v) > 0 {
			return float64(v[0]), true
		}
	case uint64:
		return float64(v), true
	}
	return 0, false
}

// floatsAttr reads a numeric-array attribute.
func floatsAttr(ds *hdf5.Dataset, name string) ([]float64, bool) {
	attr := ds.Attr(name)
	if attr == nil {
		return nil, false
	}
	val, err := attr.Value()
	if err != nil {
		return nil, false
	}
	switch v := val.(type) {
	case []float64:
		return v, true
	case float64:
		return []float64{v}, true
	case int64:
		return []float64{float64(v)}, true
	case []int64:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, true
	}
	return nil, false
}
