package metadata

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Decode unpacks a section into dest, which must be a pointer to a
// struct or map. Properties map to fields by name (case-insensitive,
// overridable with `mapstructure` tags), child sections map to nested
// structs. Numeric properties with a single value decode to scalar
// fields, multi-valued ones to slices.
func Decode(s *Section, dest interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           dest,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("metadata: building decoder: %w", err)
	}
	if err := dec.Decode(s.toMap()); err != nil {
		return fmt.Errorf("metadata: decoding section %q: %w", s.name, err)
	}
	return nil
}

func (s *Section) toMap() map[string]interface{} {
	m := make(map[string]interface{}, len(s.propKeys)+len(s.subKeys))
	for _, k := range s.propKeys {
		m[k] = s.props[k].Value()
	}
	for _, k := range s.subKeys {
		m[k] = s.subs[k].toMap()
	}
	return m
}
