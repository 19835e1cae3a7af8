package metadata

// Property holds one typed value of a section: either numeric values
// with an optional unit, or string values. Values are stored as slices
// because relacs settings regularly keep one value per channel.
type Property struct {
	name    string
	numbers []float64
	strs    []string
	unit    string
}

// NewNumeric creates a numeric property. The unit may be empty.
func NewNumeric(name string, unit string, values ...float64) *Property {
	return &Property{name: name, numbers: values, unit: unit}
}

// NewString creates a string-valued property.
func NewString(name string, values ...string) *Property {
	return &Property{name: name, strs: values}
}

// Name returns the property name.
func (p *Property) Name() string {
	return p.name
}

// Unit returns the unit string, empty if none was stored.
func (p *Property) Unit() string {
	return p.unit
}

// Len returns the number of stored values.
func (p *Property) Len() int {
	if p.IsNumeric() {
		return len(p.numbers)
	}
	return len(p.strs)
}

// IsNumeric reports whether the property holds numeric values.
func (p *Property) IsNumeric() bool {
	return p.strs == nil
}

// Float returns the first numeric value.
func (p *Property) Float() (float64, error) {
	vals, err := p.Floats()
	if err != nil {
		return 0, err
	}
	if len(vals) == 0 {
		return 0, &TypeError{Path: p.name, Requested: "float", Stored: "empty"}
	}
	return vals[0], nil
}

// Floats returns all numeric values.
func (p *Property) Floats() ([]float64, error) {
	if !p.IsNumeric() {
		return nil, &TypeError{Path: p.name, Requested: "float", Stored: "string"}
	}
	return p.numbers, nil
}

// Int returns the first numeric value truncated to an integer.
func (p *Property) Int() (int, error) {
	v, err := p.Float()
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

// String returns the first string value.
func (p *Property) String() (string, error) {
	vals, err := p.Strings()
	if err != nil {
		return "", err
	}
	if len(vals) == 0 {
		return "", &TypeError{Path: p.name, Requested: "string", Stored: "empty"}
	}
	return vals[0], nil
}

// Strings returns all string values.
func (p *Property) Strings() ([]string, error) {
	if p.IsNumeric() {
		return nil, &TypeError{Path: p.name, Requested: "string", Stored: "float"}
	}
	return p.strs, nil
}

// Value returns the property payload as a native Go value: float64,
// []float64, string or []string depending on type and count.
func (p *Property) Value() interface{} {
	if p.IsNumeric() {
		if len(p.numbers) == 1 {
			return p.numbers[0]
		}
		return p.numbers
	}
	if len(p.strs) == 1 {
		return p.strs[0]
	}
	return p.strs
}
