package metadata

// Find locates a property by bare name anywhere in the subtree,
// depth-first, own properties before subsections. Relacs settings
// nest a handful of levels deep and property names rarely collide, so
// first match wins.
func (s *Section) Find(name string) (*Property, bool) {
	owner, ok := s.FindOwner(name)
	if !ok {
		return nil, false
	}
	return owner.props[name], true
}

// FindOwner locates the section holding a property of the given bare
// name, depth-first.
func (s *Section) FindOwner(name string) (*Section, bool) {
	if _, ok := s.props[name]; ok {
		return s, true
	}
	for _, k := range s.subKeys {
		if owner, ok := s.subs[k].FindOwner(name); ok {
			return owner, true
		}
	}
	return nil, false
}

// Clone returns a deep copy of the section tree. Properties are
// immutable and shared between the copies.
func (s *Section) Clone() *Section {
	out := NewSection(s.name)
	for _, k := range s.propKeys {
		out.AddProperty(s.props[k])
	}
	for _, k := range s.subKeys {
		out.AddSection(s.subs[k].Clone())
	}
	return out
}
