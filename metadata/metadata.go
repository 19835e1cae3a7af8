// Package metadata provides path-addressable queries over the nested
// property trees stored alongside relacs recordings. A tree is made of
// named sections holding typed properties (numeric values with an
// optional unit, or strings) and child sections. Trees are read-only
// snapshots; all lookups resolve slash-delimited paths.
package metadata

import (
	"fmt"
	"strings"
)

// PathError reports a lookup whose path does not exist in the tree.
type PathError struct {
	Path string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("metadata: no such path %q", e.Path)
}

// TypeError reports a typed accessor applied to a property of an
// incompatible stored type.
type TypeError struct {
	Path      string
	Requested string
	Stored    string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("metadata: property %q holds %s values, not %s", e.Path, e.Stored, e.Requested)
}

// Section is one node of a metadata tree.
type Section struct {
	name     string
	props    map[string]*Property
	propKeys []string
	subs     map[string]*Section
	subKeys  []string
}

// NewSection creates an empty section with the given name.
func NewSection(name string) *Section {
	return &Section{
		name:  name,
		props: make(map[string]*Property),
		subs:  make(map[string]*Section),
	}
}

// Name returns the section name.
func (s *Section) Name() string {
	return s.name
}

// AddSection attaches a child section. An existing child of the same
// name is replaced in place, keeping its position.
func (s *Section) AddSection(child *Section) {
	if _, ok := s.subs[child.name]; !ok {
		s.subKeys = append(s.subKeys, child.name)
	}
	s.subs[child.name] = child
}

// AddProperty attaches a property to this section.
func (s *Section) AddProperty(p *Property) {
	if _, ok := s.props[p.name]; !ok {
		s.propKeys = append(s.propKeys, p.name)
	}
	s.props[p.name] = p
}

// Sections returns the child sections in stored order.
func (s *Section) Sections() []*Section {
	out := make([]*Section, 0, len(s.subKeys))
	for _, k := range s.subKeys {
		out = append(out, s.subs[k])
	}
	return out
}

// Properties returns the properties of this section in stored order.
func (s *Section) Properties() []*Property {
	out := make([]*Property, 0, len(s.propKeys))
	for _, k := range s.propKeys {
		out = append(out, s.props[k])
	}
	return out
}

// Section resolves a slash-delimited path to a descendant section.
func (s *Section) Section(path string) (*Section, error) {
	cur := s
	walked := ""
	for _, part := range splitPath(path) {
		child, ok := cur.subs[part]
		if !ok {
			return nil, &PathError{Path: joinPath(walked, part)}
		}
		cur = child
		walked = joinPath(walked, part)
	}
	return cur, nil
}

// Property resolves a slash-delimited path whose last component names a
// property and whose leading components name sections.
func (s *Section) Property(path string) (*Property, error) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return nil, &PathError{Path: path}
	}
	parent := s
	if len(parts) > 1 {
		sec, err := s.Section(strings.Join(parts[:len(parts)-1], "/"))
		if err != nil {
			return nil, err
		}
		parent = sec
	}
	p, ok := parent.props[parts[len(parts)-1]]
	if !ok {
		return nil, &PathError{Path: path}
	}
	return p, nil
}

// Has reports whether the path resolves to a section or a property.
// It never materializes subtrees and never fails.
func (s *Section) Has(path string) bool {
	if _, err := s.Section(path); err == nil {
		return true
	}
	_, err := s.Property(path)
	return err == nil
}

// Flatten exports the subtree rooted at s as a mapping from
// slash-delimited path to property.
func (s *Section) Flatten() map[string]*Property {
	out := make(map[string]*Property)
	s.flattenInto("", out)
	return out
}

func (s *Section) flattenInto(prefix string, out map[string]*Property) {
	for _, k := range s.propKeys {
		out[joinPath(prefix, k)] = s.props[k]
	}
	for _, k := range s.subKeys {
		s.subs[k].flattenInto(joinPath(prefix, k), out)
	}
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}
