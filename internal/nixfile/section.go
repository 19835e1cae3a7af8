package nixfile

import (
	"strings"

	"github.com/robert-malhotra/go-hdf5/hdf5"

	"github.com/bendalab/go-relacs/metadata"
)

// unitSuffix marks the attribute carrying a property's unit, paired
// with the value attribute of the same base name.
const unitSuffix = "@unit"

// sectionSep joins the segments of a nested section path into one
// dataset name under /metadata. Section names must not contain it.
const sectionSep = ":"

// Section reads the metadata subtree rooted at the named top-level
// section into a metadata tree. Returns nil without error when no
// section of that name exists.
func (c *Container) Section(name string) (*metadata.Section, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}

	group, err := c.f.OpenGroup("/metadata")
	if err != nil {
		return nil, nil
	}
	members, err := group.Members()
	if err != nil {
		return nil, err
	}

	var sec *metadata.Section
	for _, member := range members {
		if member != name && !strings.HasPrefix(member, name+sectionSep) {
			continue
		}
		ds, err := group.OpenDataset(member)
		if err != nil {
			continue
		}
		if sec == nil {
			sec = metadata.NewSection(name)
		}
		target := sec
		for _, part := range strings.Split(member, sectionSep)[1:] {
			target = subsection(target, part)
		}
		readProperties(ds, target)
	}
	return sec, nil
}

// HasSection reports whether a top-level section of that name exists.
func (c *Container) HasSection(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	group, err := c.f.OpenGroup("/metadata")
	if err != nil {
		return false
	}
	members, err := group.Members()
	if err != nil {
		return false
	}
	for _, member := range members {
		if member == name {
			return true
		}
	}
	return false
}

// subsection returns the child section of that name, creating it when
// the parent does not carry one yet.
func subsection(parent *metadata.Section, name string) *metadata.Section {
	for _, s := range parent.Sections() {
		if s.Name() == name {
			return s
		}
	}
	child := metadata.NewSection(name)
	parent.AddSection(child)
	return child
}

// readProperties converts the attributes of a section dataset into
// typed properties, pairing <name> value attributes with <name>@unit.
func readProperties(ds *hdf5.Dataset, sec *metadata.Section) {
	for _, attrName := range ds.Attrs() {
		if strings.HasSuffix(attrName, unitSuffix) {
			continue
		}
		unit := stringAttr(ds, attrName+unitSuffix)
		if values, ok := floatsAttr(ds, attrName); ok {
			sec.AddProperty(metadata.NewNumeric(attrName, unit, values...))
			continue
		}
		if values := stringsAttr(ds, attrName); values != nil {
			sec.AddProperty(metadata.NewString(attrName, values...))
		}
	}
}
