package relacs

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// mappingsFile is the YAML schema of a protocol-alias file:
//
//	aliases:
//	  SinusoidalAM*: SAM
//	  FI_Curve*: FICurve*
//
// Each key is a new pattern, each value the literal pattern of an
// already registered entry whose constructor the alias reuses. Labs
// rename repros between rig versions; aliases map the local names
// onto the shipped specializations without code changes.
type mappingsFile struct {
	Aliases map[string]string `yaml:"aliases"`
}

// LoadMappings reads protocol aliases from r into the registry.
func (reg *Registry) LoadMappings(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading mappings: %w", err)
	}
	var mf mappingsFile
	if err := yaml.Unmarshal(raw, &mf); err != nil {
		return fmt.Errorf("parsing mappings: %w", err)
	}
	for pattern, existing := range mf.Aliases {
		if err := reg.Alias(pattern, existing); err != nil {
			return err
		}
	}
	return nil
}

// LoadMappingsFile reads protocol aliases from a YAML file.
func (reg *Registry) LoadMappingsFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening mappings file: %w", err)
	}
	defer f.Close()
	return reg.LoadMappings(f)
}
