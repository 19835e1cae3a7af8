package nixfile

import (
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/robert-malhotra/go-hdf5/hdf5"
)

// Sentinel errors surfaced to the domain layer.
var (
	// ErrLayout reports a file that is not a relacs-NIX recording.
	ErrLayout = errors.New("unexpected container layout")
	// ErrClosed reports access to a closed container.
	ErrClosed = errors.New("container is closed")
)

// Type strings per relacs-to-NIX mapping version.
const (
	typeReproRun = "relacs.repro_run"

	typeSampledV11  = "relacs.data.sampled"
	typeEventV11    = "relacs.data.event"
	typeStimulusV11 = "relacs.stimulus"

	typeSampledV10  = "nix.data.sampled"
	typeEventV10    = "nix.events.position"
	typeStimulusV10 = "nix.event.stimulus"
)

// versionProperty names the session property carrying the mapping
// version. Files without it predate the property and use mapping 1.0.
const versionProperty = "relacs-nix version"

// Container is one open relacs-NIX recording. It owns the underlying
// file handle exclusively; Close is idempotent and invalidates all
// subsequent access. A mutex serializes raw file reads since the
// underlying reader seeks.
type Container struct {
	path      string
	f         *hdf5.File
	blockName string
	version   float64

	mu     sync.Mutex
	closed bool
	arrays *lru.Cache[string, []float64]
}

// Open opens a recording and validates its top-level layout. The
// cacheSize bounds the number of decoded signal arrays kept in memory.
func Open(path string, cacheSize int) (*Container, error) {
	f, err := hdf5.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening container %s: %w", path, err)
	}

	c := &Container{path: path, f: f, version: 1.0}
	if err := c.validate(); err != nil {
		f.Close()
		return nil, err
	}

	if cacheSize <= 0 {
		cacheSize = 32
	}
	cache, err := lru.New[string, []float64](cacheSize)
	if err != nil {
		f.Close()
		return nil, err
	}
	c.arrays = cache

	if sec, err := c.Section(c.blockName); err == nil && sec != nil {
		if p, err := sec.Property(versionProperty); err == nil {
			if v, err := p.Float(); err == nil {
				c.version = v
			}
		}
	}

	return c, nil
}

// validate checks for the /data, /metadata and /data_arrays roots and
// picks the first block in stored order.
func (c *Container) validate() error {
	data, err := c.f.OpenGroup("/data")
	if err != nil {
		return fmt.Errorf("%w: missing /data group", ErrLayout)
	}
	if _, err := c.f.OpenGroup("/metadata"); err != nil {
		return fmt.Errorf("%w: missing /metadata group", ErrLayout)
	}
	if _, err := c.f.OpenGroup("/data_arrays"); err != nil {
		return fmt.Errorf("%w: missing /data_arrays group", ErrLayout)
	}

	blocks, err := data.Members()
	if err != nil || len(blocks) == 0 {
		return fmt.Errorf("%w: no recording block under /data", ErrLayout)
	}
	if _, err := data.OpenGroup(blocks[0]); err != nil {
		return fmt.Errorf("%w: block %q is not a group", ErrLayout, blocks[0])
	}

	c.blockName = blocks[0]
	return nil
}

// Close releases the file handle. Safe to call multiple times.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.arrays != nil {
		c.arrays.Purge()
	}
	return c.f.Close()
}

// Closed reports whether Close has been called.
func (c *Container) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Path returns the container file path.
func (c *Container) Path() string {
	return c.path
}

// BlockName returns the name of the recording block.
func (c *Container) BlockName() string {
	return c.blockName
}

// Version returns the relacs-to-NIX mapping version.
func (c *Container) Version() float64 {
	return c.version
}

// sampledType returns the data-array type string for sampled traces
// under the container's mapping version.
func (c *Container) sampledType() string {
	if c.version < 1.1 {
		return typeSampledV10
	}
	return typeSampledV11
}

func (c *Container) eventType() string {
	if c.version < 1.1 {
		return typeEventV10
	}
	return typeEventV11
}

func (c *Container) stimulusType() string {
	if c.version < 1.1 {
		return typeStimulusV10
	}
	return typeStimulusV11
}
