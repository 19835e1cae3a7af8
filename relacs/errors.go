// Package relacs provides a read-only object view over relacs
// electrophysiology recordings stored in NIX-style HDF5 containers. A
// Dataset exposes the repro runs of one recording session, each run
// the stimuli presented during it, and each stimulus its settings and
// the signal segments recorded while it was on. Heavy payloads are
// read lazily; descriptors are built once at open time.
package relacs

import (
	"errors"
	"fmt"

	"github.com/bendalab/go-relacs/metadata"
)

// Sentinel errors.
var (
	// ErrNotRelacs reports a container that does not follow the
	// relacs-NIX layout. Surfaced by Open, never later.
	ErrNotRelacs = errors.New("not a relacs recording")
	// ErrClosed reports access through a dataset that has been
	// closed. Derived runs and stimuli fail with it too.
	ErrClosed = errors.New("dataset is closed")
)

// Metadata query errors, shared with the metadata package.
type (
	MetadataPathError = metadata.PathError
	MetadataTypeError = metadata.TypeError
)

// UnknownChannelError reports a data request for a channel the run
// does not reference.
type UnknownChannelError struct {
	Channel string
	Run     string
}

func (e *UnknownChannelError) Error() string {
	return fmt.Sprintf("run %q references no channel %q", e.Run, e.Channel)
}

// TimeRangeError reports a window that lies entirely outside the
// interval covered by a channel. Callers commonly catch it to skip
// out-of-range stimuli.
type TimeRangeError struct {
	Channel string
	Start   float64
	Stop    float64
	Covered [2]float64
}

func (e *TimeRangeError) Error() string {
	return fmt.Sprintf("window [%gs, %gs) outside channel %q coverage [%gs, %gs]",
		e.Start, e.Stop, e.Channel, e.Covered[0], e.Covered[1])
}
