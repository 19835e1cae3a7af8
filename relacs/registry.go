package relacs

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gobwas/glob"
)

// Constructor builds a specialized run from the fully scanned base
// run. Specializations add protocol-specific accessors; they must not
// alter the base contract.
type Constructor func(*ReProRun) Run

// Registry maps protocol-name patterns to run constructors. Patterns
// are either exact names or globs ("FICurve*"). Resolution order: an
// exact match on the protocol name, an exact match on the run name,
// then the longest matching glob. Runs with no match use the base
// ReProRun type. The registry is consulted exactly once per run, at
// open time.
type Registry struct {
	mu    sync.RWMutex
	exact map[string]Constructor
	globs []globEntry
}

type globEntry struct {
	pattern string
	g       glob.Glob
	ctor    Constructor
}

// DefaultRegistry is used by Open unless WithRegistry overrides it.
// Protocol packages register themselves into it from init, in the
// manner of database/sql drivers.
var DefaultRegistry = NewRegistry()

// Register adds a pattern to the DefaultRegistry, panicking on an
// invalid pattern. Intended for init-time registration.
func Register(pattern string, ctor Constructor) {
	if err := DefaultRegistry.Register(pattern, ctor); err != nil {
		panic(err)
	}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{exact: make(map[string]Constructor)}
}

// Register adds a pattern. A pattern without glob metacharacters
// matches exactly; later registrations of the same pattern replace
// earlier ones.
func (r *Registry) Register(pattern string, ctor Constructor) error {
	if pattern == "" || ctor == nil {
		return fmt.Errorf("registry: empty pattern or nil constructor")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if !strings.ContainsAny(pattern, "*?[") {
		r.exact[pattern] = ctor
		return nil
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return fmt.Errorf("registry: compiling pattern %q: %w", pattern, err)
	}
	for i := range r.globs {
		if r.globs[i].pattern == pattern {
			r.globs[i].ctor = ctor
			return nil
		}
	}
	r.globs = append(r.globs, globEntry{pattern: pattern, g: g, ctor: ctor})
	return nil
}

// Alias maps a new pattern to the constructor already registered
// under an existing pattern.
func (r *Registry) Alias(pattern, existing string) error {
	r.mu.RLock()
	ctor := r.lookupPattern(existing)
	r.mu.RUnlock()
	if ctor == nil {
		return fmt.Errorf("registry: no entry for pattern %q", existing)
	}
	return r.Register(pattern, ctor)
}

// lookupPattern finds the constructor registered under the literal
// pattern string. Caller holds the lock.
func (r *Registry) lookupPattern(pattern string) Constructor {
	if ctor, ok := r.exact[pattern]; ok {
		return ctor
	}
	for _, e := range r.globs {
		if e.pattern == pattern {
			return e.ctor
		}
	}
	return nil
}

// Resolve picks the constructor for a run, given its declared
// protocol name and its run name. Returns nil when only the base type
// applies.
func (r *Registry) Resolve(protocol, name string) Constructor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if ctor, ok := r.exact[protocol]; ok {
		return ctor
	}
	if ctor, ok := r.exact[name]; ok {
		return ctor
	}

	// Longest pattern wins; among equals the earliest registration.
	var best *globEntry
	for i := range r.globs {
		e := &r.globs[i]
		if !e.g.Match(protocol) && !e.g.Match(name) {
			continue
		}
		if best == nil || len(e.pattern) > len(best.pattern) {
			best = e
		}
	}
	if best == nil {
		return nil
	}
	return best.ctor
}

// Clone returns an independent copy, used when a mappings file adds
// per-dataset aliases without touching the shared registry.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := NewRegistry()
	for k, v := range r.exact {
		out.exact[k] = v
	}
	out.globs = append(out.globs, r.globs...)
	return out
}
