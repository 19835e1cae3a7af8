package relacs

// Option configures Open.
type Option func(*openOptions)

type openOptions struct {
	registry     *Registry
	cacheSize    int
	mappingsFile string
}

func defaultOpenOptions() *openOptions {
	return &openOptions{
		registry:  DefaultRegistry,
		cacheSize: 32,
	}
}

// WithRegistry selects the specialization registry consulted for each
// run. Defaults to DefaultRegistry.
func WithRegistry(r *Registry) Option {
	return func(o *openOptions) {
		if r != nil {
			o.registry = r
		}
	}
}

// WithTraceCacheSize bounds how many decoded signal arrays are kept
// in memory at once.
func WithTraceCacheSize(n int) Option {
	return func(o *openOptions) {
		if n > 0 {
			o.cacheSize = n
		}
	}
}

// WithMappingsFile loads extra protocol-name aliases into a copy of
// the registry before runs are resolved. The file is YAML, see
// Registry.LoadMappings.
func WithMappingsFile(path string) Option {
	return func(o *openOptions) {
		o.mappingsFile = path
	}
}
