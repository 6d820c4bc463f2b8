package registry

import (
	"errors"
	"sort"
	"sync"
)

// Source populates a registry with handlers. Application packages register
// their sources by name, typically from init, and the consumer process
// builds its registry from the configured source names at startup.
type Source func(*Registry) error

// DiscoveryError reports a handler source that could not be applied. It is
// fatal: the consumer refuses to start rather than run with a partially
// populated registry.
type DiscoveryError struct {
	Source string
	Err    error
}

func (e *DiscoveryError) Error() string {
	return "clickflow: handler source " + e.Source + ": " + e.Err.Error()
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// ErrUnknownSource is wrapped by DiscoveryError when a configured source
// name was never registered.
var ErrUnknownSource = errors.New("clickflow: unknown handler source")

// SourceRegistry maintains the mapping of source names to sources.
type SourceRegistry struct {
	mu      sync.RWMutex
	sources map[string]Source
}

// DefaultSources is the global source registry.
var DefaultSources = NewSourceRegistry()

// NewSourceRegistry creates an empty source registry.
func NewSourceRegistry() *SourceRegistry {
	return &SourceRegistry{sources: make(map[string]Source)}
}

// Register adds a source under a name. Registering the same name again
// replaces the previous source.
func (s *SourceRegistry) Register(name string, src Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[name] = src
}

// Has reports whether a source is registered under the given name.
func (s *SourceRegistry) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sources[name]
	return ok
}

// Names returns the registered source names, sorted.
func (s *SourceRegistry) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.sources))
	for name := range s.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build runs the named sources in the given order against a fresh registry
// and freezes it. The first unknown name or failing source aborts with a
// DiscoveryError and no registry.
func (s *SourceRegistry) Build(names []string) (*Registry, error) {
	reg := NewRegistry()

	for _, name := range names {
		s.mu.RLock()
		src, ok := s.sources[name]
		s.mu.RUnlock()

		if !ok {
			return nil, &DiscoveryError{Source: name, Err: ErrUnknownSource}
		}
		if err := src(reg); err != nil {
			return nil, &DiscoveryError{Source: name, Err: err}
		}
	}

	reg.Freeze()
	return reg, nil
}

// RegisterSource adds a source to the default registry.
func RegisterSource(name string, src Source) {
	DefaultSources.Register(name, src)
}

// SourceNames returns the names registered in the default registry.
func SourceNames() []string {
	return DefaultSources.Names()
}

// BuildRegistry builds a frozen registry from the default source registry.
func BuildRegistry(names []string) (*Registry, error) {
	return DefaultSources.Build(names)
}
