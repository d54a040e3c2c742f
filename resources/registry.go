package resources

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Factory builds a concept from its configuration node.
type Factory func(node *yaml.Node) (Model, error)

// Registry maps configuration type names to concept factories.
type Registry struct {
	byName map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Factory)}
}

// DefaultRegistry creates a registry with all built-in concepts.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.registerDefaults()
	return r
}

// registerDefaults adds the built-in concepts.
// Update this when adding new concepts.
func (r *Registry) registerDefaults() {
	r.Register("Default", ParseDefault)
	r.Register("SymmetricZOI", ParseSymmetricZOI)
	r.Register("AsymmetricZOI", ParseAsymmetricZOI)
}

// Register adds or replaces a concept factory.
func (r *Registry) Register(name string, f Factory) {
	r.byName[name] = f
}

// Names returns the registered type names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the concept selected by the node's "type" key.
func (r *Registry) New(node *yaml.Node) (Model, error) {
	p, err := ParseParameters(node, "type")
	if err != nil {
		return nil, err
	}
	name, err := p.String("type")
	if err != nil {
		return nil, err
	}
	f, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (known: %v)", ErrUnknownModel, name, r.Names())
	}
	m, err := f(node)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return m, nil
}
