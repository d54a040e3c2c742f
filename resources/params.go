package resources

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DomainKeys are the keys every grid-based concept requires.
var DomainKeys = []string{"type", "domain", "x_1", "x_2", "y_1", "y_2", "x_resolution", "y_resolution"}

// Parameters is a flattened view of a concept's configuration node.
// Keys of nested mappings are visible at the top level; on a name clash
// the shallower key wins.
type Parameters struct {
	values map[string]*yaml.Node
}

// ParseParameters collects the keys of node and checks that every required
// key is present, in order. The first absent key is reported.
func ParseParameters(node *yaml.Node, required ...string) (*Parameters, error) {
	p := &Parameters{values: make(map[string]*yaml.Node)}

	if node != nil && node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	if node != nil && node.Kind != 0 {
		if node.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%w: concept parameters must be a mapping (line %d)", ErrConfiguration, node.Line)
		}
		p.collect(node)
	}

	for _, key := range required {
		if !p.Has(key) {
			return nil, &MissingParameterError{Key: key}
		}
	}
	return p, nil
}

// collect records direct keys before descending so that outer keys shadow inner ones.
func (p *Parameters) collect(n *yaml.Node) {
	for i := 0; i+1 < len(n.Content); i += 2 {
		k := n.Content[i].Value
		if _, seen := p.values[k]; !seen {
			p.values[k] = n.Content[i+1]
		}
	}
	for i := 1; i < len(n.Content); i += 2 {
		if v := n.Content[i]; v.Kind == yaml.MappingNode {
			p.collect(v)
		}
	}
}

// Has reports whether key is present.
func (p *Parameters) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

func (p *Parameters) scalar(key, want string) (string, error) {
	n, ok := p.values[key]
	if !ok {
		return "", &MissingParameterError{Key: key}
	}
	if n.Kind != yaml.ScalarNode {
		return "", &ParameterTypeError{Key: key, Value: "<" + kindName(n.Kind) + ">", Want: want}
	}
	return strings.TrimSpace(n.Value), nil
}

// String returns key as text.
func (p *Parameters) String(key string) (string, error) {
	return p.scalar(key, "string")
}

// Float returns key as a float64.
func (p *Parameters) Float(key string) (float64, error) {
	s, err := p.scalar(key, "number")
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0, &ParameterTypeError{Key: key, Value: s, Want: "number"}
	}
	return f, nil
}

// Int returns key as an int. Integral floats such as "88.0" are accepted.
func (p *Parameters) Int(key string) (int, error) {
	s, err := p.scalar(key, "integer")
	if err != nil {
		return 0, err
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, &ParameterTypeError{Key: key, Value: s, Want: "integer"}
	}
	return int(f), nil
}

// IntOr returns key as an int, or def when the key is absent.
func (p *Parameters) IntOr(key string, def int) (int, error) {
	if !p.Has(key) {
		return def, nil
	}
	return p.Int(key)
}

// ParseDomain reads and validates the domain of a grid-based concept.
func ParseDomain(node *yaml.Node) (Domain, *Parameters, error) {
	p, err := ParseParameters(node, DomainKeys...)
	if err != nil {
		return Domain{}, nil, err
	}

	var d Domain
	for _, f := range []struct {
		key string
		dst *float64
	}{
		{"x_1", &d.X1}, {"x_2", &d.X2}, {"y_1", &d.Y1}, {"y_2", &d.Y2},
	} {
		if *f.dst, err = p.Float(f.key); err != nil {
			return Domain{}, nil, err
		}
	}
	if d.XResolution, err = p.Int("x_resolution"); err != nil {
		return Domain{}, nil, err
	}
	if d.YResolution, err = p.Int("y_resolution"); err != nil {
		return Domain{}, nil, err
	}

	if err := d.Validate(); err != nil {
		return Domain{}, nil, err
	}
	return d, p, nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.AliasNode:
		return "alias"
	case yaml.DocumentNode:
		return "document"
	default:
		return "scalar"
	}
}
