package resources

import (
	"errors"
	"testing"
)

func TestRegistryBuildsConcepts(t *testing.T) {
	reg := DefaultRegistry()

	tests := []struct {
		src  string
		want string
	}{
		{symmetricSrc, "SymmetricZOI"},
		{"type: Default", "Default"},
		{"type: AsymmetricZOI\ndomain: {x_1: 0, x_2: 4, y_1: 0, y_2: 4}\nx_resolution: 8\ny_resolution: 8\nworkers: 2", "AsymmetricZOI"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			m, err := reg.New(parseNode(t, tt.src))
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if m.Name() != tt.want {
				t.Errorf("Name() = %q, want %q", m.Name(), tt.want)
			}
		})
	}
}

func TestRegistryGridFromNode(t *testing.T) {
	m, err := DefaultRegistry().New(parseNode(t, symmetricSrc))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	zoi, ok := m.(*SymmetricZOI)
	if !ok {
		t.Fatalf("expected *SymmetricZOI, got %T", m)
	}
	if zoi.Grid().Cells() != 88*88 {
		t.Errorf("expected %d cells, got %d", 88*88, zoi.Grid().Cells())
	}
	if zoi.Grid().MeshSize != 0.25 {
		t.Errorf("expected mesh size 0.25, got %v", zoi.Grid().MeshSize)
	}
}

func TestRegistryErrors(t *testing.T) {
	reg := DefaultRegistry()

	_, err := reg.New(parseNode(t, "type: FON"))
	if !errors.Is(err, ErrUnknownModel) {
		t.Errorf("expected ErrUnknownModel, got %v", err)
	}

	_, err = reg.New(parseNode(t, "type: SymmetricZOI\ndomain: {x_1: 0, x_2: 1, y_1: 0, y_2: 1}\nx_resolution: 4"))
	var missing *MissingParameterError
	if !errors.As(err, &missing) || missing.Key != "y_resolution" {
		t.Errorf("expected missing y_resolution, got %v", err)
	}

	_, err = reg.New(parseNode(t, "type: SymmetricZOI\ndomain: {x_1: 0, x_2: 1, y_1: 0, y_2: 1}\nx_resolution: four\ny_resolution: 4"))
	var typeErr *ParameterTypeError
	if !errors.As(err, &typeErr) || typeErr.Key != "x_resolution" {
		t.Errorf("expected type error for x_resolution, got %v", err)
	}

	_, err = reg.New(parseNode(t, "type: SymmetricZOI\ndomain: {x_1: 0, x_2: 1, y_1: 0, y_2: 1}\nx_resolution: 4\ny_resolution: 4\nworkers: -1"))
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration for negative workers, got %v", err)
	}
}

func TestRegistryCustomConcept(t *testing.T) {
	reg := NewRegistry()
	reg.Register("Neutral", ParseDefault)

	m, err := reg.New(parseNode(t, "type: Neutral"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if m.Name() != "Neutral" {
		t.Errorf("expected configured name, got %q", m.Name())
	}
	if names := reg.Names(); len(names) != 1 || names[0] != "Neutral" {
		t.Errorf("unexpected names %v", names)
	}
}
