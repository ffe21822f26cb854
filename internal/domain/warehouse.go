package domain

import (
	"fmt"
	"strings"
)

// Warehouse is a named shipping origin at a fixed location.
type Warehouse struct {
	Name     string
	Location Coordinates
}

// Registry is the ordered set of warehouses a deployment ships from.
// It is built once at startup and never mutated afterwards, so it is
// safe to share between concurrent evaluations.
type Registry struct {
	warehouses []Warehouse
}

// NewRegistry validates the warehouse list and freezes it in the given order.
func NewRegistry(warehouses []Warehouse) (*Registry, error) {
	if len(warehouses) == 0 {
		return nil, fmt.Errorf("new registry: no warehouses configured: %w", ErrEmptyCandidateSet)
	}

	seen := make(map[string]struct{}, len(warehouses))
	frozen := make([]Warehouse, 0, len(warehouses))
	for i, w := range warehouses {
		name := strings.TrimSpace(w.Name)
		if name == "" {
			return nil, fmt.Errorf("new registry: %w", Invalid("warehouse at index %d has empty name", i))
		}
		if _, ok := seen[name]; ok {
			return nil, fmt.Errorf("new registry: %w", Invalid("duplicate warehouse %q", name))
		}
		if err := w.Location.Validate(); err != nil {
			return nil, fmt.Errorf("new registry: warehouse %q: %w", name, err)
		}
		seen[name] = struct{}{}
		frozen = append(frozen, Warehouse{Name: name, Location: w.Location})
	}

	return &Registry{warehouses: frozen}, nil
}

// Warehouses returns a copy of the registry in registration order.
func (r *Registry) Warehouses() []Warehouse {
	out := make([]Warehouse, len(r.warehouses))
	copy(out, r.warehouses)
	return out
}

func (r *Registry) Len() int { return len(r.warehouses) }

// DefaultWarehouses is the warehouse set of the original deployment.
func DefaultWarehouses() []Warehouse {
	return []Warehouse{
		{Name: "Delhi", Location: Coordinates{Lat: 28.7041, Lon: 77.1025}},
		{Name: "Mumbai", Location: Coordinates{Lat: 19.0760, Lon: 72.8777}},
		{Name: "Chennai", Location: Coordinates{Lat: 13.0827, Lon: 80.2707}},
		{Name: "Kolkata", Location: Coordinates{Lat: 22.5726, Lon: 88.3639}},
		{Name: "Bengaluru", Location: Coordinates{Lat: 12.9716, Lon: 77.5946}},
	}
}
