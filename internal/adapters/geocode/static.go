package geocode

import (
	"context"
	"fmt"
	"shipping-estimate-service/internal/domain"
	"shipping-estimate-service/internal/ports"
	"strings"
	"sync/atomic"
)

// StaticGeocoder resolves addresses from a fixed in-memory table.
// Lookups ignore case and repeated whitespace.
type StaticGeocoder struct {
	m     map[string]domain.Coordinates
	calls atomic.Int64
}

func NewStaticGeocoder(entries map[string]domain.Coordinates) *StaticGeocoder {
	m := make(map[string]domain.Coordinates, len(entries))
	for addr, c := range entries {
		m[staticKey(addr)] = c
	}
	return &StaticGeocoder{m: m}
}

// NewWarehouseGeocoder answers with the location of each warehouse by name.
func NewWarehouseGeocoder(warehouses []domain.Warehouse) *StaticGeocoder {
	entries := make(map[string]domain.Coordinates, len(warehouses))
	for _, w := range warehouses {
		entries[w.Name] = w.Location
	}
	return NewStaticGeocoder(entries)
}

func (s *StaticGeocoder) Resolve(ctx context.Context, address string) (domain.Coordinates, error) {
	s.calls.Add(1)

	if err := ctx.Err(); err != nil {
		return domain.Coordinates{}, err
	}

	c, ok := s.m[staticKey(address)]
	if !ok {
		return domain.Coordinates{}, fmt.Errorf("static geocoder %q: %w", Normalize(address), ports.ErrAddressNotFound)
	}
	return c, nil
}

// Calls reports how many times Resolve was invoked.
func (s *StaticGeocoder) Calls() int64 {
	return s.calls.Load()
}

func staticKey(s string) string {
	return strings.ToLower(Normalize(s))
}
