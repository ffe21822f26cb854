package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"shipping-estimate-service/internal/domain"
	"shipping-estimate-service/internal/ports"
	"strings"
)

type WarehouseSeed struct {
	Name string   `json:"name"`
	Lat  *float64 `json:"lat"`
	Lon  *float64 `json:"lon"`
}

// Read the warehouse registry from a JSON file.
// The result still has to pass domain.NewRegistry.
func LoadWarehouses(jsonPath string) ([]domain.Warehouse, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("load warehouses: read %q: %w", jsonPath, err)
	}

	var data []WarehouseSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return nil, fmt.Errorf("load warehouses: parse json: %w", err)
	}

	out := make([]domain.Warehouse, 0, len(data))
	for i, item := range data {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			return nil, fmt.Errorf("load warehouses: %w", domain.Invalid("item at index %d: name cannot be empty", i+1))
		}

		if item.Lat == nil || item.Lon == nil {
			return nil, fmt.Errorf("load warehouses: %w", domain.Invalid("%q: lat and lon are required", name))
		}

		loc := domain.Coordinates{Lat: *item.Lat, Lon: *item.Lon}
		if err := loc.Validate(); err != nil {
			return nil, fmt.Errorf("load warehouses: %q: %w", name, err)
		}

		out = append(out, domain.Warehouse{Name: name, Location: loc})
	}

	return out, nil
}

// Populate the geocode cache with the location of every warehouse, keyed
// by its name, so destinations naming a warehouse city skip the provider.
func SeedGeocodeCache(ctx context.Context, cache ports.GeocodeCache, warehouses []domain.Warehouse) error {
	if cache == nil {
		return fmt.Errorf("seed geocode cache: cache is nil")
	}

	entries := make(map[string]domain.Coordinates, len(warehouses))
	for _, w := range warehouses {
		key := strings.Join(strings.Fields(w.Name), " ")
		if key == "" {
			continue
		}
		entries[key] = w.Location
	}

	if err := cache.PutMany(ctx, entries); err != nil {
		return fmt.Errorf("seed geocode cache: %w", err)
	}

	return nil
}
