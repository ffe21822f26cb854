package services

import (
	"shipping-estimate-service/internal/domain"

	"github.com/golang/geo/s2"
)

// Mean Earth radius (IUGG) in kilometres.
const earthRadiusKm = 6371.0088

// Distance returns the great-circle distance between two coordinates in km.
func Distance(a, b domain.Coordinates) float64 {
	from := s2.LatLngFromDegrees(a.Lat, a.Lon)
	to := s2.LatLngFromDegrees(b.Lat, b.Lon)
	return from.Distance(to).Radians() * earthRadiusKm
}

// GenerateOptions builds one shipping option per warehouse, in registry order.
//
// Distances are straight-line approximations; no road network is involved.
// An empty registry yields an empty slice, which the selectors reject.
func GenerateOptions(
	origin domain.Coordinates,
	warehouses []domain.Warehouse,
	rates domain.RateTable,
) []domain.ShippingOption {
	options := make([]domain.ShippingOption, 0, len(warehouses))
	for _, w := range warehouses {
		d := Distance(w.Location, origin)
		options = append(options, domain.ShippingOption{
			Warehouse:  w.Name,
			DistanceKm: d,
			Ground:     rates.Ground.Quote(d),
			Air:        rates.Air.Quote(d),
		})
	}

	return options
}
