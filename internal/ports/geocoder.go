package ports

import (
	"context"
	"errors"
	"shipping-estimate-service/internal/domain"
)

// ErrAddressNotFound is wrapped by geocoders when the provider
// answered successfully but had no match for the address.
var ErrAddressNotFound = errors.New("address not found")

// Contract for resolving a free-form address to coordinates.
type Geocoder interface {
	// Resolve returns the best match for address.
	Resolve(ctx context.Context, address string) (domain.Coordinates, error)
}
