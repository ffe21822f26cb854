package geocode

import (
	"errors"
	"shipping-estimate-service/internal/ports"
	"strings"
)

// Normalize ensures consistent cache keys by collapsing whitespace.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func geocodeOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ports.ErrAddressNotFound):
		return "not_found"
	default:
		return "error"
	}
}
