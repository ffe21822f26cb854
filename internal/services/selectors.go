package services

import (
	"fmt"
	"math"
	"shipping-estimate-service/internal/domain"
)

// Cheapest picks the option with the lowest cost over both methods.
//
// Options are reduced in input order and only a strictly lower cost
// replaces the current best, so the first option wins exact ties.
func Cheapest(options []domain.ShippingOption) (domain.Recommendation, error) {
	if len(options) == 0 {
		return domain.Recommendation{}, fmt.Errorf("cheapest: %w", domain.ErrEmptyCandidateSet)
	}

	best := minBy(options, func(o domain.ShippingOption) float64 {
		return math.Min(o.Ground.Cost, o.Air.Cost)
	})

	return domain.Recommend(best, cheaperMethod(best)), nil
}

// Quickest picks the option with the lowest delivery time over both methods.
func Quickest(options []domain.ShippingOption) (domain.Recommendation, error) {
	if len(options) == 0 {
		return domain.Recommendation{}, fmt.Errorf("quickest: %w", domain.ErrEmptyCandidateSet)
	}

	best := minBy(options, func(o domain.ShippingOption) float64 {
		return math.Min(o.Ground.Time, o.Air.Time)
	})

	return domain.Recommend(best, fasterMethod(best)), nil
}

// cheaperMethod only switches to Air when it is strictly cheaper.
func cheaperMethod(o domain.ShippingOption) domain.Method {
	if o.Air.Cost < o.Ground.Cost {
		return domain.Air
	}
	return domain.Ground
}

// fasterMethod only switches to Ground when it is strictly faster.
// At zero distance both times are 0 and Air is reported.
func fasterMethod(o domain.ShippingOption) domain.Method {
	if o.Ground.Time < o.Air.Time {
		return domain.Ground
	}
	return domain.Air
}

// minBy is a stable min-reduction: the earliest option keeps ties.
// options must be non-empty.
func minBy(options []domain.ShippingOption, key func(domain.ShippingOption) float64) domain.ShippingOption {
	best := options[0]
	bestKey := key(best)
	for _, o := range options[1:] {
		if k := key(o); k < bestKey {
			best, bestKey = o, k
		}
	}
	return best
}
