package services

import (
	"fmt"
	"math"
	"shipping-estimate-service/internal/domain"
)

// maxima holds the per-field maxima used to normalize scores.
// Cost and time maxima are tracked per method; distance is shared.
type maxima struct {
	groundCost, airCost float64
	groundTime, airTime float64
	distance            float64
}

func computeMaxima(options []domain.ShippingOption) maxima {
	var m maxima
	for _, o := range options {
		m.groundCost = math.Max(m.groundCost, o.Ground.Cost)
		m.airCost = math.Max(m.airCost, o.Air.Cost)
		m.groundTime = math.Max(m.groundTime, o.Ground.Time)
		m.airTime = math.Max(m.airTime, o.Air.Time)
		m.distance = math.Max(m.distance, o.DistanceKm)
	}
	return m
}

// Normalize scales v by max, returning 0 when max is not positive.
func Normalize(v, maxValue float64) float64 {
	if maxValue > 0 {
		return v / maxValue
	}
	return 0
}

func methodScore(q domain.Quote, distance, maxCost, maxTime, maxDistance float64, w domain.Weights) float64 {
	return w.Cost*Normalize(q.Cost, maxCost) +
		w.Time*Normalize(q.Time, maxTime) +
		w.Distance*Normalize(distance, maxDistance)
}

// score is the better (lower) of the option's ground and air scores.
func score(o domain.ShippingOption, m maxima, w domain.Weights) float64 {
	ground := methodScore(o.Ground, o.DistanceKm, m.groundCost, m.groundTime, m.distance, w)
	air := methodScore(o.Air, o.DistanceKm, m.airCost, m.airTime, m.distance, w)
	return math.Min(ground, air)
}

// Scores returns the balanced score of every option, in input order.
func Scores(options []domain.ShippingOption, w domain.Weights) []float64 {
	m := computeMaxima(options)
	out := make([]float64, len(options))
	for i, o := range options {
		out[i] = score(o, m, w)
	}
	return out
}

// Balanced picks the option with the lowest weighted score of normalized
// cost, time and distance. Ties keep the earliest option.
//
// NOTE: the winning option is chosen by score, but the reported method is
// then chosen by raw cost alone, not by which method produced the lower
// score. Existing consumers rely on this; confirm the intended semantics
// before changing it.
func Balanced(options []domain.ShippingOption, w domain.Weights) (domain.Recommendation, error) {
	if len(options) == 0 {
		return domain.Recommendation{}, fmt.Errorf("balanced: %w", domain.ErrEmptyCandidateSet)
	}

	scores := Scores(options, w)

	bestIdx := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] < scores[bestIdx] {
			bestIdx = i
		}
	}

	best := options[bestIdx]
	return domain.Recommend(best, cheaperMethod(best)), nil
}
