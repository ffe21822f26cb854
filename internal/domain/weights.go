package domain

import "math"

// Weights of the balanced score. They conventionally sum to 1 but are
// not required to.
type Weights struct {
	Cost     float64 `json:"cost"`
	Time     float64 `json:"time"`
	Distance float64 `json:"distance"`
}

func DefaultWeights() Weights {
	return Weights{Cost: 0.4, Time: 0.3, Distance: 0.3}
}

func (w Weights) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"cost", w.Cost},
		{"time", w.Time},
		{"distance", w.Distance},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) || f.value < 0 {
			return Invalid("weight %s must be a non-negative number, got %v", f.name, f.value)
		}
	}
	if w.Cost+w.Time+w.Distance <= 0 {
		return Invalid("weights must not all be zero")
	}
	return nil
}
