package domain

import (
	"fmt"
	"math"
)

// Method is a delivery method offered from every warehouse.
type Method int

const (
	Ground Method = iota
	Air
)

// Wire names are the ones existing API consumers already read.
const (
	groundName = "road"
	airName    = "airplane"
)

func (m Method) String() string {
	switch m {
	case Ground:
		return groundName
	case Air:
		return airName
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

func ParseMethod(s string) (Method, error) {
	switch s {
	case groundName, "ground":
		return Ground, nil
	case airName, "air":
		return Air, nil
	default:
		return 0, Invalid("unknown shipping method %q", s)
	}
}

func (m Method) MarshalText() ([]byte, error) {
	if m != Ground && m != Air {
		return nil, fmt.Errorf("marshal method: unknown value %d", int(m))
	}
	return []byte(m.String()), nil
}

func (m *Method) UnmarshalText(b []byte) error {
	parsed, err := ParseMethod(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Rate is the pricing and speed of one delivery method.
// Costs are per kilometre and speeds in km/h.
type Rate struct {
	CostPerKm float64
	SpeedKmh  float64
}

// Quote prices a leg of the given length in kilometres.
func (r Rate) Quote(distanceKm float64) Quote {
	return Quote{
		Cost: distanceKm * r.CostPerKm,
		Time: distanceKm / r.SpeedKmh,
	}
}

// RateTable holds the rate of every method.
type RateTable struct {
	Ground Rate
	Air    Rate
}

func DefaultRates() RateTable {
	return RateTable{
		Ground: Rate{CostPerKm: 5, SpeedKmh: 60},
		Air:    Rate{CostPerKm: 10, SpeedKmh: 600},
	}
}

// Validate requires strictly positive, finite rates. Zero speeds would make
// every time infinite.
func (t RateTable) Validate() error {
	for _, m := range []Method{Ground, Air} {
		r := t.For(m)
		if !(r.CostPerKm > 0) || math.IsInf(r.CostPerKm, 0) {
			return Invalid("%s cost per km must be positive, got %v", m, r.CostPerKm)
		}
		if !(r.SpeedKmh > 0) || math.IsInf(r.SpeedKmh, 0) {
			return Invalid("%s speed must be positive, got %v", m, r.SpeedKmh)
		}
	}
	return nil
}

func (t RateTable) For(m Method) Rate {
	if m == Air {
		return t.Air
	}
	return t.Ground
}
