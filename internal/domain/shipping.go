package domain

// Quote is the cost and time (hours) of shipping with one method.
type Quote struct {
	Cost float64 `json:"cost"`
	Time float64 `json:"time"`
}

// ShippingOption is the candidate produced for one warehouse and one
// destination. Quotes are computed independently per method and the
// option is never modified once generated.
type ShippingOption struct {
	Warehouse  string
	DistanceKm float64
	Ground     Quote
	Air        Quote
}

func (o ShippingOption) Quote(m Method) Quote {
	if m == Air {
		return o.Air
	}
	return o.Ground
}

// Recommendation is the output of a selector: one method of one option.
type Recommendation struct {
	Warehouse string
	Method    Method
	Cost      float64
	Time      float64
}

func Recommend(o ShippingOption, m Method) Recommendation {
	q := o.Quote(m)
	return Recommendation{
		Warehouse: o.Warehouse,
		Method:    m,
		Cost:      q.Cost,
		Time:      q.Time,
	}
}

// Evaluation is the full result for one destination.
type Evaluation struct {
	Address  string
	Origin   Coordinates
	Weights  Weights
	Options  []ShippingOption
	Scores   []float64
	Cheapest Recommendation
	Quickest Recommendation
	Balanced Recommendation
}
