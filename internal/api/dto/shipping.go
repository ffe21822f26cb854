package dto

import (
	"net/http"
	"shipping-estimate-service/internal/domain"
	"strings"
)

type WeightsRequest struct {
	Cost     float64 `json:"cost" validate:"gte=0"`
	Time     float64 `json:"time" validate:"gte=0"`
	Distance float64 `json:"distance" validate:"gte=0"`
}

// ShippingRequest is the optional JSON body of a shipping calculation.
// Either Address or both coordinates must be set.
type ShippingRequest struct {
	Address string          `json:"address"`
	Lat     *float64        `json:"lat" validate:"required_with=Lon,omitempty,gte=-90,lte=90"`
	Lon     *float64        `json:"lon" validate:"required_with=Lat,omitempty,gte=-180,lte=180"`
	Weights *WeightsRequest `json:"weights" validate:"omitempty"`
}

func (s *ShippingRequest) Bind(r *http.Request) error {
	s.Address = strings.Join(strings.Fields(s.Address), " ")
	return nil
}

func (s *ShippingRequest) HasCoordinates() bool {
	return s.Lat != nil && s.Lon != nil
}

func (s *ShippingRequest) Coordinates() domain.Coordinates {
	return domain.Coordinates{Lat: *s.Lat, Lon: *s.Lon}
}

// DomainWeights returns nil when the request carries no override.
func (s *ShippingRequest) DomainWeights() *domain.Weights {
	if s.Weights == nil {
		return nil
	}
	return &domain.Weights{
		Cost:     s.Weights.Cost,
		Time:     s.Weights.Time,
		Distance: s.Weights.Distance,
	}
}

type QuoteResponse struct {
	Cost float64 `json:"cost"`
	Time float64 `json:"time"`
}

type ShippingOptionResponse struct {
	Warehouse     string        `json:"warehouse"`
	DistanceKm    float64       `json:"distance_km"`
	Road          QuoteResponse `json:"road"`
	Airplane      QuoteResponse `json:"airplane"`
	BalancedScore float64       `json:"balanced_score"`
}

type RecommendationResponse struct {
	Warehouse string        `json:"warehouse"`
	Method    domain.Method `json:"method"`
	Cost      float64       `json:"cost"`
	Time      float64       `json:"time"`
}

type ShippingResponse struct {
	Address         string                   `json:"address,omitempty"`
	Origin          domain.Coordinates       `json:"origin"`
	Weights         domain.Weights           `json:"weights"`
	ShippingOptions []ShippingOptionResponse `json:"shipping_options"`
	Cheapest        RecommendationResponse   `json:"cheapest"`
	Quickest        RecommendationResponse   `json:"quickest"`
	Balanced        RecommendationResponse   `json:"balanced"`
}

func NewShippingResponse(ev *domain.Evaluation) *ShippingResponse {
	res := &ShippingResponse{
		Address:         ev.Address,
		Origin:          ev.Origin,
		Weights:         ev.Weights,
		ShippingOptions: make([]ShippingOptionResponse, 0, len(ev.Options)),
		Cheapest:        newRecommendationResponse(ev.Cheapest),
		Quickest:        newRecommendationResponse(ev.Quickest),
		Balanced:        newRecommendationResponse(ev.Balanced),
	}

	for i, o := range ev.Options {
		opt := ShippingOptionResponse{
			Warehouse:  o.Warehouse,
			DistanceKm: o.DistanceKm,
			Road:       QuoteResponse{Cost: o.Ground.Cost, Time: o.Ground.Time},
			Airplane:   QuoteResponse{Cost: o.Air.Cost, Time: o.Air.Time},
		}
		if i < len(ev.Scores) {
			opt.BalancedScore = ev.Scores[i]
		}
		res.ShippingOptions = append(res.ShippingOptions, opt)
	}

	return res
}

func newRecommendationResponse(r domain.Recommendation) RecommendationResponse {
	return RecommendationResponse{
		Warehouse: r.Warehouse,
		Method:    r.Method,
		Cost:      r.Cost,
		Time:      r.Time,
	}
}

type WarehouseResponse struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

type ListWarehousesResponse struct {
	Warehouses []WarehouseResponse `json:"warehouses"`
}
