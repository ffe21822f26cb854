package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"shipping-estimate-service/internal/adapters/geocode"
	"shipping-estimate-service/internal/domain"
	"shipping-estimate-service/internal/platform/obs"
	"shipping-estimate-service/internal/ports"
	"shipping-estimate-service/internal/services"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type downGeocoder struct{}

func (downGeocoder) Resolve(context.Context, string) (domain.Coordinates, error) {
	return domain.Coordinates{}, errors.New("dial tcp: connection refused")
}

// waitingGeocoder blocks until the caller's context ends.
type waitingGeocoder struct{}

func (waitingGeocoder) Resolve(ctx context.Context, address string) (domain.Coordinates, error) {
	<-ctx.Done()
	return domain.Coordinates{}, fmt.Errorf("resolve %q: %w", address, ctx.Err())
}

type shippingBody struct {
	Address         string             `json:"address"`
	Origin          domain.Coordinates `json:"origin"`
	ShippingOptions []struct {
		Warehouse     string  `json:"warehouse"`
		DistanceKm    float64 `json:"distance_km"`
		BalancedScore float64 `json:"balanced_score"`
		Road          struct {
			Cost float64 `json:"cost"`
			Time float64 `json:"time"`
		} `json:"road"`
		Airplane struct {
			Cost float64 `json:"cost"`
			Time float64 `json:"time"`
		} `json:"airplane"`
	} `json:"shipping_options"`
	Cheapest recommendation `json:"cheapest"`
	Quickest recommendation `json:"quickest"`
	Balanced recommendation `json:"balanced"`
}

type recommendation struct {
	Warehouse string  `json:"warehouse"`
	Method    string  `json:"method"`
	Cost      float64 `json:"cost"`
	Time      float64 `json:"time"`
}

type errorBody struct {
	Error      string   `json:"error"`
	Validation []string `json:"validation"`
}

func newTestRouter(t *testing.T, g ports.Geocoder) (http.Handler, *prometheus.Registry) {
	t.Helper()

	registry, err := domain.NewRegistry(domain.DefaultWarehouses())
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	metrics := obs.NewMetrics(reg)

	evaluator, err := services.NewEvaluator(services.EvaluatorConfig{
		Registry: registry,
		Rates:    domain.DefaultRates(),
		Weights:  domain.DefaultWeights(),
		Geocoder: g,
		Metrics:  metrics,
	})
	require.NoError(t, err)

	return NewRouter(RouterConfig{
		Evaluator: evaluator,
		Metrics:   metrics,
		Gatherer:  reg,
	}), reg
}

func defaultRouter(t *testing.T) http.Handler {
	h, _ := newTestRouter(t, geocode.NewStaticGeocoder(map[string]domain.Coordinates{
		"Connaught Place, New Delhi": {Lat: 28.7041, Lon: 77.1025},
		"Koramangala, Bengaluru":     {Lat: 12.9352, Lon: 77.6245},
	}))
	return h
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCalculateShippingByQueryAddress(t *testing.T) {
	rec := do(t, defaultRouter(t), http.MethodPost, "/api/calculate-shipping/?address=Connaught+Place,+New+Delhi", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var body shippingBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, "Connaught Place, New Delhi", body.Address)
	require.Len(t, body.ShippingOptions, 5)
	assert.Equal(t, "Delhi", body.ShippingOptions[0].Warehouse)
	assert.InDelta(t, 1153.24, body.ShippingOptions[1].DistanceKm, 0.05)
	assert.InDelta(t, body.ShippingOptions[1].DistanceKm*5, body.ShippingOptions[1].Road.Cost, 1e-6)
	assert.InDelta(t, body.ShippingOptions[1].DistanceKm/600, body.ShippingOptions[1].Airplane.Time, 1e-6)

	assert.Equal(t, recommendation{Warehouse: "Delhi", Method: "road"}, body.Cheapest)
	assert.Equal(t, recommendation{Warehouse: "Delhi", Method: "airplane"}, body.Quickest)
	assert.Equal(t, recommendation{Warehouse: "Delhi", Method: "road"}, body.Balanced)
}

func TestCalculateShippingByJSONBody(t *testing.T) {
	h := defaultRouter(t)

	rec := do(t, h, http.MethodPost, "/api/calculate-shipping", `{"address":"Koramangala,   Bengaluru"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body shippingBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Bengaluru", body.Cheapest.Warehouse)
	assert.Equal(t, "road", body.Cheapest.Method)
	assert.Equal(t, "Bengaluru", body.Quickest.Warehouse)
	assert.Equal(t, "airplane", body.Quickest.Method)
	assert.Equal(t, "Bengaluru", body.Balanced.Warehouse)

	rec = do(t, h, http.MethodPost, "/api/calculate-shipping", `{"lat":12.9352,"lon":77.6245,"weights":{"cost":1,"time":0,"distance":0}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, domain.Coordinates{Lat: 12.9352, Lon: 77.6245}, body.Origin)
	assert.Equal(t, "Bengaluru", body.Balanced.Warehouse)
}

func TestCalculateShippingErrors(t *testing.T) {
	tests := []struct {
		name      string
		method    string
		target    string
		body      string
		status    int
		message   string
		validates bool
	}{
		{"missing address", http.MethodPost, "/api/calculate-shipping/", "", http.StatusBadRequest, "Address is required", false},
		{"blank address", http.MethodPost, "/api/calculate-shipping/?address=+++", "", http.StatusBadRequest, "Address is required", false},
		{"unknown address", http.MethodPost, "/api/calculate-shipping/?address=Atlantis", "", http.StatusBadRequest, "Could not geocode the address", false},
		{"wrong method", http.MethodGet, "/api/calculate-shipping/?address=Delhi", "", http.StatusMethodNotAllowed, "Invalid request method", false},
		{"malformed json", http.MethodPost, "/api/calculate-shipping", `{"address":`, http.StatusBadRequest, "invalid json body", false},
		{"latitude out of range", http.MethodPost, "/api/calculate-shipping", `{"lat":95,"lon":10}`, http.StatusBadRequest, "Invalid request", true},
		{"latitude without longitude", http.MethodPost, "/api/calculate-shipping", `{"lat":10}`, http.StatusBadRequest, "Invalid request", true},
		{"negative weight", http.MethodPost, "/api/calculate-shipping", `{"lat":10,"lon":10,"weights":{"cost":-1}}`, http.StatusBadRequest, "Invalid request", true},
		{"zero weights", http.MethodPost, "/api/calculate-shipping", `{"lat":10,"lon":10,"weights":{}}`, http.StatusBadRequest, "weights must not all be zero", false},
	}

	h := defaultRouter(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.target, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())

			var body errorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.message, body.Error)
			if tt.validates {
				assert.NotEmpty(t, body.Validation)
			}
		})
	}
}

func TestCalculateShippingGeocoderDown(t *testing.T) {
	h, _ := newTestRouter(t, downGeocoder{})

	rec := do(t, h, http.MethodPost, "/api/calculate-shipping/?address=Mumbai", "")
	require.Equal(t, http.StatusBadGateway, rec.Code, rec.Body.String())
}

type timeoutGeocoder struct{}

func (timeoutGeocoder) Resolve(context.Context, string) (domain.Coordinates, error) {
	return domain.Coordinates{}, fmt.Errorf("nominatim: %w", context.DeadlineExceeded)
}

func TestCalculateShippingUpstreamTimeout(t *testing.T) {
	h, _ := newTestRouter(t, timeoutGeocoder{})

	rec := do(t, h, http.MethodPost, "/api/calculate-shipping/?address=Mumbai", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code, rec.Body.String())
}

func TestCalculateShippingClientGone(t *testing.T) {
	h, _ := newTestRouter(t, waitingGeocoder{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/calculate-shipping/?address=Mumbai", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, 499, rec.Code, rec.Body.String())

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	req = httptest.NewRequest(http.MethodPost, "/api/calculate-shipping/?address=Mumbai", nil).WithContext(ctx)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/metrics", "")
	assert.Contains(t, rec.Body.String(), `shipping_evaluations_total{outcome="canceled"} 2`)
	assert.NotContains(t, rec.Body.String(), `outcome="geocoder_unavailable"`)
}

func TestCalculateShippingRejectsOutOfRangeGeocode(t *testing.T) {
	h, _ := newTestRouter(t, geocode.NewStaticGeocoder(map[string]domain.Coordinates{
		"Nowhere": {Lat: 0, Lon: 200},
	}))

	rec := do(t, h, http.MethodPost, "/api/calculate-shipping/?address=Nowhere", "")
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Could not geocode the address", body.Error)
}

func TestListWarehouses(t *testing.T) {
	rec := do(t, defaultRouter(t), http.MethodGet, "/api/warehouses", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Warehouses []struct {
			Name string  `json:"name"`
			Lat  float64 `json:"lat"`
			Lon  float64 `json:"lon"`
		} `json:"warehouses"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Warehouses, 5)
	assert.Equal(t, "Delhi", body.Warehouses[0].Name)
	assert.Equal(t, 28.7041, body.Warehouses[0].Lat)
}

func TestHealthAndMetrics(t *testing.T) {
	h := defaultRouter(t)

	rec := do(t, h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	do(t, h, http.MethodPost, "/api/calculate-shipping/?address=Connaught+Place,+New+Delhi", "")
	do(t, h, http.MethodPost, "/api/calculate-shipping?address=Connaught+Place,+New+Delhi", "")

	rec = do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `shipping_evaluations_total{outcome="ok"} 2`)
	// chi reports both spellings under the route pattern without the slash.
	assert.Contains(t, rec.Body.String(), `shipping_http_requests_total{method="POST",path="/api/calculate-shipping",status="200"} 2`)
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/calculate-shipping/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	rec := httptest.NewRecorder()
	defaultRouter(t).ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNotFound(t *testing.T) {
	rec := do(t, defaultRouter(t), http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
