package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"shipping-estimate-service/internal/domain"
	"shipping-estimate-service/internal/platform/obs"
	"shipping-estimate-service/internal/ports"
	"strings"
	"time"

	"go.uber.org/zap"
)

const DefaultORSURL = "https://api.openrouteservice.org"

type ORSConfig struct {
	APIKey  string
	BaseURL string
	// ISO 3166-1 alpha-2 or alpha-3 code restricting matches, optional.
	BoundaryCountry string
	Timeout         time.Duration
	RatePerSecond   float64
}

// ORSGeocoder resolves addresses with OpenRouteService (/geocode/search).
//
// The provider is safe for concurrent use.
type ORSGeocoder struct {
	client  *client
	baseURL string
	country string
	logger  *zap.Logger
	metrics *obs.Metrics
}

type orsGeocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

func NewORSGeocoder(cfg ORSConfig, logger *zap.Logger, metrics *obs.Metrics) (*ORSGeocoder, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("ORS api key is empty")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultORSURL
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	headers := http.Header{}
	headers.Set("Authorization", cfg.APIKey)

	return &ORSGeocoder{
		client:  newClient(cfg.Timeout, cfg.RatePerSecond, headers),
		baseURL: baseURL,
		country: cfg.BoundaryCountry,
		logger:  logger,
		metrics: metrics,
	}, nil
}

func (o *ORSGeocoder) Resolve(ctx context.Context, address string) (_ domain.Coordinates, err error) {
	defer obs.Time(ctx, o.logger, "ors.Resolve")(&err)

	start := time.Now()
	defer func() { o.metrics.ObserveGeocode("ors", geocodeOutcome(err), time.Since(start)) }()

	norm := Normalize(address)
	if norm == "" {
		return domain.Coordinates{}, errors.New("ORS resolve: address must be non-empty")
	}

	endpoint := o.baseURL + "/geocode/search"

	resp, err := o.client.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := o.client.newRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("text", norm)
		q.Set("size", "1")
		if o.country != "" {
			q.Set("boundary.country", o.country)
		}
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("ORS resolve %q: %w", norm, err)
	}
	defer resp.Body.Close()

	var decoded orsGeocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Coordinates{}, fmt.Errorf("ORS resolve %q: decode response: %w", norm, err)
	}

	if len(decoded.Features) == 0 {
		return domain.Coordinates{}, fmt.Errorf("ORS resolve %q: %w", norm, ports.ErrAddressNotFound)
	}

	// GeoJSON order is [lon, lat].
	coords := decoded.Features[0].Geometry.Coordinates
	if len(coords) != 2 {
		return domain.Coordinates{}, fmt.Errorf("ORS resolve %q: invalid coordinate format", norm)
	}

	return domain.Coordinates{Lon: coords[0], Lat: coords[1]}, nil
}
