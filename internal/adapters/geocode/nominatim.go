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
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

type NominatimConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	// Requests per second. The public instance allows at most one.
	RatePerSecond float64
}

// NominatimGeocoder resolves addresses with the OpenStreetMap Nominatim
// search API.
//
// The provider is safe for concurrent use.
type NominatimGeocoder struct {
	client  *client
	baseURL string
	logger  *zap.Logger
	metrics *obs.Metrics
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func NewNominatimGeocoder(cfg NominatimConfig, logger *zap.Logger, metrics *obs.Metrics) (*NominatimGeocoder, error) {
	if strings.TrimSpace(cfg.UserAgent) == "" {
		return nil, errors.New("nominatim user agent is empty")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	headers := http.Header{}
	headers.Set("User-Agent", cfg.UserAgent)

	return &NominatimGeocoder{
		client:  newClient(cfg.Timeout, cfg.RatePerSecond, headers),
		baseURL: baseURL,
		logger:  logger,
		metrics: metrics,
	}, nil
}

func (n *NominatimGeocoder) Resolve(ctx context.Context, address string) (_ domain.Coordinates, err error) {
	defer obs.Time(ctx, n.logger, "nominatim.Resolve")(&err)

	start := time.Now()
	defer func() { n.metrics.ObserveGeocode("nominatim", geocodeOutcome(err), time.Since(start)) }()

	norm := Normalize(address)
	if norm == "" {
		return domain.Coordinates{}, errors.New("nominatim resolve: address must be non-empty")
	}

	endpoint := n.baseURL + "/search"

	resp, err := n.client.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := n.client.newRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("q", norm)
		q.Set("format", "jsonv2")
		q.Set("limit", "1")
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("nominatim resolve %q: %w", norm, err)
	}
	defer resp.Body.Close()

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return domain.Coordinates{}, fmt.Errorf("nominatim resolve %q: decode response: %w", norm, err)
	}

	if len(places) == 0 {
		return domain.Coordinates{}, fmt.Errorf("nominatim resolve %q: %w", norm, ports.ErrAddressNotFound)
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("nominatim resolve %q: parse lat %q: %w", norm, places[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("nominatim resolve %q: parse lon %q: %w", norm, places[0].Lon, err)
	}

	n.logger.Debug("address resolved",
		zap.String("address", norm),
		zap.String("match", places[0].DisplayName),
	)

	return domain.Coordinates{Lat: lat, Lon: lon}, nil
}
