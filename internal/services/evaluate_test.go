package services

import (
	"context"
	"errors"
	"fmt"
	"shipping-estimate-service/internal/domain"
	"shipping-estimate-service/internal/platform/obs"
	"shipping-estimate-service/internal/ports"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGeocoder struct {
	coords domain.Coordinates
	err    error
	last   string
}

func (f *fakeGeocoder) Resolve(_ context.Context, address string) (domain.Coordinates, error) {
	f.last = address
	return f.coords, f.err
}

func newTestEvaluator(t *testing.T, g ports.Geocoder, m *obs.Metrics) *Evaluator {
	t.Helper()

	registry, err := domain.NewRegistry(domain.DefaultWarehouses())
	require.NoError(t, err)

	e, err := NewEvaluator(EvaluatorConfig{
		Registry: registry,
		Rates:    domain.DefaultRates(),
		Weights:  domain.DefaultWeights(),
		Geocoder: g,
		Metrics:  m,
	})
	require.NoError(t, err)
	return e
}

func TestEvaluateAddress(t *testing.T) {
	g := &fakeGeocoder{coords: delhi}
	e := newTestEvaluator(t, g, nil)

	ev, err := e.EvaluateAddress(context.Background(), "  New   Delhi ", nil)
	require.NoError(t, err)

	assert.Equal(t, "New Delhi", g.last)
	assert.Equal(t, "New Delhi", ev.Address)
	assert.Equal(t, delhi, ev.Origin)
	assert.Equal(t, domain.DefaultWeights(), ev.Weights)
	require.Len(t, ev.Options, 5)
	require.Len(t, ev.Scores, 5)

	assert.Equal(t, domain.Recommendation{Warehouse: "Delhi", Method: domain.Ground}, ev.Cheapest)
	assert.Equal(t, domain.Recommendation{Warehouse: "Delhi", Method: domain.Air}, ev.Quickest)
	assert.Equal(t, domain.Recommendation{Warehouse: "Delhi", Method: domain.Ground}, ev.Balanced)
}

func TestEvaluateAddressErrors(t *testing.T) {
	tests := []struct {
		name    string
		address string
		geo     *fakeGeocoder
		want    error
	}{
		{"blank address", "   ", &fakeGeocoder{}, domain.ErrInvalidInput},
		{"not found", "Atlantis", &fakeGeocoder{err: fmt.Errorf("lookup: %w", ports.ErrAddressNotFound)}, domain.ErrResolutionFailed},
		{"provider down", "Mumbai", &fakeGeocoder{err: errors.New("connection refused")}, domain.ErrGeocoderUnavailable},
		{"provider returned garbage", "Mumbai", &fakeGeocoder{coords: domain.Coordinates{Lat: 120}}, domain.ErrResolutionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEvaluator(t, tt.geo, nil)

			ev, err := e.EvaluateAddress(context.Background(), tt.address, nil)
			require.ErrorIs(t, err, tt.want)
			assert.Nil(t, ev)
		})
	}
}

func TestEvaluateAddressCallerGone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := &fakeGeocoder{err: fmt.Errorf("nominatim: %w", context.Canceled)}
	_, err := newTestEvaluator(t, g, nil).EvaluateAddress(ctx, "Mumbai", nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrGeocoderUnavailable)
	assert.Equal(t, "canceled", outcome(err))
}

func TestEvaluateAddressUpstreamTimeoutIsUnavailable(t *testing.T) {
	// The caller is still waiting, so an upstream deadline is the provider's fault.
	g := &fakeGeocoder{err: fmt.Errorf("nominatim: %w", context.DeadlineExceeded)}
	_, err := newTestEvaluator(t, g, nil).EvaluateAddress(context.Background(), "Mumbai", nil)
	require.ErrorIs(t, err, domain.ErrGeocoderUnavailable)
	assert.Equal(t, "geocoder_unavailable", outcome(err))
}

func TestInvalidInputCarriesReason(t *testing.T) {
	e := newTestEvaluator(t, &fakeGeocoder{}, nil)

	_, err := e.EvaluateAddress(context.Background(), " ", nil)
	var inErr *domain.InputError
	require.ErrorAs(t, err, &inErr)
	assert.Equal(t, "Address is required", inErr.Reason)

	_, err = e.EvaluateCoordinates(context.Background(), domain.Coordinates{Lat: 91}, nil)
	require.ErrorAs(t, err, &inErr)
	assert.Equal(t, "latitude 91 out of range [-90, 90]", inErr.Reason)
}

func TestEvaluateCoordinates(t *testing.T) {
	g := &fakeGeocoder{err: errors.New("must not be called")}
	e := newTestEvaluator(t, g, nil)

	w := domain.Weights{Cost: 1}
	ev, err := e.EvaluateCoordinates(context.Background(), koramanga, &w)
	require.NoError(t, err)

	assert.Empty(t, g.last)
	assert.Empty(t, ev.Address)
	assert.Equal(t, w, ev.Weights)
	assert.Equal(t, "Bengaluru", ev.Cheapest.Warehouse)
	assert.Equal(t, "Bengaluru", ev.Quickest.Warehouse)
	assert.Equal(t, "Bengaluru", ev.Balanced.Warehouse)
}

func TestEvaluateCoordinatesRejectsInvalidInput(t *testing.T) {
	e := newTestEvaluator(t, &fakeGeocoder{}, nil)

	_, err := e.EvaluateCoordinates(context.Background(), domain.Coordinates{Lat: 0, Lon: 181}, nil)
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	bad := domain.Weights{Cost: -1, Time: 1}
	_, err = e.EvaluateCoordinates(context.Background(), delhi, &bad)
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	zero := domain.Weights{}
	_, err = e.EvaluateCoordinates(context.Background(), delhi, &zero)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNewEvaluatorValidation(t *testing.T) {
	registry, err := domain.NewRegistry(domain.DefaultWarehouses())
	require.NoError(t, err)

	_, err = NewEvaluator(EvaluatorConfig{Rates: domain.DefaultRates(), Weights: domain.DefaultWeights(), Geocoder: &fakeGeocoder{}})
	require.ErrorIs(t, err, domain.ErrEmptyCandidateSet)

	_, err = NewEvaluator(EvaluatorConfig{Registry: registry, Rates: domain.DefaultRates(), Weights: domain.DefaultWeights()})
	require.Error(t, err)

	_, err = NewEvaluator(EvaluatorConfig{Registry: registry, Weights: domain.DefaultWeights(), Geocoder: &fakeGeocoder{}})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestEvaluatorRecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	e := newTestEvaluator(t, &fakeGeocoder{coords: delhi}, obs.NewMetrics(reg))

	_, err := e.EvaluateAddress(context.Background(), "Delhi", nil)
	require.NoError(t, err)
	_, err = e.EvaluateAddress(context.Background(), "", nil)
	require.Error(t, err)
	_, err = e.EvaluateCoordinates(context.Background(), delhi, nil)
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(reg, "shipping_evaluations_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
