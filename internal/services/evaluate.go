package services

import (
	"context"
	"errors"
	"fmt"
	"shipping-estimate-service/internal/domain"
	"shipping-estimate-service/internal/platform/obs"
	"shipping-estimate-service/internal/ports"
	"strings"

	"go.uber.org/zap"
)

type EvaluatorConfig struct {
	Registry *domain.Registry
	Rates    domain.RateTable
	Weights  domain.Weights
	Geocoder ports.Geocoder
	Logger   *zap.Logger
	Metrics  *obs.Metrics
}

// Evaluator resolves a destination and runs the option generator and
// all three selectors over the same candidate set.
//
// It holds no per-request state and is safe for concurrent use.
type Evaluator struct {
	registry *domain.Registry
	rates    domain.RateTable
	weights  domain.Weights
	geocoder ports.Geocoder
	logger   *zap.Logger
	metrics  *obs.Metrics
}

func NewEvaluator(cfg EvaluatorConfig) (*Evaluator, error) {
	if cfg.Registry == nil || cfg.Registry.Len() == 0 {
		return nil, fmt.Errorf("new evaluator: %w", domain.ErrEmptyCandidateSet)
	}
	if cfg.Geocoder == nil {
		return nil, errors.New("new evaluator: geocoder must be non-nil")
	}
	if err := cfg.Rates.Validate(); err != nil {
		return nil, fmt.Errorf("new evaluator: rates: %w", err)
	}
	if err := cfg.Weights.Validate(); err != nil {
		return nil, fmt.Errorf("new evaluator: default weights: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Evaluator{
		registry: cfg.Registry,
		rates:    cfg.Rates,
		weights:  cfg.Weights,
		geocoder: cfg.Geocoder,
		logger:   logger,
		metrics:  cfg.Metrics,
	}, nil
}

// Warehouses returns the registry the evaluator ships from.
func (e *Evaluator) Warehouses() []domain.Warehouse {
	return e.registry.Warehouses()
}

// EvaluateAddress geocodes address and evaluates shipping options to it.
// A nil w selects the configured default weights.
func (e *Evaluator) EvaluateAddress(
	ctx context.Context,
	address string,
	w *domain.Weights,
) (_ *domain.Evaluation, err error) {
	defer obs.Time(ctx, e.logger, "evaluate.address")(&err)
	defer func() { e.metrics.ObserveEvaluation(outcome(err)) }()

	addr := strings.Join(strings.Fields(address), " ")
	if addr == "" {
		return nil, fmt.Errorf("evaluate address: %w", domain.Invalid("Address is required"))
	}

	weights, err := e.resolveWeights(w)
	if err != nil {
		return nil, fmt.Errorf("evaluate address: %w", err)
	}

	origin, err := e.geocoder.Resolve(ctx, addr)
	if err != nil {
		if errors.Is(err, ports.ErrAddressNotFound) {
			return nil, fmt.Errorf("evaluate address %q: %w: %w", addr, domain.ErrResolutionFailed, err)
		}
		// The caller gave up; the geocoder is not at fault.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("evaluate address %q: %w", addr, ctxErr)
		}
		return nil, fmt.Errorf("evaluate address %q: %w: %w", addr, domain.ErrGeocoderUnavailable, err)
	}

	if err := origin.Validate(); err != nil {
		return nil, fmt.Errorf("evaluate address %q: geocoder returned %v: %w", addr, origin, domain.ErrResolutionFailed)
	}

	ev, err := e.evaluate(origin, weights)
	if err != nil {
		return nil, fmt.Errorf("evaluate address %q: %w", addr, err)
	}
	ev.Address = addr

	return ev, nil
}

// EvaluateCoordinates evaluates shipping options to an already resolved point.
func (e *Evaluator) EvaluateCoordinates(
	ctx context.Context,
	origin domain.Coordinates,
	w *domain.Weights,
) (_ *domain.Evaluation, err error) {
	defer obs.Time(ctx, e.logger, "evaluate.coordinates")(&err)
	defer func() { e.metrics.ObserveEvaluation(outcome(err)) }()

	if err := origin.Validate(); err != nil {
		return nil, fmt.Errorf("evaluate coordinates: %w", err)
	}

	weights, err := e.resolveWeights(w)
	if err != nil {
		return nil, fmt.Errorf("evaluate coordinates: %w", err)
	}

	ev, err := e.evaluate(origin, weights)
	if err != nil {
		return nil, fmt.Errorf("evaluate coordinates %v: %w", origin, err)
	}

	return ev, nil
}

func (e *Evaluator) resolveWeights(w *domain.Weights) (domain.Weights, error) {
	if w == nil {
		return e.weights, nil
	}
	if err := w.Validate(); err != nil {
		return domain.Weights{}, err
	}
	return *w, nil
}

func (e *Evaluator) evaluate(origin domain.Coordinates, weights domain.Weights) (*domain.Evaluation, error) {
	options := GenerateOptions(origin, e.registry.Warehouses(), e.rates)

	cheapest, err := Cheapest(options)
	if err != nil {
		return nil, err
	}
	quickest, err := Quickest(options)
	if err != nil {
		return nil, err
	}
	balanced, err := Balanced(options, weights)
	if err != nil {
		return nil, err
	}

	return &domain.Evaluation{
		Origin:   origin,
		Weights:  weights,
		Options:  options,
		Scores:   Scores(options, weights),
		Cheapest: cheapest,
		Quickest: quickest,
		Balanced: balanced,
	}, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrResolutionFailed):
		return "resolution_failed"
	case errors.Is(err, domain.ErrGeocoderUnavailable):
		return "geocoder_unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
