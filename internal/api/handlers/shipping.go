package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"shipping-estimate-service/internal/api/dto"
	"shipping-estimate-service/internal/domain"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"go.uber.org/zap"
)

// Evaluator is the service surface the shipping endpoints depend on.
type Evaluator interface {
	EvaluateAddress(ctx context.Context, address string, w *domain.Weights) (*domain.Evaluation, error)
	EvaluateCoordinates(ctx context.Context, origin domain.Coordinates, w *domain.Weights) (*domain.Evaluation, error)
	Warehouses() []domain.Warehouse
}

// statusClientClosedRequest is the non-standard status nginx logs when
// the client disconnects before the response is written.
const statusClientClosedRequest = 499

type ShippingHandler struct {
	evaluator Evaluator
	logger    *zap.Logger
	validator *requestValidator
}

func NewShippingHandler(evaluator Evaluator, logger *zap.Logger) *ShippingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShippingHandler{
		evaluator: evaluator,
		logger:    logger,
		validator: newRequestValidator(),
	}
}

// Calculate evaluates shipping options for the address given in the
// "address" query parameter or for the JSON body.
func (h *ShippingHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	req := &dto.ShippingRequest{}
	if r.ContentLength != 0 {
		if err := render.Bind(r, req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, r, http.StatusBadRequest, "invalid json body")
			return
		}
	}

	if req.Address == "" {
		req.Address = strings.Join(strings.Fields(r.URL.Query().Get("address")), " ")
	}

	if msgs := h.validator.Struct(req); msgs != nil {
		writeJSON(w, r, http.StatusBadRequest, ErrResponse{Error: "Invalid request", Validation: msgs})
		return
	}

	var (
		ev  *domain.Evaluation
		err error
	)
	switch {
	case req.HasCoordinates():
		ev, err = h.evaluator.EvaluateCoordinates(r.Context(), req.Coordinates(), req.DomainWeights())
	case req.Address != "":
		ev, err = h.evaluator.EvaluateAddress(r.Context(), req.Address, req.DomainWeights())
	default:
		writeError(w, r, http.StatusBadRequest, "Address is required")
		return
	}

	if err != nil {
		h.writeEvaluationError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewShippingResponse(ev))
}

func (h *ShippingHandler) writeEvaluationError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrResolutionFailed):
		writeError(w, r, http.StatusBadRequest, "Could not geocode the address")
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, inputReason(err))
	case errors.Is(err, domain.ErrGeocoderUnavailable):
		h.logger.Error("geocoder unavailable",
			zap.String("req_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		writeError(w, r, http.StatusBadGateway, "Geocoding service unavailable")
	case errors.Is(err, context.Canceled):
		h.logger.Info("client went away",
			zap.String("req_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		writeError(w, r, statusClientClosedRequest, "request canceled")
	case errors.Is(err, context.DeadlineExceeded):
		h.logger.Info("request deadline exceeded",
			zap.String("req_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		writeError(w, r, http.StatusGatewayTimeout, "request timed out")
	default:
		h.logger.Error("evaluate shipping failed",
			zap.String("req_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

// inputReason returns the caller-facing reason carried by an invalid-input
// error.
func inputReason(err error) string {
	var inErr *domain.InputError
	if errors.As(err, &inErr) {
		return inErr.Reason
	}
	return "Invalid input"
}

// ListWarehouses returns the registry the service ships from.
func (h *ShippingHandler) ListWarehouses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	warehouses := h.evaluator.Warehouses()
	res := dto.ListWarehousesResponse{
		Warehouses: make([]dto.WarehouseResponse, 0, len(warehouses)),
	}
	for _, wh := range warehouses {
		res.Warehouses = append(res.Warehouses, dto.WarehouseResponse{
			Name: wh.Name,
			Lat:  wh.Location.Lat,
			Lon:  wh.Location.Lon,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}
