package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-propostas/internal/common"
)

// Handler exposes the service catalog endpoints.
type Handler struct {
	service      *Service
	maxBodyBytes int64
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service      *Service
	MaxBodyBytes int64
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service, maxBodyBytes: cfg.MaxBodyBytes}
}

type serviceRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=2000"`
	BasePrice   decimal.Decimal `json:"base_price" validate:"gte=0,lte=999999999999.99"`
	Features    []string        `json:"features" validate:"max=50,dive,max=200"`
	Category    string          `json:"category" validate:"max=100"`
	Icon        string          `json:"icon" validate:"max=100"`
	BillingType string          `json:"billing_type" validate:"omitempty,oneof=one_time monthly"`
}

func (req serviceRequest) input() Input {
	return Input(req)
}

// List handles GET /api/v1/services.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	items, err := h.service.List(r.Context(), userID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": items})
}

// Create handles POST /api/v1/services.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	var req serviceRequest
	if err := common.DecodeAndValidate(w, r, h.maxBodyBytes, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	created, err := h.service.Create(r.Context(), userID, req.input())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": created})
}

// Update handles PUT /api/v1/services/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	var req serviceRequest
	if err := common.DecodeAndValidate(w, r, h.maxBodyBytes, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	updated, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), req.input())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": updated})
}

// Delete handles DELETE /api/v1/services/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) user(w http.ResponseWriter, r *http.Request) (string, bool) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return "", false
	}
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return "", false
	}
	return userID, true
}
