package client

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-propostas/internal/common"
)

// Handler exposes REST endpoints for managing clients.
type Handler struct {
	Service      *Service
	MaxBodyBytes int64
}

type clientRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"omitempty,email,max=254"`
	Company string `json:"company" validate:"max=200"`
	Phone   string `json:"phone" validate:"max=40"`
}

func (req clientRequest) input() Input {
	return Input(req)
}

// List handles GET /api/v1/clients.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	page, limit := common.ParsePagination(r, 20)
	clients, total, err := h.Service.List(r.Context(), userID, ListParams{
		Query: r.URL.Query().Get("q"),
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       clients,
		"pagination": common.NewPagination(page, limit, total),
	})
}

// Create handles POST /api/v1/clients.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	var req clientRequest
	if err := common.DecodeAndValidate(w, r, h.MaxBodyBytes, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	created, err := h.Service.Create(r.Context(), userID, req.input())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": created})
}

// Get handles GET /api/v1/clients/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	c, err := h.Service.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": c})
}

// Update handles PUT /api/v1/clients/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "client id is required", nil)
		return
	}
	var req clientRequest
	if err := common.DecodeAndValidate(w, r, h.MaxBodyBytes, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	updated, err := h.Service.Update(r.Context(), userID, id, req.input())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": updated})
}

// Delete handles DELETE /api/v1/clients/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	if err := h.Service.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) user(w http.ResponseWriter, r *http.Request) (string, bool) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "client service not configured", nil)
		return "", false
	}
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return "", false
	}
	return userID, true
}
