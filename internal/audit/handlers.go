package audit

import (
	"net/http"

	"github.com/noah-isme/backend-propostas/internal/common"
)

// Handler exposes the caller's audit trail.
type Handler struct {
	Service *Service
}

// List handles GET /api/v1/audit-logs.
func (h Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil || h.Service.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "AUDIT_NOT_CONFIGURED", "audit store not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	page, perPage := common.ParsePagination(r, 50)
	entries, total, err := h.Service.List(r.Context(), userID, page, perPage)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       entries,
		"pagination": common.NewPagination(page, perPage, total),
	})
}
