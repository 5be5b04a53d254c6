package dashboard

import (
	"net/http"

	"github.com/noah-isme/backend-propostas/internal/common"
)

// Handler exposes dashboard read endpoints.
type Handler struct {
	Svc *Service
}

// Overview handles GET /api/v1/dashboard.
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "DASHBOARD_NOT_CONFIGURED", "dashboard service not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	overview, err := h.Svc.Overview(r.Context(), userID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": overview})
}
