package reconcile

import (
	"github.com/dalemusser/preemhub/internal/app/system/auth"
	"github.com/dalemusser/preemhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers POST /api/admin/reconcile for admins.
func MountRoutes(r chi.Router, h *Handler, sessionMgr *auth.SessionManager) {
	r.With(sessionMgr.RequireRole(models.RoleAdmin)).Post("/api/admin/reconcile", h.HandleReconcile)
}
