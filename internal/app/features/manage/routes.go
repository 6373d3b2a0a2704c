// internal/app/features/manage/routes.go
package manage

import (
	"github.com/dalemusser/preemhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the manage router. Mount it at /manage.
func Routes(h *Handler, sessionMgr *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sessionMgr.RequireSignedIn)

	r.Get("/", h.ServeDashboard)

	r.Post("/preem/award", h.HandleAward)
	r.Post("/preem/recompute", h.HandleRecompute)
	r.Post("/organization/members", h.HandleAddMember)
	r.Post("/organization/members/remove", h.HandleRemoveMember)

	r.Get("/{kind}", h.ServeDetail)
	r.Get("/{kind}/edit", h.ServeEdit)
	r.Post("/{kind}/edit", h.HandleEdit)
	r.Post("/{kind}/new", h.HandleCreate)
	return r
}
