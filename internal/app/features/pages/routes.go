// internal/app/features/pages/routes.go
package pages

import (
	"github.com/dalemusser/preemhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the public pages. Contributing requires a session.
func MountRoutes(r chi.Router, h *Handler, sessionMgr *auth.SessionManager) {
	r.Get("/organization", h.ServeOrganization)
	r.Get("/series", h.ServeSeries)
	r.Get("/event", h.ServeEvent)
	r.Get("/race", h.ServeRace)
	r.Get("/preem", h.ServePreem)
	r.Get("/user/{id}", h.ServeUser)

	r.With(sessionMgr.RequireSignedIn).Post("/preem/contribute", h.HandleContribute)
}
