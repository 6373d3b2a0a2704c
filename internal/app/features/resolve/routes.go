// internal/app/features/resolve/routes.go
package resolve

import "github.com/go-chi/chi/v5"

// MountRoutes registers GET /api/resolve.
func MountRoutes(r chi.Router, h *Handler) {
	r.Get("/api/resolve", h.ServeResolve)
}
