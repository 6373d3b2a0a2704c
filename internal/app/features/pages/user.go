// internal/app/features/pages/user.go
package pages

import (
	"net/http"

	uierrors "github.com/dalemusser/preemhub/internal/app/features/errors"
	"github.com/dalemusser/preemhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

// ServeUser handles GET /user/{id}: the public card of a contributor.
func (h *Handler) ServeUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), h.Timeouts.Read, h.Log, "user page")
	defer cancel()

	b, err := h.Users.Brief(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Write(w, r, "user page", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, b)
}
