// internal/app/features/pages/view.go
package pages

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/preemhub/internal/app/features/errors"
	"github.com/dalemusser/preemhub/internal/app/system/timeouts"
)

// servePage runs load under the render budget and writes its result.
func servePage[T any](h *Handler, op string, load func(ctx context.Context, path string) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path, err := pathParam(r)
		if err != nil {
			h.ErrLog.Write(w, r, op, err)
			return
		}

		ctx, cancel := timeouts.WithTimeout(r.Context(), h.Timeouts.Render, h.Log, op)
		defer cancel()

		data, err := load(ctx, path)
		if err != nil {
			h.ErrLog.Write(w, r, op, err)
			return
		}
		uierrors.WriteJSON(w, http.StatusOK, data)
	}
}

// ServeOrganization handles GET /organization?path=.
func (h *Handler) ServeOrganization(w http.ResponseWriter, r *http.Request) {
	servePage(h, "organization page", h.Loader.GetRenderableOrganizationDataForPage)(w, r)
}

// ServeSeries handles GET /series?path=.
func (h *Handler) ServeSeries(w http.ResponseWriter, r *http.Request) {
	servePage(h, "series page", h.Loader.GetRenderableSeriesDataForPage)(w, r)
}

// ServeEvent handles GET /event?path=.
func (h *Handler) ServeEvent(w http.ResponseWriter, r *http.Request) {
	servePage(h, "event page", h.Loader.GetRenderableEventDataForPage)(w, r)
}

// ServeRace handles GET /race?path=.
func (h *Handler) ServeRace(w http.ResponseWriter, r *http.Request) {
	servePage(h, "race page", h.Loader.GetRenderableRaceDataForPage)(w, r)
}

// ServePreem handles GET /preem?path=.
func (h *Handler) ServePreem(w http.ResponseWriter, r *http.Request) {
	servePage(h, "preem page", h.Loader.GetRenderablePreemDataForPage)(w, r)
}
