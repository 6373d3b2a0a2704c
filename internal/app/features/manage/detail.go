// internal/app/features/manage/detail.go
package manage

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/preemhub/internal/app/features/errors"
	"github.com/dalemusser/preemhub/internal/app/system/docpath"
	"github.com/dalemusser/preemhub/internal/app/system/timeouts"
)

// ServeDetail handles GET /manage/{kind}?path=: the same data as the public
// page, for users allowed to manage it.
func (h *Handler) ServeDetail(w http.ResponseWriter, r *http.Request) {
	const op = "manage detail"
	kind, err := kindParam(r)
	if err != nil {
		h.ErrLog.Write(w, r, op, err)
		return
	}
	path, err := target(r, kind)
	if err != nil {
		h.ErrLog.Write(w, r, op, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), h.Timeouts.Render, h.Log, op)
	defer cancel()

	if err := h.Entities.CanManage(ctx, actor(r), path); err != nil {
		h.ErrLog.Write(w, r, op, err)
		return
	}
	data, err := h.load(ctx, kind, path)
	if err != nil {
		h.ErrLog.Write(w, r, op, err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, data)
}

func (h *Handler) load(ctx context.Context, kind docpath.Kind, path string) (any, error) {
	switch kind {
	case docpath.KindOrganization:
		return h.Loader.GetRenderableOrganizationDataForPage(ctx, path)
	case docpath.KindSeries:
		return h.Loader.GetRenderableSeriesDataForPage(ctx, path)
	case docpath.KindEvent:
		return h.Loader.GetRenderableEventDataForPage(ctx, path)
	case docpath.KindRace:
		return h.Loader.GetRenderableRaceDataForPage(ctx, path)
	default:
		return h.Loader.GetRenderablePreemDataForPage(ctx, path)
	}
}
