// internal/app/features/manage/edit.go
package manage

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/preemhub/internal/app/features/errors"
	hierarchystore "github.com/dalemusser/preemhub/internal/app/store/hierarchy"
	"github.com/dalemusser/preemhub/internal/app/system/docpath"
	"github.com/dalemusser/preemhub/internal/app/system/ledger"
	"github.com/dalemusser/preemhub/internal/app/system/timeouts"
	"github.com/dalemusser/preemhub/internal/app/system/timezones"
	"go.uber.org/zap"
)

type editData struct {
	Kind      string                `json:"kind"`
	Entity    any                   `json:"entity"`
	Timezones []timezones.ZoneGroup `json:"timezones,omitempty"`
}

type editResult struct {
	hierarchystore.UpdateResult
	Recompute *ledger.RecomputeResult `json:"recompute,omitempty"`
}

// ServeEdit handles GET /manage/{kind}/edit?path=: the current values of
// the entity, and the time zone choices for scheduled kinds.
func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	const op = "load edit"
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

	ctx, cancel := timeouts.WithTimeout(r.Context(), h.Timeouts.Read, h.Log, op)
	defer cancel()

	if err := h.Entities.CanManage(ctx, actor(r), path); err != nil {
		h.ErrLog.Write(w, r, op, err)
		return
	}
	entity, err := h.get(ctx, kind, path)
	if err != nil {
		h.ErrLog.Write(w, r, op, err)
		return
	}
	data := editData{Kind: kind.String(), Entity: entity}
	switch kind {
	case docpath.KindSeries, docpath.KindEvent, docpath.KindRace:
		if data.Timezones, err = timezones.Groups(); err != nil {
			h.ErrLog.Write(w, r, op, err)
			return
		}
	}
	uierrors.WriteJSON(w, http.StatusOK, data)
}

func (h *Handler) get(ctx context.Context, kind docpath.Kind, path string) (any, error) {
	switch kind {
	case docpath.KindOrganization:
		return h.Entities.GetOrganization(ctx, path)
	case docpath.KindSeries:
		return h.Entities.GetSeries(ctx, path)
	case docpath.KindEvent:
		return h.Entities.GetEvent(ctx, path)
	case docpath.KindRace:
		return h.Entities.GetRace(ctx, path)
	default:
		return h.Entities.GetPreem(ctx, path)
	}
}

// HandleEdit handles POST /manage/{kind}/edit?path= with a partial update.
// Descendant summaries that could not be refreshed come back as warnings.
// A new minimum threshold re-runs the preem's ledger.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	const op = "save edit"
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

	ctx, cancel := timeouts.WithTimeout(r.Context(), h.Timeouts.Write, h.Log, op)
	defer cancel()

	a := actor(r)
	var res editResult
	switch kind {
	case docpath.KindOrganization:
		var u hierarchystore.OrganizationUpdate
		if err = uierrors.DecodeJSON(w, r, &u); err == nil {
			res.UpdateResult, err = h.Entities.UpdateOrganization(ctx, path, u, a)
		}
	case docpath.KindSeries:
		var u hierarchystore.SeriesUpdate
		if err = uierrors.DecodeJSON(w, r, &u); err == nil {
			res.UpdateResult, err = h.Entities.UpdateSeries(ctx, path, u, a)
		}
	case docpath.KindEvent:
		var u hierarchystore.EventUpdate
		if err = uierrors.DecodeJSON(w, r, &u); err == nil {
			res.UpdateResult, err = h.Entities.UpdateEvent(ctx, path, u, a)
		}
	case docpath.KindRace:
		var u hierarchystore.RaceUpdate
		if err = uierrors.DecodeJSON(w, r, &u); err == nil {
			res.UpdateResult, err = h.Entities.UpdateRace(ctx, path, u, a)
		}
	case docpath.KindPreem:
		var u hierarchystore.PreemUpdate
		if err = uierrors.DecodeJSON(w, r, &u); err == nil {
			res.UpdateResult, err = h.Entities.UpdatePreem(ctx, path, u, a)
		}
		if err == nil && res.ChangedField("minimum_threshold") {
			var rec ledger.RecomputeResult
			if rec, err = h.Ledger.Recompute(ctx, path); err == nil {
				res.Recompute = &rec
			}
		}
	}
	if err != nil {
		h.ErrLog.Write(w, r, op, err)
		return
	}

	if len(res.Warnings) > 0 {
		h.Log.Warn("update applied with warnings",
			zap.String("path", path),
			zap.String("user_id", a.ID),
			zap.Strings("warnings", res.Warnings))
	}
	uierrors.WriteJSON(w, http.StatusOK, res)
}
