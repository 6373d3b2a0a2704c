// internal/app/features/manage/create.go
package manage

import (
	"net/http"

	uierrors "github.com/dalemusser/preemhub/internal/app/features/errors"
	hierarchystore "github.com/dalemusser/preemhub/internal/app/store/hierarchy"
	"github.com/dalemusser/preemhub/internal/app/system/docpath"
	"github.com/dalemusser/preemhub/internal/app/system/timeouts"
)

// HandleCreate handles POST /manage/{kind}/new?path=, where path is the
// collection the new entity goes into ("organizations" for a new
// organization, "<race>/preems" for a new preem). It answers 201 with the
// stored entity.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "create"
	kind, err := kindParam(r)
	if err != nil {
		h.ErrLog.Write(w, r, op, err)
		return
	}
	collPath, err := pathParam(r)
	if err != nil {
		h.ErrLog.Write(w, r, op, err)
		return
	}
	parent, collection, err := docpath.SplitCollectionPath(collPath)
	if err != nil {
		h.ErrLog.Write(w, r, op, err)
		return
	}
	if collection != kind.Collection() {
		h.ErrLog.Write(w, r, op, &docpath.InvalidPathError{Path: collPath, Reason: "not a " + kind.String() + " collection"})
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), h.Timeouts.Write, h.Log, op)
	defer cancel()

	a := actor(r)
	var created any
	switch kind {
	case docpath.KindOrganization:
		var in hierarchystore.OrganizationInput
		if err = uierrors.DecodeJSON(w, r, &in); err == nil {
			if parent != docpath.Root {
				err = &docpath.InvalidPathError{Path: collPath, Reason: "organizations live at the root"}
			} else {
				created, err = h.Entities.CreateOrganization(ctx, in, a)
			}
		}
	case docpath.KindSeries:
		var in hierarchystore.SeriesInput
		if err = uierrors.DecodeJSON(w, r, &in); err == nil {
			created, err = h.Entities.CreateSeries(ctx, parent, in, a)
		}
	case docpath.KindEvent:
		var in hierarchystore.EventInput
		if err = uierrors.DecodeJSON(w, r, &in); err == nil {
			created, err = h.Entities.CreateEvent(ctx, parent, in, a)
		}
	case docpath.KindRace:
		var in hierarchystore.RaceInput
		if err = uierrors.DecodeJSON(w, r, &in); err == nil {
			created, err = h.Entities.CreateRace(ctx, parent, in, a)
		}
	case docpath.KindPreem:
		var in hierarchystore.PreemInput
		if err = uierrors.DecodeJSON(w, r, &in); err == nil {
			created, err = h.Entities.CreatePreem(ctx, parent, in, a)
		}
	}
	if err != nil {
		h.ErrLog.Write(w, r, op, err)
		return
	}
	uierrors.WriteJSON(w, http.StatusCreated, created)
}
