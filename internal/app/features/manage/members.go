// internal/app/features/manage/members.go
package manage

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/preemhub/internal/app/features/errors"
	hierarchystore "github.com/dalemusser/preemhub/internal/app/store/hierarchy"
	"github.com/dalemusser/preemhub/internal/app/system/docpath"
	"github.com/dalemusser/preemhub/internal/app/system/timeouts"
)

type memberRequest struct {
	UserID string `json:"userId"`
}

type memberChange func(ctx context.Context, orgPath, userID string, a hierarchystore.Actor) error

// HandleAddMember handles POST /manage/organization/members?path=.
func (h *Handler) HandleAddMember(w http.ResponseWriter, r *http.Request) {
	h.changeMembers(w, r, "add member", h.Entities.AddMember)
}

// HandleRemoveMember handles POST /manage/organization/members/remove?path=.
func (h *Handler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	h.changeMembers(w, r, "remove member", h.Entities.RemoveMember)
}

// changeMembers applies change and answers with the updated organization.
func (h *Handler) changeMembers(w http.ResponseWriter, r *http.Request, op string, change memberChange) {
	path, err := target(r, docpath.KindOrganization)
	if err != nil {
		h.ErrLog.Write(w, r, op, err)
		return
	}
	var req memberRequest
	if err := uierrors.DecodeJSON(w, r, &req); err != nil {
		h.ErrLog.Write(w, r, op, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), h.Timeouts.Write, h.Log, op)
	defer cancel()

	if err := change(ctx, path, req.UserID, actor(r)); err != nil {
		h.ErrLog.Write(w, r, op, err)
		return
	}
	org, err := h.Entities.GetOrganization(ctx, path)
	if err != nil {
		h.ErrLog.Write(w, r, op, err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, org)
}
