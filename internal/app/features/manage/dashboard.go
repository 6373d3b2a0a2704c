// internal/app/features/manage/dashboard.go
package manage

import (
	"net/http"

	uierrors "github.com/dalemusser/preemhub/internal/app/features/errors"
	metricsstore "github.com/dalemusser/preemhub/internal/app/store/metrics"
	"github.com/dalemusser/preemhub/internal/app/system/timeouts"
	"github.com/dalemusser/preemhub/internal/domain/models"
	"go.uber.org/zap"
)

type dashboardData struct {
	Organizations []models.Organization `json:"organizations"`
	Counts        *metricsstore.Counts  `json:"counts,omitempty"`
}

// ServeDashboard handles GET /manage: the organizations the user manages,
// plus hierarchy totals for admins.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	a := actor(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), h.Timeouts.Read, h.Log, "manage dashboard")
	defer cancel()

	orgs, err := h.Entities.ListOrganizations(ctx, a)
	if err != nil {
		h.ErrLog.Write(w, r, "manage dashboard", err)
		return
	}
	data := dashboardData{Organizations: orgs}
	if a.Admin && h.Counts != nil {
		c := h.Counts(ctx)
		data.Counts = &c
	}

	h.Log.Debug("manage dashboard served", zap.String("user_id", a.ID), zap.Int("organizations", len(orgs)))
	uierrors.WriteJSON(w, http.StatusOK, data)
}
