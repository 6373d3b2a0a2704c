// internal/app/features/manage/preem.go
package manage

import (
	"net/http"

	uierrors "github.com/dalemusser/preemhub/internal/app/features/errors"
	"github.com/dalemusser/preemhub/internal/app/system/docpath"
	"github.com/dalemusser/preemhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleAward handles POST /manage/preem/award?path=. Awarding twice
// answers 200 with alreadyAwarded set.
func (h *Handler) HandleAward(w http.ResponseWriter, r *http.Request) {
	const op = "award preem"
	path, err := target(r, docpath.KindPreem)
	if err != nil {
		h.ErrLog.Write(w, r, op, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), h.Timeouts.Write, h.Log, op)
	defer cancel()

	a := actor(r)
	if err := h.Entities.CanManage(ctx, a, path); err != nil {
		h.ErrLog.Write(w, r, op, err)
		return
	}
	res, err := h.Ledger.Award(ctx, path, a.ID)
	if err != nil {
		h.ErrLog.Write(w, r, op, err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, res)
}

// HandleRecompute handles POST /manage/preem/recompute?path=: rebuilds the
// prize pool from the contributions.
func (h *Handler) HandleRecompute(w http.ResponseWriter, r *http.Request) {
	const op = "recompute preem"
	path, err := target(r, docpath.KindPreem)
	if err != nil {
		h.ErrLog.Write(w, r, op, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), h.Timeouts.Write, h.Log, op)
	defer cancel()

	a := actor(r)
	if err := h.Entities.CanManage(ctx, a, path); err != nil {
		h.ErrLog.Write(w, r, op, err)
		return
	}
	res, err := h.Ledger.Recompute(ctx, path)
	if err != nil {
		h.ErrLog.Write(w, r, op, err)
		return
	}
	h.Log.Info("prize pool recomputed",
		zap.String("path", path),
		zap.String("by", a.ID),
		zap.Float64("prize_pool", res.PrizePool),
		zap.Int("contributions", res.Contributions))
	uierrors.WriteJSON(w, http.StatusOK, res)
}
