// internal/app/features/pages/contribute.go
package pages

import (
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/preemhub/internal/app/features/errors"
	documentstore "github.com/dalemusser/preemhub/internal/app/store/documents"
	hierarchystore "github.com/dalemusser/preemhub/internal/app/store/hierarchy"
	"github.com/dalemusser/preemhub/internal/app/system/auth"
	"github.com/dalemusser/preemhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/preemhub/internal/app/system/inputval"
	"github.com/dalemusser/preemhub/internal/app/system/ledger"
	"github.com/dalemusser/preemhub/internal/app/system/timeouts"
	"github.com/dalemusser/preemhub/internal/domain/models"
	"go.uber.org/zap"
)

type contributeRequest struct {
	ID          string  `json:"id" validate:"omitempty,docid,max=64" label:"ID"`
	Amount      float64 `json:"amount" validate:"required" label:"Amount"`
	Message     string  `json:"message" validate:"max=1000" label:"Message"`
	IsAnonymous bool    `json:"isAnonymous"`
}

// HandleContribute handles POST /preem/contribute?path=. The signed-in user
// is the contributor. A retried request with the same id answers 200 with
// the original contribution; a new one answers 201.
func (h *Handler) HandleContribute(w http.ResponseWriter, r *http.Request) {
	const op = "contribute"
	user, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.WriteJSON(w, http.StatusUnauthorized, uierrors.Body{Error: "unauthorized", Message: "Please sign in to contribute."})
		return
	}
	path, err := pathParam(r)
	if err != nil {
		h.ErrLog.Write(w, r, op, err)
		return
	}
	var req contributeRequest
	if err := uierrors.DecodeJSON(w, r, &req); err != nil {
		h.ErrLog.Write(w, r, op, err)
		return
	}
	req.ID = strings.TrimSpace(req.ID)
	req.Message = htmlsanitize.PlainText(req.Message)
	if res := inputval.Validate(req); res.HasErrors() {
		h.ErrLog.Write(w, r, op, &hierarchystore.ValidationError{Message: res.First(), Fields: res.Fields()})
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), h.Timeouts.Write, h.Log, op)
	defer cancel()

	contributor, err := h.Users.Brief(ctx, user.ID)
	switch {
	case errors.Is(err, documentstore.ErrNotFound):
		contributor = user.Brief()
	case err != nil:
		h.ErrLog.Write(w, r, op, err)
		return
	}

	res, err := h.Ledger.Contribute(ctx, path, ledger.ContributionInput{
		ID:          req.ID,
		Amount:      req.Amount,
		Message:     req.Message,
		IsAnonymous: req.IsAnonymous,
		Contributor: contributor,
		ActorID:     user.ID,
	})
	if err != nil {
		h.ErrLog.Write(w, r, op, err)
		return
	}

	status := http.StatusCreated
	if res.Duplicate {
		status = http.StatusOK
	} else {
		h.Log.Info("contribution recorded",
			zap.String("preem", path),
			zap.String("contribution", res.Contribution.Path),
			zap.String("user_id", user.ID),
			zap.Float64("prize_pool", res.Recompute.PrizePool),
			zap.Bool("minimum_met", res.Recompute.Transitioned() && res.Recompute.Status == models.StatusMinimumMet))
	}
	uierrors.WriteJSON(w, status, res)
}
