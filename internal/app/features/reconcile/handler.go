// internal/app/features/reconcile/handler.go
//
// Package reconcile lets an admin run a brief reconcile pass on demand
// instead of waiting for the background worker.
package reconcile

import (
	"context"
	"errors"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/preemhub/internal/app/features/errors"
	"github.com/dalemusser/preemhub/internal/app/system/auth"
	"github.com/dalemusser/preemhub/internal/app/system/briefs"
	"github.com/dalemusser/preemhub/internal/app/system/timeouts"
	"github.com/dalemusser/preemhub/internal/app/system/urlrewrite"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

// Reconciler is satisfied by *briefs.Reconciler.
type Reconciler interface {
	Reconcile(ctx context.Context, rootPath string) (briefs.RefreshResult, error)
	ReconcileAll(ctx context.Context) (briefs.RefreshResult, error)
}

type Handler struct {
	Reconciler Reconciler
	Timeout    time.Duration
	ErrLog     *uierrors.ErrorLogger
	Log        *zap.Logger
}

func NewHandler(rec Reconciler, timeout time.Duration, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Reconciler: rec, Timeout: timeout, ErrLog: errLog, Log: logger}
}

type response struct {
	Path   string               `json:"path,omitempty"`
	Result briefs.RefreshResult `json:"result"`
	// Warning is set when some briefs could not be written; the next pass
	// retries them.
	Warning string `json:"warning,omitempty"`
}

// HandleReconcile handles POST /api/admin/reconcile[?path=]. Without a path
// every organization is reconciled.
func (h *Handler) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	const op = "reconcile briefs"
	path := query.Get(r, urlrewrite.PathParam)

	ctx, cancel := timeouts.WithTimeout(r.Context(), h.Timeout, h.Log, op)
	defer cancel()

	start := time.Now()
	var (
		res briefs.RefreshResult
		err error
	)
	if path == "" {
		res, err = h.Reconciler.ReconcileAll(ctx)
	} else {
		res, err = h.Reconciler.Reconcile(ctx, path)
	}

	out := response{Path: path, Result: res}
	switch {
	case errors.Is(err, briefs.ErrPartialRefresh):
		out.Warning = "some summaries could not be repaired; the next pass will retry"
	case err != nil:
		h.ErrLog.Write(w, r, op, err)
		return
	}

	fields := []zap.Field{
		zap.String("path", path),
		zap.Int("visited", res.Visited),
		zap.Int("updated", res.Updated),
		zap.Int("failed", res.Failed),
		zap.Duration("elapsed", time.Since(start)),
	}
	if u, ok := auth.CurrentUser(r); ok {
		fields = append(fields, zap.String("user_id", u.ID))
	}
	h.Log.Info("manual brief reconcile", fields...)
	uierrors.WriteJSON(w, http.StatusOK, out)
}
