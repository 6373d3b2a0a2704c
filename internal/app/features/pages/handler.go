// internal/app/features/pages/handler.go
//
// Package pages serves the public JSON pages of the hierarchy: one endpoint
// per entity kind, addressed by canonical path, plus the contribute action
// on a preem and the public user card.
package pages

import (
	"net/http"

	uierrors "github.com/dalemusser/preemhub/internal/app/features/errors"
	userstore "github.com/dalemusser/preemhub/internal/app/store/users"
	"github.com/dalemusser/preemhub/internal/app/system/ledger"
	"github.com/dalemusser/preemhub/internal/app/system/timeouts"
	"github.com/dalemusser/preemhub/internal/app/system/urlrewrite"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

// Handler owns the public page handlers.
type Handler struct {
	Loader   *Loader
	Ledger   *ledger.Ledger
	Users    *userstore.Store
	Timeouts timeouts.Config
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
}

// NewHandler constructs a Handler.
func NewHandler(loader *Loader, l *ledger.Ledger, users *userstore.Store, to timeouts.Config, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Loader:   loader,
		Ledger:   l,
		Users:    users,
		Timeouts: to.WithDefaults(),
		Log:      logger,
		ErrLog:   errLog,
	}
}

// pathParam returns the canonical path the URL rewriter placed in the
// query string.
func pathParam(r *http.Request) (string, error) {
	p := query.Get(r, urlrewrite.PathParam)
	if p == "" {
		return "", uierrors.BadRequest("missing %q parameter", urlrewrite.PathParam)
	}
	return p, nil
}
