// internal/app/features/manage/handler.go
//
// Package manage is the organizer area: create and edit every level of the
// hierarchy, manage organization members and run the preem ledger actions.
// Every route needs a session; each action checks the actor may manage the
// target path.
package manage

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/preemhub/internal/app/features/errors"
	"github.com/dalemusser/preemhub/internal/app/features/pages"
	hierarchystore "github.com/dalemusser/preemhub/internal/app/store/hierarchy"
	metricsstore "github.com/dalemusser/preemhub/internal/app/store/metrics"
	"github.com/dalemusser/preemhub/internal/app/system/auth"
	"github.com/dalemusser/preemhub/internal/app/system/docpath"
	"github.com/dalemusser/preemhub/internal/app/system/ledger"
	"github.com/dalemusser/preemhub/internal/app/system/timeouts"
	"github.com/dalemusser/preemhub/internal/app/system/urlrewrite"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CountsFunc returns the admin dashboard totals.
type CountsFunc func(ctx context.Context) metricsstore.Counts

type Handler struct {
	Entities *hierarchystore.Store
	Loader   *pages.Loader
	Ledger   *ledger.Ledger
	Counts   CountsFunc
	Timeouts timeouts.Config
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

// NewHandler constructs a manage Handler. counts may be nil, in which case
// the dashboard omits totals.
func NewHandler(entities *hierarchystore.Store, loader *pages.Loader, l *ledger.Ledger, counts CountsFunc, to timeouts.Config, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Entities: entities,
		Loader:   loader,
		Ledger:   l,
		Counts:   counts,
		Timeouts: to.WithDefaults(),
		ErrLog:   errLog,
		Log:      logger,
	}
}

// kinds maps the {kind} route segment onto an entity kind.
var kinds = map[string]docpath.Kind{
	"organization": docpath.KindOrganization,
	"series":       docpath.KindSeries,
	"event":        docpath.KindEvent,
	"race":         docpath.KindRace,
	"preem":        docpath.KindPreem,
}

func kindParam(r *http.Request) (docpath.Kind, error) {
	name := chi.URLParam(r, "kind")
	k, ok := kinds[name]
	if !ok {
		return docpath.KindUnknown, uierrors.BadRequest("unknown kind %q", name)
	}
	return k, nil
}

func pathParam(r *http.Request) (string, error) {
	p := query.Get(r, urlrewrite.PathParam)
	if p == "" {
		return "", uierrors.BadRequest("missing %q parameter", urlrewrite.PathParam)
	}
	return p, nil
}

// actor is the signed-in user as the entity store sees them. Routes are
// mounted behind RequireSignedIn, so a missing user yields an empty actor
// that every permission check rejects.
func actor(r *http.Request) hierarchystore.Actor {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return hierarchystore.Actor{}
	}
	return hierarchystore.Actor{ID: u.ID, Admin: u.IsAdmin()}
}

// target reads and checks the path of a kind-specific request.
func target(r *http.Request, want docpath.Kind) (string, error) {
	path, err := pathParam(r)
	if err != nil {
		return "", err
	}
	if err := docpath.Validate(path); err != nil {
		return "", err
	}
	if k := docpath.KindOf(path); k != want {
		return "", &docpath.InvalidPathError{Path: path, Reason: "expected " + want.String() + ", got " + k.String()}
	}
	return path, nil
}
