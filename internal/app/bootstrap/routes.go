// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"errors"
	"net/http"

	errorsfeature "github.com/dalemusser/preemhub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/preemhub/internal/app/features/health"
	loginfeature "github.com/dalemusser/preemhub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/preemhub/internal/app/features/logout"
	managefeature "github.com/dalemusser/preemhub/internal/app/features/manage"
	pagesfeature "github.com/dalemusser/preemhub/internal/app/features/pages"
	reconcilefeature "github.com/dalemusser/preemhub/internal/app/features/reconcile"
	resolvefeature "github.com/dalemusser/preemhub/internal/app/features/resolve"
	userinfofeature "github.com/dalemusser/preemhub/internal/app/features/userinfo"
	metricsstore "github.com/dalemusser/preemhub/internal/app/store/metrics"
	"github.com/dalemusser/preemhub/internal/app/system/auth"
	"github.com/dalemusser/preemhub/internal/app/system/metrics"
	"github.com/dalemusser/preemhub/internal/app/system/ratelimit"
	"github.com/dalemusser/preemhub/internal/app/system/urlrewrite"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler for PreemHub.
//
// WAFFLE calls this after configuration, DB connections, schema setup and
// Startup have completed, so the shared components are ready. Secure
// cookies are enabled in production mode.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	if deps.Components == nil || deps.Components.Docs == nil {
		return nil, errors.New("build handler: components not initialized")
	}

	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	db := deps.PreemHubMongoDatabase
	counts := func(ctx context.Context) metricsstore.Counts {
		return metricsstore.FetchDashboardCounts(ctx, db)
	}

	return newRouter(routerDeps{
		Components: deps.Components,
		Sessions:   sessionMgr,
		Pinger:     deps.PreemHubMongoClient,
		Counts:     counts,
		DevLogin:   appCfg.DevLogin,
	}, logger)
}

// routerDeps is everything newRouter needs, so tests can build the router
// over an in-memory store.
type routerDeps struct {
	Components *Components
	Sessions   *auth.SessionManager
	Pinger     healthfeature.Pinger
	Counts     managefeature.CountsFunc
	DevLogin   bool
}

func newRouter(d routerDeps, logger *zap.Logger) (http.Handler, error) {
	c := d.Components
	errLog := errorsfeature.NewErrorLogger(logger)

	rw := urlrewrite.Default()
	loader := pagesfeature.NewLoader(c.Assembler, c.Entities)

	r := chi.NewRouter()

	// Friendly URLs become page targets before routing.
	r.Use(urlrewrite.Middleware(rw, logger))

	// Global auth middleware: loads SessionUser into context if signed in.
	r.Use(d.Sessions.LoadSessionUser)

	if c.WriteLimiter != nil {
		r.Use(ratelimit.Middleware(c.WriteLimiter, ratelimit.ByUser, true, logger))
	}

	// Operational endpoints
	healthHandler := healthfeature.NewHandler(d.Pinger, c.Timeouts.Ping, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", metrics.Handler())

	// Session
	if d.DevLogin {
		logger.Warn("development sign-in enabled at /login")
		loginHandler := loginfeature.NewHandler(c.Users, d.Sessions, errLog, c.Timeouts, logger)
		lr := r.With()
		if c.LoginLimiter != nil {
			lr = r.With(ratelimit.Middleware(c.LoginLimiter, ratelimit.ByIP, true, logger))
		}
		lr.Mount("/login", loginfeature.Routes(loginHandler))
	}
	logoutHandler := logoutfeature.NewHandler(d.Sessions, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	// APIs
	userinfofeature.MountRoutes(r, userinfofeature.NewHandler())
	resolvefeature.MountRoutes(r, resolvefeature.NewHandler(rw, errLog, logger))

	// Public pages
	pagesHandler := pagesfeature.NewHandler(loader, c.Ledger, c.Users, c.Timeouts, errLog, logger)
	pagesfeature.MountRoutes(r, pagesHandler, d.Sessions)

	// Admin
	reconcileHandler := reconcilefeature.NewHandler(c.Reconciler, c.Timeouts.Reconcile, errLog, logger)
	reconcilefeature.MountRoutes(r, reconcileHandler, d.Sessions)

	// Organizer console
	manageHandler := managefeature.NewHandler(c.Entities, loader, c.Ledger, d.Counts, c.Timeouts, errLog, logger)
	r.Mount("/manage", managefeature.Routes(manageHandler, d.Sessions))

	// Error endpoints
	errorsHandler := errorsfeature.NewHandler()
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)
	r.NotFound(errorsHandler.NotFound)

	return r, nil
}
