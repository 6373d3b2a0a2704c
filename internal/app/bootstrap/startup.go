// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"time"

	documentstore "github.com/dalemusser/preemhub/internal/app/store/documents"
	hierarchystore "github.com/dalemusser/preemhub/internal/app/store/hierarchy"
	userstore "github.com/dalemusser/preemhub/internal/app/store/users"
	"github.com/dalemusser/preemhub/internal/app/system/briefs"
	"github.com/dalemusser/preemhub/internal/app/system/ledger"
	"github.com/dalemusser/preemhub/internal/app/system/ratelimit"
	"github.com/dalemusser/preemhub/internal/app/system/timezones"
	"github.com/dalemusser/preemhub/internal/app/system/tree"
	"github.com/dalemusser/preemhub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs after the database is connected and indexed, but before the
// HTTP handler is built. It builds the shared services on top of the
// document store and starts the background reconcile worker.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Components == nil {
		return errors.New("startup: DBDeps.Components is nil; was ConnectDB skipped?")
	}
	if err := timezones.Load(); err != nil {
		logger.Error("timezone database load failed", zap.Error(err))
		return err
	}

	buildComponents(deps.Components, documentstore.NewMongo(deps.PreemHubMongoDatabase), appCfg, logger)
	c := deps.Components
	logger.Info("timeouts configured", c.Timeouts.Fields()...)

	if appCfg.BriefReconcileInterval > 0 {
		c.Reconcile = workers.NewBriefReconcile(c.Reconciler, logger, appCfg.BriefReconcileInterval, c.Timeouts.Reconcile)
		c.Reconcile.Start()
	} else {
		logger.Info("brief reconcile worker disabled")
	}
	return nil
}

// buildComponents fills c with the services shared by the handlers.
func buildComponents(c *Components, docs documentstore.Store, appCfg AppConfig, logger *zap.Logger) {
	c.Docs = docs
	c.Timeouts = appCfg.timeoutConfig()
	c.Propagator = briefs.NewPropagator(docs, logger, appCfg.BriefRefreshConcurrency)
	c.Reconciler = briefs.NewReconciler(docs, logger, appCfg.BriefRefreshConcurrency)
	c.Entities = hierarchystore.New(docs, c.Propagator, logger)
	c.Users = userstore.New(docs, logger)
	c.Ledger = ledger.New(docs, logger)
	c.Assembler = tree.New(docs, logger, appCfg.TreeFetchConcurrency)
	if appCfg.WriteRateLimit > 0 {
		c.WriteLimiter = ratelimit.New(appCfg.WriteRateLimit, time.Minute)
	}
	if appCfg.LoginRateLimit > 0 {
		c.LoginLimiter = ratelimit.New(appCfg.LoginRateLimit, time.Minute)
	}
}
