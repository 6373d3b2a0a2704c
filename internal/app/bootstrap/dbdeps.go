// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	documentstore "github.com/dalemusser/preemhub/internal/app/store/documents"
	hierarchystore "github.com/dalemusser/preemhub/internal/app/store/hierarchy"
	userstore "github.com/dalemusser/preemhub/internal/app/store/users"
	"github.com/dalemusser/preemhub/internal/app/system/briefs"
	"github.com/dalemusser/preemhub/internal/app/system/ledger"
	"github.com/dalemusser/preemhub/internal/app/system/ratelimit"
	"github.com/dalemusser/preemhub/internal/app/system/timeouts"
	"github.com/dalemusser/preemhub/internal/app/system/tree"
	"github.com/dalemusser/preemhub/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
//
// Components is allocated by ConnectDB and filled by Startup; WAFFLE passes
// DBDeps by value, so the pointer is how later hooks see what Startup built.
type DBDeps struct {
	PreemHubMongoClient   *mongo.Client
	PreemHubMongoDatabase *mongo.Database

	Components *Components
}

// Components are the long-lived services built once at startup and shared
// by every handler.
type Components struct {
	Docs       documentstore.Store
	Propagator *briefs.Propagator
	Reconciler *briefs.Reconciler
	Entities   *hierarchystore.Store
	Users      *userstore.Store
	Ledger     *ledger.Ledger
	Assembler  *tree.Assembler
	Timeouts   timeouts.Config

	// Reconcile is nil when the background worker is disabled.
	Reconcile *workers.BriefReconcile

	// Limiters are nil when their limit is zero.
	WriteLimiter *ratelimit.Limiter
	LoginLimiter *ratelimit.Limiter
}

// stop ends the background goroutines owned by the components.
func (c *Components) stop() {
	if c.Reconcile != nil {
		c.Reconcile.Stop()
	}
	if c.WriteLimiter != nil {
		c.WriteLimiter.Stop()
	}
	if c.LoginLimiter != nil {
		c.LoginLimiter.Stop()
	}
}
