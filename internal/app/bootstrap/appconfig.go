// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for PreemHub.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework-level settings (ports, TLS, logging, CORS); everything specific
// to the hierarchy engine lives here and is passed to every lifecycle hook.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: preemhub-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// DevLogin mounts the trust-the-caller /login endpoint. Never enable it
	// where an identity provider fronts the app.
	DevLogin bool

	// Fan-out limits
	BriefRefreshConcurrency int // concurrent brief writes per refresh or reconcile pass
	TreeFetchConcurrency    int // concurrent child listings per tree assembly

	// BriefReconcileInterval is how often the background worker repairs
	// stale briefs. Zero disables the worker.
	BriefReconcileInterval time.Duration

	// Per-minute request limits; zero disables. Writes are counted per
	// signed-in user (per IP otherwise), sign-ins per IP.
	WriteRateLimit int
	LoginRateLimit int

	// Store I/O budgets; zero values fall back to the timeouts defaults.
	TimeoutPing      time.Duration
	TimeoutRead      time.Duration
	TimeoutWrite     time.Duration
	TimeoutRender    time.Duration
	TimeoutReconcile time.Duration
}
