// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/preemhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for PreemHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: PREEMHUB_MONGO_URI, PREEMHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "preemhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "preemhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime (e.g., 24h, 720h)"},

	{Name: "dev_login", Default: false, Desc: "Mount the development sign-in endpoint at /login"},

	// Fan-out
	{Name: "brief_refresh_concurrency", Default: 8, Desc: "Concurrent brief writes per refresh or reconcile pass"},
	{Name: "tree_fetch_concurrency", Default: 8, Desc: "Concurrent child listings per tree assembly"},
	{Name: "brief_reconcile_interval", Default: "15m", Desc: "Background brief reconcile interval (0 disables)"},

	// Rate limits
	{Name: "write_rate_limit", Default: 60, Desc: "Mutating requests per minute per user or IP (0 disables)"},
	{Name: "login_rate_limit", Default: 10, Desc: "Sign-in attempts per minute per IP (0 disables)"},

	// Timeouts
	{Name: "timeout_ping", Default: "2s", Desc: "Health check ping budget"},
	{Name: "timeout_read", Default: "5s", Desc: "Single-document read budget"},
	{Name: "timeout_write", Default: "30s", Desc: "Create, update and ledger budget, including brief refresh"},
	{Name: "timeout_render", Default: "10s", Desc: "Page tree assembly budget"},
	{Name: "timeout_reconcile", Default: "5m", Desc: "Budget for one background reconcile pass"},
}

// LoadConfig loads WAFFLE core config and PreemHub's app config.
//
// WAFFLE's config.LoadWithAppConfig merges .env files, config files,
// PREEMHUB_* environment variables and flags with precedence
// flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "PREEMHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 30*24*time.Hour),

		DevLogin: appValues.Bool("dev_login"),

		BriefRefreshConcurrency: appValues.Int("brief_refresh_concurrency"),
		TreeFetchConcurrency:    appValues.Int("tree_fetch_concurrency"),
		BriefReconcileInterval:  appValues.Duration("brief_reconcile_interval", 15*time.Minute),

		WriteRateLimit: appValues.Int("write_rate_limit"),
		LoginRateLimit: appValues.Int("login_rate_limit"),

		TimeoutPing:      appValues.Duration("timeout_ping", timeouts.DefaultPing),
		TimeoutRead:      appValues.Duration("timeout_read", timeouts.DefaultRead),
		TimeoutWrite:     appValues.Duration("timeout_write", timeouts.DefaultWrite),
		TimeoutRender:    appValues.Duration("timeout_render", timeouts.DefaultRender),
		TimeoutReconcile: appValues.Duration("timeout_reconcile", timeouts.DefaultReconcile),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// The MongoDB URI format is checked before any connection attempt so
// configuration mistakes surface early.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return errors.New("mongo_database must be set")
	}
	if appCfg.MongoMinPoolSize > appCfg.MongoMaxPoolSize {
		return fmt.Errorf("mongo_min_pool_size (%d) exceeds mongo_max_pool_size (%d)",
			appCfg.MongoMinPoolSize, appCfg.MongoMaxPoolSize)
	}
	if appCfg.BriefRefreshConcurrency < 1 {
		return errors.New("brief_refresh_concurrency must be at least 1")
	}
	if appCfg.TreeFetchConcurrency < 1 {
		return errors.New("tree_fetch_concurrency must be at least 1")
	}
	if appCfg.BriefReconcileInterval < 0 {
		return errors.New("brief_reconcile_interval cannot be negative")
	}
	if appCfg.WriteRateLimit < 0 || appCfg.LoginRateLimit < 0 {
		return errors.New("rate limits cannot be negative")
	}
	if appCfg.DevLogin && coreCfg != nil && coreCfg.Env == "prod" {
		logger.Warn("dev_login is enabled in prod; any caller can sign in as any user")
	}
	return nil
}

// timeoutConfig converts the configured budgets into a timeouts.Config.
func (c AppConfig) timeoutConfig() timeouts.Config {
	return timeouts.Config{
		Ping:      c.TimeoutPing,
		Read:      c.TimeoutRead,
		Write:     c.TimeoutWrite,
		Render:    c.TimeoutRender,
		Reconcile: c.TimeoutReconcile,
	}.WithDefaults()
}
