package bootstrap

import (
	"testing"
	"time"

	"github.com/dalemusser/preemhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func validAppConfig() AppConfig {
	return AppConfig{
		MongoURI:                "mongodb://localhost:27017",
		MongoDatabase:           "preemhub",
		MongoMaxPoolSize:        100,
		MongoMinPoolSize:        10,
		BriefRefreshConcurrency: 8,
		TreeFetchConcurrency:    8,
		BriefReconcileInterval:  15 * time.Minute,
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr bool
	}{
		{"valid", func(*AppConfig) {}, false},
		{"empty uri", func(c *AppConfig) { c.MongoURI = "" }, true},
		{"empty database", func(c *AppConfig) { c.MongoDatabase = "" }, true},
		{"min above max pool", func(c *AppConfig) { c.MongoMinPoolSize = 200 }, true},
		{"zero refresh concurrency", func(c *AppConfig) { c.BriefRefreshConcurrency = 0 }, true},
		{"zero tree concurrency", func(c *AppConfig) { c.TreeFetchConcurrency = 0 }, true},
		{"negative reconcile interval", func(c *AppConfig) { c.BriefReconcileInterval = -time.Second }, true},
		{"negative write limit", func(c *AppConfig) { c.WriteRateLimit = -1 }, true},
		{"reconcile disabled", func(c *AppConfig) { c.BriefReconcileInterval = 0 }, false},
		{"dev login", func(c *AppConfig) { c.DevLogin = true }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validAppConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(&config.CoreConfig{Env: "dev"}, cfg, zap.NewNop())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTimeoutConfig_FillsDefaults(t *testing.T) {
	cfg := AppConfig{TimeoutWrite: 45 * time.Second}
	to := cfg.timeoutConfig()

	assert.Equal(t, 45*time.Second, to.Write)
	assert.Equal(t, timeouts.DefaultPing, to.Ping)
	assert.Equal(t, timeouts.DefaultRead, to.Read)
	assert.Equal(t, timeouts.DefaultRender, to.Render)
	assert.Equal(t, timeouts.DefaultReconcile, to.Reconcile)
}
