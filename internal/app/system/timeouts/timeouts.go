// Package timeouts holds the deadlines handlers and workers put on store
// I/O.
//
// A Config is built once from app configuration and injected; nothing here
// is global. Pick a budget by the shape of the work:
//   - Ping: health checks
//   - Read: single-document reads and typed gets
//   - Write: creates, updates and ledger operations, including the brief
//     refresh an update triggers
//   - Render: tree assembly for a page
//   - Reconcile: one full background brief reconcile pass
package timeouts

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Defaults used for zero fields.
const (
	DefaultPing      = 2 * time.Second
	DefaultRead      = 5 * time.Second
	DefaultWrite     = 30 * time.Second
	DefaultRender    = 10 * time.Second
	DefaultReconcile = 5 * time.Minute
)

// Config holds the budgets. Zero fields fall back to the defaults.
type Config struct {
	Ping      time.Duration
	Read      time.Duration
	Write     time.Duration
	Render    time.Duration
	Reconcile time.Duration
}

// Defaults returns a Config with every default set.
func Defaults() Config {
	return Config{}.WithDefaults()
}

// WithDefaults fills zero or negative fields.
func (c Config) WithDefaults() Config {
	if c.Ping <= 0 {
		c.Ping = DefaultPing
	}
	if c.Read <= 0 {
		c.Read = DefaultRead
	}
	if c.Write <= 0 {
		c.Write = DefaultWrite
	}
	if c.Render <= 0 {
		c.Render = DefaultRender
	}
	if c.Reconcile <= 0 {
		c.Reconcile = DefaultReconcile
	}
	return c
}

// Fields renders the config for a startup log line.
func (c Config) Fields() []zap.Field {
	return []zap.Field{
		zap.Duration("timeout_ping", c.Ping),
		zap.Duration("timeout_read", c.Read),
		zap.Duration("timeout_write", c.Write),
		zap.Duration("timeout_render", c.Render),
		zap.Duration("timeout_reconcile", c.Reconcile),
	}
}

// WithTimeout derives a context with timeout. The returned cancel logs a
// warning when the deadline, not the caller, ended the operation.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), h.Timeouts.Write, h.Log, "update series")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
