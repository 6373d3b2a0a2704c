// internal/app/system/workers/briefreconcile.go
package workers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dalemusser/preemhub/internal/app/system/briefs"
	"github.com/dalemusser/preemhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Reconciler rebuilds every embedded brief from the live hierarchy.
type Reconciler interface {
	ReconcileAll(ctx context.Context) (briefs.RefreshResult, error)
}

// BriefReconcile is a background worker that periodically repairs briefs
// that a partial refresh left stale.
type BriefReconcile struct {
	reconciler Reconciler
	log        *zap.Logger
	interval   time.Duration
	timeout    time.Duration
	stopCh     chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

// NewBriefReconcile creates the worker.
//
// Parameters:
//   - r: the reconciler, usually a *briefs.Reconciler
//   - logger: zap logger for logging
//   - interval: how often to run a pass (e.g., 15 minutes)
//   - timeout: budget for a single pass
func NewBriefReconcile(r Reconciler, logger *zap.Logger, interval, timeout time.Duration) *BriefReconcile {
	return &BriefReconcile{
		reconciler: r,
		log:        logger,
		interval:   interval,
		timeout:    timeout,
		stopCh:     make(chan struct{}),
	}
}

// Start begins the background loop.
func (w *BriefReconcile) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("brief reconcile worker started",
		zap.Duration("interval", w.interval),
		zap.Duration("timeout", w.timeout))
}

// Stop signals the worker to stop and waits for an in-flight pass to
// finish. It is safe to call more than once.
func (w *BriefReconcile) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
	w.log.Info("brief reconcile worker stopped")
}

func (w *BriefReconcile) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			_, _ = w.RunOnce(context.Background())
		}
	}
}

// RunOnce performs a single reconcile pass within the worker's timeout.
// A stop request cancels the pass.
func (w *BriefReconcile) RunOnce(parent context.Context) (briefs.RefreshResult, error) {
	ctx, cancel := timeouts.WithTimeout(parent, w.timeout, w.log, "brief reconcile")
	defer cancel()
	go func() {
		select {
		case <-w.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	start := time.Now()
	res, err := w.reconciler.ReconcileAll(ctx)
	fields := []zap.Field{
		zap.Int("visited", res.Visited),
		zap.Int("updated", res.Updated),
		zap.Int("failed", res.Failed),
		zap.Duration("elapsed", time.Since(start)),
	}
	switch {
	case err != nil && !errors.Is(err, briefs.ErrPartialRefresh):
		w.log.Error("brief reconcile failed", append(fields, zap.Error(err))...)
	case err != nil:
		w.log.Warn("brief reconcile incomplete", append(fields, zap.Error(err))...)
	case res.Updated > 0:
		w.log.Info("brief reconcile repaired briefs", fields...)
	default:
		w.log.Debug("brief reconcile clean", fields...)
	}
	return res, err
}
