package briefs

import (
	"context"
	"errors"

	documentstore "github.com/dalemusser/preemhub/internal/app/store/documents"
	"github.com/dalemusser/preemhub/internal/app/system/docpath"
	"github.com/dalemusser/preemhub/internal/app/system/metrics"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// Propagator rewrites descendants' embedded briefs after an ancestor edit.
type Propagator struct {
	store       documentstore.Store
	log         *zap.Logger
	concurrency int
}

// NewPropagator creates a Propagator. concurrency bounds the store calls in
// flight per level (DefaultConcurrency when <= 0).
func NewPropagator(store documentstore.Store, logger *zap.Logger, concurrency int) *Propagator {
	return &Propagator{store: store, log: logger, concurrency: concurrency}
}

// RefreshDescendantBriefs copies the display fields in changed into the
// brief of ancestorPath embedded in every descendant. Only the matching
// dotted brief keys are written; every other descendant field is left
// alone. Fields that never appear in briefs are ignored.
//
// Each descendant is written independently. When some writes fail the
// returned error is a *PartialRefreshError and the counts still describe
// the writes that succeeded.
func (p *Propagator) RefreshDescendantBriefs(ctx context.Context, ancestorPath string, changed bson.M) (RefreshResult, error) {
	if err := docpath.Validate(ancestorPath); err != nil {
		return RefreshResult{}, err
	}
	ancestor := docpath.KindOf(ancestorPath)
	fields := FilterDisplay(ancestor, changed)
	if len(fields) == 0 {
		return RefreshResult{}, nil
	}

	w := newWalker(p.store, p.concurrency)
	w.run(ctx, node{path: ancestorPath, kind: ancestor}, func(ctx context.Context, _ node, child documentstore.Document) (bool, *node, error) {
		kind := docpath.KindOf(child.Path)
		prefix := Prefix(ancestor, kind)
		update := make(bson.M, len(fields))
		for f, v := range fields {
			update[prefix+"."+f] = v
		}
		err := p.store.Set(ctx, child.Path, update)
		return true, &node{path: child.Path, kind: kind}, err
	})

	res, err := w.result(ancestorPath)
	metrics.BriefWrites.WithLabelValues("refresh", "ok").Add(float64(res.Updated))
	metrics.BriefWrites.WithLabelValues("refresh", "failed").Add(float64(res.Failed))

	var pre *PartialRefreshError
	if errors.As(err, &pre) {
		p.log.Warn("brief refresh partially failed",
			zap.String("ancestor", ancestorPath),
			zap.Int("updated", res.Updated),
			zap.Int("failed", res.Failed),
			zap.Strings("failed_paths", pre.Failed),
			zap.Error(pre.Err))
	} else {
		p.log.Debug("brief refresh complete",
			zap.String("ancestor", ancestorPath),
			zap.Int("updated", res.Updated))
	}
	return res, err
}
