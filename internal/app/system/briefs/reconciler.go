package briefs

import (
	"context"
	"errors"
	"fmt"

	documentstore "github.com/dalemusser/preemhub/internal/app/store/documents"
	"github.com/dalemusser/preemhub/internal/app/system/docpath"
	"github.com/dalemusser/preemhub/internal/app/system/metrics"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// Reconciler repairs embedded briefs that are missing or no longer match
// their live ancestors, such as a contribution created with an old name
// while a rename was propagating.
type Reconciler struct {
	store       documentstore.Store
	log         *zap.Logger
	concurrency int
}

// NewReconciler creates a Reconciler.
func NewReconciler(store documentstore.Store, logger *zap.Logger, concurrency int) *Reconciler {
	return &Reconciler{store: store, log: logger, concurrency: concurrency}
}

// Reconcile walks the subtree at rootPath top-down. Every document's parent
// brief is rebuilt from its parent's already reconciled state and written
// only when the stored copy is absent or differs. rootPath's own parent
// brief is checked against its live ancestors first.
func (r *Reconciler) Reconcile(ctx context.Context, rootPath string) (RefreshResult, error) {
	kind := docpath.KindOf(rootPath)
	if Key(kind) == "" {
		if err := docpath.Validate(rootPath); err != nil {
			return RefreshResult{}, err
		}
		return RefreshResult{}, &docpath.InvalidPathError{Path: rootPath, Reason: kind.String() + " has no descendants to reconcile"}
	}

	w := newWalker(r.store, r.concurrency)
	root, err := r.rootNode(ctx, w, rootPath, kind)
	if err != nil {
		return RefreshResult{}, err
	}

	w.run(ctx, root, func(ctx context.Context, parent node, child documentstore.Document) (bool, *node, error) {
		ck := docpath.KindOf(child.Path)
		wrote, err := r.ensure(ctx, child, parent.kind, parent.brief)
		self, berr := buildSelf(ck, child, parent.brief)
		if berr != nil {
			return wrote, nil, errors.Join(err, berr)
		}
		return wrote, &node{path: child.Path, kind: ck, brief: self}, err
	})

	res, err := w.result(rootPath)
	metrics.BriefWrites.WithLabelValues("reconcile", "ok").Add(float64(res.Updated))
	metrics.BriefWrites.WithLabelValues("reconcile", "failed").Add(float64(res.Failed))
	if err != nil {
		r.log.Warn("brief reconcile partially failed",
			zap.String("root", rootPath),
			zap.Int("visited", res.Visited),
			zap.Int("updated", res.Updated),
			zap.Int("failed", res.Failed),
			zap.Error(err))
	} else if res.Updated > 0 {
		r.log.Info("brief reconcile repaired briefs",
			zap.String("root", rootPath),
			zap.Int("visited", res.Visited),
			zap.Int("updated", res.Updated))
	}
	return res, err
}

// ReconcileAll reconciles every organization.
func (r *Reconciler) ReconcileAll(ctx context.Context) (RefreshResult, error) {
	orgs, err := r.store.ListChildren(ctx, docpath.Root, docpath.Organizations)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("list organizations: %w", err)
	}

	var (
		total RefreshResult
		errs  []error
	)
	for _, org := range orgs {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		res, err := r.Reconcile(ctx, org.Path)
		total.Visited += res.Visited
		total.Updated += res.Updated
		total.Failed += res.Failed
		if err != nil {
			errs = append(errs, err)
		}
	}
	return total, errors.Join(errs...)
}

// rootNode loads rootPath, repairs its own parent brief and returns it as
// the starting node of the walk.
func (r *Reconciler) rootNode(ctx context.Context, w *walker, rootPath string, kind docpath.Kind) (node, error) {
	doc, err := r.store.Get(ctx, rootPath)
	if err != nil {
		return node{}, err
	}

	var parentBrief any
	if kind != docpath.KindOrganization {
		parentPath, err := docpath.Parent(rootPath)
		if err != nil {
			return node{}, err
		}
		chain, err := ResolveChain(ctx, r.store, parentPath)
		if err != nil {
			return node{}, fmt.Errorf("resolve ancestors of %s: %w", rootPath, err)
		}
		parentKind := docpath.KindOf(parentPath)
		parentBrief = chain.brief(parentKind)

		wrote, err := r.ensure(ctx, doc, parentKind, parentBrief)
		w.res.Visited++
		if err != nil {
			w.fail(rootPath, err)
		} else if wrote {
			w.res.Updated++
		}
	}

	self, err := buildSelf(kind, doc, parentBrief)
	if err != nil {
		return node{}, err
	}
	return node{path: rootPath, kind: kind, brief: self}, nil
}

// ensure writes want as doc's brief of its parent (of kind parentKind)
// unless an equal copy is already stored.
func (r *Reconciler) ensure(ctx context.Context, doc documentstore.Document, parentKind docpath.Kind, want any) (bool, error) {
	key := Key(parentKind)
	if want == nil || key == "" || storedBriefMatches(doc, key, parentKind, want) {
		return false, nil
	}
	fields, err := documentstore.ToFields(want)
	if err != nil {
		return false, err
	}
	if err := r.store.Set(ctx, doc.Path, bson.M{key: fields}); err != nil {
		return false, err
	}
	return true, nil
}

func (c Chain) brief(k docpath.Kind) any {
	switch k {
	case docpath.KindOrganization:
		return c.Organization
	case docpath.KindSeries:
		return c.Series
	case docpath.KindEvent:
		return c.Event
	case docpath.KindRace:
		return c.Race
	case docpath.KindPreem:
		return c.Preem
	}
	return nil
}
