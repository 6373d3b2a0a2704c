package briefs

import (
	"context"
	"sync"

	documentstore "github.com/dalemusser/preemhub/internal/app/store/documents"
	"github.com/dalemusser/preemhub/internal/app/system/docpath"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds in-flight store calls per level.
const DefaultConcurrency = 8

type node struct {
	path  string
	kind  docpath.Kind
	brief any // brief of this node as its children should embed it
}

// visitFunc handles one child of parent. It reports whether it wrote the
// child and returns the node to descend into (nil to prune).
type visitFunc func(ctx context.Context, parent node, child documentstore.Document) (wrote bool, next *node, err error)

type pair struct {
	parent node
	child  documentstore.Document
}

// walker visits a subtree level by level. Within a level every listing and
// every visit runs independently: a failure is recorded and its siblings
// carry on.
type walker struct {
	store documentstore.Store
	limit int

	mu     sync.Mutex
	res    RefreshResult
	failed []string
	errs   error
}

func newWalker(store documentstore.Store, limit int) *walker {
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	return &walker{store: store, limit: limit}
}

func (w *walker) fail(path string, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.res.Failed++
	w.failed = append(w.failed, path)
	w.errs = multierr.Append(w.errs, err)
}

func (w *walker) run(ctx context.Context, root node, visit visitFunc) {
	frontier := []node{root}
	for len(frontier) > 0 {
		pairs := w.list(ctx, frontier)
		frontier = w.visit(ctx, pairs, visit)
	}
}

func (w *walker) list(ctx context.Context, frontier []node) []pair {
	var (
		mu    sync.Mutex
		pairs []pair
		g     errgroup.Group
	)
	g.SetLimit(w.limit)
	for _, n := range frontier {
		coll, ok := n.kind.ChildCollection()
		if !ok {
			continue
		}
		g.Go(func() error {
			children, err := w.store.ListChildren(ctx, n.path, coll)
			if err != nil {
				w.fail(n.path+"/"+coll, err)
				return nil
			}
			mu.Lock()
			for _, c := range children {
				pairs = append(pairs, pair{parent: n, child: c})
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return pairs
}

func (w *walker) visit(ctx context.Context, pairs []pair, visit visitFunc) []node {
	var (
		mu   sync.Mutex
		next []node
		g    errgroup.Group
	)
	g.SetLimit(w.limit)
	for _, p := range pairs {
		g.Go(func() error {
			wrote, n, err := visit(ctx, p.parent, p.child)

			w.mu.Lock()
			w.res.Visited++
			if wrote && err == nil {
				w.res.Updated++
			}
			w.mu.Unlock()

			if err != nil {
				w.fail(p.child.Path, err)
			}
			if n != nil {
				mu.Lock()
				next = append(next, *n)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return next
}

// result returns the counts and, when anything failed, a
// *PartialRefreshError for rootPath.
func (w *walker) result(rootPath string) (RefreshResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.errs == nil {
		return w.res, nil
	}
	return w.res, &PartialRefreshError{Path: rootPath, Failed: w.failed, Err: w.errs}
}
