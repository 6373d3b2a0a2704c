// Package tree assembles a document and its descendants into a tree for
// page rendering.
//
// Levels are fetched one after another; the child collections of every node
// in a level are fetched concurrently. Any failed fetch fails the whole
// assembly and no partial tree is returned.
package tree

import (
	"context"
	"errors"
	"fmt"
	"time"

	documentstore "github.com/dalemusser/preemhub/internal/app/store/documents"
	"github.com/dalemusser/preemhub/internal/app/system/docpath"
	"github.com/dalemusser/preemhub/internal/app/system/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds concurrent child-collection fetches per level.
const DefaultConcurrency = 16

// ErrAssembly is matched by every *AssemblyError.
var ErrAssembly = errors.New("tree assembly failed")

// AssemblyError reports the fetch that aborted an assembly.
type AssemblyError struct {
	Path  string // document or collection path whose fetch failed
	Depth int    // hierarchy depth being fetched
	Err   error
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("assemble tree: depth %d at %s: %v", e.Depth, e.Path, e.Err)
}

func (e *AssemblyError) Unwrap() error { return e.Err }

func (e *AssemblyError) Is(target error) bool { return target == ErrAssembly }

// Node is one document and its fetched children. Children is nil for the
// deepest fetched level and empty (non-nil) for fetched but empty
// collections.
type Node struct {
	Doc      documentstore.Document
	Kind     docpath.Kind
	Children []*Node
}

// Path returns the node's canonical path.
func (n *Node) Path() string { return n.Doc.Path }

// Decode unmarshals the node's document into v.
func (n *Node) Decode(v any) error { return n.Doc.Decode(v) }

// Assembler builds trees from a document store.
type Assembler struct {
	store documentstore.Store
	log   *zap.Logger
	limit int
}

// New creates an Assembler. limit bounds concurrent fetches per level
// (DefaultConcurrency when <= 0).
func New(store documentstore.Store, logger *zap.Logger, limit int) *Assembler {
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	return &Assembler{store: store, log: logger, limit: limit}
}

// Assemble fetches rootPath and depth levels below it. depth is clamped to
// the levels that exist under the root's kind.
//
// A missing root returns the store's *documentstore.NotFoundError. Any other
// failure is an *AssemblyError.
func (a *Assembler) Assemble(ctx context.Context, rootPath string, depth int) (*Node, error) {
	start := time.Now()
	if err := docpath.Validate(rootPath); err != nil {
		return nil, err
	}
	kind := docpath.KindOf(rootPath)

	root, err := a.assemble(ctx, rootPath, kind, depth)
	if err != nil && !errors.Is(err, documentstore.ErrNotFound) {
		metrics.TreeAssemblyErrors.WithLabelValues(kind.String()).Inc()
		a.log.Error("tree assembly failed",
			zap.String("root", rootPath),
			zap.Int("depth", depth),
			zap.Error(err))
		return nil, err
	}
	metrics.TreeAssemblyDuration.WithLabelValues(kind.String()).Observe(time.Since(start).Seconds())
	return root, err
}

func (a *Assembler) assemble(ctx context.Context, rootPath string, kind docpath.Kind, depth int) (*Node, error) {
	doc, err := a.store.Get(ctx, rootPath)
	if err != nil {
		if errors.Is(err, documentstore.ErrNotFound) {
			return nil, err
		}
		return nil, &AssemblyError{Path: rootPath, Depth: kind.Depth(), Err: err}
	}
	root := &Node{Doc: doc, Kind: kind}

	levels := clampDepth(kind, depth)
	frontier := []*Node{root}
	for l := 1; l <= levels && len(frontier) > 0; l++ {
		next, err := a.fetchLevel(ctx, frontier, kind.Depth()+l)
		if err != nil {
			return nil, err
		}
		frontier = next
	}
	return root, nil
}

// fetchLevel fills Children for every node of frontier and returns the new
// frontier. Each goroutine writes only its own node.
func (a *Assembler) fetchLevel(ctx context.Context, frontier []*Node, depth int) ([]*Node, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.limit)
	for _, n := range frontier {
		coll, ok := n.Kind.ChildCollection()
		if !ok {
			continue
		}
		g.Go(func() error {
			docs, err := a.store.ListChildren(gctx, n.Path(), coll)
			if err != nil {
				return &AssemblyError{Path: n.Path() + "/" + coll, Depth: depth, Err: err}
			}
			childKind := docpath.KindAtDepth(depth)
			n.Children = make([]*Node, 0, len(docs))
			for _, d := range docs {
				n.Children = append(n.Children, &Node{Doc: d, Kind: childKind})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var next []*Node
	for _, n := range frontier {
		next = append(next, n.Children...)
	}
	return next, nil
}

func clampDepth(kind docpath.Kind, depth int) int {
	if depth < 0 {
		return 0
	}
	if _, ok := kind.ChildCollection(); !ok {
		return 0
	}
	if most := docpath.MaxDepth - kind.Depth(); depth > most {
		return most
	}
	return depth
}
