package tree_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	documentstore "github.com/dalemusser/preemhub/internal/app/store/documents"
	"github.com/dalemusser/preemhub/internal/app/system/docpath"
	"github.com/dalemusser/preemhub/internal/app/system/tree"
	"github.com/dalemusser/preemhub/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// seed builds org o with series s1..s3; s1 has events e1,e2; e1 has race r
// with preem p and two contributions. Every other collection is empty.
func seed(t *testing.T) *documentstore.MemStore {
	t.Helper()
	store := documentstore.NewMemStore()
	paths := []string{
		"organizations/o",
		"organizations/o/series/s1",
		"organizations/o/series/s2",
		"organizations/o/series/s3",
		"organizations/o/series/s1/events/e1",
		"organizations/o/series/s1/events/e2",
		"organizations/o/series/s1/events/e1/races/r",
		"organizations/o/series/s1/events/e1/races/r/preems/p",
		"organizations/o/series/s1/events/e1/races/r/preems/p/contributions/c1",
		"organizations/o/series/s1/events/e1/races/r/preems/p/contributions/c2",
	}
	for _, p := range paths {
		require.NoError(t, store.Put(p, bson.M{"name": docpath.IDOf(p)}))
	}
	return store
}

func count(n *tree.Node) int {
	total := 1
	for _, c := range n.Children {
		total += count(c)
	}
	return total
}

func TestAssemble_FullTree(t *testing.T) {
	a := tree.New(seed(t), zap.NewNop(), 4)

	root, err := a.Assemble(context.Background(), "organizations/o", 5)
	require.NoError(t, err)
	assert.Equal(t, 10, count(root))
	assert.Equal(t, docpath.KindOrganization, root.Kind)

	require.Len(t, root.Children, 3)
	s1 := root.Children[0]
	assert.Equal(t, "organizations/o/series/s1", s1.Path())
	assert.Equal(t, docpath.KindSeries, s1.Kind)
	require.Len(t, s1.Children, 2)

	e2 := s1.Children[1]
	assert.NotNil(t, e2.Children, "fetched empty collections are empty, not nil")
	assert.Empty(t, e2.Children)

	var org models.Organization
	require.NoError(t, root.Decode(&org))
	assert.Equal(t, "o", org.Name)

	c := s1.Children[0].Children[0].Children[0].Children
	require.Len(t, c, 2)
	assert.Equal(t, docpath.KindContribution, c[0].Kind)
	assert.Nil(t, c[0].Children)
}

func TestAssemble_DepthLimitsLevels(t *testing.T) {
	a := tree.New(seed(t), zap.NewNop(), 0)

	root, err := a.Assemble(context.Background(), "organizations/o", 1)
	require.NoError(t, err)
	assert.Equal(t, 4, count(root))
	for _, s := range root.Children {
		assert.Nil(t, s.Children)
	}

	root, err = a.Assemble(context.Background(), "organizations/o", 0)
	require.NoError(t, err)
	assert.Nil(t, root.Children)
}

func TestAssemble_DepthClamped(t *testing.T) {
	a := tree.New(seed(t), zap.NewNop(), 0)

	root, err := a.Assemble(context.Background(), "organizations/o/series/s1/events/e1/races/r/preems/p", 10)
	require.NoError(t, err)
	require.Len(t, root.Children, 2)

	leaf, err := a.Assemble(context.Background(), "organizations/o/series/s1/events/e1/races/r/preems/p/contributions/c1", 3)
	require.NoError(t, err)
	assert.Nil(t, leaf.Children)
}

func TestAssemble_MissingRoot(t *testing.T) {
	a := tree.New(seed(t), zap.NewNop(), 0)

	root, err := a.Assemble(context.Background(), "organizations/nope", 2)
	assert.Nil(t, root)
	assert.ErrorIs(t, err, documentstore.ErrNotFound)
	assert.NotErrorIs(t, err, tree.ErrAssembly)
}

func TestAssemble_InvalidPath(t *testing.T) {
	a := tree.New(seed(t), zap.NewNop(), 0)

	_, err := a.Assemble(context.Background(), "organizations/o/races/r", 1)
	assert.ErrorIs(t, err, docpath.ErrInvalidPath)
}

func TestAssemble_LevelFailureIsAtomic(t *testing.T) {
	for _, failing := range []string{
		"organizations/o",
		"organizations/o/series/s2",
		"organizations/o/series/s1/events/e1/races/r/preems/p",
	} {
		t.Run(failing, func(t *testing.T) {
			store := seed(t)
			boom := errors.New("read timeout")
			store.SetFault(func(op, path string) error {
				if op == documentstore.OpList && path == failing {
					return boom
				}
				return nil
			})

			root, err := tree.New(store, zap.NewNop(), 2).Assemble(context.Background(), "organizations/o", 5)
			assert.Nil(t, root, "no partial tree")
			assert.ErrorIs(t, err, tree.ErrAssembly)
			assert.ErrorIs(t, err, boom)

			var ae *tree.AssemblyError
			require.True(t, errors.As(err, &ae))
			assert.Equal(t, docpath.Depth(failing)+1, ae.Depth)
		})
	}
}

func TestAssemble_RootReadFailure(t *testing.T) {
	store := seed(t)
	store.SetFault(func(op, path string) error {
		if op == documentstore.OpGet {
			return errors.New("connection reset")
		}
		return nil
	})

	_, err := tree.New(store, zap.NewNop(), 0).Assemble(context.Background(), "organizations/o", 1)
	var ae *tree.AssemblyError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "organizations/o", ae.Path)
	assert.Equal(t, 1, ae.Depth)
}

func TestAssemble_SiblingsFetchedConcurrently(t *testing.T) {
	store := seed(t)

	// The three series' event lists only succeed once all three are in
	// flight together.
	var (
		mu      sync.Mutex
		waiting int
		ready   = make(chan struct{})
	)
	store.SetFault(func(op, path string) error {
		if op != documentstore.OpList || docpath.KindOf(path) != docpath.KindSeries {
			return nil
		}
		mu.Lock()
		waiting++
		if waiting == 3 {
			close(ready)
		}
		mu.Unlock()
		select {
		case <-ready:
			return nil
		case <-time.After(2 * time.Second):
			return fmt.Errorf("sibling fetches for %s were not concurrent", path)
		}
	})

	root, err := tree.New(store, zap.NewNop(), 8).Assemble(context.Background(), "organizations/o", 2)
	require.NoError(t, err)
	assert.Equal(t, 6, count(root))
}
