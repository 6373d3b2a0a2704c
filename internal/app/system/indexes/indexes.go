// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"fmt"
	"strings"
	"time"

	documentstore "github.com/dalemusser/preemhub/internal/app/store/documents"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	if err := ensureDocuments(ctx, db, logger); err != nil {
		return fmt.Errorf("%s: %w", documentstore.CollectionName, err)
	}
	return nil
}

// DocumentIndexes lists the desired index names on the documents
// collection.
func DocumentIndexes() []string {
	names := make([]string, 0, len(documentModels()))
	for _, m := range documentModels() {
		names = append(names, *m.Options.Name)
	}
	return names
}

func documentModels() []mongo.IndexModel {
	return []mongo.IndexModel{
		// ListChildren: one collection under one parent, ordered by path.
		{
			Keys: bson.D{
				{Key: "_parent", Value: 1},
				{Key: "_collection", Value: 1},
				{Key: "_id", Value: 1},
			},
			Options: options.Index().SetName("idx_documents_parent_collection__id"),
		},
		// Name-sorted listings across one kind.
		{
			Keys: bson.D{
				{Key: "_collection", Value: 1},
				{Key: "name_ci", Value: 1},
				{Key: "_id", Value: 1},
			},
			Options: options.Index().SetName("idx_documents_collection_nameci__id"),
		},
		// Organizations a user manages.
		{
			Keys: bson.D{
				{Key: "_collection", Value: 1},
				{Key: "member_ids", Value: 1},
			},
			Options: options.Index().SetName("idx_documents_collection_members"),
		},
		// Preem counts by status.
		{
			Keys: bson.D{
				{Key: "_collection", Value: 1},
				{Key: "status", Value: 1},
			},
			Options: options.Index().SetName("idx_documents_collection_status"),
		},
		// Contributions of a user, for contributor brief refreshes.
		{
			Keys: bson.D{
				{Key: "_collection", Value: 1},
				{Key: "contributor.id", Value: 1},
			},
			Options: options.Index().SetName("idx_documents_collection_contributor"),
		},
	}
}

func ensureDocuments(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	return ensureIndexSet(ctx, db.Collection(documentstore.CollectionName), documentModels(), logger)
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	return (a != nil && *a) == (b != nil && *b)
}

func listExisting(ctx context.Context, coll *mongo.Collection, logger *zap.Logger) map[string]existingIndex {
	existing := map[string]existingIndex{} // sig -> index
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return existing
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			logger.Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing
}

// ensureIndexSet creates each desired index, reusing an existing index with
// the same keys and options, and dropping and recreating one whose name or
// options differ.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel, logger *zap.Logger) error {
	var errs error
	existing := listExisting(ctx, coll, logger)

	for _, m := range models {
		var desiredName string
		var desiredUnique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			desiredUnique = m.Options.Unique
		}
		desiredSig := keySig(m.Keys.(bson.D))
		start := time.Now()
		log := logger.With(
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", desiredSig))

		if ex, ok := existing[desiredSig]; ok {
			if sameBoolPtr(desiredUnique, ex.Unique) && (desiredName == "" || ex.Name == desiredName) {
				log.Debug("reusing existing index")
				continue
			}
			log.Info("replacing index", zap.String("existing", ex.Name))
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				log.Warn("drop existing index failed", zap.Error(err))
				errs = multierr.Append(errs, fmt.Errorf("%s: drop %s: %w", coll.Name(), ex.Name, err))
				continue
			}
		}

		created, err := coll.Indexes().CreateOne(ctx, m)
		if err != nil {
			log.Warn("index ensure failed", zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("%s: create %s: %w", coll.Name(), desiredName, err))
			continue
		}
		log.Info("index ensured",
			zap.String("created_name", created),
			zap.Duration("took", time.Since(start)))
	}

	return errs
}
