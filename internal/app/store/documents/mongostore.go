// internal/app/store/documents/mongostore.go
package documentstore

import (
	"context"
	"errors"
	"fmt"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the single Mongo collection holding every document of
// the hierarchy, keyed by canonical path.
const CollectionName = "documents"

// MongoStore implements Store on MongoDB.
type MongoStore struct {
	c *mongo.Collection
}

// NewMongo creates a Mongo-backed document store.
func NewMongo(db *mongo.Database) *MongoStore {
	return &MongoStore{c: db.Collection(CollectionName)}
}

func (s *MongoStore) Get(ctx context.Context, path string) (Document, error) {
	var m bson.M
	err := s.c.FindOne(ctx, bson.M{keyID: path}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Document{}, &NotFoundError{Path: path}
	}
	if err != nil {
		return Document{}, fmt.Errorf("get %s: %w", path, err)
	}
	return fromStored(path, m), nil
}

func (s *MongoStore) ListChildren(ctx context.Context, parentPath, collection string) ([]Document, error) {
	filter := bson.M{keyParent: parentPath, keyCollection: collection}
	opts := options.Find().SetSort(bson.D{{Key: keyID, Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list %s/%s: %w", parentPath, collection, err)
	}
	defer cur.Close(ctx)

	var docs []Document
	for cur.Next(ctx) {
		var m bson.M
		if err := cur.Decode(&m); err != nil {
			return nil, fmt.Errorf("list %s/%s: %w", parentPath, collection, err)
		}
		path, _ := m[keyID].(string)
		docs = append(docs, fromStored(path, m))
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list %s/%s: %w", parentPath, collection, err)
	}
	return docs, nil
}

func (s *MongoStore) Set(ctx context.Context, path string, fields bson.M) error {
	if err := checkSettable(fields); err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}
	res, err := s.c.UpdateOne(ctx, bson.M{keyID: path}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	if res.MatchedCount == 0 {
		return &NotFoundError{Path: path}
	}
	return nil
}

func (s *MongoStore) SetIf(ctx context.Context, path string, match, fields bson.M) (bool, error) {
	if err := checkSettable(fields); err != nil {
		return false, err
	}
	filter := bson.M{keyID: path}
	for k, v := range match {
		filter[k] = v
	}
	res, err := s.c.UpdateOne(ctx, filter, bson.M{"$set": fields})
	if err != nil {
		return false, fmt.Errorf("set %s: %w", path, err)
	}
	if res.MatchedCount > 0 {
		return true, nil
	}
	n, err := s.c.CountDocuments(ctx, bson.M{keyID: path})
	if err != nil {
		return false, fmt.Errorf("set %s: %w", path, err)
	}
	if n == 0 {
		return false, &NotFoundError{Path: path}
	}
	return false, nil
}

func (s *MongoStore) FindByField(ctx context.Context, collection, field string, value any) ([]Document, error) {
	filter := bson.M{keyCollection: collection, field: value}
	opts := options.Find().SetSort(bson.D{{Key: keyID, Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find %s by %s: %w", collection, field, err)
	}
	defer cur.Close(ctx)

	var docs []Document
	for cur.Next(ctx) {
		var m bson.M
		if err := cur.Decode(&m); err != nil {
			return nil, fmt.Errorf("find %s by %s: %w", collection, field, err)
		}
		path, _ := m[keyID].(string)
		docs = append(docs, fromStored(path, m))
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("find %s by %s: %w", collection, field, err)
	}
	return docs, nil
}

func (s *MongoStore) Create(ctx context.Context, parentPath, collection string, fields bson.M) (Document, error) {
	id := requestedID(fields)
	if id == "" {
		id = uuid.NewString()
	}
	path, err := childPath(parentPath, collection, id)
	if err != nil {
		return Document{}, err
	}

	doc := newDocFields(fields, id, path)
	stored := make(bson.M, len(doc)+3)
	for k, v := range doc {
		stored[k] = v
	}
	stored[keyID] = path
	stored[keyParent] = parentPath
	stored[keyCollection] = collection

	if _, err := s.c.InsertOne(ctx, stored); err != nil {
		if wafflemongo.IsDup(err) {
			return Document{}, fmt.Errorf("create %s: %w", path, ErrDuplicate)
		}
		return Document{}, fmt.Errorf("create %s: %w", path, err)
	}
	return Document{Path: path, Fields: doc}, nil
}

// fromStored strips bookkeeping keys.
func fromStored(path string, m bson.M) Document {
	delete(m, keyID)
	delete(m, keyParent)
	delete(m, keyCollection)
	return Document{Path: path, Fields: m}
}
