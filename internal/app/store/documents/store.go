// internal/app/store/documents/store.go
package documentstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/preemhub/internal/app/system/docpath"
	"go.mongodb.org/mongo-driver/bson"
)

// Store is the narrow document-store contract the rest of the app is
// written against. Documents are addressed by canonical path.
type Store interface {
	// Get returns the document at path, or a *NotFoundError.
	Get(ctx context.Context, path string) (Document, error)

	// ListChildren returns the documents of one collection directly under
	// parentPath, ordered by path. A missing collection is an empty slice.
	ListChildren(ctx context.Context, parentPath, collection string) ([]Document, error)

	// Set merges fields into the existing document at path. Keys may be
	// dotted to reach into embedded documents. Returns *NotFoundError when
	// the document does not exist.
	Set(ctx context.Context, path string, fields bson.M) error

	// SetIf merges fields like Set, but only while every key of match
	// (dotted keys allowed) still holds the given value; a nil value matches
	// a missing field. It reports whether the write was applied.
	SetIf(ctx context.Context, path string, match, fields bson.M) (bool, error)

	// FindByField returns the documents of collection, under any parent,
	// whose field (dotted keys allowed) equals value, ordered by path.
	FindByField(ctx context.Context, collection, field string, value any) ([]Document, error)

	// Create inserts a document into parentPath/collection. A string "id"
	// field is used as the document id when present (idempotency key);
	// otherwise a new id is assigned. Returns ErrDuplicate if the id is taken.
	Create(ctx context.Context, parentPath, collection string, fields bson.M) (Document, error)
}

var (
	ErrNotFound      = errors.New("document not found")
	ErrDuplicate     = errors.New("document already exists")
	ErrReservedField = errors.New("reserved field cannot be set")
)

// NotFoundError names the missing document.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string { return "document not found: " + e.Path }

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// Document is an opaque stored document.
type Document struct {
	Path   string
	Fields bson.M
}

// ID returns the trailing id segment of the document's path.
func (d Document) ID() string { return docpath.IDOf(d.Path) }

// Decode unmarshals the document's fields into v (a bson-tagged struct).
func (d Document) Decode(v any) error {
	raw, err := bson.Marshal(d.Fields)
	if err != nil {
		return fmt.Errorf("encode %s: %w", d.Path, err)
	}
	if err := bson.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", d.Path, err)
	}
	return nil
}

// Bookkeeping keys stored alongside the caller's fields.
const (
	keyID         = "_id"
	keyParent     = "_parent"
	keyCollection = "_collection"
)

// FieldID and FieldPath are written by Create and never change.
const (
	FieldID   = "id"
	FieldPath = "path"
)

func checkSettable(fields bson.M) error {
	for k := range fields {
		switch k {
		case keyID, keyParent, keyCollection, FieldID, FieldPath:
			return fmt.Errorf("%w: %s", ErrReservedField, k)
		}
	}
	return nil
}

// newDocFields copies caller fields and stamps id/path.
func newDocFields(fields bson.M, id, path string) bson.M {
	out := make(bson.M, len(fields)+2)
	for k, v := range fields {
		out[k] = v
	}
	out[FieldID] = id
	out[FieldPath] = path
	return out
}

func requestedID(fields bson.M) string {
	if id, ok := fields[FieldID].(string); ok {
		return id
	}
	return ""
}

func childPath(parentPath, collection, id string) (string, error) {
	if parentPath == docpath.Root {
		return docpath.Join(collection, id)
	}
	return docpath.Child(parentPath, collection, id)
}

// ToFields converts a bson-tagged struct into a field map suitable for
// Create or Set.
func ToFields(v any) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
