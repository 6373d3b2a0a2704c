// internal/app/store/documents/memstore.go
package documentstore

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/dalemusser/preemhub/internal/app/system/docpath"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

// Operation names passed to a Fault.
const (
	OpGet    = "get"
	OpList   = "list"
	OpSet    = "set"
	OpFind   = "find"
	OpCreate = "create"
)

// Fault lets tests fail individual operations. path is the document path
// for get/set, the parent path for list/create and the collection for find.
// A fault may also change the store, to simulate a concurrent writer.
type Fault func(op, path string) error

// MemStore is an in-memory Store used by tests and local development.
// It is safe for concurrent use.
type MemStore struct {
	mu    sync.RWMutex
	docs  map[string]bson.M
	fault Fault
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{docs: make(map[string]bson.M)}
}

// SetFault installs (or clears, with nil) a fault injector.
func (m *MemStore) SetFault(f Fault) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fault = f
}

func (m *MemStore) check(op, path string) error {
	m.mu.RLock()
	f := m.fault
	m.mu.RUnlock()
	if f == nil {
		return nil
	}
	return f(op, path)
}

// Put stores fields at path verbatim (id/path stamped from the path).
// Intended for seeding fixtures.
func (m *MemStore) Put(path string, fields bson.M) error {
	segs, err := docpath.Segments(path)
	if err != nil {
		return err
	}
	doc, err := normalize(newDocFields(fields, segs[len(segs)-1], path))
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[path] = doc
	return nil
}

// Len returns the number of stored documents.
func (m *MemStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

func (m *MemStore) Get(ctx context.Context, path string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	if err := m.check(OpGet, path); err != nil {
		return Document{}, err
	}
	m.mu.RLock()
	doc, ok := m.docs[path]
	m.mu.RUnlock()
	if !ok {
		return Document{}, &NotFoundError{Path: path}
	}
	cp, err := normalize(doc)
	if err != nil {
		return Document{}, err
	}
	return Document{Path: path, Fields: cp}, nil
}

func (m *MemStore) ListChildren(ctx context.Context, parentPath, collection string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := m.check(OpList, parentPath); err != nil {
		return nil, err
	}
	prefix, err := docpath.CollectionPath(parentPath, collection)
	if err != nil {
		return nil, err
	}
	prefix += "/"

	m.mu.RLock()
	var paths []string
	for p := range m.docs {
		if strings.HasPrefix(p, prefix) && !strings.Contains(p[len(prefix):], "/") {
			paths = append(paths, p)
		}
	}
	m.mu.RUnlock()
	sort.Strings(paths)

	docs := make([]Document, 0, len(paths))
	for _, p := range paths {
		m.mu.RLock()
		raw, ok := m.docs[p]
		m.mu.RUnlock()
		if !ok {
			continue
		}
		cp, err := normalize(raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, Document{Path: p, Fields: cp})
	}
	return docs, nil
}

func (m *MemStore) Set(ctx context.Context, path string, fields bson.M) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkSettable(fields); err != nil {
		return err
	}
	if err := m.check(OpSet, path); err != nil {
		return err
	}
	norm, err := normalize(fields)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[path]
	if !ok {
		return &NotFoundError{Path: path}
	}
	for k, v := range norm {
		setDotted(doc, k, v)
	}
	return nil
}

func (m *MemStore) SetIf(ctx context.Context, path string, match, fields bson.M) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := checkSettable(fields); err != nil {
		return false, err
	}
	if err := m.check(OpSet, path); err != nil {
		return false, err
	}
	norm, err := normalize(fields)
	if err != nil {
		return false, err
	}
	want, err := normalize(match)
	if err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[path]
	if !ok {
		return false, &NotFoundError{Path: path}
	}
	if !matches(doc, want) {
		return false, nil
	}
	for k, v := range norm {
		setDotted(doc, k, v)
	}
	return true, nil
}

func (m *MemStore) FindByField(ctx context.Context, collection, field string, value any) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := m.check(OpFind, collection); err != nil {
		return nil, err
	}
	want, err := normalize(bson.M{field: value})
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	var paths []string
	for p, doc := range m.docs {
		segs := strings.Split(p, "/")
		if len(segs) >= 2 && segs[len(segs)-2] == collection && matches(doc, want) {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	docs := make([]Document, 0, len(paths))
	for _, p := range paths {
		cp, err := normalize(m.docs[p])
		if err != nil {
			return nil, err
		}
		docs = append(docs, Document{Path: p, Fields: cp})
	}
	return docs, nil
}

func (m *MemStore) Create(ctx context.Context, parentPath, collection string, fields bson.M) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	if err := m.check(OpCreate, parentPath); err != nil {
		return Document{}, err
	}
	id := requestedID(fields)
	if id == "" {
		id = uuid.NewString()
	}
	path, err := childPath(parentPath, collection, id)
	if err != nil {
		return Document{}, err
	}
	doc, err := normalize(newDocFields(fields, id, path))
	if err != nil {
		return Document{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.docs[path]; exists {
		return Document{}, fmt.Errorf("create %s: %w", path, ErrDuplicate)
	}
	m.docs[path] = doc

	out, err := normalize(doc)
	if err != nil {
		return Document{}, err
	}
	return Document{Path: path, Fields: out}, nil
}

// normalize deep-copies fields through a bson round trip so stored values
// have the same shapes Mongo would return (embedded documents as bson.M).
func normalize(fields bson.M) (bson.M, error) {
	if fields == nil {
		return bson.M{}, nil
	}
	raw, err := bson.Marshal(fields)
	if err != nil {
		return nil, err
	}
	var out bson.M
	if err := bson.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// matches reports whether every dotted key of want holds its value in doc.
// A nil want value matches a missing field.
func matches(doc, want bson.M) bool {
	for k, v := range want {
		got, _ := getDotted(doc, k)
		if !reflect.DeepEqual(got, v) {
			return false
		}
	}
	return true
}

func getDotted(doc bson.M, key string) (any, bool) {
	parts := strings.Split(key, ".")
	cur := doc
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur[p].(bson.M)
		if !ok {
			return nil, false
		}
		cur = next
	}
	v, ok := cur[parts[len(parts)-1]]
	return v, ok
}

func setDotted(doc bson.M, key string, value any) {
	parts := strings.Split(key, ".")
	cur := doc
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur[p].(bson.M)
		if !ok {
			next = bson.M{}
			cur[p] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = value
}
