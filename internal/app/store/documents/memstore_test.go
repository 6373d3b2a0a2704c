package documentstore_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	documentstore "github.com/dalemusser/preemhub/internal/app/store/documents"
	"github.com/dalemusser/preemhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
)

func TestMemStore_CreateAndGet(t *testing.T) {
	store := documentstore.NewMemStore()
	ctx := context.Background()

	org, err := store.Create(ctx, "", "organizations", bson.M{"name": "Super Sprinkles"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if org.ID() == "" {
		t.Fatal("expected generated id")
	}
	if org.Path != "organizations/"+org.ID() {
		t.Errorf("Path: got %q", org.Path)
	}
	if org.Fields["id"] != org.ID() || org.Fields["path"] != org.Path {
		t.Errorf("id/path not stamped: %v", org.Fields)
	}

	got, err := store.Get(ctx, org.Path)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Fields["name"] != "Super Sprinkles" {
		t.Errorf("name: got %v", got.Fields["name"])
	}
}

func TestMemStore_Create_WithIDAndDuplicate(t *testing.T) {
	store := documentstore.NewMemStore()
	ctx := context.Background()

	doc, err := store.Create(ctx, "", "organizations", bson.M{"id": "org-1", "name": "One"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if doc.Path != "organizations/org-1" {
		t.Errorf("Path: got %q, want organizations/org-1", doc.Path)
	}

	_, err = store.Create(ctx, "", "organizations", bson.M{"id": "org-1", "name": "Again"})
	if !errors.Is(err, documentstore.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestMemStore_Get_NotFound(t *testing.T) {
	store := documentstore.NewMemStore()

	_, err := store.Get(context.Background(), "organizations/missing")
	if !errors.Is(err, documentstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var nf *documentstore.NotFoundError
	if !errors.As(err, &nf) || nf.Path != "organizations/missing" {
		t.Errorf("expected NotFoundError with path, got %v", err)
	}
}

func TestMemStore_Set_DottedMerge(t *testing.T) {
	store := documentstore.NewMemStore()
	ctx := context.Background()

	path := "organizations/o/series/s"
	if err := store.Put(path, bson.M{
		"name": "Series",
		"organization_brief": bson.M{
			"id": "o", "path": "organizations/o", "name": "Old",
		},
	}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if err := store.Set(ctx, path, bson.M{"organization_brief.name": "New"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := store.Get(ctx, path)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	var s models.Series
	if err := got.Decode(&s); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if s.OrganizationBrief == nil || s.OrganizationBrief.Name != "New" {
		t.Fatalf("brief name not updated: %+v", s.OrganizationBrief)
	}
	if s.OrganizationBrief.Path != "organizations/o" {
		t.Errorf("sibling brief field lost: %+v", s.OrganizationBrief)
	}
	if s.Name != "Series" {
		t.Errorf("unrelated field changed: %q", s.Name)
	}
}

func TestMemStore_Set_Errors(t *testing.T) {
	store := documentstore.NewMemStore()
	ctx := context.Background()

	if err := store.Set(ctx, "organizations/nope", bson.M{"name": "x"}); !errors.Is(err, documentstore.ErrNotFound) {
		t.Errorf("missing doc: expected ErrNotFound, got %v", err)
	}

	_ = store.Put("organizations/o", bson.M{"name": "O"})
	for _, key := range []string{"id", "path", "_id"} {
		err := store.Set(ctx, "organizations/o", bson.M{key: "x"})
		if !errors.Is(err, documentstore.ErrReservedField) {
			t.Errorf("%s: expected ErrReservedField, got %v", key, err)
		}
	}
}

func TestMemStore_ListChildren(t *testing.T) {
	store := documentstore.NewMemStore()
	ctx := context.Background()

	_ = store.Put("organizations/o", bson.M{"name": "O"})
	_ = store.Put("organizations/o/series/b", bson.M{"name": "B"})
	_ = store.Put("organizations/o/series/a", bson.M{"name": "A"})
	_ = store.Put("organizations/o/series/a/events/e", bson.M{"name": "E"})
	_ = store.Put("organizations/o2/series/c", bson.M{"name": "C"})

	docs, err := store.ListChildren(ctx, "organizations/o", "series")
	if err != nil {
		t.Fatalf("ListChildren failed: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 children, got %d", len(docs))
	}
	if docs[0].Path != "organizations/o/series/a" || docs[1].Path != "organizations/o/series/b" {
		t.Errorf("unexpected order: %s, %s", docs[0].Path, docs[1].Path)
	}

	empty, err := store.ListChildren(ctx, "organizations/o/series/b", "events")
	if err != nil {
		t.Fatalf("ListChildren failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected empty collection, got %d", len(empty))
	}

	roots, err := store.ListChildren(ctx, "", "organizations")
	if err != nil {
		t.Fatalf("ListChildren(root) failed: %v", err)
	}
	if len(roots) != 1 || roots[0].ID() != "o" {
		t.Errorf("unexpected roots: %v", roots)
	}
}

func TestMemStore_GetReturnsCopy(t *testing.T) {
	store := documentstore.NewMemStore()
	ctx := context.Background()
	_ = store.Put("organizations/o", bson.M{"name": "O"})

	doc, _ := store.Get(ctx, "organizations/o")
	doc.Fields["name"] = "mutated"

	again, _ := store.Get(ctx, "organizations/o")
	if again.Fields["name"] != "O" {
		t.Errorf("store was mutated through returned document: %v", again.Fields["name"])
	}
}

func TestMemStore_DecodeTimes(t *testing.T) {
	store := documentstore.NewMemStore()
	ctx := context.Background()
	start := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	fields, err := documentstore.ToFields(models.Event{Name: "Giro", StartDate: start})
	if err != nil {
		t.Fatalf("ToFields failed: %v", err)
	}
	_ = store.Put("organizations/o/series/s/events/e", fields)

	doc, _ := store.Get(ctx, "organizations/o/series/s/events/e")
	var e models.Event
	if err := doc.Decode(&e); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !e.StartDate.Equal(start) {
		t.Errorf("StartDate: got %v, want %v", e.StartDate, start)
	}
	if e.ID != "e" || e.Path != "organizations/o/series/s/events/e" {
		t.Errorf("id/path: %q %q", e.ID, e.Path)
	}
}

func TestMemStore_Fault(t *testing.T) {
	store := documentstore.NewMemStore()
	ctx := context.Background()
	_ = store.Put("organizations/o", bson.M{"name": "O"})

	boom := errors.New("boom")
	store.SetFault(func(op, path string) error {
		if op == documentstore.OpSet && path == "organizations/o" {
			return boom
		}
		return nil
	})

	if err := store.Set(ctx, "organizations/o", bson.M{"name": "x"}); !errors.Is(err, boom) {
		t.Errorf("expected injected fault, got %v", err)
	}
	if _, err := store.Get(ctx, "organizations/o"); err != nil {
		t.Errorf("Get should not be affected: %v", err)
	}

	store.SetFault(nil)
	if err := store.Set(ctx, "organizations/o", bson.M{"name": "x"}); err != nil {
		t.Errorf("Set after clearing fault: %v", err)
	}
}

func TestMemStore_ConcurrentCreate(t *testing.T) {
	store := documentstore.NewMemStore()
	ctx := context.Background()
	_ = store.Put("organizations/o", bson.M{"name": "O"})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Create(ctx, "organizations/o", "series", bson.M{"name": "S"}); err != nil {
				t.Errorf("Create failed: %v", err)
			}
		}()
	}
	wg.Wait()

	docs, err := store.ListChildren(ctx, "organizations/o", "series")
	if err != nil {
		t.Fatalf("ListChildren failed: %v", err)
	}
	if len(docs) != 50 {
		t.Errorf("expected 50 series, got %d", len(docs))
	}
}

func TestMemStore_SetIf(t *testing.T) {
	store := documentstore.NewMemStore()
	ctx := context.Background()
	path := "organizations/o/series/s/events/e/races/r/preems/p"
	if err := store.Put(path, bson.M{"status": "Minimum Met", "meta": bson.M{"n": 1}}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	ok, err := store.SetIf(ctx, path, bson.M{"status": "Open"}, bson.M{"status": "Minimum Met"})
	if err != nil || ok {
		t.Fatalf("stale match: ok=%v err=%v, want false,nil", ok, err)
	}

	ok, err = store.SetIf(ctx, path, bson.M{"status": "Minimum Met", "meta.n": 1}, bson.M{"status": "Awarded"})
	if err != nil || !ok {
		t.Fatalf("current match: ok=%v err=%v, want true,nil", ok, err)
	}
	got, _ := store.Get(ctx, path)
	if got.Fields["status"] != "Awarded" {
		t.Errorf("status: got %v, want Awarded", got.Fields["status"])
	}

	// nil matches a missing field
	ok, err = store.SetIf(ctx, path, bson.M{"awarded_to": nil}, bson.M{"awarded_to": "x"})
	if err != nil || !ok {
		t.Errorf("missing-field match: ok=%v err=%v", ok, err)
	}

	_, err = store.SetIf(ctx, "organizations/missing", bson.M{"status": nil}, bson.M{"name": "x"})
	if !errors.Is(err, documentstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemStore_FindByField(t *testing.T) {
	store := documentstore.NewMemStore()
	ctx := context.Background()
	a := "organizations/o/series/s/events/e/races/r/preems/p1/contributions/c1"
	b := "organizations/o/series/s/events/e/races/r/preems/p2/contributions/c2"
	c := "organizations/o/series/s/events/e/races/r/preems/p2/contributions/c3"
	for path, who := range map[string]string{a: "ana", b: "ana", c: "bo"} {
		if err := store.Put(path, bson.M{"contributor": bson.M{"id": who}}); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}
	if err := store.Put("users/ana", bson.M{"contributor": bson.M{"id": "ana"}}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	docs, err := store.FindByField(ctx, "contributions", "contributor.id", "ana")
	if err != nil {
		t.Fatalf("FindByField failed: %v", err)
	}
	if len(docs) != 2 || docs[0].Path != a || docs[1].Path != b {
		t.Errorf("FindByField: got %v", docs)
	}
}
