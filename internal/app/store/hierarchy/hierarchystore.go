// internal/app/store/hierarchy/hierarchystore.go
//
// Package hierarchystore creates, updates and reads the typed entities of
// the racing hierarchy (organizations down to preems) on top of a
// documentstore.Store. It owns authorization, input validation and the
// parent brief embedded at creation; edits to display fields are pushed to
// descendants through the brief propagator.
package hierarchystore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	documentstore "github.com/dalemusser/preemhub/internal/app/store/documents"
	"github.com/dalemusser/preemhub/internal/app/system/briefs"
	"github.com/dalemusser/preemhub/internal/app/system/docpath"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrDateRange is matched by every *DateRangeError.
	ErrDateRange = errors.New("date out of range")
	// ErrForbidden is returned when the actor may not manage the path.
	ErrForbidden = errors.New("forbidden")
)

// ValidationError carries the user-facing messages of failed input rules.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string { return "validation failed: " + e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// DateRangeError reports a child scheduled outside its parent's dates.
type DateRangeError struct {
	Message string
}

func (e *DateRangeError) Error() string { return e.Message }

func (e *DateRangeError) Is(target error) bool { return target == ErrDateRange }

// Actor is the user performing a change.
type Actor struct {
	ID    string
	Admin bool
}

// UpdateResult describes an applied update. Warnings are set when some
// descendant briefs could not be refreshed; the update itself succeeded.
type UpdateResult struct {
	Path     string               `json:"path"`
	Changed  []string             `json:"changed"`
	Refresh  *briefs.RefreshResult `json:"refresh,omitempty"`
	Warnings []string             `json:"warnings,omitempty"`
}

// ChangedField reports whether the update wrote field.
func (r UpdateResult) ChangedField(field string) bool {
	for _, f := range r.Changed {
		if f == field {
			return true
		}
	}
	return false
}

// Store is the typed entity store.
type Store struct {
	docs  documentstore.Store
	props *briefs.Propagator
	log   *zap.Logger
	now   func() time.Time
}

// New creates a Store.
func New(docs documentstore.Store, props *briefs.Propagator, logger *zap.Logger) *Store {
	return &Store{
		docs:  docs,
		props: props,
		log:   logger,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// CanManage returns nil when actor may change anything under path: admins
// always, everyone else when listed on the root organization.
func (s *Store) CanManage(ctx context.Context, actor Actor, path string) error {
	if actor.ID == "" {
		return fmt.Errorf("%w: not signed in", ErrForbidden)
	}
	if actor.Admin {
		return nil
	}
	segs, err := docpath.Segments(path)
	if err != nil {
		return err
	}
	if segs[0] != docpath.Organizations {
		return fmt.Errorf("%w: %s is outside the hierarchy", ErrForbidden, path)
	}
	root := segs[0] + "/" + segs[1]
	org, err := s.GetOrganization(ctx, root)
	if err != nil {
		return err
	}
	if !org.HasMember(actor.ID) {
		return fmt.Errorf("%w: %s is not a member of %s", ErrForbidden, actor.ID, root)
	}
	return nil
}

func requireKind(path string, want docpath.Kind) error {
	if err := docpath.Validate(path); err != nil {
		return err
	}
	if k := docpath.KindOf(path); k != want {
		return &docpath.InvalidPathError{Path: path, Reason: fmt.Sprintf("expected %s, got %s", want, k)}
	}
	return nil
}

func load[T any](ctx context.Context, docs documentstore.Store, path string, want docpath.Kind) (T, error) {
	var v T
	if err := requireKind(path, want); err != nil {
		return v, err
	}
	doc, err := docs.Get(ctx, path)
	if err != nil {
		return v, err
	}
	if err := doc.Decode(&v); err != nil {
		return v, fmt.Errorf("decode %s: %w", path, err)
	}
	return v, nil
}

// create stores v under parent/collection. An empty id lets the store
// assign one.
func (s *Store) create(ctx context.Context, parent, collection, id string, v any) (documentstore.Document, error) {
	fields, err := documentstore.ToFields(v)
	if err != nil {
		return documentstore.Document{}, err
	}
	delete(fields, documentstore.FieldPath)
	if id == "" {
		delete(fields, documentstore.FieldID)
	}
	doc, err := s.docs.Create(ctx, parent, collection, fields)
	if err != nil {
		return documentstore.Document{}, fmt.Errorf("create %s under %q: %w", collection, parent, err)
	}
	return doc, nil
}

// apply writes changes with fresh modification metadata and refreshes the
// descendant briefs of any display field among them.
func (s *Store) apply(ctx context.Context, path string, kind docpath.Kind, actor Actor, changes bson.M) (UpdateResult, error) {
	res := UpdateResult{Path: path, Changed: []string{}}
	if len(changes) == 0 {
		return res, nil
	}
	for k := range changes {
		res.Changed = append(res.Changed, k)
	}
	sort.Strings(res.Changed)

	set := make(bson.M, len(changes)+3)
	for k, v := range changes {
		set[k] = v
	}
	if name, ok := changes["name"].(string); ok {
		set["name_ci"] = text.Fold(name)
	}
	set["metadata.last_modified"] = s.now()
	set["metadata.last_modified_by"] = actor.ID
	if err := s.docs.Set(ctx, path, set); err != nil {
		return UpdateResult{}, fmt.Errorf("update %s: %w", path, err)
	}

	display := briefs.FilterDisplay(kind, changes)
	if len(display) == 0 {
		return res, nil
	}
	refresh, err := s.props.RefreshDescendantBriefs(ctx, path, display)
	res.Refresh = &refresh
	var pre *briefs.PartialRefreshError
	switch {
	case errors.As(err, &pre):
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"%d descendant summaries could not be refreshed and will be repaired by the next reconcile pass", len(pre.Failed)))
	case err != nil:
		return res, fmt.Errorf("refresh briefs under %s: %w", path, err)
	}
	s.log.Info("entity updated",
		zap.String("path", path),
		zap.Strings("changed", res.Changed),
		zap.Int("briefs_updated", refresh.Updated))
	return res, nil
}

// fillParentBrief embeds a freshly built parent brief in a document that
// lacks one. The write is best effort: the caller already has the brief.
func (s *Store) fillParentBrief(ctx context.Context, path string, kind docpath.Kind) (briefs.Chain, error) {
	parent, err := docpath.Parent(path)
	if err != nil {
		return briefs.Chain{}, err
	}
	chain, err := briefs.ResolveChain(ctx, s.docs, parent)
	if err != nil {
		return briefs.Chain{}, err
	}
	parentKind := docpath.KindAtDepth(kind.Depth() - 1)
	var b any
	switch parentKind {
	case docpath.KindOrganization:
		b = chain.Organization
	case docpath.KindSeries:
		b = chain.Series
	case docpath.KindEvent:
		b = chain.Event
	case docpath.KindRace:
		b = chain.Race
	}
	if err := s.docs.Set(ctx, path, bson.M{briefs.Key(parentKind): b}); err != nil {
		s.log.Warn("could not store missing parent brief",
			zap.String("path", path),
			zap.Error(err))
	}
	return chain, nil
}

func setIfChanged[T comparable](m bson.M, key string, old, new T) {
	if old != new {
		m[key] = new
	}
}

func setTimeIfChanged(m bson.M, key string, old, new time.Time) {
	if !old.Equal(new) {
		m[key] = new
	}
}

func setTimePtrIfChanged(m bson.M, key string, old, new *time.Time) {
	switch {
	case old == nil && new == nil:
	case old == nil || new == nil || !old.Equal(*new):
		if new == nil {
			m[key] = nil
			return
		}
		m[key] = *new
	}
}

func setFloatPtrIfChanged(m bson.M, key string, old, new *float64) {
	switch {
	case old == nil && new == nil:
	case old == nil || new == nil || *old != *new:
		if new == nil {
			m[key] = nil
			return
		}
		m[key] = *new
	}
}

func sortByName[T any](items []T, name func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		return text.Fold(name(items[i])) < text.Fold(name(items[j]))
	})
}
