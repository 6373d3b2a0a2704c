// internal/app/store/users/userstore.go
//
// Package userstore keeps the users/<id> documents contributions point
// at. A user document is created the first time someone signs in and
// refreshed on every later sign-in.
package userstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	documentstore "github.com/dalemusser/preemhub/internal/app/store/documents"
	"github.com/dalemusser/preemhub/internal/app/system/briefs"
	"github.com/dalemusser/preemhub/internal/app/system/docpath"
	"github.com/dalemusser/preemhub/internal/app/system/inputval"
	"github.com/dalemusser/preemhub/internal/app/system/metrics"
	"github.com/dalemusser/preemhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrInvalidUser is returned for sign-in data that fails validation.
var ErrInvalidUser = errors.New("invalid user")

// Input is the profile a sign-in provides.
type Input struct {
	ID        string `json:"id" validate:"required,docid,max=64" label:"ID"`
	Name      string `json:"name" validate:"required,max=200" label:"Name"`
	Email     string `json:"email" validate:"omitempty,email,max=320" label:"Email"`
	AvatarURL string `json:"avatarUrl" validate:"omitempty,httpurl" label:"Avatar URL"`
	Role      string `json:"role" validate:"omitempty,oneof=contributor organizer admin" label:"Role"`
}

// Store reads and writes user documents.
type Store struct {
	docs documentstore.Store
	log  *zap.Logger
	now  func() time.Time
}

// New creates a Store.
func New(docs documentstore.Store, logger *zap.Logger) *Store {
	return &Store{docs: docs, log: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Path returns the document path of user id.
func Path(id string) (string, error) {
	return docpath.Join(docpath.Users, id)
}

// Get reads the user with id.
func (s *Store) Get(ctx context.Context, id string) (models.User, error) {
	path, err := Path(id)
	if err != nil {
		return models.User{}, err
	}
	doc, err := s.docs.Get(ctx, path)
	if err != nil {
		return models.User{}, err
	}
	var u models.User
	if err := doc.Decode(&u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

// Brief returns the public projection of user id.
func (s *Store) Brief(ctx context.Context, id string) (*models.UserBrief, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return briefs.BuildUserBrief(u), nil
}

// Upsert creates the user or refreshes its profile. An existing user keeps
// their role unless in names one. created reports a first sign-in.
func (s *Store) Upsert(ctx context.Context, in Input) (u models.User, created bool, err error) {
	in.ID = strings.TrimSpace(in.ID)
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.AvatarURL = strings.TrimSpace(in.AvatarURL)
	in.Role = strings.ToLower(strings.TrimSpace(in.Role))
	if r := inputval.Validate(in); r.HasErrors() {
		return models.User{}, false, fmt.Errorf("%w: %s", ErrInvalidUser, r.All())
	}

	existing, err := s.Get(ctx, in.ID)
	switch {
	case errors.Is(err, documentstore.ErrNotFound):
		u, err = s.create(ctx, in)
		if !errors.Is(err, documentstore.ErrDuplicate) {
			return u, err == nil, err
		}
		// lost a race with a concurrent first sign-in
		if existing, err = s.Get(ctx, in.ID); err != nil {
			return models.User{}, false, err
		}
	case err != nil:
		return models.User{}, false, err
	}
	u, err = s.refresh(ctx, existing, in)
	return u, false, err
}

func (s *Store) create(ctx context.Context, in Input) (models.User, error) {
	role := in.Role
	if role == "" {
		role = models.RoleContributor
	}
	now := s.now()
	fields, err := documentstore.ToFields(models.User{
		ID:        in.ID,
		Name:      in.Name,
		Email:     in.Email,
		AvatarURL: in.AvatarURL,
		Role:      role,
		Metadata:  models.Metadata{Created: now, LastModified: now, CreatedBy: in.ID, LastModifiedBy: in.ID},
	})
	if err != nil {
		return models.User{}, err
	}
	delete(fields, documentstore.FieldPath)
	doc, err := s.docs.Create(ctx, docpath.Root, docpath.Users, fields)
	if err != nil {
		return models.User{}, fmt.Errorf("create user %s: %w", in.ID, err)
	}
	var u models.User
	if err := doc.Decode(&u); err != nil {
		return models.User{}, err
	}
	s.log.Info("user created", zap.String("user_id", u.ID), zap.String("role", u.Role))
	return u, nil
}

func (s *Store) refresh(ctx context.Context, u models.User, in Input) (models.User, error) {
	set := bson.M{}
	if u.Name != in.Name {
		set["name"] = in.Name
		u.Name = in.Name
	}
	if u.Email != in.Email {
		set["email"] = in.Email
		u.Email = in.Email
	}
	if u.AvatarURL != in.AvatarURL {
		set["avatar_url"] = in.AvatarURL
		u.AvatarURL = in.AvatarURL
	}
	if in.Role != "" && u.Role != in.Role {
		set["role"] = in.Role
		u.Role = in.Role
	}
	if len(set) == 0 {
		return u, nil
	}
	now := s.now()
	set["metadata.last_modified"] = now
	set["metadata.last_modified_by"] = in.ID
	if err := s.docs.Set(ctx, u.Path, set); err != nil {
		return models.User{}, fmt.Errorf("update user %s: %w", u.ID, err)
	}
	u.Metadata.LastModified = now
	u.Metadata.LastModifiedBy = in.ID

	brief := bson.M{}
	if v, ok := set["name"]; ok {
		brief["contributor.name"] = v
	}
	if v, ok := set["avatar_url"]; ok {
		brief["contributor.avatar_url"] = v
	}
	if len(brief) > 0 {
		s.refreshContributions(ctx, u.ID, brief)
	}
	return u, nil
}

// refreshContributions copies a changed name or avatar into the contributor
// brief of every contribution the user made. Failures are logged; the
// profile update itself has already succeeded.
func (s *Store) refreshContributions(ctx context.Context, userID string, brief bson.M) {
	docs, err := s.docs.FindByField(ctx, docpath.Contributions, "contributor.id", userID)
	if err != nil {
		s.log.Warn("list contributions for contributor refresh failed",
			zap.String("user_id", userID), zap.Error(err))
		return
	}
	var errs error
	failed := 0
	for _, d := range docs {
		if err := s.docs.Set(ctx, d.Path, brief); err != nil {
			errs = multierr.Append(errs, err)
			failed++
		}
	}
	metrics.BriefWrites.WithLabelValues("contributor", "ok").Add(float64(len(docs) - failed))
	metrics.BriefWrites.WithLabelValues("contributor", "failed").Add(float64(failed))
	if errs != nil {
		s.log.Warn("contributor refresh incomplete",
			zap.String("user_id", userID),
			zap.Int("failed", failed),
			zap.Error(errs))
	}
}
