package hierarchystore

import (
	"context"
	"fmt"
	"strings"

	"github.com/dalemusser/preemhub/internal/app/system/docpath"
	"github.com/dalemusser/preemhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func (s *Store) metadata(actor Actor) models.Metadata {
	now := s.now()
	return models.Metadata{Created: now, LastModified: now, CreatedBy: actor.ID, LastModifiedBy: actor.ID}
}

// CreateOrganization creates a root organization. Any signed-in actor may
// create one and becomes its first member.
func (s *Store) CreateOrganization(ctx context.Context, in OrganizationInput, actor Actor) (models.Organization, error) {
	if actor.ID == "" {
		return models.Organization{}, fmt.Errorf("%w: not signed in", ErrForbidden)
	}
	if err := in.validate(); err != nil {
		return models.Organization{}, err
	}
	org := models.Organization{
		ID:          in.ID,
		Name:        in.Name,
		NameCI:      text.Fold(in.Name),
		Description: in.Description,
		Website:     in.Website,
		MemberIDs:   []string{actor.ID},
		Metadata:    s.metadata(actor),
	}
	doc, err := s.create(ctx, docpath.Root, docpath.Organizations, in.ID, org)
	if err != nil {
		return models.Organization{}, err
	}
	var out models.Organization
	if err := doc.Decode(&out); err != nil {
		return models.Organization{}, err
	}
	s.log.Info("organization created", zap.String("path", out.Path), zap.String("by", actor.ID))
	return out, nil
}

// GetOrganization reads the organization at path.
func (s *Store) GetOrganization(ctx context.Context, path string) (models.Organization, error) {
	return load[models.Organization](ctx, s.docs, path, docpath.KindOrganization)
}

// ListOrganizations returns the organizations actor may manage, sorted by
// name. Admins see all of them.
func (s *Store) ListOrganizations(ctx context.Context, actor Actor) ([]models.Organization, error) {
	docs, err := s.docs.ListChildren(ctx, docpath.Root, docpath.Organizations)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	out := make([]models.Organization, 0, len(docs))
	for _, d := range docs {
		var o models.Organization
		if err := d.Decode(&o); err != nil {
			return nil, err
		}
		if actor.Admin || o.HasMember(actor.ID) {
			out = append(out, o)
		}
	}
	sortByName(out, func(o models.Organization) string { return o.Name })
	return out, nil
}

// UpdateOrganization applies a partial edit. A name change is pushed into
// every descendant's organization brief.
func (s *Store) UpdateOrganization(ctx context.Context, path string, u OrganizationUpdate, actor Actor) (UpdateResult, error) {
	if err := requireKind(path, docpath.KindOrganization); err != nil {
		return UpdateResult{}, err
	}
	if err := s.CanManage(ctx, actor, path); err != nil {
		return UpdateResult{}, err
	}
	cur, err := s.GetOrganization(ctx, path)
	if err != nil {
		return UpdateResult{}, err
	}

	in := OrganizationInput{ID: cur.ID, Name: cur.Name, Description: cur.Description, Website: cur.Website}
	if u.Name != nil {
		in.Name = *u.Name
	}
	if u.Description != nil {
		in.Description = *u.Description
	}
	if u.Website != nil {
		in.Website = *u.Website
	}
	if err := in.validate(); err != nil {
		return UpdateResult{}, err
	}

	changes := bson.M{}
	setIfChanged(changes, "name", cur.Name, in.Name)
	setIfChanged(changes, "description", cur.Description, in.Description)
	setIfChanged(changes, "website", cur.Website, in.Website)
	return s.apply(ctx, path, docpath.KindOrganization, actor, changes)
}

// AddMember lets userID manage the organization. Adding an existing member
// is a no-op.
func (s *Store) AddMember(ctx context.Context, orgPath, userID string, actor Actor) error {
	userID = strings.TrimSpace(userID)
	if !validID(userID) {
		return invalidInput("User", "A valid user id is required.")
	}
	if err := s.CanManage(ctx, actor, orgPath); err != nil {
		return err
	}
	org, err := s.GetOrganization(ctx, orgPath)
	if err != nil {
		return err
	}
	if org.HasMember(userID) {
		return nil
	}
	return s.setMembers(ctx, orgPath, append(org.MemberIDs, userID), actor)
}

// RemoveMember revokes userID. The last member cannot be removed.
func (s *Store) RemoveMember(ctx context.Context, orgPath, userID string, actor Actor) error {
	if err := s.CanManage(ctx, actor, orgPath); err != nil {
		return err
	}
	org, err := s.GetOrganization(ctx, orgPath)
	if err != nil {
		return err
	}
	if !org.HasMember(userID) {
		return nil
	}
	if len(org.MemberIDs) == 1 {
		return invalidInput("User", "An organization must keep at least one member.")
	}
	members := make([]string, 0, len(org.MemberIDs)-1)
	for _, id := range org.MemberIDs {
		if id != userID {
			members = append(members, id)
		}
	}
	return s.setMembers(ctx, orgPath, members, actor)
}

func (s *Store) setMembers(ctx context.Context, orgPath string, members []string, actor Actor) error {
	err := s.docs.Set(ctx, orgPath, bson.M{
		"member_ids":                members,
		"metadata.last_modified":    s.now(),
		"metadata.last_modified_by": actor.ID,
	})
	if err != nil {
		return fmt.Errorf("update members of %s: %w", orgPath, err)
	}
	return nil
}

func validID(id string) bool {
	return id != "" && !strings.Contains(id, "/")
}
