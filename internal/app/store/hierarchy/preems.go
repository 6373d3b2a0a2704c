package hierarchystore

import (
	"context"
	"fmt"

	"github.com/dalemusser/preemhub/internal/app/system/briefs"
	"github.com/dalemusser/preemhub/internal/app/system/docpath"
	"github.com/dalemusser/preemhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// CreatePreem creates an open preem with an empty prize pool under
// racePath.
func (s *Store) CreatePreem(ctx context.Context, racePath string, in PreemInput, actor Actor) (models.Preem, error) {
	if err := requireKind(racePath, docpath.KindRace); err != nil {
		return models.Preem{}, err
	}
	if err := s.CanManage(ctx, actor, racePath); err != nil {
		return models.Preem{}, err
	}
	if err := in.validate(); err != nil {
		return models.Preem{}, err
	}
	race, err := s.GetRace(ctx, racePath)
	if err != nil {
		return models.Preem{}, err
	}

	preem := models.Preem{
		ID:               in.ID,
		Name:             in.Name,
		NameCI:           text.Fold(in.Name),
		Description:      in.Description,
		Type:             in.Type,
		Status:           models.StatusOpen,
		MinimumThreshold: in.MinimumThreshold,
		TimeLimit:        in.TimeLimit,
		RaceBrief:        briefs.BuildRaceBrief(race, nil),
		Metadata:         s.metadata(actor),
	}
	doc, err := s.create(ctx, racePath, docpath.Preems, in.ID, preem)
	if err != nil {
		return models.Preem{}, err
	}
	var out models.Preem
	if err := doc.Decode(&out); err != nil {
		return models.Preem{}, err
	}
	s.log.Info("preem created", zap.String("path", out.Path), zap.String("by", actor.ID))
	return out, nil
}

// GetPreem reads the preem at path, filling a missing race brief.
func (s *Store) GetPreem(ctx context.Context, path string) (models.Preem, error) {
	preem, err := load[models.Preem](ctx, s.docs, path, docpath.KindPreem)
	if err != nil || preem.RaceBrief != nil {
		return preem, err
	}
	chain, err := s.fillParentBrief(ctx, path, docpath.KindPreem)
	if err != nil {
		return models.Preem{}, err
	}
	preem.RaceBrief = chain.Race
	return preem, nil
}

// UpdatePreem applies a partial edit. Status and prize pool belong to the
// ledger and cannot be edited here; an awarded preem only accepts name and
// description edits.
func (s *Store) UpdatePreem(ctx context.Context, path string, u PreemUpdate, actor Actor) (UpdateResult, error) {
	if err := requireKind(path, docpath.KindPreem); err != nil {
		return UpdateResult{}, err
	}
	if err := s.CanManage(ctx, actor, path); err != nil {
		return UpdateResult{}, err
	}
	cur, err := s.GetPreem(ctx, path)
	if err != nil {
		return UpdateResult{}, err
	}

	in := PreemInput{
		ID: cur.ID, Name: cur.Name, Description: cur.Description, Type: cur.Type,
		MinimumThreshold: cur.MinimumThreshold, TimeLimit: cur.TimeLimit,
	}
	if u.Name != nil {
		in.Name = *u.Name
	}
	if u.Description != nil {
		in.Description = *u.Description
	}
	if u.Type != nil {
		in.Type = *u.Type
	}
	if u.MinimumThreshold != nil {
		in.MinimumThreshold = u.MinimumThreshold
	}
	if u.ClearMinimumThreshold {
		in.MinimumThreshold = nil
	}
	if u.TimeLimit != nil {
		in.TimeLimit = u.TimeLimit
	}
	if u.ClearTimeLimit {
		in.TimeLimit = nil
	}
	if err := in.validate(); err != nil {
		return UpdateResult{}, err
	}

	changes := bson.M{}
	setIfChanged(changes, "name", cur.Name, in.Name)
	setIfChanged(changes, "description", cur.Description, in.Description)
	setIfChanged(changes, "type", cur.Type, in.Type)
	setFloatPtrIfChanged(changes, "minimum_threshold", cur.MinimumThreshold, in.MinimumThreshold)
	setTimePtrIfChanged(changes, "time_limit", cur.TimeLimit, in.TimeLimit)

	if cur.Status == models.StatusAwarded {
		for _, k := range []string{"type", "minimum_threshold", "time_limit"} {
			if _, ok := changes[k]; ok {
				return UpdateResult{}, invalidInput(k, fmt.Sprintf("An awarded preem's %s can no longer change.", displayName(k)))
			}
		}
	}
	return s.apply(ctx, path, docpath.KindPreem, actor, changes)
}

func displayName(key string) string {
	switch key {
	case "minimum_threshold":
		return "minimum threshold"
	case "time_limit":
		return "time limit"
	}
	return key
}
