package hierarchystore

import (
	"context"

	"github.com/dalemusser/preemhub/internal/app/system/briefs"
	"github.com/dalemusser/preemhub/internal/app/system/docpath"
	"github.com/dalemusser/preemhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// CreateSeries creates a series under orgPath.
func (s *Store) CreateSeries(ctx context.Context, orgPath string, in SeriesInput, actor Actor) (models.Series, error) {
	if err := requireKind(orgPath, docpath.KindOrganization); err != nil {
		return models.Series{}, err
	}
	if err := s.CanManage(ctx, actor, orgPath); err != nil {
		return models.Series{}, err
	}
	if err := in.validate(); err != nil {
		return models.Series{}, err
	}
	org, err := s.GetOrganization(ctx, orgPath)
	if err != nil {
		return models.Series{}, err
	}

	series := models.Series{
		ID:                in.ID,
		Name:              in.Name,
		NameCI:            text.Fold(in.Name),
		Description:       in.Description,
		Website:           in.Website,
		Location:          in.Location,
		StartDate:         in.StartDate,
		EndDate:           in.EndDate,
		Timezone:          in.Timezone,
		OrganizationBrief: briefs.BuildOrganizationBrief(org),
		Metadata:          s.metadata(actor),
	}
	doc, err := s.create(ctx, orgPath, docpath.Series, in.ID, series)
	if err != nil {
		return models.Series{}, err
	}
	var out models.Series
	if err := doc.Decode(&out); err != nil {
		return models.Series{}, err
	}
	s.log.Info("series created", zap.String("path", out.Path), zap.String("by", actor.ID))
	return out, nil
}

// GetSeries reads the series at path, filling a missing organization brief.
func (s *Store) GetSeries(ctx context.Context, path string) (models.Series, error) {
	series, err := load[models.Series](ctx, s.docs, path, docpath.KindSeries)
	if err != nil || series.OrganizationBrief != nil {
		return series, err
	}
	chain, err := s.fillParentBrief(ctx, path, docpath.KindSeries)
	if err != nil {
		return models.Series{}, err
	}
	series.OrganizationBrief = chain.Organization
	return series, nil
}

// UpdateSeries applies a partial edit. Name, date and time zone changes
// are pushed into every descendant's series brief.
func (s *Store) UpdateSeries(ctx context.Context, path string, u SeriesUpdate, actor Actor) (UpdateResult, error) {
	if err := requireKind(path, docpath.KindSeries); err != nil {
		return UpdateResult{}, err
	}
	if err := s.CanManage(ctx, actor, path); err != nil {
		return UpdateResult{}, err
	}
	cur, err := s.GetSeries(ctx, path)
	if err != nil {
		return UpdateResult{}, err
	}

	in := SeriesInput{
		ID: cur.ID, Name: cur.Name, Description: cur.Description, Website: cur.Website,
		Location: cur.Location, StartDate: cur.StartDate, EndDate: cur.EndDate, Timezone: cur.Timezone,
	}
	if u.Name != nil {
		in.Name = *u.Name
	}
	if u.Description != nil {
		in.Description = *u.Description
	}
	if u.Website != nil {
		in.Website = *u.Website
	}
	if u.Location != nil {
		in.Location = *u.Location
	}
	if u.StartDate != nil {
		in.StartDate = *u.StartDate
	}
	if u.EndDate != nil {
		in.EndDate = *u.EndDate
	}
	if u.Timezone != nil {
		in.Timezone = *u.Timezone
	}
	if err := in.validate(); err != nil {
		return UpdateResult{}, err
	}

	changes := bson.M{}
	setIfChanged(changes, "name", cur.Name, in.Name)
	setIfChanged(changes, "description", cur.Description, in.Description)
	setIfChanged(changes, "website", cur.Website, in.Website)
	setIfChanged(changes, "location", cur.Location, in.Location)
	setTimeIfChanged(changes, "start_date", cur.StartDate, in.StartDate)
	setTimeIfChanged(changes, "end_date", cur.EndDate, in.EndDate)
	setIfChanged(changes, "timezone", cur.Timezone, in.Timezone)
	return s.apply(ctx, path, docpath.KindSeries, actor, changes)
}
