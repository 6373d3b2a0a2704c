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

// CreateEvent creates an event under seriesPath. The event must fall within
// the series' dates.
func (s *Store) CreateEvent(ctx context.Context, seriesPath string, in EventInput, actor Actor) (models.Event, error) {
	if err := requireKind(seriesPath, docpath.KindSeries); err != nil {
		return models.Event{}, err
	}
	if err := s.CanManage(ctx, actor, seriesPath); err != nil {
		return models.Event{}, err
	}
	if err := in.validate(); err != nil {
		return models.Event{}, err
	}
	series, err := s.GetSeries(ctx, seriesPath)
	if err != nil {
		return models.Event{}, err
	}
	if err := checkEventRange(in.StartDate, in.EndDate, series); err != nil {
		return models.Event{}, err
	}

	event := models.Event{
		ID:          in.ID,
		Name:        in.Name,
		NameCI:      text.Fold(in.Name),
		Description: in.Description,
		Website:     in.Website,
		Location:    in.Location,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Timezone:    in.Timezone,
		SeriesBrief: briefs.BuildSeriesBrief(series, nil),
		Metadata:    s.metadata(actor),
	}
	doc, err := s.create(ctx, seriesPath, docpath.Events, in.ID, event)
	if err != nil {
		return models.Event{}, err
	}
	var out models.Event
	if err := doc.Decode(&out); err != nil {
		return models.Event{}, err
	}
	s.log.Info("event created", zap.String("path", out.Path), zap.String("by", actor.ID))
	return out, nil
}

// GetEvent reads the event at path, filling a missing series brief.
func (s *Store) GetEvent(ctx context.Context, path string) (models.Event, error) {
	event, err := load[models.Event](ctx, s.docs, path, docpath.KindEvent)
	if err != nil || event.SeriesBrief != nil {
		return event, err
	}
	chain, err := s.fillParentBrief(ctx, path, docpath.KindEvent)
	if err != nil {
		return models.Event{}, err
	}
	event.SeriesBrief = chain.Series
	return event, nil
}

// UpdateEvent applies a partial edit, re-checking the series date range.
func (s *Store) UpdateEvent(ctx context.Context, path string, u EventUpdate, actor Actor) (UpdateResult, error) {
	if err := requireKind(path, docpath.KindEvent); err != nil {
		return UpdateResult{}, err
	}
	if err := s.CanManage(ctx, actor, path); err != nil {
		return UpdateResult{}, err
	}
	cur, err := s.GetEvent(ctx, path)
	if err != nil {
		return UpdateResult{}, err
	}

	in := EventInput{
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
		in.EndDate = u.EndDate
	}
	if u.ClearEndDate {
		in.EndDate = nil
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
	setTimePtrIfChanged(changes, "end_date", cur.EndDate, in.EndDate)
	setIfChanged(changes, "timezone", cur.Timezone, in.Timezone)

	if _, start := changes["start_date"]; start || changes["end_date"] != nil {
		parent, err := docpath.Parent(path)
		if err != nil {
			return UpdateResult{}, err
		}
		series, err := s.GetSeries(ctx, parent)
		if err != nil {
			return UpdateResult{}, err
		}
		if err := checkEventRange(in.StartDate, in.EndDate, series); err != nil {
			return UpdateResult{}, err
		}
	}
	return s.apply(ctx, path, docpath.KindEvent, actor, changes)
}
