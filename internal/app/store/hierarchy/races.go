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

// CreateRace creates a race under eventPath. The race must fall within the
// event's dates.
func (s *Store) CreateRace(ctx context.Context, eventPath string, in RaceInput, actor Actor) (models.Race, error) {
	if err := requireKind(eventPath, docpath.KindEvent); err != nil {
		return models.Race{}, err
	}
	if err := s.CanManage(ctx, actor, eventPath); err != nil {
		return models.Race{}, err
	}
	if err := in.validate(); err != nil {
		return models.Race{}, err
	}
	event, err := s.GetEvent(ctx, eventPath)
	if err != nil {
		return models.Race{}, err
	}
	if err := checkRaceRange(in.StartDate, in.EndDate, event); err != nil {
		return models.Race{}, err
	}

	race := models.Race{
		ID:            in.ID,
		Name:          in.Name,
		NameCI:        text.Fold(in.Name),
		Description:   in.Description,
		Location:      in.Location,
		Category:      in.Category,
		Gender:        in.Gender,
		CourseDetails: in.CourseDetails,
		CourseLink:    in.CourseLink,
		Laps:          in.Laps,
		StartDate:     in.StartDate,
		EndDate:       in.EndDate,
		Timezone:      in.Timezone,
		EventBrief:    briefs.BuildEventBrief(event, nil),
		Metadata:      s.metadata(actor),
	}
	doc, err := s.create(ctx, eventPath, docpath.Races, in.ID, race)
	if err != nil {
		return models.Race{}, err
	}
	var out models.Race
	if err := doc.Decode(&out); err != nil {
		return models.Race{}, err
	}
	s.log.Info("race created", zap.String("path", out.Path), zap.String("by", actor.ID))
	return out, nil
}

// GetRace reads the race at path, filling a missing event brief.
func (s *Store) GetRace(ctx context.Context, path string) (models.Race, error) {
	race, err := load[models.Race](ctx, s.docs, path, docpath.KindRace)
	if err != nil || race.EventBrief != nil {
		return race, err
	}
	chain, err := s.fillParentBrief(ctx, path, docpath.KindRace)
	if err != nil {
		return models.Race{}, err
	}
	race.EventBrief = chain.Event
	return race, nil
}

// UpdateRace applies a partial edit, re-checking the event date range.
func (s *Store) UpdateRace(ctx context.Context, path string, u RaceUpdate, actor Actor) (UpdateResult, error) {
	if err := requireKind(path, docpath.KindRace); err != nil {
		return UpdateResult{}, err
	}
	if err := s.CanManage(ctx, actor, path); err != nil {
		return UpdateResult{}, err
	}
	cur, err := s.GetRace(ctx, path)
	if err != nil {
		return UpdateResult{}, err
	}

	in := RaceInput{
		ID: cur.ID, Name: cur.Name, Description: cur.Description, Location: cur.Location,
		Category: cur.Category, Gender: cur.Gender, CourseDetails: cur.CourseDetails,
		CourseLink: cur.CourseLink, Laps: cur.Laps, StartDate: cur.StartDate,
		EndDate: cur.EndDate, Timezone: cur.Timezone,
	}
	if u.Name != nil {
		in.Name = *u.Name
	}
	if u.Description != nil {
		in.Description = *u.Description
	}
	if u.Location != nil {
		in.Location = *u.Location
	}
	if u.Category != nil {
		in.Category = *u.Category
	}
	if u.Gender != nil {
		in.Gender = *u.Gender
	}
	if u.CourseDetails != nil {
		in.CourseDetails = *u.CourseDetails
	}
	if u.CourseLink != nil {
		in.CourseLink = *u.CourseLink
	}
	if u.Laps != nil {
		in.Laps = *u.Laps
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
	setIfChanged(changes, "location", cur.Location, in.Location)
	setIfChanged(changes, "category", cur.Category, in.Category)
	setIfChanged(changes, "gender", cur.Gender, in.Gender)
	setIfChanged(changes, "course_details", cur.CourseDetails, in.CourseDetails)
	setIfChanged(changes, "course_link", cur.CourseLink, in.CourseLink)
	setIfChanged(changes, "laps", cur.Laps, in.Laps)
	setTimeIfChanged(changes, "start_date", cur.StartDate, in.StartDate)
	setTimePtrIfChanged(changes, "end_date", cur.EndDate, in.EndDate)
	setIfChanged(changes, "timezone", cur.Timezone, in.Timezone)

	if _, start := changes["start_date"]; start || changes["end_date"] != nil {
		parent, err := docpath.Parent(path)
		if err != nil {
			return UpdateResult{}, err
		}
		event, err := s.GetEvent(ctx, parent)
		if err != nil {
			return UpdateResult{}, err
		}
		if err := checkRaceRange(in.StartDate, in.EndDate, event); err != nil {
			return UpdateResult{}, err
		}
	}
	return s.apply(ctx, path, docpath.KindRace, actor, changes)
}
