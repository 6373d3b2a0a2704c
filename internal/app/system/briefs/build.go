// Package briefs builds and maintains the ancestor snapshots ("briefs")
// that every document below an organization embeds.
//
// Build* functions are pure: they copy their inputs and return a brief
// holding display fields only. Propagator pushes display-field edits of an
// ancestor down to every descendant's embedded copy, and Reconciler repairs
// briefs that are missing or stale. Neither is transactional: a brief may
// lag its ancestor until the next refresh.
package briefs

import (
	"time"

	"github.com/dalemusser/preemhub/internal/domain/models"
)

// BuildOrganizationBrief projects an organization's display fields.
func BuildOrganizationBrief(o models.Organization) *models.OrganizationBrief {
	return &models.OrganizationBrief{ID: o.ID, Path: o.Path, Name: o.Name}
}

// BuildSeriesBrief projects a series. When org is nil the series' own
// embedded organization brief is copied instead.
func BuildSeriesBrief(s models.Series, org *models.OrganizationBrief) *models.SeriesBrief {
	if org == nil {
		org = s.OrganizationBrief
	}
	return &models.SeriesBrief{
		ID:                s.ID,
		Path:              s.Path,
		Name:              s.Name,
		StartDate:         timePtr(s.StartDate),
		EndDate:           timePtr(s.EndDate),
		Timezone:          s.Timezone,
		OrganizationBrief: copyOrganizationBrief(org),
	}
}

// BuildEventBrief projects an event. When series is nil the event's own
// embedded series brief is copied instead.
func BuildEventBrief(e models.Event, series *models.SeriesBrief) *models.EventBrief {
	if series == nil {
		series = e.SeriesBrief
	}
	return &models.EventBrief{
		ID:          e.ID,
		Path:        e.Path,
		Name:        e.Name,
		StartDate:   timePtr(e.StartDate),
		EndDate:     copyTime(e.EndDate),
		Timezone:    e.Timezone,
		SeriesBrief: copySeriesBrief(series),
	}
}

// BuildRaceBrief projects a race. When event is nil the race's own
// embedded event brief is copied instead.
func BuildRaceBrief(r models.Race, event *models.EventBrief) *models.RaceBrief {
	if event == nil {
		event = r.EventBrief
	}
	return &models.RaceBrief{
		ID:         r.ID,
		Path:       r.Path,
		Name:       r.Name,
		StartDate:  timePtr(r.StartDate),
		EndDate:    copyTime(r.EndDate),
		Timezone:   r.Timezone,
		EventBrief: copyEventBrief(event),
	}
}

// BuildPreemBrief projects a preem. When race is nil the preem's own
// embedded race brief is copied instead.
func BuildPreemBrief(p models.Preem, race *models.RaceBrief) *models.PreemBrief {
	if race == nil {
		race = p.RaceBrief
	}
	return &models.PreemBrief{
		ID:        p.ID,
		Path:      p.Path,
		Name:      p.Name,
		RaceBrief: copyRaceBrief(race),
	}
}

// BuildUserBrief projects the public face of a user. Email and role are
// never included.
func BuildUserBrief(u models.User) *models.UserBrief {
	return &models.UserBrief{ID: u.ID, Path: u.Path, Name: u.Name, AvatarURL: u.AvatarURL}
}

func copyOrganizationBrief(b *models.OrganizationBrief) *models.OrganizationBrief {
	if b == nil {
		return nil
	}
	out := *b
	return &out
}

func copySeriesBrief(b *models.SeriesBrief) *models.SeriesBrief {
	if b == nil {
		return nil
	}
	out := *b
	out.StartDate = copyTime(b.StartDate)
	out.EndDate = copyTime(b.EndDate)
	out.OrganizationBrief = copyOrganizationBrief(b.OrganizationBrief)
	return &out
}

func copyEventBrief(b *models.EventBrief) *models.EventBrief {
	if b == nil {
		return nil
	}
	out := *b
	out.StartDate = copyTime(b.StartDate)
	out.EndDate = copyTime(b.EndDate)
	out.SeriesBrief = copySeriesBrief(b.SeriesBrief)
	return &out
}

func copyRaceBrief(b *models.RaceBrief) *models.RaceBrief {
	if b == nil {
		return nil
	}
	out := *b
	out.StartDate = copyTime(b.StartDate)
	out.EndDate = copyTime(b.EndDate)
	out.EventBrief = copyEventBrief(b.EventBrief)
	return &out
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
