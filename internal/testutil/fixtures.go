package testutil

import (
	"context"
	"testing"
	"time"

	documentstore "github.com/dalemusser/preemhub/internal/app/store/documents"
	"github.com/dalemusser/preemhub/internal/app/system/briefs"
	"github.com/dalemusser/preemhub/internal/app/system/docpath"
	"github.com/dalemusser/preemhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
)

// Fixtures creates hierarchy documents directly in a document store,
// bypassing validation and authorization.
type Fixtures struct {
	store documentstore.Store
	t     *testing.T
}

// NewFixtures creates a new Fixtures instance for the given store.
func NewFixtures(t *testing.T, store documentstore.Store) *Fixtures {
	t.Helper()
	return &Fixtures{store: store, t: t}
}

// Store returns the underlying store for direct access in tests.
func (f *Fixtures) Store() documentstore.Store {
	return f.store
}

// Paths holds the canonical paths created by SeedHierarchy.
type Paths struct {
	Organization string
	Series       string
	Event        string
	Race         string
	Preem        string
}

// Day returns midnight UTC of the given 2026 date.
func Day(m time.Month, d int) time.Time {
	return time.Date(2026, m, d, 0, 0, 0, 0, time.UTC)
}

// SeedHierarchy creates one organization with a single series, event, race
// and preem, each id derived from prefix, with briefs embedded.
func (f *Fixtures) SeedHierarchy(ctx context.Context, prefix string) Paths {
	f.t.Helper()

	now := time.Now().UTC()
	meta := models.Metadata{Created: now, LastModified: now, CreatedBy: "fixture", LastModifiedBy: "fixture"}
	end := Day(time.May, 11)

	org := models.Organization{ID: prefix, Name: "Org " + prefix, MemberIDs: []string{"organizer-" + prefix}, Metadata: meta}
	org.NameCI = text.Fold(org.Name)
	org.Path = f.create(ctx, docpath.Root, docpath.Organizations, org)

	series := models.Series{
		ID: prefix + "-series", Name: "Series " + prefix,
		StartDate: Day(time.March, 1), EndDate: Day(time.September, 30),
		Timezone:          "America/Chicago",
		OrganizationBrief: briefs.BuildOrganizationBrief(org),
		Metadata:          meta,
	}
	series.Path = f.create(ctx, org.Path, docpath.Series, series)

	event := models.Event{
		ID: prefix + "-event", Name: "Event " + prefix,
		StartDate: Day(time.May, 10), EndDate: &end,
		SeriesBrief: briefs.BuildSeriesBrief(series, nil),
		Metadata:    meta,
	}
	event.Path = f.create(ctx, series.Path, docpath.Events, event)

	race := models.Race{
		ID: prefix + "-race", Name: "Race " + prefix, Laps: 30,
		StartDate:  Day(time.May, 10),
		EventBrief: briefs.BuildEventBrief(event, nil),
		Metadata:   meta,
	}
	race.Path = f.create(ctx, event.Path, docpath.Races, race)

	preem := models.Preem{
		ID: prefix + "-preem", Name: "Preem " + prefix,
		Type: models.PreemPooled, Status: models.StatusOpen,
		RaceBrief: briefs.BuildRaceBrief(race, nil),
		Metadata:  meta,
	}
	preem.Path = f.create(ctx, race.Path, docpath.Preems, preem)

	return Paths{Organization: org.Path, Series: series.Path, Event: event.Path, Race: race.Path, Preem: preem.Path}
}

// CreateContribution stores a contribution under preemPath without touching
// the prize pool.
func (f *Fixtures) CreateContribution(ctx context.Context, preemPath, id string, amount float64) string {
	f.t.Helper()
	c := models.Contribution{
		ID:          id,
		Amount:      amount,
		Date:        time.Now().UTC(),
		Contributor: &models.UserBrief{ID: "fan", Path: "users/fan", Name: "Fan"},
		PreemBrief:  &models.PreemBrief{ID: docpath.IDOf(preemPath), Path: preemPath},
	}
	return f.create(ctx, preemPath, docpath.Contributions, c)
}

func (f *Fixtures) create(ctx context.Context, parent, collection string, v any) string {
	f.t.Helper()
	fields, err := documentstore.ToFields(v)
	if err != nil {
		f.t.Fatalf("encode fixture: %v", err)
	}
	delete(fields, documentstore.FieldPath)
	doc, err := f.store.Create(ctx, parent, collection, fields)
	if err != nil {
		f.t.Fatalf("create fixture under %q: %v", parent, err)
	}
	return doc.Path
}
