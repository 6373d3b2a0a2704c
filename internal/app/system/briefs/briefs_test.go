package briefs_test

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	documentstore "github.com/dalemusser/preemhub/internal/app/store/documents"
	"github.com/dalemusser/preemhub/internal/app/system/briefs"
	"github.com/dalemusser/preemhub/internal/app/system/docpath"
	"github.com/dalemusser/preemhub/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

const (
	orgPath     = "organizations/o"
	seriesPath  = orgPath + "/series/s"
	eventPath   = seriesPath + "/events/e"
	racePath    = eventPath + "/races/r"
	preemPath   = racePath + "/preems/p"
	contribPath = preemPath + "/contributions/c"
)

var day = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func put(t *testing.T, store *documentstore.MemStore, path string, v any) {
	t.Helper()
	fields, err := documentstore.ToFields(v)
	require.NoError(t, err)
	require.NoError(t, store.Put(path, fields))
}

// seed writes one fully briefed branch o/s/e/r/p/c.
func seed(t *testing.T, store *documentstore.MemStore, orgName string) {
	t.Helper()

	org := models.Organization{ID: "o", Path: orgPath, Name: orgName, Website: "https://o.example", MemberIDs: []string{"u1"}}
	orgBrief := briefs.BuildOrganizationBrief(org)
	put(t, store, orgPath, org)

	series := models.Series{ID: "s", Path: seriesPath, Name: "Series", StartDate: day, EndDate: day.AddDate(0, 3, 0), OrganizationBrief: orgBrief}
	seriesBrief := briefs.BuildSeriesBrief(series, orgBrief)
	put(t, store, seriesPath, series)

	event := models.Event{ID: "e", Path: eventPath, Name: "Event", Location: "SF", StartDate: day, SeriesBrief: seriesBrief}
	eventBrief := briefs.BuildEventBrief(event, seriesBrief)
	put(t, store, eventPath, event)

	race := models.Race{ID: "r", Path: racePath, Name: "Race", StartDate: day, Laps: 20, EventBrief: eventBrief}
	raceBrief := briefs.BuildRaceBrief(race, eventBrief)
	put(t, store, racePath, race)

	preem := models.Preem{ID: "p", Path: preemPath, Name: "Preem", Type: models.PreemPooled, Status: models.StatusOpen, RaceBrief: raceBrief}
	preemBrief := briefs.BuildPreemBrief(preem, raceBrief)
	put(t, store, preemPath, preem)

	contrib := models.Contribution{ID: "c", Path: contribPath, Amount: 25, Date: day, PreemBrief: preemBrief}
	put(t, store, contribPath, contrib)
}

func get[T any](t *testing.T, store documentstore.Store, path string) T {
	t.Helper()
	doc, err := store.Get(context.Background(), path)
	require.NoError(t, err)
	var v T
	require.NoError(t, doc.Decode(&v))
	return v
}

func TestBuildBriefs_DoNotMutateInputs(t *testing.T) {
	end := day.AddDate(0, 0, 1)
	orgBrief := &models.OrganizationBrief{ID: "o", Path: orgPath, Name: "Org"}
	seriesBrief := &models.SeriesBrief{ID: "s", Path: seriesPath, Name: "S", StartDate: &day, OrganizationBrief: orgBrief}
	event := models.Event{ID: "e", Path: eventPath, Name: "E", StartDate: day, EndDate: &end, Description: "private notes"}

	before := *seriesBrief
	beforeOrg := *orgBrief
	eb := briefs.BuildEventBrief(event, seriesBrief)

	// mutate every pointer reachable from the result
	eb.SeriesBrief.Name = "changed"
	eb.SeriesBrief.OrganizationBrief.Name = "changed"
	*eb.EndDate = day
	*eb.SeriesBrief.StartDate = end

	assert.Equal(t, "S", seriesBrief.Name)
	assert.Equal(t, beforeOrg, *orgBrief)
	assert.Equal(t, before.Path, seriesBrief.Path)
	assert.True(t, seriesBrief.StartDate.Equal(day))
	assert.True(t, event.EndDate.Equal(end))
}

func TestBuildBriefs_OnlyDisplayFields(t *testing.T) {
	user := models.User{ID: "u", Path: "users/u", Name: "Pat", Email: "pat@example.com", Role: models.RoleAdmin, AvatarURL: "https://a"}
	raw, err := json.Marshal(briefs.BuildUserBrief(user))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "pat@example.com")
	assert.NotContains(t, string(raw), "admin")

	preem := models.Preem{ID: "p", Path: preemPath, Name: "Sprint", Description: "secret", PrizePool: 100, Status: models.StatusAwarded}
	raw, err = bson.Marshal(briefs.BuildPreemBrief(preem, nil))
	require.NoError(t, err)
	var m bson.M
	require.NoError(t, bson.Unmarshal(raw, &m))
	for k := range m {
		assert.Contains(t, []string{"id", "path", "name", "race_brief"}, k)
	}
}

func TestBuildSeriesBrief_FallsBackToStoredParent(t *testing.T) {
	stored := &models.OrganizationBrief{ID: "o", Path: orgPath, Name: "Stored"}
	sb := briefs.BuildSeriesBrief(models.Series{ID: "s", Path: seriesPath, OrganizationBrief: stored}, nil)
	require.NotNil(t, sb.OrganizationBrief)
	assert.Equal(t, "Stored", sb.OrganizationBrief.Name)
	assert.NotSame(t, stored, sb.OrganizationBrief)
	assert.Nil(t, sb.StartDate, "zero dates are omitted")
}

func TestPrefix(t *testing.T) {
	assert.Equal(t, "organization_brief", briefs.Prefix(docpath.KindOrganization, docpath.KindSeries))
	assert.Equal(t, "series_brief.organization_brief", briefs.Prefix(docpath.KindOrganization, docpath.KindEvent))
	assert.Equal(t, "preem_brief.race_brief.event_brief.series_brief.organization_brief",
		briefs.Prefix(docpath.KindOrganization, docpath.KindContribution))
	assert.Equal(t, "race_brief.event_brief", briefs.Prefix(docpath.KindEvent, docpath.KindPreem))
	assert.Equal(t, "", briefs.Prefix(docpath.KindRace, docpath.KindRace))
	assert.Equal(t, "", briefs.Prefix(docpath.KindRace, docpath.KindSeries))
}

func TestRefreshDescendantBriefs_RenameOrganization(t *testing.T) {
	store := documentstore.NewMemStore()
	seed(t, store, "Old Name")
	ctx := context.Background()

	// the rename itself is written by the caller
	require.NoError(t, store.Set(ctx, orgPath, bson.M{"name": "New Name"}))

	p := briefs.NewPropagator(store, zap.NewNop(), 2)
	res, err := p.RefreshDescendantBriefs(ctx, orgPath, bson.M{"name": "New Name", "website": "ignored"})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Updated)
	assert.Equal(t, 5, res.Visited)
	assert.Zero(t, res.Failed)

	series := get[models.Series](t, store, seriesPath)
	assert.Equal(t, "New Name", series.OrganizationBrief.Name)
	assert.Equal(t, "Series", series.Name)

	event := get[models.Event](t, store, eventPath)
	assert.Equal(t, "New Name", event.SeriesBrief.OrganizationBrief.Name)
	assert.Equal(t, "Series", event.SeriesBrief.Name)
	assert.Equal(t, "SF", event.Location)

	c := get[models.Contribution](t, store, contribPath)
	assert.Equal(t, "New Name", c.PreemBrief.RaceBrief.EventBrief.SeriesBrief.OrganizationBrief.Name)
	assert.Equal(t, 25.0, c.Amount)
	assert.Equal(t, "Preem", c.PreemBrief.Name)

	org := get[models.Organization](t, store, orgPath)
	assert.Equal(t, "https://o.example", org.Website, "ancestor fields are not touched by refresh")
}

func TestRefreshDescendantBriefs_DateChangeOnEvent(t *testing.T) {
	store := documentstore.NewMemStore()
	seed(t, store, "Org")
	ctx := context.Background()
	newStart := day.AddDate(0, 0, 7)

	p := briefs.NewPropagator(store, zap.NewNop(), 0)
	res, err := p.RefreshDescendantBriefs(ctx, eventPath, bson.M{"start_date": newStart, "location": "LA"})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Updated) // race, preem, contribution

	race := get[models.Race](t, store, racePath)
	require.NotNil(t, race.EventBrief.StartDate)
	assert.True(t, race.EventBrief.StartDate.Equal(newStart))
	assert.True(t, race.StartDate.Equal(day), "race's own start date is untouched")

	preem := get[models.Preem](t, store, preemPath)
	assert.True(t, preem.RaceBrief.EventBrief.StartDate.Equal(newStart))
}

func TestRefreshDescendantBriefs_NoDisplayFields(t *testing.T) {
	store := documentstore.NewMemStore()
	seed(t, store, "Org")

	p := briefs.NewPropagator(store, zap.NewNop(), 0)
	res, err := p.RefreshDescendantBriefs(context.Background(), orgPath, bson.M{"website": "https://x"})
	require.NoError(t, err)
	assert.Zero(t, res.Visited)
}

func TestRefreshDescendantBriefs_InvalidPath(t *testing.T) {
	p := briefs.NewPropagator(documentstore.NewMemStore(), zap.NewNop(), 0)
	_, err := p.RefreshDescendantBriefs(context.Background(), "organizations/o/bogus/x", bson.M{"name": "x"})
	assert.ErrorIs(t, err, docpath.ErrInvalidPath)
}

func TestRefreshDescendantBriefs_PartialFailure(t *testing.T) {
	store := documentstore.NewMemStore()
	seed(t, store, "Old")
	ctx := context.Background()

	// second branch under the same series
	event2 := models.Event{ID: "e2", Path: seriesPath + "/events/e2", Name: "Event 2", StartDate: day}
	put(t, store, event2.Path, event2)

	boom := errors.New("write timeout")
	store.SetFault(func(op, path string) error {
		if op == documentstore.OpSet && path == eventPath {
			return boom
		}
		return nil
	})

	p := briefs.NewPropagator(store, zap.NewNop(), 4)
	res, err := p.RefreshDescendantBriefs(ctx, orgPath, bson.M{"name": "New"})
	require.Error(t, err)
	assert.ErrorIs(t, err, briefs.ErrPartialRefresh)
	assert.ErrorIs(t, err, boom)

	var pre *briefs.PartialRefreshError
	require.True(t, errors.As(err, &pre))
	assert.Equal(t, []string{eventPath}, pre.Failed)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 5, res.Updated) // series, e2, race, preem, contribution

	store.SetFault(nil)
	race := get[models.Race](t, store, racePath)
	assert.Equal(t, "New", race.EventBrief.SeriesBrief.OrganizationBrief.Name, "siblings and descendants of a failed write still refresh")
	event := get[models.Event](t, store, eventPath)
	assert.Equal(t, "Old", event.SeriesBrief.OrganizationBrief.Name)
}

func TestRefreshDescendantBriefs_ListFailure(t *testing.T) {
	store := documentstore.NewMemStore()
	seed(t, store, "Old")

	store.SetFault(func(op, path string) error {
		if op == documentstore.OpList && path == racePath {
			return errors.New("list failed")
		}
		return nil
	})

	p := briefs.NewPropagator(store, zap.NewNop(), 0)
	res, err := p.RefreshDescendantBriefs(context.Background(), orgPath, bson.M{"name": "New"})
	var pre *briefs.PartialRefreshError
	require.True(t, errors.As(err, &pre))
	assert.Equal(t, []string{racePath + "/preems"}, pre.Failed)
	assert.Equal(t, 3, res.Updated)
}

func TestReconcile_RepairsStaleAndMissingBriefs(t *testing.T) {
	store := documentstore.NewMemStore()
	seed(t, store, "New Name")
	ctx := context.Background()

	// a contribution written with the old name while a rename propagated
	stale := get[models.Contribution](t, store, contribPath)
	stale.ID, stale.Path = "c2", preemPath+"/contributions/c2"
	stale.PreemBrief.RaceBrief.EventBrief.SeriesBrief.OrganizationBrief.Name = "Old Name"
	put(t, store, stale.Path, stale)

	// a race written without any brief
	put(t, store, eventPath+"/races/r2", models.Race{Name: "Race 2", StartDate: day})

	r := briefs.NewReconciler(store, zap.NewNop(), 3)
	res, err := r.Reconcile(ctx, orgPath)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Updated)
	assert.Equal(t, 7, res.Visited)

	fixed := get[models.Contribution](t, store, stale.Path)
	assert.Equal(t, "New Name", fixed.PreemBrief.RaceBrief.EventBrief.SeriesBrief.OrganizationBrief.Name)

	r2 := get[models.Race](t, store, eventPath+"/races/r2")
	require.NotNil(t, r2.EventBrief)
	assert.Equal(t, eventPath, r2.EventBrief.Path)
	assert.Equal(t, "New Name", r2.EventBrief.SeriesBrief.OrganizationBrief.Name)

	// idempotent
	res, err = r.Reconcile(ctx, orgPath)
	require.NoError(t, err)
	assert.Zero(t, res.Updated)
}

func TestReconcile_SubtreeRootRepairsOwnBrief(t *testing.T) {
	store := documentstore.NewMemStore()
	seed(t, store, "Org")
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, seriesPath, bson.M{"name": "Renamed Series"}))

	r := briefs.NewReconciler(store, zap.NewNop(), 0)
	res, err := r.Reconcile(ctx, racePath)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Updated) // race itself, preem, contribution

	race := get[models.Race](t, store, racePath)
	assert.Equal(t, "Renamed Series", race.EventBrief.SeriesBrief.Name)
	c := get[models.Contribution](t, store, contribPath)
	assert.Equal(t, "Renamed Series", c.PreemBrief.RaceBrief.EventBrief.SeriesBrief.Name)

	// the event above the subtree root is left for its own pass
	event := get[models.Event](t, store, eventPath)
	assert.Equal(t, "Series", event.SeriesBrief.Name)
}

func TestReconcile_Errors(t *testing.T) {
	store := documentstore.NewMemStore()
	r := briefs.NewReconciler(store, zap.NewNop(), 0)

	_, err := r.Reconcile(context.Background(), orgPath)
	assert.ErrorIs(t, err, documentstore.ErrNotFound)

	_, err = r.Reconcile(context.Background(), contribPath)
	assert.ErrorIs(t, err, docpath.ErrInvalidPath)
}

func TestReconcileAll(t *testing.T) {
	store := documentstore.NewMemStore()
	seed(t, store, "Org")
	put(t, store, "organizations/o2", models.Organization{Name: "Two"})
	put(t, store, "organizations/o2/series/x", models.Series{Name: "X", StartDate: day, EndDate: day})

	r := briefs.NewReconciler(store, zap.NewNop(), 0)
	res, err := r.ReconcileAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)

	x := get[models.Series](t, store, "organizations/o2/series/x")
	require.NotNil(t, x.OrganizationBrief)
	assert.Equal(t, "Two", x.OrganizationBrief.Name)
}

func TestResolveChain(t *testing.T) {
	store := documentstore.NewMemStore()
	seed(t, store, "Org")
	ctx := context.Background()

	c, err := briefs.ResolveChain(ctx, store, racePath)
	require.NoError(t, err)
	require.NotNil(t, c.Race)
	assert.Nil(t, c.Preem)
	assert.Equal(t, "Race", c.Race.Name)
	assert.Equal(t, "Org", c.Race.EventBrief.SeriesBrief.OrganizationBrief.Name)
	assert.True(t, reflect.DeepEqual(c.Event, c.Race.EventBrief))

	_, err = briefs.ResolveChain(ctx, store, contribPath)
	assert.ErrorIs(t, err, docpath.ErrInvalidPath)

	_, err = briefs.ResolveChain(ctx, store, orgPath+"/series/missing")
	assert.ErrorIs(t, err, documentstore.ErrNotFound)
	assert.True(t, strings.Contains(err.Error(), "missing"))
}
