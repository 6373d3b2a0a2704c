package manage_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	uierrors "github.com/dalemusser/preemhub/internal/app/features/errors"
	"github.com/dalemusser/preemhub/internal/app/features/manage"
	"github.com/dalemusser/preemhub/internal/app/features/pages"
	documentstore "github.com/dalemusser/preemhub/internal/app/store/documents"
	hierarchystore "github.com/dalemusser/preemhub/internal/app/store/hierarchy"
	metricsstore "github.com/dalemusser/preemhub/internal/app/store/metrics"
	"github.com/dalemusser/preemhub/internal/app/system/auth"
	"github.com/dalemusser/preemhub/internal/app/system/briefs"
	"github.com/dalemusser/preemhub/internal/app/system/ledger"
	"github.com/dalemusser/preemhub/internal/app/system/timeouts"
	"github.com/dalemusser/preemhub/internal/app/system/tree"
	"github.com/dalemusser/preemhub/internal/domain/models"
	"github.com/dalemusser/preemhub/internal/testutil"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type env struct {
	entities *hierarchystore.Store
	ledger   *ledger.Ledger
	router   chi.Router
	paths    testutil.Paths

	organizer testutil.TestUser
	outsider  testutil.TestUser
	admin     testutil.TestUser
}

func newEnv(t *testing.T) *env {
	t.Helper()
	logger := zap.NewNop()
	docs := documentstore.NewMemStore()
	entities := hierarchystore.New(docs, briefs.NewPropagator(docs, logger, 4), logger)
	l := ledger.New(docs, logger)
	loader := pages.NewLoader(tree.New(docs, logger, 4), entities)
	counts := func(context.Context) metricsstore.Counts { return metricsstore.Counts{Organizations: 1, Preems: 1} }
	h := manage.NewHandler(entities, loader, l, counts, timeouts.Defaults(), uierrors.NewErrorLogger(logger), logger)

	sm, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", time.Hour, false, logger)
	require.NoError(t, err)
	r := chi.NewRouter()
	r.Mount("/manage", manage.Routes(h, sm))

	return &env{
		entities:  entities,
		ledger:    l,
		router:    r,
		paths:     testutil.NewFixtures(t, docs).SeedHierarchy(context.Background(), "velo"),
		organizer: testutil.OrganizerUser("organizer-velo"),
		outsider:  testutil.OrganizerUser("someone-else"),
		admin:     testutil.AdminUser(),
	}
}

func (e *env) do(t *testing.T, user *testutil.TestUser, method, target, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	if path != "" {
		target += "?path=" + url.QueryEscape(path)
	}
	var req *http.Request
	if body != nil {
		req = testutil.NewJSONRequest(t, method, target, body)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if user != nil {
		req = testutil.WithUser(req, *user)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestDashboard(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, &e.organizer, "GET", "/manage", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var data struct {
		Organizations []models.Organization `json:"organizations"`
		Counts        *metricsstore.Counts  `json:"counts"`
	}
	testutil.DecodeJSON(t, rec, &data)
	require.Len(t, data.Organizations, 1)
	assert.Equal(t, e.paths.Organization, data.Organizations[0].Path)
	assert.Nil(t, data.Counts, "totals are admin only")

	rec = e.do(t, &e.outsider, "GET", "/manage", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data.Organizations, data.Counts = nil, nil
	testutil.DecodeJSON(t, rec, &data)
	assert.Empty(t, data.Organizations)

	rec = e.do(t, &e.admin, "GET", "/manage", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	testutil.DecodeJSON(t, rec, &data)
	require.NotNil(t, data.Counts)
	assert.Equal(t, int64(1), data.Counts.Preems)

	assert.Equal(t, http.StatusUnauthorized, e.do(t, nil, "GET", "/manage", "", nil).Code)
}

func TestDetail_Permissions(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name   string
		user   *testutil.TestUser
		target string
		path   string
		status int
	}{
		{"organizer", &e.organizer, "/manage/race", e.paths.Race, http.StatusOK},
		{"admin", &e.admin, "/manage/preem", e.paths.Preem, http.StatusOK},
		{"outsider", &e.outsider, "/manage/race", e.paths.Race, http.StatusForbidden},
		{"wrong kind", &e.organizer, "/manage/event", e.paths.Race, http.StatusBadRequest},
		{"unknown kind", &e.organizer, "/manage/lap", e.paths.Race, http.StatusBadRequest},
		{"missing", &e.organizer, "/manage/race", e.paths.Event + "/races/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(t, tt.user, "GET", tt.target, tt.path, nil)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestServeEdit(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, &e.organizer, "GET", "/manage/series/edit", e.paths.Series, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var data struct {
		Kind      string `json:"kind"`
		Entity    models.Series
		Timezones []struct {
			Region string `json:"region"`
		} `json:"timezones"`
	}
	testutil.DecodeJSON(t, rec, &data)
	assert.Equal(t, "series", data.Kind)
	assert.Equal(t, "Series velo", data.Entity.Name)
	assert.NotEmpty(t, data.Timezones)

	rec = e.do(t, &e.organizer, "GET", "/manage/organization/edit", e.paths.Organization, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "timezones")
}

func TestHandleEdit_RenamePropagates(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, &e.organizer, "POST", "/manage/organization/edit", e.paths.Organization, map[string]any{"name": "Velo Club"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res hierarchystore.UpdateResult
	testutil.DecodeJSON(t, rec, &res)
	assert.Equal(t, []string{"name"}, res.Changed)
	require.NotNil(t, res.Refresh)
	assert.Equal(t, 4, res.Refresh.Updated)
	assert.Empty(t, res.Warnings)

	race, err := e.entities.GetRace(context.Background(), e.paths.Race)
	require.NoError(t, err)
	assert.Equal(t, "Velo Club", race.EventBrief.SeriesBrief.OrganizationBrief.Name)
}

func TestHandleEdit_Rejections(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, &e.organizer, "POST", "/manage/organization/edit", e.paths.Organization, map[string]any{"name": " "})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = e.do(t, &e.organizer, "POST", "/manage/race/edit", e.paths.Race, map[string]any{"startDate": "2026-05-01T00:00:00Z"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "race before its event")

	rec = e.do(t, &e.outsider, "POST", "/manage/series/edit", e.paths.Series, map[string]any{"name": "Mine"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(t, &e.organizer, "POST", "/manage/series/edit", e.paths.Series, map[string]any{"title": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleEdit_ThresholdRecomputes(t *testing.T) {
	e := newEnv(t)
	_, err := e.ledger.Contribute(context.Background(), e.paths.Preem, ledger.ContributionInput{Amount: 30})
	require.NoError(t, err)

	rec := e.do(t, &e.organizer, "POST", "/manage/preem/edit", e.paths.Preem, map[string]any{"minimumThreshold": 25})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res struct {
		Recompute *ledger.RecomputeResult `json:"recompute"`
	}
	testutil.DecodeJSON(t, rec, &res)
	require.NotNil(t, res.Recompute)
	assert.Equal(t, models.StatusMinimumMet, res.Recompute.Status)
	assert.Equal(t, 30.0, res.Recompute.PrizePool)
}

func TestHandleCreate(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, &e.organizer, "POST", "/manage/event/new", e.paths.Series+"/events", map[string]any{
		"id": "uptown", "name": "Uptown GP", "startDate": "2026-06-01T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var ev models.Event
	testutil.DecodeJSON(t, rec, &ev)
	assert.Equal(t, e.paths.Series+"/events/uptown", ev.Path)
	require.NotNil(t, ev.SeriesBrief)
	assert.Equal(t, "Series velo", ev.SeriesBrief.Name)

	rec = e.do(t, &e.outsider, "POST", "/manage/organization/new", "organizations", map[string]any{"name": "New Club"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var org models.Organization
	testutil.DecodeJSON(t, rec, &org)
	assert.Equal(t, []string{e.outsider.ID}, org.MemberIDs)

	tests := []struct {
		name   string
		user   *testutil.TestUser
		target string
		path   string
		body   map[string]any
		status int
	}{
		{"collection mismatch", &e.organizer, "/manage/race/new", e.paths.Series + "/events", map[string]any{"name": "x"}, http.StatusBadRequest},
		{"not a collection", &e.organizer, "/manage/event/new", e.paths.Series, map[string]any{"name": "x"}, http.StatusBadRequest},
		{"out of range", &e.organizer, "/manage/event/new", e.paths.Series + "/events", map[string]any{"name": "Winter", "startDate": "2026-02-01T00:00:00Z"}, http.StatusUnprocessableEntity},
		{"duplicate id", &e.organizer, "/manage/event/new", e.paths.Series + "/events", map[string]any{"id": "uptown", "name": "Again", "startDate": "2026-06-02T00:00:00Z"}, http.StatusConflict},
		{"outsider", &e.outsider, "/manage/preem/new", e.paths.Race + "/preems", map[string]any{"name": "Prime", "type": "Pooled"}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(t, tt.user, "POST", tt.target, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestAwardAndRecompute(t *testing.T) {
	e := newEnv(t)
	_, err := e.ledger.Contribute(context.Background(), e.paths.Preem, ledger.ContributionInput{Amount: 12.5})
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, e.do(t, &e.outsider, "POST", "/manage/preem/award", e.paths.Preem, nil).Code)

	rec := e.do(t, &e.organizer, "POST", "/manage/preem/recompute", e.paths.Preem, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var rr ledger.RecomputeResult
	testutil.DecodeJSON(t, rec, &rr)
	assert.Equal(t, 12.5, rr.PrizePool)
	assert.Equal(t, 1, rr.Contributions)

	rec = e.do(t, &e.organizer, "POST", "/manage/preem/award", e.paths.Preem, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var ar ledger.AwardResult
	testutil.DecodeJSON(t, rec, &ar)
	assert.Equal(t, models.StatusAwarded, ar.Status)
	assert.False(t, ar.AlreadyAwarded)

	rec = e.do(t, &e.organizer, "POST", "/manage/preem/award", e.paths.Preem, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	testutil.DecodeJSON(t, rec, &ar)
	assert.True(t, ar.AlreadyAwarded)

	assert.Equal(t, http.StatusBadRequest, e.do(t, &e.organizer, "POST", "/manage/preem/award", e.paths.Race, nil).Code)
}

func TestMembers(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, &e.organizer, "POST", "/manage/organization/members", e.paths.Organization, map[string]string{"userId": "ana"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var org models.Organization
	testutil.DecodeJSON(t, rec, &org)
	assert.ElementsMatch(t, []string{"organizer-velo", "ana"}, org.MemberIDs)

	ana := testutil.OrganizerUser("ana")
	assert.Equal(t, http.StatusOK, e.do(t, &ana, "GET", "/manage/organization", e.paths.Organization, nil).Code)

	rec = e.do(t, &ana, "POST", "/manage/organization/members/remove", e.paths.Organization, map[string]string{"userId": "organizer-velo"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = e.do(t, &ana, "POST", "/manage/organization/members/remove", e.paths.Organization, map[string]string{"userId": "ana"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "last member stays")

	rec = e.do(t, &e.outsider, "POST", "/manage/organization/members", e.paths.Organization, map[string]string{"userId": "x"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
