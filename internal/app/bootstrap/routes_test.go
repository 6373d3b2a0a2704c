package bootstrap

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	documentstore "github.com/dalemusser/preemhub/internal/app/store/documents"
	metricsstore "github.com/dalemusser/preemhub/internal/app/store/metrics"
	"github.com/dalemusser/preemhub/internal/app/system/auth"
	"github.com/dalemusser/preemhub/internal/app/system/urlrewrite"
	"github.com/dalemusser/preemhub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

type okPinger struct{}

func (okPinger) Ping(context.Context, *readpref.ReadPref) error { return nil }

type testApp struct {
	handler http.Handler
	paths   testutil.Paths
}

func newTestApp(t *testing.T, devLogin bool) *testApp {
	t.Helper()
	cfg := validAppConfig()
	cfg.DevLogin = devLogin
	return newTestAppWith(t, cfg)
}

func newTestAppWith(t *testing.T, cfg AppConfig) *testApp {
	t.Helper()
	logger := zap.NewNop()
	docs := documentstore.NewMemStore()

	c := &Components{}
	buildComponents(c, docs, cfg, logger)
	t.Cleanup(c.stop)

	sm, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", time.Hour, false, logger)
	require.NoError(t, err)

	h, err := newRouter(routerDeps{
		Components: c,
		Sessions:   sm,
		Pinger:     okPinger{},
		Counts:     func(context.Context) metricsstore.Counts { return metricsstore.Counts{} },
		DevLogin:   cfg.DevLogin,
	}, logger)
	require.NoError(t, err)

	return &testApp{
		handler: h,
		paths:   testutil.NewFixtures(t, docs).SeedHierarchy(context.Background(), "velo"),
	}
}

func (a *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func TestRouter_FriendlyURLsRenderPages(t *testing.T) {
	a := newTestApp(t, false)

	tests := []struct {
		url  string
		key  string
		path string
	}{
		{"/velo", "organization", a.paths.Organization},
		{"/velo/velo-series", "series", a.paths.Series},
		{"/velo/velo-series/velo-event", "event", a.paths.Event},
		{"/velo/velo-series/velo-event/velo-race", "race", a.paths.Race},
		{"/velo/velo-series/velo-event/velo-race/velo-preem", "preem", a.paths.Preem},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			rec := a.do(httptest.NewRequest("GET", tt.url, nil))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var body map[string]json.RawMessage
			testutil.DecodeJSON(t, rec, &body)
			require.Contains(t, body, tt.key)
			var entity struct {
				Path string `json:"path"`
			}
			require.NoError(t, json.Unmarshal(body[tt.key], &entity))
			assert.Equal(t, tt.path, entity.Path)
		})
	}
}

func TestRouter_PageTargetsServeDirectly(t *testing.T) {
	a := newTestApp(t, false)

	rec := a.do(httptest.NewRequest("GET", "/race?"+urlrewrite.PathParam+"="+url.QueryEscape(a.paths.Race), nil))
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(httptest.NewRequest("GET", "/nobody", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_OperationalEndpoints(t *testing.T) {
	a := newTestApp(t, false)

	tests := []struct {
		target string
		want   int
	}{
		{"/health", http.StatusOK},
		{"/metrics", http.StatusOK},
		{"/api/user", http.StatusOK},
		{"/api/resolve?url=" + url.QueryEscape("/velo/velo-series"), http.StatusOK},
		{"/api/resolve", http.StatusBadRequest},
		{"/forbidden", http.StatusForbidden},
		{"/unauthorized", http.StatusUnauthorized},
		{"/api/nothing-here", http.StatusNotFound},
		{"/api/admin/reconcile", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := a.do(httptest.NewRequest("GET", tt.target, nil))
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestRouter_DevLoginIsGated(t *testing.T) {
	off := newTestApp(t, false)
	rec := off.do(httptest.NewRequest("GET", "/login", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	on := newTestApp(t, true)
	rec = on.do(httptest.NewRequest("GET", "/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_ManageRequiresSession(t *testing.T) {
	a := newTestApp(t, false)

	rec := a.do(httptest.NewRequest("GET", "/manage", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(httptest.NewRequest("GET", "/manage/velo", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_SignInThenContribute(t *testing.T) {
	a := newTestApp(t, true)

	rec := a.do(testutil.NewJSONRequest(t, "POST", "/login", map[string]string{"id": "fan", "name": "Fan Club"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	withSession := func(req *http.Request) *http.Request {
		for _, c := range cookies {
			req.AddCookie(c)
		}
		return req
	}

	target := "/preem/contribute?" + urlrewrite.PathParam + "=" + url.QueryEscape(a.paths.Preem)
	rec = a.do(testutil.NewJSONRequest(t, "POST", target, map[string]any{"amount": 25}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(withSession(testutil.NewJSONRequest(t, "POST", target, map[string]any{"amount": 25})))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(httptest.NewRequest("GET", "/velo/velo-series/velo-event/velo-race/velo-preem", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Preem struct {
			PrizePool float64 `json:"prizePool"`
		} `json:"preem"`
		Contributions []struct {
			Amount float64 `json:"amount"`
		} `json:"contributions"`
	}
	testutil.DecodeJSON(t, rec, &page)
	require.Len(t, page.Contributions, 1)
	assert.Equal(t, 25.0, page.Contributions[0].Amount)
	assert.Equal(t, 25.0, page.Preem.PrizePool)

	rec = a.do(withSession(httptest.NewRequest("POST", "/logout", nil)))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestRouter_RateLimits(t *testing.T) {
	cfg := validAppConfig()
	cfg.DevLogin = true
	cfg.LoginRateLimit = 2
	cfg.WriteRateLimit = 3
	a := newTestAppWith(t, cfg)

	login := func() int {
		return a.do(testutil.NewJSONRequest(t, "POST", "/login", map[string]string{"id": "fan", "name": "Fan"})).Code
	}
	assert.Equal(t, http.StatusOK, login())
	assert.Equal(t, http.StatusOK, login())
	// the write limit is still under its cap, so the login limit answers
	assert.Equal(t, http.StatusTooManyRequests, login())
	// third write for this IP
	assert.Equal(t, http.StatusTooManyRequests, a.do(httptest.NewRequest("POST", "/logout", nil)).Code)

	// reads are never limited
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, a.do(httptest.NewRequest("GET", "/velo", nil)).Code)
	}
}
