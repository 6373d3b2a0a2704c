package login_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	uierrors "github.com/dalemusser/preemhub/internal/app/features/errors"
	"github.com/dalemusser/preemhub/internal/app/features/login"
	documentstore "github.com/dalemusser/preemhub/internal/app/store/documents"
	userstore "github.com/dalemusser/preemhub/internal/app/store/users"
	"github.com/dalemusser/preemhub/internal/app/system/auth"
	"github.com/dalemusser/preemhub/internal/app/system/timeouts"
	"github.com/dalemusser/preemhub/internal/domain/models"
	"github.com/dalemusser/preemhub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newHandler(t *testing.T) (*login.Handler, *userstore.Store, *auth.SessionManager) {
	t.Helper()
	logger := zap.NewNop()
	sm, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", 24*time.Hour, false, logger)
	require.NoError(t, err)
	users := userstore.New(documentstore.NewMemStore(), logger)
	return login.NewHandler(users, sm, uierrors.NewErrorLogger(logger), timeouts.Defaults(), logger), users, sm
}

func TestLogin_JSONCreatesUserAndSession(t *testing.T) {
	h, users, sm := newHandler(t)

	req := testutil.NewJSONRequest(t, "POST", "/", map[string]string{
		"id": "ana", "name": "Ana Ruiz", "email": "ana@example.com", "role": "organizer",
	})
	rec := httptest.NewRecorder()
	login.Routes(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var u models.User
	testutil.DecodeJSON(t, rec, &u)
	assert.Equal(t, "users/ana", u.Path)
	assert.Equal(t, models.RoleOrganizer, u.Role)

	stored, err := users.Get(context.Background(), "ana")
	require.NoError(t, err)
	assert.Equal(t, "Ana Ruiz", stored.Name)

	// the cookie must carry the user into the next request
	next := httptest.NewRequest("GET", "/", nil)
	for _, c := range rec.Result().Cookies() {
		next.AddCookie(c)
	}
	var seen *auth.SessionUser
	sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.CurrentUser(r)
	})).ServeHTTP(httptest.NewRecorder(), next)
	require.NotNil(t, seen)
	assert.Equal(t, "ana", seen.ID)
	assert.Equal(t, "ana@example.com", seen.LoginID)
}

func TestLogin_FormRedirectsToSafeReturn(t *testing.T) {
	h, _, _ := newHandler(t)

	tests := []struct {
		ret  string
		want string
	}{
		{"/manage/race", "/manage/race"},
		{"", "/manage"},
	}
	for _, tt := range tests {
		form := url.Values{"id": {"ana"}, "name": {"Ana"}, "return": {tt.ret}}
		req := httptest.NewRequest("POST", "/", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		login.Routes(h).ServeHTTP(rec, req)

		if rec.Code != http.StatusSeeOther {
			t.Fatalf("return %q: expected 303, got %d", tt.ret, rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != tt.want {
			t.Errorf("return %q: Location %q, want %q", tt.ret, loc, tt.want)
		}
	}
}

func TestLogin_InvalidProfile(t *testing.T) {
	h, _, _ := newHandler(t)

	req := testutil.NewJSONRequest(t, "POST", "/", map[string]string{"id": "a/b", "name": "Ana"})
	rec := httptest.NewRecorder()
	login.Routes(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestServeLogin_EchoesReturn(t *testing.T) {
	h, _, _ := newHandler(t)
	rec := httptest.NewRecorder()
	login.Routes(h).ServeHTTP(rec, httptest.NewRequest("GET", "/?return=/manage", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	testutil.DecodeJSON(t, rec, &body)
	assert.Equal(t, "/manage", body["return"])
}
