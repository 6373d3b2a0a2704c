// internal/app/features/login/handler.go
//
// Package login is the development sign-in: it trusts the profile it is
// given, records the user document and starts a session. It is mounted only
// when dev_login is enabled.
package login

import (
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/preemhub/internal/app/features/errors"
	userstore "github.com/dalemusser/preemhub/internal/app/store/users"
	"github.com/dalemusser/preemhub/internal/app/system/auth"
	"github.com/dalemusser/preemhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.uber.org/zap"
)

type Handler struct {
	Users      *userstore.Store
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	Timeouts   timeouts.Config
	Log        *zap.Logger
}

func NewHandler(users *userstore.Store, sessionMgr *auth.SessionManager, errLog *uierrors.ErrorLogger, to timeouts.Config, logger *zap.Logger) *Handler {
	return &Handler{
		Users:      users,
		SessionMgr: sessionMgr,
		ErrLog:     errLog,
		Timeouts:   to.WithDefaults(),
		Log:        logger,
	}
}

type loginRequest struct {
	userstore.Input
	Return string `json:"return"`
}

type loginHint struct {
	Message string `json:"message"`
	Return  string `json:"return,omitempty"`
}

// ServeLogin handles GET /login. There is no form; it describes the POST.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	uierrors.WriteJSON(w, http.StatusOK, loginHint{
		Message: "POST id and name (optionally email, avatarUrl, role) to sign in.",
		Return:  query.Get(r, "return"),
	})
}

// HandleLoginPost handles POST /login. JSON callers get the signed-in user
// back; form posts are redirected to their return url.
func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	req, isJSON, err := h.parse(w, r)
	if err != nil {
		h.ErrLog.Write(w, r, "parse login", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), h.Timeouts.Write, h.Log, "login")
	defer cancel()

	u, created, err := h.Users.Upsert(ctx, req.Input)
	if errors.Is(err, userstore.ErrInvalidUser) {
		err = uierrors.BadRequest("%s", strings.TrimPrefix(err.Error(), userstore.ErrInvalidUser.Error()+": "))
	}
	if err != nil {
		h.ErrLog.Write(w, r, "login", err)
		return
	}

	su := &auth.SessionUser{
		ID:        u.ID,
		Name:      u.Name,
		LoginID:   u.Email,
		Role:      u.Role,
		AvatarURL: u.AvatarURL,
	}
	if err := h.SessionMgr.SignIn(w, r, su); err != nil {
		h.ErrLog.Write(w, r, "save session", err)
		return
	}
	h.Log.Info("user signed in",
		zap.String("user_id", u.ID),
		zap.String("role", u.Role),
		zap.Bool("first_sign_in", created))

	if isJSON {
		uierrors.WriteJSON(w, http.StatusOK, u)
		return
	}
	http.Redirect(w, r, urlutil.SafeReturn(req.Return, "", "/manage"), http.StatusSeeOther)
}

func (h *Handler) parse(w http.ResponseWriter, r *http.Request) (loginRequest, bool, error) {
	var req loginRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		err := uierrors.DecodeJSON(w, r, &req)
		return req, true, err
	}
	if err := r.ParseForm(); err != nil {
		return req, false, uierrors.BadRequest("invalid form data")
	}
	req.ID = r.PostFormValue("id")
	req.Name = r.PostFormValue("name")
	req.Email = r.PostFormValue("email")
	req.AvatarURL = r.PostFormValue("avatarUrl")
	req.Role = r.PostFormValue("role")
	req.Return = r.PostFormValue("return")
	return req, false, nil
}
