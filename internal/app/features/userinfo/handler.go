// internal/app/features/userinfo/handler.go
package userinfo

import (
	"net/http"

	uierrors "github.com/dalemusser/preemhub/internal/app/features/errors"
	"github.com/dalemusser/preemhub/internal/app/system/auth"
)

// Handler serves the signed-in user's identity.
type Handler struct{}

// NewHandler creates a new userinfo handler.
func NewHandler() *Handler {
	return &Handler{}
}

type userInfo struct {
	IsAuthenticated bool   `json:"isAuthenticated"`
	ID              string `json:"id"`
	Path            string `json:"path"`
	Name            string `json:"name"`
	LoginID         string `json:"login_id"`
	Role            string `json:"role"`
	AvatarURL       string `json:"avatarUrl,omitempty"`
}

// ServeUserInfo returns JSON with the current user's authentication status
// and identity.
//
//	{ "isAuthenticated": bool, "id": "...", "path": "users/...", "name": "...", "login_id": "...", "role": "..." }
func (h *Handler) ServeUserInfo(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.WriteJSON(w, http.StatusOK, userInfo{})
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, userInfo{
		IsAuthenticated: true,
		ID:              user.ID,
		Path:            user.Path(),
		Name:            user.Name,
		LoginID:         user.LoginID,
		Role:            user.Role,
		AvatarURL:       user.AvatarURL,
	})
}
