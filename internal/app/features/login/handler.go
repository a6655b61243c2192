package login

import (
	"context"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/prabhatdev/gramvani/internal/app/features/shared"
	userstore "github.com/prabhatdev/gramvani/internal/app/store/users"
	"github.com/prabhatdev/gramvani/internal/app/system/activity"
	"github.com/prabhatdev/gramvani/internal/app/system/auth"
	"github.com/prabhatdev/gramvani/internal/app/system/status"
	"github.com/prabhatdev/gramvani/internal/app/system/timeouts"
)

type Handler struct {
	Users      *userstore.Store
	SessionMgr *auth.SessionManager
	Activity   *activity.Logger
	Log        *zap.Logger
}

func NewHandler(users *userstore.Store, sm *auth.SessionManager, act *activity.Logger, logger *zap.Logger) *Handler {
	return &Handler{Users: users, SessionMgr: sm, Activity: act, Log: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// HandleLogin processes POST /login.
//
// A failed attempt always yields the same 401 body whether the email is
// unknown, the password is wrong, or the account is disabled; the
// distinction lives only in the activity log.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		shared.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	ctx := r.Context()
	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err != mongo.ErrNoDocuments {
			h.Log.Error("login: user lookup failed", zap.Error(err))
			shared.Error(w, http.StatusInternalServerError, "internal error")
			return
		}
		h.Activity.LoginFailed(ctx, req.Email, "unknown email")
		shared.Error(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if u.Status == status.Disabled {
		h.Activity.LoginFailed(ctx, u.Email, "account disabled")
		shared.Error(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if !h.Users.VerifyPassword(u, req.Password) {
		h.Activity.LoginFailed(ctx, u.Email, "wrong password")
		shared.Error(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := h.SessionMgr.Establish(w, r, auth.SessionUser{
		ID:    u.ID.Hex(),
		Name:  u.FullName,
		Email: u.Email,
		Role:  u.Role,
	}); err != nil {
		h.Log.Error("login: session save failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	logCtx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()
	h.Activity.LoginSuccess(logCtx, activity.Actor{ID: u.ID, Email: u.Email})

	shared.JSON(w, http.StatusOK, loginResponse{
		ID:       u.ID.Hex(),
		FullName: u.FullName,
		Email:    u.Email,
		Role:     u.Role,
	})
}
