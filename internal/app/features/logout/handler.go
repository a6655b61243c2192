package logout

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/prabhatdev/gramvani/internal/app/features/shared"
	"github.com/prabhatdev/gramvani/internal/app/system/activity"
	"github.com/prabhatdev/gramvani/internal/app/system/auth"
)

type Handler struct {
	SessionMgr *auth.SessionManager
	Activity   *activity.Logger
	Log        *zap.Logger
}

func NewHandler(sm *auth.SessionManager, act *activity.Logger, logger *zap.Logger) *Handler {
	return &Handler{SessionMgr: sm, Activity: act, Log: logger}
}

// HandleLogout processes POST /logout. Clearing an absent session is
// fine; the endpoint is idempotent.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		if id, err := primitive.ObjectIDFromHex(u.ID); err == nil {
			h.Activity.Logout(r.Context(), activity.Actor{ID: id, Email: u.Email})
		}
	}

	if err := h.SessionMgr.Clear(w, r); err != nil {
		h.Log.Error("logout: session clear failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	shared.JSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}
