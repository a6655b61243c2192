package activity

import (
	"net/http"
	"strconv"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/prabhatdev/gramvani/internal/app/features/shared"
	"github.com/prabhatdev/gramvani/internal/app/store/activitylog"
	actsvc "github.com/prabhatdev/gramvani/internal/app/system/activity"
	"github.com/prabhatdev/gramvani/internal/app/system/auth"
	"github.com/prabhatdev/gramvani/internal/app/system/hierarchy"
	"github.com/prabhatdev/gramvani/internal/domain/models"
)

const defaultLimit = 100

type Handler struct {
	Store    *activitylog.Store
	Activity *actsvc.Logger
	Log      *zap.Logger
}

func NewHandler(store *activitylog.Store, act *actsvc.Logger, logger *zap.Logger) *Handler {
	return &Handler{Store: store, Activity: act, Log: logger}
}

func sessionActor(r *http.Request) (*auth.SessionUser, primitive.ObjectID, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return nil, primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return nil, primitive.NilObjectID, false
	}
	return u, id, true
}

// ServeList handles GET /activity: the actor's own entries, newest
// first. The main admin may pass ?all=true for the global feed.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actorUser, actorID, ok := sessionActor(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit := int64(defaultLimit)
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil && n > 0 && n <= defaultLimit {
			limit = n
		}
	}

	var (
		list []models.ActivityEntry
		err  error
	)
	if r.URL.Query().Get("all") == "true" && hierarchy.Canonical(actorUser.Role) == hierarchy.RoleMainAdmin {
		list, err = h.Store.ListAll(r.Context(), limit)
	} else {
		list, err = h.Store.ListForActor(r.Context(), actorID, limit)
	}
	if err != nil {
		h.Log.Error("activity log read failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if list == nil {
		list = []models.ActivityEntry{}
	}
	shared.JSON(w, http.StatusOK, list)
}

// HandleClear handles DELETE /activity; ?all=true (main admin only)
// wipes every actor's entries. The clear itself is logged, so the log
// records its own truncation.
func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	actorUser, actorID, ok := sessionActor(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var (
		cleared int64
		err     error
		which   = "own activity log"
	)
	if r.URL.Query().Get("all") == "true" {
		if hierarchy.Canonical(actorUser.Role) != hierarchy.RoleMainAdmin {
			shared.Error(w, http.StatusForbidden, "only the main admin may clear the full log")
			return
		}
		which = "full activity log"
		cleared, err = h.Store.ClearAll(r.Context())
	} else {
		cleared, err = h.Store.ClearForActor(r.Context(), actorID)
	}
	if err != nil {
		h.Log.Error("activity log clear failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.Activity.LogCleared(r.Context(), actsvc.Actor{ID: actorID, Email: actorUser.Email}, which, cleared)
	shared.JSON(w, http.StatusOK, map[string]int64{"cleared": cleared})
}
