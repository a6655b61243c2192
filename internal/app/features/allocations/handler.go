package allocations

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/prabhatdev/gramvani/internal/app/features/shared"
	userstore "github.com/prabhatdev/gramvani/internal/app/store/users"
	"github.com/prabhatdev/gramvani/internal/app/system/activity"
	"github.com/prabhatdev/gramvani/internal/app/system/allocator"
	"github.com/prabhatdev/gramvani/internal/app/system/auth"
	"github.com/prabhatdev/gramvani/internal/app/system/hierarchy"
	"github.com/prabhatdev/gramvani/internal/domain/models"
)

// dateLayout is the wire format for allocation windows.
const dateLayout = "2006-01-02"

type Handler struct {
	Allocator *allocator.Manager
	Users     *userstore.Store
	Activity  *activity.Logger
	Log       *zap.Logger
}

func NewHandler(mgr *allocator.Manager, users *userstore.Store, act *activity.Logger, logger *zap.Logger) *Handler {
	return &Handler{Allocator: mgr, Users: users, Activity: act, Log: logger}
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

// HandleCreate processes POST /allocations: grant villages to a user
// one level below the actor (or to the main admin itself).
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actorUser, actorID, ok := sessionActor(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.UserID == "" || req.District == "" || req.StartDate == "" || req.EndDate == "" {
		shared.Error(w, http.StatusBadRequest, "user_id, district, start_date and end_date are required")
		return
	}

	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		shared.Error(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		shared.Error(w, http.StatusBadRequest, "end_date must be YYYY-MM-DD")
		return
	}
	if end.Before(start) {
		shared.Error(w, http.StatusBadRequest, "end_date must not be before start_date")
		return
	}

	grantee, code, msg := h.granteeInScope(r, actorUser, actorID, req.UserID)
	if grantee == nil {
		shared.Error(w, code, msg)
		return
	}

	res, err := h.Allocator.Allocate(r.Context(), allocator.Request{
		GranteeID:    grantee.ID,
		GranteeEmail: grantee.Email,
		District:     req.District,
		Villages:     req.Villages,
		StartDate:    start,
		EndDate:      end,
		GrantorID:    actorID,
		GrantorEmail: actorUser.Email,
	})
	act := activity.Actor{ID: actorID, Email: actorUser.Email}
	if err != nil {
		switch {
		case errors.Is(err, allocator.ErrNoVillages):
			shared.Error(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, allocator.ErrAllFailed):
			h.Activity.AllocationCreated(r.Context(), act, grantee.Email, req.District, 0, res.Requested)
			shared.JSON(w, http.StatusConflict, toCreateResponse(res))
		default:
			h.Log.Error("allocation failed", zap.Error(err))
			shared.Error(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	h.Activity.AllocationCreated(r.Context(), act, grantee.Email, req.District, res.Allocated, res.Requested)
	shared.JSON(w, http.StatusCreated, toCreateResponse(res))
}

// ServeMine handles GET /allocations: the actor's own grants, flagged
// with whether each window is currently open.
func (h *Handler) ServeMine(w http.ResponseWriter, r *http.Request) {
	_, actorID, ok := sessionActor(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	h.serveListFor(w, r, actorID)
}

// ServeSummary handles GET /allocations/summary.
func (h *Handler) ServeSummary(w http.ResponseWriter, r *http.Request) {
	_, actorID, ok := sessionActor(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	sum, err := h.Allocator.Summarize(r.Context(), actorID)
	if err != nil {
		h.Log.Error("summarize failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	shared.JSON(w, http.StatusOK, sum)
}

// ServeForUser handles GET /allocations/user/{id}: a grantor reviewing
// what one of their users holds.
func (h *Handler) ServeForUser(w http.ResponseWriter, r *http.Request) {
	actorUser, actorID, ok := sessionActor(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	grantee, code, msg := h.granteeInScope(r, actorUser, actorID, chi.URLParam(r, "id"))
	if grantee == nil {
		shared.Error(w, code, msg)
		return
	}
	h.serveListFor(w, r, grantee.ID)
}

// HandleRemove handles DELETE /allocations/user/{id}/{allocationID}:
// revoking one village from one grantee.
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	actorUser, actorID, ok := sessionActor(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	grantee, code, msg := h.granteeInScope(r, actorUser, actorID, chi.URLParam(r, "id"))
	if grantee == nil {
		shared.Error(w, code, msg)
		return
	}

	allocID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "allocationID"))
	if err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid allocation id")
		return
	}

	// Load before delete so the log can name the scope being revoked.
	var district, village string
	if a, err := h.Allocator.GetByID(r.Context(), allocID); err == nil {
		district, village = a.District, a.Village
	}

	removed, err := h.Allocator.Remove(r.Context(), grantee.ID, allocID)
	if err != nil {
		h.Log.Error("allocation remove failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !removed {
		shared.Error(w, http.StatusNotFound, "allocation not found")
		return
	}

	h.Activity.AllocationRemoved(r.Context(), activity.Actor{ID: actorID, Email: actorUser.Email},
		grantee.Email, district, village)
	shared.JSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (h *Handler) serveListFor(w http.ResponseWriter, r *http.Request, userID primitive.ObjectID) {
	list, err := h.Allocator.ListForUser(r.Context(), userID)
	if err != nil {
		h.Log.Error("listing allocations failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	now := time.Now()
	out := make([]allocationView, 0, len(list))
	for _, a := range list {
		out = append(out, toAllocationView(a, now))
	}
	shared.JSON(w, http.StatusOK, out)
}

// granteeInScope loads a grantee by hex id and checks the actor may
// allocate to them: a direct child one role below, or the main admin
// itself. Out-of-scope grantees answer 404 like missing ones.
func (h *Handler) granteeInScope(r *http.Request, actorUser *auth.SessionUser, actorID primitive.ObjectID, hexID string) (*models.User, int, string) {
	id, err := primitive.ObjectIDFromHex(hexID)
	if err != nil {
		return nil, http.StatusBadRequest, "invalid user id"
	}

	grantee, err := h.Users.GetByID(r.Context(), id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, http.StatusNotFound, "user not found"
		}
		h.Log.Error("grantee lookup failed", zap.Error(err))
		return nil, http.StatusInternalServerError, "internal error"
	}

	if !hierarchy.CanAllocateTo(actorUser.Role, grantee.Role) {
		return nil, http.StatusForbidden, "you may only allocate one level below your own role"
	}
	if grantee.ID == actorID {
		return grantee, 0, "" // main admin self-allocation
	}
	if grantee.ParentID == nil || *grantee.ParentID != actorID {
		return nil, http.StatusNotFound, "user not found"
	}
	return grantee, 0, ""
}
