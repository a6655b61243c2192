package users

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/prabhatdev/gramvani/internal/app/features/shared"
	userstore "github.com/prabhatdev/gramvani/internal/app/store/users"
	"github.com/prabhatdev/gramvani/internal/app/system/activity"
	"github.com/prabhatdev/gramvani/internal/app/system/auth"
	"github.com/prabhatdev/gramvani/internal/app/system/hierarchy"
	"github.com/prabhatdev/gramvani/internal/app/system/status"
	"github.com/prabhatdev/gramvani/internal/domain/models"
)

type Handler struct {
	Users    *userstore.Store
	Activity *activity.Logger
	Log      *zap.Logger
}

func NewHandler(users *userstore.Store, act *activity.Logger, logger *zap.Logger) *Handler {
	return &Handler{Users: users, Activity: act, Log: logger}
}

// actor resolves the signed-in user from the request context.
func actor(r *http.Request) (*auth.SessionUser, primitive.ObjectID, bool) {
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

// HandleCreate processes POST /users. The new account is created one
// level below the actor and parented to them; the role field is optional
// and only accepted when it names exactly that child role.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actorUser, actorID, ok := actor(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.FullName == "" || req.Email == "" || req.Password == "" {
		shared.Error(w, http.StatusBadRequest, "full_name, email and password are required")
		return
	}

	role := hierarchy.Canonical(req.Role)
	if role == "" {
		role = hierarchy.ChildRole(actorUser.Role)
	}
	if !hierarchy.CanCreate(actorUser.Role, role) {
		shared.Error(w, http.StatusForbidden, "you may only create accounts one level below your own role")
		return
	}

	created, err := h.Users.Create(r.Context(), models.User{
		FullName: req.FullName,
		Email:    req.Email,
		Mobile:   req.Mobile,
		Role:     role,
		ParentID: &actorID,
	}, req.Password)
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			shared.Error(w, http.StatusConflict, err.Error())
			return
		}
		h.Log.Error("user create failed", zap.Error(err))
		shared.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	h.Activity.UserCreated(r.Context(), activity.Actor{ID: actorID, Email: actorUser.Email}, created.Email, created.Role)
	shared.JSON(w, http.StatusCreated, toUserView(created))
}

// ServeList handles GET /users: the actor's direct children.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	_, actorID, ok := actor(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	children, err := h.Users.ListChildren(r.Context(), actorID)
	if err != nil {
		h.Log.Error("listing children failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	shared.JSON(w, http.StatusOK, toUserViews(children))
}

// ServeSubtree handles GET /users/subtree: every account below the
// actor, any depth.
func (h *Handler) ServeSubtree(w http.ResponseWriter, r *http.Request) {
	_, actorID, ok := actor(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	subtree, err := h.Users.ListSubtree(r.Context(), actorID)
	if err != nil {
		h.Log.Error("listing subtree failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	shared.JSON(w, http.StatusOK, toUserViews(subtree))
}

// ServeView handles GET /users/{id}. Visible targets are the actor
// itself and anyone in the actor's subtree.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	_, actorID, ok := actor(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	target, code, msg := h.visibleTarget(r, actorID, true)
	if target == nil {
		shared.Error(w, code, msg)
		return
	}
	shared.JSON(w, http.StatusOK, toUserView(*target))
}

// HandleStatus handles POST /users/{id}/status with {"status": "..."}.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	actorUser, actorID, ok := actor(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req statusRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if !status.IsValid(req.Status) {
		shared.Error(w, http.StatusBadRequest, `status must be "active" or "disabled"`)
		return
	}

	target, code, msg := h.visibleTarget(r, actorID, false)
	if target == nil {
		shared.Error(w, code, msg)
		return
	}

	if err := h.Users.UpdateStatus(r.Context(), target.ID, req.Status); err != nil {
		h.Log.Error("status update failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.Activity.UserStatusChanged(r.Context(), activity.Actor{ID: actorID, Email: actorUser.Email}, target.Email, req.Status)
	shared.JSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

// HandleDelete handles DELETE /users/{id}. Accounts with children must
// be emptied first; this keeps the tree free of orphans.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actorUser, actorID, ok := actor(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	target, code, msg := h.visibleTarget(r, actorID, false)
	if target == nil {
		shared.Error(w, code, msg)
		return
	}

	hasChildren, err := h.Users.HasChildren(r.Context(), target.ID)
	if err != nil {
		h.Log.Error("child check failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if hasChildren {
		shared.Error(w, http.StatusConflict, "account still has child accounts; delete or reassign them first")
		return
	}

	if _, err := h.Users.Delete(r.Context(), target.ID); err != nil {
		h.Log.Error("user delete failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.Activity.UserDeleted(r.Context(), activity.Actor{ID: actorID, Email: actorUser.Email}, target.Email, target.Role)
	shared.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// visibleTarget loads the {id} URL parameter and enforces subtree
// scoping. allowSelf additionally admits the actor's own record (used
// for viewing, never for mutation).
func (h *Handler) visibleTarget(r *http.Request, actorID primitive.ObjectID, allowSelf bool) (*models.User, int, string) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		return nil, http.StatusBadRequest, "invalid user id"
	}

	if id == actorID {
		if !allowSelf {
			return nil, http.StatusForbidden, "cannot modify your own account here"
		}
	} else {
		ok, err := h.Users.IsDescendant(r.Context(), actorID, id)
		if err != nil {
			h.Log.Error("descendant check failed", zap.Error(err))
			return nil, http.StatusInternalServerError, "internal error"
		}
		if !ok {
			// Same answer as a missing record; the tree is not enumerable
			// across branches.
			return nil, http.StatusNotFound, "user not found"
		}
	}

	target, err := h.Users.GetByID(r.Context(), id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, http.StatusNotFound, "user not found"
		}
		h.Log.Error("user lookup failed", zap.Error(err))
		return nil, http.StatusInternalServerError, "internal error"
	}
	return target, 0, ""
}
