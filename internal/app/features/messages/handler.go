package messages

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/prabhatdev/gramvani/internal/app/features/shared"
	contactstore "github.com/prabhatdev/gramvani/internal/app/store/contacts"
	"github.com/prabhatdev/gramvani/internal/app/store/messagelog"
	"github.com/prabhatdev/gramvani/internal/app/system/activity"
	"github.com/prabhatdev/gramvani/internal/app/system/auth"
	"github.com/prabhatdev/gramvani/internal/app/system/dispatch"
	"github.com/prabhatdev/gramvani/internal/app/system/hierarchy"
	"github.com/prabhatdev/gramvani/internal/app/system/normalize"
	"github.com/prabhatdev/gramvani/internal/app/system/resolver"
	"github.com/prabhatdev/gramvani/internal/app/system/timeouts"
	"github.com/prabhatdev/gramvani/internal/domain/models"
)

// defaultLogLimit bounds message-log listings unless the client asks
// for less.
const defaultLogLimit = 100

type Handler struct {
	Resolver *resolver.Resolver
	Engine   *dispatch.Engine
	Contacts *contactstore.Store
	MsgLog   *messagelog.Store
	Activity *activity.Logger
	Log      *zap.Logger

	// Allocations is consulted to verify the sender's window is open.
	Allocations AllocationLister
}

// AllocationLister is the slice of the allocation store the send path
// needs.
type AllocationLister interface {
	ListForUserDistrict(ctx context.Context, userID primitive.ObjectID, district string) ([]models.Allocation, error)
}

func NewHandler(res *resolver.Resolver, eng *dispatch.Engine, contacts *contactstore.Store,
	allocs AllocationLister, msgLog *messagelog.Store, act *activity.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Resolver:    res,
		Engine:      eng,
		Contacts:    contacts,
		Allocations: allocs,
		MsgLog:      msgLog,
		Activity:    act,
		Log:         logger,
	}
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

// HandleSend processes POST /messages/send.
//
// The sender's allocation window must contain the current time; the
// main admin is exempt and may address any uploaded scope. A district
// send expands to the sender's active villages there (all villages for
// the main admin), deduplicated across village overlaps.
func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	actorUser, actorID, ok := sessionActor(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req sendRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	req.District = strings.TrimSpace(req.District)
	req.Village = strings.TrimSpace(req.Village)
	if req.District == "" || strings.TrimSpace(req.Message) == "" {
		shared.Error(w, http.StatusBadRequest, "district and message are required")
		return
	}
	if req.Channel == "" {
		req.Channel = models.ChannelWhatsApp
	}

	numbers, code, msg := h.resolveRecipients(r.Context(), actorUser, actorID, req.District, req.Village)
	if code != 0 {
		shared.Error(w, code, msg)
		return
	}

	area := req.District
	if req.Village != "" {
		area += " / " + req.Village
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
	defer cancel()

	res, err := h.Engine.Send(ctx, dispatch.Request{
		Numbers:     numbers,
		Message:     req.Message,
		Channel:     req.Channel,
		Area:        area,
		SentBy:      actorID,
		SentByEmail: actorUser.Email,
	})
	if err != nil {
		switch {
		case errors.Is(err, dispatch.ErrNoRecipients):
			shared.Error(w, http.StatusUnprocessableEntity, "no contacts with phone numbers in this scope")
		case errors.Is(err, dispatch.ErrChannelNotConfigured):
			shared.Error(w, http.StatusServiceUnavailable, err.Error())
		case errors.Is(err, dispatch.ErrEmptyMessage):
			shared.Error(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			// The batch was cut short but partial counts are real.
			h.Activity.MessagesSent(context.WithoutCancel(ctx), activity.Actor{ID: actorID, Email: actorUser.Email},
				req.Channel, area, res.Sent, res.Failed)
			shared.JSON(w, http.StatusOK, res)
		default:
			h.Log.Error("dispatch failed", zap.Error(err))
			shared.Error(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	h.Activity.MessagesSent(ctx, activity.Actor{ID: actorID, Email: actorUser.Email},
		req.Channel, area, res.Sent, res.Failed)
	shared.JSON(w, http.StatusOK, res)
}

// resolveRecipients maps a requested scope to phone numbers, enforcing
// allocation windows. Returns (numbers, 0, "") on success or a non-zero
// HTTP status and message on denial.
func (h *Handler) resolveRecipients(ctx context.Context, actorUser *auth.SessionUser, actorID primitive.ObjectID, district, village string) ([]string, int, string) {
	isRoot := hierarchy.Canonical(actorUser.Role) == hierarchy.RoleMainAdmin

	// Single village.
	if village != "" {
		if !isRoot {
			ok, err := h.holdsActiveAllocation(ctx, actorID, district, village)
			if err != nil {
				h.Log.Error("allocation check failed", zap.Error(err))
				return nil, http.StatusInternalServerError, "internal error"
			}
			if !ok {
				return nil, http.StatusForbidden, "this village is not allocated to you, or the access window is closed"
			}
		}
		numbers, err := h.Resolver.Resolve(ctx, actorID, district, village)
		if err != nil {
			h.Log.Error("recipient resolve failed", zap.Error(err))
			return nil, http.StatusInternalServerError, "internal error"
		}
		return numbers, 0, ""
	}

	// Whole district: expand to the active villages.
	var villages []string
	if isRoot {
		var err error
		villages, err = h.Contacts.Villages(ctx, district)
		if err != nil {
			h.Log.Error("village listing failed", zap.Error(err))
			return nil, http.StatusInternalServerError, "internal error"
		}
	} else {
		allocs, err := h.Allocations.ListForUserDistrict(ctx, actorID, district)
		if err != nil {
			h.Log.Error("allocation listing failed", zap.Error(err))
			return nil, http.StatusInternalServerError, "internal error"
		}
		now := time.Now()
		for _, a := range allocs {
			if a.ActiveOn(now) {
				villages = append(villages, a.Village)
			}
		}
		if len(villages) == 0 {
			return nil, http.StatusForbidden, "no active allocations in this district"
		}
	}

	seen := make(map[string]struct{})
	var numbers []string
	for _, v := range villages {
		vs, err := h.Resolver.Resolve(ctx, actorID, district, v)
		if err != nil {
			h.Log.Error("recipient resolve failed", zap.Error(err))
			return nil, http.StatusInternalServerError, "internal error"
		}
		for _, n := range vs {
			if _, dup := seen[n]; dup {
				continue
			}
			seen[n] = struct{}{}
			numbers = append(numbers, n)
		}
	}
	return numbers, 0, ""
}

func (h *Handler) holdsActiveAllocation(ctx context.Context, userID primitive.ObjectID, district, village string) (bool, error) {
	allocs, err := h.Allocations.ListForUserDistrict(ctx, userID, district)
	if err != nil {
		return false, err
	}
	now := time.Now()
	target := text.Fold(normalize.Place(village))
	for _, a := range allocs {
		if a.VillageCI == target && a.ActiveOn(now) {
			return true, nil
		}
	}
	return false, nil
}

// ServeLog handles GET /messages/log. The main admin may pass ?all=true
// to read every sender's batches.
func (h *Handler) ServeLog(w http.ResponseWriter, r *http.Request) {
	actorUser, actorID, ok := sessionActor(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit := int64(defaultLogLimit)
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil && n > 0 && n <= defaultLogLimit {
			limit = n
		}
	}

	var (
		list []models.MessageRecord
		err  error
	)
	if r.URL.Query().Get("all") == "true" && hierarchy.Canonical(actorUser.Role) == hierarchy.RoleMainAdmin {
		list, err = h.MsgLog.ListAll(r.Context(), limit)
	} else {
		list, err = h.MsgLog.ListForUser(r.Context(), actorID, limit)
	}
	if err != nil {
		h.Log.Error("message log read failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if list == nil {
		list = []models.MessageRecord{}
	}
	shared.JSON(w, http.StatusOK, list)
}

// HandleClearLog handles DELETE /messages/log; ?all=true (main admin
// only) wipes every sender's batches.
func (h *Handler) HandleClearLog(w http.ResponseWriter, r *http.Request) {
	actorUser, actorID, ok := sessionActor(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var (
		cleared int64
		err     error
		which   = "own message log"
	)
	if r.URL.Query().Get("all") == "true" {
		if hierarchy.Canonical(actorUser.Role) != hierarchy.RoleMainAdmin {
			shared.Error(w, http.StatusForbidden, "only the main admin may clear the full log")
			return
		}
		which = "full message log"
		cleared, err = h.MsgLog.ClearAll(r.Context())
	} else {
		cleared, err = h.MsgLog.ClearForUser(r.Context(), actorID)
	}
	if err != nil {
		h.Log.Error("message log clear failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.Activity.LogCleared(r.Context(), activity.Actor{ID: actorID, Email: actorUser.Email}, which, cleared)
	shared.JSON(w, http.StatusOK, map[string]int64{"cleared": cleared})
}
