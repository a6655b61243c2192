package contacts

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/prabhatdev/gramvani/internal/app/features/shared"
	contactstore "github.com/prabhatdev/gramvani/internal/app/store/contacts"
	"github.com/prabhatdev/gramvani/internal/app/system/activity"
	"github.com/prabhatdev/gramvani/internal/app/system/auth"
	"github.com/prabhatdev/gramvani/internal/app/system/csvutil"
	"github.com/prabhatdev/gramvani/internal/app/system/timeouts"
)

type Handler struct {
	Contacts *contactstore.Store
	Activity *activity.Logger
	Log      *zap.Logger
}

func NewHandler(contacts *contactstore.Store, act *activity.Logger, logger *zap.Logger) *Handler {
	return &Handler{Contacts: contacts, Activity: act, Log: logger}
}

func actorOf(r *http.Request) (activity.Actor, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return activity.Actor{}, false
	}
	id, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return activity.Actor{}, false
	}
	return activity.Actor{ID: id, Email: u.Email}, true
}

// HandleUpload processes POST /contacts/upload: a multipart form with
// district and village fields and a "file" CSV part.
//
// The file is pre-scanned in full before anything is written, so a file
// with a broken schema rejects without inserting a single contact. Rows
// that fail individually are reported back but do not block the rest.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, csvutil.MaxUploadSize)
	if err := r.ParseMultipartForm(csvutil.MaxUploadSize); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	district := strings.TrimSpace(r.FormValue("district"))
	village := strings.TrimSpace(r.FormValue("village"))
	if district == "" || village == "" {
		shared.Error(w, http.StatusBadRequest, "district and village are required")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		shared.Error(w, http.StatusBadRequest, `a CSV file part named "file" is required`)
		return
	}
	defer file.Close()

	rows, rowErrs, err := csvutil.PreScanContactsCSV(file)
	if err != nil {
		shared.Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if len(rows) == 0 {
		shared.Error(w, http.StatusUnprocessableEntity, "file contains no usable rows")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
	defer cancel()

	inserted, err := h.Contacts.BulkInsert(ctx, district, village, rows, actor.ID)
	if err != nil {
		h.Log.Error("contact bulk insert failed",
			zap.String("district", district),
			zap.String("village", village),
			zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.Activity.ContactsUploaded(ctx, actor, district, village, inserted)

	resp := uploadResponse{Inserted: inserted}
	for _, re := range rowErrs {
		resp.RowErrors = append(resp.RowErrors, rowErrorView{Line: re.Line, Reason: re.Reason})
	}
	shared.JSON(w, http.StatusOK, resp)
}

// ServeDistricts handles GET /contacts/districts.
func (h *Handler) ServeDistricts(w http.ResponseWriter, r *http.Request) {
	districts, err := h.Contacts.Districts(r.Context())
	if err != nil {
		h.Log.Error("listing districts failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	sort.Strings(districts)
	shared.JSON(w, http.StatusOK, map[string][]string{"districts": districts})
}

// ServeVillages handles GET /contacts/villages?district=…
func (h *Handler) ServeVillages(w http.ResponseWriter, r *http.Request) {
	district := strings.TrimSpace(r.URL.Query().Get("district"))
	if district == "" {
		shared.Error(w, http.StatusBadRequest, "district query parameter is required")
		return
	}

	villages, err := h.Contacts.Villages(r.Context(), district)
	if err != nil {
		h.Log.Error("listing villages failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	sort.Strings(villages)
	shared.JSON(w, http.StatusOK, map[string][]string{"villages": villages})
}

// ServeCount handles GET /contacts/count?district=…&village=…
func (h *Handler) ServeCount(w http.ResponseWriter, r *http.Request) {
	district := strings.TrimSpace(r.URL.Query().Get("district"))
	village := strings.TrimSpace(r.URL.Query().Get("village"))
	if district == "" || village == "" {
		shared.Error(w, http.StatusBadRequest, "district and village query parameters are required")
		return
	}

	count, err := h.Contacts.CountByScope(r.Context(), district, village)
	if err != nil {
		h.Log.Error("counting contacts failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	shared.JSON(w, http.StatusOK, map[string]int64{"count": count})
}

// ServeExport handles GET /contacts/export?district=…&village=… and
// streams the scope back in the canonical CSV layout. village may be
// omitted to export a whole district.
func (h *Handler) ServeExport(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	district := strings.TrimSpace(r.URL.Query().Get("district"))
	village := strings.TrimSpace(r.URL.Query().Get("village"))
	if district == "" {
		shared.Error(w, http.StatusBadRequest, "district query parameter is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	list, err := h.Contacts.ListByScope(ctx, district, village)
	if err != nil {
		h.Log.Error("export query failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	rows := make([]csvutil.ContactCSVRow, 0, len(list))
	extraSet := map[string]struct{}{}
	for _, c := range list {
		rows = append(rows, csvutil.ContactCSVRow{
			Name:    c.Name,
			Mobile:  c.Mobile,
			Address: c.Address,
			Extra:   c.Extra,
		})
		for k := range c.Extra {
			extraSet[k] = struct{}{}
		}
	}
	extraHeaders := make([]string, 0, len(extraSet))
	for k := range extraSet {
		extraHeaders = append(extraHeaders, k)
	}
	sort.Strings(extraHeaders)

	filename := district
	if village != "" {
		filename += "_" + village
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+"_contacts.csv"))

	if err := csvutil.WriteContactsCSV(w, rows, extraHeaders); err != nil {
		h.Log.Error("writing export failed", zap.Error(err))
		return
	}

	h.Activity.ContactsExported(ctx, actor, district, village, len(rows))
}

// HandleDelete handles DELETE /contacts?district=…&village=…; omitting
// village wipes the whole district.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	district := strings.TrimSpace(r.URL.Query().Get("district"))
	village := strings.TrimSpace(r.URL.Query().Get("village"))
	if district == "" {
		shared.Error(w, http.StatusBadRequest, "district query parameter is required")
		return
	}

	deleted, err := h.Contacts.DeleteByScope(r.Context(), district, village)
	if err != nil {
		h.Log.Error("contact delete failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.Activity.ContactsDeleted(r.Context(), actor, district, village, deleted)
	shared.JSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}
