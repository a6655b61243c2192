package contacts

import (
	"github.com/go-chi/chi/v5"

	"github.com/prabhatdev/gramvani/internal/app/system/auth"
	"github.com/prabhatdev/gramvani/internal/app/system/hierarchy"
)

// Routes mounts the contact-data routes (typically under "/contacts").
// Browsing districts and villages is open to every signed-in account —
// field users need them to pick send scopes — but uploading, exporting,
// and deleting data is admin-tier only.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/districts", h.ServeDistricts)
		pr.Get("/villages", h.ServeVillages)
		pr.Get("/count", h.ServeCount)

		pr.Group(func(ar chi.Router) {
			ar.Use(sm.RequireRole(hierarchy.Admins()...))
			ar.Post("/upload", h.HandleUpload)
			ar.Get("/export", h.ServeExport)
			ar.Delete("/", h.HandleDelete)
		})
	})

	return r
}
