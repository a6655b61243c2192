package allocations

import (
	"github.com/go-chi/chi/v5"

	"github.com/prabhatdev/gramvani/internal/app/system/auth"
	"github.com/prabhatdev/gramvani/internal/app/system/hierarchy"
)

// Routes mounts the allocation routes (typically under "/allocations").
// Every signed-in account can read its own grants; granting and
// revoking is admin-tier only.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeMine)
		pr.Get("/summary", h.ServeSummary)

		pr.Group(func(ar chi.Router) {
			ar.Use(sm.RequireRole(hierarchy.Admins()...))
			ar.Post("/", h.HandleCreate)
			ar.Get("/user/{id}", h.ServeForUser)
			ar.Delete("/user/{id}/{allocationID}", h.HandleRemove)
		})
	})

	return r
}
