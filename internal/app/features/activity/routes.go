package activity

import (
	"github.com/go-chi/chi/v5"

	"github.com/prabhatdev/gramvani/internal/app/system/auth"
	"github.com/prabhatdev/gramvani/internal/app/system/hierarchy"
)

// Routes mounts the activity-log routes (typically under "/activity").
// Reading and clearing the log is admin-tier only.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(hierarchy.Admins()...))

		pr.Get("/", h.ServeList)
		pr.Delete("/", h.HandleClear)
	})

	return r
}
