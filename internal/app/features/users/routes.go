package users

import (
	"github.com/go-chi/chi/v5"

	"github.com/prabhatdev/gramvani/internal/app/system/auth"
	"github.com/prabhatdev/gramvani/internal/app/system/hierarchy"
)

// Routes mounts the account-management routes (typically under
// "/users"). Only the three admin tiers may manage accounts; field
// users have no one below them.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(hierarchy.Admins()...))

		pr.Post("/", h.HandleCreate)
		pr.Get("/", h.ServeList)
		pr.Get("/subtree", h.ServeSubtree)
		pr.Get("/{id}", h.ServeView)
		pr.Patch("/{id}/status", h.HandleStatus)
		pr.Delete("/{id}", h.HandleDelete)
	})

	return r
}
