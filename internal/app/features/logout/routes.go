package logout

import "github.com/go-chi/chi/v5"

// Routes returns the logout subrouter.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.HandleLogout)
	return r
}
