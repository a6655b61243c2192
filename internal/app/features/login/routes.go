package login

import "github.com/go-chi/chi/v5"

// Routes returns the login subrouter. The bootstrap wraps it with the
// login rate limiter before mounting.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.HandleLogin)
	return r
}
