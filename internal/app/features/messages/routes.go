package messages

import (
	"github.com/go-chi/chi/v5"

	"github.com/prabhatdev/gramvani/internal/app/system/auth"
)

// Routes mounts the dispatch routes (typically under "/messages").
// Every signed-in account may send within its allocations; the
// bootstrap wraps the send route with a rate limiter.
func Routes(h *Handler, sm *auth.SessionManager, sendLimiter func(chi.Router)) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Group(func(sr chi.Router) {
			if sendLimiter != nil {
				sendLimiter(sr)
			}
			sr.Post("/send", h.HandleSend)
		})

		pr.Get("/log", h.ServeLog)
		pr.Delete("/log", h.HandleClearLog)
	})

	return r
}
