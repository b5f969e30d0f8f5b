package journal

import "github.com/go-chi/chi/v5"

// MountRoutes registers draft and journal list routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/journals", h.list)
	r.Route("/drafts", func(r chi.Router) {
		r.Post("/", h.open)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.view)
			r.Patch("/", h.updateHeader)
			r.Delete("/", h.discard)
			r.Post("/lines", h.addLine)
			r.Patch("/lines/{index}", h.updateLine)
			r.Delete("/lines/{index}", h.removeLine)
			r.Get("/accounts", h.accounts)
			r.Get("/scopes", h.scopes)
			r.Post("/submit", h.submit)
		})
	})
}
