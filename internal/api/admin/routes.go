package admin

import (
	"net/http"

	"github.com/johnwards/backoffice/internal/entities"
	"github.com/johnwards/backoffice/internal/store"
)

// RegisterRoutes registers the admin and health endpoints on the mux.
func RegisterRoutes(mux *http.ServeMux, s *store.Store, reg *entities.Registry) {
	h := &Handler{store: s, registry: reg, log: store.NewActionLog(s.DB, s.Dialect)}

	mux.HandleFunc("POST /_admin/reset", h.Reset)
	mux.HandleFunc("POST /_admin/seed", h.SeedData)
	mux.HandleFunc("GET /_admin/actions", h.Actions)
	mux.HandleFunc("GET /healthz", h.Health)
}
