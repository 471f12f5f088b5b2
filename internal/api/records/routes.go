package records

import (
	"net/http"

	"github.com/johnwards/backoffice/internal/crud"
	"github.com/johnwards/backoffice/internal/entities"
	"github.com/johnwards/backoffice/internal/store"
)

// RegisterRoutes adds the entity record endpoints for every entity in reg.
func RegisterRoutes(mux *http.ServeMux, s *store.Store, reg *entities.Registry, opts ...crud.Option) {
	h := NewHandler(s, reg, opts...)

	mux.HandleFunc("GET /api/v1/{entity}", h.List)
	mux.HandleFunc("POST /api/v1/{entity}", h.Upsert)
	mux.HandleFunc("GET /api/v1/{entity}/options", h.Options)
	mux.HandleFunc("GET /api/v1/{entity}/new", h.New)
	mux.HandleFunc("GET /api/v1/{entity}/{id}", h.Get)
	mux.HandleFunc("PUT /api/v1/{entity}/{id}", h.Update)
	mux.HandleFunc("DELETE /api/v1/{entity}/{id}", h.Delete)
}
