package schemas

import (
	"net/http"

	"github.com/johnwards/backoffice/internal/entities"
)

// RegisterRoutes registers the schema description endpoints on the mux.
func RegisterRoutes(mux *http.ServeMux, reg *entities.Registry) {
	h := &Handler{registry: reg}

	mux.HandleFunc("GET /api/v1/_schemas", h.List)
	mux.HandleFunc("GET /api/v1/{entity}/_schema", h.Get)
}
