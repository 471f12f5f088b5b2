// Package server assembles the HTTP handler from the API packages.
package server

import (
	"fmt"
	"net/http"

	"github.com/johnwards/backoffice/internal/api"
	"github.com/johnwards/backoffice/internal/api/admin"
	"github.com/johnwards/backoffice/internal/api/records"
	"github.com/johnwards/backoffice/internal/api/schemas"
	"github.com/johnwards/backoffice/internal/crud"
	"github.com/johnwards/backoffice/internal/entities"
	"github.com/johnwards/backoffice/internal/metrics"
	"github.com/johnwards/backoffice/internal/store"
)

// Deps are the collaborators the handler is built from.
type Deps struct {
	Store     *store.Store
	Registry  *entities.Registry
	Metrics   *metrics.Metrics
	AuthToken string
}

// New returns the full middleware-wrapped handler.
func New(d Deps) http.Handler {
	mux := http.NewServeMux()

	var opts []crud.Option
	if d.Metrics != nil {
		opts = append(opts, crud.WithObserver(d.Metrics.ObserveAction))
		mux.Handle("GET /metrics", d.Metrics.Handler())
	}

	schemas.RegisterRoutes(mux, d.Registry)
	records.RegisterRoutes(mux, d.Store, d.Registry, opts...)
	admin.RegisterRoutes(mux, d.Store, d.Registry)

	// Catch-all: return 404 in the API error format.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		corrID := api.CorrelationID(r.Context())
		api.WriteError(w, http.StatusNotFound, api.NewNotFoundError(
			fmt.Sprintf("No route found for %s %s", r.Method, r.URL.Path),
			corrID,
		))
	})

	return api.Chain(mux,
		api.Recovery(),
		api.RequestID(),
		api.Auth(d.AuthToken),
		api.JSONContentType(),
		api.Logging(),
	)
}
