package admin

import (
	"errors"
	"net/http"

	"github.com/johnwards/backoffice/internal/api"
	"github.com/johnwards/backoffice/internal/database"
	"github.com/johnwards/backoffice/internal/entities"
	"github.com/johnwards/backoffice/internal/seed"
	"github.com/johnwards/backoffice/internal/store"
)

// Handler serves the admin API at /_admin/.
type Handler struct {
	store    *store.Store
	registry *entities.Registry
	log      *store.ActionLog
}

// Reset drops all data from all tables and re-runs seeds.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := seed.Reset(r.Context(), h.store, h.registry, database.DataTables); err != nil {
		h.fail(w, r, "failed to reset", err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SeedData runs seed data without dropping existing data first.
func (h *Handler) SeedData(w http.ResponseWriter, r *http.Request) {
	if err := seed.Seed(r.Context(), h.store, h.registry); err != nil {
		h.fail(w, r, "failed to seed", err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Actions returns action log entries, newest first, with cursor-based pagination.
func (h *Handler) Actions(w http.ResponseWriter, r *http.Request) {
	opts, err := api.ListOptsFromQuery(r)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError("Invalid paging parameters", api.CorrelationID(r.Context()), nil))
		return
	}

	entries, next, err := h.log.List(r.Context(), opts)
	if err != nil {
		if errors.Is(err, store.ErrInvalidCursor) {
			api.WriteError(w, http.StatusBadRequest, api.NewValidationError("Invalid after cursor", api.CorrelationID(r.Context()), nil))
			return
		}
		h.fail(w, r, "failed to read action log", err)
		return
	}

	results := make([]any, len(entries))
	for i := range entries {
		results[i] = entries[i]
	}
	api.WriteJSON(w, http.StatusOK, api.CollectionResponse{Results: results, Paging: api.NewPaging(next)})
}

// Health reports whether the database is reachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DB.PingContext(r.Context()); err != nil {
		api.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	corrID := api.CorrelationID(r.Context())
	api.WriteError(w, http.StatusInternalServerError, &api.Error{
		Status:        "error",
		Message:       msg + ": " + err.Error(),
		CorrelationID: corrID,
		Category:      api.CategoryInternalError,
	})
}
