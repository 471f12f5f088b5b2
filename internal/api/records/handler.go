package records

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/johnwards/backoffice/internal/api"
	"github.com/johnwards/backoffice/internal/crud"
	"github.com/johnwards/backoffice/internal/domain"
	"github.com/johnwards/backoffice/internal/entities"
	"github.com/johnwards/backoffice/internal/payload"
	"github.com/johnwards/backoffice/internal/store"
)

const maxBodyBytes = 1 << 20

// Handler serves CRUD endpoints for catalog entities.
type Handler struct {
	store   *store.Store
	actions map[string]*crud.Actions
	log     *store.ActionLog
}

// NewHandler creates the actions for every entity in reg.
func NewHandler(s *store.Store, reg *entities.Registry, opts ...crud.Option) *Handler {
	h := &Handler{
		store:   s,
		actions: make(map[string]*crud.Actions),
		log:     store.NewActionLog(s.DB, s.Dialect),
	}
	for _, e := range reg.All() {
		h.actions[e.Name] = crud.New(e.Name, s.Bind(e.Table()), e.Builder, e.Key, opts...)
	}
	return h
}

// resolve returns the actions for the {entity} path value, writing a 404 if
// the entity is unknown.
func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) (*crud.Actions, bool) {
	name := r.PathValue("entity")
	a, ok := h.actions[name]
	if !ok {
		api.WriteError(w, http.StatusNotFound, api.NewNotFoundError(
			fmt.Sprintf("Unknown entity %s", name), api.CorrelationID(r.Context())))
	}
	return a, ok
}

// List handles GET /api/v1/{entity}.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	a, ok := h.resolve(w, r)
	if !ok {
		return
	}
	corrID := api.CorrelationID(r.Context())

	opts, err := api.ListOptsFromQuery(r)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError("Invalid paging parameters", corrID, nil))
		return
	}

	page, err := a.Service(h.store.DB).List(r.Context(), opts)
	if err != nil {
		if errors.Is(err, store.ErrInvalidCursor) {
			api.WriteError(w, http.StatusBadRequest, api.NewValidationError("Invalid after cursor", corrID, nil))
			return
		}
		h.internalError(w, r, err)
		return
	}

	results := make([]any, len(page.Results))
	for i, rec := range page.Results {
		results[i] = rec
	}
	resp := api.CollectionResponse{Results: results}
	if page.HasMore {
		resp.Paging = api.NewPaging(page.After)
	}
	api.WriteJSON(w, http.StatusOK, resp)
}

// Options handles GET /api/v1/{entity}/options.
func (h *Handler) Options(w http.ResponseWriter, r *http.Request) {
	a, ok := h.resolve(w, r)
	if !ok {
		return
	}

	options, err := a.Service(h.store.DB).Options(r.Context())
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, struct {
		Results []domain.Option `json:"results"`
	}{Results: options})
}

// New handles GET /api/v1/{entity}/new, returning the insert defaults.
func (h *Handler) New(w http.ResponseWriter, r *http.Request) {
	a, ok := h.resolve(w, r)
	if !ok {
		return
	}
	h.writeOutcome(w, r, a, crud.ActionLoad, a.Load(r.Context(), h.store.DB, ""))
}

// Get handles GET /api/v1/{entity}/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	a, ok := h.resolve(w, r)
	if !ok {
		return
	}
	h.writeOutcome(w, r, a, crud.ActionLoad, a.Load(r.Context(), h.store.DB, r.PathValue("id")))
}

// Upsert handles POST /api/v1/{entity}. The body is either JSON or form
// encoded; a non-empty key field selects update.
func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request) {
	a, ok := h.resolve(w, r)
	if !ok {
		return
	}
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}
	h.upsert(w, r, a, in)
}

// Update handles PUT /api/v1/{entity}/{id}. The path id replaces any key in
// the body.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	a, ok := h.resolve(w, r)
	if !ok {
		return
	}
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}
	in[a.Key()] = r.PathValue("id")
	h.upsert(w, r, a, in)
}

func (h *Handler) upsert(w http.ResponseWriter, r *http.Request, a *crud.Actions, in payload.Input) {
	ctx := r.Context()

	tx, err := h.store.DB.BeginTx(ctx, nil)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	out := a.Upsert(ctx, tx, in)
	if out.OK() {
		if err := tx.Commit(); err != nil {
			slog.ErrorContext(ctx, "commit upsert", "entity", a.Entity(), "error", err)
			out = crud.Outcome{Status: crud.StatusFailed, Mode: out.Mode, Message: "Could not save " + a.Label()}
		}
	} else {
		_ = tx.Rollback()
	}
	h.writeOutcome(w, r, a, crud.ActionUpsert, out)
}

// Delete handles DELETE /api/v1/{entity}/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	a, ok := h.resolve(w, r)
	if !ok {
		return
	}
	h.writeOutcome(w, r, a, crud.ActionDelete, a.Delete(r.Context(), h.store.DB, r.PathValue("id")))
}

// writeOutcome maps an action outcome onto the HTTP response and records
// mutating actions in the action log.
func (h *Handler) writeOutcome(w http.ResponseWriter, r *http.Request, a *crud.Actions, action string, out crud.Outcome) {
	ctx := r.Context()
	corrID := api.CorrelationID(ctx)

	if action != crud.ActionLoad {
		entry := domain.ActionEntry{
			Entity:        a.Entity(),
			Action:        action,
			Status:        string(out.Status),
			CorrelationID: corrID,
		}
		switch {
		case out.Record != nil:
			entry.RecordID = out.Record.ID(a.Key())
		case action == crud.ActionDelete:
			entry.RecordID = r.PathValue("id")
		}
		if err := h.log.Append(ctx, entry); err != nil {
			slog.WarnContext(ctx, "action log append failed", "error", err)
		}
	}

	switch out.Status {
	case crud.StatusOK:
		switch {
		case action == crud.ActionDelete:
			w.WriteHeader(http.StatusNoContent)
		case action == crud.ActionUpsert && out.Mode == payload.ModeInsert:
			api.WriteJSON(w, http.StatusCreated, out.Record)
		default:
			api.WriteJSON(w, http.StatusOK, out.Record)
		}
	case crud.StatusInvalid:
		api.WriteError(w, http.StatusUnprocessableEntity, api.NewValidationError("Validation failed", corrID, out.Errors))
	case crud.StatusNotFound:
		api.WriteError(w, http.StatusNotFound, api.NewNotFoundError(out.Message, corrID))
	default:
		api.WriteError(w, http.StatusInternalServerError, api.NewPersistenceError(out.Message, corrID))
	}
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	api.WriteError(w, http.StatusInternalServerError, api.NewInternalError(api.CorrelationID(r.Context())))
}

// decodeInput reads a form-encoded or JSON body into an Input. It writes a
// 400 response and returns false when the body cannot be read.
func decodeInput(w http.ResponseWriter, r *http.Request) (payload.Input, bool) {
	corrID := api.CorrelationID(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			api.WriteError(w, http.StatusBadRequest, api.NewValidationError("Invalid form body", corrID, nil))
			return nil, false
		}
		return payload.InputFromForm(r.PostForm), true
	}

	body := map[string]any{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError("Invalid input JSON", corrID, nil))
		return nil, false
	}
	in, err := payload.InputFromJSON(body)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError(err.Error(), corrID, nil))
		return nil, false
	}
	return in, true
}
