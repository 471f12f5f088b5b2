package schemas

import (
	"fmt"
	"net/http"

	"github.com/johnwards/backoffice/internal/api"
	"github.com/johnwards/backoffice/internal/entities"
	"github.com/johnwards/backoffice/internal/payload"
)

// Handler describes entity payload schemas to form renderers.
type Handler struct {
	registry *entities.Registry
}

type fieldView struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Required bool   `json:"required"`
	Nullable bool   `json:"nullable"`
	NotEmpty bool   `json:"notEmpty,omitempty"`
	Rules    string `json:"rules,omitempty"`
}

type modeView struct {
	Fields   []fieldView    `json:"fields"`
	Defaults map[string]any `json:"defaults"`
}

type entityView struct {
	Name   string   `json:"name"`
	Key    string   `json:"key"`
	Insert modeView `json:"insert"`
	Update modeView `json:"update"`
}

func describe(e *entities.Entity) entityView {
	mode := func(m payload.Mode) modeView {
		fields := e.Builder.Schema(m).Fields()
		mv := modeView{Fields: make([]fieldView, len(fields)), Defaults: e.Builder.Defaults(m)}
		for i, f := range fields {
			mv.Fields[i] = fieldView{
				Name:     f.Name,
				Kind:     string(f.Kind),
				Required: f.Required,
				Nullable: f.Nullable,
				NotEmpty: f.NotEmpty,
				Rules:    f.Rules,
			}
		}
		return mv
	}
	return entityView{
		Name:   e.Name,
		Key:    e.Key,
		Insert: mode(payload.ModeInsert),
		Update: mode(payload.ModeUpdate),
	}
}

// List returns every entity schema in declaration order.
func (h *Handler) List(w http.ResponseWriter, _ *http.Request) {
	all := h.registry.All()
	results := make([]any, len(all))
	for i, e := range all {
		results[i] = describe(e)
	}
	api.WriteJSON(w, http.StatusOK, api.CollectionResponse{Results: results})
}

// Get returns a single entity schema.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("entity")
	e, ok := h.registry.Get(name)
	if !ok {
		api.WriteError(w, http.StatusNotFound, api.NewNotFoundError(
			fmt.Sprintf("Unknown entity %s", name), api.CorrelationID(r.Context())))
		return
	}
	api.WriteJSON(w, http.StatusOK, describe(e))
}
