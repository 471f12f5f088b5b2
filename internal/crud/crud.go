// Package crud composes a payload builder with an entity service into the
// load/upsert/delete actions behind every edit form.
package crud

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/johnwards/backoffice/internal/domain"
	"github.com/johnwards/backoffice/internal/payload"
	"github.com/johnwards/backoffice/internal/store"
)

// Status classifies the result of an action.
type Status string

const (
	StatusOK       Status = "ok"
	StatusInvalid  Status = "invalid"
	StatusNotFound Status = "not_found"
	StatusFailed   Status = "failed"
)

// Action names reported to observers.
const (
	ActionLoad   = "load"
	ActionUpsert = "upsert"
	ActionDelete = "delete"
)

// Outcome is what an action hands back to the routing layer. Errors carries
// field-level validation messages; Message carries the single form-level
// message for not_found and failed outcomes.
type Outcome struct {
	Status  Status
	Mode    payload.Mode
	Record  domain.Record
	Errors  payload.FieldErrors
	Message string
}

// OK reports whether the action succeeded.
func (o Outcome) OK() bool { return o.Status == StatusOK }

// Observer is notified after every action.
type Observer func(entity, action string, status Status)

// Option configures Actions.
type Option func(*Actions)

// WithObserver registers an action observer.
func WithObserver(o Observer) Option {
	return func(a *Actions) { a.observer = o }
}

// WithLogger sets the logger used for persistence failures.
func WithLogger(l *slog.Logger) Option {
	return func(a *Actions) { a.logger = l }
}

// Actions holds the standard actions for one entity.
type Actions struct {
	entity     string
	key        string
	builder    *payload.Builder
	newService func(store.Querier) store.EntityService
	observer   Observer
	logger     *slog.Logger
}

// New creates the actions for entity. newService binds the entity's service
// to a request-scoped handle; key names the identifying field that selects
// update mode.
func New(entity string, newService func(store.Querier) store.EntityService, builder *payload.Builder, key string, opts ...Option) *Actions {
	a := &Actions{
		entity:     entity,
		key:        key,
		builder:    builder,
		newService: newService,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Entity returns the entity name.
func (a *Actions) Entity() string { return a.entity }

// Key returns the identifying field.
func (a *Actions) Key() string { return a.key }

// Builder returns the entity's payload builder.
func (a *Actions) Builder() *payload.Builder { return a.builder }

// Service binds the entity service to q.
func (a *Actions) Service(q store.Querier) store.EntityService { return a.newService(q) }

// Upsert validates raw and creates or updates the record. The mode is
// selected by the presence of the identifying key.
func (a *Actions) Upsert(ctx context.Context, q store.Querier, raw payload.Input) Outcome {
	mode := payload.ModeFor(raw, a.key)
	res := a.builder.Build(mode, raw)
	if !res.OK() {
		return a.finish(ActionUpsert, Outcome{Status: StatusInvalid, Mode: mode, Errors: res.Errors})
	}

	svc := a.newService(q)
	var (
		rec domain.Record
		err error
	)
	switch mode {
	case payload.ModeInsert:
		rec, err = svc.Create(ctx, res.Data)
	case payload.ModeUpdate:
		id, _ := res.Data[a.key].(int64)
		data := make(map[string]any, len(res.Data))
		for k, v := range res.Data {
			if k != a.key {
				data[k] = v
			}
		}
		rec, err = svc.Update(ctx, id, data)
	}
	if err != nil {
		return a.finish(ActionUpsert, a.persistenceFailure(ctx, ActionUpsert, mode, err, "Could not save "+a.Label()))
	}
	return a.finish(ActionUpsert, Outcome{Status: StatusOK, Mode: mode, Record: rec})
}

// Delete removes the record identified by id.
func (a *Actions) Delete(ctx context.Context, q store.Querier, id string) Outcome {
	n, bad := a.parseID(id)
	if bad != nil {
		return a.finish(ActionDelete, Outcome{Status: StatusInvalid, Mode: payload.ModeUpdate, Errors: bad})
	}

	if err := a.newService(q).Delete(ctx, n); err != nil {
		return a.finish(ActionDelete, a.persistenceFailure(ctx, ActionDelete, payload.ModeUpdate, err, "Could not delete "+a.Label()))
	}
	return a.finish(ActionDelete, Outcome{Status: StatusOK, Mode: payload.ModeUpdate})
}

// Load returns the record for an edit form. An empty id yields a blank insert
// form prefilled with the insert defaults.
func (a *Actions) Load(ctx context.Context, q store.Querier, id string) Outcome {
	if strings.TrimSpace(id) == "" {
		return a.finish(ActionLoad, Outcome{
			Status: StatusOK,
			Mode:   payload.ModeInsert,
			Record: domain.Record(a.builder.Defaults(payload.ModeInsert)),
		})
	}

	n, bad := a.parseID(id)
	if bad != nil {
		return a.finish(ActionLoad, Outcome{Status: StatusInvalid, Mode: payload.ModeUpdate, Errors: bad})
	}

	rec, err := a.newService(q).Get(ctx, n)
	if err != nil {
		return a.finish(ActionLoad, a.persistenceFailure(ctx, ActionLoad, payload.ModeUpdate, err, "Could not load "+a.Label()))
	}
	return a.finish(ActionLoad, Outcome{Status: StatusOK, Mode: payload.ModeUpdate, Record: rec})
}

// parseID normalises a path or query identifier the same way the numeric_id
// transformer does for form input.
func (a *Actions) parseID(id string) (int64, payload.FieldErrors) {
	v, _ := payload.NumericID(id)
	n, ok := v.(int64)
	switch {
	case !ok:
		return 0, payload.FieldErrors{{Field: a.key, Messages: []string{"Expected integer"}}}
	case n <= 0:
		return 0, payload.FieldErrors{{Field: a.key, Messages: []string{"Must be greater than 0"}}}
	}
	return n, nil
}

func (a *Actions) persistenceFailure(ctx context.Context, action string, mode payload.Mode, err error, msg string) Outcome {
	if errors.Is(err, store.ErrNotFound) {
		return Outcome{Status: StatusNotFound, Mode: mode, Message: fmt.Sprintf("%s not found", a.Label())}
	}
	a.logger.ErrorContext(ctx, "persistence failure",
		"entity", a.entity,
		"action", action,
		"mode", mode.String(),
		"error", err,
	)
	return Outcome{Status: StatusFailed, Mode: mode, Message: msg}
}

func (a *Actions) finish(action string, o Outcome) Outcome {
	if a.observer != nil {
		a.observer(a.entity, action, o.Status)
	}
	return o
}

// Label renders the entity name for messages: "replenishment_rules" becomes
// "replenishment rules".
func (a *Actions) Label() string {
	return strings.ReplaceAll(a.entity, "_", " ")
}
