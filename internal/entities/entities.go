// Package entities loads the entity catalog: for each back-office entity, the
// payload builder that shapes its forms and the table it persists to.
package entities

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/johnwards/backoffice/internal/payload"
	"github.com/johnwards/backoffice/internal/store"
)

//go:embed entities.yaml
var catalog []byte

var identRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

type document struct {
	Entities []definition `yaml:"entities"`
}

type definition struct {
	Name   string  `yaml:"name"`
	Table  string  `yaml:"table"`
	Key    string  `yaml:"key"`
	Label  string  `yaml:"label"`
	Order  string  `yaml:"order"`
	Insert section `yaml:"insert"`
	Update section `yaml:"update"`
}

type section struct {
	Partial      bool              `yaml:"partial"`
	Merge        string            `yaml:"merge"`
	Fields       []fieldDef        `yaml:"fields"`
	Defaults     map[string]any    `yaml:"defaults"`
	Transformers map[string]string `yaml:"transformers"`
}

type fieldDef struct {
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind"`
	Required bool   `yaml:"required"`
	Nullable bool   `yaml:"nullable"`
	NotEmpty bool   `yaml:"not_empty"`
	Coerce   bool   `yaml:"coerce"`
	Rules    string `yaml:"rules"`
}

func (f fieldDef) field() payload.Field {
	kind := payload.Kind(f.Kind)
	if kind == "" {
		kind = payload.KindString
	}
	return payload.Field{
		Name:     f.Name,
		Kind:     kind,
		Required: f.Required,
		Nullable: f.Nullable,
		NotEmpty: f.NotEmpty,
		Coerce:   f.Coerce,
		Rules:    f.Rules,
	}
}

// Entity is one loaded catalog entry.
type Entity struct {
	Name    string
	Key     string
	Builder *payload.Builder
	table   store.Table
}

// Table returns the table binding for the entity.
func (e *Entity) Table() store.Table { return e.table }

// Registry holds every loaded entity. It is built once at startup and read
// concurrently afterwards.
type Registry struct {
	order  []string
	byName map[string]*Entity
}

// Get returns the named entity.
func (r *Registry) Get(name string) (*Entity, bool) {
	e, ok := r.byName[name]
	return e, ok
}

// MustGet returns the named entity or panics.
func (r *Registry) MustGet(name string) *Entity {
	e, ok := r.byName[name]
	if !ok {
		panic(fmt.Sprintf("entities: unknown entity %q", name))
	}
	return e
}

// Names returns entity names in declaration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// All returns entities in declaration order.
func (r *Registry) All() []*Entity {
	out := make([]*Entity, len(r.order))
	for i, name := range r.order {
		out[i] = r.byName[name]
	}
	return out
}

type options struct {
	transformers *payload.TransformerRegistry
	observer     payload.Observer
}

// Option configures Load.
type Option func(*options)

// WithTransformers resolves transformer names against reg instead of the
// built-in registry.
func WithTransformers(reg *payload.TransformerRegistry) Option {
	return func(o *options) { o.transformers = reg }
}

// WithObserver attaches a build observer to every builder.
func WithObserver(obs payload.Observer) Option {
	return func(o *options) { o.observer = obs }
}

// Default loads the embedded catalog.
func Default(opts ...Option) (*Registry, error) {
	return Load(catalog, opts...)
}

// Load parses a catalog document and builds every entity. All problems are
// reported together.
func Load(data []byte, opts ...Option) (*Registry, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.transformers == nil {
		o.transformers = payload.NewTransformerRegistry()
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse entity catalog: %w", err)
	}
	if len(doc.Entities) == 0 {
		return nil, errors.New("entity catalog declares no entities")
	}

	reg := &Registry{byName: make(map[string]*Entity, len(doc.Entities))}
	var errs []error
	for _, def := range doc.Entities {
		if _, dup := reg.byName[def.Name]; dup {
			errs = append(errs, fmt.Errorf("entity %q declared twice", def.Name))
			continue
		}
		e, err := build(def, o)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		reg.order = append(reg.order, e.Name)
		reg.byName[e.Name] = e
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return reg, nil
}

func build(def definition, o options) (*Entity, error) {
	problems := checkIdents(def)
	if len(problems) > 0 {
		return nil, &payload.ConfigError{Entity: def.Name, Problems: problems}
	}

	insertSchema, err := payload.NewSchema(fieldsOf(def.Insert.Fields)...)
	if err != nil {
		return nil, relabel(def.Name, err)
	}

	var updateSchema *payload.Schema
	if def.Update.Partial {
		// The key leads the derived schema; other update fields are
		// update-only and follow the relaxed insert fields.
		var keys, extra []payload.Field
		for _, f := range def.Update.Fields {
			if f.Name == def.Key {
				keys = append(keys, f.field())
			} else {
				extra = append(extra, f.field())
			}
		}
		updateSchema, err = insertSchema.Partial(keys...)
		if err == nil && len(extra) > 0 {
			updateSchema, err = updateSchema.Extend(extra...)
		}
	} else {
		updateSchema, err = payload.NewSchema(fieldsOf(def.Update.Fields)...)
	}
	if err != nil {
		return nil, relabel(def.Name, err)
	}

	insertCfg, p := sectionConfig(def.Insert, insertSchema, nil, o.transformers)
	problems = append(problems, p...)
	var inherited map[string]string
	if def.Update.Partial {
		inherited = def.Insert.Transformers
	}
	updateCfg, p := sectionConfig(def.Update, updateSchema, inherited, o.transformers)
	problems = append(problems, p...)

	if !updateSchema.Has(def.Key) {
		problems = append(problems, fmt.Sprintf("update schema does not declare key %q", def.Key))
	}
	if def.Label != "" && !insertSchema.Has(def.Label) {
		problems = append(problems, fmt.Sprintf("label column %q is not an insert field", def.Label))
	}
	if def.Order != "" && !insertSchema.Has(def.Order) {
		problems = append(problems, fmt.Sprintf("order column %q is not an insert field", def.Order))
	}
	if len(problems) > 0 {
		return nil, &payload.ConfigError{Entity: def.Name, Problems: problems}
	}

	var bopts []payload.Option
	if o.observer != nil {
		bopts = append(bopts, payload.WithObserver(o.observer))
	}
	builder, err := payload.NewBuilder(def.Name, insertCfg, updateCfg, bopts...)
	if err != nil {
		return nil, err
	}

	table := store.Table{Name: def.Table, Key: def.Key, Label: def.Label, Order: def.Order}
	for _, f := range insertSchema.Fields() {
		table.Columns = append(table.Columns, store.Column{Name: f.Name, Kind: f.Kind})
	}
	for _, f := range updateSchema.Fields() {
		if f.Name != def.Key && !insertSchema.Has(f.Name) {
			table.Columns = append(table.Columns, store.Column{Name: f.Name, Kind: f.Kind})
		}
	}

	return &Entity{Name: def.Name, Key: def.Key, Builder: builder, table: table}, nil
}

func checkIdents(def definition) []string {
	var problems []string
	check := func(what, v string, optional bool) {
		if v == "" && optional {
			return
		}
		if !identRe.MatchString(v) {
			problems = append(problems, fmt.Sprintf("invalid %s %q", what, v))
		}
	}
	check("entity name", def.Name, false)
	check("table", def.Table, false)
	check("key", def.Key, false)
	check("label", def.Label, true)
	check("order", def.Order, true)
	for _, f := range append(append([]fieldDef{}, def.Insert.Fields...), def.Update.Fields...) {
		check("field name", f.Name, false)
	}
	return problems
}

func fieldsOf(defs []fieldDef) []payload.Field {
	out := make([]payload.Field, len(defs))
	for i, d := range defs {
		out[i] = d.field()
	}
	return out
}

// sectionConfig resolves transformer chains and merge policy. Transformers in
// base apply unless the section names the same field.
func sectionConfig(sec section, schema *payload.Schema, base map[string]string, reg *payload.TransformerRegistry) (payload.Config, []string) {
	var problems []string
	cfg := payload.Config{
		Schema:       schema,
		Defaults:     sec.Defaults,
		Transformers: make(map[string]payload.Transformer),
	}

	merge, err := payload.ParseMergePolicy(sec.Merge)
	if err != nil {
		problems = append(problems, err.Error())
	}
	cfg.MergePolicy = merge

	names := make(map[string]string, len(base)+len(sec.Transformers))
	for field, list := range base {
		names[field] = list
	}
	for field, list := range sec.Transformers {
		names[field] = list
	}

	fields := make([]string, 0, len(names))
	for field := range names {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		var chain []payload.Transformer
		for _, name := range strings.Split(names[field], ",") {
			name = strings.TrimSpace(name)
			t, ok := reg.Lookup(name)
			if !ok {
				problems = append(problems, fmt.Sprintf("unknown transformer %q for field %q", name, field))
				continue
			}
			chain = append(chain, t)
		}
		if len(chain) == 1 {
			cfg.Transformers[field] = chain[0]
		} else if len(chain) > 1 {
			cfg.Transformers[field] = payload.Chain(chain...)
		}
	}
	return cfg, problems
}

func relabel(entity string, err error) error {
	var cfgErr *payload.ConfigError
	if errors.As(err, &cfgErr) && cfgErr.Entity == "" {
		return &payload.ConfigError{Entity: entity, Problems: cfgErr.Problems}
	}
	return err
}

// LoadFile loads a catalog document from disk.
func LoadFile(path string, opts ...Option) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read entity catalog: %w", err)
	}
	return Load(data, opts...)
}
