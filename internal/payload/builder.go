package payload

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Mode selects which configuration a build uses.
type Mode int

// Build modes.
const (
	ModeInsert Mode = iota + 1
	ModeUpdate
)

func (m Mode) String() string {
	switch m {
	case ModeInsert:
		return "insert"
	case ModeUpdate:
		return "update"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// MergePolicy controls when a default replaces the incoming value.
type MergePolicy int

const (
	// MergeAbsent fills only fields missing from the input.
	MergeAbsent MergePolicy = iota
	// MergeAbsentOrEmpty also fills fields holding an empty string. An
	// explicit nil is never replaced.
	MergeAbsentOrEmpty
)

// ParseMergePolicy maps a configuration name to a MergePolicy.
func ParseMergePolicy(name string) (MergePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "absent":
		return MergeAbsent, nil
	case "absent_or_empty":
		return MergeAbsentOrEmpty, nil
	}
	return MergeAbsent, fmt.Errorf("unknown merge policy %q", name)
}

// Config is the per-mode builder configuration.
type Config struct {
	Schema       *Schema
	Defaults     map[string]any
	Transformers map[string]Transformer
	MergePolicy  MergePolicy
}

// Observer is notified after every build.
type Observer func(entity string, mode Mode, ok bool)

// Option configures a Builder.
type Option func(*Builder)

// WithObserver registers a build observer.
func WithObserver(o Observer) Option {
	return func(b *Builder) { b.observer = o }
}

type modeConfig struct {
	schema       *Schema
	defaults     map[string]any
	defaultOrder []string
	transformers map[string]Transformer
	transformSeq []string
	merge        MergePolicy
}

// Builder validates and shapes payloads for one entity. It is immutable and
// safe for concurrent use.
type Builder struct {
	entity   string
	insert   modeConfig
	update   modeConfig
	observer Observer
}

// NewBuilder checks both configurations and returns a builder. Any
// misconfiguration is reported as a *ConfigError listing every problem.
func NewBuilder(entity string, insert, update Config, opts ...Option) (*Builder, error) {
	var problems []string
	if insert.Schema == nil {
		problems = append(problems, "insert schema is missing")
	}
	if update.Schema == nil {
		problems = append(problems, "update schema is missing")
	}
	if len(problems) > 0 {
		return nil, &ConfigError{Entity: entity, Problems: problems}
	}

	declared := func(name string) bool {
		return insert.Schema.Has(name) || update.Schema.Has(name)
	}

	ins, p := compileConfig(ModeInsert, insert, declared)
	problems = append(problems, p...)
	upd, p := compileConfig(ModeUpdate, update, declared)
	problems = append(problems, p...)
	problems = append(problems, nullabilityConflicts(insert, update)...)

	if len(problems) > 0 {
		return nil, &ConfigError{Entity: entity, Problems: problems}
	}

	b := &Builder{entity: entity, insert: ins, update: upd}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

func compileConfig(mode Mode, cfg Config, declared func(string) bool) (modeConfig, []string) {
	var problems []string
	mc := modeConfig{
		schema:       cfg.Schema,
		defaults:     make(map[string]any, len(cfg.Defaults)),
		transformers: make(map[string]Transformer, len(cfg.Transformers)),
		merge:        cfg.MergePolicy,
	}

	for name, t := range cfg.Transformers {
		if !declared(name) {
			problems = append(problems, fmt.Sprintf("%s transformer references undeclared field %q", mode, name))
			continue
		}
		if t == nil {
			problems = append(problems, fmt.Sprintf("%s transformer for %q is nil", mode, name))
			continue
		}
		mc.transformers[name] = t
		mc.transformSeq = append(mc.transformSeq, name)
	}

	for name, d := range cfg.Defaults {
		if !declared(name) {
			problems = append(problems, fmt.Sprintf("%s default references undeclared field %q", mode, name))
			continue
		}
		f, ok := cfg.Schema.Field(name)
		if !ok {
			// Declared only by the other mode; it will be dropped from the
			// output, so there is nothing to check.
			mc.defaults[name] = d
			mc.defaultOrder = append(mc.defaultOrder, name)
			continue
		}
		v, err := normalizeDefault(f, d)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s default for %q: %v", mode, name, err))
			continue
		}
		mc.defaults[name] = v
		mc.defaultOrder = append(mc.defaultOrder, name)
	}

	sort.Strings(mc.transformSeq)
	sort.Strings(mc.defaultOrder)
	return mc, problems
}

// nullabilityConflicts flags fields whose nullability differs between modes
// while a default is configured, since such a default cannot satisfy both.
func nullabilityConflicts(insert, update Config) []string {
	var problems []string
	for _, f := range insert.Schema.fields {
		other, ok := update.Schema.Field(f.Name)
		if !ok || other.Nullable == f.Nullable {
			continue
		}
		_, insDefault := insert.Defaults[f.Name]
		_, updDefault := update.Defaults[f.Name]
		if insDefault || updDefault {
			problems = append(problems, fmt.Sprintf("field %q has a default but is nullable in only one mode", f.Name))
		}
	}
	return problems
}

// normalizeDefault checks a default against its field and converts Go
// integer types to int64 so outputs are uniformly typed.
func normalizeDefault(f Field, d any) (any, error) {
	if d == nil {
		if !f.Nullable {
			return nil, fmt.Errorf("nil default for non-nullable field")
		}
		return nil, nil
	}
	v, msg := coerce(f, d)
	if msg != "" {
		return nil, fmt.Errorf("%s (got %T)", strings.ToLower(msg), d)
	}
	return v, nil
}

// Entity returns the entity name the builder was configured for.
func (b *Builder) Entity() string { return b.entity }

// Schema returns the schema used for mode.
func (b *Builder) Schema(mode Mode) *Schema {
	return b.config(mode).schema
}

// Defaults returns a copy of the defaults configured for mode.
func (b *Builder) Defaults(mode Mode) map[string]any {
	mc := b.config(mode)
	out := make(map[string]any, len(mc.defaults))
	for k, v := range mc.defaults {
		out[k] = v
	}
	return out
}

func (b *Builder) config(mode Mode) *modeConfig {
	switch mode {
	case ModeInsert:
		return &b.insert
	case ModeUpdate:
		return &b.update
	}
	panic(fmt.Sprintf("payload: unknown %s", mode))
}

// Result is the outcome of a build. Exactly one of Data and Errors is set.
type Result struct {
	Mode   Mode
	Data   map[string]any
	Errors FieldErrors
}

// OK reports whether validation succeeded.
func (r Result) OK() bool { return len(r.Errors) == 0 }

// Decode copies a successful payload into out, matching fields by json tag.
func (r Result) Decode(out any) error {
	if !r.OK() {
		return fmt.Errorf("decode %s payload: validation failed for %s", r.Mode, strings.Join(r.Errors.Fields(), ", "))
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  out,
		TagName: "json",
	})
	if err != nil {
		return fmt.Errorf("new decoder: %w", err)
	}
	if err := dec.Decode(r.Data); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// Build transforms, defaults and validates raw for mode. Validation failures
// are part of the Result, never an error. Build panics only for a Mode
// value other than ModeInsert or ModeUpdate.
func (b *Builder) Build(mode Mode, raw Input) Result {
	mc := b.config(mode)

	obj := make(map[string]any, len(raw)+len(mc.defaults))
	for k, v := range raw {
		obj[k] = v
	}

	for _, name := range mc.transformSeq {
		v, ok := obj[name]
		if !ok {
			continue
		}
		if nv, present := mc.transformers[name](v); present {
			obj[name] = nv
		} else {
			delete(obj, name)
		}
	}

	for _, name := range mc.defaultOrder {
		v, ok := obj[name]
		switch {
		case !ok:
		case mc.merge == MergeAbsentOrEmpty && v == "":
		default:
			continue
		}
		obj[name] = mc.defaults[name]
	}

	data, errs := mc.schema.validate(obj)
	res := Result{Mode: mode}
	if len(errs) > 0 {
		res.Errors = errs
	} else {
		res.Data = data
	}
	if b.observer != nil {
		b.observer(b.entity, mode, res.OK())
	}
	return res
}
