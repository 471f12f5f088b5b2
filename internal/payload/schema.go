// Package payload turns raw, loosely typed form input into validated insert
// or update payloads for a single entity.
//
// A Builder is configured once per entity with a Config for each Mode. Build
// runs field transformers, fills defaults and validates the result against
// the mode's Schema, returning either the shaped payload or an ordered list of
// field errors.
package payload

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Kind is the primitive type a field's value must have after validation.
type Kind string

// Supported field kinds.
const (
	KindString  Kind = "string"
	KindInteger Kind = "integer"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindDate    Kind = "date"
)

// DateLayout is the canonical layout for date fields.
const DateLayout = "2006-01-02"

func (k Kind) valid() bool {
	switch k {
	case KindString, KindInteger, KindNumber, KindBoolean, KindDate:
		return true
	}
	return false
}

// zero returns a representative value used to probe validation rules.
func (k Kind) zero() any {
	switch k {
	case KindInteger:
		return int64(0)
	case KindNumber:
		return float64(0)
	case KindBoolean:
		return false
	default:
		return ""
	}
}

// Field declares a single payload field.
type Field struct {
	Name string
	Kind Kind

	// Required fields must be present after transformers and defaults ran.
	Required bool
	// Nullable fields accept an explicit nil.
	Nullable bool
	// NotEmpty rejects blank strings with "Required" whenever the field is present.
	NotEmpty bool
	// Coerce enables schema-level conversion of string input (checkbox
	// values, numeric strings) into the field's kind.
	Coerce bool
	// Rules is a go-playground/validator tag evaluated against the typed value,
	// e.g. "min=1,max=120" or "email". A leading "omitempty" skips the rules
	// for zero values.
	Rules string

	rules     []string
	omitEmpty bool
}

// Schema is an ordered set of fields. Field order is the order in which
// validation errors are reported.
type Schema struct {
	fields []Field
	index  map[string]int
}

// NewSchema validates the field declarations and returns an immutable schema.
func NewSchema(fields ...Field) (*Schema, error) {
	s := &Schema{
		fields: make([]Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	var problems []string
	for _, f := range fields {
		f.Name = strings.TrimSpace(f.Name)
		if f.Name == "" {
			problems = append(problems, "field with empty name")
			continue
		}
		if _, dup := s.index[f.Name]; dup {
			problems = append(problems, fmt.Sprintf("field %q declared twice", f.Name))
			continue
		}
		if f.Kind == "" {
			f.Kind = KindString
		}
		if !f.Kind.valid() {
			problems = append(problems, fmt.Sprintf("field %q has unknown kind %q", f.Name, f.Kind))
			continue
		}
		rules, omitEmpty, err := parseRules(f.Kind, f.Rules)
		if err != nil {
			problems = append(problems, fmt.Sprintf("field %q: %v", f.Name, err))
			continue
		}
		f.rules = rules
		f.omitEmpty = omitEmpty

		s.index[f.Name] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	if len(problems) > 0 {
		return nil, &ConfigError{Problems: problems}
	}
	return s, nil
}

// Fields returns a copy of the declared fields in declaration order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Names returns the declared field names in declaration order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Field looks up a field by name.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Has reports whether the schema declares name.
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Partial derives an update-style schema: every field becomes optional, and
// the given key fields are prepended as required. NotEmpty constraints are
// kept so a present but blank value is still rejected.
func (s *Schema) Partial(keys ...Field) (*Schema, error) {
	fields := make([]Field, 0, len(keys)+len(s.fields))
	for _, k := range keys {
		k.Required = true
		fields = append(fields, k)
	}
	for _, f := range s.fields {
		skip := false
		for _, k := range keys {
			if k.Name == f.Name {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		f.Required = false
		fields = append(fields, f)
	}
	return NewSchema(fields...)
}

// Extend returns a new schema with extra fields appended.
func (s *Schema) Extend(fields ...Field) (*Schema, error) {
	all := s.Fields()
	all = append(all, fields...)
	return NewSchema(all...)
}

// parseRules splits a validator tag into individually evaluated rules so that
// every violated rule yields its own message. Each rule is probed once so an
// unknown tag fails at construction instead of panicking inside Build.
func parseRules(kind Kind, tag string) (rules []string, omitEmpty bool, err error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil, false, nil
	}
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		switch part {
		case "":
			continue
		case "omitempty":
			omitEmpty = true
			continue
		case "required":
			return nil, false, fmt.Errorf("use Required instead of the %q rule", part)
		}
		if err := probeRule(kind, part); err != nil {
			return nil, false, err
		}
		rules = append(rules, part)
	}
	return rules, omitEmpty, nil
}

func probeRule(kind Kind, rule string) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("invalid rule %q: %v", rule, rec)
		}
	}()
	// The outcome is irrelevant; only a panic for an undefined tag or a bad
	// parameter matters here.
	_ = validate.Var(kind.zero(), rule)
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())
