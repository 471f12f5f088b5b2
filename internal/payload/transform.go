package payload

import (
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

// Transformer normalises one raw field value before validation. Returning
// present == false removes the field, which lets a default fill it.
//
// Transformers must be pure and must not fail: input they cannot make sense
// of is passed through unchanged so schema validation reports it.
type Transformer func(raw any) (value any, present bool)

// Built-in transformer names.
const (
	TransformEmptyToNull      = "empty_to_null"
	TransformEmptyToUndefined = "empty_to_undefined"
	TransformNumericID        = "numeric_id"
	TransformInteger          = "integer"
	TransformNumber           = "number"
	TransformCheckbox         = "checkbox"
	TransformTrim             = "trim"
	TransformSanitize         = "sanitize"
	TransformLower            = "lower"
	TransformDate             = "date"
)

// TransformerRegistry maps names used in entity definitions to transformers.
// Register everything before handing the registry to a builder; lookups are
// read-only afterwards.
type TransformerRegistry struct {
	byName map[string]Transformer
}

// NewTransformerRegistry returns a registry preloaded with the built-ins.
func NewTransformerRegistry() *TransformerRegistry {
	sanitizer := bluemonday.StrictPolicy()
	return &TransformerRegistry{byName: map[string]Transformer{
		TransformEmptyToNull:      EmptyToNull,
		TransformEmptyToUndefined: EmptyToUndefined,
		TransformNumericID:        NumericID,
		TransformInteger:          Integer,
		TransformNumber:           Number,
		TransformCheckbox:         Checkbox,
		TransformTrim:             Trim,
		TransformSanitize:         Sanitize(sanitizer),
		TransformLower:            Lower,
		TransformDate:             Date,
	}}
}

// Register adds or replaces a named transformer.
func (r *TransformerRegistry) Register(name string, t Transformer) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("transformer name is empty")
	}
	if t == nil {
		return fmt.Errorf("transformer %q is nil", name)
	}
	r.byName[name] = t
	return nil
}

// Lookup returns the transformer registered under name.
func (r *TransformerRegistry) Lookup(name string) (Transformer, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Names returns the registered names, sorted.
func (r *TransformerRegistry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Chain applies transformers left to right, stopping once a value is removed.
func Chain(ts ...Transformer) Transformer {
	return func(raw any) (any, bool) {
		v := raw
		for _, t := range ts {
			var ok bool
			if v, ok = t(v); !ok {
				return nil, false
			}
		}
		return v, true
	}
}

func isBlank(v any) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

// EmptyToNull maps blank strings to nil.
func EmptyToNull(raw any) (any, bool) {
	if isBlank(raw) {
		return nil, true
	}
	return raw, true
}

// EmptyToUndefined removes blank strings so defaults apply.
func EmptyToUndefined(raw any) (any, bool) {
	if isBlank(raw) {
		return nil, false
	}
	return raw, true
}

// NumericID is the policy for foreign-key selects: blank means "no
// selection" (nil), a numeric string becomes an int64, anything else is
// left for validation to reject.
func NumericID(raw any) (any, bool) {
	switch v := raw.(type) {
	case nil:
		return nil, true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, true
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, true
		}
		return v, true
	case int:
		return int64(v), true
	case float64:
		if v == float64(int64(v)) {
			return int64(v), true
		}
	}
	return raw, true
}

// Integer parses numeric strings into int64; blank input is removed.
func Integer(raw any) (any, bool) {
	s, ok := raw.(string)
	if !ok {
		if i, isInt := raw.(int); isInt {
			return int64(i), true
		}
		return raw, true
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	return raw, true
}

// Number parses numeric strings into float64; blank input is removed.
func Number(raw any) (any, bool) {
	switch v := raw.(type) {
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, false
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, true
		}
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	}
	return raw, true
}

// Checkbox maps HTML checkbox submissions to booleans.
func Checkbox(raw any) (any, bool) {
	if s, ok := raw.(string); ok {
		if b, known := parseBool(s); known {
			return b, true
		}
	}
	return raw, true
}

func parseBool(s string) (value, known bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "1", "yes":
		return true, true
	case "off", "false", "0", "no", "":
		return false, true
	}
	return false, false
}

// Trim trims surrounding whitespace from strings.
func Trim(raw any) (any, bool) {
	if s, ok := raw.(string); ok {
		return strings.TrimSpace(s), true
	}
	return raw, true
}

// Lower lower-cases and trims strings.
func Lower(raw any) (any, bool) {
	if s, ok := raw.(string); ok {
		return strings.ToLower(strings.TrimSpace(s)), true
	}
	return raw, true
}

// Sanitize strips markup from free text using the given policy. The policy
// output is HTML-escaped; it is unescaped again so plain text is stored as
// typed. Unescaping can expose encoded tags, so stripping repeats until the
// text is stable.
func Sanitize(policy *bluemonday.Policy) Transformer {
	return func(raw any) (any, bool) {
		s, ok := raw.(string)
		if !ok {
			return raw, true
		}
		s = strings.TrimSpace(s)
		for range maxSanitizePasses {
			next := strings.TrimSpace(html.UnescapeString(policy.Sanitize(s)))
			if next == s {
				break
			}
			s = next
		}
		return s, true
	}
}

const maxSanitizePasses = 4

// Date normalises RFC 3339 timestamps and plain dates to YYYY-MM-DD.
func Date(raw any) (any, bool) {
	s, ok := raw.(string)
	if !ok {
		return raw, true
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, true
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t.Format(DateLayout), true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC().Format(DateLayout), true
	}
	return raw, true
}
