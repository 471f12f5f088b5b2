package payload

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Messages shown for structural violations.
const (
	MsgRequired    = "Required"
	MsgInvalidDate = "Invalid date"
)

// validate checks obj against the schema and returns the typed output
// containing only declared fields.
func (s *Schema) validate(obj map[string]any) (map[string]any, FieldErrors) {
	out := make(map[string]any, len(s.fields))
	var errs FieldErrors

	for _, f := range s.fields {
		raw, present := obj[f.Name]
		if !present {
			if f.Required {
				errs = errs.add(f.Name, MsgRequired)
			}
			continue
		}
		if raw == nil {
			switch {
			case f.Nullable:
				out[f.Name] = nil
			case f.Required || f.NotEmpty:
				errs = errs.add(f.Name, MsgRequired)
			default:
				errs = errs.add(f.Name, fmt.Sprintf("Expected %s, received null", f.Kind))
			}
			continue
		}

		v, msg := coerce(f, raw)
		if msg != "" {
			errs = errs.add(f.Name, msg)
			continue
		}
		if str, ok := v.(string); ok && f.NotEmpty && strings.TrimSpace(str) == "" {
			errs = errs.add(f.Name, MsgRequired)
			continue
		}
		if msgs := checkRules(f, v); len(msgs) > 0 {
			errs = errs.add(f.Name, msgs...)
			continue
		}
		out[f.Name] = v
	}
	return out, errs
}

// coerce converts v into the Go type for f.Kind. It returns a user-facing
// message when the value cannot represent the kind.
func coerce(f Field, v any) (any, string) {
	switch f.Kind {
	case KindString:
		if s, ok := v.(string); ok {
			return s, ""
		}
		return nil, "Expected string"

	case KindInteger:
		switch n := v.(type) {
		case int64:
			return n, ""
		case int:
			return int64(n), ""
		case float64:
			if n == math.Trunc(n) && !math.IsInf(n, 0) {
				return int64(n), ""
			}
		case string:
			if f.Coerce {
				if i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
					return i, ""
				}
			}
		}
		return nil, "Expected integer"

	case KindNumber:
		switch n := v.(type) {
		case float64:
			if math.IsNaN(n) || math.IsInf(n, 0) {
				return nil, "Expected number"
			}
			return n, ""
		case int64:
			return float64(n), ""
		case int:
			return float64(n), ""
		case string:
			if f.Coerce {
				if x, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil && !math.IsNaN(x) && !math.IsInf(x, 0) {
					return x, ""
				}
			}
		}
		return nil, "Expected number"

	case KindBoolean:
		switch b := v.(type) {
		case bool:
			return b, ""
		case string:
			if f.Coerce {
				if x, known := parseBool(b); known {
					return x, ""
				}
			}
		}
		return nil, "Expected boolean"

	case KindDate:
		s, ok := v.(string)
		if !ok {
			return nil, "Expected date"
		}
		if _, err := time.Parse(DateLayout, s); err != nil {
			return nil, MsgInvalidDate
		}
		return s, ""
	}
	return nil, fmt.Sprintf("Unsupported kind %s", f.Kind)
}

// checkRules evaluates each validator rule separately so that all violations
// of a field are reported, in rule order.
func checkRules(f Field, v any) []string {
	if len(f.rules) == 0 {
		return nil
	}
	if f.omitEmpty && isZero(v) {
		return nil
	}
	var msgs []string
	for _, rule := range f.rules {
		err := validate.Var(v, rule)
		if err == nil {
			continue
		}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				msgs = append(msgs, message(f.Kind, fe.Tag(), fe.Param()))
			}
			continue
		}
		msgs = append(msgs, "Invalid value")
	}
	return msgs
}

func isZero(v any) bool {
	switch x := v.(type) {
	case string:
		return x == ""
	case int64:
		return x == 0
	case float64:
		return x == 0
	case bool:
		return !x
	}
	return v == nil
}

// message renders a validator tag as text suitable for display next to a
// form field.
func message(kind Kind, tag, param string) string {
	text := kind == KindString || kind == KindDate
	switch tag {
	case "min", "gte":
		if text {
			return fmt.Sprintf("Must be at least %s characters", param)
		}
		return fmt.Sprintf("Must be greater than or equal to %s", param)
	case "max", "lte":
		if text {
			return fmt.Sprintf("Must be at most %s characters", param)
		}
		return fmt.Sprintf("Must be less than or equal to %s", param)
	case "gt":
		if text {
			return fmt.Sprintf("Must be longer than %s characters", param)
		}
		return fmt.Sprintf("Must be greater than %s", param)
	case "lt":
		if text {
			return fmt.Sprintf("Must be shorter than %s characters", param)
		}
		return fmt.Sprintf("Must be less than %s", param)
	case "len":
		if text {
			return fmt.Sprintf("Must be exactly %s characters", param)
		}
		return fmt.Sprintf("Must equal %s", param)
	case "oneof":
		return "Must be one of: " + strings.Join(strings.Fields(param), ", ")
	case "email":
		return "Invalid email"
	case "url", "http_url":
		return "Invalid url"
	case "e164":
		return "Invalid phone number"
	case "alphanum":
		return "Must contain only letters and digits"
	case "lowercase":
		return "Must be lowercase"
	case "uuid", "uuid4":
		return "Invalid uuid"
	}
	if param != "" {
		return fmt.Sprintf("Failed %s=%s", tag, param)
	}
	return fmt.Sprintf("Failed %s", tag)
}
