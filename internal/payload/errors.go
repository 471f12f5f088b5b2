package payload

import (
	"bytes"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
)

// ConfigError reports a malformed schema or builder configuration. It is only
// ever returned by constructors; Build never produces one.
type ConfigError struct {
	Entity   string
	Problems []string
}

func (e *ConfigError) Error() string {
	prefix := "payload config"
	if e.Entity != "" {
		prefix += " " + e.Entity
	}
	return fmt.Sprintf("%s: %s", prefix, strings.Join(e.Problems, "; "))
}

// FieldError holds every message reported for one field.
type FieldError struct {
	Field    string   `json:"field"`
	Messages []string `json:"messages"`
}

// FieldErrors is ordered by schema field declaration. It encodes as a JSON
// object mapping field name to messages, preserving that order.
type FieldErrors []FieldError

// Get returns the messages recorded for field.
func (fe FieldErrors) Get(field string) []string {
	for _, e := range fe {
		if e.Field == field {
			return e.Messages
		}
	}
	return nil
}

// Fields returns the failing field names in order.
func (fe FieldErrors) Fields() []string {
	names := make([]string, len(fe))
	for i, e := range fe {
		names[i] = e.Field
	}
	return names
}

// Map flattens the errors into a plain map. Ordering is lost.
func (fe FieldErrors) Map() map[string][]string {
	m := make(map[string][]string, len(fe))
	for _, e := range fe {
		m[e.Field] = append([]string(nil), e.Messages...)
	}
	return m
}

// MarshalJSON implements json.Marshaler.
func (fe FieldErrors) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range fe {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Field)
		if err != nil {
			return nil, err
		}
		msgs := e.Messages
		if msgs == nil {
			msgs = []string{}
		}
		val, err := json.Marshal(msgs)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (fe FieldErrors) add(field string, msgs ...string) FieldErrors {
	if len(msgs) == 0 {
		return fe
	}
	if n := len(fe); n > 0 && fe[n-1].Field == field {
		fe[n-1].Messages = append(fe[n-1].Messages, msgs...)
		return fe
	}
	return append(fe, FieldError{Field: field, Messages: msgs})
}
