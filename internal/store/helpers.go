package store

import (
	"fmt"
	"strconv"
	"time"

	"github.com/johnwards/backoffice/internal/payload"
)

// now returns the current UTC time formatted as an ISO-8601 timestamp.
func now() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}

// normalize converts a scanned column value to the Go type the payload
// builder produces for kind, so records and payloads compare equal.
func normalize(kind payload.Kind, v any) any {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if v == nil {
		return nil
	}
	switch kind {
	case payload.KindBoolean:
		switch x := v.(type) {
		case bool:
			return x
		case int64:
			return x != 0
		case string:
			if b, err := strconv.ParseBool(x); err == nil {
				return b
			}
		}
	case payload.KindInteger:
		switch x := v.(type) {
		case int64:
			return x
		case int32:
			return int64(x)
		case float64:
			return int64(x)
		case string:
			if n, err := strconv.ParseInt(x, 10, 64); err == nil {
				return n
			}
		}
	case payload.KindNumber:
		switch x := v.(type) {
		case float64:
			return x
		case int64:
			return float64(x)
		case string:
			if f, err := strconv.ParseFloat(x, 64); err == nil {
				return f
			}
		}
	case payload.KindDate:
		if t, ok := v.(time.Time); ok {
			return t.UTC().Format(payload.DateLayout)
		}
	case payload.KindString:
		if t, ok := v.(time.Time); ok {
			return t.UTC().Format(time.RFC3339)
		}
		if _, ok := v.(string); !ok {
			return fmt.Sprint(v)
		}
	}
	return v
}
