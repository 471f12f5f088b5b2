package payload

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Input is raw form data. Values are limited to string, bool or nil; a
// missing key means the field was not submitted at all.
type Input map[string]any

// InputFromForm converts decoded form values. Only the first value of a
// repeated key is kept.
func InputFromForm(values url.Values) Input {
	in := make(Input, len(values))
	for k, vs := range values {
		if len(vs) == 0 {
			continue
		}
		in[k] = vs[0]
	}
	return in
}

// InputFromJSON narrows a decoded JSON object to the Input value set. Numbers
// are rendered as strings so they flow through the same transformers as form
// input; arrays and objects are rejected.
func InputFromJSON(body map[string]any) (Input, error) {
	in := make(Input, len(body))
	var bad []string
	for k, v := range body {
		switch x := v.(type) {
		case nil, string, bool:
			in[k] = x
		case float64:
			in[k] = strconv.FormatFloat(x, 'f', -1, 64)
		case int:
			in[k] = strconv.Itoa(x)
		case int64:
			in[k] = strconv.FormatInt(x, 10)
		case fmt.Stringer:
			// json.Number from decoders configured with UseNumber.
			in[k] = x.String()
		default:
			bad = append(bad, k)
		}
	}
	if len(bad) > 0 {
		sort.Strings(bad)
		return nil, fmt.Errorf("unsupported value for %s: only strings, numbers, booleans and null are accepted", strings.Join(bad, ", "))
	}
	return in, nil
}

// String returns the string value of key, if it holds one.
func (in Input) String(key string) (string, bool) {
	s, ok := in[key].(string)
	return s, ok
}

// ModeFor selects update when key holds a non-blank value and insert
// otherwise. A malformed key still selects update so the update schema can
// report it instead of silently creating a new row.
func ModeFor(in Input, key string) Mode {
	if v, ok := in[key].(string); ok && strings.TrimSpace(v) != "" {
		return ModeUpdate
	}
	return ModeInsert
}
