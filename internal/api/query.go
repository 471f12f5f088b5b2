package api

import (
	"fmt"
	"net/http"

	"github.com/mitchellh/mapstructure"

	"github.com/johnwards/backoffice/internal/domain"
)

// DecodeQuery decodes the first value of each query parameter into out,
// matching fields by json tag. Strings are converted to the field types, so
// "limit=20" fills an int field.
func DecodeQuery(r *http.Request, out any) error {
	values := r.URL.Query()
	in := make(map[string]any, len(values))
	for k, vs := range values {
		if len(vs) > 0 && vs[0] != "" {
			in[k] = vs[0]
		}
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("new decoder: %w", err)
	}
	if err := dec.Decode(in); err != nil {
		return fmt.Errorf("decode query: %w", err)
	}
	return nil
}

// ListOptsFromQuery reads the limit and after paging parameters. A missing
// or non-positive limit is left at zero so the store applies its default.
func ListOptsFromQuery(r *http.Request) (domain.ListOpts, error) {
	var opts domain.ListOpts
	if err := DecodeQuery(r, &opts); err != nil {
		return domain.ListOpts{}, err
	}
	if opts.Limit < 0 {
		opts.Limit = 0
	}
	return opts, nil
}
