package api_test

import (
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/johnwards/backoffice/internal/api"
	"github.com/johnwards/backoffice/internal/domain"
)

func TestListOptsFromQuery(t *testing.T) {
	tests := []struct {
		query   string
		want    domain.ListOpts
		wantErr bool
	}{
		{query: "", want: domain.ListOpts{}},
		{query: "limit=20&after=41", want: domain.ListOpts{Limit: 20, After: "41"}},
		{query: "limit=&after=", want: domain.ListOpts{}},
		{query: "limit=-5", want: domain.ListOpts{}},
		{query: "limit=20&limit=30", want: domain.ListOpts{Limit: 20}},
		{query: "limit=ten", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/products?"+tt.query, nil)
			got, err := api.ListOptsFromQuery(req)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ListOptsFromQuery: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("opts mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeQueryIgnoresUnknownParameters(t *testing.T) {
	var out struct {
		Entity string `json:"entity"`
		Active bool   `json:"active"`
	}
	req := httptest.NewRequest("GET", "/?entity=products&active=1&junk=x", nil)
	if err := api.DecodeQuery(req, &out); err != nil {
		t.Fatalf("DecodeQuery: %v", err)
	}
	if out.Entity != "products" || !out.Active {
		t.Errorf("decoded %+v", out)
	}
}
