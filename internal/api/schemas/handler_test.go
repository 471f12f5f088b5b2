package schemas_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/johnwards/backoffice/internal/api/schemas"
	"github.com/johnwards/backoffice/internal/testhelpers"
)

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	schemas.RegisterRoutes(mux, testhelpers.Registry(t))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type fieldView struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Required bool   `json:"required"`
	Nullable bool   `json:"nullable"`
}

type entityView struct {
	Name   string `json:"name"`
	Key    string `json:"key"`
	Insert struct {
		Fields   []fieldView    `json:"fields"`
		Defaults map[string]any `json:"defaults"`
	} `json:"insert"`
	Update struct {
		Fields []fieldView `json:"fields"`
	} `json:"update"`
}

func TestListSchemas(t *testing.T) {
	srv := setupServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/_schemas")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Results []entityView `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Results) != 5 {
		t.Fatalf("expected 5 entities, got %d", len(body.Results))
	}
	if body.Results[0].Name != "categories" {
		t.Errorf("first entity = %q, want categories", body.Results[0].Name)
	}
}

func TestGetSchema(t *testing.T) {
	srv := setupServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/products/_schema")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var view entityView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Key != "id" {
		t.Errorf("key = %q, want id", view.Key)
	}
	if got := view.Insert.Fields[0]; got.Name != "sku" || !got.Required {
		t.Errorf("first insert field = %+v, want required sku", got)
	}
	// The update schema leads with the key and relaxes every other field.
	if got := view.Update.Fields[0]; got.Name != "id" || !got.Required {
		t.Errorf("first update field = %+v, want required id", got)
	}
	for _, f := range view.Update.Fields[1:] {
		if f.Required {
			t.Errorf("update field %s is required", f.Name)
		}
	}
	if view.Insert.Defaults["is_active"] != true {
		t.Errorf("insert defaults = %v", view.Insert.Defaults)
	}
}

func TestGetSchemaUnknownEntity(t *testing.T) {
	srv := setupServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/orders/_schema")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}
