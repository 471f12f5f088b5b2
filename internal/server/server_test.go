package server_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/johnwards/backoffice/internal/metrics"
	"github.com/johnwards/backoffice/internal/server"
	"github.com/johnwards/backoffice/internal/testhelpers"
)

func setupServer(t *testing.T, token string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(server.New(server.Deps{
		Store:     testhelpers.NewTestStore(t),
		Registry:  testhelpers.Registry(t),
		Metrics:   metrics.New(),
		AuthToken: token,
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthzSkipsAuth(t *testing.T) {
	srv := setupServer(t, "secret")

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Correlation-Id") == "" {
		t.Error("expected X-Correlation-Id header")
	}
}

func TestAPIRequiresToken(t *testing.T) {
	srv := setupServer(t, "secret")

	resp, err := http.Get(srv.URL + "/api/v1/products")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/products", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 with token, got %d", resp.StatusCode)
	}
}

func TestMetricsCountActions(t *testing.T) {
	srv := setupServer(t, "")

	resp, err := http.Post(srv.URL+"/api/v1/contacts", "application/json", strings.NewReader(`{"first_name":""}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	_ = resp.Body.Close()

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := `backoffice_crud_actions_total{action="upsert",entity="contacts",status="invalid"} 1`
	if !strings.Contains(string(body), want) {
		t.Errorf("metrics output missing %q", want)
	}
	if ct := resp.Header.Get("Content-Type"); strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q, want prometheus text format", ct)
	}
}

func TestUnknownRoute(t *testing.T) {
	srv := setupServer(t, "")

	resp, err := http.Get(srv.URL + "/nowhere")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}
