package api_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/johnwards/backoffice/internal/api"
	"github.com/johnwards/backoffice/internal/payload"
)

func TestNewNotFoundError(t *testing.T) {
	err := api.NewNotFoundError("object not found", "abc-123")

	if err.Status != "error" {
		t.Errorf("Status = %q, want %q", err.Status, "error")
	}
	if err.Category != api.CategoryObjectNotFound {
		t.Errorf("Category = %q, want %q", err.Category, api.CategoryObjectNotFound)
	}
	if err.CorrelationID != "abc-123" {
		t.Errorf("CorrelationID = %q, want %q", err.CorrelationID, "abc-123")
	}
	if err.Message != "object not found" {
		t.Errorf("Message = %q, want %q", err.Message, "object not found")
	}
}

func TestNewValidationError(t *testing.T) {
	fields := payload.FieldErrors{
		{Field: "name", Messages: []string{"Required"}},
		{Field: "price", Messages: []string{"Must be greater than or equal to 0"}},
	}
	err := api.NewValidationError("invalid input", "def-456", fields)

	if err.Category != api.CategoryValidationError {
		t.Errorf("Category = %q, want %q", err.Category, api.CategoryValidationError)
	}
	if len(err.Fields) != 2 {
		t.Fatalf("Fields length = %d, want 2", len(err.Fields))
	}

	rec := httptest.NewRecorder()
	api.WriteError(rec, http.StatusUnprocessableEntity, err)

	want := `"fields":{"name":["Required"],"price":["Must be greater than or equal to 0"]}`
	if !strings.Contains(rec.Body.String(), want) {
		t.Errorf("body = %s, want it to contain %s", rec.Body.String(), want)
	}
}

func TestNewPersistenceError(t *testing.T) {
	err := api.NewPersistenceError("Could not save products", "ghi-789")

	if err.Category != api.CategoryPersistenceError {
		t.Errorf("Category = %q, want %q", err.Category, api.CategoryPersistenceError)
	}
	if err.Fields != nil {
		t.Errorf("Fields = %v, want none", err.Fields)
	}
}

func TestWriteErrorResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	apiErr := api.NewNotFoundError("not found", "test-id")

	api.WriteError(rec, http.StatusNotFound, apiErr)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status code = %d, want %d", rec.Code, http.StatusNotFound)
	}

	ct := rec.Header().Get("Content-Type")
	if ct != "application/json" {
		t.Errorf("Content-Type = %q, want %q", ct, "application/json")
	}

	var result api.Error
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if result.CorrelationID != "test-id" {
		t.Errorf("correlationId = %q, want %q", result.CorrelationID, "test-id")
	}
}
