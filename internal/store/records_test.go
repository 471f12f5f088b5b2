package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/johnwards/backoffice/internal/domain"
	"github.com/johnwards/backoffice/internal/payload"
	"github.com/johnwards/backoffice/internal/store"
	"github.com/johnwards/backoffice/internal/testhelpers"
)

var categories = store.Table{
	Name:  "product_categories",
	Key:   "id",
	Label: "name",
	Order: "sort_order",
	Columns: []store.Column{
		{Name: "name", Kind: payload.KindString},
		{Name: "slug", Kind: payload.KindString},
		{Name: "parent_id", Kind: payload.KindInteger},
		{Name: "description", Kind: payload.KindString},
		{Name: "is_active", Kind: payload.KindBoolean},
		{Name: "sort_order", Kind: payload.KindInteger},
	},
}

func setupService(t *testing.T) (*store.Store, store.EntityService, context.Context) {
	t.Helper()
	s := testhelpers.NewTestStore(t)
	return s, s.Service(categories), context.Background()
}

func createCategory(t *testing.T, svc store.EntityService, ctx context.Context, name string, sortOrder int64) domain.Record {
	t.Helper()
	rec, err := svc.Create(ctx, map[string]any{"name": name, "is_active": true, "sort_order": sortOrder})
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	return rec
}

func TestCreateAndGet(t *testing.T) {
	_, svc, ctx := setupService(t)

	created, err := svc.Create(ctx, map[string]any{
		"name":       "Hardware",
		"slug":       "hardware",
		"parent_id":  nil,
		"is_active":  true,
		"sort_order": int64(2),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	id, ok := created["id"].(int64)
	if !ok || id <= 0 {
		t.Fatalf("id = %#v, want positive int64", created["id"])
	}
	if created["created_at"] == nil || created["updated_at"] == nil {
		t.Error("timestamps not set")
	}

	got, err := svc.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want := domain.Record{
		"id":          id,
		"name":        "Hardware",
		"slug":        "hardware",
		"parent_id":   nil,
		"description": nil,
		"is_active":   true,
		"sort_order":  int64(2),
		"created_at":  created["created_at"],
		"updated_at":  created["updated_at"],
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateRejectsUnknownColumns(t *testing.T) {
	_, svc, ctx := setupService(t)

	_, err := svc.Create(ctx, map[string]any{"name": "X", "is_active": true, "sort_order": int64(0), "colour": "red"})
	if err == nil {
		t.Fatal("expected error for unknown column")
	}
}

func TestUpdateLeavesAbsentColumns(t *testing.T) {
	_, svc, ctx := setupService(t)
	rec := createCategory(t, svc, ctx, "Hardware", 1)
	id := rec["id"].(int64)

	updated, err := svc.Update(ctx, id, map[string]any{"description": "Tools and such"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated["name"] != "Hardware" {
		t.Errorf("name = %v, want unchanged", updated["name"])
	}
	if updated["description"] != "Tools and such" {
		t.Errorf("description = %v", updated["description"])
	}
}

func TestUpdateNotFound(t *testing.T) {
	_, svc, ctx := setupService(t)

	_, err := svc.Update(ctx, 404, map[string]any{"name": "Ghost"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	_, svc, ctx := setupService(t)
	rec := createCategory(t, svc, ctx, "Hardware", 1)
	id := rec["id"].(int64)

	if err := svc.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, id); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("get after delete: err = %v, want ErrNotFound", err)
	}
	if err := svc.Delete(ctx, id); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}
}

func TestConstraintErrors(t *testing.T) {
	_, svc, ctx := setupService(t)

	if _, err := svc.Create(ctx, map[string]any{"name": "A", "slug": "dup", "is_active": true, "sort_order": int64(0)}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := svc.Create(ctx, map[string]any{"name": "B", "slug": "dup", "is_active": true, "sort_order": int64(0)})
	if !errors.Is(err, store.ErrConflict) {
		t.Errorf("duplicate slug: err = %v, want ErrConflict", err)
	}

	_, err = svc.Create(ctx, map[string]any{"name": "C", "parent_id": int64(999), "is_active": true, "sort_order": int64(0)})
	if !errors.Is(err, store.ErrConstraint) {
		t.Errorf("missing parent: err = %v, want ErrConstraint", err)
	}
}

func TestListPagination(t *testing.T) {
	_, svc, ctx := setupService(t)
	for i := 0; i < 5; i++ {
		createCategory(t, svc, ctx, "Category", int64(i))
	}

	page, err := svc.List(ctx, domain.ListOpts{Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Results) != 2 || !page.HasMore {
		t.Fatalf("first page: %d results, hasMore=%v", len(page.Results), page.HasMore)
	}

	var seen []string
	for _, r := range page.Results {
		seen = append(seen, r.ID("id"))
	}
	for page.HasMore {
		page, err = svc.List(ctx, domain.ListOpts{Limit: 2, After: page.After})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		for _, r := range page.Results {
			seen = append(seen, r.ID("id"))
		}
	}

	if diff := cmp.Diff([]string{"1", "2", "3", "4", "5"}, seen); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}

	if _, err := svc.List(ctx, domain.ListOpts{After: "abc"}); !errors.Is(err, store.ErrInvalidCursor) {
		t.Errorf("bad cursor: err = %v, want ErrInvalidCursor", err)
	}
}

func TestOptions(t *testing.T) {
	_, svc, ctx := setupService(t)
	createCategory(t, svc, ctx, "Zeta", 2)
	createCategory(t, svc, ctx, "Alpha", 1)

	opts, err := svc.Options(ctx)
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	want := []domain.Option{
		{Value: "2", Label: "Alpha"},
		{Value: "1", Label: "Zeta"},
	}
	if diff := cmp.Diff(want, opts); diff != "" {
		t.Errorf("options mismatch (-want +got):\n%s", diff)
	}

	n, err := svc.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
}

func TestBindUsesTransaction(t *testing.T) {
	s, svc, ctx := setupService(t)

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := s.Bind(categories)(tx).Create(ctx, map[string]any{"name": "Temp", "is_active": true, "sort_order": int64(0)}); err != nil {
		t.Fatalf("create in tx: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	n, err := svc.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("count after rollback = %d, want 0", n)
	}
}

func TestClear(t *testing.T) {
	s, svc, ctx := setupService(t)
	createCategory(t, svc, ctx, "Hardware", 1)

	if err := s.Clear(ctx, categories.Name); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if n, _ := svc.Count(ctx); n != 0 {
		t.Errorf("count after clear = %d, want 0", n)
	}
}
