package store_test

import (
	"context"
	"testing"

	"github.com/johnwards/backoffice/internal/domain"
	"github.com/johnwards/backoffice/internal/store"
	"github.com/johnwards/backoffice/internal/testhelpers"
)

func TestActionLogNewestFirst(t *testing.T) {
	s := testhelpers.NewTestStore(t)
	log := store.NewActionLog(s.DB, s.Dialect)
	ctx := context.Background()

	for _, status := range []string{"ok", "invalid", "failed"} {
		if err := log.Append(ctx, domain.ActionEntry{Entity: "products", Action: "upsert", Status: status}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	entries, next, err := log.List(ctx, domain.ListOpts{Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 || next == "" {
		t.Fatalf("got %d entries, next=%q", len(entries), next)
	}
	if entries[0].Status != "failed" || entries[1].Status != "invalid" {
		t.Errorf("order = %s, %s; want failed, invalid", entries[0].Status, entries[1].Status)
	}

	rest, next, err := log.List(ctx, domain.ListOpts{Limit: 2, After: next})
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(rest) != 1 || rest[0].Status != "ok" || next != "" {
		t.Errorf("page 2 = %+v, next=%q", rest, next)
	}
}
