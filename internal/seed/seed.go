package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/johnwards/backoffice/internal/crud"
	"github.com/johnwards/backoffice/internal/entities"
	"github.com/johnwards/backoffice/internal/payload"
	"github.com/johnwards/backoffice/internal/store"
)

// row is one demo record as a form would submit it. Values of the form
// "@entity:label" are replaced with the id of the record seeded earlier under
// that label.
type row map[string]string

type batch struct {
	entity string
	label  string // field used to reference rows from later batches
	rows   []row
}

var demo = []batch{
	{entity: "categories", label: "name", rows: []row{
		{"name": "Hardware", "slug": "hardware", "sort_order": "1"},
		{"name": "Fasteners", "slug": "fasteners", "parent_id": "@categories:Hardware", "sort_order": "2"},
		{"name": "Garden", "slug": "garden", "sort_order": "3", "is_active": "off"},
	}},
	{entity: "attribute_groups", label: "code", rows: []row{
		{"name": "Dimensions", "code": "dimensions", "is_filterable": "on"},
		{"name": "Material", "code": "material", "is_filterable": "on", "sort_order": "1"},
	}},
	{entity: "products", label: "sku", rows: []row{
		{"sku": "HW-100", "name": "Claw Hammer", "category_id": "@categories:Hardware", "attribute_group_id": "@attribute_groups:material", "price": "24.90", "stock": "40"},
		{"sku": "FS-M6", "name": "M6 Hex Bolt (100)", "category_id": "@categories:Fasteners", "attribute_group_id": "@attribute_groups:dimensions", "price": "8.50", "stock": "250"},
		{"sku": "GD-HOSE", "name": "Garden Hose 25m", "category_id": "@categories:Garden", "price": "39"},
	}},
	{entity: "contacts", label: "email", rows: []row{
		{"first_name": "Ada", "last_name": "Supplier", "email": "orders@boltworks.example", "company": "Boltworks Ltd", "kind": "supplier"},
		{"first_name": "Grace", "last_name": "Buyer", "email": "grace@example.com", "kind": "customer"},
		{"first_name": "Linus", "email": "linus@example.com"},
	}},
	{entity: "replenishment_rules", rows: []row{
		{"product_id": "@products:fs-m6", "supplier_id": "@contacts:orders@boltworks.example", "reorder_point": "50", "reorder_qty": "500", "lead_time_days": "14", "next_review": "2026-01-15"},
		{"product_id": "@products:hw-100", "reorder_point": "10", "reorder_qty": "20"},
	}},
}

// Seed inserts the demo catalog through each entity's payload builder. It is
// idempotent: nothing is inserted if any seeded table already has rows.
func Seed(ctx context.Context, st *store.Store, reg *entities.Registry) error {
	for _, b := range demo {
		e, ok := reg.Get(b.entity)
		if !ok {
			return fmt.Errorf("seed: unknown entity %q", b.entity)
		}
		n, err := st.Service(e.Table()).Count(ctx)
		if err != nil {
			return fmt.Errorf("count %s: %w", b.entity, err)
		}
		if n > 0 {
			return nil
		}
	}

	tx, err := st.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ids := make(map[string]string)
	for _, b := range demo {
		e := reg.MustGet(b.entity)
		actions := crud.New(e.Name, st.Bind(e.Table()), e.Builder, e.Key)

		for _, r := range b.rows {
			in := make(payload.Input, len(r))
			for k, v := range r {
				if len(v) > 0 && v[0] == '@' {
					id, ok := ids[v[1:]]
					if !ok {
						return fmt.Errorf("seed %s: unresolved reference %s", b.entity, v)
					}
					v = id
				}
				in[k] = v
			}

			out := actions.Upsert(ctx, tx, in)
			if !out.OK() {
				return fmt.Errorf("seed %s: %s %s%v", b.entity, out.Status, out.Message, out.Errors.Map())
			}
			if b.label != "" {
				label, _ := out.Record[b.label].(string)
				ids[b.entity+":"+label] = out.Record.ID(e.Key)
			}
		}
		slog.Debug("seeded entity", "entity", b.entity, "rows", len(b.rows))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	return nil
}

// Reset deletes all rows from every data table and re-seeds.
func Reset(ctx context.Context, st *store.Store, reg *entities.Registry, tables []string) error {
	if err := st.Clear(ctx, tables...); err != nil {
		return err
	}
	return Seed(ctx, st, reg)
}
