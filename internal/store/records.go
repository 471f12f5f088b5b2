package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/johnwards/backoffice/internal/domain"
	"github.com/johnwards/backoffice/internal/payload"
)

// Column is a writable table column and the kind its values normalise to.
type Column struct {
	Name string
	Kind payload.Kind
}

// Table describes the SQL table behind an entity.
type Table struct {
	Name    string
	Key     string
	Columns []Column
	// Label is the column shown in {value,label} lookups. Empty means the key.
	Label string
	// Order is the column lookups are sorted by. Empty means the key.
	Order string
}

func (t Table) column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// EntityService defines persistence for one entity table.
type EntityService interface {
	Create(ctx context.Context, data map[string]any) (domain.Record, error)
	Update(ctx context.Context, id int64, data map[string]any) (domain.Record, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (domain.Record, error)
	List(ctx context.Context, opts domain.ListOpts) (*domain.RecordPage, error)
	Options(ctx context.Context) ([]domain.Option, error)
	Count(ctx context.Context) (int, error)
}

// SQLService implements EntityService for any Table.
type SQLService struct {
	q       Querier
	dialect Dialect
	table   Table
}

var _ EntityService = (*SQLService)(nil)

// NewSQLService creates a service bound to q.
func NewSQLService(q Querier, dialect Dialect, table Table) *SQLService {
	return &SQLService{q: q, dialect: dialect, table: table}
}

// columnsFor orders the data keys by table declaration and rejects keys
// that are not writable columns.
func (s *SQLService) columnsFor(data map[string]any) ([]string, []any, error) {
	var unknown []string
	for k := range data {
		if _, ok := s.table.column(k); !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, nil, fmt.Errorf("%s: unknown columns %s", s.table.Name, strings.Join(unknown, ", "))
	}

	cols := make([]string, 0, len(data)+2)
	args := make([]any, 0, len(data)+2)
	for _, c := range s.table.Columns {
		if v, ok := data[c.Name]; ok {
			cols = append(cols, c.Name)
			args = append(args, v)
		}
	}
	return cols, args, nil
}

// Create inserts a row and returns it as stored.
func (s *SQLService) Create(ctx context.Context, data map[string]any) (domain.Record, error) {
	cols, args, err := s.columnsFor(data)
	if err != nil {
		return nil, err
	}

	ts := now()
	cols = append(cols, "created_at", "updated_at")
	args = append(args, ts, ts)

	quoted := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdent(c)
		marks[i] = s.dialect.Placeholder(i + 1)
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING %s`,
		quoteIdent(s.table.Name), strings.Join(quoted, ", "), strings.Join(marks, ", "), quoteIdent(s.table.Key))

	var id int64
	if err := s.q.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return nil, fmt.Errorf("insert %s: %w", s.table.Name, s.dialect.classify(err))
	}

	return s.Get(ctx, id)
}

// Update modifies the given columns of one row. Columns absent from data are
// left untouched.
func (s *SQLService) Update(ctx context.Context, id int64, data map[string]any) (domain.Record, error) {
	cols, args, err := s.columnsFor(data)
	if err != nil {
		return nil, err
	}

	cols = append(cols, "updated_at")
	args = append(args, now())

	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = quoteIdent(c) + " = " + s.dialect.Placeholder(i+1)
	}
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE %s = %s`,
		quoteIdent(s.table.Name), strings.Join(sets, ", "), quoteIdent(s.table.Key), s.dialect.Placeholder(len(args)))

	res, err := s.q.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update %s %d: %w", s.table.Name, id, s.dialect.classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%s %d: %w", s.table.Name, id, ErrNotFound)
	}

	return s.Get(ctx, id)
}

// Delete removes one row.
func (s *SQLService) Delete(ctx context.Context, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = %s`,
		quoteIdent(s.table.Name), quoteIdent(s.table.Key), s.dialect.Placeholder(1))

	res, err := s.q.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", s.table.Name, id, s.dialect.classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", s.table.Name, id, ErrNotFound)
	}
	return nil
}

func (s *SQLService) selectList() string {
	cols := make([]string, 0, len(s.table.Columns)+3)
	cols = append(cols, quoteIdent(s.table.Key))
	for _, c := range s.table.Columns {
		cols = append(cols, quoteIdent(c.Name))
	}
	cols = append(cols, quoteIdent("created_at"), quoteIdent("updated_at"))
	return strings.Join(cols, ", ")
}

func (s *SQLService) scan(row interface{ Scan(...any) error }) (domain.Record, error) {
	n := len(s.table.Columns) + 3
	values := make([]any, n)
	ptrs := make([]any, n)
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := row.Scan(ptrs...); err != nil {
		return nil, err
	}

	rec := make(domain.Record, n)
	rec[s.table.Key] = normalize(payload.KindInteger, values[0])
	for i, c := range s.table.Columns {
		rec[c.Name] = normalize(c.Kind, values[i+1])
	}
	rec["created_at"] = normalize(payload.KindString, values[n-2])
	rec["updated_at"] = normalize(payload.KindString, values[n-1])
	return rec, nil
}

// Get retrieves a single row by key.
func (s *SQLService) Get(ctx context.Context, id int64) (domain.Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = %s`,
		s.selectList(), quoteIdent(s.table.Name), quoteIdent(s.table.Key), s.dialect.Placeholder(1))

	rec, err := s.scan(s.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s %d: %w", s.table.Name, id, ErrNotFound)
		}
		return nil, fmt.Errorf("get %s %d: %w", s.table.Name, id, err)
	}
	return rec, nil
}

// List returns a page of rows ordered by key, starting after opts.After.
func (s *SQLService) List(ctx context.Context, opts domain.ListOpts) (*domain.RecordPage, error) {
	if opts.Limit <= 0 {
		opts.Limit = 10
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}

	query := fmt.Sprintf(`SELECT %s FROM %s`, s.selectList(), quoteIdent(s.table.Name))
	var args []any

	if opts.After != "" {
		after, err := strconv.ParseInt(opts.After, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", opts.After, ErrInvalidCursor)
		}
		args = append(args, after)
		query += fmt.Sprintf(` WHERE %s > %s`, quoteIdent(s.table.Key), s.dialect.Placeholder(len(args)))
	}

	// Fetch one extra to determine if there is a next page.
	args = append(args, opts.Limit+1)
	query += fmt.Sprintf(` ORDER BY %s ASC LIMIT %s`, quoteIdent(s.table.Key), s.dialect.Placeholder(len(args)))

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.table.Name, err)
	}
	defer func() { _ = rows.Close() }()

	page := &domain.RecordPage{}
	for rows.Next() {
		rec, err := s.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.table.Name, err)
		}
		page.Results = append(page.Results, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	if len(page.Results) > opts.Limit {
		page.HasMore = true
		page.After = page.Results[opts.Limit-1].ID(s.table.Key)
		page.Results = page.Results[:opts.Limit]
	}
	return page, nil
}

// Options returns {value,label} pairs for every row, for select inputs.
func (s *SQLService) Options(ctx context.Context) ([]domain.Option, error) {
	label := s.table.Label
	if label == "" {
		label = s.table.Key
	}
	order := s.table.Order
	if order == "" {
		order = s.table.Key
	}

	query := fmt.Sprintf(`SELECT %s, %s FROM %s ORDER BY %s ASC, %s ASC`,
		quoteIdent(s.table.Key), quoteIdent(label), quoteIdent(s.table.Name), quoteIdent(order), quoteIdent(s.table.Key))

	rows, err := s.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("options %s: %w", s.table.Name, err)
	}
	defer func() { _ = rows.Close() }()

	options := []domain.Option{}
	for rows.Next() {
		var id int64
		var text any
		if err := rows.Scan(&id, &text); err != nil {
			return nil, fmt.Errorf("scan option: %w", err)
		}
		opt := domain.Option{Value: strconv.FormatInt(id, 10)}
		if v := normalize(payload.KindString, text); v != nil {
			opt.Label = v.(string)
		}
		options = append(options, opt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return options, nil
}

// Count returns the number of rows in the table.
func (s *SQLService) Count(ctx context.Context) (int, error) {
	var n int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, quoteIdent(s.table.Name))
	if err := s.q.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", s.table.Name, err)
	}
	return n, nil
}
