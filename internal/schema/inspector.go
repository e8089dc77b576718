package schema

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgxpool.Pool the inspector needs. pgxmock pools
// satisfy it in tests.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Inspector answers "does this table/column exist right now" questions against
// information_schema. Deployments rename columns between releases, so the rest
// of the agent asks the inspector instead of assuming a fixed schema version.
// Answers are cached until Invalidate is called.
type Inspector struct {
	db Querier

	mu      sync.Mutex
	tables  map[string]bool
	columns map[string]bool
}

func NewInspector(db Querier) *Inspector {
	return &Inspector{
		db:      db,
		tables:  make(map[string]bool),
		columns: make(map[string]bool),
	}
}

// TableExists reports whether the named table is present in the current schema.
func (i *Inspector) TableExists(ctx context.Context, table string) (bool, error) {
	i.mu.Lock()
	if v, ok := i.tables[table]; ok {
		i.mu.Unlock()
		return v, nil
	}
	i.mu.Unlock()

	var one int
	err := i.db.QueryRow(ctx, `
		SELECT 1 FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_name = $1
		LIMIT 1
	`, table).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			i.putTable(table, false)
			return false, nil
		}
		return false, fmt.Errorf("probe table %s: %w", table, err)
	}

	i.putTable(table, true)
	return true, nil
}

// ColumnExists reports whether table.column is present in the current schema.
func (i *Inspector) ColumnExists(ctx context.Context, table, column string) (bool, error) {
	key := table + "." + column

	i.mu.Lock()
	if v, ok := i.columns[key]; ok {
		i.mu.Unlock()
		return v, nil
	}
	i.mu.Unlock()

	var one int
	err := i.db.QueryRow(ctx, `
		SELECT 1 FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1 AND column_name = $2
		LIMIT 1
	`, table, column).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			i.putColumn(key, false)
			return false, nil
		}
		return false, fmt.Errorf("probe column %s.%s: %w", table, column, err)
	}

	i.putColumn(key, true)
	return true, nil
}

// FirstColumn returns the first of the candidate columns that exists on the
// table, or "" when none do. Used where a logical field has been renamed
// across deployments (procedure_code vs procedure_type and the like).
func (i *Inspector) FirstColumn(ctx context.Context, table string, candidates ...string) (string, error) {
	for _, c := range candidates {
		ok, err := i.ColumnExists(ctx, table, c)
		if err != nil {
			return "", err
		}
		if ok {
			return c, nil
		}
	}
	return "", nil
}

// Invalidate drops all cached answers, forcing fresh probes. Call it after a
// migration is known to have run.
func (i *Inspector) Invalidate() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.tables = make(map[string]bool)
	i.columns = make(map[string]bool)
}

func (i *Inspector) putTable(key string, v bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.tables[key] = v
}

func (i *Inspector) putColumn(key string, v bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.columns[key] = v
}
