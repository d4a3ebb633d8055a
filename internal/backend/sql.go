package backend

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

// SQLClient implements Client over database/sql (sqlite or postgres).
type SQLClient struct {
	db *sql.DB
}

func NewSQLClient(db *sql.DB) *SQLClient { return &SQLClient{db: db} }

func (c *SQLClient) Select(ctx context.Context, table string, filter Filter) ([]Row, error) {
	where, args := buildWhere(filter, 1)
	q := "SELECT * FROM " + table + where
	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		r := make(Row, len(cols))
		for i, col := range cols {
			r[col] = vals[i]
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (c *SQLClient) Insert(ctx context.Context, table string, row Row) (Row, error) {
	cols := sortedKeys(row)
	ph := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		ph[i] = fmt.Sprintf("$%d", i+1)
		args[i] = row[col]
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(cols, ","), strings.Join(ph, ","))
	if _, err := c.db.ExecContext(ctx, q, args...); err != nil {
		return nil, fmt.Errorf("insert %s: %w", table, err)
	}
	return row, nil
}

func (c *SQLClient) Update(ctx context.Context, table string, filter Filter, patch Row) error {
	cols := sortedKeys(patch)
	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols)+len(filter))
	for i, col := range cols {
		sets[i] = fmt.Sprintf("%s=$%d", col, i+1)
		args = append(args, patch[col])
	}
	where, whereArgs := buildWhere(filter, len(cols)+1)
	args = append(args, whereArgs...)
	q := fmt.Sprintf("UPDATE %s SET %s%s", table, strings.Join(sets, ","), where)
	if _, err := c.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	return nil
}

func (c *SQLClient) Delete(ctx context.Context, table string, filter Filter) error {
	where, args := buildWhere(filter, 1)
	if _, err := c.db.ExecContext(ctx, "DELETE FROM "+table+where, args...); err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	return nil
}

func buildWhere(filter Filter, firstOrdinal int) (string, []any) {
	if len(filter) == 0 {
		return "", nil
	}
	cols := make([]string, 0, len(filter))
	for k := range filter {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	conds := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		conds[i] = fmt.Sprintf("%s=$%d", col, firstOrdinal+i)
		args[i] = filter[col]
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func sortedKeys(r Row) []string {
	ks := make([]string, 0, len(r))
	for k := range r {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	return ks
}
