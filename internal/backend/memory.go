package backend

import (
	"context"
	"fmt"
	"sync"
)

// MemoryClient keeps tables in maps. Parity target for SQLClient; used in tests
// and offline development.
type MemoryClient struct {
	mu     sync.RWMutex
	tables map[string][]Row
}

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{tables: map[string][]Row{}}
}

func (c *MemoryClient) Select(_ context.Context, table string, filter Filter) ([]Row, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Row
	for _, r := range c.tables[table] {
		if matches(r, filter) {
			out = append(out, cloneRow(r))
		}
	}
	return out, nil
}

func (c *MemoryClient) Insert(_ context.Context, table string, row Row) (Row, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables[table] = append(c.tables[table], cloneRow(row))
	return row, nil
}

func (c *MemoryClient) Update(_ context.Context, table string, filter Filter, patch Row) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.tables[table] {
		if matches(r, filter) {
			for k, v := range patch {
				r[k] = v
			}
		}
	}
	return nil
}

func (c *MemoryClient) Delete(_ context.Context, table string, filter Filter) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.tables[table][:0]
	for _, r := range c.tables[table] {
		if !matches(r, filter) {
			kept = append(kept, r)
		}
	}
	c.tables[table] = kept
	return nil
}

func matches(r Row, f Filter) bool {
	for k, want := range f {
		if fmt.Sprint(r[k]) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

func cloneRow(r Row) Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
