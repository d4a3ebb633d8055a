package backend

import (
	"context"
	"errors"
)

// Logical table names the exam session reads and writes.
const (
	TableUsers     = "users"
	TableExams     = "exams"
	TableSections  = "sections"
	TableQuestions = "questions"
	TableAnswers   = "answers"
	TableProgress  = "progress"
	TableResults   = "results"
	TableEvents    = "event_log"
)

var ErrNotFound = errors.New("row not found")

// Row is one table row, column name -> value.
type Row map[string]any

// Filter selects rows by column equality. All entries must match.
type Filter map[string]any

// Client is a table-oriented store. The exam session never sees SQL;
// everything it persists goes through these four calls.
type Client interface {
	Select(ctx context.Context, table string, filter Filter) ([]Row, error)
	Insert(ctx context.Context, table string, row Row) (Row, error)
	Update(ctx context.Context, table string, filter Filter, patch Row) error
	Delete(ctx context.Context, table string, filter Filter) error
}

// String reads a column as a string, tolerating NULLs and []byte scans.
func (r Row) String(col string) string {
	switch v := r[col].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}

// Int reads a column as an int across the numeric types drivers return.
func (r Row) Int(col string) int {
	switch v := r[col].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
