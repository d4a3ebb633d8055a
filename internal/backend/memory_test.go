package backend

import (
	"context"
	"testing"
)

func TestMemoryClientSelectFiltersByEquality(t *testing.T) {
	c := NewMemoryClient()
	ctx := context.Background()
	for _, r := range []Row{
		{"student_id": "s1", "exam_id": "e1", "value": "a"},
		{"student_id": "s1", "exam_id": "e2", "value": "b"},
		{"student_id": "s2", "exam_id": "e1", "value": "c"},
	} {
		if _, err := c.Insert(ctx, TableAnswers, r); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	rows, err := c.Select(ctx, TableAnswers, Filter{"student_id": "s1"})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}

	rows, _ = c.Select(ctx, TableAnswers, Filter{"student_id": "s1", "exam_id": "e2"})
	if len(rows) != 1 || rows[0].String("value") != "b" {
		t.Fatalf("compound filter returned %v", rows)
	}

	rows, _ = c.Select(ctx, TableAnswers, Filter{"student_id": "nobody"})
	if len(rows) != 0 {
		t.Fatalf("no-match filter returned %d rows", len(rows))
	}
}

func TestMemoryClientSelectReturnsCopies(t *testing.T) {
	c := NewMemoryClient()
	ctx := context.Background()
	if _, err := c.Insert(ctx, TableResults, Row{"id": "r1", "status": "active"}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	rows, _ := c.Select(ctx, TableResults, Filter{"id": "r1"})
	rows[0]["status"] = "mangled"

	rows, _ = c.Select(ctx, TableResults, Filter{"id": "r1"})
	if got := rows[0].String("status"); got != "active" {
		t.Fatalf("stored row mutated through selected copy: %q", got)
	}
}

func TestMemoryClientUpdatePatchesMatching(t *testing.T) {
	c := NewMemoryClient()
	ctx := context.Background()
	c.Insert(ctx, TableResults, Row{"id": "r1", "student_id": "s1", "status": "active"})
	c.Insert(ctx, TableResults, Row{"id": "r2", "student_id": "s2", "status": "active"})

	if err := c.Update(ctx, TableResults, Filter{"student_id": "s1"}, Row{"status": "inactive"}); err != nil {
		t.Fatalf("update: %v", err)
	}

	rows, _ := c.Select(ctx, TableResults, Filter{"id": "r1"})
	if rows[0].String("status") != "inactive" {
		t.Fatalf("matched row not patched: %v", rows[0])
	}
	rows, _ = c.Select(ctx, TableResults, Filter{"id": "r2"})
	if rows[0].String("status") != "active" {
		t.Fatalf("unmatched row patched: %v", rows[0])
	}
}

func TestMemoryClientDelete(t *testing.T) {
	c := NewMemoryClient()
	ctx := context.Background()
	c.Insert(ctx, TableAnswers, Row{"id": "a1", "question_id": "q1"})
	c.Insert(ctx, TableAnswers, Row{"id": "a2", "question_id": "q2"})

	if err := c.Delete(ctx, TableAnswers, Filter{"question_id": "q1"}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	rows, _ := c.Select(ctx, TableAnswers, Filter{})
	if len(rows) != 1 || rows[0].String("question_id") != "q2" {
		t.Fatalf("after delete: %v", rows)
	}
}

// Driver scans surface int64 where callers wrote int; the filter must still
// match across the numeric representations.
func TestMemoryClientFilterCrossesNumericTypes(t *testing.T) {
	c := NewMemoryClient()
	ctx := context.Background()
	c.Insert(ctx, TableProgress, Row{"id": "p1", "completed_at": int64(42)})

	rows, _ := c.Select(ctx, TableProgress, Filter{"completed_at": 42})
	if len(rows) != 1 {
		t.Fatalf("int filter missed int64 column")
	}
}

func TestRowAccessors(t *testing.T) {
	r := Row{
		"s":     "str",
		"bytes": []byte("raw"),
		"nul":   nil,
		"i":     int64(7),
		"f":     float64(9),
	}
	if r.String("s") != "str" || r.String("bytes") != "raw" || r.String("nul") != "" {
		t.Fatalf("String accessor: %q %q %q", r.String("s"), r.String("bytes"), r.String("nul"))
	}
	if r.Int("i") != 7 || r.Int("f") != 9 || r.Int("missing") != 0 {
		t.Fatalf("Int accessor: %d %d %d", r.Int("i"), r.Int("f"), r.Int("missing"))
	}
}
