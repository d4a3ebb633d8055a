package answers

import (
	"context"
	"errors"
	"testing"

	"github.com/examhall/examhall/internal/backend"
)

func answerRows(t *testing.T, client backend.Client, studentID, examID string) []backend.Row {
	t.Helper()
	rows, err := client.Select(context.Background(), backend.TableAnswers,
		backend.Filter{"student_id": studentID, "exam_id": examID})
	if err != nil {
		t.Fatalf("select answers: %v", err)
	}
	return rows
}

func TestPutIsIdempotentPerKey(t *testing.T) {
	client := backend.NewMemoryClient()
	store := NewStore(client)
	ctx := context.Background()

	if err := store.Put(ctx, "s1", "e1", "q1", "2"); err != nil {
		t.Fatalf("first put: %v", err)
	}
	if err := store.Put(ctx, "s1", "e1", "q1", "0"); err != nil {
		t.Fatalf("second put: %v", err)
	}

	rows := answerRows(t, client, "s1", "e1")
	if len(rows) != 1 {
		t.Fatalf("answer rows = %d, want 1", len(rows))
	}
	if got := rows[0].String("value"); got != "0" {
		t.Fatalf("stored value = %q, want %q", got, "0")
	}
}

func TestPutKeysAreIndependent(t *testing.T) {
	client := backend.NewMemoryClient()
	store := NewStore(client)
	ctx := context.Background()

	for _, q := range []string{"q1", "q2", "q3"} {
		if err := store.Put(ctx, "s1", "e1", q, "1"); err != nil {
			t.Fatalf("put %s: %v", q, err)
		}
	}
	got, err := store.GetAll(ctx, "s1", "e1")
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("answers = %d, want 3", len(got))
	}
}

// deleteBroken simulates a backend whose delete path errors, forcing Put onto
// the existence-check fallback.
type deleteBroken struct {
	backend.Client
}

func (d deleteBroken) Delete(context.Context, string, backend.Filter) error {
	return errors.New("delete rejected")
}

func TestPutFallbackWhenDeleteFails(t *testing.T) {
	mem := backend.NewMemoryClient()
	store := NewStore(deleteBroken{Client: mem})
	ctx := context.Background()

	// First write: fallback inserts.
	if err := store.Put(ctx, "s1", "e1", "q1", "2"); err != nil {
		t.Fatalf("fallback insert: %v", err)
	}
	// Second write: fallback updates in place.
	if err := store.Put(ctx, "s1", "e1", "q1", "0"); err != nil {
		t.Fatalf("fallback update: %v", err)
	}

	rows := answerRows(t, mem, "s1", "e1")
	if len(rows) != 1 {
		t.Fatalf("answer rows = %d, want 1", len(rows))
	}
	if got := rows[0].String("value"); got != "0" {
		t.Fatalf("stored value = %q, want %q", got, "0")
	}
}

func TestPutTouchesActivityMarker(t *testing.T) {
	client := backend.NewMemoryClient()
	ctx := context.Background()
	if _, err := client.Insert(ctx, backend.TableResults, backend.Row{
		"student_id": "s1", "exam_id": "e1", "status": "active",
	}); err != nil {
		t.Fatalf("seed result: %v", err)
	}

	store := NewStore(client)
	if err := store.Put(ctx, "s1", "e1", "q1", "1"); err != nil {
		t.Fatalf("put: %v", err)
	}
	rows, err := client.Select(ctx, backend.TableResults, backend.Filter{"student_id": "s1"})
	if err != nil {
		t.Fatalf("select results: %v", err)
	}
	if rows[0].Int("last_active_at") == 0 {
		t.Fatalf("last_active_at not touched")
	}
}
