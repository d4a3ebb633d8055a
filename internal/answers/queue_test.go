package answers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/examhall/examhall/internal/backend"
)

// slowClient delays deletes so a second enqueue lands while the first write
// is still in flight.
type slowClient struct {
	backend.Client
	delay time.Duration
}

func (s slowClient) Delete(ctx context.Context, table string, f backend.Filter) error {
	time.Sleep(s.delay)
	return s.Client.Delete(ctx, table, f)
}

func TestRapidReanswerLastWriteWins(t *testing.T) {
	mem := backend.NewMemoryClient()
	store := NewStore(slowClient{Client: mem, delay: 10 * time.Millisecond})
	q := NewWriteQueue(store)

	// Change the answer before the first write can possibly have landed.
	q.Enqueue("s1", "e1", "q1", "2")
	q.Enqueue("s1", "e1", "q1", "0")
	q.Flush()

	rows, err := mem.Select(context.Background(), backend.TableAnswers,
		backend.Filter{"student_id": "s1", "exam_id": "e1", "question_id": "q1"})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("answer rows = %d, want 1", len(rows))
	}
	if got := rows[0].String("value"); got != "0" {
		t.Fatalf("final value = %q, want %q (last write wins)", got, "0")
	}
}

func TestDifferentKeysDrainConcurrently(t *testing.T) {
	mem := backend.NewMemoryClient()
	q := NewWriteQueue(NewStore(mem))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			q.Enqueue("s1", "e1", string(rune('a'+i)), "1")
		}(i)
	}
	wg.Wait()
	q.Flush()

	rows, err := mem.Select(context.Background(), backend.TableAnswers,
		backend.Filter{"student_id": "s1", "exam_id": "e1"})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(rows) != 8 {
		t.Fatalf("answer rows = %d, want 8", len(rows))
	}
}

func TestFlushWaitsForPendingWrites(t *testing.T) {
	mem := backend.NewMemoryClient()
	store := NewStore(slowClient{Client: mem, delay: 5 * time.Millisecond})
	q := NewWriteQueue(store)

	for i := 0; i < 5; i++ {
		q.Enqueue("s1", "e1", "q1", "v")
	}
	q.Flush()

	rows, err := mem.Select(context.Background(), backend.TableAnswers, backend.Filter{"question_id": "q1"})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("answer rows = %d, want exactly 1 after flush", len(rows))
	}
}
