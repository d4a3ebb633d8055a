package progress

import (
	"context"
	"testing"

	"github.com/examhall/examhall/internal/backend"
)

func TestMarkSectionCompleteIsIdempotent(t *testing.T) {
	client := backend.NewMemoryClient()
	tr := NewTracker(client)
	ctx := context.Background()

	if err := tr.MarkSectionComplete(ctx, "s1", "e1", "listening"); err != nil {
		t.Fatalf("first mark: %v", err)
	}
	if err := tr.MarkSectionComplete(ctx, "s1", "e1", "listening"); err != nil {
		t.Fatalf("second mark: %v", err)
	}

	rows, err := client.Select(ctx, backend.TableProgress, backend.Filter{
		"student_id": "s1", "exam_id": "e1",
	})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("progress rows = %d, want 1", len(rows))
	}
}

func TestCompletedSetGrowsMonotonically(t *testing.T) {
	client := backend.NewMemoryClient()
	tr := NewTracker(client)
	ctx := context.Background()

	sections := []string{"listening", "structure", "reading"}
	for i, sec := range sections {
		if err := tr.MarkSectionComplete(ctx, "s1", "e1", sec); err != nil {
			t.Fatalf("mark %s: %v", sec, err)
		}
		done, err := tr.Completed(ctx, "s1", "e1")
		if err != nil {
			t.Fatalf("completed: %v", err)
		}
		if len(done) != i+1 {
			t.Fatalf("completed set size = %d after %d marks", len(done), i+1)
		}
		for _, prev := range sections[:i+1] {
			if !done[prev] {
				t.Fatalf("section %s dropped from completed set", prev)
			}
		}
	}
}

func TestIsExamComplete(t *testing.T) {
	client := backend.NewMemoryClient()
	tr := NewTracker(client)
	ctx := context.Background()
	required := []string{"listening", "structure", "reading"}

	for _, sec := range required[:2] {
		if err := tr.MarkSectionComplete(ctx, "s1", "e1", sec); err != nil {
			t.Fatalf("mark %s: %v", sec, err)
		}
	}
	done, err := tr.IsExamComplete(ctx, "s1", "e1", required)
	if err != nil {
		t.Fatalf("IsExamComplete: %v", err)
	}
	if done {
		t.Fatalf("exam reported complete with one section missing")
	}

	if err := tr.MarkSectionComplete(ctx, "s1", "e1", "reading"); err != nil {
		t.Fatalf("mark reading: %v", err)
	}
	done, err = tr.IsExamComplete(ctx, "s1", "e1", required)
	if err != nil {
		t.Fatalf("IsExamComplete: %v", err)
	}
	if !done {
		t.Fatalf("exam not reported complete with all sections done")
	}
}
