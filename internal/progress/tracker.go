package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/examhall/examhall/internal/backend"
)

// Tracker records which sections a student has completed within an exam
// attempt. The completed set only grows; sections are never un-completed.
type Tracker struct {
	client backend.Client
}

func NewTracker(client backend.Client) *Tracker { return &Tracker{client: client} }

// MarkSectionComplete adds the section to the completed set. Idempotent:
// marking an already-complete section is a no-op, not an error.
func (t *Tracker) MarkSectionComplete(ctx context.Context, studentID, examID, sectionID string) error {
	filter := backend.Filter{
		"student_id": studentID,
		"exam_id":    examID,
		"section_id": sectionID,
	}
	existing, err := t.client.Select(ctx, backend.TableProgress, filter)
	if err != nil {
		return fmt.Errorf("check progress %s/%s: %w", examID, sectionID, err)
	}
	if len(existing) > 0 {
		return nil
	}
	_, err = t.client.Insert(ctx, backend.TableProgress, backend.Row{
		"id":           uuid.NewString(),
		"student_id":   studentID,
		"exam_id":      examID,
		"section_id":   sectionID,
		"completed_at": time.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("mark section %s/%s: %w", examID, sectionID, err)
	}
	return nil
}

// Completed returns the set of completed section IDs for one attempt.
func (t *Tracker) Completed(ctx context.Context, studentID, examID string) (map[string]bool, error) {
	rows, err := t.client.Select(ctx, backend.TableProgress, backend.Filter{
		"student_id": studentID,
		"exam_id":    examID,
	})
	if err != nil {
		return nil, fmt.Errorf("load progress %s: %w", examID, err)
	}
	done := make(map[string]bool, len(rows))
	for _, r := range rows {
		done[r.String("section_id")] = true
	}
	return done, nil
}

// IsExamComplete reports whether every required section has been completed.
func (t *Tracker) IsExamComplete(ctx context.Context, studentID, examID string, required []string) (bool, error) {
	done, err := t.Completed(ctx, studentID, examID)
	if err != nil {
		return false, err
	}
	return coversAll(done, required), nil
}

func coversAll(done map[string]bool, required []string) bool {
	for _, id := range required {
		if !done[id] {
			return false
		}
	}
	return true
}
