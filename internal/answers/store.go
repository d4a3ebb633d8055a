package answers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/examhall/examhall/internal/backend"
)

// Store persists one answer row per (student, exam, question). Later writes
// for the same key supersede earlier ones; there is no append log.
type Store struct {
	client backend.Client
}

func NewStore(client backend.Client) *Store { return &Store{client: client} }

// Put upserts the answer for one question. Primary strategy is
// delete-then-insert; if either half errors the fallback checks existence and
// chooses update vs insert instead. Backends differ in how they surface
// conflict errors, so both strategies stay.
func (s *Store) Put(ctx context.Context, studentID, examID, questionID, value string) error {
	filter := backend.Filter{
		"student_id":  studentID,
		"exam_id":     examID,
		"question_id": questionID,
	}
	row := backend.Row{
		"id":          uuid.NewString(),
		"student_id":  studentID,
		"exam_id":     examID,
		"question_id": questionID,
		"value":       value,
		"updated_at":  time.Now().Unix(),
	}

	err := s.client.Delete(ctx, backend.TableAnswers, filter)
	if err == nil {
		_, err = s.client.Insert(ctx, backend.TableAnswers, row)
	}
	if err != nil {
		if err := s.putFallback(ctx, filter, row); err != nil {
			return fmt.Errorf("put answer %s/%s: %w", examID, questionID, err)
		}
	}

	s.touchActivity(ctx, studentID, examID)
	return nil
}

func (s *Store) putFallback(ctx context.Context, filter backend.Filter, row backend.Row) error {
	existing, err := s.client.Select(ctx, backend.TableAnswers, filter)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return s.client.Update(ctx, backend.TableAnswers, filter, backend.Row{
			"value":      row["value"],
			"updated_at": row["updated_at"],
		})
	}
	_, err = s.client.Insert(ctx, backend.TableAnswers, row)
	return err
}

// GetAll returns the stored answers for one attempt, questionID -> value.
func (s *Store) GetAll(ctx context.Context, studentID, examID string) (map[string]string, error) {
	rows, err := s.client.Select(ctx, backend.TableAnswers, backend.Filter{
		"student_id": studentID,
		"exam_id":    examID,
	})
	if err != nil {
		return nil, fmt.Errorf("get answers %s: %w", examID, err)
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.String("question_id")] = r.String("value")
	}
	return out, nil
}

// touchActivity bumps last_active_at on the result row so a teacher-facing
// live view can show the student as active. Best effort.
func (s *Store) touchActivity(ctx context.Context, studentID, examID string) {
	_ = s.client.Update(ctx, backend.TableResults, backend.Filter{
		"student_id": studentID,
		"exam_id":    examID,
	}, backend.Row{"last_active_at": time.Now().Unix()})
}
