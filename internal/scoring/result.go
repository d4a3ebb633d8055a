package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/examhall/examhall/internal/backend"
)

const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusCompleted = "completed"
)

// Result is the scoring artifact for one (student, exam) pair.
type Result struct {
	StudentID   string         `json:"student_id"`
	ExamID      string         `json:"exam_id"`
	Status      string         `json:"status"`
	Sections    []SectionScore `json:"sections"`
	Total       int            `json:"total"`
	CompletedAt int64          `json:"completed_at,omitempty"`
}

// ResultStore maintains exactly one result row per (student, exam). The save
// path checks for an existing row and updates it, inserting only when none
// exists; the schema's unique index backstops the check-then-write.
type ResultStore struct {
	client backend.Client
}

func NewResultStore(client backend.Client) *ResultStore {
	return &ResultStore{client: client}
}

// EnsureActive creates the attempt's result row in "active" status if it does
// not exist yet. This is the row the live activity marker touches.
func (s *ResultStore) EnsureActive(ctx context.Context, studentID, examID string) error {
	filter := backend.Filter{"student_id": studentID, "exam_id": examID}
	rows, err := s.client.Select(ctx, backend.TableResults, filter)
	if err != nil {
		return fmt.Errorf("check result %s: %w", examID, err)
	}
	if len(rows) > 0 {
		// Resuming: flip a previously exited attempt back to active.
		if rows[0].String("status") == StatusInactive {
			return s.client.Update(ctx, backend.TableResults, filter, backend.Row{
				"status":         StatusActive,
				"last_active_at": time.Now().Unix(),
			})
		}
		return nil
	}
	_, err = s.client.Insert(ctx, backend.TableResults, backend.Row{
		"id":                  uuid.NewString(),
		"student_id":          studentID,
		"exam_id":             examID,
		"status":              StatusActive,
		"section_scores_json": "[]",
		"total_score":         0,
		"last_active_at":      time.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("create result %s: %w", examID, err)
	}
	return nil
}

// Save upserts the final scores. Never an unconditional insert: duplicates
// here mean a student's "result" becomes ambiguous.
func (s *ResultStore) Save(ctx context.Context, res Result) error {
	scoresJSON, err := json.Marshal(res.Sections)
	if err != nil {
		return err
	}
	filter := backend.Filter{"student_id": res.StudentID, "exam_id": res.ExamID}
	patch := backend.Row{
		"status":              res.Status,
		"section_scores_json": string(scoresJSON),
		"total_score":         res.Total,
		"completed_at":        res.CompletedAt,
		"last_active_at":      time.Now().Unix(),
	}

	existing, err := s.client.Select(ctx, backend.TableResults, filter)
	if err != nil {
		return fmt.Errorf("check result %s: %w", res.ExamID, err)
	}
	if len(existing) > 0 {
		if err := s.client.Update(ctx, backend.TableResults, filter, patch); err != nil {
			return fmt.Errorf("update result %s: %w", res.ExamID, err)
		}
		return nil
	}

	row := backend.Row{
		"id":         uuid.NewString(),
		"student_id": res.StudentID,
		"exam_id":    res.ExamID,
	}
	for k, v := range patch {
		row[k] = v
	}
	if _, err := s.client.Insert(ctx, backend.TableResults, row); err != nil {
		return fmt.Errorf("insert result %s: %w", res.ExamID, err)
	}
	return nil
}

// SetStatus updates only the attempt status (exit marks it inactive).
func (s *ResultStore) SetStatus(ctx context.Context, studentID, examID, status string) error {
	return s.client.Update(ctx, backend.TableResults,
		backend.Filter{"student_id": studentID, "exam_id": examID},
		backend.Row{"status": status, "last_active_at": time.Now().Unix()})
}

// Get loads the stored result, backend.ErrNotFound when absent.
func (s *ResultStore) Get(ctx context.Context, studentID, examID string) (Result, error) {
	rows, err := s.client.Select(ctx, backend.TableResults,
		backend.Filter{"student_id": studentID, "exam_id": examID})
	if err != nil {
		return Result{}, err
	}
	if len(rows) == 0 {
		return Result{}, backend.ErrNotFound
	}
	r := rows[0]
	res := Result{
		StudentID:   r.String("student_id"),
		ExamID:      r.String("exam_id"),
		Status:      r.String("status"),
		Total:       r.Int("total_score"),
		CompletedAt: int64(r.Int("completed_at")),
	}
	if err := json.Unmarshal([]byte(r.String("section_scores_json")), &res.Sections); err != nil {
		res.Sections = nil
	}
	return res, nil
}
