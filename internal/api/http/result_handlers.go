package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	auth "github.com/examhall/examhall/internal/auth/middleware"
	"github.com/examhall/examhall/internal/backend"
	"github.com/examhall/examhall/internal/scoring"
)

// GET /results/{examID}: the caller's own result.
func GetResultHandler(results *scoring.ResultStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		student := auth.IdentityFromContext(r.Context())
		res, err := results.Get(r.Context(), student.ID, chi.URLParam(r, "examID"))
		if err != nil {
			if errors.Is(err, backend.ErrNotFound) {
				http.Error(w, "no result", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, res)
	}
}

// GET /exams/{examID}/results: teacher view: every result row for an exam,
// including last_active_at so in-progress students show as active.
func ListExamResultsHandler(client backend.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := client.Select(r.Context(), backend.TableResults,
			backend.Filter{"exam_id": chi.URLParam(r, "examID")})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		type resultRow struct {
			StudentID    string `json:"student_id"`
			Status       string `json:"status"`
			Total        int    `json:"total_score"`
			LastActiveAt int64  `json:"last_active_at,omitempty"`
			CompletedAt  int64  `json:"completed_at,omitempty"`
		}
		out := make([]resultRow, 0, len(rows))
		for _, row := range rows {
			out = append(out, resultRow{
				StudentID:    row.String("student_id"),
				Status:       row.String("status"),
				Total:        row.Int("total_score"),
				LastActiveAt: int64(row.Int("last_active_at")),
				CompletedAt:  int64(row.Int("completed_at")),
			})
		}
		writeJSON(w, out)
	}
}
