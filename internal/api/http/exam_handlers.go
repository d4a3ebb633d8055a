package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/examhall/examhall/internal/backend"
	"github.com/examhall/examhall/internal/content"
)

// GET /exams/{examID}: the exam definition with answer keys stripped.
func GetExamHandler(loader *content.Loader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ex, err := loader.LoadExam(r.Context(), chi.URLParam(r, "examID"))
		if err != nil {
			writeContentError(w, err)
			return
		}
		writeJSON(w, ex.Sanitized())
	}
}

// GET /exams: scheduled exam metadata, no questions.
func ListExamsHandler(client backend.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := client.Select(r.Context(), backend.TableExams, nil)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		type examSummary struct {
			ID          string `json:"id"`
			Title       string `json:"title"`
			Kind        string `json:"kind"`
			DurationMin int    `json:"duration_min"`
			ScheduledAt int64  `json:"scheduled_at,omitempty"`
			Cohort      string `json:"cohort"`
		}
		out := make([]examSummary, 0, len(rows))
		for _, row := range rows {
			out = append(out, examSummary{
				ID:          row.String("id"),
				Title:       row.String("title"),
				Kind:        row.String("kind"),
				DurationMin: row.Int("duration_min"),
				ScheduledAt: int64(row.Int("scheduled_at")),
				Cohort:      row.String("cohort"),
			})
		}
		writeJSON(w, out)
	}
}
