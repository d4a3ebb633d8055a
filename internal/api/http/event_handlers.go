package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/examhall/examhall/internal/backend"
)

// GET /exams/{examID}/events: the session activity feed for one exam, oldest
// first, so a proctoring view can follow attempts as they move.
func ListExamEventsHandler(client backend.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := client.Select(r.Context(), backend.TableEvents,
			backend.Filter{"key": chi.URLParam(r, "examID")})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		type event struct {
			Seq       int    `json:"seq"`
			StudentID string `json:"student_id"`
			Type      string `json:"type"`
			Data      string `json:"data"`
			CreatedAt int64  `json:"created_at"`
		}
		out := make([]event, 0, len(rows))
		for _, row := range rows {
			out = append(out, event{
				Seq:       row.Int("seq"),
				StudentID: row.String("student_id"),
				Type:      row.String("typ"),
				Data:      row.String("data"),
				CreatedAt: int64(row.Int("created_at")),
			})
		}
		writeJSON(w, out)
	}
}
