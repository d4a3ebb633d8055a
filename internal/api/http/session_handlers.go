package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	auth "github.com/examhall/examhall/internal/auth/middleware"
	"github.com/examhall/examhall/internal/content"
	"github.com/examhall/examhall/internal/session"
)

// snapshot is the student-facing view of a running session.
type snapshot struct {
	State        string            `json:"state"`
	SectionID    string            `json:"section_id,omitempty"`
	QuestionIdx  int               `json:"question_index"`
	RemainingSec int               `json:"remaining_sec"`
	Answers      map[string]string `json:"answers"`
	Completed    []string          `json:"completed_sections"`
}

func snapshotOf(o *session.Orchestrator) snapshot {
	done := o.CompletedSections()
	completed := make([]string, 0, len(done))
	for id, ok := range done {
		if ok {
			completed = append(completed, id)
		}
	}
	return snapshot{
		State:        o.State().String(),
		SectionID:    o.CurrentSection(),
		QuestionIdx:  o.QuestionIndex(),
		RemainingSec: o.Remaining(),
		Answers:      o.Answers(),
		Completed:    completed,
	}
}

// POST /sessions/{examID}/start
func StartSessionHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID := chi.URLParam(r, "examID")
		student := auth.IdentityFromContext(r.Context())
		o, err := mgr.Start(r.Context(), student.ID, examID)
		if err != nil {
			if errors.Is(err, session.ErrAlreadySubmitted) {
				writeSessionError(w, err)
				return
			}
			writeContentError(w, err)
			return
		}
		writeJSON(w, snapshotOf(o))
	}
}

// POST /sessions/{examID}/sections/{sectionID}
func EnterSectionHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, ok := liveSession(w, r, mgr)
		if !ok {
			return
		}
		if err := o.EnterSection(r.Context(), chi.URLParam(r, "sectionID")); err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, snapshotOf(o))
	}
}

// PUT /sessions/{examID}/answers/{questionID}
func AnswerHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, ok := liveSession(w, r, mgr)
		if !ok {
			return
		}
		var req struct {
			Value string `json:"value"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := o.Answer(chi.URLParam(r, "questionID"), req.Value); err != nil {
			writeSessionError(w, err)
			return
		}
		// The write is queued; acknowledge the local state immediately.
		w.WriteHeader(http.StatusAccepted)
	}
}

// POST /sessions/{examID}/complete-section
func CompleteSectionHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, ok := liveSession(w, r, mgr)
		if !ok {
			return
		}
		if err := o.CompleteSection(r.Context()); err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, snapshotOf(o))
	}
}

// POST /sessions/{examID}/submit: unit exams; retries a failed final write
// when the session has already reached the submitted state.
func SubmitHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, ok := liveSession(w, r, mgr)
		if !ok {
			return
		}
		var err error
		if o.State() == session.StateSubmitted {
			err = o.RetrySubmit(r.Context())
		} else {
			err = o.Submit(r.Context())
		}
		if err != nil {
			if errors.Is(err, session.ErrWrongState) {
				writeSessionError(w, err)
				return
			}
			// Result-write failures must be visible: the client shows a
			// retry action instead of silently dropping the attempt.
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, snapshotOf(o))
	}
}

// POST /sessions/{examID}/exit
func ExitSessionHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, ok := liveSession(w, r, mgr)
		if !ok {
			return
		}
		if err := o.Exit(r.Context()); err != nil {
			writeSessionError(w, err)
			return
		}
		student := auth.IdentityFromContext(r.Context())
		mgr.Drop(student.ID, chi.URLParam(r, "examID"))
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /sessions/{examID}
func SessionStateHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, ok := liveSession(w, r, mgr)
		if !ok {
			return
		}
		writeJSON(w, snapshotOf(o))
	}
}

func liveSession(w http.ResponseWriter, r *http.Request, mgr *session.Manager) (*session.Orchestrator, bool) {
	student := auth.IdentityFromContext(r.Context())
	o, ok := mgr.Get(student.ID, chi.URLParam(r, "examID"))
	if !ok {
		http.Error(w, "no active session", http.StatusNotFound)
		return nil, false
	}
	return o, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeContentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, content.ErrExamNotFound):
		http.Error(w, content.ErrExamNotFound.Error(), http.StatusNotFound)
	case errors.Is(err, content.ErrNoQuestions):
		http.Error(w, content.ErrNoQuestions.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrWrongState),
		errors.Is(err, session.ErrAlreadyComplete),
		errors.Is(err, session.ErrAlreadySubmitted):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, session.ErrUnknownSection):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
