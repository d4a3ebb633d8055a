package content

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/examhall/examhall/internal/backend"
)

var (
	ErrExamNotFound = errors.New("exam not found")
	ErrNoQuestions  = errors.New("no questions configured")
)

// unitSectionID names the implicit section a unit exam's questions live in.
const unitSectionID = "main"

// Loader assembles an exam definition from the backend: metadata, ordered
// sections, ordered questions normalized into the canonical shape.
type Loader struct {
	client backend.Client
}

func NewLoader(client backend.Client) *Loader { return &Loader{client: client} }

func (l *Loader) LoadExam(ctx context.Context, examID string) (*Exam, error) {
	rows, err := l.client.Select(ctx, backend.TableExams, backend.Filter{"id": examID})
	if err != nil {
		return nil, fmt.Errorf("load exam %s: %w", examID, err)
	}
	if len(rows) == 0 {
		return nil, ErrExamNotFound
	}
	meta := rows[0]
	ex := &Exam{
		ID:          meta.String("id"),
		Title:       meta.String("title"),
		Kind:        Kind(meta.String("kind")),
		DurationMin: meta.Int("duration_min"),
		Cohort:      meta.String("cohort"),
	}

	questions, err := l.loadQuestions(ctx, examID)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	if ex.Kind == KindTOEFL {
		ex.Sections, err = l.loadSections(ctx, examID, questions)
		if err != nil {
			return nil, err
		}
	} else {
		// A unit exam has no stored sections; all questions land in one
		// implicit section timed by the exam itself.
		ex.Sections = []Section{{
			ID:          unitSectionID,
			DurationMin: ex.DurationMin,
			Questions:   questions[""],
		}}
		for sid, qs := range questions {
			if sid != "" {
				ex.Sections[0].Questions = append(ex.Sections[0].Questions, qs...)
			}
		}
		sortQuestions(ex.Sections[0].Questions)
	}
	return ex, nil
}

// loadQuestions returns normalized questions grouped by section ID.
func (l *Loader) loadQuestions(ctx context.Context, examID string) (map[string][]Question, error) {
	rows, err := l.client.Select(ctx, backend.TableQuestions, backend.Filter{"exam_id": examID})
	if err != nil {
		return nil, fmt.Errorf("load questions for %s: %w", examID, err)
	}
	bySection := map[string][]Question{}
	for _, row := range rows {
		q := normalizeQuestion(row)
		if q.Type == "" {
			// Unknown stored type: skip rather than crash the session.
			continue
		}
		sid := row.String("section_id")
		bySection[sid] = append(bySection[sid], q)
	}
	for sid := range bySection {
		sortQuestions(bySection[sid])
	}
	return bySection, nil
}

func (l *Loader) loadSections(ctx context.Context, examID string, questions map[string][]Question) ([]Section, error) {
	rows, err := l.client.Select(ctx, backend.TableSections, backend.Filter{"exam_id": examID})
	if err != nil {
		return nil, fmt.Errorf("load sections for %s: %w", examID, err)
	}
	sections := make([]Section, 0, len(rows))
	for _, row := range rows {
		s := Section{
			ID:           row.String("id"),
			Skill:        Skill(row.String("skill")),
			Position:     row.Int("position"),
			DurationMin:  row.Int("duration_min"),
			AudioURL:     row.String("audio_url"),
			PassageTitle: row.String("passage_title"),
			PassageBody:  row.String("passage_body"),
		}
		// A section with no stored questions is an empty skill, not an error.
		s.Questions = questions[s.ID]
		sections = append(sections, s)
	}
	sort.Slice(sections, func(i, j int) bool { return sections[i].Position < sections[j].Position })
	return sections, nil
}

func sortQuestions(qs []Question) {
	sort.Slice(qs, func(i, j int) bool { return qs[i].Position < qs[j].Position })
}
