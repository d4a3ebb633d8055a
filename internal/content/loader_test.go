package content

import (
	"context"
	"errors"
	"testing"

	"github.com/examhall/examhall/internal/backend"
)

func seedExam(t *testing.T, client backend.Client, id string, kind Kind) {
	t.Helper()
	_, err := client.Insert(context.Background(), backend.TableExams, backend.Row{
		"id": id, "title": "Exam " + id, "kind": string(kind),
		"duration_min": 45, "cohort": "all",
	})
	if err != nil {
		t.Fatalf("seed exam: %v", err)
	}
}

func seedQuestion(t *testing.T, client backend.Client, id, examID, sectionID, qtype string, pos int, payload string) {
	t.Helper()
	_, err := client.Insert(context.Background(), backend.TableQuestions, backend.Row{
		"id": id, "exam_id": examID, "section_id": sectionID,
		"position": pos, "qtype": qtype, "prompt": "prompt " + id,
		"payload_json": payload,
	})
	if err != nil {
		t.Fatalf("seed question: %v", err)
	}
}

func seedSection(t *testing.T, client backend.Client, id, examID string, skill Skill, pos, durMin int, audio string) {
	t.Helper()
	_, err := client.Insert(context.Background(), backend.TableSections, backend.Row{
		"id": id, "exam_id": examID, "skill": string(skill),
		"position": pos, "duration_min": durMin, "audio_url": audio,
	})
	if err != nil {
		t.Fatalf("seed section: %v", err)
	}
}

func TestLoadExamNotFound(t *testing.T) {
	l := NewLoader(backend.NewMemoryClient())
	if _, err := l.LoadExam(context.Background(), "missing"); !errors.Is(err, ErrExamNotFound) {
		t.Fatalf("err = %v, want ErrExamNotFound", err)
	}
}

func TestLoadExamNoQuestions(t *testing.T) {
	client := backend.NewMemoryClient()
	seedExam(t, client, "e1", KindUnit)
	l := NewLoader(client)
	if _, err := l.LoadExam(context.Background(), "e1"); !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("err = %v, want ErrNoQuestions", err)
	}
}

func TestLoadUnitExamSynthesizesSection(t *testing.T) {
	client := backend.NewMemoryClient()
	seedExam(t, client, "e1", KindUnit)
	seedQuestion(t, client, "q2", "e1", "", "multiple_choice", 2, `{"choices":["a","b"],"correct_answer":1}`)
	seedQuestion(t, client, "q1", "e1", "", "multiple_choice", 1, `{"choices":["a","b"],"correct_answer":0}`)

	ex, err := NewLoader(client).LoadExam(context.Background(), "e1")
	if err != nil {
		t.Fatalf("LoadExam: %v", err)
	}
	if len(ex.Sections) != 1 {
		t.Fatalf("sections = %d, want 1 implicit section", len(ex.Sections))
	}
	sec := ex.Sections[0]
	if sec.DurationMin != 45 {
		t.Fatalf("implicit section duration = %d, want exam duration 45", sec.DurationMin)
	}
	if len(sec.Questions) != 2 || sec.Questions[0].ID != "q1" || sec.Questions[1].ID != "q2" {
		t.Fatalf("questions out of order: %+v", sec.Questions)
	}
}

func TestLoadTOEFLExamAssemblesSections(t *testing.T) {
	client := backend.NewMemoryClient()
	seedExam(t, client, "e1", KindTOEFL)
	seedSection(t, client, "sec-r", "e1", SkillReading, 3, 55, "")
	seedSection(t, client, "sec-l", "e1", SkillListening, 1, 35, "audio/sec-l.mp3")
	seedSection(t, client, "sec-s", "e1", SkillStructure, 2, 25, "")
	seedQuestion(t, client, "q1", "e1", "sec-l", "multiple_choice", 1, `{"choices":["a","b"],"correct_answer":"0"}`)
	seedQuestion(t, client, "q2", "e1", "sec-s", "underline", 1, `{"underlined_words":{"words":["went","to","school"]},"incorrect_letter":"a"}`)

	ex, err := NewLoader(client).LoadExam(context.Background(), "e1")
	if err != nil {
		t.Fatalf("LoadExam: %v", err)
	}
	if len(ex.Sections) != 3 {
		t.Fatalf("sections = %d, want 3", len(ex.Sections))
	}
	if ex.Sections[0].ID != "sec-l" || ex.Sections[1].ID != "sec-s" || ex.Sections[2].ID != "sec-r" {
		t.Fatalf("sections out of order: %v", ex.SectionIDs())
	}
	if ex.Sections[0].AudioURL == "" {
		t.Fatalf("listening audio URL lost")
	}
	// Reading has no questions: an empty skill, not an error.
	if len(ex.Sections[2].Questions) != 0 {
		t.Fatalf("reading questions = %d, want 0", len(ex.Sections[2].Questions))
	}
}

func TestLoadSkipsUnknownQuestionTypes(t *testing.T) {
	client := backend.NewMemoryClient()
	seedExam(t, client, "e1", KindUnit)
	seedQuestion(t, client, "q1", "e1", "", "multiple_choice", 1, `{"choices":["a"],"correct_answer":0}`)
	seedQuestion(t, client, "q2", "e1", "", "essay_legacy", 2, `{}`)

	ex, err := NewLoader(client).LoadExam(context.Background(), "e1")
	if err != nil {
		t.Fatalf("LoadExam: %v", err)
	}
	if ex.QuestionCount() != 1 {
		t.Fatalf("questions = %d, want 1 (unknown type skipped)", ex.QuestionCount())
	}
}

func TestSanitizedStripsAnswerKeys(t *testing.T) {
	ex := &Exam{
		Kind: KindUnit,
		Sections: []Section{{ID: "main", Questions: []Question{
			{ID: "q1", Type: TypeMultipleChoice, CorrectIndex: "1"},
			{ID: "q2", Type: TypeTrueFalse, CorrectBool: "true"},
			{ID: "q3", Type: TypeMatching, CorrectPairs: []Pair{{Left: "a", Right: "1"}}},
			{ID: "q4", Type: TypeUnderline, IncorrectLetter: "B"},
		}}},
	}
	clean := ex.Sanitized()
	for _, q := range clean.Sections[0].Questions {
		if q.CorrectIndex != "" || q.CorrectBool != "" || q.CorrectPairs != nil || q.IncorrectLetter != "" {
			t.Fatalf("answer key leaked in %s: %+v", q.ID, q)
		}
	}
	// Original untouched.
	if ex.Sections[0].Questions[0].CorrectIndex != "1" {
		t.Fatalf("Sanitized mutated the source exam")
	}
}
