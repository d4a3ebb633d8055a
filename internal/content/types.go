package content

// Kind distinguishes single-section unit exams from multi-section TOEFL exams.
type Kind string

const (
	KindUnit  Kind = "unit"
	KindTOEFL Kind = "toefl"
)

type Skill string

const (
	SkillListening Skill = "listening"
	SkillStructure Skill = "structure"
	SkillReading   Skill = "reading"
)

type QuestionType string

const (
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeTrueFalse      QuestionType = "true_false"
	TypeMatching       QuestionType = "matching"
	TypeUnderline      QuestionType = "underline_error"
	TypePassageChoice  QuestionType = "passage_choice"
)

// Pair is one left/right assignment in a matching question.
type Pair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// Question is the canonical shape every stored representation is normalized
// into. Downstream code (scoring, session) never sees raw backend rows.
type Question struct {
	ID       string       `json:"id"`
	Type     QuestionType `json:"type"`
	Prompt   string       `json:"prompt"`
	Position int          `json:"position"`

	// multiple_choice / passage_choice
	Choices      []string `json:"choices,omitempty"`
	CorrectIndex string   `json:"correct_index,omitempty"` // index kept as string, compared as string

	// true_false
	CorrectBool string `json:"correct_bool,omitempty"` // "true"/"false", "" when absent

	// matching
	LeftItems    []string `json:"left_items,omitempty"`
	RightItems   []string `json:"right_items,omitempty"`
	CorrectPairs []Pair   `json:"correct_pairs,omitempty"`

	// underline_error
	UnderlinedWords []string `json:"underlined_words,omitempty"`
	IncorrectLetter string   `json:"incorrect_letter,omitempty"`
}

// Scorable reports whether the question carries a correct-answer definition.
// Unscorable questions are excluded from scoring entirely.
func (q Question) Scorable() bool {
	switch q.Type {
	case TypeMultipleChoice, TypePassageChoice:
		return q.CorrectIndex != ""
	case TypeTrueFalse:
		return q.CorrectBool != ""
	case TypeMatching:
		return len(q.CorrectPairs) > 0
	case TypeUnderline:
		return q.IncorrectLetter != ""
	}
	return false
}

// Section groups questions by skill. A unit exam gets one implicit section.
type Section struct {
	ID           string     `json:"id"`
	Skill        Skill      `json:"skill"`
	Position     int        `json:"position"`
	DurationMin  int        `json:"duration_min"`
	AudioURL     string     `json:"audio_url,omitempty"`
	PassageTitle string     `json:"passage_title,omitempty"`
	PassageBody  string     `json:"passage_body,omitempty"`
	Questions    []Question `json:"questions"`
}

type Exam struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Kind        Kind      `json:"kind"`
	DurationMin int       `json:"duration_min"`
	Cohort      string    `json:"cohort"`
	Sections    []Section `json:"sections"`
}

// SectionIDs returns section IDs in display order.
func (e *Exam) SectionIDs() []string {
	ids := make([]string, len(e.Sections))
	for i, s := range e.Sections {
		ids[i] = s.ID
	}
	return ids
}

// Section finds a section by ID, nil when absent.
func (e *Exam) Section(id string) *Section {
	for i := range e.Sections {
		if e.Sections[i].ID == id {
			return &e.Sections[i]
		}
	}
	return nil
}

// Sanitized returns a deep copy with every correct-answer field stripped,
// safe to serve to students mid-exam.
func (e *Exam) Sanitized() *Exam {
	out := *e
	out.Sections = make([]Section, len(e.Sections))
	for i, s := range e.Sections {
		out.Sections[i] = s
		out.Sections[i].Questions = make([]Question, len(s.Questions))
		for j, q := range s.Questions {
			q.CorrectIndex = ""
			q.CorrectBool = ""
			q.CorrectPairs = nil
			q.IncorrectLetter = ""
			out.Sections[i].Questions[j] = q
		}
	}
	return &out
}

// QuestionCount is the number of questions across all sections.
func (e *Exam) QuestionCount() int {
	n := 0
	for _, s := range e.Sections {
		n += len(s.Questions)
	}
	return n
}
