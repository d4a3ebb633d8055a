package scoring

import (
	"encoding/json"
	"strings"

	"github.com/examhall/examhall/internal/content"
)

// SectionScore is the raw outcome for one section: correct answers over the
// section's scorable question count.
type SectionScore struct {
	SectionID string        `json:"section_id"`
	Skill     content.Skill `json:"skill"`
	Correct   int           `json:"correct"`
	Total     int           `json:"total"`
}

// Strategy decides whether one stored answer matches the question's key.
type Strategy interface {
	Correct(q content.Question, value string) bool
}

// Engine routes each question type to its comparison strategy and reduces an
// exam's stored answers into per-section raw scores.
type Engine struct {
	strategies map[content.QuestionType]Strategy
}

func NewEngine() *Engine {
	return &Engine{strategies: map[content.QuestionType]Strategy{
		content.TypeMultipleChoice: choiceStrategy{},
		content.TypePassageChoice:  choiceStrategy{},
		content.TypeTrueFalse:      trueFalseStrategy{},
		content.TypeMatching:       matchingStrategy{},
		content.TypeUnderline:      underlineStrategy{},
	}}
}

// Score reconciles stored answers against the exam definition. Questions
// without a correct-answer definition, or with a type no strategy covers, are
// excluded from both numerator and denominator.
func (e *Engine) Score(ex *content.Exam, stored map[string]string) []SectionScore {
	out := make([]SectionScore, 0, len(ex.Sections))
	for _, sec := range ex.Sections {
		ss := SectionScore{SectionID: sec.ID, Skill: sec.Skill}
		for _, q := range sec.Questions {
			strat, ok := e.strategies[q.Type]
			if !ok || !q.Scorable() {
				continue
			}
			ss.Total++
			value, answered := stored[q.ID]
			if answered && strat.Correct(q, value) {
				ss.Correct++
			}
		}
		out = append(out, ss)
	}
	return out
}

// choiceStrategy covers multiple-choice and passage-linked choice: the stored
// answer is the chosen index, compared as a string.
type choiceStrategy struct{}

func (choiceStrategy) Correct(q content.Question, value string) bool {
	return strings.TrimSpace(value) == q.CorrectIndex
}

// trueFalseStrategy accepts the truthy encodings stored data uses:
// "true", "True", a JSON bool serialized to text.
type trueFalseStrategy struct{}

func (trueFalseStrategy) Correct(q content.Question, value string) bool {
	return normalizeBool(value) == q.CorrectBool
}

func normalizeBool(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return "true"
	case "false":
		return "false"
	}
	return ""
}

// matchingStrategy compares the student's pairing with the key pairing,
// order-insensitive: both sides are sorted before deep comparison.
type matchingStrategy struct{}

func (matchingStrategy) Correct(q content.Question, value string) bool {
	got := parsePairs(value)
	if len(got) != len(q.CorrectPairs) {
		return false
	}
	content.SortPairs(got)
	for i, p := range got {
		if p != q.CorrectPairs[i] {
			return false
		}
	}
	return true
}

// parsePairs accepts the two serializations answers arrive in:
// {"left":"right",...} or [{"left":..,"right":..},...].
func parsePairs(value string) []content.Pair {
	var pairs []content.Pair
	if err := json.Unmarshal([]byte(value), &pairs); err == nil {
		return pairs
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(value), &m); err != nil {
		return nil
	}
	for l, r := range m {
		pairs = append(pairs, content.Pair{Left: l, Right: r})
	}
	return pairs
}

// underlineStrategy: the stored letter must be the designated incorrect one.
type underlineStrategy struct{}

func (underlineStrategy) Correct(q content.Question, value string) bool {
	return strings.EqualFold(strings.TrimSpace(value), q.IncorrectLetter)
}
