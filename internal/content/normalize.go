package content

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/examhall/examhall/internal/backend"
)

// Legacy payloads are inconsistent: camelCase vs snake_case keys, numbers vs
// strings for indices, underlined_words as a bare array or wrapped in an
// object. Everything funnels through normalizeQuestion once; nothing after the
// loader ever inspects a raw payload.

var typeAliases = map[string]QuestionType{
	"multiple_choice": TypeMultipleChoice,
	"multiple-choice": TypeMultipleChoice,
	"mcq":             TypeMultipleChoice,
	"true_false":      TypeTrueFalse,
	"true-false":      TypeTrueFalse,
	"truefalse":       TypeTrueFalse,
	"matching":        TypeMatching,
	"underline_error": TypeUnderline,
	"underline":       TypeUnderline,
	"passage_choice":  TypePassageChoice,
	"passage":         TypePassageChoice,
	"reading":         TypePassageChoice,
}

func normalizeQuestion(row backend.Row) Question {
	q := Question{
		ID:       row.String("id"),
		Prompt:   row.String("prompt"),
		Position: row.Int("position"),
	}
	q.Type = typeAliases[strings.ToLower(row.String("qtype"))]

	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(row.String("payload_json")), &payload); err != nil {
		payload = nil
	}

	q.Choices = stringList(pick(payload, "choices", "options"))
	correct := pick(payload, "correct_answer", "correctAnswer", "correct")

	switch q.Type {
	case TypeMultipleChoice, TypePassageChoice:
		q.CorrectIndex = asIndex(correct)
	case TypeTrueFalse:
		q.CorrectBool = asBool(correct)
	case TypeMatching:
		q.LeftItems = stringList(pick(payload, "left_items", "leftItems"))
		q.RightItems = stringList(pick(payload, "right_items", "rightItems"))
		q.CorrectPairs = asPairs(correct)
	case TypeUnderline:
		q.UnderlinedWords = wordList(pick(payload, "underlined_words", "underlinedWords"))
		q.IncorrectLetter = asLetter(pick(payload, "incorrect_letter", "incorrectLetter"))
		if q.IncorrectLetter == "" {
			q.IncorrectLetter = asLetter(correct)
		}
	}
	return q
}

func pick(payload map[string]json.RawMessage, keys ...string) json.RawMessage {
	for _, k := range keys {
		if v, ok := payload[k]; ok && len(v) > 0 && string(v) != "null" {
			return v
		}
	}
	return nil
}

func stringList(raw json.RawMessage) []string {
	if raw == nil {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// wordList accepts either ["word", ...] or the legacy {"words": ["word", ...]}.
func wordList(raw json.RawMessage) []string {
	if raw == nil {
		return nil
	}
	if out := stringList(raw); out != nil {
		return out
	}
	var wrapped struct {
		Words []string `json:"words"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil
	}
	return wrapped.Words
}

// asIndex accepts 2, "2", or 2.0 and yields "2". Correct indices are compared
// as strings throughout scoring.
func asIndex(raw json.RawMessage) string {
	if raw == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.Itoa(int(f))
	}
	return ""
}

// asBool folds the truthy encodings seen in stored data: true, "true", "True".
func asBool(raw json.RawMessage) string {
	if raw == nil {
		return ""
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true":
			return "true"
		case "false":
			return "false"
		}
	}
	return ""
}

// asPairs accepts {"left":"right", ...} or [{"left":..,"right":..}, ...] and
// yields pairs sorted by left item for order-insensitive comparison.
func asPairs(raw json.RawMessage) []Pair {
	if raw == nil {
		return nil
	}
	var pairs []Pair
	if err := json.Unmarshal(raw, &pairs); err != nil {
		var m map[string]string
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil
		}
		for l, r := range m {
			pairs = append(pairs, Pair{Left: l, Right: r})
		}
	}
	SortPairs(pairs)
	return pairs
}

func asLetter(raw json.RawMessage) string {
	if raw == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(s))
}

// SortPairs orders pairs by left then right item.
func SortPairs(pairs []Pair) {
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Left != pairs[j].Left {
			return pairs[i].Left < pairs[j].Left
		}
		return pairs[i].Right < pairs[j].Right
	})
}
