package scoring

import "github.com/examhall/examhall/internal/content"

// Per-skill weights for multi-section exams: each section's raw fraction is
// scaled to its weight and the weighted sections sum to the total.
var skillWeights = map[content.Skill]int{
	content.SkillListening: 50,
	content.SkillStructure: 40,
	content.SkillReading:   50,
}

// Scale normalizes raw section scores into the exam's total. Unit exams score
// as a percentage; multi-section exams sum the per-skill weighted scores.
// Sections with no scorable questions contribute nothing.
func Scale(kind content.Kind, sections []SectionScore) int {
	if kind == content.KindTOEFL {
		total := 0
		for _, s := range sections {
			if s.Total == 0 {
				continue
			}
			total += roundHalfUp(float64(s.Correct) / float64(s.Total) * float64(skillWeights[s.Skill]))
		}
		return total
	}

	correct, total := 0, 0
	for _, s := range sections {
		correct += s.Correct
		total += s.Total
	}
	if total == 0 {
		return 0
	}
	return roundHalfUp(float64(correct) / float64(total) * 100)
}

func roundHalfUp(x float64) int {
	return int(x + 0.5)
}
