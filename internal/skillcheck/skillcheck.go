// Package skillcheck scores candidate quizzes and keeps quiz sessions until
// they are submitted.
package skillcheck

import (
	"fmt"
	"math"
	"strings"

	"github.com/fmuoria/resmo/internal/models"
)

// Unanswered marks a question the candidate skipped.
const Unanswered = -1

// DefaultSkills are quizzed when a candidate has no analysed skills.
var DefaultSkills = []string{"React", "TypeScript"}

// SkillsOrDefault returns skills, or DefaultSkills when none are known.
func SkillsOrDefault(skills []string) []string {
	for _, s := range skills {
		if strings.TrimSpace(s) != "" {
			return skills
		}
	}
	out := make([]string, len(DefaultSkills))
	copy(out, DefaultSkills)
	return out
}

// ValidateAnswers checks that there is one answer per question and that each
// is an option index or Unanswered.
func ValidateAnswers(questions []models.SkillQuestion, answers []int) error {
	if len(answers) != len(questions) {
		return fmt.Errorf("expected %d answers, got %d", len(questions), len(answers))
	}
	for i, a := range answers {
		if a != Unanswered && (a < 0 || a >= len(questions[i].Options)) {
			return fmt.Errorf("answer %d is out of range: %d", i+1, a)
		}
	}
	return nil
}

// Score returns the percentage of correct answers, rounded to the nearest
// integer. An empty quiz scores 0.
func Score(questions []models.SkillQuestion, answers []int) int {
	if len(questions) == 0 {
		return 0
	}
	correct := 0
	for i, q := range questions {
		if i < len(answers) && answers[i] == q.CorrectAnswerIndex {
			correct++
		}
	}
	return int(math.Round(100 * float64(correct) / float64(len(questions))))
}

// WeakSkills returns the skills whose first word appears in the text of a
// wrongly answered question. Matching ignores case; order follows skills.
func WeakSkills(questions []models.SkillQuestion, answers []int, skills []string) []string {
	var missed []string
	for i, q := range questions {
		if i >= len(answers) || answers[i] != q.CorrectAnswerIndex {
			missed = append(missed, strings.ToLower(q.Question))
		}
	}

	var weak []string
	for _, skill := range skills {
		key := firstWord(skill)
		if key == "" {
			continue
		}
		for _, text := range missed {
			if strings.Contains(text, key) {
				weak = append(weak, skill)
				break
			}
		}
	}
	return weak
}

func firstWord(skill string) string {
	fields := strings.Fields(strings.ToLower(skill))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Details builds the breakdown stored on the candidate.
func Details(score int, skills, weak []string) models.SkillCheckDetails {
	isWeak := make(map[string]bool, len(weak))
	for _, w := range weak {
		isWeak[w] = true
	}

	strengths := []string{}
	for _, s := range skills {
		if strings.TrimSpace(s) != "" && !isWeak[s] {
			strengths = append(strengths, s)
		}
	}

	areas := make([]string, len(weak))
	copy(areas, weak)

	return models.SkillCheckDetails{
		Summary:             fmt.Sprintf("Candidate scored %d%% on the skill check.", score),
		Strengths:           strengths,
		AreasForImprovement: areas,
	}
}
