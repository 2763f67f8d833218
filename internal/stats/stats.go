// Package stats computes the pipeline statistics shown on the recruiter dashboard.
package stats

import (
	"math"
	"sort"

	"github.com/fmuoria/resmo/internal/models"
)

const topSkillCount = 5

// StatusCount is the number of candidates in one status
type StatusCount struct {
	Status     models.Status `json:"status"`
	Count      int           `json:"count"`
	Percentage float64       `json:"percentage"`
}

// Bin is one bar of a histogram. Percentage is relative to the largest bin.
type Bin struct {
	Label      string  `json:"label"`
	Min        int     `json:"min"`
	Max        int     `json:"max"` // -1 means unbounded
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// SkillCount is how many analysed candidates list a skill
type SkillCount struct {
	Skill string `json:"skill"`
	Count int    `json:"count"`
}

// RoleCount is the number of candidates applying for a role
type RoleCount struct {
	Role       string  `json:"role"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Summary is the full dashboard
type Summary struct {
	TotalCandidates      int           `json:"total_candidates"`
	AnalyzedCandidates   int           `json:"analyzed_candidates"`
	Pipeline             []StatusCount `json:"pipeline"`
	FitScores            []Bin         `json:"fit_scores"`
	TopSkills            []SkillCount  `json:"top_skills"`
	Roles                []RoleCount   `json:"roles"`
	Experience           []Bin         `json:"experience"`
	AverageFitScore      float64       `json:"average_fit_score"`
	AverageSkillCheck    float64       `json:"average_skill_check_score"`
	SkillChecksCompleted int           `json:"skill_checks_completed"`
}

func fitScoreBins() []Bin {
	return []Bin{
		{Label: "1-3", Min: 1, Max: 3},
		{Label: "4-6", Min: 4, Max: 6},
		{Label: "7-8", Min: 7, Max: 8},
		{Label: "9-10", Min: 9, Max: 10},
	}
}

func experienceBins() []Bin {
	return []Bin{
		{Label: "0-2 yrs", Min: 0, Max: 2},
		{Label: "3-5 yrs", Min: 3, Max: 5},
		{Label: "6-8 yrs", Min: 6, Max: 8},
		{Label: "9+ yrs", Min: 9, Max: -1},
	}
}

// Compute builds the dashboard from the current candidates.
func Compute(candidates []*models.Candidate) Summary {
	s := Summary{
		TotalCandidates: len(candidates),
		Pipeline:        pipeline(candidates),
		Roles:           roles(candidates),
		TopSkills:       topSkills(candidates),
		FitScores:       fitScoreBins(),
		Experience:      experienceBins(),
	}

	var fitTotal, checkTotal int
	for _, c := range candidates {
		if c.SkillCheckScore != nil {
			s.SkillChecksCompleted++
			checkTotal += *c.SkillCheckScore
		}
		if c.Analysis == nil {
			continue
		}
		s.AnalyzedCandidates++
		fit := c.Analysis.DisplayFitScore()
		fitTotal += fit
		addToBin(s.FitScores, fit)
		addToBin(s.Experience, c.Analysis.ExperienceYears)
	}

	scaleBins(s.FitScores)
	scaleBins(s.Experience)

	if s.AnalyzedCandidates > 0 {
		s.AverageFitScore = round1(float64(fitTotal) / float64(s.AnalyzedCandidates))
	}
	if s.SkillChecksCompleted > 0 {
		s.AverageSkillCheck = round1(float64(checkTotal) / float64(s.SkillChecksCompleted))
	}
	return s
}

func pipeline(candidates []*models.Candidate) []StatusCount {
	counts := make(map[models.Status]int)
	for _, c := range candidates {
		counts[c.Status]++
	}

	out := []StatusCount{}
	for _, status := range models.AllStatuses {
		if n := counts[status]; n > 0 {
			out = append(out, StatusCount{Status: status, Count: n, Percentage: percent(n, len(candidates))})
		}
	}
	// ties keep pipeline order
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

func roles(candidates []*models.Candidate) []RoleCount {
	counts := make(map[string]int)
	var order []string
	for _, c := range candidates {
		role := c.Role
		if role == "" {
			role = "N/A"
		}
		if counts[role] == 0 {
			order = append(order, role)
		}
		counts[role]++
	}

	out := []RoleCount{}
	for _, role := range order {
		out = append(out, RoleCount{Role: role, Count: counts[role], Percentage: percent(counts[role], len(candidates))})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

func topSkills(candidates []*models.Candidate) []SkillCount {
	counts := make(map[string]int)
	for _, c := range candidates {
		for _, skill := range c.Skills() {
			counts[skill]++
		}
	}

	out := make([]SkillCount, 0, len(counts))
	for skill, n := range counts {
		out = append(out, SkillCount{Skill: skill, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Skill < out[j].Skill
	})
	if len(out) > topSkillCount {
		out = out[:topSkillCount]
	}
	return out
}

func addToBin(bins []Bin, value int) {
	for i := range bins {
		if value >= bins[i].Min && (bins[i].Max < 0 || value <= bins[i].Max) {
			bins[i].Count++
			return
		}
	}
}

func scaleBins(bins []Bin) {
	maxCount := 1
	for _, b := range bins {
		if b.Count > maxCount {
			maxCount = b.Count
		}
	}
	for i := range bins {
		bins[i].Percentage = percent(bins[i].Count, maxCount)
	}
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return round1(100 * float64(n) / float64(total))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
