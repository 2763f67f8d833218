package models

import "time"

// Audit log action tags
const (
	ActionInitialEntry        = "Initial Entry"
	ActionResumeUploaded      = "Resume Uploaded"
	ActionResumeAnalyzed      = "Resume Analyzed"
	ActionSkillCheckSent      = "Skill Check Sent"
	ActionSkillCheckCompleted = "Skill Check Completed"
	ActionStatusChanged       = "Status Changed"
	ActionEmailSent           = "Email Sent"
)

// AuditLogEntry records one action taken on a candidate
type AuditLogEntry struct {
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Action    string    `json:"action" yaml:"action"`
	Details   string    `json:"details" yaml:"details"`
}

// WorkHistoryEntry is one position extracted from a resume
type WorkHistoryEntry struct {
	Company     string `json:"company" yaml:"company"`
	Title       string `json:"title" yaml:"title"`
	StartDate   string `json:"start_date" yaml:"start_date"`
	EndDate     string `json:"end_date" yaml:"end_date"` // may be "Present"
	Description string `json:"description" yaml:"description"`
	Industry    string `json:"industry,omitempty" yaml:"industry,omitempty"`
}

// CandidateAnalysis is the structured AI assessment of a resume
type CandidateAnalysis struct {
	Summary         string             `json:"summary" yaml:"summary"`
	Skills          []string           `json:"skills" yaml:"skills"`
	ExperienceYears int                `json:"experience_years" yaml:"experience_years"`
	Education       []string           `json:"education" yaml:"education"`
	FitScore        int                `json:"fit_score" yaml:"fit_score"` // 1-10
	WorkHistory     []WorkHistoryEntry `json:"work_history" yaml:"work_history"`
}

// DisplayFitScore clamps the AI supplied fit score into 1-10.
func (a *CandidateAnalysis) DisplayFitScore() int {
	switch {
	case a.FitScore < 1:
		return 1
	case a.FitScore > 10:
		return 10
	default:
		return a.FitScore
	}
}

// SkillCheckDetails is the breakdown shown next to a skill check score
type SkillCheckDetails struct {
	Summary             string   `json:"summary" yaml:"summary"`
	Strengths           []string `json:"strengths" yaml:"strengths"`
	AreasForImprovement []string `json:"areas_for_improvement" yaml:"areas_for_improvement"`
}

// Candidate is a single applicant tracked through the hiring pipeline
type Candidate struct {
	ID                   string             `json:"id" yaml:"id"`
	Name                 string             `json:"name" yaml:"name"`
	Email                string             `json:"email" yaml:"email"`
	Role                 string             `json:"role" yaml:"role"`
	Status               Status             `json:"status" yaml:"status"`
	AppliedDate          string             `json:"applied_date" yaml:"applied_date"`
	Analysis             *CandidateAnalysis `json:"analysis,omitempty" yaml:"analysis,omitempty"`
	Resume               Resume             `json:"resume" yaml:"resume"`
	AnonymizedResumeText string             `json:"anonymized_resume_text,omitempty" yaml:"anonymized_resume_text,omitempty"`
	RecommendedAction    string             `json:"recommended_action,omitempty" yaml:"recommended_action,omitempty"`
	ActionJustification  string             `json:"action_justification,omitempty" yaml:"action_justification,omitempty"`
	SkillCheckScore      *int               `json:"skill_check_score,omitempty" yaml:"skill_check_score,omitempty"`
	SkillCheckDetails    *SkillCheckDetails `json:"skill_check_details,omitempty" yaml:"skill_check_details,omitempty"`
	AuditLog             []AuditLogEntry    `json:"audit_log" yaml:"audit_log"`
}

// AppendAudit adds an entry to the end of the audit log.
func (c *Candidate) AppendAudit(at time.Time, action, details string) {
	c.AuditLog = append(c.AuditLog, AuditLogEntry{Timestamp: at, Action: action, Details: details})
}

// Clone returns a deep copy so callers never share slices with the store.
func (c *Candidate) Clone() *Candidate {
	if c == nil {
		return nil
	}
	out := *c

	if c.Analysis != nil {
		a := *c.Analysis
		a.Skills = cloneStrings(c.Analysis.Skills)
		a.Education = cloneStrings(c.Analysis.Education)
		if c.Analysis.WorkHistory != nil {
			a.WorkHistory = make([]WorkHistoryEntry, len(c.Analysis.WorkHistory))
			copy(a.WorkHistory, c.Analysis.WorkHistory)
		}
		out.Analysis = &a
	}

	out.Resume = c.Resume.Clone()

	if c.SkillCheckScore != nil {
		score := *c.SkillCheckScore
		out.SkillCheckScore = &score
	}

	if c.SkillCheckDetails != nil {
		d := *c.SkillCheckDetails
		d.Strengths = cloneStrings(c.SkillCheckDetails.Strengths)
		d.AreasForImprovement = cloneStrings(c.SkillCheckDetails.AreasForImprovement)
		out.SkillCheckDetails = &d
	}

	out.AuditLog = make([]AuditLogEntry, len(c.AuditLog))
	copy(out.AuditLog, c.AuditLog)

	return &out
}

// Skills returns the analysed skills, or nil when there is no analysis.
func (c *Candidate) Skills() []string {
	if c.Analysis == nil {
		return nil
	}
	return cloneStrings(c.Analysis.Skills)
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// SkillQuestion is one multiple-choice question of a skill check
type SkillQuestion struct {
	Question           string   `json:"question"`
	Options            []string `json:"options"`
	CorrectAnswerIndex int      `json:"correct_answer_index"`
}

// LearningResource is a suggested article, video or course
type LearningResource struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Type  string `json:"type"`
}

// LearningPath groups learning resources for one weak skill
type LearningPath struct {
	Skill     string             `json:"skill"`
	Resources []LearningResource `json:"resources"`
}

// EmailDraft is a status-change notification awaiting recruiter approval
type EmailDraft struct {
	CandidateID string `json:"candidate_id"`
	Status      Status `json:"status"`
	To          string `json:"to"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
	Generated   bool   `json:"generated"`
}
