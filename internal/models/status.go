package models

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of a candidate
type Status string

const (
	StatusNew                 Status = "New"
	StatusSkillCheckPending   Status = "Skill Check Pending"
	StatusSkillCheckCompleted Status = "Skill Check Completed"
	StatusShortlisted         Status = "Shortlisted"
	StatusInterviewing        Status = "Interviewing"
	StatusHired               Status = "Hired"
	StatusRejected            Status = "Rejected"
)

// AllStatuses lists every status in pipeline order, Rejected last.
var AllStatuses = []Status{
	StatusNew,
	StatusSkillCheckPending,
	StatusSkillCheckCompleted,
	StatusShortlisted,
	StatusInterviewing,
	StatusHired,
	StatusRejected,
}

// transitions is the set of moves a recruiter or candidate may make.
// SkillCheckCompleted is only entered through a skill check submission.
var transitions = map[Status][]Status{
	StatusNew:                 {StatusSkillCheckPending, StatusShortlisted, StatusInterviewing, StatusRejected},
	StatusSkillCheckPending:   {StatusSkillCheckCompleted, StatusShortlisted, StatusInterviewing, StatusRejected},
	StatusSkillCheckCompleted: {StatusSkillCheckPending, StatusShortlisted, StatusInterviewing, StatusRejected},
	StatusShortlisted:         {StatusSkillCheckPending, StatusInterviewing, StatusHired, StatusRejected},
	StatusInterviewing:        {StatusShortlisted, StatusHired, StatusRejected},
}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed from s.
func (s Status) IsTerminal() bool {
	return s == StatusHired || s == StatusRejected
}

// CanTransition reports whether moving from one status to another is allowed.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses reachable from s.
func NextStatuses(s Status) []Status {
	next := transitions[s]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// ParseStatus accepts either the display form ("Skill Check Pending") or a
// compact form ("SkillCheckPending", "skill_check_pending").
func ParseStatus(value string) (Status, error) {
	normalized := normalizeStatus(value)
	for _, s := range AllStatuses {
		if normalizeStatus(string(s)) == normalized {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", value)
}

func normalizeStatus(value string) string {
	r := strings.NewReplacer(" ", "", "_", "", "-", "")
	return strings.ToLower(r.Replace(strings.TrimSpace(value)))
}

// TrackerStep is one node of the candidate-facing progress tracker
type TrackerStep struct {
	Status    Status `json:"status"`
	Completed bool   `json:"completed"`
	Active    bool   `json:"active"`
}

// trackerOrder is the happy path shown to candidates.
var trackerOrder = AllStatuses[:6]

// Tracker returns the progress nodes for a candidate in status s.
// A rejected candidate sees a single Rejected node.
func Tracker(s Status) []TrackerStep {
	if s == StatusRejected {
		return []TrackerStep{{Status: StatusRejected, Active: true}}
	}

	current := -1
	for i, step := range trackerOrder {
		if step == s {
			current = i
		}
	}

	steps := make([]TrackerStep, 0, len(trackerOrder))
	for i, step := range trackerOrder {
		steps = append(steps, TrackerStep{
			Status:    step,
			Completed: i < current || (step == StatusHired && i == current),
			Active:    i == current,
		})
	}
	return steps
}
