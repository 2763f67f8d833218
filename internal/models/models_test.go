package models

import (
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusNew, StatusSkillCheckPending, true},
		{StatusNew, StatusRejected, true},
		{StatusNew, StatusSkillCheckCompleted, false},
		{StatusNew, StatusHired, false},
		{StatusSkillCheckPending, StatusSkillCheckCompleted, true},
		{StatusSkillCheckCompleted, StatusShortlisted, true},
		{StatusShortlisted, StatusHired, true},
		{StatusInterviewing, StatusHired, true},
		{StatusInterviewing, StatusInterviewing, false},
		{StatusHired, StatusRejected, false},
		{StatusRejected, StatusNew, false},
		{StatusRejected, StatusShortlisted, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	for _, from := range AllStatuses {
		if !from.IsTerminal() {
			continue
		}
		for _, to := range AllStatuses {
			if CanTransition(from, to) {
				t.Errorf("Terminal status %q allows move to %q", from, to)
			}
		}
	}
}

func TestRejectedReachableFromEveryOpenStatus(t *testing.T) {
	for _, from := range AllStatuses {
		if from.IsTerminal() {
			continue
		}
		if !CanTransition(from, StatusRejected) {
			t.Errorf("Expected %q to allow Rejected", from)
		}
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{"Skill Check Pending", StatusSkillCheckPending, false},
		{"SkillCheckCompleted", StatusSkillCheckCompleted, false},
		{"shortlisted", StatusShortlisted, false},
		{"skill_check_pending", StatusSkillCheckPending, false},
		{"Offered", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStatus(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStatus(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseStatus(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTracker(t *testing.T) {
	steps := Tracker(StatusShortlisted)
	if len(steps) != 6 {
		t.Fatalf("Expected 6 steps, got %d", len(steps))
	}
	for i, step := range steps {
		switch {
		case i < 3 && !step.Completed:
			t.Errorf("Expected step %q to be completed", step.Status)
		case i == 3 && !step.Active:
			t.Errorf("Expected step %q to be active", step.Status)
		case i > 3 && (step.Completed || step.Active):
			t.Errorf("Expected step %q to be pending", step.Status)
		}
	}

	rejected := Tracker(StatusRejected)
	if len(rejected) != 1 || rejected[0].Status != StatusRejected {
		t.Errorf("Expected a single Rejected node, got %+v", rejected)
	}

	hired := Tracker(StatusHired)
	if last := hired[len(hired)-1]; !last.Completed || !last.Active {
		t.Errorf("Expected Hired to be active and completed, got %+v", last)
	}
}

func TestCandidateCloneIsDeep(t *testing.T) {
	score := 80
	original := &Candidate{
		ID:     "cand-1",
		Status: StatusInterviewing,
		Analysis: &CandidateAnalysis{
			Skills:      []string{"Go"},
			WorkHistory: []WorkHistoryEntry{{Company: "Acme"}},
		},
		Resume:          NewImageResume([]PageImage{{MIMEType: "image/png", Data: []byte{1, 2}}}, "text"),
		SkillCheckScore: &score,
		AuditLog:        []AuditLogEntry{{Action: ActionInitialEntry}},
	}

	clone := original.Clone()
	clone.Analysis.Skills[0] = "Rust"
	clone.Analysis.WorkHistory[0].Company = "Other"
	clone.Resume.Images[0].Data[0] = 9
	*clone.SkillCheckScore = 10
	clone.AppendAudit(time.Now(), ActionStatusChanged, "x")

	if original.Analysis.Skills[0] != "Go" {
		t.Error("Skills slice shared with clone")
	}
	if original.Analysis.WorkHistory[0].Company != "Acme" {
		t.Error("Work history shared with clone")
	}
	if original.Resume.Images[0].Data[0] != 1 {
		t.Error("Image data shared with clone")
	}
	if *original.SkillCheckScore != 80 {
		t.Error("Score pointer shared with clone")
	}
	if len(original.AuditLog) != 1 {
		t.Error("Audit log shared with clone")
	}
}

func TestResumeHasData(t *testing.T) {
	tests := []struct {
		name   string
		resume Resume
		want   bool
	}{
		{"none", Resume{}, false},
		{"empty text", NewTextResume(""), false},
		{"text", NewTextResume("Hello"), true},
		{"images", NewImageResume([]PageImage{{MIMEType: "image/png"}}, ""), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.resume.HasData(); got != tt.want {
				t.Errorf("HasData() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDisplayFitScore(t *testing.T) {
	for _, tt := range []struct{ in, want int }{{0, 1}, {5, 5}, {14, 10}} {
		a := CandidateAnalysis{FitScore: tt.in}
		if got := a.DisplayFitScore(); got != tt.want {
			t.Errorf("DisplayFitScore(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
