package assistant

import (
	"fmt"
	"strings"

	"github.com/fmuoria/resmo/internal/models"
)

// buildAnalysisPrompt creates the resume analysis prompt. When the resume is
// supplied as page images the text section is omitted.
func buildAnalysisPrompt(role, resumeText string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Analyze the following resume for a %q position.\n\n", role))

	if resumeText != "" {
		sb.WriteString("Resume Text:\n---\n")
		sb.WriteString(resumeText)
		sb.WriteString("\n---\n\n")
	} else {
		sb.WriteString("The resume is provided as the attached page images, in page order.\n\n")
	}

	sb.WriteString("Based on the resume and job role, provide the following in JSON format:\n")
	sb.WriteString("1. A concise summary of the candidate's profile.\n")
	sb.WriteString("2. A list of key skills (maximum 8).\n")
	sb.WriteString("3. Total years of relevant experience.\n")
	sb.WriteString("4. A summary of their education.\n")
	sb.WriteString("5. A \"fit score\" from 1 to 10, where 10 is a perfect fit for the role.\n")
	sb.WriteString("6. Their work history: company, title, start date, end date (\"Present\" if current), a one sentence description and the industry.\n")
	sb.WriteString("7. A recommended next action (e.g., \"Request Skill Check\", \"Shortlist for Interview\", \"Proceed to final interview\", \"Reject\").\n")
	sb.WriteString("8. A brief justification for the recommended action.\n")

	return sb.String()
}

func buildAnonymizePrompt(resumeText string) string {
	var sb strings.Builder

	sb.WriteString("Anonymize the following resume text by removing all personally identifiable information (PII) ")
	sb.WriteString("such as name, email, phone number, address, and links to personal profiles (like LinkedIn, GitHub, portfolio). ")
	sb.WriteString("Replace the name with \"[Candidate]\". Keep company names, school names, dates and job titles.\n\n")
	sb.WriteString("Original Resume:\n---\n")
	sb.WriteString(resumeText)
	sb.WriteString("\n---\n\n")
	sb.WriteString("Return only the anonymized text.\n")

	return sb.String()
}

func buildExtractTextPrompt(pages int) string {
	return fmt.Sprintf("The %d attached images are the pages of a resume, in order. "+
		"Extract all text from them, preserving the original reading order and section structure. "+
		"Return only the extracted text.", pages)
}

func buildSkillCheckPrompt(role string, skills []string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Create a skill check quiz for a %q position, focusing on these skills: %s.\n", role, strings.Join(skills, ", ")))
	sb.WriteString(fmt.Sprintf("Generate %d multiple-choice questions. ", QuestionCount))
	sb.WriteString(fmt.Sprintf("For each question, provide %d options and indicate the correct answer's index (0-%d).\n", OptionCount, OptionCount-1))
	sb.WriteString("Mention the skill being tested by name in each question.\n")

	return sb.String()
}

func buildLearningPathPrompt(role string, weakSkills []string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("For a candidate applying for a %q role who has shown weakness in the following skills: %s, suggest a learning path.\n", role, strings.Join(weakSkills, ", ")))
	sb.WriteString("For each skill, provide 2-3 learning resources (articles, videos, courses) with a title, a valid URL, and the type of resource.\n")

	return sb.String()
}

func buildStatusEmailPrompt(name, role string, status models.Status) string {
	var sb strings.Builder

	sb.WriteString("Write a short, professional email to a job candidate about a change in their application status.\n\n")
	sb.WriteString(fmt.Sprintf("Candidate name: %s\n", name))
	sb.WriteString(fmt.Sprintf("Role applied for: %s\n", role))
	sb.WriteString(fmt.Sprintf("New status: %s\n\n", status))

	switch status {
	case models.StatusRejected:
		sb.WriteString("The tone should be kind and respectful; thank them for their time.\n")
	case models.StatusHired:
		sb.WriteString("The tone should be warm and congratulatory; mention that onboarding details will follow.\n")
	case models.StatusSkillCheckPending:
		sb.WriteString("Explain that a short online skill check is waiting for them in the candidate portal.\n")
	default:
		sb.WriteString("Explain briefly what the new status means and what happens next.\n")
	}

	sb.WriteString("Sign the email as \"The Resmo Team\". Return a JSON object with a subject and a body.\n")

	return sb.String()
}
