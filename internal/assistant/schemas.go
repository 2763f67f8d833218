package assistant

import "github.com/fmuoria/resmo/internal/llm"

func str(desc string) *llm.Schema {
	return &llm.Schema{Type: llm.TypeString, Description: desc}
}

func strList(desc string) *llm.Schema {
	return &llm.Schema{Type: llm.TypeArray, Items: &llm.Schema{Type: llm.TypeString}, Description: desc}
}

var analysisSchema = &llm.Schema{
	Type: llm.TypeObject,
	Properties: map[string]*llm.Schema{
		"summary":         str("Concise summary of the candidate's profile."),
		"skills":          strList("List of key skills (maximum 8)."),
		"experienceYears": {Type: llm.TypeNumber, Description: "Total years of relevant experience."},
		"education":       strList("Summary of their education."),
		"fitScore":        {Type: llm.TypeNumber, Description: "Fit score from 1 to 10."},
		"workHistory": {
			Type:        llm.TypeArray,
			Description: "Work history, most recent first.",
			Items: &llm.Schema{
				Type: llm.TypeObject,
				Properties: map[string]*llm.Schema{
					"company":     str("Company name."),
					"title":       str("Job title."),
					"startDate":   str("Start date, YYYY-MM."),
					"endDate":     str("End date, YYYY-MM or Present."),
					"description": str("One sentence description of the role."),
					"industry":    str("Industry of the company."),
				},
				Required: []string{"company", "title", "startDate", "endDate", "description"},
			},
		},
		"recommendedAction":   str("Recommended next action for the recruiter."),
		"actionJustification": str("Brief justification for the recommendation."),
	},
	Required: []string{"summary", "skills", "experienceYears", "education", "fitScore", "workHistory", "recommendedAction", "actionJustification"},
}

var skillCheckSchema = &llm.Schema{
	Type: llm.TypeArray,
	Items: &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"question":           str("The question text."),
			"options":            strList("An array of 4 possible answers."),
			"correctAnswerIndex": {Type: llm.TypeInteger, Description: "The 0-based index of the correct answer in the options array."},
		},
		Required: []string{"question", "options", "correctAnswerIndex"},
	},
}

var learningPathSchema = &llm.Schema{
	Type: llm.TypeArray,
	Items: &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"skill": str("The skill to improve."),
			"resources": {
				Type:        llm.TypeArray,
				Description: "List of learning resources for the skill.",
				Items: &llm.Schema{
					Type: llm.TypeObject,
					Properties: map[string]*llm.Schema{
						"title": str("Title of the learning resource."),
						"url":   str("URL of the resource."),
						"type":  str("Type of resource (e.g., Article, Video, Course)."),
					},
					Required: []string{"title", "url", "type"},
				},
			},
		},
		Required: []string{"skill", "resources"},
	},
}

var emailSchema = &llm.Schema{
	Type: llm.TypeObject,
	Properties: map[string]*llm.Schema{
		"subject": str("Email subject line."),
		"body":    str("Plain text email body."),
	},
	Required: []string{"subject", "body"},
}
