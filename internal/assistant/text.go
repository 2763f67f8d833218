package assistant

import (
	"strings"
	"unicode/utf8"
)

// maxResumeChars bounds the resume text placed into a single prompt.
const maxResumeChars = 30000

// sanitizeUTF8 replaces invalid byte sequences so the request body stays valid UTF-8.
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "�")
}

// truncate cuts s to at most max runes, appending a marker when shortened.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "\n[truncated]"
}

func prepareResumeText(s string) string {
	return truncate(sanitizeUTF8(strings.TrimSpace(s)), maxResumeChars)
}
