// Package objectstore keeps the original bytes of uploaded resumes.
package objectstore

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Store saves and loads opaque objects by key
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ResumeKey builds a unique key for an uploaded resume of a candidate.
func ResumeKey(candidateID, fileName string) string {
	base := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	base = unsafeChars.ReplaceAllString(base, "_")
	if base == "" || base == "." || base == "/" {
		base = "resume"
	}
	return fmt.Sprintf("resumes/%s/%s-%s", unsafeChars.ReplaceAllString(candidateID, "_"), uuid.NewString(), base)
}

// ContentType maps resume extensions to MIME types.
func ContentType(fileName string) string {
	switch strings.ToLower(path.Ext(fileName)) {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".txt":
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
