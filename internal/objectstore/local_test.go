package objectstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalStorePutGet(t *testing.T) {
	root := t.TempDir()
	store := NewLocalStore(root)
	ctx := context.Background()

	key := "resumes/cand-1/abc-cv.txt"
	if err := store.Put(ctx, key, []byte("Test CV content"), "text/plain"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(root, "resumes", "cand-1", "abc-cv.txt")); err != nil {
		t.Errorf("File was not created: %v", err)
	}

	data, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(data) != "Test CV content" {
		t.Errorf("Expected content 'Test CV content', got '%s'", string(data))
	}
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	for _, key := range []string{"../escape.txt", "/etc/passwd", "a/../../b"} {
		if err := store.Put(context.Background(), key, []byte("x"), ""); err == nil {
			t.Errorf("Put(%q) expected error", key)
		}
	}
}

func TestResumeKey(t *testing.T) {
	key := ResumeKey("cand-1", `C:\Users\jane\My CV (final).pdf`)
	if !strings.HasPrefix(key, "resumes/cand-1/") {
		t.Errorf("Unexpected prefix: %s", key)
	}
	if !strings.HasSuffix(key, "-My_CV_final_.pdf") {
		t.Errorf("Unexpected file part: %s", key)
	}
	if ResumeKey("cand-1", "cv.pdf") == ResumeKey("cand-1", "cv.pdf") {
		t.Error("Expected unique keys per upload")
	}
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"cv.pdf":  "application/pdf",
		"cv.TXT":  "text/plain; charset=utf-8",
		"cv.docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"cv.bin":  "application/octet-stream",
	}
	for name, want := range tests {
		if got := ContentType(name); got != want {
			t.Errorf("ContentType(%q) = %q, want %q", name, got, want)
		}
	}
}
