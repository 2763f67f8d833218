package mail

import (
	"encoding/base64"
	"strings"
	"testing"

	"google.golang.org/api/gmail/v1"
)

func TestBuildRawMessage(t *testing.T) {
	raw, err := BuildRawMessage(Message{
		From:    "recruiting@resmo.example",
		To:      "candidate.3@example.com",
		Subject: "Update on your application for Senior React Developer",
		Body:    "Hi Candidate 3,\n\nYour new status is: Shortlisted.",
	})
	if err != nil {
		t.Fatalf("BuildRawMessage() error = %v", err)
	}

	decoded, err := base64.URLEncoding.DecodeString(raw)
	if err != nil {
		t.Fatalf("Raw message is not base64url: %v", err)
	}
	msg := string(decoded)

	for _, want := range []string{
		"From: recruiting@resmo.example\r\n",
		"To: candidate.3@example.com\r\n",
		"Subject: Update on your application for Senior React Developer\r\n",
		"Content-Type: text/plain; charset=\"UTF-8\"\r\n",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("Expected message to contain %q", want)
		}
	}

	parts := strings.SplitN(msg, "\r\n\r\n", 2)
	body, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("Body is not base64: %v", err)
	}
	if !strings.Contains(string(body), "Shortlisted") {
		t.Errorf("Unexpected body %q", body)
	}
}

func TestBuildRawMessageWrapsLongBody(t *testing.T) {
	body := strings.Repeat("Thank you for applying to Resmo. ", 40)
	raw, err := BuildRawMessage(Message{To: "a@example.com", Subject: "Update", Body: body})
	if err != nil {
		t.Fatalf("BuildRawMessage() error = %v", err)
	}
	decoded, err := base64.URLEncoding.DecodeString(raw)
	if err != nil {
		t.Fatalf("Raw message is not base64url: %v", err)
	}

	encoded := strings.SplitN(string(decoded), "\r\n\r\n", 2)[1]
	lines := strings.Split(encoded, "\r\n")
	if len(lines) < 2 {
		t.Fatalf("Expected a multi-line body, got %d lines", len(lines))
	}
	for i, line := range lines {
		if len(line) > 76 {
			t.Errorf("Line %d is %d chars, want at most 76", i, len(line))
		}
		if strings.Contains(line, "\n") {
			t.Errorf("Line %d has a bare newline", i)
		}
	}

	got, err := base64.StdEncoding.DecodeString(strings.Join(lines, ""))
	if err != nil {
		t.Fatalf("Body is not base64: %v", err)
	}
	if string(got) != body {
		t.Errorf("Body did not round trip")
	}
}

func TestBuildRawMessageValidation(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
	}{
		{"bad recipient", Message{To: "not an address", Subject: "x"}},
		{"header injection", Message{To: "a@example.com", Subject: "x\r\nBcc: evil@example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := BuildRawMessage(tt.msg); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestBuildRawMessageEncodesUnicodeSubject(t *testing.T) {
	raw, err := BuildRawMessage(Message{To: "a@example.com", Subject: "Félicitations", Body: "x"})
	if err != nil {
		t.Fatalf("BuildRawMessage() error = %v", err)
	}
	decoded, _ := base64.URLEncoding.DecodeString(raw)
	if !strings.Contains(string(decoded), "Subject: =?utf-8?q?") {
		t.Errorf("Expected Q-encoded subject, got %q", decoded)
	}
}

func TestParseSender(t *testing.T) {
	tests := []struct {
		from      string
		wantName  string
		wantEmail string
	}{
		{"Jane Doe <jane@example.com>", "Jane Doe", "jane@example.com"},
		{"jane.doe@example.com", "jane.doe", "jane.doe@example.com"},
		{"garbage", "Unknown", ""},
	}

	for _, tt := range tests {
		t.Run(tt.from, func(t *testing.T) {
			name, email := ParseSender(tt.from)
			if name != tt.wantName || email != tt.wantEmail {
				t.Errorf("ParseSender(%q) = %q, %q; want %q, %q", tt.from, name, email, tt.wantName, tt.wantEmail)
			}
		})
	}
}

func TestAttachmentParts(t *testing.T) {
	payload := &gmail.MessagePart{
		Parts: []*gmail.MessagePart{
			{MimeType: "text/plain", Body: &gmail.MessagePartBody{}},
			{
				MimeType: "multipart/mixed",
				Parts: []*gmail.MessagePart{
					{Filename: "resume.pdf", Body: &gmail.MessagePartBody{AttachmentId: "a1"}},
				},
			},
			{Filename: "photo.png", Body: &gmail.MessagePartBody{AttachmentId: "a2"}},
		},
	}

	parts := attachmentParts(payload)
	if len(parts) != 2 || parts[0].Filename != "resume.pdf" || parts[1].Filename != "photo.png" {
		t.Errorf("Unexpected attachment parts %+v", parts)
	}
}
