// Package mail delivers candidate notifications and reads emailed applications.
package mail

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/mail"
	"strings"

	"go.uber.org/zap"
)

// Message is a plain text email
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Sender delivers status-change emails
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Application is a resume attachment found in the recruiting inbox
type Application struct {
	MessageID   string
	SenderName  string
	SenderEmail string
	FileName    string
	Data        []byte
}

// LogSender logs emails instead of delivering them
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a sender for deployments without a mail account
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.Info("email sent",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("body_length", len(msg.Body)))
	return nil
}

// maxBodyLineLength is the RFC 2045 limit for base64 encoded lines.
const maxBodyLineLength = 76

// BuildRawMessage renders msg as an RFC 822 message, base64url encoded as the
// Gmail API expects.
func BuildRawMessage(msg Message) (string, error) {
	if _, err := mail.ParseAddress(msg.To); err != nil {
		return "", fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	if strings.ContainsAny(msg.Subject, "\r\n") {
		return "", fmt.Errorf("subject must be a single line")
	}

	var sb strings.Builder
	if msg.From != "" {
		sb.WriteString("From: " + msg.From + "\r\n")
	}
	sb.WriteString("To: " + msg.To + "\r\n")
	sb.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("Content-Transfer-Encoding: base64\r\n")
	sb.WriteString("\r\n")
	writeWrapped(&sb, base64.StdEncoding.EncodeToString([]byte(msg.Body)), maxBodyLineLength)

	return base64.URLEncoding.EncodeToString([]byte(sb.String())), nil
}

func writeWrapped(sb *strings.Builder, s string, width int) {
	for len(s) > width {
		sb.WriteString(s[:width])
		sb.WriteString("\r\n")
		s = s[width:]
	}
	sb.WriteString(s)
}

// ParseSender splits a From header into a display name and address. When the
// header has no display name the local part of the address is used.
func ParseSender(from string) (name, email string) {
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return "Unknown", ""
	}
	name = strings.TrimSpace(addr.Name)
	if name == "" {
		if idx := strings.Index(addr.Address, "@"); idx > 0 {
			name = addr.Address[:idx]
		} else {
			name = "Unknown"
		}
	}
	return name, addr.Address
}
