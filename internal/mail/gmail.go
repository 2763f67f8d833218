package mail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

var gmailScopes = []string{gmail.GmailSendScope, gmail.GmailReadonlyScope}

// GmailClient sends notifications and reads applications through the Gmail API
type GmailClient struct {
	service *gmail.Service
	from    string
	logger  *zap.Logger
}

// OAuthConfig parses an OAuth client credentials file.
func OAuthConfig(credentialsPath string) (*oauth2.Config, error) {
	b, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, gmailScopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}
	return config, nil
}

// NewGmailClient creates a client from stored credentials. The token file must
// already exist; run the server with -gmail-auth once to create it.
func NewGmailClient(ctx context.Context, credentialsPath, tokenPath, from string, logger *zap.Logger) (*GmailClient, error) {
	config, err := OAuthConfig(credentialsPath)
	if err != nil {
		return nil, err
	}

	tok, err := tokenFromFile(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read gmail token %s (run with -gmail-auth first): %w", tokenPath, err)
	}

	srv, err := gmail.NewService(ctx, option.WithHTTPClient(config.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail client: %w", err)
	}

	return &GmailClient{service: srv, from: from, logger: logger}, nil
}

// Authorize runs the interactive OAuth consent flow and stores the token.
func Authorize(ctx context.Context, credentialsPath, tokenPath string, in io.Reader, out io.Writer) error {
	config, err := OAuthConfig(credentialsPath)
	if err != nil {
		return err
	}

	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Fprintf(out, "Go to the following link in your browser then type the authorization code: \n%v\n", authURL)

	var authCode string
	if _, err := fmt.Fscan(in, &authCode); err != nil {
		return fmt.Errorf("unable to read authorization code: %w", err)
	}

	tok, err := config.Exchange(ctx, authCode)
	if err != nil {
		return fmt.Errorf("unable to retrieve token from web: %w", err)
	}

	fmt.Fprintf(out, "Saving credential file to: %s\n", tokenPath)
	return saveToken(tokenPath, tok)
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

func saveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache oauth token: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

// Send delivers msg from the authorized account
func (g *GmailClient) Send(ctx context.Context, msg Message) error {
	if msg.From == "" {
		msg.From = g.from
	}
	raw, err := BuildRawMessage(msg)
	if err != nil {
		return err
	}

	sent, err := g.service.Users.Messages.Send("me", &gmail.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to send message: %w", err)
	}

	g.logger.Info("email sent", zap.String("to", msg.To), zap.String("message_id", sent.Id))
	return nil
}

// FetchApplications returns the resume attachments of messages matching the
// subject filter. Unsupported attachments are skipped by acceptFile.
func (g *GmailClient) FetchApplications(ctx context.Context, subject string, acceptFile func(name string) bool) ([]Application, error) {
	user := "me"
	query := fmt.Sprintf("subject:%q has:attachment", subject)

	r, err := g.service.Users.Messages.List(user).Q(query).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve messages: %w", err)
	}

	var apps []Application
	for _, msg := range r.Messages {
		message, err := g.service.Users.Messages.Get(user, msg.Id).Context(ctx).Do()
		if err != nil {
			g.logger.Warn("unable to retrieve message", zap.String("message_id", msg.Id), zap.Error(err))
			continue
		}

		name, email := ParseSender(headerValue(message, "From"))

		for _, part := range attachmentParts(message.Payload) {
			if !acceptFile(part.Filename) {
				continue
			}

			attachment, err := g.service.Users.Messages.Attachments.Get(user, msg.Id, part.Body.AttachmentId).Context(ctx).Do()
			if err != nil {
				g.logger.Warn("unable to retrieve attachment", zap.String("message_id", msg.Id), zap.Error(err))
				continue
			}

			data, err := base64.URLEncoding.DecodeString(attachment.Data)
			if err != nil {
				g.logger.Warn("unable to decode attachment", zap.String("file", part.Filename), zap.Error(err))
				continue
			}

			apps = append(apps, Application{
				MessageID:   msg.Id,
				SenderName:  name,
				SenderEmail: email,
				FileName:    part.Filename,
				Data:        data,
			})
			// one resume per message
			break
		}
	}

	return apps, nil
}

func headerValue(message *gmail.Message, name string) string {
	if message.Payload == nil {
		return ""
	}
	for _, header := range message.Payload.Headers {
		if strings.EqualFold(header.Name, name) {
			return header.Value
		}
	}
	return ""
}

// attachmentParts walks nested multipart payloads and returns the parts that
// carry a named attachment.
func attachmentParts(part *gmail.MessagePart) []*gmail.MessagePart {
	if part == nil {
		return nil
	}
	var out []*gmail.MessagePart
	if part.Filename != "" && part.Body != nil && part.Body.AttachmentId != "" {
		out = append(out, part)
	}
	for _, child := range part.Parts {
		out = append(out, attachmentParts(child)...)
	}
	return out
}
