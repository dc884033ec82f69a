// Package mailbox implements the assistant's mailbox operations over the
// Gmail API: listing, searching, deleting, and sending replies.
package mailbox

import (
	"context"
	"fmt"
	"log"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"

	"github.com/inboxly/gmail-assistant/internal/format"
	"github.com/inboxly/gmail-assistant/internal/session"
)

type gmailSvc interface {
	ListMessages(ctx context.Context, tok *oauth2.Token, Q, pageToken string, maxResults int64) (*gmail.ListMessagesResponse, error)
	GetMessage(ctx context.Context, tok *oauth2.Token, msgID string) (*gmail.Message, error)
	GetMessageMetadata(ctx context.Context, tok *oauth2.Token, msgID string) (*gmail.Message, error)
	TrashMessage(ctx context.Context, tok *oauth2.Token, msgID string) error
	SendMessage(ctx context.Context, tok *oauth2.Token, raw []byte, threadID string) (*gmail.Message, error)
}

// NewService creates a mailbox service over a Gmail wrapper.
func NewService(svc gmailSvc) *Service {
	return &Service{svc: svc}
}

// Service exposes mailbox operations against the session owner's inbox.
type Service struct {
	svc gmailSvc
}

// List returns the most recent messages, newest first, with decoded bodies.
// A message that fails to load is skipped rather than failing the listing.
func (s *Service) List(ctx context.Context, access *session.Access, maxResults int64) ([]Email, error) {
	return s.list(ctx, access, "", maxResults, true)
}

// Search returns messages matching a Gmail query (e.g. `from:x`,
// `subject:"y"`), metadata only.
func (s *Service) Search(ctx context.Context, access *session.Access, query string, maxResults int64) ([]Email, error) {
	return s.list(ctx, access, query, maxResults, false)
}

func (s *Service) list(ctx context.Context, access *session.Access, query string, maxResults int64, fullBody bool) ([]Email, error) {
	result, err := s.svc.ListMessages(ctx, access.Token, query, "", maxResults)
	if err != nil {
		return nil, fmt.Errorf("svc.ListMessages failed: %w", err)
	}

	emails := make([]Email, 0, len(result.Messages))

	for _, m := range result.Messages {
		var msg *gmail.Message
		if fullBody {
			msg, err = s.svc.GetMessage(ctx, access.Token, m.Id)
		} else {
			msg, err = s.svc.GetMessageMetadata(ctx, access.Token, m.Id)
		}
		if err != nil {
			log.Printf("skipping message %s: %v", m.Id, err)
			continue
		}

		emails = append(emails, emailFromMessage(msg, fullBody))
	}

	return emails, nil
}

// Get fetches a single message with its decoded body.
func (s *Service) Get(ctx context.Context, access *session.Access, emailID string) (Email, error) {
	msg, err := s.svc.GetMessage(ctx, access.Token, emailID)
	if err != nil {
		return Email{}, fmt.Errorf("svc.GetMessage failed: %w", err)
	}

	return emailFromMessage(msg, true), nil
}

// Delete moves a message to the trash.
func (s *Service) Delete(ctx context.Context, access *session.Access, emailID string) error {
	if err := s.svc.TrashMessage(ctx, access.Token, emailID); err != nil {
		return fmt.Errorf("svc.TrashMessage failed: %w", err)
	}
	return nil
}

// SendReply sends replyText as a reply to the given message: addressed to the
// original sender, subject prefixed with Re:, threaded into the original
// conversation. Returns the sent message ID.
func (s *Service) SendReply(ctx context.Context, access *session.Access, emailID, replyText string) (string, error) {
	msg, err := s.svc.GetMessageMetadata(ctx, access.Token, emailID)
	if err != nil {
		return "", fmt.Errorf("svc.GetMessageMetadata failed: %w", err)
	}

	var headers []*gmail.MessagePartHeader
	if msg.Payload != nil {
		headers = msg.Payload.Headers
	}

	_, toEmail := format.ParseAddress(format.Header(headers, "From"))
	if toEmail == "" {
		return "", fmt.Errorf("message %s has no sender address", emailID)
	}

	subject := format.Header(headers, "Subject")
	if !strings.HasPrefix(subject, "Re:") {
		subject = "Re: " + subject
	}

	raw := buildRawReply(toEmail, subject, replyText)

	sent, err := s.svc.SendMessage(ctx, access.Token, raw, msg.ThreadId)
	if err != nil {
		return "", fmt.Errorf("svc.SendMessage failed: %w", err)
	}

	return sent.Id, nil
}

func buildRawReply(to, subject, body string) []byte {
	var sb strings.Builder
	sb.WriteString("To: " + to + "\r\n")
	sb.WriteString("Subject: " + subject + "\r\n")
	sb.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)
	return []byte(sb.String())
}

func emailFromMessage(msg *gmail.Message, fullBody bool) Email {
	email := Email{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Snippet:  msg.Snippet,
	}

	var headers []*gmail.MessagePartHeader
	if msg.Payload != nil {
		headers = msg.Payload.Headers
	}

	email.Sender, email.SenderEmail = format.ParseAddress(format.Header(headers, "From"))
	email.Subject = format.Header(headers, "Subject")
	email.Date = format.Header(headers, "Date")

	if fullBody {
		email.Body = format.DecodeBody(msg.Payload)
	}

	return email
}
