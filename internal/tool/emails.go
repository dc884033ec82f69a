package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/inboxly/gmail-assistant/internal/mailbox"
)

// ListEmailsRequest asks for the most recent emails.
type ListEmailsRequest struct {
	SessionID  string `json:"session_id" jsonschema:"session ID obtained from the sign-in flow"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"maximum number of emails to return"`
}

// SearchEmailsRequest runs a Gmail query.
type SearchEmailsRequest struct {
	SessionID  string `json:"session_id" jsonschema:"session ID obtained from the sign-in flow"`
	Query      string `json:"query" jsonschema:"Gmail search query, e.g. from:alice@example.com"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"maximum number of emails to return"`
}

// EmailsResponse lists matching emails, metadata only.
type EmailsResponse struct {
	Emails []EmailSummary `json:"emails" jsonschema:"matching emails"`
}

// EmailSummary is the metadata view of one email.
type EmailSummary struct {
	ID          string `json:"id" jsonschema:"email ID"`
	ThreadID    string `json:"thread_id" jsonschema:"conversation thread ID"`
	Sender      string `json:"sender" jsonschema:"sender display name"`
	SenderEmail string `json:"sender_email" jsonschema:"sender address"`
	Subject     string `json:"subject" jsonschema:"subject line"`
	Date        string `json:"date" jsonschema:"date header"`
	Snippet     string `json:"snippet,omitempty" jsonschema:"short preview"`
}

// DeleteEmailRequest targets one email for trashing.
type DeleteEmailRequest struct {
	SessionID string `json:"session_id" jsonschema:"session ID obtained from the sign-in flow"`
	EmailID   string `json:"email_id" jsonschema:"ID of the email to move to trash"`
}

// DeleteEmailResponse confirms the trash operation.
type DeleteEmailResponse struct {
	Success bool   `json:"success" jsonschema:"whether the email was trashed"`
	EmailID string `json:"email_id" jsonschema:"ID of the trashed email"`
}

// NewEmails creates the direct email tools.
func NewEmails(resolver sessionResolver, mbx mailboxSvc, defaultMaxResults int) *Emails {
	return &Emails{
		resolver:   resolver,
		mbx:        mbx,
		defaultMax: int64(defaultMaxResults),
	}
}

// Emails serves the email tools over the mailbox service.
type Emails struct {
	resolver   sessionResolver
	mbx        mailboxSvc
	defaultMax int64
}

// ListEmails returns the most recent emails, newest first.
func (t *Emails) ListEmails(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListEmailsRequest,
) (*mcp.CallToolResult, EmailsResponse, error) {
	return t.search(ctx, input.SessionID, "", input.MaxResults)
}

// SearchEmails returns emails matching a Gmail query.
func (t *Emails) SearchEmails(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchEmailsRequest,
) (*mcp.CallToolResult, EmailsResponse, error) {
	return t.search(ctx, input.SessionID, input.Query, input.MaxResults)
}

func (t *Emails) search(ctx context.Context, sessionID, query string, maxResults int) (*mcp.CallToolResult, EmailsResponse, error) {
	access, err := t.resolver.Resolve(ctx, sessionID)
	if err != nil {
		return nil, EmailsResponse{}, fmt.Errorf("resolving session failed: %w", err)
	}

	max := t.defaultMax
	if maxResults > 0 {
		max = int64(maxResults)
	}

	emails, err := t.mbx.Search(ctx, access, query, max)
	if err != nil {
		return nil, EmailsResponse{}, fmt.Errorf("searching emails failed: %w", err)
	}

	out := make([]EmailSummary, 0, len(emails))
	for _, e := range emails {
		out = append(out, summaryFromEmail(e))
	}

	return nil, EmailsResponse{Emails: out}, nil
}

// DeleteEmail moves one email to the trash.
func (t *Emails) DeleteEmail(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DeleteEmailRequest,
) (*mcp.CallToolResult, DeleteEmailResponse, error) {
	access, err := t.resolver.Resolve(ctx, input.SessionID)
	if err != nil {
		return nil, DeleteEmailResponse{}, fmt.Errorf("resolving session failed: %w", err)
	}

	if err := t.mbx.Delete(ctx, access, input.EmailID); err != nil {
		return nil, DeleteEmailResponse{}, fmt.Errorf("deleting email failed: %w", err)
	}

	return nil, DeleteEmailResponse{Success: true, EmailID: input.EmailID}, nil
}

func summaryFromEmail(e mailbox.Email) EmailSummary {
	return EmailSummary{
		ID:          e.ID,
		ThreadID:    e.ThreadID,
		Sender:      e.Sender,
		SenderEmail: e.SenderEmail,
		Subject:     e.Subject,
		Date:        e.Date,
		Snippet:     e.Snippet,
	}
}
