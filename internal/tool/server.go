// Package tool exposes the assistant over MCP so agent clients can drive the
// same chat pipeline the web UI uses.
package tool

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/inboxly/gmail-assistant/internal/chatbot"
	"github.com/inboxly/gmail-assistant/internal/mailbox"
	"github.com/inboxly/gmail-assistant/internal/session"
)

type chatSvc interface {
	ProcessMessage(ctx context.Context, sessionID, text string) chatbot.Response
	Greeting(ctx context.Context, sessionID string) (chatbot.GreetingReply, error)
}

type sessionResolver interface {
	Resolve(ctx context.Context, sessionID string) (*session.Access, error)
}

type mailboxSvc interface {
	Search(ctx context.Context, access *session.Access, query string, maxResults int64) ([]mailbox.Email, error)
	Delete(ctx context.Context, access *session.Access, emailID string) error
}

// NewServer creates an MCP server with the assistant tools.
func NewServer(chat chatSvc, resolver sessionResolver, mbx mailboxSvc, defaultMaxResults int) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "gmail-assistant", Version: "v1.0.0"}, nil)

	c := NewChat(chat)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "process_message",
		Description: "Send a natural-language command to the inbox assistant",
	}, c.ProcessMessage)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_greeting",
		Description: "Get the assistant's greeting and the signed-in user",
	}, c.GetGreeting)

	e := NewEmails(resolver, mbx, defaultMaxResults)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_emails",
		Description: "List the most recent emails in the inbox",
	}, e.ListEmails)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_emails",
		Description: "Search emails using Gmail search syntax",
	}, e.SearchEmails)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_email",
		Description: "Move an email to the trash",
	}, e.DeleteEmail)

	return server
}
