package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ProcessMessageRequest is one chat turn.
type ProcessMessageRequest struct {
	SessionID string `json:"session_id" jsonschema:"session ID obtained from the sign-in flow"`
	Message   string `json:"message" jsonschema:"natural-language command for the assistant"`
}

// ProcessMessageResponse mirrors the chat surface: reply text, the action
// taken, and an error tag when the turn failed.
type ProcessMessageResponse struct {
	Response string `json:"response" jsonschema:"assistant reply text"`
	Action   string `json:"action" jsonschema:"action the assistant took"`
	Error    string `json:"error,omitempty" jsonschema:"error tag when the turn failed"`
}

// GetGreetingRequest identifies the session to greet.
type GetGreetingRequest struct {
	SessionID string `json:"session_id" jsonschema:"session ID obtained from the sign-in flow"`
}

// GetGreetingResponse is the assistant's opening message.
type GetGreetingResponse struct {
	Greeting  string `json:"greeting" jsonschema:"greeting text"`
	UserEmail string `json:"user_email,omitempty" jsonschema:"signed-in user's email"`
	UserName  string `json:"user_name,omitempty" jsonschema:"signed-in user's display name"`
}

// NewChat creates the chat tools.
func NewChat(chat chatSvc) *Chat {
	return &Chat{chat: chat}
}

// Chat adapts the chat pipeline to MCP tool calls.
type Chat struct {
	chat chatSvc
}

// ProcessMessage runs one chat turn for the session.
func (t *Chat) ProcessMessage(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ProcessMessageRequest,
) (*mcp.CallToolResult, ProcessMessageResponse, error) {
	resp := t.chat.ProcessMessage(ctx, input.SessionID, input.Message)

	return nil, ProcessMessageResponse{
		Response: resp.Response,
		Action:   resp.Action,
		Error:    resp.Error,
	}, nil
}

// GetGreeting returns the assistant's greeting for the session owner.
func (t *Chat) GetGreeting(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetGreetingRequest,
) (*mcp.CallToolResult, GetGreetingResponse, error) {
	reply, err := t.chat.Greeting(ctx, input.SessionID)
	if err != nil {
		return nil, GetGreetingResponse{}, fmt.Errorf("greeting failed: %w", err)
	}

	out := GetGreetingResponse{Greeting: reply.Greeting}
	if reply.User != nil {
		out.UserEmail = reply.User.Email
		out.UserName = reply.User.Name
	}

	return nil, out, nil
}
