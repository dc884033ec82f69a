package chatbot

import "github.com/inboxly/gmail-assistant/internal/mailbox"

// ErrorKind tags a failed action with a caller-safe category. The renderer
// turns kinds into user-facing text; raw collaborator errors stay in logs.
type ErrorKind string

const (
	ErrorNone                ErrorKind = ""
	ErrorSessionInvalid      ErrorKind = "session_invalid"
	ErrorMailbox             ErrorKind = "mailbox_error"
	ErrorAI                  ErrorKind = "ai_error"
	ErrorOrdinalOutOfRange   ErrorKind = "ordinal_out_of_range"
	ErrorNoReference         ErrorKind = "no_reference_found"
	ErrorUnrecognizedCommand ErrorKind = "unrecognized_command"
	ErrorInternal            ErrorKind = "internal_error"
)

// TargetOutcome records what happened to one targeted email within a
// multi-target action. Err is empty on success.
type TargetOutcome struct {
	EmailID string `json:"email_id"`
	Subject string `json:"subject"`
	Sender  string `json:"sender"`
	Err     string `json:"error,omitempty"`
}

// ActionResult is the dispatcher's output for one command: the emails or
// replies produced on success, per-target outcomes for multi-target actions,
// and the error kind plus ordinal when the whole action failed.
type ActionResult struct {
	OK       bool
	Emails   []mailbox.Email
	Replies  []mailbox.Reply
	Outcomes []TargetOutcome
	SentID   string
	ErrKind  ErrorKind

	// Ordinal is set for ErrorOrdinalOutOfRange.
	Ordinal int
}

func failure(kind ErrorKind) ActionResult {
	return ActionResult{ErrKind: kind}
}
