package chatbot

import (
	"fmt"
	"strings"
)

// Response is the caller-facing result of one chat turn. Action carries the
// intent tag even when the turn failed, so the UI can keep its context.
type Response struct {
	Response string         `json:"response"`
	Action   string         `json:"action"`
	Data     map[string]any `json:"data,omitempty"`
	Error    string         `json:"error,omitempty"`
}

const greetingText = "Hello! I'm your Gmail assistant. I can read your emails, draft replies, and clean up your inbox. What would you like to do?"

func greetingFor(name string) string {
	if name == "" {
		return greetingText
	}
	return fmt.Sprintf("Hello, %s! I'm your Gmail assistant. I can read your emails, draft replies, and clean up your inbox. What would you like to do?", name)
}

const helpText = `Here's what I can do:
- Show your recent emails ("show me my last 5 emails")
- Find emails ("find emails from alice about the budget")
- Draft replies ("reply to email 2")
- Delete emails ("delete the first email")

Refer to emails by their number in the last list I showed you.`

const unknownText = "I'm not sure what you'd like me to do. Try asking me to show your emails, draft a reply, or delete an email. Say \"help\" to see everything I can do."

// Render turns an action result into the reply text and data payload.
// Deterministic: the same result always renders the same response, and
// failure messages never leak collaborator error details.
func Render(intent Intent, result ActionResult) Response {
	resp := Response{Action: string(intent)}

	if !result.OK {
		resp.Error = string(result.ErrKind)
		resp.Response = failureText(intent, result)
		return resp
	}

	switch intent {
	case IntentGreet:
		resp.Response = greetingText
	case IntentHelp:
		resp.Response = helpText
	case IntentRead:
		resp.Response = renderEmails(result)
		resp.Data = map[string]any{
			"emails": result.Emails,
			"count":  len(result.Emails),
		}
	case IntentDelete:
		resp.Response = renderDeleted(result)
		resp.Data = outcomeData(result)
	case IntentGenerateReply:
		resp.Response = renderReplies(result)
		resp.Data = outcomeData(result)
		resp.Data["replies"] = result.Replies
	case IntentSendReply:
		resp.Response = "✅ Reply sent successfully!"
		resp.Data = map[string]any{"sent_message_id": result.SentID}
	default:
		resp.Response = unknownText
	}

	return resp
}

func renderEmails(result ActionResult) string {
	if len(result.Emails) == 0 {
		return "I couldn't find any matching emails."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Here are your last %d emails:\n", len(result.Emails))

	for i, e := range result.Emails {
		fmt.Fprintf(&sb, "\n%d. From: %s\n   Subject: %s", i+1, e.Sender, e.Subject)
		if e.Summary != "" {
			fmt.Fprintf(&sb, "\n   %s", e.Summary)
		}
	}

	return sb.String()
}

func renderDeleted(result ActionResult) string {
	var deleted []TargetOutcome
	failed := 0
	for _, o := range result.Outcomes {
		if o.Err == "" {
			deleted = append(deleted, o)
		} else {
			failed++
		}
	}

	var sb strings.Builder
	if len(deleted) == 1 {
		fmt.Fprintf(&sb, "✅ Successfully deleted email: %s", deleted[0].Subject)
	} else {
		fmt.Fprintf(&sb, "✅ Successfully deleted %d emails.", len(deleted))
	}
	if failed > 0 {
		fmt.Fprintf(&sb, "\n⚠️ %d email(s) could not be deleted.", failed)
	}

	return sb.String()
}

func renderReplies(result ActionResult) string {
	var sb strings.Builder
	if len(result.Replies) == 1 {
		r := result.Replies[0]
		fmt.Fprintf(&sb, "Here's a draft reply to \"%s\":\n\n%s", r.OriginalSubject, r.Reply)
	} else {
		fmt.Fprintf(&sb, "I've drafted %d replies for you:\n", len(result.Replies))
		for i, r := range result.Replies {
			fmt.Fprintf(&sb, "\n%d. Reply to \"%s\" (from %s):\n%s\n", i+1, r.OriginalSubject, r.OriginalSender, r.Reply)
		}
	}

	failed := 0
	for _, o := range result.Outcomes {
		if o.Err != "" {
			failed++
		}
	}
	if failed > 0 {
		fmt.Fprintf(&sb, "\n⚠️ I couldn't draft replies for %d email(s).", failed)
	}

	return sb.String()
}

func outcomeData(result ActionResult) map[string]any {
	var ok, failed []TargetOutcome
	for _, o := range result.Outcomes {
		if o.Err == "" {
			ok = append(ok, o)
		} else {
			failed = append(failed, o)
		}
	}

	data := map[string]any{"processed": ok}
	if len(failed) > 0 {
		data["failed"] = failed
	}
	return data
}

func failureText(intent Intent, result ActionResult) string {
	switch result.ErrKind {
	case ErrorSessionInvalid:
		return "Your session has expired. Please sign in again."
	case ErrorMailbox:
		return "Sorry, I couldn't reach your mailbox just now. Please try again."
	case ErrorAI:
		return "Sorry, I couldn't draft replies right now. Please try again in a moment."
	case ErrorOrdinalOutOfRange:
		return fmt.Sprintf("I couldn't find email number %d in the last list. Try listing your emails again.", result.Ordinal)
	case ErrorNoReference:
		if intent == IntentDelete {
			return "Please tell me which email to delete, for example \"delete email 2\"."
		}
		return "I couldn't find any matching emails."
	case ErrorInternal:
		return "Sorry, something went wrong on my side. Please try again."
	}

	return unknownText
}
