// Package chatbot implements the command interpreter at the heart of the
// assistant: it classifies free-text messages into intents, extracts the
// operation parameters, dispatches to the mailbox and AI collaborators, and
// renders the result for the UI.
package chatbot

import "strings"

// Intent is the classified purpose of a chat message. The string value
// doubles as the action tag reported back to the caller.
type Intent string

const (
	IntentRead          Intent = "read"
	IntentGenerateReply Intent = "reply"
	IntentSendReply     Intent = "send_reply"
	IntentDelete        Intent = "delete"
	IntentGreet         Intent = "greeting"
	IntentHelp          Intent = "help"
	IntentUnknown       Intent = "unknown"
)

var (
	replyWords  = []string{"reply", "respond", "answer", "generate"}
	deleteWords = []string{"delete", "remove", "trash"}
	readWords   = []string{"read", "show", "list", "get", "fetch", "display", "see", "find", "search"}
	mailNouns   = []string{"email", "emails", "mail", "mails", "message", "messages", "inbox"}

	greetWords = []string{"hello", "hi", "hey", "greetings"}
)

// Classify maps a message to an intent. Pure and case-insensitive.
//
// Precedence is fixed: operational intents are checked first, in the order
// reply, delete, read, each requiring an action verb together with a mail
// noun; greeting and help phrases are only considered when no operational
// pattern matches, so "help me delete email 1" dispatches a delete while a
// bare "help" asks for capabilities. Anything else is IntentUnknown.
func Classify(text string) Intent {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return IntentUnknown
	}

	hasMailNoun := containsAny(tokens, mailNouns)

	switch {
	case hasMailNoun && containsAny(tokens, replyWords):
		return IntentGenerateReply
	case hasMailNoun && containsAny(tokens, deleteWords):
		return IntentDelete
	case hasMailNoun && containsAny(tokens, readWords):
		return IntentRead
	case containsAny(tokens, greetWords):
		return IntentGreet
	case containsAny(tokens, []string{"help", "capabilities"}) ||
		strings.Contains(strings.ToLower(text), "what can you do"):
		return IntentHelp
	}

	return IntentUnknown
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return false
		case r == '@' || r == '.' || r == '-' || r == '_' || r == '+':
			// Keep email addresses intact.
			return false
		}
		return true
	})
}

func containsAny(tokens []string, words []string) bool {
	for _, tok := range tokens {
		for _, w := range words {
			if tok == w {
				return true
			}
		}
	}
	return false
}
