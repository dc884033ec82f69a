package chatbot

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/inboxly/gmail-assistant/internal/mailbox"
	"github.com/inboxly/gmail-assistant/internal/session"
)

type mailboxSvc interface {
	List(ctx context.Context, access *session.Access, maxResults int64) ([]mailbox.Email, error)
	Search(ctx context.Context, access *session.Access, query string, maxResults int64) ([]mailbox.Email, error)
	Get(ctx context.Context, access *session.Access, emailID string) (mailbox.Email, error)
	Delete(ctx context.Context, access *session.Access, emailID string) error
	SendReply(ctx context.Context, access *session.Access, emailID, replyText string) (string, error)
}

type aiSvc interface {
	Summarize(ctx context.Context, sender, subject, body string) string
	GenerateReply(ctx context.Context, sender, subject, body string) (string, error)
}

// NewDispatcher creates a dispatcher over the mailbox and AI collaborators.
func NewDispatcher(mbx mailboxSvc, ai aiSvc, defaultMaxResults int) *Dispatcher {
	return &Dispatcher{
		mbx:        mbx,
		ai:         ai,
		defaultMax: int64(defaultMaxResults),
	}
}

// Dispatcher executes operational intents against the collaborators and
// folds the outcome into an ActionResult. Collaborator errors never escape:
// they are logged and mapped to an error kind.
type Dispatcher struct {
	mbx        mailboxSvc
	ai         aiSvc
	defaultMax int64
}

// Dispatch runs a read, delete, or reply-generation command. The window is
// replaced only after a successful read, so failed commands keep earlier
// ordinal references valid.
func (d *Dispatcher) Dispatch(ctx context.Context, access *session.Access, intent Intent, ents EntitySet, window *Window) ActionResult {
	switch intent {
	case IntentRead:
		return d.read(ctx, access, ents, window)
	case IntentDelete:
		return d.delete(ctx, access, ents, window)
	case IntentGenerateReply:
		return d.generateReplies(ctx, access, ents, window)
	}

	return failure(ErrorUnrecognizedCommand)
}

func (d *Dispatcher) read(ctx context.Context, access *session.Access, ents EntitySet, window *Window) ActionResult {
	var (
		emails []mailbox.Email
		err    error
	)

	if query := gmailQuery(ents); query != "" {
		emails, err = d.mbx.Search(ctx, access, query, int64(ents.MaxResults))
	} else {
		emails, err = d.mbx.List(ctx, access, int64(ents.MaxResults))
	}
	if err != nil {
		log.Printf("mailbox listing failed: %v", err)
		return failure(ErrorMailbox)
	}

	for i := range emails {
		if emails[i].Body != "" {
			emails[i].Summary = d.ai.Summarize(ctx, emails[i].Sender, emails[i].Subject, emails[i].Body)
		}
	}

	window.Replace(emails)

	return ActionResult{OK: true, Emails: emails}
}

func (d *Dispatcher) delete(ctx context.Context, access *session.Access, ents EntitySet, window *Window) ActionResult {
	targets, res := d.resolveTargets(ctx, access, ents, window)
	if res != nil {
		return *res
	}
	if len(targets) == 0 {
		return failure(ErrorNoReference)
	}

	outcomes := make([]TargetOutcome, 0, len(targets))
	anyOK := false

	for _, t := range targets {
		outcome := TargetOutcome{EmailID: t.ID, Subject: t.Subject, Sender: t.Sender}
		if err := d.mbx.Delete(ctx, access, t.ID); err != nil {
			log.Printf("deleting message %s failed: %v", t.ID, err)
			outcome.Err = "could not delete this email"
		} else {
			anyOK = true
		}
		outcomes = append(outcomes, outcome)
	}

	if !anyOK {
		return ActionResult{ErrKind: ErrorMailbox, Outcomes: outcomes}
	}
	return ActionResult{OK: true, Outcomes: outcomes}
}

func (d *Dispatcher) generateReplies(ctx context.Context, access *session.Access, ents EntitySet, window *Window) ActionResult {
	targets, res := d.resolveTargets(ctx, access, ents, window)
	if res != nil {
		return *res
	}

	if len(targets) == 0 {
		// Nothing referenced and nothing on screen: draft replies for a
		// fresh listing without disturbing the window.
		fresh, err := d.mbx.List(ctx, access, d.defaultMax)
		if err != nil {
			log.Printf("mailbox listing failed: %v", err)
			return failure(ErrorMailbox)
		}
		targets = fresh
	}
	if len(targets) == 0 {
		return failure(ErrorNoReference)
	}

	outcomes := make([]TargetOutcome, 0, len(targets))
	var replies []mailbox.Reply
	anyOK := false

	for _, t := range targets {
		outcome := TargetOutcome{EmailID: t.ID, Subject: t.Subject, Sender: t.Sender}

		body := t.Body
		if body == "" {
			full, err := d.mbx.Get(ctx, access, t.ID)
			if err != nil {
				log.Printf("fetching message %s failed: %v", t.ID, err)
				outcome.Err = "could not load this email"
				outcomes = append(outcomes, outcome)
				continue
			}
			body = full.Body
		}

		text, err := d.ai.GenerateReply(ctx, t.Sender, t.Subject, body)
		if err != nil {
			log.Printf("reply generation for %s failed: %v", t.ID, err)
			outcome.Err = "could not generate a reply for this email"
			outcomes = append(outcomes, outcome)
			continue
		}

		anyOK = true
		outcomes = append(outcomes, outcome)
		replies = append(replies, mailbox.Reply{
			EmailID:         t.ID,
			OriginalSubject: t.Subject,
			OriginalSender:  t.Sender,
			Reply:           text,
		})
	}

	if !anyOK {
		return ActionResult{ErrKind: ErrorAI, Outcomes: outcomes}
	}
	return ActionResult{OK: true, Replies: replies, Outcomes: outcomes}
}

// SendReply sends a previously generated reply for one email. This entry is
// driven by an explicit UI action, not by message classification.
func (d *Dispatcher) SendReply(ctx context.Context, access *session.Access, emailID, replyText string) ActionResult {
	sentID, err := d.mbx.SendReply(ctx, access, emailID, replyText)
	if err != nil {
		log.Printf("sending reply to %s failed: %v", emailID, err)
		return failure(ErrorMailbox)
	}

	return ActionResult{
		OK:       true,
		SentID:   sentID,
		Outcomes: []TargetOutcome{{EmailID: emailID}},
	}
}

// resolveTargets turns the entity set into concrete emails: ordinals resolve
// against the window, filters match the window first and fall back to a live
// search, and "all" covers the whole window. A non-nil ActionResult aborts
// the action.
func (d *Dispatcher) resolveTargets(ctx context.Context, access *session.Access, ents EntitySet, window *Window) ([]mailbox.Email, *ActionResult) {
	if len(ents.Ordinals) > 0 {
		targets := make([]mailbox.Email, 0, len(ents.Ordinals))
		for _, ord := range ents.Ordinals {
			email, ok := window.At(ord)
			if !ok {
				res := ActionResult{ErrKind: ErrorOrdinalOutOfRange, Ordinal: ord}
				return nil, &res
			}
			targets = append(targets, email)
		}
		return targets, nil
	}

	if ents.Sender != "" || ents.Subject != "" {
		if matched := window.Match(ents.Sender, ents.Subject, ents.All); len(matched) > 0 {
			return matched, nil
		}

		max := int64(1)
		if ents.All {
			max = d.defaultMax
		}
		found, err := d.mbx.Search(ctx, access, gmailQuery(ents), max)
		if err != nil {
			log.Printf("mailbox search failed: %v", err)
			res := failure(ErrorMailbox)
			return nil, &res
		}
		if len(found) == 0 {
			res := failure(ErrorNoReference)
			return nil, &res
		}
		return found, nil
	}

	if ents.All {
		return window.Emails(), nil
	}

	return nil, nil
}

func gmailQuery(ents EntitySet) string {
	var parts []string
	if ents.Sender != "" {
		parts = append(parts, "from:"+quoteIfSpaced(ents.Sender))
	}
	if ents.Subject != "" {
		parts = append(parts, "subject:"+quoteIfSpaced(ents.Subject))
	}
	return strings.Join(parts, " ")
}

func quoteIfSpaced(s string) string {
	if strings.ContainsRune(s, ' ') {
		return fmt.Sprintf("%q", s)
	}
	return s
}
