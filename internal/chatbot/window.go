package chatbot

import (
	"strings"

	"github.com/inboxly/gmail-assistant/internal/mailbox"
)

// Window holds the emails last shown to a session. Ordinal references in
// follow-up commands ("delete email 2") resolve against it, 1-based, in the
// exact order the listing was presented.
type Window struct {
	emails []mailbox.Email
}

// Replace swaps the window contents. Only successful listings call this, so
// a failed read never invalidates earlier references.
func (w *Window) Replace(emails []mailbox.Email) {
	w.emails = append(w.emails[:0:0], emails...)
}

func (w *Window) Len() int {
	return len(w.emails)
}

// At returns the email at a 1-based position.
func (w *Window) At(ordinal int) (mailbox.Email, bool) {
	if ordinal < 1 || ordinal > len(w.emails) {
		return mailbox.Email{}, false
	}
	return w.emails[ordinal-1], true
}

// Emails returns a copy of the window contents in presentation order.
func (w *Window) Emails() []mailbox.Email {
	return append([]mailbox.Email(nil), w.emails...)
}

// Match returns the windowed emails whose sender or subject contains the
// given filters, case-insensitively. With all false, only the first match is
// returned.
func (w *Window) Match(sender, subject string, all bool) []mailbox.Email {
	var out []mailbox.Email

	sender = strings.ToLower(sender)
	subject = strings.ToLower(subject)

	for _, e := range w.emails {
		if sender != "" &&
			!strings.Contains(strings.ToLower(e.Sender), sender) &&
			!strings.Contains(strings.ToLower(e.SenderEmail), sender) {
			continue
		}
		if subject != "" && !strings.Contains(strings.ToLower(e.Subject), subject) {
			continue
		}

		out = append(out, e)
		if !all {
			break
		}
	}

	return out
}
