package mailbox

// Email is the assistant's view of a single message, flattened from the
// Gmail payload. Field names follow the JSON shape the UI consumes.
type Email struct {
	ID          string `json:"id"`
	ThreadID    string `json:"thread_id"`
	Sender      string `json:"sender"`
	SenderEmail string `json:"sender_email"`
	Subject     string `json:"subject"`
	Date        string `json:"date"`
	Body        string `json:"body,omitempty"`
	Snippet     string `json:"snippet,omitempty"`
	Summary     string `json:"summary,omitempty"`
}

// Reply is a generated response for one email.
type Reply struct {
	EmailID         string `json:"email_id"`
	OriginalSubject string `json:"original_subject"`
	OriginalSender  string `json:"original_sender"`
	Reply           string `json:"reply"`
}
