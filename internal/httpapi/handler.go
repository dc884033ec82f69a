// Package httpapi exposes the assistant to the web UI: the chat surface plus
// direct email endpoints for listing, searching, replying, and deleting.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/inboxly/gmail-assistant/internal/ai"
	"github.com/inboxly/gmail-assistant/internal/chatbot"
	"github.com/inboxly/gmail-assistant/internal/mailbox"
	"github.com/inboxly/gmail-assistant/internal/session"
)

type chatSvc interface {
	ProcessMessage(ctx context.Context, sessionID, text string) chatbot.Response
	SendReply(ctx context.Context, sessionID, emailID, replyText string) chatbot.Response
	Greeting(ctx context.Context, sessionID string) (chatbot.GreetingReply, error)
}

type sessionResolver interface {
	Resolve(ctx context.Context, sessionID string) (*session.Access, error)
}

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
	DailyDigest(ctx context.Context, emails []ai.DigestEmail) (string, error)
	Categorize(ctx context.Context, emails []ai.DigestEmail) (map[string][]int, error)
}

// NewHandler creates the REST handler.
func NewHandler(chat chatSvc, resolver sessionResolver, mbx mailboxSvc, ai aiSvc, defaultMaxResults, maxResultsCeiling int) *Handler {
	return &Handler{
		chat:       chat,
		resolver:   resolver,
		mbx:        mbx,
		ai:         ai,
		defaultMax: defaultMaxResults,
		ceiling:    maxResultsCeiling,
	}
}

// Handler serves the assistant's REST routes. Sessions travel in the
// X-Session-Id header; an unknown or expired session is a 401, business
// failures inside the chat pipeline stay 200 with an error tag in the body.
type Handler struct {
	chat       chatSvc
	resolver   sessionResolver
	mbx        mailboxSvc
	ai         aiSvc
	defaultMax int
	ceiling    int
}

// Register mounts all routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.health)

	mux.HandleFunc("POST /api/chatbot/message", h.chatMessage)
	mux.HandleFunc("GET /api/chatbot/greeting", h.greeting)

	mux.HandleFunc("GET /api/email/list", h.listEmails)
	mux.HandleFunc("GET /api/email/search", h.searchEmails)
	mux.HandleFunc("GET /api/email/digest", h.dailyDigest)
	mux.HandleFunc("GET /api/email/categorize", h.categorize)
	mux.HandleFunc("POST /api/email/reply/generate", h.generateReply)
	mux.HandleFunc("POST /api/email/reply/send", h.sendReply)
	mux.HandleFunc("DELETE /api/email/delete/{id}", h.deleteEmail)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) chatMessage(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDFrom(w, r)
	if !ok {
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		writeError(w, http.StatusBadRequest, "Missing message")
		return
	}

	resp := h.chat.ProcessMessage(r.Context(), sessionID, req.Message)

	status := http.StatusOK
	if resp.Error == string(chatbot.ErrorSessionInvalid) {
		status = http.StatusUnauthorized
	}
	writeJSON(w, status, resp)
}

func (h *Handler) greeting(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDFrom(w, r)
	if !ok {
		return
	}

	reply, err := h.chat.Greeting(r.Context(), sessionID)
	if errors.Is(err, session.ErrSessionInvalid) {
		writeError(w, http.StatusUnauthorized, "Invalid or expired session")
		return
	}
	if err != nil {
		log.Println("chat.Greeting failed", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, reply)
}

func (h *Handler) listEmails(w http.ResponseWriter, r *http.Request) {
	access, ok := h.resolve(w, r)
	if !ok {
		return
	}

	maxResults := h.defaultMax
	if raw := r.URL.Query().Get("max_results"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid max_results")
			return
		}
		maxResults = min(max(n, 1), h.ceiling)
	}

	emails, err := h.mbx.List(r.Context(), access, int64(maxResults))
	if err != nil {
		log.Println("mbx.List failed", err)
		writeError(w, http.StatusBadGateway, "Unable to fetch emails")
		return
	}

	for i := range emails {
		if emails[i].Body != "" {
			emails[i].Summary = h.ai.Summarize(r.Context(), emails[i].Sender, emails[i].Subject, emails[i].Body)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"emails": emails, "count": len(emails)})
}

func (h *Handler) searchEmails(w http.ResponseWriter, r *http.Request) {
	access, ok := h.resolve(w, r)
	if !ok {
		return
	}

	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "Missing query")
		return
	}

	emails, err := h.mbx.Search(r.Context(), access, q, int64(h.defaultMax))
	if err != nil {
		log.Println("mbx.Search failed", err)
		writeError(w, http.StatusBadGateway, "Unable to search emails")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"emails": emails, "count": len(emails)})
}

func (h *Handler) dailyDigest(w http.ResponseWriter, r *http.Request) {
	access, ok := h.resolve(w, r)
	if !ok {
		return
	}

	emails, digestInput, ok := h.digestEmails(w, r, access)
	if !ok {
		return
	}

	digest, err := h.ai.DailyDigest(r.Context(), digestInput)
	if err != nil {
		log.Println("ai.DailyDigest failed", err)
		writeError(w, http.StatusBadGateway, "Unable to build digest")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"digest": digest, "count": len(emails)})
}

func (h *Handler) categorize(w http.ResponseWriter, r *http.Request) {
	access, ok := h.resolve(w, r)
	if !ok {
		return
	}

	emails, digestInput, ok := h.digestEmails(w, r, access)
	if !ok {
		return
	}

	categories, err := h.ai.Categorize(r.Context(), digestInput)
	if err != nil {
		log.Println("ai.Categorize failed", err)
		writeError(w, http.StatusBadGateway, "Unable to categorize emails")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"categories": categories, "emails": emails})
}

// digestEmails fetches the most recent emails and flattens them into the
// digest prompt shape. Snippets stand in for full summaries to keep a digest
// to a single model round-trip.
func (h *Handler) digestEmails(w http.ResponseWriter, r *http.Request, access *session.Access) ([]mailbox.Email, []ai.DigestEmail, bool) {
	emails, err := h.mbx.Search(r.Context(), access, "", int64(h.ceiling))
	if err != nil {
		log.Println("mbx.Search failed", err)
		writeError(w, http.StatusBadGateway, "Unable to fetch emails")
		return nil, nil, false
	}

	digestInput := make([]ai.DigestEmail, 0, len(emails))
	for _, e := range emails {
		digestInput = append(digestInput, ai.DigestEmail{
			Sender:  e.Sender,
			Subject: e.Subject,
			Summary: e.Snippet,
		})
	}

	return emails, digestInput, true
}

func (h *Handler) generateReply(w http.ResponseWriter, r *http.Request) {
	access, ok := h.resolve(w, r)
	if !ok {
		return
	}

	var req struct {
		EmailID string `json:"email_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.EmailID == "" {
		writeError(w, http.StatusBadRequest, "Missing email_id")
		return
	}

	email, err := h.mbx.Get(r.Context(), access, req.EmailID)
	if err != nil {
		log.Println("mbx.Get failed", err)
		writeError(w, http.StatusBadGateway, "Unable to fetch email")
		return
	}

	text, err := h.ai.GenerateReply(r.Context(), email.Sender, email.Subject, email.Body)
	if err != nil {
		log.Println("ai.GenerateReply failed", err)
		writeError(w, http.StatusBadGateway, "Unable to generate reply")
		return
	}

	writeJSON(w, http.StatusOK, mailbox.Reply{
		EmailID:         email.ID,
		OriginalSubject: email.Subject,
		OriginalSender:  email.Sender,
		Reply:           text,
	})
}

func (h *Handler) sendReply(w http.ResponseWriter, r *http.Request) {
	access, ok := h.resolve(w, r)
	if !ok {
		return
	}

	var req struct {
		EmailID string `json:"email_id"`
		Reply   string `json:"reply"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.EmailID == "" || req.Reply == "" {
		writeError(w, http.StatusBadRequest, "Missing email_id or reply")
		return
	}

	sentID, err := h.mbx.SendReply(r.Context(), access, req.EmailID, req.Reply)
	if err != nil {
		log.Println("mbx.SendReply failed", err)
		writeError(w, http.StatusBadGateway, "Unable to send reply")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "sent_message_id": sentID})
}

func (h *Handler) deleteEmail(w http.ResponseWriter, r *http.Request) {
	access, ok := h.resolve(w, r)
	if !ok {
		return
	}

	emailID := r.PathValue("id")

	if err := h.mbx.Delete(r.Context(), access, emailID); err != nil {
		log.Println("mbx.Delete failed", err)
		writeError(w, http.StatusBadGateway, "Unable to delete email")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Email moved to trash"})
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) (*session.Access, bool) {
	sessionID, ok := sessionIDFrom(w, r)
	if !ok {
		return nil, false
	}

	access, err := h.resolver.Resolve(r.Context(), sessionID)
	if errors.Is(err, session.ErrSessionInvalid) {
		writeError(w, http.StatusUnauthorized, "Invalid or expired session")
		return nil, false
	}
	if err != nil {
		log.Println("resolver.Resolve failed", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return nil, false
	}

	return access, true
}

func sessionIDFrom(w http.ResponseWriter, r *http.Request) (string, bool) {
	sessionID := r.Header.Get("X-Session-Id")
	if sessionID == "" {
		writeError(w, http.StatusUnauthorized, "Missing X-Session-Id header")
		return "", false
	}
	return sessionID, true
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Println("encoding response failed", err)
	}
}
