package auth

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"

	"github.com/inboxly/gmail-assistant/internal/session"
)

type authSvc interface {
	RedirectURL() (string, error)
	AuthorizeCode(ctx context.Context, code, state string) (*session.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

// NewHTTPHandler creates the HTTP surface for the sign-in flow. After the
// Google callback the browser is redirected back to frontendURL with the new
// session ID in the query string.
func NewHTTPHandler(svc authSvc, frontendURL string) *HTTPHandler {
	return &HTTPHandler{svc: svc, frontendURL: frontendURL}
}

// HTTPHandler serves the OAuth login, callback, and logout routes.
type HTTPHandler struct {
	svc         authSvc
	frontendURL string
}

// Register mounts the auth routes on the mux.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/auth/google/url", h.loginURL)
	mux.HandleFunc("GET /api/auth/google/callback", h.callback)
	mux.HandleFunc("POST /api/auth/logout", h.logout)
}

func (h *HTTPHandler) loginURL(w http.ResponseWriter, r *http.Request) {
	authURL, err := h.svc.RedirectURL()
	if err != nil {
		log.Println("svc.RedirectURL failed", err)
		http.Error(w, "Unable to start sign-in", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"auth_url": authURL})
}

func (h *HTTPHandler) callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if errMsg := q.Get("error"); errMsg != "" {
		h.redirectFrontend(w, r, url.Values{"error": {errMsg}})
		return
	}

	sess, err := h.svc.AuthorizeCode(r.Context(), q.Get("code"), q.Get("state"))
	if err != nil {
		log.Println("svc.AuthorizeCode failed", err)
		h.redirectFrontend(w, r, url.Values{"error": {"authorization_failed"}})
		return
	}

	h.redirectFrontend(w, r, url.Values{"session_id": {sess.SessionID}})
}

func (h *HTTPHandler) logout(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get("X-Session-Id")
	if sessionID == "" {
		http.Error(w, "Missing X-Session-Id header", http.StatusUnauthorized)
		return
	}

	if err := h.svc.Logout(r.Context(), sessionID); err != nil {
		log.Println("svc.Logout failed", err)
		http.Error(w, "Unable to log out", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) redirectFrontend(w http.ResponseWriter, r *http.Request, params url.Values) {
	http.Redirect(w, r, h.frontendURL+"?"+params.Encode(), http.StatusFound)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Println("encoding response failed", err)
	}
}
