// Package auth implements the Google sign-in flow and resolves session IDs
// into mailbox credentials, refreshing expired tokens along the way.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	goauth2 "google.golang.org/api/oauth2/v2"

	"github.com/inboxly/gmail-assistant/internal/chatbot"
	"github.com/inboxly/gmail-assistant/internal/session"
)

// Scopes are the Google OAuth scopes the assistant asks for at sign-in.
// gmail.modify covers trashing; the assistant never hard-deletes.
var Scopes = []string{
	"openid",
	goauth2.UserinfoEmailScope,
	goauth2.UserinfoProfileScope,
	gmail.GmailReadonlyScope,
	gmail.GmailSendScope,
	gmail.GmailModifyScope,
}

type sessionStore interface {
	Create(ctx context.Context, userEmail string, tok *oauth2.Token) (*session.Session, error)
	Get(ctx context.Context, sessionID string) (*session.Session, error)
	UpdateToken(ctx context.Context, sessionID string, tok *oauth2.Token) error
	Delete(ctx context.Context, sessionID string) error
}

type userInfoSvc interface {
	UserInfo(ctx context.Context, tok *oauth2.Token) (*goauth2.Userinfo, error)
}

// NewService creates the auth service over the OAuth2 client config, the
// session store, and the Google userinfo API.
func NewService(cfg *oauth2.Config, store sessionStore, users userInfoSvc) *Service {
	return &Service{
		cfg:    cfg,
		store:  store,
		users:  users,
		states: map[string]time.Time{},
	}
}

// Service runs the OAuth dance and owns session resolution. One instance
// serves every browser session.
type Service struct {
	cfg   *oauth2.Config
	store sessionStore
	users userInfoSvc

	mu     sync.Mutex
	states map[string]time.Time
}

// RedirectURL generates the Google authorization URL with a secure random
// state parameter.
func (s *Service) RedirectURL() (string, error) {
	state, err := s.generateState()
	if err != nil {
		return "", fmt.Errorf("generateState failed: %w", err)
	}

	return s.cfg.AuthCodeURL(
		state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	), nil
}

func (s *Service) generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand.Read failed: %w", err)
	}
	state := base64.URLEncoding.EncodeToString(b)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.states[state] = now.Add(5 * time.Minute)

	for st, exp := range s.states {
		if exp.Before(now) {
			delete(s.states, st)
		}
	}

	return state, nil
}

func (s *Service) validateState(state string) bool {
	if state == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, exists := s.states[state]
	if !exists {
		return false
	}

	delete(s.states, state)

	return !time.Now().After(expiry)
}

// AuthorizeCode validates the state, exchanges the authorization code,
// identifies the user, and mints a session for them.
func (s *Service) AuthorizeCode(ctx context.Context, code, state string) (*session.Session, error) {
	if !s.validateState(state) {
		return nil, errors.New("invalid or expired state parameter")
	}

	tok, err := s.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("cfg.Exchange failed: %w", err)
	}

	info, err := s.users.UserInfo(ctx, tok)
	if err != nil {
		return nil, fmt.Errorf("users.UserInfo failed: %w", err)
	}

	sess, err := s.store.Create(ctx, info.Email, tok)
	if err != nil {
		return nil, fmt.Errorf("store.Create failed: %w", err)
	}

	return sess, nil
}

// Resolve maps a session ID to mailbox credentials. An expired access token
// is refreshed through the stored refresh token and the session row is
// updated with the fresh token; a session that cannot be refreshed is
// reported as invalid.
func (s *Service) Resolve(ctx context.Context, sessionID string) (*session.Access, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("store.Get failed: %w", err)
	}

	tok := sess.OAuthToken()
	if !tok.Valid() {
		if tok.RefreshToken == "" {
			return nil, session.ErrSessionInvalid
		}

		fresh, err := s.cfg.TokenSource(ctx, tok).Token()
		if err != nil {
			log.Printf("refreshing token for session %s failed: %v", sessionID, err)
			return nil, session.ErrSessionInvalid
		}

		if err := s.store.UpdateToken(ctx, sessionID, fresh); err != nil {
			// The fresh token still serves this request.
			log.Printf("persisting refreshed token for session %s failed: %v", sessionID, err)
		}
		tok = fresh
	}

	return &session.Access{
		SessionID: sess.SessionID,
		UserEmail: sess.UserEmail,
		Token:     tok,
	}, nil
}

// Profile fetches the session owner's Google profile.
func (s *Service) Profile(ctx context.Context, access *session.Access) (chatbot.Profile, error) {
	info, err := s.users.UserInfo(ctx, access.Token)
	if err != nil {
		return chatbot.Profile{}, fmt.Errorf("users.UserInfo failed: %w", err)
	}

	return chatbot.Profile{
		Email:   info.Email,
		Name:    info.Name,
		Picture: info.Picture,
	}, nil
}

// Logout deletes the session row.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("store.Delete failed: %w", err)
	}
	return nil
}
