// Package session persists authenticated user sessions in a local sqlite
// database and resolves session IDs to mailbox credentials.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/oauth2"
	_ "modernc.org/sqlite"
)

// ErrSessionInvalid indicates the session is unknown or has expired.
var ErrSessionInvalid = errors.New("invalid or expired session")

// Session is a stored login, one row per authenticated browser session.
type Session struct {
	SessionID    string    `db:"session_id"`
	UserEmail    string    `db:"user_email"`
	AccessToken  string    `db:"access_token"`
	RefreshToken string    `db:"refresh_token"`
	TokenExpiry  time.Time `db:"token_expiry"`
	ExpiresAt    time.Time `db:"expires_at"`
	CreatedAt    time.Time `db:"created_at"`
}

// Access is the mailbox-access handle handed to collaborators. It carries
// everything needed to call Gmail on the session owner's behalf.
type Access struct {
	SessionID string
	UserEmail string
	Token     *oauth2.Token
}

// Store is a sqlite-backed session store.
type Store struct {
	db *sqlx.DB
}

// NewStore opens (or creates) the session database at dbPath, enables WAL
// mode, and applies pending migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlx.Open failed: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode failed: %w", err)
	}

	s := &Store{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("runMigrations failed: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table failed: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version failed: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d failed: %w", m.version, err)
		}
	}

	return nil
}

// Create mints a new session for the given user and token. The session ID is
// a fresh UUID; the session itself expires with the access token, or after an
// hour when the token carries no expiry.
func (s *Store) Create(ctx context.Context, userEmail string, tok *oauth2.Token) (*Session, error) {
	expiresAt := tok.Expiry.UTC()
	if tok.Expiry.IsZero() {
		expiresAt = time.Now().UTC().Add(time.Hour)
	}

	sess := &Session{
		SessionID:    uuid.New().String(),
		UserEmail:    userEmail,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenExpiry:  tok.Expiry.UTC(),
		ExpiresAt:    expiresAt,
		CreatedAt:    time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_sessions (
			session_id, user_email, access_token, refresh_token,
			token_expiry, expires_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sess.SessionID, sess.UserEmail, sess.AccessToken, sess.RefreshToken,
		sess.TokenExpiry, sess.ExpiresAt, sess.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting session failed: %w", err)
	}

	return sess, nil
}

// Get retrieves a session by ID. Unknown and expired sessions both return
// ErrSessionInvalid; expired rows are deleted on the way out.
func (s *Store) Get(ctx context.Context, sessionID string) (*Session, error) {
	var sess Session
	err := s.db.GetContext(ctx, &sess,
		"SELECT * FROM user_sessions WHERE session_id = ?", sessionID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("querying session failed: %w", err)
	}

	if sess.ExpiresAt.Before(time.Now().UTC()) {
		_ = s.Delete(ctx, sessionID)
		return nil, ErrSessionInvalid
	}

	return &sess, nil
}

// UpdateToken stores a refreshed token for an existing session and pushes the
// session expiry out with it.
func (s *Store) UpdateToken(ctx context.Context, sessionID string, tok *oauth2.Token) error {
	refreshToken := tok.RefreshToken

	expiresAt := tok.Expiry.UTC()
	if tok.Expiry.IsZero() {
		expiresAt = time.Now().UTC().Add(time.Hour)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE user_sessions
		SET access_token = ?,
			refresh_token = CASE WHEN ? != '' THEN ? ELSE refresh_token END,
			token_expiry = ?,
			expires_at = ?
		WHERE session_id = ?`,
		tok.AccessToken, refreshToken, refreshToken, tok.Expiry.UTC(), expiresAt, sessionID,
	)
	if err != nil {
		return fmt.Errorf("updating session token failed: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("res.RowsAffected failed: %w", err)
	}
	if affected == 0 {
		return ErrSessionInvalid
	}

	return nil
}

// Delete removes a session by ID.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM user_sessions WHERE session_id = ?", sessionID,
	); err != nil {
		return fmt.Errorf("deleting session failed: %w", err)
	}
	return nil
}

// OAuthToken reconstructs the oauth2 token stored on a session.
func (sess *Session) OAuthToken() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		Expiry:       sess.TokenExpiry,
		TokenType:    "Bearer",
	}
}
