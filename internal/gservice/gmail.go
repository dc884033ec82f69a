// Package gservice wraps the Google API clients used by the assistant.
package gservice

import (
	"context"
	"encoding/base64"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	goauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

const gmailUserID = "me"

// NewGmail creates a Gmail API wrapper bound to an OAuth2 client config.
// Tokens are supplied per call so a single wrapper serves every session.
func NewGmail(cfg *oauth2.Config) *GMail {
	return &GMail{cfg: cfg}
}

// GMail is a thin wrapper over the Gmail REST API.
type GMail struct {
	cfg *oauth2.Config
}

func (m *GMail) ListMessages(ctx context.Context, tok *oauth2.Token, Q, pageToken string, maxResults int64) (*gmail.ListMessagesResponse, error) {
	svc, err := m.newSvc(ctx, tok)
	if err != nil {
		return nil, fmt.Errorf("newSvc failed: %w", err)
	}

	call := svc.Users.Messages.List(gmailUserID).
		Q(Q).
		PageToken(pageToken).
		MaxResults(maxResults)

	result, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("messages.List failed: %w", err)
	}

	return result, nil
}

func (m *GMail) GetMessageMetadata(ctx context.Context, tok *oauth2.Token, msgID string) (*gmail.Message, error) {
	svc, err := m.newSvc(ctx, tok)
	if err != nil {
		return nil, fmt.Errorf("newSvc failed: %w", err)
	}

	msg, err := svc.Users.Messages.Get(gmailUserID, msgID).
		Format("METADATA").
		MetadataHeaders("From", "To", "Cc", "Subject", "Date").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("messages.Get failed: %w", err)
	}

	return msg, nil
}

func (m *GMail) GetMessage(ctx context.Context, tok *oauth2.Token, msgID string) (*gmail.Message, error) {
	svc, err := m.newSvc(ctx, tok)
	if err != nil {
		return nil, fmt.Errorf("newSvc failed: %w", err)
	}

	msg, err := svc.Users.Messages.Get(gmailUserID, msgID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("messages.Get failed: %w", err)
	}

	return msg, nil
}

// TrashMessage moves a message to the trash. The gmail.modify scope allows
// trashing but not a permanent delete, and trash keeps the action recoverable.
func (m *GMail) TrashMessage(ctx context.Context, tok *oauth2.Token, msgID string) error {
	svc, err := m.newSvc(ctx, tok)
	if err != nil {
		return fmt.Errorf("newSvc failed: %w", err)
	}

	if _, err := svc.Users.Messages.Trash(gmailUserID, msgID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("messages.Trash failed: %w", err)
	}

	return nil
}

// SendMessage sends a raw RFC 822 message, threading it when threadID is set.
func (m *GMail) SendMessage(ctx context.Context, tok *oauth2.Token, raw []byte, threadID string) (*gmail.Message, error) {
	svc, err := m.newSvc(ctx, tok)
	if err != nil {
		return nil, fmt.Errorf("newSvc failed: %w", err)
	}

	msg := &gmail.Message{
		Raw:      base64.URLEncoding.EncodeToString(raw),
		ThreadId: threadID,
	}

	sent, err := svc.Users.Messages.Send(gmailUserID, msg).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("messages.Send failed: %w", err)
	}

	return sent, nil
}

// UserInfo fetches the profile of the authenticated user.
func (m *GMail) UserInfo(ctx context.Context, tok *oauth2.Token) (*goauth2.Userinfo, error) {
	clt := m.cfg.Client(ctx, tok)

	svc, err := goauth2.NewService(ctx, option.WithHTTPClient(clt))
	if err != nil {
		return nil, fmt.Errorf("oauth2.NewService failed: %w", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("userinfo.Get failed: %w", err)
	}

	return info, nil
}

func (m *GMail) newSvc(ctx context.Context, tok *oauth2.Token) (*gmail.Service, error) {
	clt := m.cfg.Client(ctx, tok)

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(clt))
	if err != nil {
		return nil, fmt.Errorf("gmail.NewService failed: %w", err)
	}

	return svc, nil
}
