package mailbox_test

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"

	"github.com/inboxly/gmail-assistant/internal/mailbox"
	"github.com/inboxly/gmail-assistant/internal/session"
)

type gmailSvcMock struct {
	ListMessagesFunc       func(ctx context.Context, tok *oauth2.Token, Q, pageToken string, maxResults int64) (*gmail.ListMessagesResponse, error)
	GetMessageFunc         func(ctx context.Context, tok *oauth2.Token, msgID string) (*gmail.Message, error)
	GetMessageMetadataFunc func(ctx context.Context, tok *oauth2.Token, msgID string) (*gmail.Message, error)
	TrashMessageFunc       func(ctx context.Context, tok *oauth2.Token, msgID string) error
	SendMessageFunc        func(ctx context.Context, tok *oauth2.Token, raw []byte, threadID string) (*gmail.Message, error)
}

func (m *gmailSvcMock) ListMessages(ctx context.Context, tok *oauth2.Token, Q, pageToken string, maxResults int64) (*gmail.ListMessagesResponse, error) {
	return m.ListMessagesFunc(ctx, tok, Q, pageToken, maxResults)
}

func (m *gmailSvcMock) GetMessage(ctx context.Context, tok *oauth2.Token, msgID string) (*gmail.Message, error) {
	return m.GetMessageFunc(ctx, tok, msgID)
}

func (m *gmailSvcMock) GetMessageMetadata(ctx context.Context, tok *oauth2.Token, msgID string) (*gmail.Message, error) {
	return m.GetMessageMetadataFunc(ctx, tok, msgID)
}

func (m *gmailSvcMock) TrashMessage(ctx context.Context, tok *oauth2.Token, msgID string) error {
	return m.TrashMessageFunc(ctx, tok, msgID)
}

func (m *gmailSvcMock) SendMessage(ctx context.Context, tok *oauth2.Token, raw []byte, threadID string) (*gmail.Message, error) {
	return m.SendMessageFunc(ctx, tok, raw, threadID)
}

func testAccess() *session.Access {
	return &session.Access{
		SessionID: "sess-1",
		UserEmail: "me@example.com",
		Token:     &oauth2.Token{AccessToken: "tok"},
	}
}

func fullMessage(id string) *gmail.Message {
	return &gmail.Message{
		Id:       id,
		ThreadId: "t-" + id,
		Snippet:  "snippet " + id,
		Payload: &gmail.MessagePart{
			Headers: []*gmail.MessagePartHeader{
				{Name: "From", Value: fmt.Sprintf("Alice Sender <alice+%s@example.com>", id)},
				{Name: "Subject", Value: "Subject " + id},
				{Name: "Date", Value: "Mon, 2 Jun 2025 10:00:00 +0000"},
			},
			MimeType: "text/plain",
			Body: &gmail.MessagePartBody{
				Data: base64.URLEncoding.EncodeToString([]byte("body of " + id)),
			},
		},
	}
}

func TestList(t *testing.T) {
	svc := &gmailSvcMock{
		ListMessagesFunc: func(_ context.Context, _ *oauth2.Token, Q, _ string, maxResults int64) (*gmail.ListMessagesResponse, error) {
			assert.Equal(t, "", Q)
			assert.Equal(t, int64(3), maxResults)
			return &gmail.ListMessagesResponse{
				Messages: []*gmail.Message{{Id: "m-1"}, {Id: "m-2"}, {Id: "m-broken"}},
			}, nil
		},
		GetMessageFunc: func(_ context.Context, _ *oauth2.Token, msgID string) (*gmail.Message, error) {
			if msgID == "m-broken" {
				return nil, fmt.Errorf("simulated fetch error")
			}
			return fullMessage(msgID), nil
		},
	}

	emails, err := mailbox.NewService(svc).List(context.Background(), testAccess(), 3)
	require.NoError(t, err)

	// The broken message is skipped, not fatal.
	require.Len(t, emails, 2)
	assert.Equal(t, "m-1", emails[0].ID)
	assert.Equal(t, "Alice Sender", emails[0].Sender)
	assert.Equal(t, "alice+m-1@example.com", emails[0].SenderEmail)
	assert.Equal(t, "Subject m-1", emails[0].Subject)
	assert.Equal(t, "body of m-1", emails[0].Body)
}

func TestSearchUsesMetadataOnly(t *testing.T) {
	svc := &gmailSvcMock{
		ListMessagesFunc: func(_ context.Context, _ *oauth2.Token, Q, _ string, _ int64) (*gmail.ListMessagesResponse, error) {
			assert.Equal(t, "from:alice@example.com", Q)
			return &gmail.ListMessagesResponse{Messages: []*gmail.Message{{Id: "m-1"}}}, nil
		},
		GetMessageMetadataFunc: func(_ context.Context, _ *oauth2.Token, msgID string) (*gmail.Message, error) {
			msg := fullMessage(msgID)
			msg.Payload.Body = nil
			return msg, nil
		},
	}

	emails, err := mailbox.NewService(svc).Search(context.Background(), testAccess(), "from:alice@example.com", 5)
	require.NoError(t, err)

	require.Len(t, emails, 1)
	assert.Equal(t, "Subject m-1", emails[0].Subject)
	assert.Empty(t, emails[0].Body)
}

func TestListError(t *testing.T) {
	svc := &gmailSvcMock{
		ListMessagesFunc: func(_ context.Context, _ *oauth2.Token, _, _ string, _ int64) (*gmail.ListMessagesResponse, error) {
			return nil, fmt.Errorf("simulated list error")
		},
	}

	_, err := mailbox.NewService(svc).List(context.Background(), testAccess(), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "simulated list error")
}

func TestDelete(t *testing.T) {
	var trashed []string
	svc := &gmailSvcMock{
		TrashMessageFunc: func(_ context.Context, _ *oauth2.Token, msgID string) error {
			trashed = append(trashed, msgID)
			return nil
		},
	}

	err := mailbox.NewService(svc).Delete(context.Background(), testAccess(), "m-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"m-1"}, trashed)
}

func TestSendReply(t *testing.T) {
	var sentRaw []byte
	var sentThread string

	svc := &gmailSvcMock{
		GetMessageMetadataFunc: func(_ context.Context, _ *oauth2.Token, msgID string) (*gmail.Message, error) {
			return fullMessage(msgID), nil
		},
		SendMessageFunc: func(_ context.Context, _ *oauth2.Token, raw []byte, threadID string) (*gmail.Message, error) {
			sentRaw = raw
			sentThread = threadID
			return &gmail.Message{Id: "sent-1"}, nil
		},
	}

	id, err := mailbox.NewService(svc).SendReply(context.Background(), testAccess(), "m-9", "Thanks, see you then.")
	require.NoError(t, err)

	assert.Equal(t, "sent-1", id)
	assert.Equal(t, "t-m-9", sentThread)

	raw := string(sentRaw)
	assert.Contains(t, raw, "To: alice+m-9@example.com\r\n")
	assert.Contains(t, raw, "Subject: Re: Subject m-9\r\n")
	assert.True(t, strings.HasSuffix(raw, "Thanks, see you then."))
}

func TestSendReplyKeepsExistingRePrefix(t *testing.T) {
	svc := &gmailSvcMock{
		GetMessageMetadataFunc: func(_ context.Context, _ *oauth2.Token, msgID string) (*gmail.Message, error) {
			msg := fullMessage(msgID)
			msg.Payload.Headers[1].Value = "Re: Subject already"
			return msg, nil
		},
		SendMessageFunc: func(_ context.Context, _ *oauth2.Token, raw []byte, _ string) (*gmail.Message, error) {
			assert.Contains(t, string(raw), "Subject: Re: Subject already\r\n")
			assert.NotContains(t, string(raw), "Re: Re:")
			return &gmail.Message{Id: "sent-2"}, nil
		},
	}

	_, err := mailbox.NewService(svc).SendReply(context.Background(), testAccess(), "m-1", "ok")
	require.NoError(t, err)
}
