package chatbot_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/inboxly/gmail-assistant/internal/chatbot"
	"github.com/inboxly/gmail-assistant/internal/mailbox"
	"github.com/inboxly/gmail-assistant/internal/session"
)

type mailboxMock struct {
	ListFunc      func(ctx context.Context, access *session.Access, maxResults int64) ([]mailbox.Email, error)
	SearchFunc    func(ctx context.Context, access *session.Access, query string, maxResults int64) ([]mailbox.Email, error)
	GetFunc       func(ctx context.Context, access *session.Access, emailID string) (mailbox.Email, error)
	DeleteFunc    func(ctx context.Context, access *session.Access, emailID string) error
	SendReplyFunc func(ctx context.Context, access *session.Access, emailID, replyText string) (string, error)
}

func (m *mailboxMock) List(ctx context.Context, access *session.Access, maxResults int64) ([]mailbox.Email, error) {
	return m.ListFunc(ctx, access, maxResults)
}

func (m *mailboxMock) Search(ctx context.Context, access *session.Access, query string, maxResults int64) ([]mailbox.Email, error) {
	return m.SearchFunc(ctx, access, query, maxResults)
}

func (m *mailboxMock) Get(ctx context.Context, access *session.Access, emailID string) (mailbox.Email, error) {
	return m.GetFunc(ctx, access, emailID)
}

func (m *mailboxMock) Delete(ctx context.Context, access *session.Access, emailID string) error {
	return m.DeleteFunc(ctx, access, emailID)
}

func (m *mailboxMock) SendReply(ctx context.Context, access *session.Access, emailID, replyText string) (string, error) {
	return m.SendReplyFunc(ctx, access, emailID, replyText)
}

type aiMock struct {
	SummarizeFunc     func(ctx context.Context, sender, subject, body string) string
	GenerateReplyFunc func(ctx context.Context, sender, subject, body string) (string, error)
}

func (m *aiMock) Summarize(ctx context.Context, sender, subject, body string) string {
	if m.SummarizeFunc == nil {
		return "summary"
	}
	return m.SummarizeFunc(ctx, sender, subject, body)
}

func (m *aiMock) GenerateReply(ctx context.Context, sender, subject, body string) (string, error) {
	return m.GenerateReplyFunc(ctx, sender, subject, body)
}

type resolverMock struct {
	ResolveFunc func(ctx context.Context, sessionID string) (*session.Access, error)
}

func (m *resolverMock) Resolve(ctx context.Context, sessionID string) (*session.Access, error) {
	if m.ResolveFunc == nil {
		return &session.Access{
			SessionID: sessionID,
			UserEmail: "me@example.com",
			Token:     &oauth2.Token{AccessToken: "tok"},
		}, nil
	}
	return m.ResolveFunc(ctx, sessionID)
}

type profilerMock struct {
	ProfileFunc func(ctx context.Context, access *session.Access) (chatbot.Profile, error)
}

func (m *profilerMock) Profile(ctx context.Context, access *session.Access) (chatbot.Profile, error) {
	return m.ProfileFunc(ctx, access)
}

func newBot(mbx *mailboxMock, ai *aiMock) *chatbot.Bot {
	return newBotWith(mbx, ai, &resolverMock{}, &profilerMock{})
}

func newBotWith(mbx *mailboxMock, ai *aiMock, resolver *resolverMock, profiler *profilerMock) *chatbot.Bot {
	return chatbot.NewBot(
		resolver,
		profiler,
		chatbot.NewDispatcher(mbx, ai, 5),
		chatbot.NewExtractor(5, 25),
	)
}

func testEmail(id string) mailbox.Email {
	return mailbox.Email{
		ID:          id,
		ThreadID:    "t-" + id,
		Sender:      "Alice Sender",
		SenderEmail: "alice@example.com",
		Subject:     "Subject " + id,
		Body:        "body of " + id,
	}
}

func TestProcessMessageRead(t *testing.T) {
	mbx := &mailboxMock{
		ListFunc: func(_ context.Context, _ *session.Access, maxResults int64) ([]mailbox.Email, error) {
			assert.Equal(t, int64(3), maxResults)
			return []mailbox.Email{testEmail("m-1"), testEmail("m-2"), testEmail("m-3")}, nil
		},
	}
	ai := &aiMock{
		SummarizeFunc: func(_ context.Context, _, subject, _ string) string {
			return "summary of " + subject
		},
	}

	resp := newBot(mbx, ai).ProcessMessage(context.Background(), "sess-1", "Show me my last 3 emails")

	assert.Equal(t, "read", resp.Action)
	assert.Empty(t, resp.Error)
	assert.Contains(t, resp.Response, "Here are your last 3 emails:")
	assert.Contains(t, resp.Response, "1. From: Alice Sender")
	assert.Contains(t, resp.Response, "summary of Subject m-2")
	assert.Equal(t, 3, resp.Data["count"])
}

func TestProcessMessageDeleteOrdinal(t *testing.T) {
	var deleted []string
	mbx := &mailboxMock{
		ListFunc: func(_ context.Context, _ *session.Access, _ int64) ([]mailbox.Email, error) {
			return []mailbox.Email{testEmail("m-1"), testEmail("m-2"), testEmail("m-3")}, nil
		},
		DeleteFunc: func(_ context.Context, _ *session.Access, emailID string) error {
			deleted = append(deleted, emailID)
			return nil
		},
	}

	bot := newBot(mbx, &aiMock{})
	bot.ProcessMessage(context.Background(), "sess-1", "show my emails")

	resp := bot.ProcessMessage(context.Background(), "sess-1", "delete email 2")

	assert.Equal(t, "delete", resp.Action)
	assert.Contains(t, resp.Response, "✅ Successfully deleted email: Subject m-2")
	assert.Equal(t, []string{"m-2"}, deleted)
}

func TestProcessMessageOutOfRangeTouchesNoCollaborator(t *testing.T) {
	mbx := &mailboxMock{
		ListFunc: func(_ context.Context, _ *session.Access, _ int64) ([]mailbox.Email, error) {
			return []mailbox.Email{testEmail("m-1"), testEmail("m-2")}, nil
		},
		DeleteFunc: func(_ context.Context, _ *session.Access, emailID string) error {
			t.Fatalf("unexpected delete of %s", emailID)
			return nil
		},
		SearchFunc: func(_ context.Context, _ *session.Access, query string, _ int64) ([]mailbox.Email, error) {
			t.Fatalf("unexpected search %q", query)
			return nil, nil
		},
	}

	bot := newBot(mbx, &aiMock{})
	bot.ProcessMessage(context.Background(), "sess-1", "show my emails")

	resp := bot.ProcessMessage(context.Background(), "sess-1", "delete email 5")

	assert.Equal(t, "delete", resp.Action)
	assert.Equal(t, "ordinal_out_of_range", resp.Error)
	assert.Contains(t, resp.Response, "email number 5")
}

func TestProcessMessageDeleteBySenderFallsBackToSearch(t *testing.T) {
	var deleted []string
	mbx := &mailboxMock{
		SearchFunc: func(_ context.Context, _ *session.Access, query string, maxResults int64) ([]mailbox.Email, error) {
			assert.Equal(t, "from:alice@example.com", query)
			assert.Equal(t, int64(1), maxResults)
			return []mailbox.Email{testEmail("m-7")}, nil
		},
		DeleteFunc: func(_ context.Context, _ *session.Access, emailID string) error {
			deleted = append(deleted, emailID)
			return nil
		},
	}

	resp := newBot(mbx, &aiMock{}).ProcessMessage(
		context.Background(), "sess-1", "delete the email from alice@example.com",
	)

	assert.Empty(t, resp.Error)
	assert.Equal(t, []string{"m-7"}, deleted)
}

func TestProcessMessageReplyDefaultsToWindow(t *testing.T) {
	mbx := &mailboxMock{
		ListFunc: func(_ context.Context, _ *session.Access, _ int64) ([]mailbox.Email, error) {
			return []mailbox.Email{testEmail("m-1"), testEmail("m-2")}, nil
		},
	}
	ai := &aiMock{
		GenerateReplyFunc: func(_ context.Context, _, subject, _ string) (string, error) {
			return "Draft for " + subject, nil
		},
	}

	bot := newBot(mbx, ai)
	bot.ProcessMessage(context.Background(), "sess-1", "show my emails")

	resp := bot.ProcessMessage(context.Background(), "sess-1", "reply to my emails")

	assert.Equal(t, "reply", resp.Action)
	assert.Empty(t, resp.Error)
	assert.Contains(t, resp.Response, "I've drafted 2 replies for you:")

	replies, ok := resp.Data["replies"].([]mailbox.Reply)
	require.True(t, ok)
	require.Len(t, replies, 2)
	assert.Equal(t, "Draft for Subject m-1", replies[0].Reply)
}

func TestProcessMessageReplyPartialFailure(t *testing.T) {
	mbx := &mailboxMock{
		ListFunc: func(_ context.Context, _ *session.Access, _ int64) ([]mailbox.Email, error) {
			return []mailbox.Email{testEmail("m-1"), testEmail("m-2")}, nil
		},
	}
	ai := &aiMock{
		GenerateReplyFunc: func(_ context.Context, _, subject, _ string) (string, error) {
			if subject == "Subject m-2" {
				return "", fmt.Errorf("simulated model error")
			}
			return "Draft", nil
		},
	}

	bot := newBot(mbx, ai)
	bot.ProcessMessage(context.Background(), "sess-1", "show my emails")

	resp := bot.ProcessMessage(context.Background(), "sess-1", "reply to my emails")

	// One draft still counts as success, with the failure called out.
	assert.Empty(t, resp.Error)
	assert.Contains(t, resp.Response, "I couldn't draft replies for 1 email(s).")
	assert.NotContains(t, resp.Response, "simulated model error")

	failed, ok := resp.Data["failed"].([]chatbot.TargetOutcome)
	require.True(t, ok)
	require.Len(t, failed, 1)
	assert.Equal(t, "m-2", failed[0].EmailID)
}

func TestProcessMessageUnknown(t *testing.T) {
	resp := newBot(&mailboxMock{}, &aiMock{}).ProcessMessage(context.Background(), "sess-1", "asdkjf qwer")

	assert.Equal(t, "unknown", resp.Action)
	assert.Equal(t, "unrecognized_command", resp.Error)
	assert.Contains(t, resp.Response, "I'm not sure what you'd like me to do.")
}

func TestProcessMessageSessionInvalidKeepsAction(t *testing.T) {
	resolver := &resolverMock{
		ResolveFunc: func(_ context.Context, _ string) (*session.Access, error) {
			return nil, session.ErrSessionInvalid
		},
	}

	bot := newBotWith(&mailboxMock{}, &aiMock{}, resolver, &profilerMock{})
	resp := bot.ProcessMessage(context.Background(), "sess-1", "show my emails")

	assert.Equal(t, "read", resp.Action)
	assert.Equal(t, "session_invalid", resp.Error)
	assert.Contains(t, resp.Response, "session has expired")
}

func TestSendReply(t *testing.T) {
	mbx := &mailboxMock{
		SendReplyFunc: func(_ context.Context, _ *session.Access, emailID, replyText string) (string, error) {
			assert.Equal(t, "m-1", emailID)
			assert.Equal(t, "Thanks!", replyText)
			return "sent-1", nil
		},
	}

	resp := newBot(mbx, &aiMock{}).SendReply(context.Background(), "sess-1", "m-1", "Thanks!")

	assert.Equal(t, "send_reply", resp.Action)
	assert.Contains(t, resp.Response, "Reply sent successfully")
	assert.Equal(t, "sent-1", resp.Data["sent_message_id"])
}

func TestGreetingPersonalized(t *testing.T) {
	profiler := &profilerMock{
		ProfileFunc: func(_ context.Context, access *session.Access) (chatbot.Profile, error) {
			return chatbot.Profile{Email: access.UserEmail, Name: "Alice"}, nil
		},
	}

	bot := newBotWith(&mailboxMock{}, &aiMock{}, &resolverMock{}, profiler)
	reply, err := bot.Greeting(context.Background(), "sess-1")
	require.NoError(t, err)

	assert.Contains(t, reply.Greeting, "Hello, Alice!")
	require.NotNil(t, reply.User)
	assert.Equal(t, "me@example.com", reply.User.Email)
}

func TestGreetingFallsBackWithoutProfile(t *testing.T) {
	profiler := &profilerMock{
		ProfileFunc: func(_ context.Context, _ *session.Access) (chatbot.Profile, error) {
			return chatbot.Profile{}, fmt.Errorf("simulated profile error")
		},
	}

	bot := newBotWith(&mailboxMock{}, &aiMock{}, &resolverMock{}, profiler)
	reply, err := bot.Greeting(context.Background(), "sess-1")
	require.NoError(t, err)

	assert.Contains(t, reply.Greeting, "I'm your Gmail assistant")
	assert.Equal(t, "me@example.com", reply.User.Email)
}

func TestProcessMessageGreetAndHelp(t *testing.T) {
	bot := newBot(&mailboxMock{}, &aiMock{})

	greet := bot.ProcessMessage(context.Background(), "sess-1", "hello")
	assert.Equal(t, "greeting", greet.Action)
	assert.Contains(t, greet.Response, "I'm your Gmail assistant")

	help := bot.ProcessMessage(context.Background(), "sess-1", "help")
	assert.Equal(t, "help", help.Action)
	assert.Contains(t, help.Response, "Show your recent emails")
}
