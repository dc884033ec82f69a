package chatbot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/inboxly/gmail-assistant/internal/session"
)

type sessionResolver interface {
	Resolve(ctx context.Context, sessionID string) (*session.Access, error)
}

type userProfiler interface {
	Profile(ctx context.Context, access *session.Access) (Profile, error)
}

// Profile identifies the signed-in mailbox owner.
type Profile struct {
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
}

// GreetingReply is the payload for the greeting surface.
type GreetingReply struct {
	Greeting string   `json:"greeting"`
	User     *Profile `json:"user,omitempty"`
}

// NewBot wires the chat pipeline: session resolution, classification, entity
// extraction, dispatch, and rendering.
func NewBot(resolver sessionResolver, profiler userProfiler, dispatcher *Dispatcher, extractor *Extractor) *Bot {
	return &Bot{
		resolver:   resolver,
		profiler:   profiler,
		dispatcher: dispatcher,
		extractor:  extractor,
		sessions:   map[string]*sessionState{},
	}
}

// Bot processes chat turns. Turns within one session are serialized so the
// conversation window updates in order; separate sessions run concurrently
// and never observe each other's windows.
type Bot struct {
	resolver   sessionResolver
	profiler   userProfiler
	dispatcher *Dispatcher
	extractor  *Extractor

	mu       sync.Mutex
	sessions map[string]*sessionState
}

type sessionState struct {
	mu     sync.Mutex
	window Window
}

// ProcessMessage runs one chat turn. It always returns a renderable
// response; business failures come back as apologetic text with an error
// tag, never as an error.
func (b *Bot) ProcessMessage(ctx context.Context, sessionID, text string) Response {
	intent := Classify(text)

	access, err := b.resolve(ctx, sessionID)
	if err != nil {
		return Render(intent, failure(resolveErrorKind(err)))
	}

	switch intent {
	case IntentGreet, IntentHelp:
		return Render(intent, ActionResult{OK: true})
	case IntentUnknown:
		return Render(intent, failure(ErrorUnrecognizedCommand))
	}

	st := b.state(sessionID)
	st.mu.Lock()
	defer st.mu.Unlock()

	ents, err := b.extractor.Extract(intent, text, st.window.Len())
	if err != nil {
		var exErr *ExtractionError
		if errors.As(err, &exErr) {
			return Render(intent, ActionResult{ErrKind: exErr.Kind, Ordinal: exErr.Ordinal})
		}
		log.Printf("entity extraction failed: %v", err)
		return Render(intent, failure(ErrorInternal))
	}

	return Render(intent, b.dispatcher.Dispatch(ctx, access, intent, ents, &st.window))
}

// SendReply sends a previously drafted reply for one email. Driven by an
// explicit UI action rather than message classification.
func (b *Bot) SendReply(ctx context.Context, sessionID, emailID, replyText string) Response {
	access, err := b.resolve(ctx, sessionID)
	if err != nil {
		return Render(IntentSendReply, failure(resolveErrorKind(err)))
	}

	return Render(IntentSendReply, b.dispatcher.SendReply(ctx, access, emailID, replyText))
}

// Greeting returns the personalized opening message. The user profile is
// best effort; a failed lookup falls back to the session's stored email.
func (b *Bot) Greeting(ctx context.Context, sessionID string) (GreetingReply, error) {
	access, err := b.resolve(ctx, sessionID)
	if err != nil {
		return GreetingReply{}, fmt.Errorf("resolving session failed: %w", err)
	}

	reply := GreetingReply{
		Greeting: greetingText,
		User:     &Profile{Email: access.UserEmail},
	}

	profile, err := b.profiler.Profile(ctx, access)
	if err != nil {
		log.Printf("profile lookup for session %s failed: %v", sessionID, err)
		return reply, nil
	}

	reply.User = &profile
	reply.Greeting = greetingFor(profile.Name)

	return reply, nil
}

func (b *Bot) resolve(ctx context.Context, sessionID string) (*session.Access, error) {
	access, err := b.resolver.Resolve(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, session.ErrSessionInvalid) {
			log.Printf("resolving session %s failed: %v", sessionID, err)
		}
		return nil, err
	}
	return access, nil
}

func resolveErrorKind(err error) ErrorKind {
	if errors.Is(err, session.ErrSessionInvalid) {
		return ErrorSessionInvalid
	}
	return ErrorInternal
}

func (b *Bot) state(sessionID string) *sessionState {
	b.mu.Lock()
	defer b.mu.Unlock()

	st, ok := b.sessions[sessionID]
	if !ok {
		st = &sessionState{}
		b.sessions[sessionID] = st
	}
	return st
}

// Forget drops the in-memory conversation state for a session, e.g. after
// logout.
func (b *Bot) Forget(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.sessions, sessionID)
}
