package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oncolens/assistant/internal/analysis/response"
	"github.com/oncolens/assistant/internal/model/chat"
	"github.com/oncolens/assistant/internal/model/role"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrEmptyMessage    = errors.New("message is empty")
	ErrWidgetClosed    = errors.New("chat widget is closed")
	ErrServiceClosed   = errors.New("chat service is closed")
)

// Responder produces the assistant reply for a user message.
type Responder interface {
	Respond(ctx context.Context, r role.Role, history []chat.Message, text string) (string, error)
}

// RuleResponder answers with the canned keyword tables.
type RuleResponder struct{}

// Respond implements Responder.
func (RuleResponder) Respond(_ context.Context, r role.Role, _ []chat.Message, text string) (string, error) {
	return response.Select(text, r), nil
}

// Config controls reply scheduling.
type Config struct {
	ReplyDelay time.Duration
	Responder  Responder
}

type conversation struct {
	session  chat.Session
	messages []chat.Message
	// lifetime is cancelled when the widget closes; pending replies bound to
	// it are dropped.
	lifetime context.Context
	cancel   context.CancelFunc
	// tail is the most recently scheduled reply; the next reply appends
	// only after it settles.
	tail *PendingReply
}

// Service encapsulates conversation state and delayed assistant replies.
type Service struct {
	mu            sync.RWMutex
	conversations map[string]*conversation
	closed        bool

	roles     role.Store
	responder Responder
	delay     time.Duration
	logger    *zap.Logger

	root context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup
}

// NewService bootstraps the in-memory chat service.
func NewService(roles role.Store, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	responder := cfg.Responder
	if responder == nil {
		responder = RuleResponder{}
	}
	delay := cfg.ReplyDelay
	if delay < 0 {
		delay = 0
	}

	root, stop := context.WithCancel(context.Background())
	return &Service{
		conversations: make(map[string]*conversation),
		roles:         roles,
		responder:     responder,
		delay:         delay,
		logger:        logger.Named("chat"),
		root:          root,
		stop:          stop,
	}
}

// CreateSession provisions an anonymous session bound to a role. The
// transcript starts with the role greeting and the widget open.
func (s *Service) CreateSession(_ context.Context, r role.Role) (chat.Session, error) {
	if !r.Valid() {
		return chat.Session{}, fmt.Errorf("%w: %d", role.ErrUnknownRole, int(r))
	}
	profile, ok := s.roles.Find(r)
	if !ok {
		return chat.Session{}, fmt.Errorf("no profile for role %s: %w", r, role.ErrUnknownRole)
	}

	now := time.Now().UTC()
	session := chat.Session{
		ID:         uuid.NewString(),
		Role:       r,
		WidgetOpen: true,
		CreatedAt:  now,
	}
	greeting := chat.Message{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		Sender:    chat.SenderAssistant,
		Content:   profile.Greeting,
		CreatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return chat.Session{}, ErrServiceClosed
	}

	lifetime, cancel := context.WithCancel(s.root)
	messages := make([]chat.Message, 0, 16)
	s.conversations[session.ID] = &conversation{
		session:  session,
		messages: append(messages, greeting),
		lifetime: lifetime,
		cancel:   cancel,
	}

	s.logger.Debug("session created", zap.String("session", session.ID), zap.Stringer("role", r))
	return session, nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	return conv.session, nil
}

// Transcript returns the stored messages in insertion order.
func (s *Service) Transcript(_ context.Context, sessionID string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := make([]chat.Message, len(conv.messages))
	copy(copied, conv.messages)
	return copied, nil
}

// SampleQuestions returns the role's suggested questions while the
// conversation holds only the greeting, and nil afterwards.
func (s *Service) SampleQuestions(_ context.Context, sessionID string) ([]string, error) {
	s.mu.RLock()
	conv, ok := s.conversations[sessionID]
	if !ok {
		s.mu.RUnlock()
		return nil, ErrSessionNotFound
	}
	r := conv.session.Role
	fresh := len(conv.messages) == 1
	s.mu.RUnlock()

	if !fresh {
		return nil, nil
	}
	profile, ok := s.roles.Find(r)
	if !ok {
		return nil, nil
	}
	return profile.SampleQuestions, nil
}

// SetWidgetOpen toggles the widget. Closing cancels every pending reply of
// the session; reopening starts a fresh lifetime.
func (s *Service) SetWidgetOpen(_ context.Context, sessionID string, open bool) (chat.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	if conv.session.WidgetOpen == open {
		return conv.session, nil
	}

	if open {
		if s.closed {
			return chat.Session{}, ErrServiceClosed
		}
		conv.lifetime, conv.cancel = context.WithCancel(s.root)
	} else {
		conv.cancel()
	}
	conv.session.WidgetOpen = open

	s.logger.Debug("widget toggled", zap.String("session", sessionID), zap.Bool("open", open))
	return conv.session, nil
}

// Send appends a user message and schedules one assistant reply after the
// configured delay. Whitespace-only text leaves the conversation untouched.
// The reply lives as long as the widget stays open.
func (s *Service) Send(_ context.Context, sessionID, text string) (chat.Message, *PendingReply, error) {
	return s.send(sessionID, text, nil)
}

// SendBound is Send with the reply additionally cancelled when bound ends.
// Transports whose connection is the widget use it to tie the reply to the
// connection.
func (s *Service) SendBound(bound context.Context, sessionID, text string) (chat.Message, *PendingReply, error) {
	return s.send(sessionID, text, bound)
}

func (s *Service) send(sessionID, text string, bound context.Context) (chat.Message, *PendingReply, error) {
	if strings.TrimSpace(text) == "" {
		return chat.Message{}, nil, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return chat.Message{}, nil, ErrServiceClosed
	}
	conv, ok := s.conversations[sessionID]
	if !ok {
		s.mu.Unlock()
		return chat.Message{}, nil, ErrSessionNotFound
	}
	if !conv.session.WidgetOpen {
		s.mu.Unlock()
		return chat.Message{}, nil, ErrWidgetClosed
	}

	history := make([]chat.Message, len(conv.messages))
	copy(history, conv.messages)

	userMsg := chat.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Sender:    chat.SenderUser,
		Content:   text,
		CreatedAt: time.Now().UTC(),
	}
	conv.messages = append(conv.messages, userMsg)

	lifetime, cancel := context.WithCancel(conv.lifetime)
	pending := newPendingReply()
	prev := conv.tail
	conv.tail = pending
	task := replyTask{
		conv:     conv,
		lifetime: lifetime,
		cancel:   cancel,
		bound:    bound,
		role:     conv.session.Role,
		history:  history,
		text:     text,
		prev:     prev,
		pending:  pending,
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go s.runReply(task)
	return userMsg, pending, nil
}

// Close cancels every pending reply and waits for reply tasks to exit.
func (s *Service) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.wg.Wait()
		return
	}
	s.closed = true
	s.stop()
	s.mu.Unlock()

	s.wg.Wait()
}
