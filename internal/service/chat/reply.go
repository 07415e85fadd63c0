package chat

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oncolens/assistant/internal/analysis/response"
	"github.com/oncolens/assistant/internal/model/chat"
	"github.com/oncolens/assistant/internal/model/role"
)

// PendingReply tracks one scheduled assistant reply.
type PendingReply struct {
	done chan struct{}
	msg  chat.Message
	ok   bool
}

func newPendingReply() *PendingReply {
	return &PendingReply{done: make(chan struct{})}
}

// Done is closed once the reply was appended or cancelled.
func (p *PendingReply) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the reply settles or ctx ends. The boolean is false when
// the reply was cancelled or ctx ended first.
func (p *PendingReply) Wait(ctx context.Context) (chat.Message, bool) {
	select {
	case <-p.done:
		return p.msg, p.ok
	case <-ctx.Done():
		return chat.Message{}, false
	}
}

type replyTask struct {
	conv     *conversation
	lifetime context.Context
	cancel   context.CancelFunc
	bound    context.Context
	role     role.Role
	history  []chat.Message
	text     string
	prev     *PendingReply
	pending  *PendingReply
}

func (s *Service) runReply(task replyTask) {
	defer s.wg.Done()
	defer close(task.pending.done)
	defer task.cancel()

	if task.bound != nil {
		stop := context.AfterFunc(task.bound, task.cancel)
		defer stop()
	}

	sessionID := task.conv.session.ID

	timer := time.NewTimer(s.delay)
	defer timer.Stop()

	select {
	case <-task.lifetime.Done():
		s.logger.Debug("reply cancelled before delay elapsed", zap.String("session", sessionID))
		return
	case <-timer.C:
	}

	content, err := s.responder.Respond(task.lifetime, task.role, task.history, task.text)
	if err != nil {
		if task.lifetime.Err() != nil {
			s.logger.Debug("reply cancelled during generation", zap.String("session", sessionID))
			return
		}
		s.logger.Warn("responder failed, using keyword reply", zap.String("session", sessionID), zap.Error(err))
		content = response.Select(task.text, task.role)
	}

	// Replies land in send order.
	if task.prev != nil {
		select {
		case <-task.prev.done:
		case <-task.lifetime.Done():
			s.logger.Debug("reply cancelled while queued", zap.String("session", sessionID))
			return
		}
	}

	s.mu.Lock()
	if task.lifetime.Err() != nil {
		s.mu.Unlock()
		s.logger.Debug("reply dropped after widget closed", zap.String("session", sessionID))
		return
	}
	msg := chat.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Sender:    chat.SenderAssistant,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	task.conv.messages = append(task.conv.messages, msg)
	s.mu.Unlock()

	task.pending.msg = msg
	task.pending.ok = true
}
