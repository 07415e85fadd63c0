package stream

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	chatHandler "github.com/oncolens/assistant/internal/handler/chat"
	chatService "github.com/oncolens/assistant/internal/service/chat"
	"github.com/oncolens/assistant/pkg/utils"
)

var errStreamingUnsupported = errors.New("streaming unsupported")

// Handler delivers a single send/reply exchange over Server-Sent Events.
// The request context is the reply lifetime: a client that disconnects
// before the delay elapses cancels the reply.
type Handler struct {
	chatSvc *chatService.Service
	logger  *zap.Logger
}

// New creates a stream handler.
func New(chatSvc *chatService.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{chatSvc: chatSvc, logger: logger.Named("stream")}
}

// Event is the payload of each SSE frame.
type Event struct {
	SessionID string `json:"sessionId,omitempty"`
	MessageID string `json:"messageId,omitempty"`
	Content   string `json:"content,omitempty"`
	Finished  bool   `json:"finished,omitempty"`
	Error     string `json:"error,omitempty"`
}

// RegisterRoutes registers the stream route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream/{sessionID}", h.handleStream)
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	userMessage := r.URL.Query().Get("message")

	if err := h.HandleStreamRequest(r.Context(), w, sessionID, userMessage); err != nil {
		if errors.Is(err, errStreamingUnsupported) {
			utils.RespondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		h.logger.Debug("stream request ended with error", zap.String("session", sessionID), zap.Error(err))
	}
}

// HandleStreamRequest sends userMessage and streams the reply.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionID, userMessage string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return errStreamingUnsupported
	}

	userMsg, pending, err := h.chatSvc.SendBound(ctx, sessionID, userMessage)
	if err != nil {
		utils.RespondError(w, chatHandler.StatusFor(err), err.Error())
		return err
	}

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	utils.SendSSEEvent(w, flusher, "user", Event{
		SessionID: sessionID,
		MessageID: userMsg.ID,
		Content:   userMsg.Content,
	})

	reply, ok := pending.Wait(ctx)
	if !ok {
		if ctx.Err() != nil {
			h.logger.Debug("client left before reply", zap.String("session", sessionID))
			return ctx.Err()
		}
		utils.SendSSEEvent(w, flusher, "error", Event{SessionID: sessionID, Error: "reply cancelled"})
		return nil
	}

	utils.SendSSEEvent(w, flusher, "message", Event{
		SessionID: sessionID,
		MessageID: reply.ID,
		Content:   reply.Content,
	})
	utils.SendSSEEvent(w, flusher, "end", Event{SessionID: sessionID, Finished: true})

	h.logger.Debug("stream completed", zap.String("session", sessionID))
	return nil
}
