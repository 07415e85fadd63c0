package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/oncolens/assistant/internal/model/chat"
	chatservice "github.com/oncolens/assistant/internal/service/chat"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

// Handler serves the chat widget over a WebSocket. The first connection on a
// session opens the widget and the last one to leave closes it, which cancels
// any reply still waiting on its delay.
type Handler struct {
	chatSvc  *chatservice.Service
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu       sync.Mutex
	attached map[string]int
}

// New creates a WebSocket handler.
func New(chatSvc *chatservice.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		chatSvc:  chatSvc,
		logger:   logger.Named("ws"),
		attached: make(map[string]int),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// attach registers a connection on the session and opens the widget. The
// widget state change happens under the same lock as the count so a closing
// connection cannot race a new one.
func (h *Handler) attach(ctx context.Context, sessionID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, err := h.chatSvc.SetWidgetOpen(ctx, sessionID, true); err != nil {
		return err
	}
	h.attached[sessionID]++
	return nil
}

// detach drops a connection and closes the widget once none remain.
func (h *Handler) detach(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.attached[sessionID]--
	if h.attached[sessionID] > 0 {
		return
	}
	delete(h.attached, sessionID)
	if _, err := h.chatSvc.SetWidgetOpen(context.Background(), sessionID, false); err != nil {
		h.logger.Debug("close widget failed", zap.String("session", sessionID), zap.Error(err))
	}
}

// RegisterRoutes registers the WebSocket route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
}

// TextMessage carries a user utterance.
type TextMessage struct {
	Text string `json:"text"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// connection serializes writes; gorilla connections allow one concurrent
// writer.
type connection struct {
	conn      *websocket.Conn
	sessionID string
	mu        sync.Mutex
	logger    *zap.Logger
}

func (c *connection) write(msg outgoingMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteJSON(msg); err != nil {
		c.logger.Debug("write failed", zap.String("session", c.sessionID), zap.Error(err))
	}
}

func (c *connection) sendResult(data map[string]any) {
	c.write(outgoingMessage{
		Type:      "result",
		SessionID: c.sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
}

func (c *connection) sendError(message string) {
	c.write(outgoingMessage{
		Type:      "error",
		SessionID: c.sessionID,
		Data:      map[string]string{"error": message},
		Timestamp: time.Now().Unix(),
	})
}

func (c *connection) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	raw, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", zap.Error(err))
		return
	}
	defer raw.Close()

	conn := &connection{conn: raw, sessionID: sessionID, logger: h.logger}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := h.attach(ctx, sessionID); err != nil {
		conn.sendError(err.Error())
		return
	}

	var replies sync.WaitGroup
	defer func() {
		cancel()
		replies.Wait()
		h.detach(sessionID)
		h.logger.Info("connection closed", zap.String("session", sessionID))
	}()

	h.logger.Info("connection opened", zap.String("session", sessionID), zap.Stringer("role", session.Role))

	_ = raw.SetReadDeadline(time.Now().Add(readTimeout))
	raw.SetPongHandler(func(string) error {
		return raw.SetReadDeadline(time.Now().Add(readTimeout))
	})

	go h.pingLoop(ctx, conn)

	transcript, _ := h.chatSvc.Transcript(ctx, sessionID)
	questions, _ := h.chatSvc.SampleQuestions(ctx, sessionID)
	conn.sendResult(map[string]any{
		"type":            "connected",
		"role":            session.Role,
		"messages":        transcript,
		"sampleQuestions": questions,
	})

	for {
		var msg inboundMessage
		if err := raw.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("read error", zap.String("session", sessionID), zap.Error(err))
			}
			return
		}

		_ = raw.SetReadDeadline(time.Now().Add(readTimeout))

		if msg.SessionID != "" && msg.SessionID != sessionID {
			conn.sendError("session mismatch")
			continue
		}

		switch msg.Type {
		case "text":
			h.handleTextMessage(ctx, conn, &replies, msg.Data)
		default:
			conn.sendError("unsupported message type: " + msg.Type)
		}
	}
}

func (h *Handler) handleTextMessage(ctx context.Context, conn *connection, replies *sync.WaitGroup, raw json.RawMessage) {
	var text TextMessage
	if err := json.Unmarshal(raw, &text); err != nil {
		conn.sendError("invalid text payload")
		return
	}

	userMsg, pending, err := h.chatSvc.SendBound(ctx, conn.sessionID, text.Text)
	if errors.Is(err, chatservice.ErrEmptyMessage) {
		return
	}
	if err != nil {
		conn.sendError(err.Error())
		return
	}

	conn.sendResult(messageFrame(userMsg))

	replies.Add(1)
	go func() {
		defer replies.Done()
		reply, ok := pending.Wait(ctx)
		if !ok {
			return
		}
		conn.sendResult(messageFrame(reply))
	}()
}

func messageFrame(msg chat.Message) map[string]any {
	return map[string]any{
		"type":    string(msg.Sender),
		"message": msg,
	}
}

func (h *Handler) pingLoop(ctx context.Context, conn *connection) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.ping(); err != nil {
				return
			}
		}
	}
}
