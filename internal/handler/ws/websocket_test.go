package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/oncolens/assistant/internal/model/chat"
	"github.com/oncolens/assistant/internal/model/role"
	chatservice "github.com/oncolens/assistant/internal/service/chat"
)

type frame struct {
	Type string `json:"type"`
	Data struct {
		Type            string         `json:"type"`
		Message         chat.Message   `json:"message"`
		Messages        []chat.Message `json:"messages"`
		SampleQuestions []string       `json:"sampleQuestions"`
	} `json:"data"`
}

func setup(t *testing.T, delay time.Duration) (*httptest.Server, *chatservice.Service) {
	t.Helper()
	srv, chatSvc, _ := setupHandler(t, delay)
	return srv, chatSvc
}

func setupHandler(t *testing.T, delay time.Duration) (*httptest.Server, *chatservice.Service, *Handler) {
	t.Helper()
	chatSvc := chatservice.NewService(role.NewMemoryStore(role.Seed()), chatservice.Config{ReplyDelay: delay}, nil)

	h := New(chatSvc, nil)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		srv.Close()
		chatSvc.Close()
	})
	return srv, chatSvc, h
}

func attachedCount(h *Handler, sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.attached[sessionID]
}

func waitAttached(t *testing.T, h *Handler, sessionID string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for attachedCount(h, sessionID) != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d attached connections, got %d", want, attachedCount(h, sessionID))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func dial(t *testing.T, srv *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial err: %v", err)
	}
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var f frame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read err: %v", err)
	}
	return f
}

func TestWebSocketConversation(t *testing.T) {
	srv, chatSvc := setup(t, 10*time.Millisecond)
	session, err := chatSvc.CreateSession(context.Background(), role.Patient)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	conn := dial(t, srv, session.ID)
	defer conn.Close()

	connected := readFrame(t, conn)
	if connected.Data.Type != "connected" {
		t.Fatalf("expected connected frame, got %q", connected.Data.Type)
	}
	if len(connected.Data.Messages) != 1 || len(connected.Data.SampleQuestions) != 4 {
		t.Fatalf("unexpected connected payload: %+v", connected.Data)
	}

	if err := conn.WriteJSON(map[string]any{
		"type": "text",
		"data": map[string]string{"text": "What do my survival statistics mean?"},
	}); err != nil {
		t.Fatalf("write err: %v", err)
	}

	user := readFrame(t, conn)
	if user.Data.Type != "user" || user.Data.Message.Content != "What do my survival statistics mean?" {
		t.Fatalf("unexpected user frame: %+v", user.Data)
	}

	reply := readFrame(t, conn)
	if reply.Data.Type != "assistant" {
		t.Fatalf("expected assistant frame, got %q", reply.Data.Type)
	}
	if !strings.Contains(reply.Data.Message.Content, "87%") {
		t.Fatalf("unexpected reply %q", reply.Data.Message.Content)
	}
}

func TestWebSocketUnsupportedType(t *testing.T) {
	srv, chatSvc := setup(t, 0)
	session, err := chatSvc.CreateSession(context.Background(), role.Professional)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	conn := dial(t, srv, session.ID)
	defer conn.Close()
	readFrame(t, conn)

	if err := conn.WriteJSON(map[string]any{"type": "audio"}); err != nil {
		t.Fatalf("write err: %v", err)
	}
	if f := readFrame(t, conn); f.Type != "error" {
		t.Fatalf("expected error frame, got %q", f.Type)
	}
}

func TestWebSocketDisconnectClosesWidgetAndCancelsReply(t *testing.T) {
	srv, chatSvc := setup(t, time.Hour)
	ctx := context.Background()
	session, err := chatSvc.CreateSession(ctx, role.Patient)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	conn := dial(t, srv, session.ID)
	readFrame(t, conn)

	if err := conn.WriteJSON(map[string]any{
		"type": "text",
		"data": map[string]string{"text": "side effects"},
	}); err != nil {
		t.Fatalf("write err: %v", err)
	}
	readFrame(t, conn)
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for {
		got, err := chatSvc.GetSession(ctx, session.ID)
		if err != nil {
			t.Fatalf("GetSession err: %v", err)
		}
		if !got.WidgetOpen {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("widget still open after disconnect")
		}
		time.Sleep(5 * time.Millisecond)
	}

	messages, err := chatSvc.Transcript(ctx, session.ID)
	if err != nil {
		t.Fatalf("Transcript err: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected no reply after disconnect, got %d messages", len(messages))
	}
}

func TestWebSocketWidgetStaysOpenWhileAnotherConnectionRemains(t *testing.T) {
	srv, chatSvc, h := setupHandler(t, 5*time.Millisecond)
	ctx := context.Background()
	session, err := chatSvc.CreateSession(ctx, role.Patient)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	first := dial(t, srv, session.ID)
	defer first.Close()
	readFrame(t, first)

	second := dial(t, srv, session.ID)
	readFrame(t, second)
	waitAttached(t, h, session.ID, 2)

	second.Close()
	waitAttached(t, h, session.ID, 1)

	got, err := chatSvc.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession err: %v", err)
	}
	if !got.WidgetOpen {
		t.Fatal("widget closed while a connection is still attached")
	}

	if err := first.WriteJSON(map[string]any{
		"type": "text",
		"data": map[string]string{"text": "survival"},
	}); err != nil {
		t.Fatalf("write err: %v", err)
	}
	if user := readFrame(t, first); user.Type != "result" || user.Data.Type != "user" {
		t.Fatalf("expected user frame, got %+v", user)
	}
	reply := readFrame(t, first)
	if reply.Data.Type != "assistant" || !strings.Contains(reply.Data.Message.Content, "87%") {
		t.Fatalf("unexpected reply frame: %+v", reply.Data)
	}

	first.Close()
	waitAttached(t, h, session.ID, 0)

	got, err = chatSvc.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession err: %v", err)
	}
	if got.WidgetOpen {
		t.Fatal("widget still open after the last connection left")
	}
}

func TestWebSocketUnknownSession(t *testing.T) {
	srv, _ := setup(t, 0)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/missing"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 response, got %v", resp)
	}
}
