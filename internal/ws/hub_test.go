package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"playearn/internal/domain"
	"playearn/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func newServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	service.InitJWT("ws-test")

	r := gin.New()
	r.GET("/admin/ws", HandleWS(hub, ""))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server, token string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/admin/ws?token=" + token
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, b, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return m
}

func TestAdminFeedReceivesEvents(t *testing.T) {
	hub := NewHub()
	srv := newServer(t, hub)

	token, _ := service.GenerateJWT("admin-1", true)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, token), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if m := readMessage(t, conn); m.Type != MsgReady {
		t.Fatalf("expected ready, got %s", m.Type)
	}

	hub.Notify(context.Background(), domain.AdminEvent{
		Type:   domain.EventWithdrawalRequested,
		UserID: "u1",
		Withdrawal: &domain.Withdrawal{
			ID: "w1", UserID: "u1", AmountCents: 1250, Status: domain.WithdrawalPending,
		},
		At: time.Now().UTC(),
	})

	m := readMessage(t, conn)
	if m.Type != MsgEvent {
		t.Fatalf("expected event, got %s", m.Type)
	}
	data, _ := m.Data.(map[string]any)
	if data["event"] != domain.EventWithdrawalRequested || data["amount"] != "12.50" {
		t.Fatalf("unexpected payload %+v", m.Data)
	}

	if err := conn.WriteJSON(InboundMessage{Type: MsgPing}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if m := readMessage(t, conn); m.Type != MsgPong {
		t.Fatalf("expected pong, got %s", m.Type)
	}
}

func TestAdminFeedRejectsNonAdmins(t *testing.T) {
	hub := NewHub()
	srv := newServer(t, hub)

	token, _ := service.GenerateJWT("u1", false)
	_, res, err := websocket.DefaultDialer.Dial(wsURL(srv, token), nil)
	if err == nil {
		t.Fatalf("expected handshake failure")
	}
	if res == nil || res.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %+v", res)
	}

	_, res, _ = websocket.DefaultDialer.Dial(wsURL(srv, "bad"), nil)
	if res == nil || res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %+v", res)
	}
	if hub.Count() != 0 {
		t.Fatalf("no client should be registered")
	}
}
