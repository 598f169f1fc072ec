package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"
	"time"

	"playearn/internal/logger"
	"playearn/internal/service"
	"playearn/internal/ws"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
)

// ws_smoke connects to the admin feed of a running server, checks the
// ready/ping/pong handshake and prints events until the duration elapses.
func main() {
	listen := flag.Duration("listen", 30*time.Second, "how long to print events")
	flag.Parse()

	_ = godotenv.Load()
	logger.Init("info", false)

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		logger.Fatal("JWT_SECRET not set")
	}
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	service.InitJWT(secret)
	token, err := service.GenerateJWT("ws-smoke", true)
	if err != nil {
		logger.Fatal("generate token", "error", err)
	}

	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	u := fmt.Sprintf("ws://127.0.0.1:%s/admin/ws?token=%s", port, url.QueryEscape(token))
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		logger.Fatal("dial", "error", err)
	}
	defer conn.Close()

	expect := func(want string) {
		_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		var msg ws.Message
		if err := conn.ReadJSON(&msg); err != nil {
			logger.Fatal("read", "want", want, "error", err)
		}
		if msg.Type != want {
			logger.Fatal("unexpected message", "want", want, "got", msg.Type)
		}
	}

	expect(ws.MsgReady)
	if err := conn.WriteJSON(ws.InboundMessage{Type: ws.MsgPing}); err != nil {
		logger.Fatal("write ping", "error", err)
	}
	expect(ws.MsgPong)
	logger.Info("handshake ok, listening", "for", listen.String())

	deadline := time.Now().Add(*listen)
	for time.Now().Before(deadline) {
		_ = conn.SetReadDeadline(deadline)
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var msg ws.Message
		if json.Unmarshal(raw, &msg) == nil && msg.Type == ws.MsgEvent {
			fmt.Println(string(raw))
		}
	}

	logger.Info("smoke test finished")
}
