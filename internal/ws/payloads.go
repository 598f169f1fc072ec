package ws

import (
	"time"

	"playearn/internal/domain"
)

// client → server
type InboundMessage struct {
	Type string `json:"type"`
}

// server → client
type Message struct {
	Type string    `json:"type"`
	At   time.Time `json:"at"`
	Data any       `json:"data,omitempty"`
}

type EventPayload struct {
	Event      string             `json:"event"`
	UserID     string             `json:"user_id"`
	Withdrawal *domain.Withdrawal `json:"withdrawal,omitempty"`
	Amount     string             `json:"amount,omitempty"`
	Flag       *domain.FraudFlag  `json:"flag,omitempty"`
}
