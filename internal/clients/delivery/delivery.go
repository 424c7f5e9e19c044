package delivery

import (
	"context"

	"github.com/google/uuid"
)

// Channel names the dispatcher routes on.
const (
	ChannelPush = "push"
	ChannelChat = "chat"
)

// Message is one rendered intervention headed to the user's device.
type Message struct {
	UserID     uuid.UUID         `json:"user_id"`
	ActionType string            `json:"action_type"`
	Title      string            `json:"title,omitempty"`
	Body       string            `json:"body"`
	Payload    map[string]string `json:"payload,omitempty"`
}

// Deliverer sends a message over one channel. Implementations must be
// safe for concurrent use.
type Deliverer interface {
	Channel() string
	Deliver(ctx context.Context, msg Message) error
}
