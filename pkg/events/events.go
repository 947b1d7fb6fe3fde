package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fedsearch/identity-gateway/pkg/logger"
	"github.com/nats-io/nats.go"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}

// Event subjects
const (
	UserRegistered  = "identity.user.registered"
	UserActivated   = "identity.user.activated"
	UserSignedIn    = "identity.user.signed_in"
	SearchPerformed = "search.performed"
)

// Event payloads
type UserRegisteredEvent struct {
	UserID           int64     `json:"user_id"`
	Email            string    `json:"email"`
	ActivationExpiry time.Time `json:"activation_expiry"`
	RegisteredAt     time.Time `json:"registered_at"`
}

type UserActivatedEvent struct {
	UserID      int64     `json:"user_id"`
	Email       string    `json:"email"`
	ActivatedAt time.Time `json:"activated_at"`
}

type UserSignedInEvent struct {
	UserID     int64     `json:"user_id"`
	Email      string    `json:"email"`
	SignedInAt time.Time `json:"signed_in_at"`
}

type SearchPerformedEvent struct {
	UserID      int64    `json:"user_id"`
	Query       string   `json:"query"`
	Platforms   []string `json:"platforms"`
	MaxResults  int      `json:"max_results"`
	ResultCount int32    `json:"result_count"`
}
