// Package notify publishes user notifications to Redis pub/sub channels.
// Delivery to the user is handled by a separate notification subsystem.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// Type identifies the kind of notification.
type Type string

const (
	TypeRefundIssued   Type = "refund_issued"
	TypeRefundPending  Type = "refund_pending"
	TypeCreditsAwarded Type = "credits_awarded"
	TypeRequestClosed  Type = "request_closed"
)

// Notification is a message addressed to one user.
type Notification struct {
	UserID    uuid.UUID      `json:"userId"`
	Type      Type           `json:"type"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Publisher sends notifications over Redis pub/sub.
type Publisher struct {
	client  rueidis.Client
	channel string
	logger  *zap.Logger
}

// NewPublisher creates a Publisher that publishes on channel prefix:userID.
func NewPublisher(client rueidis.Client, channel string, logger *zap.Logger) *Publisher {
	return &Publisher{
		client:  client,
		channel: channel,
		logger:  logger.Named("notify"),
	}
}

// Channel returns the channel a user's notifications are published on.
func (p *Publisher) Channel(userID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", p.channel, userID)
}

// Send publishes a notification. Publishing with no subscriber is not an error.
func (p *Publisher) Send(ctx context.Context, n *Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	payload, err := sonic.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	receivers, err := p.client.Do(ctx,
		p.client.B().Publish().Channel(p.Channel(n.UserID)).Message(string(payload)).Build(),
	).AsInt64()
	if err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	p.logger.Debug("Published notification",
		zap.String("userID", n.UserID.String()),
		zap.String("type", string(n.Type)),
		zap.Int64("receivers", receivers))

	return nil
}
