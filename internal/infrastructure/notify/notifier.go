package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/gdugdh24/introductions-backend/internal/domain"
	"github.com/gdugdh24/introductions-backend/internal/gateway"
	"github.com/redis/go-redis/v9"
)

const (
	// Channel carries every notification for live delivery.
	Channel = "notifications"
	// inboxSize caps the per-user backlog.
	inboxSize = 200
)

func InboxKey(recipient string) string {
	return "notifications:" + recipient
}

// GuardianInboxKey addresses a guardian by the user they look after.
func GuardianInboxKey(ward string) string {
	return "notifications:guardian:" + ward
}

type envelope struct {
	*gateway.Notification
	Guardian *domain.GuardianContact `json:"guardian,omitempty"`
}

// RedisNotifier keeps a capped inbox list per user and publishes each
// notification on Channel for connected clients.
type RedisNotifier struct {
	client redis.UniversalClient
	logger *slog.Logger
}

func NewRedisNotifier(client redis.UniversalClient, logger *slog.Logger) *RedisNotifier {
	return &RedisNotifier{client: client, logger: logger}
}

func (n *RedisNotifier) Notify(ctx context.Context, msg *gateway.Notification) error {
	return n.push(ctx, InboxKey(msg.RecipientID.String()), envelope{Notification: msg})
}

func (n *RedisNotifier) NotifyGuardian(ctx context.Context, guardian domain.GuardianContact, msg *gateway.Notification) error {
	return n.push(ctx, GuardianInboxKey(msg.RecipientID.String()), envelope{Notification: msg, Guardian: &guardian})
}

func (n *RedisNotifier) push(ctx context.Context, key string, env envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}
	pipe := n.client.TxPipeline()
	pipe.LPush(ctx, key, body)
	pipe.LTrim(ctx, key, 0, inboxSize-1)
	pipe.Publish(ctx, Channel, body)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("push notification: %w", err)
	}
	n.logger.Debug("notification queued", "key", key, "kind", env.Kind)
	return nil
}

// LogNotifier writes notifications to the log. Used when Redis is not
// configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, msg *gateway.Notification) error {
	n.logger.Info("notification",
		"recipient_id", msg.RecipientID,
		"kind", msg.Kind,
		"payload", msg.Payload,
	)
	return nil
}

func (n *LogNotifier) NotifyGuardian(ctx context.Context, guardian domain.GuardianContact, msg *gateway.Notification) error {
	n.logger.Info("guardian notification",
		"ward_id", msg.RecipientID,
		"relationship", guardian.Relationship,
		"kind", msg.Kind,
	)
	return nil
}
