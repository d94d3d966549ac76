package notify

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/gdugdh24/introductions-backend/internal/domain"
	"github.com/gdugdh24/introductions-backend/internal/gateway"
	"github.com/gdugdh24/introductions-backend/internal/infrastructure/logging"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func testClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("ping redis: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func notification() *gateway.Notification {
	return &gateway.Notification{
		ID:          uuid.New(),
		RecipientID: uuid.New(),
		Kind:        domain.NotifyRequestReceived,
		Payload:     map[string]any{"request_id": uuid.NewString()},
		CreatedAt:   time.Now().UTC(),
	}
}

func TestRedisNotifierInboxAndChannel(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()
	n := NewRedisNotifier(client, logging.Discard())

	sub := client.Subscribe(ctx, Channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatal(err)
	}

	msg := notification()
	key := InboxKey(msg.RecipientID.String())
	t.Cleanup(func() { client.Del(context.Background(), key) })
	if err := n.Notify(ctx, msg); err != nil {
		t.Fatal(err)
	}

	raw, err := client.LIndex(ctx, key, 0).Result()
	if err != nil {
		t.Fatal(err)
	}
	var got gateway.Notification
	if err := json.Unmarshal([]byte(raw), &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != msg.ID || got.Kind != msg.Kind {
		t.Errorf("inbox = %+v", got)
	}

	select {
	case m := <-sub.Channel():
		if m.Payload != raw {
			t.Errorf("published %q, stored %q", m.Payload, raw)
		}
	case <-time.After(2 * time.Second):
		t.Error("nothing published")
	}
}

func TestRedisNotifierCapsInbox(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()
	n := NewRedisNotifier(client, logging.Discard())

	msg := notification()
	key := InboxKey(msg.RecipientID.String())
	t.Cleanup(func() { client.Del(context.Background(), key) })
	for i := 0; i < inboxSize+5; i++ {
		if err := n.Notify(ctx, msg); err != nil {
			t.Fatal(err)
		}
	}
	if size := client.LLen(ctx, key).Val(); size != inboxSize {
		t.Errorf("inbox size = %d", size)
	}
}

func TestRedisNotifierGuardianInbox(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()
	n := NewRedisNotifier(client, logging.Discard())

	msg := notification()
	key := GuardianInboxKey(msg.RecipientID.String())
	t.Cleanup(func() { client.Del(context.Background(), key) })
	guardian := domain.GuardianContact{Name: "Father", Relationship: "father", Phone: "0700"}
	if err := n.NotifyGuardian(ctx, guardian, msg); err != nil {
		t.Fatal(err)
	}

	var got envelope
	raw := client.LIndex(ctx, key, 0).Val()
	if err := json.Unmarshal([]byte(raw), &got); err != nil {
		t.Fatal(err)
	}
	if got.Guardian == nil || got.Guardian.Phone != "0700" {
		t.Errorf("envelope = %s", raw)
	}
}

func TestLogNotifier(t *testing.T) {
	n := NewLogNotifier(logging.Discard())
	if err := n.Notify(context.Background(), notification()); err != nil {
		t.Error(err)
	}
	if err := n.NotifyGuardian(context.Background(), domain.GuardianContact{}, notification()); err != nil {
		t.Error(err)
	}
}
