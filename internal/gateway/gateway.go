// Package gateway holds the outbound collaborators a request transition
// talks to after it commits, and the dispatcher that drives them.
package gateway

import (
	"context"
	"time"

	"github.com/gdugdh24/introductions-backend/internal/domain"
	"github.com/google/uuid"
)

type ChatRoom struct {
	ID             uuid.UUID   `json:"id" db:"id"`
	RequestID      uuid.UUID   `json:"request_id" db:"request_id"`
	ParticipantIDs []uuid.UUID `json:"participant_ids" db:"-"`
	Explanation    string      `json:"explanation" db:"explanation"`
	Icebreakers    []string    `json:"icebreakers" db:"-"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
}

// ChatGateway creates the conversation opened by an accepted request.
// CreateRoom is idempotent per request and returns the id of the room that
// ends up stored.
type ChatGateway interface {
	CreateRoom(ctx context.Context, room *ChatRoom) (uuid.UUID, error)
}

type Notification struct {
	ID          uuid.UUID               `json:"id"`
	RecipientID uuid.UUID               `json:"recipient_id"`
	Kind        domain.NotificationKind `json:"kind"`
	Payload     map[string]any          `json:"payload"`
	CreatedAt   time.Time               `json:"created_at"`
}

// NotificationGateway delivers a notification to a user account.
type NotificationGateway interface {
	Notify(ctx context.Context, n *Notification) error
	// NotifyGuardian reaches a guardian who has no account.
	NotifyGuardian(ctx context.Context, guardian domain.GuardianContact, n *Notification) error
}

// Enricher adds optional generated text to accepted introductions.
type Enricher interface {
	ExplainIntroduction(ctx context.Context, a, b *domain.Profile) (string, error)
	GenerateIcebreakers(ctx context.Context, a, b *domain.Profile) ([]string, error)
}
