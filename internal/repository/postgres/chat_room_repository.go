package postgres

import (
	"context"

	"github.com/gdugdh24/introductions-backend/internal/gateway"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type chatRoomRepository struct {
	db *sqlx.DB
}

// NewChatRoomRepository stores chat rooms next to the requests that opened
// them. One room per request.
func NewChatRoomRepository(db *sqlx.DB) gateway.ChatGateway {
	return &chatRoomRepository{db: db}
}

func (r *chatRoomRepository) CreateRoom(ctx context.Context, room *gateway.ChatRoom) (uuid.UUID, error) {
	if room.ID == uuid.Nil {
		room.ID = uuid.New()
	}
	participants := make([]string, len(room.ParticipantIDs))
	for i, id := range room.ParticipantIDs {
		participants[i] = id.String()
	}

	// The no-op update makes RETURNING yield the existing id on conflict.
	query := `
		INSERT INTO chat_rooms (id, request_id, participant_ids, explanation, icebreakers)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (request_id) DO UPDATE SET request_id = EXCLUDED.request_id
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		room.ID, room.RequestID, pq.Array(participants), room.Explanation, pq.Array(room.Icebreakers),
	).Scan(&room.ID, &room.CreatedAt)
	if err != nil {
		return uuid.Nil, err
	}
	return room.ID, nil
}
