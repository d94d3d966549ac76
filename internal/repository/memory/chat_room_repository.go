package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/gdugdh24/introductions-backend/internal/gateway"
	"github.com/google/uuid"
)

// ChatRoomRepository keeps chat rooms in process, keyed by request.
type ChatRoomRepository struct {
	mu    sync.Mutex
	rooms map[uuid.UUID]gateway.ChatRoom
}

func NewChatRoomRepository() *ChatRoomRepository {
	return &ChatRoomRepository{rooms: make(map[uuid.UUID]gateway.ChatRoom)}
}

func (r *ChatRoomRepository) CreateRoom(ctx context.Context, room *gateway.ChatRoom) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.rooms[room.RequestID]; ok {
		return existing.ID, nil
	}
	if room.ID == uuid.Nil {
		room.ID = uuid.New()
	}
	room.CreatedAt = time.Now()
	stored := *room
	stored.ParticipantIDs = slices.Clone(room.ParticipantIDs)
	stored.Icebreakers = slices.Clone(room.Icebreakers)
	r.rooms[room.RequestID] = stored
	return room.ID, nil
}

// RoomForRequest returns the room opened by requestID, if any.
func (r *ChatRoomRepository) RoomForRequest(requestID uuid.UUID) (gateway.ChatRoom, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[requestID]
	return room, ok
}
