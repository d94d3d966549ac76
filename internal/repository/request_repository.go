package repository

import (
	"context"
	"time"

	"github.com/gdugdh24/introductions-backend/internal/domain"
	"github.com/google/uuid"
)

type Direction string

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

// RequestListQuery lists one party's side of its requests. Requests that
// party has hidden are skipped unless IncludeHidden is set.
type RequestListQuery struct {
	ProfileID     uuid.UUID
	Direction     Direction
	Status        domain.RequestStatus
	IncludeHidden bool
	Limit         int
	Offset        int
}

// RequestRepository is the RequestStore collaborator.
//
// Create must reject a second active request for the same ordered pair with
// domain.ErrDuplicateActiveRequest even under concurrent calls. Update
// applies only when the stored version equals request.Version, bumps the
// version on success and returns domain.ErrConcurrentUpdate otherwise.
type RequestRepository interface {
	Create(ctx context.Context, request *domain.IntroductionRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.IntroductionRequest, error)
	FindActivePair(ctx context.Context, senderID, receiverID uuid.UUID) (*domain.IntroductionRequest, error)
	Update(ctx context.Context, request *domain.IntroductionRequest) error
	List(ctx context.Context, query RequestListQuery) ([]*domain.IntroductionRequest, int, error)
	// UpdateManyExpired expires up to limit pending requests whose
	// expires_at is before now and returns how many it changed.
	UpdateManyExpired(ctx context.Context, now time.Time, limit int) (int, error)
}
