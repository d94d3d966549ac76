package repository

import (
	"context"

	"github.com/gdugdh24/introductions-backend/internal/domain"
	"github.com/google/uuid"
)

// Order is one sort term for FindMany.
type Order struct {
	Field Field
	Desc  bool
}

// ProfileRepository is the ProfileStore collaborator. FindMany sorts by
// order and breaks ties by insertion order (created_at, then id); with no
// order it returns matches in insertion order.
type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)
	Update(ctx context.Context, profile *domain.Profile) error
	FindMany(ctx context.Context, filter Filter, order []Order, skip, limit int) ([]*domain.Profile, error)
	Count(ctx context.Context, filter Filter) (int, error)
}
