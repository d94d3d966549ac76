// Package usecase holds helpers shared by the application services.
package usecase

import (
	"context"

	"github.com/gdugdh24/introductions-backend/internal/domain"
	"github.com/gdugdh24/introductions-backend/internal/repository"
	"github.com/google/uuid"
)

// ActorProfile loads the caller's own profile. A profile id asserted by the
// token must belong to the token's user. Soft-deleted profiles cannot act.
// A verified token raises the profile's verified flag for this call only.
func ActorProfile(ctx context.Context, profiles repository.ProfileRepository, actor domain.Actor) (*domain.Profile, error) {
	var (
		p   *domain.Profile
		err error
	)
	if actor.ProfileID != uuid.Nil {
		p, err = profiles.GetByID(ctx, actor.ProfileID)
	} else {
		p, err = profiles.GetByUserID(ctx, actor.UserID)
	}
	if err != nil {
		return nil, err
	}
	if p.UserID != actor.UserID {
		return nil, domain.ErrForbidden
	}
	if p.IsDeleted {
		return nil, domain.ErrProfileNotFound
	}
	if actor.Verified {
		p.IsVerified = true
	}
	return p, nil
}
