package introduction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gdugdh24/introductions-backend/internal/domain"
	"github.com/gdugdh24/introductions-backend/internal/repository"
	"github.com/gdugdh24/introductions-backend/internal/usecase"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// EffectDispatcher runs the side effects of a committed transition without
// making the caller wait for them.
type EffectDispatcher interface {
	Dispatch(ctx context.Context, effects []domain.Effect)
}

type Config struct {
	RequestTTL time.Duration
	// GuardianEnforce blocks accept while a required guardian approval is
	// still outstanding. Off by default: approval is recorded, not enforced.
	GuardianEnforce bool
	DefaultPageSize int
	MaxPageSize     int
}

type IntroductionUseCase struct {
	profileRepo repository.ProfileRepository
	requestRepo repository.RequestRepository
	effects     EffectDispatcher
	validate    *validator.Validate
	cfg         Config
	logger      *slog.Logger
	now         func() time.Time
}

func NewIntroductionUseCase(
	profileRepo repository.ProfileRepository,
	requestRepo repository.RequestRepository,
	effects EffectDispatcher,
	cfg Config,
	logger *slog.Logger,
) *IntroductionUseCase {
	if cfg.RequestTTL <= 0 {
		cfg.RequestTTL = domain.DefaultRequestTTL
	}
	return &IntroductionUseCase{
		profileRepo: profileRepo,
		requestRepo: requestRepo,
		effects:     effects,
		validate:    usecase.NewValidator(),
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
	}
}

// WithClock replaces the time source. Tests only.
func (uc *IntroductionUseCase) WithClock(now func() time.Time) *IntroductionUseCase {
	uc.now = now
	return uc
}

type SendRequest struct {
	ReceiverID string `json:"receiver_id" binding:"required,uuid"`
	Message    string `json:"message" binding:"max=1000"`
}

type ContactInput struct {
	Phone         string `json:"phone" binding:"omitempty,max=30"`
	Email         string `json:"email" binding:"omitempty,email"`
	PreferredTime string `json:"preferred_time" binding:"omitempty,max=100"`
}

type AcceptRequest struct {
	Message string       `json:"message" binding:"max=1000"`
	Contact ContactInput `json:"contact"`
}

type RejectRequest struct {
	Reason  string `json:"reason" binding:"omitempty,oneof=interested not_compatible not_ready already_engaged other"`
	Message string `json:"message" binding:"max=1000"`
}

type ArrangeMeetingRequest struct {
	Date     time.Time `json:"date" binding:"required"`
	Location string    `json:"location" binding:"required,max=200"`
}

type RespondMeetingRequest struct {
	Confirm *bool `json:"confirm" binding:"required"`
}

type GuardianDecisionRequest struct {
	Approved *bool  `json:"approved" binding:"required"`
	Notes    string `json:"notes" binding:"max=500"`
}

type ListQuery struct {
	Status   string `form:"status" binding:"omitempty,oneof=pending accepted rejected cancelled expired"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1"`
}

type RequestPage struct {
	Items    []*domain.IntroductionRequest `json:"items"`
	Total    int                           `json:"total"`
	Page     int                           `json:"page"`
	PageSize int                           `json:"page_size"`
}

// SendRequest proposes an introduction from the caller to the receiver.
func (uc *IntroductionUseCase) SendRequest(ctx context.Context, actor domain.Actor, req *SendRequest) (*domain.IntroductionRequest, error) {
	if err := usecase.Validate(uc.validate, req); err != nil {
		return nil, err
	}
	receiverID := uuid.MustParse(req.ReceiverID)

	sender, err := usecase.ActorProfile(ctx, uc.profileRepo, actor)
	if err != nil {
		return nil, err
	}
	receiver, err := uc.profileRepo.GetByID(ctx, receiverID)
	if err != nil {
		return nil, err
	}

	request, effects, err := domain.NewIntroductionRequest(sender, receiver, req.Message, uc.now(), uc.cfg.RequestTTL)
	if err != nil {
		return nil, err
	}

	// Fast path only; Create is what actually holds the rule under races.
	if _, err := uc.requestRepo.FindActivePair(ctx, sender.ID, receiver.ID); err == nil {
		return nil, domain.ErrDuplicateActiveRequest
	} else if !errors.Is(err, domain.ErrRequestNotFound) {
		return nil, fmt.Errorf("find active pair: %w", err)
	}

	if err := uc.requestRepo.Create(ctx, request); err != nil {
		return nil, err
	}
	uc.effects.Dispatch(ctx, effects)

	uc.logger.Info("introduction request sent",
		"request_id", request.ID,
		"sender_id", sender.ID,
		"receiver_id", receiver.ID,
		"guardian_required", request.GuardianApproval.IsRequired,
	)
	return request, nil
}

// GetRequest returns a request to one of its parties, or to an admin. The
// receiver's first look at a pending request marks it read.
func (uc *IntroductionUseCase) GetRequest(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.IntroductionRequest, error) {
	request, err := uc.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.IsAdmin() {
		return request, nil
	}

	profile, err := usecase.ActorProfile(ctx, uc.profileRepo, actor)
	if err != nil {
		return nil, err
	}
	if !request.IsParty(profile.ID) || request.HiddenFor(profile.ID) {
		return nil, domain.ErrRequestNotFound
	}

	if profile.ID == request.ReceiverID && request.Status == domain.StatusPending && !request.IsRead {
		if _, err := request.MarkRead(profile.ID, uc.now()); err == nil {
			if err := uc.requestRepo.Update(ctx, request); err != nil {
				uc.logger.Warn("mark read on view failed", "request_id", id, "error", err)
			}
		}
	}
	return request, nil
}

func (uc *IntroductionUseCase) AcceptRequest(ctx context.Context, actor domain.Actor, id uuid.UUID, req *AcceptRequest) (*domain.IntroductionRequest, error) {
	if err := usecase.Validate(uc.validate, req); err != nil {
		return nil, err
	}
	contact := domain.ContactInfo{
		Phone:         req.Contact.Phone,
		Email:         req.Contact.Email,
		PreferredTime: req.Contact.PreferredTime,
	}
	return uc.transition(ctx, actor, id, domain.ActionAccept,
		func(p *domain.Profile, r *domain.IntroductionRequest, now time.Time) ([]domain.Effect, error) {
			if uc.cfg.GuardianEnforce && r.Status == domain.StatusPending && r.GuardianApproval.Pending() && p.ID == r.ReceiverID {
				return nil, domain.ErrGuardianApprovalPending
			}
			return r.Accept(p.ID, req.Message, contact, now)
		})
}

func (uc *IntroductionUseCase) RejectRequest(ctx context.Context, actor domain.Actor, id uuid.UUID, req *RejectRequest) (*domain.IntroductionRequest, error) {
	if err := usecase.Validate(uc.validate, req); err != nil {
		return nil, err
	}
	return uc.transition(ctx, actor, id, domain.ActionReject,
		func(p *domain.Profile, r *domain.IntroductionRequest, now time.Time) ([]domain.Effect, error) {
			return r.Reject(p.ID, domain.ResponseReason(req.Reason), req.Message, now)
		})
}

func (uc *IntroductionUseCase) CancelRequest(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.IntroductionRequest, error) {
	return uc.transition(ctx, actor, id, domain.ActionCancel,
		func(p *domain.Profile, r *domain.IntroductionRequest, now time.Time) ([]domain.Effect, error) {
			return nil, r.Cancel(p.ID, now)
		})
}

// MarkRead is idempotent: a request that is already read is returned as is
// without a write.
func (uc *IntroductionUseCase) MarkRead(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.IntroductionRequest, error) {
	profile, request, err := uc.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	changed, err := request.MarkRead(profile.ID, uc.now())
	if err != nil || !changed {
		return request, err
	}
	if err := uc.requestRepo.Update(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

func (uc *IntroductionUseCase) ArrangeMeeting(ctx context.Context, actor domain.Actor, id uuid.UUID, req *ArrangeMeetingRequest) (*domain.IntroductionRequest, error) {
	if err := usecase.Validate(uc.validate, req); err != nil {
		return nil, err
	}
	return uc.transition(ctx, actor, id, domain.ActionArrangeMeeting,
		func(p *domain.Profile, r *domain.IntroductionRequest, now time.Time) ([]domain.Effect, error) {
			return r.ArrangeMeeting(p.ID, req.Date, req.Location, now)
		})
}

func (uc *IntroductionUseCase) RespondToMeeting(ctx context.Context, actor domain.Actor, id uuid.UUID, req *RespondMeetingRequest) (*domain.IntroductionRequest, error) {
	if err := usecase.Validate(uc.validate, req); err != nil {
		return nil, err
	}
	return uc.transition(ctx, actor, id, domain.ActionRespondMeeting,
		func(p *domain.Profile, r *domain.IntroductionRequest, now time.Time) ([]domain.Effect, error) {
			return r.RespondToMeeting(p.ID, *req.Confirm, now)
		})
}

// RecordGuardianApproval stores the guardian's decision as relayed by the
// receiver.
func (uc *IntroductionUseCase) RecordGuardianApproval(ctx context.Context, actor domain.Actor, id uuid.UUID, req *GuardianDecisionRequest) (*domain.IntroductionRequest, error) {
	if err := usecase.Validate(uc.validate, req); err != nil {
		return nil, err
	}
	return uc.transition(ctx, actor, id, domain.ActionGuardianDecision,
		func(p *domain.Profile, r *domain.IntroductionRequest, now time.Time) ([]domain.Effect, error) {
			return nil, r.RecordGuardianApproval(p.ID, *req.Approved, req.Notes, now)
		})
}

func (uc *IntroductionUseCase) HideRequest(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	_, err := uc.transition(ctx, actor, id, domain.ActionHide,
		func(p *domain.Profile, r *domain.IntroductionRequest, now time.Time) ([]domain.Effect, error) {
			return nil, r.Hide(p.ID, now)
		})
	return err
}

func (uc *IntroductionUseCase) ListSent(ctx context.Context, actor domain.Actor, q ListQuery) (*RequestPage, error) {
	return uc.list(ctx, actor, repository.DirectionSent, q)
}

func (uc *IntroductionUseCase) ListReceived(ctx context.Context, actor domain.Actor, q ListQuery) (*RequestPage, error) {
	return uc.list(ctx, actor, repository.DirectionReceived, q)
}

func (uc *IntroductionUseCase) list(ctx context.Context, actor domain.Actor, dir repository.Direction, q ListQuery) (*RequestPage, error) {
	if err := usecase.Validate(uc.validate, &q); err != nil {
		return nil, err
	}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.PageSize == 0 {
		q.PageSize = uc.cfg.DefaultPageSize
	}
	if uc.cfg.MaxPageSize > 0 && q.PageSize > uc.cfg.MaxPageSize {
		return nil, domain.NewValidationError("page_size", fmt.Sprintf("must be at most %d", uc.cfg.MaxPageSize))
	}
	offset, err := usecase.PageOffset(q.Page, q.PageSize)
	if err != nil {
		return nil, err
	}

	profile, err := usecase.ActorProfile(ctx, uc.profileRepo, actor)
	if err != nil {
		return nil, err
	}
	items, total, err := uc.requestRepo.List(ctx, repository.RequestListQuery{
		ProfileID: profile.ID,
		Direction: dir,
		Status:    domain.RequestStatus(q.Status),
		Limit:     q.PageSize,
		Offset:    offset,
	})
	if err != nil {
		return nil, fmt.Errorf("list %s requests: %w", dir, err)
	}
	if items == nil {
		items = []*domain.IntroductionRequest{}
	}
	return &RequestPage{Items: items, Total: total, Page: q.Page, PageSize: q.PageSize}, nil
}

type transitionFunc func(actor *domain.Profile, request *domain.IntroductionRequest, now time.Time) ([]domain.Effect, error)

// transition loads the request, applies fn and writes the result back with
// a version check. Effects are dispatched only after the write succeeds.
func (uc *IntroductionUseCase) transition(ctx context.Context, actor domain.Actor, id uuid.UUID, action domain.RequestAction, fn transitionFunc) (*domain.IntroductionRequest, error) {
	profile, request, err := uc.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	from := request.Status

	effects, err := fn(profile, request, uc.now())
	if err != nil {
		return nil, err
	}
	if err := uc.requestRepo.Update(ctx, request); err != nil {
		if errors.Is(err, domain.ErrConcurrentUpdate) {
			uc.logger.Warn("request transition lost a race",
				"request_id", id,
				"action", action,
			)
		}
		return nil, err
	}
	uc.effects.Dispatch(ctx, effects)

	uc.logger.Info("introduction request updated",
		"request_id", id,
		"action", action,
		"from", from,
		"to", request.Status,
		"actor_profile_id", profile.ID,
	)
	return request, nil
}

func (uc *IntroductionUseCase) load(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Profile, *domain.IntroductionRequest, error) {
	profile, err := usecase.ActorProfile(ctx, uc.profileRepo, actor)
	if err != nil {
		return nil, nil, err
	}
	request, err := uc.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !request.IsParty(profile.ID) || request.HiddenFor(profile.ID) {
		return nil, nil, domain.ErrRequestNotFound
	}
	return profile, request, nil
}
