package profile

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gdugdh24/introductions-backend/internal/domain"
	"github.com/gdugdh24/introductions-backend/internal/repository"
	"github.com/gdugdh24/introductions-backend/internal/usecase"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type ProfileUseCase struct {
	profileRepo repository.ProfileRepository
	validate    *validator.Validate
	logger      *slog.Logger
	now         func() time.Time
}

func NewProfileUseCase(profileRepo repository.ProfileRepository, logger *slog.Logger) *ProfileUseCase {
	return &ProfileUseCase{
		profileRepo: profileRepo,
		validate:    usecase.NewValidator(),
		logger:      logger,
		now:         time.Now,
	}
}

// WithClock replaces the time source. Tests only.
func (uc *ProfileUseCase) WithClock(now func() time.Time) *ProfileUseCase {
	uc.now = now
	return uc
}

type GuardianInput struct {
	Name         string `json:"name" binding:"required,max=100"`
	Relationship string `json:"relationship" binding:"required,max=50"`
	Phone        string `json:"phone" binding:"omitempty,max=30"`
	Email        string `json:"email" binding:"omitempty,email"`
}

type PrivacyInput struct {
	Visibility              *string `json:"visibility" binding:"omitempty,oneof=everyone verified_only matches_only guardian_approved premium_only"`
	MessagePermission       *string `json:"message_permission" binding:"omitempty,oneof=everyone verified_only none"`
	RequireGuardianApproval *bool   `json:"require_guardian_approval"`
}

// ProfileFields are the editable fields shared by create and update. Nil
// means "leave as is".
type ProfileFields struct {
	DisplayName    *string        `json:"display_name" binding:"omitempty,min=2,max=100"`
	About          *string        `json:"about" binding:"omitempty,max=1000"`
	Age            *int           `json:"age" binding:"omitempty,min=18,max=100"`
	HeightCm       *int           `json:"height_cm" binding:"omitempty,min=100,max=250"`
	Country        *string        `json:"country" binding:"omitempty,max=100"`
	Region         *string        `json:"region" binding:"omitempty,max=100"`
	City           *string        `json:"city" binding:"omitempty,max=100"`
	MaritalStatus  *string        `json:"marital_status" binding:"omitempty,oneof=never_married divorced widowed married"`
	ReligiousLevel *string        `json:"religious_level" binding:"omitempty,oneof=basic moderate practicing very_religious"`
	Education      *string        `json:"education" binding:"omitempty,oneof=none primary high_school diploma bachelor master doctorate islamic_studies"`
	Occupation     *string        `json:"occupation" binding:"omitempty,max=150"`
	MarriageGoal   *string        `json:"marriage_goal" binding:"omitempty,max=300"`
	HasChildren    *bool          `json:"has_children"`
	WantsChildren  *string        `json:"wants_children" binding:"omitempty,oneof=yes no maybe"`
	HasBeard       *bool          `json:"has_beard"`
	WearsHijab     *bool          `json:"wears_hijab"`
	WearsNiqab     *bool          `json:"wears_niqab"`
	PraysRegularly *bool          `json:"prays_regularly"`
	Guardian       *GuardianInput `json:"guardian"`
	Privacy        *PrivacyInput  `json:"privacy"`
}

type CreateProfileRequest struct {
	Gender string `json:"gender" binding:"required,oneof=male female"`
	ProfileFields
}

type UpdateProfileRequest struct {
	ProfileFields
}

// ProfileView is another member's profile as the viewer may see it.
type ProfileView struct {
	Profile       *domain.Profile       `json:"profile"`
	Compatibility *domain.Compatibility `json:"compatibility,omitempty"`
}

func (uc *ProfileUseCase) CreateProfile(ctx context.Context, actor domain.Actor, req *CreateProfileRequest) (*domain.Profile, error) {
	if err := usecase.Validate(uc.validate, req); err != nil {
		return nil, err
	}

	if _, err := uc.profileRepo.GetByUserID(ctx, actor.UserID); err == nil {
		return nil, domain.ErrProfileAlreadyExists
	} else if !errors.Is(err, domain.ErrProfileNotFound) {
		return nil, err
	}

	profile := &domain.Profile{
		ID:         uuid.New(),
		UserID:     actor.UserID,
		Gender:     domain.Gender(req.Gender),
		IsVerified: actor.Verified,
		IsActive:   true,
		Privacy: domain.PrivacySettings{
			Visibility:        domain.VisibilityEveryone,
			MessagePermission: domain.MessageEveryone,
		},
	}
	if err := applyFields(profile, &req.ProfileFields); err != nil {
		return nil, err
	}
	profile.Touch(uc.now())

	if err := uc.profileRepo.Create(ctx, profile); err != nil {
		return nil, err
	}
	uc.logger.Info("profile created",
		"profile_id", profile.ID,
		"user_id", profile.UserID,
		"completion", profile.CompletionPercentage,
	)
	return profile, nil
}

func (uc *ProfileUseCase) GetMyProfile(ctx context.Context, actor domain.Actor) (*domain.Profile, error) {
	return usecase.ActorProfile(ctx, uc.profileRepo, actor)
}

// ViewProfile returns another profile if the eligibility rules let the
// viewer see it, together with how well the two fit.
func (uc *ProfileUseCase) ViewProfile(ctx context.Context, actor domain.Actor, profileID uuid.UUID) (*ProfileView, error) {
	viewer, err := usecase.ActorProfile(ctx, uc.profileRepo, actor)
	if err != nil {
		return nil, err
	}
	if profileID == viewer.ID {
		return &ProfileView{Profile: viewer}, nil
	}

	target, err := uc.profileRepo.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if e := domain.CanInteract(viewer, target); e != nil {
		// A hidden profile is indistinguishable from a missing one.
		if e.Reason == domain.DenyUnavailable {
			return nil, domain.ErrProfileNotFound
		}
		return nil, e
	}

	score := domain.ScoreCompatibility(viewer, target)
	return &ProfileView{Profile: target.Public(), Compatibility: &score}, nil
}

func (uc *ProfileUseCase) UpdateProfile(ctx context.Context, actor domain.Actor, req *UpdateProfileRequest) (*domain.Profile, error) {
	if err := usecase.Validate(uc.validate, req); err != nil {
		return nil, err
	}
	profile, err := usecase.ActorProfile(ctx, uc.profileRepo, actor)
	if err != nil {
		return nil, err
	}
	if err := applyFields(profile, &req.ProfileFields); err != nil {
		return nil, err
	}
	return uc.save(ctx, profile)
}

// BlockUser adds userID to the caller's blocked set. Blocking is idempotent.
func (uc *ProfileUseCase) BlockUser(ctx context.Context, actor domain.Actor, userID uuid.UUID) (*domain.Profile, error) {
	if userID == actor.UserID {
		return nil, domain.NewValidationError("user_id", "cannot block yourself")
	}
	profile, err := usecase.ActorProfile(ctx, uc.profileRepo, actor)
	if err != nil {
		return nil, err
	}
	if !profile.Block(userID) {
		return profile, nil
	}
	return uc.save(ctx, profile)
}

func (uc *ProfileUseCase) UnblockUser(ctx context.Context, actor domain.Actor, userID uuid.UUID) (*domain.Profile, error) {
	profile, err := usecase.ActorProfile(ctx, uc.profileRepo, actor)
	if err != nil {
		return nil, err
	}
	if !profile.Unblock(userID) {
		return profile, nil
	}
	return uc.save(ctx, profile)
}

// DeleteProfile soft-deletes the caller's profile. Requests that reference
// it are kept.
func (uc *ProfileUseCase) DeleteProfile(ctx context.Context, actor domain.Actor) error {
	profile, err := usecase.ActorProfile(ctx, uc.profileRepo, actor)
	if err != nil {
		return err
	}
	profile.SoftDelete(uc.now())
	if err := uc.profileRepo.Update(ctx, profile); err != nil {
		return err
	}
	uc.logger.Info("profile deleted", "profile_id", profile.ID)
	return nil
}

func (uc *ProfileUseCase) save(ctx context.Context, profile *domain.Profile) (*domain.Profile, error) {
	profile.Touch(uc.now())
	if err := uc.profileRepo.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func applyFields(p *domain.Profile, f *ProfileFields) error {
	if p.Gender == domain.GenderMale && (isTrue(f.WearsHijab) || isTrue(f.WearsNiqab)) {
		return domain.NewValidationError("wears_hijab", "only applies to female profiles")
	}
	if p.Gender == domain.GenderFemale && isTrue(f.HasBeard) {
		return domain.NewValidationError("has_beard", "only applies to male profiles")
	}

	setString(&p.DisplayName, f.DisplayName)
	setString(&p.About, f.About)
	setString(&p.Country, f.Country)
	setString(&p.Region, f.Region)
	setString(&p.City, f.City)
	setString(&p.Occupation, f.Occupation)
	setString(&p.MarriageGoal, f.MarriageGoal)
	if f.Age != nil {
		p.Age = *f.Age
	}
	if f.HeightCm != nil {
		p.HeightCm = *f.HeightCm
	}
	if f.MaritalStatus != nil {
		p.MaritalStatus = domain.MaritalStatus(*f.MaritalStatus)
	}
	if f.ReligiousLevel != nil {
		p.ReligiousLevel = domain.ReligiousLevel(*f.ReligiousLevel)
	}
	if f.Education != nil {
		p.Education = domain.EducationLevel(*f.Education)
	}
	if f.WantsChildren != nil {
		p.WantsChildren = domain.ChildrenDesire(*f.WantsChildren)
	}
	setBool(&p.HasChildren, f.HasChildren)
	setBool(&p.HasBeard, f.HasBeard)
	setBool(&p.WearsHijab, f.WearsHijab)
	setBool(&p.WearsNiqab, f.WearsNiqab)
	setBool(&p.PraysRegularly, f.PraysRegularly)

	if g := f.Guardian; g != nil {
		p.Guardian = &domain.GuardianContact{
			Name:         g.Name,
			Relationship: g.Relationship,
			Phone:        g.Phone,
			Email:        g.Email,
		}
	}
	if pr := f.Privacy; pr != nil {
		if pr.Visibility != nil {
			p.Privacy.Visibility = domain.Visibility(*pr.Visibility)
		}
		if pr.MessagePermission != nil {
			p.Privacy.MessagePermission = domain.MessagePermission(*pr.MessagePermission)
		}
		if pr.RequireGuardianApproval != nil {
			p.Privacy.RequireGuardianApproval = *pr.RequireGuardianApproval
		}
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst **bool, src *bool) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

func isTrue(b *bool) bool {
	return b != nil && *b
}
