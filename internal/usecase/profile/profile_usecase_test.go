package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gdugdh24/introductions-backend/internal/domain"
	"github.com/gdugdh24/introductions-backend/internal/infrastructure/logging"
	"github.com/gdugdh24/introductions-backend/internal/repository"
	"github.com/gdugdh24/introductions-backend/internal/repository/memory"
	"github.com/google/uuid"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func newUseCase() (*ProfileUseCase, repository.ProfileRepository) {
	repo := memory.NewProfileRepository()
	uc := NewProfileUseCase(repo, logging.Discard()).WithClock(func() time.Time { return now })
	return uc, repo
}

func fields() ProfileFields {
	return ProfileFields{
		DisplayName:    ptr("Aisha"),
		About:          ptr("Teacher from Leeds"),
		Age:            ptr(27),
		HeightCm:       ptr(165),
		Country:        ptr("UK"),
		City:           ptr("Leeds"),
		MaritalStatus:  ptr("never_married"),
		ReligiousLevel: ptr("practicing"),
		Education:      ptr("master"),
		Occupation:     ptr("teacher"),
		MarriageGoal:   ptr("within a year"),
		HasChildren:    ptr(false),
		WantsChildren:  ptr("yes"),
		PraysRegularly: ptr(true),
		WearsHijab:     ptr(true),
		WearsNiqab:     ptr(false),
	}
}

func create(t *testing.T, uc *ProfileUseCase, gender string, f ProfileFields) (domain.Actor, *domain.Profile) {
	t.Helper()
	actor := domain.Actor{UserID: uuid.New(), Role: domain.RoleUser}
	p, err := uc.CreateProfile(context.Background(), actor, &CreateProfileRequest{Gender: gender, ProfileFields: f})
	if err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}
	return actor, p
}

func TestCreateProfile(t *testing.T) {
	uc, _ := newUseCase()
	actor, p := create(t, uc, "female", fields())

	if p.CompletionPercentage != 100 || !p.IsActive || p.CreatedAt != now {
		t.Errorf("profile = %+v", p)
	}
	if p.Privacy.Visibility != domain.VisibilityEveryone || p.Privacy.MessagePermission != domain.MessageEveryone {
		t.Errorf("privacy defaults = %+v", p.Privacy)
	}

	_, err := uc.CreateProfile(context.Background(), actor, &CreateProfileRequest{Gender: "female"})
	if !errors.Is(err, domain.ErrProfileAlreadyExists) {
		t.Errorf("second profile = %v", err)
	}

	verified := domain.Actor{UserID: uuid.New(), Verified: true}
	vp, err := uc.CreateProfile(context.Background(), verified, &CreateProfileRequest{Gender: "male"})
	if err != nil || !vp.IsVerified {
		t.Errorf("verified actor = %v, %+v", err, vp)
	}
	if vp.CompletionPercentage != 0 {
		t.Errorf("empty profile completion = %d", vp.CompletionPercentage)
	}
}

func TestCreateProfileValidation(t *testing.T) {
	uc, _ := newUseCase()
	tests := []struct {
		name  string
		req   CreateProfileRequest
		field string
	}{
		{"missing gender", CreateProfileRequest{}, "gender"},
		{"bad gender", CreateProfileRequest{Gender: "other"}, "gender"},
		{"under age", CreateProfileRequest{Gender: "male", ProfileFields: ProfileFields{Age: ptr(16)}}, "age"},
		{"unknown education", CreateProfileRequest{Gender: "male", ProfileFields: ProfileFields{Education: ptr("phd")}}, "education"},
		{"bad guardian email", CreateProfileRequest{Gender: "female", ProfileFields: ProfileFields{
			Guardian: &GuardianInput{Name: "Father", Relationship: "father", Email: "nope"},
		}}, "guardian.email"},
		{"hijab on male", CreateProfileRequest{Gender: "male", ProfileFields: ProfileFields{WearsHijab: ptr(true)}}, "wears_hijab"},
		{"beard on female", CreateProfileRequest{Gender: "female", ProfileFields: ProfileFields{HasBeard: ptr(true)}}, "has_beard"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.CreateProfile(context.Background(), domain.Actor{UserID: uuid.New()}, &tt.req)
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want validation error", err)
			}
			if _, ok := verr.Fields[tt.field]; !ok {
				t.Errorf("fields = %v, want %s", verr.Fields, tt.field)
			}
		})
	}
}

func TestUpdateProfileRecomputesCompletion(t *testing.T) {
	uc, _ := newUseCase()
	actor, _ := create(t, uc, "female", ProfileFields{DisplayName: ptr("Aisha")})

	updated, err := uc.UpdateProfile(context.Background(), actor, &UpdateProfileRequest{ProfileFields: fields()})
	if err != nil {
		t.Fatal(err)
	}
	if updated.CompletionPercentage != 100 {
		t.Errorf("completion = %d", updated.CompletionPercentage)
	}

	updated, err = uc.UpdateProfile(context.Background(), actor, &UpdateProfileRequest{ProfileFields: ProfileFields{
		City:     ptr("York"),
		Guardian: &GuardianInput{Name: "Father", Relationship: "father", Phone: "0700"},
		Privacy:  &PrivacyInput{MessagePermission: ptr("verified_only")},
	}})
	if err != nil {
		t.Fatal(err)
	}
	if updated.City != "York" || updated.DisplayName != "Aisha" || updated.Guardian == nil {
		t.Errorf("partial update = %+v", updated)
	}
	if updated.Privacy.MessagePermission != domain.MessageVerifiedOnly || updated.Privacy.Visibility != domain.VisibilityEveryone {
		t.Errorf("privacy = %+v", updated.Privacy)
	}

	stranger := domain.Actor{UserID: uuid.New()}
	if _, err := uc.UpdateProfile(context.Background(), stranger, &UpdateProfileRequest{}); !errors.Is(err, domain.ErrProfileNotFound) {
		t.Errorf("no profile = %v", err)
	}
}

func TestViewProfile(t *testing.T) {
	uc, _ := newUseCase()
	womanActor, woman := create(t, uc, "female", fields())
	_, _ = uc.UpdateProfile(context.Background(), womanActor, &UpdateProfileRequest{ProfileFields: ProfileFields{
		Guardian: &GuardianInput{Name: "Father", Relationship: "father", Phone: "0700"},
	}})

	menFields := fields()
	menFields.WearsHijab, menFields.WearsNiqab = nil, nil
	menFields.HasBeard = ptr(true)
	manActor, man := create(t, uc, "male", menFields)
	otherWomanActor, _ := create(t, uc, "female", fields())

	view, err := uc.ViewProfile(context.Background(), manActor, woman.ID)
	if err != nil {
		t.Fatal(err)
	}
	if view.Compatibility == nil || view.Compatibility.Total == 0 {
		t.Errorf("compatibility = %+v", view.Compatibility)
	}
	if view.Profile.Guardian != nil {
		t.Error("guardian contact leaked to another member")
	}

	own, err := uc.ViewProfile(context.Background(), manActor, man.ID)
	if err != nil || own.Compatibility != nil {
		t.Errorf("own view = %+v, %v", own, err)
	}

	if _, err := uc.ViewProfile(context.Background(), otherWomanActor, woman.ID); !errors.Is(err, domain.ErrIneligiblePair) {
		t.Errorf("same gender view = %v", err)
	}

	if err := uc.DeleteProfile(context.Background(), womanActor); err != nil {
		t.Fatal(err)
	}
	if _, err := uc.ViewProfile(context.Background(), manActor, woman.ID); !errors.Is(err, domain.ErrProfileNotFound) {
		t.Errorf("deleted profile view = %v", err)
	}
	if _, err := uc.GetMyProfile(context.Background(), womanActor); !errors.Is(err, domain.ErrProfileNotFound) {
		t.Errorf("deleted owner = %v", err)
	}
}

func TestBlockUser(t *testing.T) {
	uc, repo := newUseCase()
	actor, p := create(t, uc, "female", fields())
	other := uuid.New()

	if _, err := uc.BlockUser(context.Background(), actor, actor.UserID); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("self block = %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := uc.BlockUser(context.Background(), actor, other); err != nil {
			t.Fatal(err)
		}
	}
	stored, _ := repo.GetByID(context.Background(), p.ID)
	if len(stored.Privacy.BlockedUsers) != 1 {
		t.Errorf("blocked = %v", stored.Privacy.BlockedUsers)
	}

	if _, err := uc.UnblockUser(context.Background(), actor, other); err != nil {
		t.Fatal(err)
	}
	stored, _ = repo.GetByID(context.Background(), p.ID)
	if stored.Privacy.Blocks(other) {
		t.Error("still blocked")
	}
}

func TestActorProfileMismatch(t *testing.T) {
	uc, _ := newUseCase()
	_, p := create(t, uc, "female", fields())

	forged := domain.Actor{UserID: uuid.New(), ProfileID: p.ID}
	if _, err := uc.GetMyProfile(context.Background(), forged); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("forged profile id = %v", err)
	}
}
