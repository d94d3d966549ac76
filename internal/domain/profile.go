package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Opposite returns the only gender this domain introduces g to.
func (g Gender) Opposite() Gender {
	if g == GenderMale {
		return GenderFemale
	}
	return GenderMale
}

func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

type MaritalStatus string

const (
	MaritalNeverMarried MaritalStatus = "never_married"
	MaritalDivorced     MaritalStatus = "divorced"
	MaritalWidowed      MaritalStatus = "widowed"
	MaritalMarried      MaritalStatus = "married"
)

type ChildrenDesire string

const (
	ChildrenYes   ChildrenDesire = "yes"
	ChildrenNo    ChildrenDesire = "no"
	ChildrenMaybe ChildrenDesire = "maybe"
)

type Visibility string

const (
	VisibilityEveryone         Visibility = "everyone"
	VisibilityVerifiedOnly     Visibility = "verified_only"
	VisibilityMatchesOnly      Visibility = "matches_only"
	VisibilityGuardianApproved Visibility = "guardian_approved"
	VisibilityPremiumOnly      Visibility = "premium_only"
)

// DiscoverableVisibilities lists the visibility settings that take part in
// open discovery. The remaining settings need a separate approval path.
var DiscoverableVisibilities = []Visibility{
	VisibilityEveryone,
	VisibilityVerifiedOnly,
	VisibilityMatchesOnly,
}

func (v Visibility) Discoverable() bool {
	return slices.Contains(DiscoverableVisibilities, v)
}

type MessagePermission string

const (
	MessageEveryone     MessagePermission = "everyone"
	MessageVerifiedOnly MessagePermission = "verified_only"
	MessageNone         MessagePermission = "none"
)

type PrivacySettings struct {
	Visibility              Visibility        `json:"visibility"`
	MessagePermission       MessagePermission `json:"message_permission"`
	RequireGuardianApproval bool              `json:"require_guardian_approval"`
	BlockedUsers            []uuid.UUID       `json:"blocked_users"`
}

// Blocks reports whether userID is in the blocked-user set.
func (p PrivacySettings) Blocks(userID uuid.UUID) bool {
	return slices.Contains(p.BlockedUsers, userID)
}

// GuardianContact is the third party whose approval may be recorded against
// requests a profile receives.
type GuardianContact struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
}

func (g *GuardianContact) Reachable() bool {
	return g != nil && (g.Phone != "" || g.Email != "")
}

type Profile struct {
	ID                   uuid.UUID        `json:"id" db:"id"`
	UserID               uuid.UUID        `json:"user_id" db:"user_id"`
	DisplayName          string           `json:"display_name" db:"display_name"`
	About                string           `json:"about" db:"about"`
	Gender               Gender           `json:"gender" db:"gender"`
	Age                  int              `json:"age" db:"age"`
	HeightCm             int              `json:"height_cm" db:"height_cm"`
	Country              string           `json:"country" db:"country"`
	Region               string           `json:"region" db:"region"`
	City                 string           `json:"city" db:"city"`
	MaritalStatus        MaritalStatus    `json:"marital_status" db:"marital_status"`
	ReligiousLevel       ReligiousLevel   `json:"religious_level" db:"religious_level"`
	Education            EducationLevel   `json:"education" db:"education"`
	Occupation           string           `json:"occupation" db:"occupation"`
	MarriageGoal         string           `json:"marriage_goal" db:"marriage_goal"`
	HasChildren          *bool            `json:"has_children" db:"has_children"`
	WantsChildren        ChildrenDesire   `json:"wants_children" db:"wants_children"`
	HasBeard             *bool            `json:"has_beard,omitempty" db:"has_beard"`
	WearsHijab           *bool            `json:"wears_hijab,omitempty" db:"wears_hijab"`
	WearsNiqab           *bool            `json:"wears_niqab,omitempty" db:"wears_niqab"`
	PraysRegularly       *bool            `json:"prays_regularly" db:"prays_regularly"`
	IsVerified           bool             `json:"is_verified" db:"is_verified"`
	Guardian             *GuardianContact `json:"guardian,omitempty" db:"-"`
	Privacy              PrivacySettings  `json:"privacy" db:"-"`
	CompletionPercentage int              `json:"completion_percentage" db:"completion_percentage"`
	IsActive             bool             `json:"is_active" db:"is_active"`
	IsDeleted            bool             `json:"is_deleted" db:"is_deleted"`
	DeletedAt            *time.Time       `json:"deleted_at,omitempty" db:"deleted_at"`
	CreatedAt            time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at" db:"updated_at"`
}

// Discoverable reports whether the profile can appear to anyone at all.
func (p *Profile) Discoverable() bool {
	return p.IsActive && !p.IsDeleted
}

// Touch recomputes derived fields. Call it after every mutation and before
// the profile is persisted.
func (p *Profile) Touch(now time.Time) {
	p.CompletionPercentage = ComputeCompletion(p)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
}

// Block adds userID to the blocked set. It reports false when the user was
// already blocked.
func (p *Profile) Block(userID uuid.UUID) bool {
	if p.Privacy.Blocks(userID) {
		return false
	}
	p.Privacy.BlockedUsers = append(p.Privacy.BlockedUsers, userID)
	return true
}

func (p *Profile) Unblock(userID uuid.UUID) bool {
	i := slices.Index(p.Privacy.BlockedUsers, userID)
	if i < 0 {
		return false
	}
	p.Privacy.BlockedUsers = slices.Delete(p.Privacy.BlockedUsers, i, i+1)
	return true
}

// SoftDelete hides the profile from every discovery path. Profiles are never
// hard-deleted while requests reference them.
func (p *Profile) SoftDelete(now time.Time) {
	p.IsDeleted = true
	p.IsActive = false
	p.DeletedAt = &now
	p.UpdatedAt = now
}

// Public returns a copy without the fields only the owner may see.
func (p *Profile) Public() *Profile {
	c := p.Clone()
	c.Guardian = nil
	c.Privacy.BlockedUsers = nil
	return c
}

// Clone returns a deep copy so callers can mutate without touching shared state.
func (p *Profile) Clone() *Profile {
	c := *p
	c.HasChildren = cloneBool(p.HasChildren)
	c.HasBeard = cloneBool(p.HasBeard)
	c.WearsHijab = cloneBool(p.WearsHijab)
	c.WearsNiqab = cloneBool(p.WearsNiqab)
	c.PraysRegularly = cloneBool(p.PraysRegularly)
	if p.Guardian != nil {
		g := *p.Guardian
		c.Guardian = &g
	}
	if p.DeletedAt != nil {
		t := *p.DeletedAt
		c.DeletedAt = &t
	}
	c.Privacy.BlockedUsers = slices.Clone(p.Privacy.BlockedUsers)
	return &c
}

func cloneBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}
