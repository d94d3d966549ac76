package domain

// DenyReason names the eligibility rule that failed.
type DenyReason string

const (
	DenySelf                 DenyReason = "self"
	DenyUnavailable          DenyReason = "candidate_unavailable"
	DenySameGender           DenyReason = "same_gender"
	DenyVisibility           DenyReason = "visibility_restricted"
	DenyBlocked              DenyReason = "blocked"
	DenyVerificationRequired DenyReason = "verification_required"
	DenyMessagingDisabled    DenyReason = "messaging_disabled"
)

// CanInteract decides whether viewer may discover or contact candidate.
// Rules run in order and the first failure wins. A nil result means allow.
func CanInteract(viewer, candidate *Profile) *EligibilityError {
	if reason, ok := checkEligibility(viewer, candidate); !ok {
		return &EligibilityError{Reason: reason}
	}
	return nil
}

func checkEligibility(viewer, candidate *Profile) (DenyReason, bool) {
	if candidate.ID == viewer.ID || candidate.UserID == viewer.UserID {
		return DenySelf, false
	}
	if !candidate.Discoverable() {
		return DenyUnavailable, false
	}
	if candidate.Gender != viewer.Gender.Opposite() {
		return DenySameGender, false
	}
	if !candidate.Privacy.Visibility.Discoverable() {
		return DenyVisibility, false
	}
	if candidate.Privacy.Blocks(viewer.UserID) || viewer.Privacy.Blocks(candidate.UserID) {
		return DenyBlocked, false
	}
	if candidate.Privacy.Visibility == VisibilityVerifiedOnly && !viewer.IsVerified {
		return DenyVerificationRequired, false
	}
	return "", true
}

// CanMessage applies the receiver's message permission on top of CanInteract.
func CanMessage(sender, receiver *Profile) *EligibilityError {
	if err := CanInteract(sender, receiver); err != nil {
		return err
	}
	switch receiver.Privacy.MessagePermission {
	case MessageNone:
		return &EligibilityError{Reason: DenyMessagingDisabled}
	case MessageVerifiedOnly:
		if !sender.IsVerified {
			return &EligibilityError{Reason: DenyVerificationRequired}
		}
	}
	return nil
}
