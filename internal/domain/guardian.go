package domain

// RequiresGuardianApproval reports whether requests sent to receiver carry a
// guardian-approval record. Women with a reachable guardian on file always
// do; anyone may opt in through their privacy settings.
func RequiresGuardianApproval(receiver *Profile) bool {
	if receiver.Gender == GenderFemale && receiver.Guardian.Reachable() {
		return true
	}
	return receiver.Privacy.RequireGuardianApproval
}
