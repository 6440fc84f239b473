package enums

// ClaimOutcome records how a claim attempt resolved.
type ClaimOutcome string

const (
	ClaimOutcomeSucceeded         ClaimOutcome = "succeeded"
	ClaimOutcomeAlreadyClaimed    ClaimOutcome = "already_claimed"
	ClaimOutcomeCredentialInvalid ClaimOutcome = "credential_invalid"
)

var validClaimOutcomes = []ClaimOutcome{
	ClaimOutcomeSucceeded,
	ClaimOutcomeAlreadyClaimed,
	ClaimOutcomeCredentialInvalid,
}

// String returns the literal string for the outcome.
func (c ClaimOutcome) String() string {
	return string(c)
}

// IsValid reports whether the outcome is known.
func (c ClaimOutcome) IsValid() bool {
	for _, candidate := range validClaimOutcomes {
		if candidate == c {
			return true
		}
	}
	return false
}
