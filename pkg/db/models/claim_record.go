package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/inkdrop-studio/inkdrop-backend/pkg/enums"
)

// ClaimRecord is the audit and idempotency trail of claim attempts. The
// partial unique index keeps at most one succeeded record per draft.
type ClaimRecord struct {
	ID                    uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	DraftID               uuid.UUID          `gorm:"column:draft_id;type:uuid;not null;index;uniqueIndex:idx_claim_succeeded,where:outcome = 'succeeded'"`
	CredentialFingerprint string             `gorm:"column:credential_fingerprint;not null"`
	AccountID             uuid.UUID          `gorm:"column:account_id;type:uuid;not null"`
	Outcome               enums.ClaimOutcome `gorm:"column:outcome;not null"`
	CreatedAt             time.Time          `gorm:"column:created_at;autoCreateTime"`
}
