package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/inkdrop-studio/inkdrop-backend/pkg/enums"
)

// Draft is one pre-purchase design attempt. Ownership is a tagged union:
// exactly one of GuestCredentialHash or AccountID is live, discriminated by
// OwnerKind. The transition is one-directional, guest to account.
type Draft struct {
	ID                  uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	OwnerKind           enums.OwnerKind      `gorm:"column:owner_kind;not null;index"`
	GuestCredentialHash *string              `gorm:"column:guest_credential_hash"`
	AccountID           *uuid.UUID           `gorm:"column:account_id;type:uuid;index"`
	ProductID           uuid.UUID            `gorm:"column:product_id;type:uuid;not null"`
	Color               string               `gorm:"column:color;not null"`
	Size                string               `gorm:"column:size;not null"`
	Tier                string               `gorm:"column:tier;not null"`
	Quantity            int                  `gorm:"column:quantity;not null"`
	Lifecycle           enums.DraftLifecycle `gorm:"column:lifecycle;not null"`
	CreatedAt           time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
